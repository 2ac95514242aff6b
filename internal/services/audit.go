package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"rolodex/internal/storage"
)

// AuditService 将记录级变更的审计日志持久化到数据库。
type AuditService struct{ db *gorm.DB }

func NewAuditService(db *gorm.DB) *AuditService { return &AuditService{db: db} }

// AuditWriteOpts 携带请求上下文的可选字段。
type AuditWriteOpts struct {
	RequestID string
	Method    string
	Path      string
	Status    int
	Outcome   string
}

// Write 写入一条审计日志。写入失败不向上游传播，审计不阻断业务。
func (s *AuditService) Write(ctx context.Context, level, event string, recordID *uint64, desc, ip string, opts AuditWriteOpts) {
	_ = s.db.WithContext(ctx).Create(&storage.AuditRecord{
		Timestamp:   time.Now(),
		Level:       level,
		Event:       event,
		RecordID:    recordID,
		Description: desc,
		IPAddress:   ip,
		RequestID:   opts.RequestID,
		Method:      opts.Method,
		Path:        opts.Path,
		Status:      opts.Status,
		Outcome:     opts.Outcome,
	}).Error
}

// Query 按事件与记录 ID 过滤查询最近的审计日志。
func (s *AuditService) Query(ctx context.Context, event string, recordID *uint64, limit int) ([]storage.AuditRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	q := s.db.WithContext(ctx).Model(&storage.AuditRecord{})
	if event != "" {
		q = q.Where("event = ?", event)
	}
	if recordID != nil {
		q = q.Where("record_id = ?", *recordID)
	}
	var list []storage.AuditRecord
	if err := q.Order("timestamp desc").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
