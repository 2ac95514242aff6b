package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"rolodex/internal/config"
	"rolodex/internal/storage"
)

// 领域哨兵错误：handlers 据此映射 HTTP 状态码。
var (
	ErrNotFound   = errors.New("client not found")
	ErrEmailTaken = errors.New("email already registered")
)

// ClientService 管理客户记录的增删改查，并维护按 ID 查询的 Redis 旁路缓存。
// rdb 为 nil 时缓存自动停用，纯走数据库。
type ClientService struct {
	db  *gorm.DB
	rdb *redis.Client
	cfg config.Config
}

func NewClientService(db *gorm.DB, rdb *redis.Client, cfg config.Config) *ClientService {
	return &ClientService{db: db, rdb: rdb, cfg: cfg}
}

// DB 返回底层 *gorm.DB，供健康检查等只读用途使用。
func (s *ClientService) DB() *gorm.DB { return s.db }

// Create 插入一条新记录并返回含自增 ID 的完整记录。
// 邮箱冲突映射为 ErrEmailTaken。
func (s *ClientService) Create(ctx context.Context, name, email string) (*storage.ClientRecord, error) {
	rec := &storage.ClientRecord{Name: name, Email: email}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create client: %w", ErrEmailTaken)
		}
		return nil, fmt.Errorf("create client: %w", err)
	}
	return rec, nil
}

// List 返回按 ID 升序分页的记录与总数。limit/offset 边界由 handler 负责裁剪。
func (s *ClientService) List(ctx context.Context, limit, offset int) ([]storage.ClientRecord, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&storage.ClientRecord{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}
	var list []storage.ClientRecord
	if err := s.db.WithContext(ctx).Order("id asc").Limit(limit).Offset(offset).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	return list, total, nil
}

// Get 按 ID 查询，命中缓存时不触达数据库；未命中则回源并写缓存。
func (s *ClientService) Get(ctx context.Context, id uint64) (*storage.ClientRecord, error) {
	if rec, ok := s.cacheGet(ctx, id); ok {
		return rec, nil
	}
	var rec storage.ClientRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	s.cacheSet(ctx, &rec)
	return &rec, nil
}

// Update 全量替换 name 与 email。先确认记录存在，再以主键限定的单条语句写回；
// 若写回时记录已被并发删除（RowsAffected=0）同样返回 ErrNotFound，不会留下部分写入。
func (s *ClientService) Update(ctx context.Context, id uint64, name, email string) (*storage.ClientRecord, error) {
	var rec storage.ClientRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load client: %w", err)
	}
	if rec.Name == name && rec.Email == email {
		// 字段未变化时不产生写操作
		return &rec, nil
	}
	res := s.db.WithContext(ctx).Model(&storage.ClientRecord{}).Where("id = ?", id).
		Updates(map[string]any{"name": name, "email": email})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("update client: %w", ErrEmailTaken)
		}
		return nil, fmt.Errorf("update client: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	s.cacheInvalidate(ctx, id)
	rec.Name = name
	rec.Email = email
	return &rec, nil
}

// Delete 按 ID 物理删除；记录不存在时返回 ErrNotFound。
func (s *ClientService) Delete(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Delete(&storage.ClientRecord{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete client: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.cacheInvalidate(ctx, id)
	return nil
}

// Count 返回当前记录总数。
func (s *ClientService) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&storage.ClientRecord{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// --- Redis 旁路缓存（key=client:<id>，值为 JSON） ---

func (s *ClientService) cacheKey(id uint64) string { return fmt.Sprintf("client:%d", id) }

func (s *ClientService) cacheEnabled() bool {
	return s.rdb != nil && s.cfg.Cache.Enable && s.cfg.Cache.TTL > 0
}

func (s *ClientService) cacheGet(ctx context.Context, id uint64) (*storage.ClientRecord, bool) {
	if !s.cacheEnabled() {
		return nil, false
	}
	cmd := s.rdb.Get(ctx, s.cacheKey(id))
	if cmd.Err() != nil {
		return nil, false
	}
	var rec storage.ClientRecord
	if err := json.Unmarshal([]byte(cmd.Val()), &rec); err != nil {
		return nil, false
	}
	return &rec, true
}

func (s *ClientService) cacheSet(ctx context.Context, rec *storage.ClientRecord) {
	if !s.cacheEnabled() {
		return
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return
	}
	// 缓存写入失败只影响命中率，不影响正确性
	_ = s.rdb.Set(ctx, s.cacheKey(rec.ID), b, s.cfg.Cache.TTL).Err()
}

func (s *ClientService) cacheInvalidate(ctx context.Context, id uint64) {
	if s.rdb == nil {
		return
	}
	_ = s.rdb.Del(ctx, s.cacheKey(id)).Err()
}
