package storage

import (
	"time"

	"gorm.io/gorm"
)

// 本文件定义服务使用的所有 GORM 模型，集中管理数据结构。

// ClientRecord 是客户目录中的一条记录。ID 由数据库自增分配，创建后不变；
// Email 在全表范围内唯一。
type ClientRecord struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:190"`
	Email     string `gorm:"size:190;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 固定表名为 clients，避免 GORM 复数化推断。
func (ClientRecord) TableName() string { return "clients" }

// AuditRecord 持久化记录级变更的审计日志（创建/更新/删除）。
type AuditRecord struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Timestamp   time.Time `gorm:"index"`
	Level       string    `gorm:"size:16;index"`
	Event       string    `gorm:"size:64;index"` // CLIENT_CREATED | CLIENT_UPDATED | CLIENT_DELETED
	RecordID    *uint64   `gorm:"index"`
	Description string    `gorm:"type:longtext"`
	IPAddress   string    `gorm:"size:64"`
	RequestID   string    `gorm:"size:64;index"`
	Method      string    `gorm:"size:8"`
	Path        string    `gorm:"size:255"`
	Status      int       `gorm:"index"`
	Outcome     string    `gorm:"size:16;index"` // success | failure
}

// AutoMigrate 迁移全部模型对应的表结构。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ClientRecord{}, &AuditRecord{})
}
