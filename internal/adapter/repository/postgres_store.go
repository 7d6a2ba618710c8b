package repository

import (
	"context"
	"fmt"
	"time"

	"github-repo-radar/internal/common"
	"github-repo-radar/internal/port"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// cacheRecord 持久层中的一条缓存
type cacheRecord struct {
	CacheKey  string    `gorm:"primaryKey;column:cache_key"`
	Value     []byte    `gorm:"type:bytea"`
	TTLClass  string    `gorm:"column:ttl_class"`
	StoredAt  time.Time `gorm:"column:stored_at"`
	ExpiresAt time.Time `gorm:"column:expires_at;index"`
}

func (cacheRecord) TableName() string {
	return "cache_entries"
}

// PostgresStore 实现了 port.PersistentStore 接口
type PostgresStore struct {
	db      *gorm.DB
	nowFunc func() time.Time
}

// NewPostgresStore 初始化数据库连接并自动迁移表结构。
// 数据库可能比应用启动得晚，连接失败会按指数退避重试几次。
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	var db *gorm.DB
	err := common.Do(ctx, func() error {
		var openErr error
		db, openErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		return openErr
	},
		common.WithMaxRetries(3),
		common.WithInitialDelay(500*time.Millisecond),
	)
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "连接缓存数据库失败", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&cacheRecord{}); err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "缓存表迁移失败", err)
	}

	return &PostgresStore{db: db, nowFunc: time.Now}, nil
}

// Load 返回所有未过期的记录
func (s *PostgresStore) Load(ctx context.Context) ([]port.PersistedEntry, error) {
	var rows []cacheRecord
	err := s.db.WithContext(ctx).
		Where("expires_at > ?", s.nowFunc()).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("读取缓存记录失败: %w", err)
	}

	entries := make([]port.PersistedEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, port.PersistedEntry{
			Key:       row.CacheKey,
			Value:     row.Value,
			Class:     port.TTLClass(row.TTLClass),
			StoredAt:  row.StoredAt,
			ExpiresAt: row.ExpiresAt,
		})
	}
	return entries, nil
}

// Put 插入或覆盖 (Upsert)
func (s *PostgresStore) Put(ctx context.Context, entry port.PersistedEntry) error {
	row := cacheRecord{
		CacheKey:  entry.Key,
		Value:     entry.Value,
		TTLClass:  string(entry.Class),
		StoredAt:  entry.StoredAt,
		ExpiresAt: entry.ExpiresAt,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

// Delete 删除单条记录
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).
		Where("cache_key = ?", key).
		Delete(&cacheRecord{}).Error
}

// Clear 清空整张表
func (s *PostgresStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&cacheRecord{}).Error
}

// PurgeExpired 删除已过期的记录，返回删除条数。缓存本身从不主动清理，这里供维护命令使用。
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at <= ?", s.nowFunc()).
		Delete(&cacheRecord{})
	return result.RowsAffected, result.Error
}
