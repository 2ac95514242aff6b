package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"rolodex/internal/config"
	"rolodex/internal/storage"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         glogger.Default.LogMode(glogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, storage.AutoMigrate(db))
	return db
}

func newTestService(t *testing.T) *ClientService {
	t.Helper()
	cfg := config.Config{Cache: config.CacheConfig{Enable: false}}
	return NewClientService(newTestDB(t), nil, cfg)
}

// newCachedService 返回启用 Redis 旁路缓存的服务（miniredis 后端）。
func newCachedService(t *testing.T) (*ClientService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cfg := config.Config{Cache: config.CacheConfig{Enable: true, TTL: time.Minute}}
	return NewClientService(newTestDB(t), rdb, cfg), mr
}

func TestCreateAssignsUniqueIncreasingIDs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seen := map[uint64]bool{}
	var last uint64
	for i := 0; i < 5; i++ {
		rec, err := svc.Create(ctx, "Acme", string(rune('a'+i))+"@example.com")
		require.NoError(t, err)
		require.False(t, seen[rec.ID])
		require.Greater(t, rec.ID, last)
		seen[rec.ID] = true
		last = rec.ID
	}
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "John Doe", "john.doe@example.com")
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.WithinDuration(t, time.Now(), created.CreatedAt, 5*time.Second)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, "John Doe", got.Name)
	require.Equal(t, "john.doe@example.com", got.Email)
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "A", "dup@example.com")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "B", "dup@example.com")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestGetAbsent(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Get(context.Background(), 999999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateReplacesFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "Old Name", "old@example.com")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, "New Name", "new@example.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "New Name", updated.Name)
	require.Equal(t, "new@example.com", updated.Email)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "New Name", got.Name)
	require.Equal(t, "new@example.com", got.Email)
}

func TestUpdateAbsentLeavesNoPartialWrite(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Update(ctx, 424242, "Ghost", "ghost@example.com")
	require.ErrorIs(t, err, ErrNotFound)

	total, err := svc.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestUpdateNoopWhenUnchanged(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "Same", "same@example.com")
	require.NoError(t, err)
	updated, err := svc.Update(ctx, created.ID, "Same", "same@example.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
}

func TestUpdateDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "A", "a@example.com")
	require.NoError(t, err)
	b, err := svc.Create(ctx, "B", "b@example.com")
	require.NoError(t, err)
	_, err = svc.Update(ctx, b.ID, "B", "a@example.com")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestDeleteThenGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "Gone Soon", "gone@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, svc.Delete(ctx, created.ID), ErrNotFound)
}

func TestListReflectsLiveRecords(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, "A", "a@example.com")
	require.NoError(t, err)
	b, err := svc.Create(ctx, "B", "b@example.com")
	require.NoError(t, err)
	c, err := svc.Create(ctx, "C", "c@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, b.ID))

	list, total, err := svc.List(ctx, 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, list, 2)
	require.Equal(t, a.ID, list[0].ID)
	require.Equal(t, c.ID, list[1].ID)

	// 无写入时重复调用结果一致
	again, totalAgain, err := svc.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Equal(t, total, totalAgain)
	require.Equal(t, list, again)
}

func TestGetPopulatesCache(t *testing.T) {
	svc, mr := newCachedService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "Cached", "cached@example.com")
	require.NoError(t, err)

	key := fmt.Sprintf("client:%d", created.ID)
	require.False(t, mr.Exists(key))

	_, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(key))
	val, err := mr.Get(key)
	require.NoError(t, err)
	require.Contains(t, val, "cached@example.com")
	ttl := mr.TTL(key)
	require.Greater(t, ttl, time.Duration(0))
	require.LessOrEqual(t, ttl, time.Minute)
}

func TestGetServesFromCache(t *testing.T) {
	svc, _ := newCachedService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "Hot", "hot@example.com")
	require.NoError(t, err)
	_, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)

	// 绕过服务直接改库：命中缓存时不应看到新值
	require.NoError(t, svc.db.Model(&storage.ClientRecord{}).Where("id = ?", created.ID).
		Update("name", "Changed Behind Cache").Error)
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Hot", got.Name)
}

func TestUpdateInvalidatesCache(t *testing.T) {
	svc, mr := newCachedService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "Before", "before@example.com")
	require.NoError(t, err)
	_, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	key := fmt.Sprintf("client:%d", created.ID)
	require.True(t, mr.Exists(key))

	_, err = svc.Update(ctx, created.ID, "After", "after@example.com")
	require.NoError(t, err)
	require.False(t, mr.Exists(key))

	// 更新后的读取不得返回旧缓存值
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "After", got.Name)
	require.Equal(t, "after@example.com", got.Email)
}

func TestDeleteInvalidatesCache(t *testing.T) {
	svc, mr := newCachedService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "Doomed", "doomed@example.com")
	require.NoError(t, err)
	_, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	key := fmt.Sprintf("client:%d", created.ID)
	require.True(t, mr.Exists(key))

	require.NoError(t, svc.Delete(ctx, created.ID))
	require.False(t, mr.Exists(key))
	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListPagination(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, "N", string(rune('a'+i))+"@page.example.com")
		require.NoError(t, err)
	}
	page1, total, err := svc.List(ctx, 2, 0)
	require.NoError(t, err)
	require.EqualValues(t, 5, total)
	require.Len(t, page1, 2)

	page3, _, err := svc.List(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	require.Greater(t, page3[0].ID, page1[1].ID)
}
