package service

import (
	"context"
	"testing"
	"time"

	"github.com/TIANLI0/RidgeTrace/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisTraceResultKeyAndTTL(t *testing.T) {
	s, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.SetTraceResult(ctx, "u1:abc:30:false:0", &model.TraceResult{MD5: "abc"}))
	assert.True(t, mr.Exists("trace:u1:abc:30:false:0"))
	assert.Equal(t, time.Hour, mr.TTL("trace:u1:abc:30:false:0"))

	mr.FastForward(2 * time.Hour)
	got, err := s.GetTraceResult(ctx, "u1:abc:30:false:0")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCorruptTraceResult(t *testing.T) {
	s, mr := newTestRedis(t)
	require.NoError(t, mr.Set("trace:bad", "{not json"))

	_, err := s.GetTraceResult(context.Background(), "bad")
	assert.Error(t, err)
}

func TestRedisUserKeyIsNormalised(t *testing.T) {
	s, mr := newTestRedis(t)
	require.NoError(t, s.CreateUser(context.Background(), &model.User{ID: "u1", Email: " Op@Example.com"}))
	assert.True(t, mr.Exists("user:op@example.com"))
}

func TestRedisListScansSkipsMissingAndCorrupt(t *testing.T) {
	s, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.AddScan(ctx, &model.Scan{ID: "s1", UserID: "u1"}))
	require.NoError(t, s.AddScan(ctx, &model.Scan{ID: "s2", UserID: "u1"}))
	require.NoError(t, s.AddScan(ctx, &model.Scan{ID: "s3", UserID: "u1"}))

	require.NoError(t, mr.Set("scan:s2", "{broken"))
	mr.Del("scan:s1")

	scans, err := s.ListScans(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, "s3", scans[0].ID)
}

func TestRedisDeleteScanCleansList(t *testing.T) {
	s, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.AddScan(ctx, &model.Scan{ID: "s1", UserID: "u1"}))
	require.NoError(t, s.AddScan(ctx, &model.Scan{ID: "s2", UserID: "u1"}))

	ids, err := mr.List("scans:u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2", "s1"}, ids)

	require.ErrorIs(t, s.DeleteScan(ctx, "u2", "s1"), ErrScanNotFound)
	assert.True(t, mr.Exists("scan:s1"))

	require.NoError(t, s.DeleteScan(ctx, "u1", "s1"))
	assert.False(t, mr.Exists("scan:s1"))
	ids, err = mr.List("scans:u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, ids)
}

func TestRedisUnavailable(t *testing.T) {
	s, mr := newTestRedis(t)
	mr.Close()

	ctx := context.Background()
	assert.Error(t, s.Ping(ctx))
	_, err := s.GetTraceResult(ctx, "k")
	assert.Error(t, err)
}
