package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/TIANLI0/RidgeTrace/model"
	"github.com/TIANLI0/RidgeTrace/tracer"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrScanNotFound = errors.New("scan not found")
)

// ResultCache 追踪结果缓存，未命中时返回 (nil, nil)
type ResultCache interface {
	GetTraceResult(ctx context.Context, key string) (*model.TraceResult, error)
	SetTraceResult(ctx context.Context, key string, result *model.TraceResult) error
}

// UserStore 用户存储，未找到时返回 (nil, nil)
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
}

// ScanStore 历史记录存储
type ScanStore interface {
	AddScan(ctx context.Context, scan *model.Scan) error
	ListScans(ctx context.Context, userID string) ([]model.Scan, error)
	DeleteScan(ctx context.Context, userID, scanID string) error
}

// Store 聚合全部存储接口
type Store interface {
	ResultCache
	UserStore
	ScanStore
}

// CacheKey 由上传用户、图片MD5、处理参数与缩放上限组成缓存键，
// 结果只对上传者可见，缩放上限变更后旧结果不再命中
func CacheKey(userID, md5 string, p tracer.Params, maxDimension int) string {
	return fmt.Sprintf("%s:%s:%s:%t:%d", userID, md5,
		strconv.FormatFloat(p.Threshold, 'g', -1, 64), p.Invert, maxDimension)
}

var (
	_ Store = (*RedisService)(nil)
	_ Store = (*MemoryStore)(nil)
)
