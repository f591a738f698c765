package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TIANLI0/RidgeTrace/config"
	"github.com/TIANLI0/RidgeTrace/model"
	"github.com/TIANLI0/RidgeTrace/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisService(cfg *config.RedisConfig) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisService{
		client: client,
		ttl:    cfg.TTL,
	}
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// GetTraceResult 从缓存获取追踪结果
func (s *RedisService) GetTraceResult(ctx context.Context, key string) (*model.TraceResult, error) {
	data, err := s.client.Get(ctx, "trace:"+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 缓存未命中
		}
		return nil, err
	}

	var result model.TraceResult
	if err := json.Unmarshal(data, &result); err != nil {
		utils.Logger.Error("failed to unmarshal trace result",
			zap.String("key", key), zap.Error(err))
		return nil, err
	}

	return &result, nil
}

// SetTraceResult 设置追踪结果到缓存
func (s *RedisService) SetTraceResult(ctx context.Context, key string, result *model.TraceResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, "trace:"+key, data, s.ttl).Err()
}

func userKey(email string) string {
	return "user:" + strings.ToLower(strings.TrimSpace(email))
}

// GetUserByEmail 根据邮箱查询用户
func (s *RedisService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	data, err := s.client.Get(ctx, userKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

// CreateUser 创建用户，邮箱已存在时返回 ErrUserExists
func (s *RedisService) CreateUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, userKey(user.Email), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserExists
	}
	return nil
}

func scanKey(id string) string      { return "scan:" + id }
func scanListKey(uid string) string { return "scans:" + uid }

// AddScan 保存一条历史记录，新记录在前
func (s *RedisService) AddScan(ctx context.Context, scan *model.Scan) error {
	data, err := json.Marshal(scan)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, scanKey(scan.ID), data, 0)
		pipe.LPush(ctx, scanListKey(scan.UserID), scan.ID)
		return nil
	})
	return err
}

// ListScans 返回用户的历史记录，按时间倒序
func (s *RedisService) ListScans(ctx context.Context, userID string) ([]model.Scan, error) {
	ids, err := s.client.LRange(ctx, scanListKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.Scan{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = scanKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	scans := make([]model.Scan, 0, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var scan model.Scan
		if err := json.Unmarshal([]byte(str), &scan); err != nil {
			utils.Logger.Warn("skipping corrupt scan",
				zap.String("scan_id", ids[i]), zap.Error(err))
			continue
		}
		scans = append(scans, scan)
	}
	return scans, nil
}

// DeleteScan 删除用户的一条历史记录
func (s *RedisService) DeleteScan(ctx context.Context, userID, scanID string) error {
	data, err := s.client.Get(ctx, scanKey(scanID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrScanNotFound
		}
		return err
	}

	var scan model.Scan
	if err := json.Unmarshal(data, &scan); err != nil {
		return fmt.Errorf("decode scan: %w", err)
	}
	if scan.UserID != userID {
		return ErrScanNotFound
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, scanKey(scanID))
		pipe.LRem(ctx, scanListKey(userID), 0, scanID)
		return nil
	})
	return err
}

func (s *RedisService) Close() error {
	return s.client.Close()
}
