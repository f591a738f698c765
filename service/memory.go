package service

import (
	"context"
	"strings"
	"sync"

	"github.com/TIANLI0/RidgeTrace/model"
)

// MemoryStore 进程内存储，Redis 不可用时使用
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]model.TraceResult
	users   map[string]model.User
	scans   map[string][]model.Scan // userID -> 新记录在前
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		results: make(map[string]model.TraceResult),
		users:   make(map[string]model.User),
		scans:   make(map[string][]model.Scan),
	}
}

func (m *MemoryStore) GetTraceResult(_ context.Context, key string) (*model.TraceResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *MemoryStore) SetTraceResult(_ context.Context, key string, result *model.TraceResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[key] = *result
	return nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *MemoryStore) CreateUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(strings.TrimSpace(user.Email))
	if _, ok := m.users[key]; ok {
		return ErrUserExists
	}
	m.users[key] = *user
	return nil
}

func (m *MemoryStore) AddScan(_ context.Context, scan *model.Scan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans[scan.UserID] = append([]model.Scan{*scan}, m.scans[scan.UserID]...)
	return nil
}

func (m *MemoryStore) ListScans(_ context.Context, userID string) ([]model.Scan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Scan, len(m.scans[userID]))
	copy(out, m.scans[userID])
	return out, nil
}

func (m *MemoryStore) DeleteScan(_ context.Context, userID, scanID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.scans[userID]
	for i, s := range list {
		if s.ID == scanID {
			m.scans[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrScanNotFound
}
