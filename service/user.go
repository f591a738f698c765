package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TIANLI0/RidgeTrace/model"
	"github.com/TIANLI0/RidgeTrace/utils"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// UserService 负责注册与登录
type UserService struct {
	store    UserStore
	sessions *SessionService
	cost     int
}

func NewUserService(store UserStore, sessions *SessionService) *UserService {
	return &UserService{
		store:    store,
		sessions: sessions,
		cost:     bcrypt.DefaultCost,
	}
}

// Register 创建用户并签发令牌
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           utils.GenerateID(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().Unix(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.sessions.Issue(user)
	if err != nil {
		return nil, "", err
	}

	utils.Logger.Info("user registered", zap.String("user_id", user.ID))
	public := user.Public()
	return &public, token, nil
}

// Login 校验密码并签发令牌
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (*model.User, string, error) {
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.sessions.Issue(user)
	if err != nil {
		return nil, "", err
	}

	public := user.Public()
	return &public, token, nil
}
