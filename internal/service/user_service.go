package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/psds-microservice/chamados-service/internal/model"
	"gorm.io/gorm"
)

// ErrUserNotFound is returned when no active user has the given username.
var ErrUserNotFound = errors.New("user not found")

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetActiveByUsername looks up an active user by username.
func (s *UserService) GetActiveByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("username = ? AND ativo = ?", username, true).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrapf(err, "get user %q", username)
	}
	return &u, nil
}

func (s *UserService) Create(ctx context.Context, u *model.User) error {
	return errors.Wrapf(s.db.WithContext(ctx).Create(u).Error, "create user %q", u.Username)
}
