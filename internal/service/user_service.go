package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/eventmate/eventmate-server/internal/domain"
	"github.com/eventmate/eventmate-server/internal/enrollment"
	"github.com/eventmate/eventmate-server/internal/repo/postgres"
)

type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	SearchUsers(ctx context.Context, query string) ([]domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, fullName, phone, company, jobTitle string) (*domain.User, error)
}

type userService struct {
	userRepo postgres.UserRepo
}

func NewUserService(userRepo postgres.UserRepo) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}
	return user, nil
}

func (s *userService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.userRepo.FindByEmail(ctx, email)
}

// SearchUsers matches names and emails. Queries shorter than the
// incremental-search minimum return nothing.
func (s *userService) SearchUsers(ctx context.Context, query string) ([]domain.User, error) {
	query = strings.TrimSpace(query)
	if len(query) < enrollment.MinSearchQueryLen {
		return []domain.User{}, nil
	}
	return s.userRepo.Search(ctx, query, 10)
}

func (s *userService) UpdateProfile(ctx context.Context, userID int64, fullName, phone, company, jobTitle string) (*domain.User, error) {
	if strings.TrimSpace(fullName) == "" {
		return nil, fmt.Errorf("%w: full_name is required", domain.ErrInvalidRequest)
	}
	user, err := s.userRepo.UpdateProfile(ctx, userID, fullName, phone, company, jobTitle)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}
	return user, nil
}
