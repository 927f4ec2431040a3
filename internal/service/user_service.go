package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/straye-as/erp-desk/internal/calc"
	"github.com/straye-as/erp-desk/internal/domain"
	"github.com/straye-as/erp-desk/internal/filter"
	"github.com/straye-as/erp-desk/internal/normalize"
	"go.uber.org/zap"
)

// UserService handles the HR user directory
type UserService struct {
	client      ERPClient
	collections *Collections
	normalizer  *normalize.Normalizer
	logger      *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(client ERPClient, collections *Collections, normalizer *normalize.Normalizer, logger *zap.Logger) *UserService {
	return &UserService{
		client:      client,
		collections: collections,
		normalizer:  normalizer,
		logger:      logger,
	}
}

func userCounts(records []domain.UserRecord) domain.StatusCounts {
	return calc.CountBy(records, func(r domain.UserRecord) string { return string(r.EmploymentStatus) },
		domain.Strings(domain.EmploymentStatuses))
}

// List returns a filtered page of users
func (s *UserService) List(ctx context.Context, q url.Values) (*domain.ListResponse, error) {
	records, err := s.collections.users.load(ctx, wantsRefresh(q))
	if err != nil {
		return nil, err
	}
	return buildList(records, filter.UserSchema, q, userCounts(records))
}

// Get returns one user
func (s *UserService) Get(ctx context.Context, id string) (*domain.UserRecord, error) {
	raw, err := s.client.GetByID(ctx, domain.EntityUser, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user := s.normalizer.User(raw)
	if user.ID == "" {
		user.ID = id
	}
	return &user, nil
}
