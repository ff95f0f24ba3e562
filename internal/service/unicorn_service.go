package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"unicornfarm/internal/models"
	"unicornfarm/internal/repository"
	"unicornfarm/internal/validation"

	"gorm.io/gorm"
)

// UnicornService serves unicorn reads for the public API and the admin tooling.
type UnicornService struct {
	unicornRepo repository.UnicornRepository
	now         Clock
}

func NewUnicornService(unicornRepo repository.UnicornRepository, now Clock) *UnicornService {
	return &UnicornService{
		unicornRepo: unicornRepo,
		now:         clockOrDefault(now),
	}
}

// ListUnicorns returns one page of the unicorns still on the farm.
func (s *UnicornService) ListUnicorns(ctx context.Context, limit, offset int) ([]*models.Unicorn, error) {
	return s.unicornRepo.List(ctx, limit, offset)
}

// GetUnicorn returns a unicorn still on the farm. Purchased unicorns are reported
// as not found.
func (s *UnicornService) GetUnicorn(ctx context.Context, id uint) (*models.Unicorn, error) {
	unicorn, err := s.unicornRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Unicorn not found")
		}
		return nil, err
	}
	return unicorn, nil
}

// AddUnicorn puts a new unicorn on the farm.
func (s *UnicornService) AddUnicorn(ctx context.Context, name string) (*models.Unicorn, error) {
	name = strings.TrimSpace(name)
	if validation.IsBlank(name) {
		return nil, models.NewInvalidInputError("Name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return nil, models.NewInvalidInputError(fmt.Sprintf("Name too long (max %d characters)", maxNameLen))
	}

	now := s.now()
	unicorn := &models.Unicorn{Name: name, CreatedAt: now, UpdatedAt: now, Messages: []models.Message{}}
	if err := s.unicornRepo.Create(ctx, unicorn); err != nil {
		return nil, fmt.Errorf("create unicorn: %w", err)
	}
	return unicorn, nil
}

// ListAllUnicorns returns every unicorn, purchased or not.
func (s *UnicornService) ListAllUnicorns(ctx context.Context) ([]*models.Unicorn, error) {
	return s.unicornRepo.ListAll(ctx)
}
