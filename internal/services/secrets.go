package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mvdberg/squash-tracker/internal/models"
)

var ErrSecretNotFound = errors.New("secret not found")

// SecretStore holds named credentials such as the advice provider
// API key. Values never appear in API responses or logs.
type SecretStore interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
	Delete(ctx context.Context, name string) error
}

type dbSecretStore struct {
	db *gorm.DB
}

func NewSecretStore(db *gorm.DB) SecretStore {
	return &dbSecretStore{db: db}
}

func (s *dbSecretStore) Get(ctx context.Context, name string) (string, error) {
	var cred models.Credential
	err := s.db.WithContext(ctx).First(&cred, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrSecretNotFound
		}
		return "", fmt.Errorf("failed to read credential: %w", err)
	}
	return cred.Value, nil
}

func (s *dbSecretStore) Set(ctx context.Context, name, value string) error {
	cred := models.Credential{
		Name:      name,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&cred).Error
	if err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

func (s *dbSecretStore) Delete(ctx context.Context, name string) error {
	result := s.db.WithContext(ctx).Delete(&models.Credential{}, "name = ?", name)
	if result.Error != nil {
		return fmt.Errorf("failed to delete credential: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSecretNotFound
	}
	return nil
}

// EnvSecretStore is a read-only store backed by a fixed value, used
// when the key comes from configuration rather than the database.
type EnvSecretStore struct {
	values map[string]string
}

func NewEnvSecretStore(values map[string]string) *EnvSecretStore {
	return &EnvSecretStore{values: values}
}

func (s *EnvSecretStore) Get(ctx context.Context, name string) (string, error) {
	if v, ok := s.values[name]; ok && v != "" {
		return v, nil
	}
	return "", ErrSecretNotFound
}

func (s *EnvSecretStore) Set(ctx context.Context, name, value string) error {
	return errors.New("environment secrets are read-only")
}

func (s *EnvSecretStore) Delete(ctx context.Context, name string) error {
	return errors.New("environment secrets are read-only")
}

// LayeredSecretStore reads from the database first and falls back to
// the environment, while writes always land in the database.
type LayeredSecretStore struct {
	primary  SecretStore
	fallback SecretStore
}

func NewLayeredSecretStore(primary, fallback SecretStore) *LayeredSecretStore {
	return &LayeredSecretStore{primary: primary, fallback: fallback}
}

func (s *LayeredSecretStore) Get(ctx context.Context, name string) (string, error) {
	value, err := s.primary.Get(ctx, name)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, ErrSecretNotFound) {
		return "", err
	}
	return s.fallback.Get(ctx, name)
}

func (s *LayeredSecretStore) Set(ctx context.Context, name, value string) error {
	return s.primary.Set(ctx, name, value)
}

func (s *LayeredSecretStore) Delete(ctx context.Context, name string) error {
	return s.primary.Delete(ctx, name)
}
