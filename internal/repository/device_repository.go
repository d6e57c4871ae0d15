package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yourorg/contractwatch/internal/domain"
	"github.com/yourorg/contractwatch/internal/infrastructure/redis"
)

// DeviceTokenRepository stores FCM device tokens in Redis, one per user.
type DeviceTokenRepository struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewDeviceTokenRepository creates a new device token repository.
func NewDeviceTokenRepository(redisClient *redis.Client, logger *slog.Logger) *DeviceTokenRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeviceTokenRepository{redis: redisClient, logger: logger}
}

func deviceKey(userID string) string {
	return fmt.Sprintf("device:%s", userID)
}

// SaveToken stores the token for a user, replacing any previous one.
// Tokens have no TTL: a device stays registered until it is removed.
func (r *DeviceTokenRepository) SaveToken(ctx context.Context, userID, token string) error {
	if err := r.redis.Set(ctx, deviceKey(userID), token, 0); err != nil {
		return fmt.Errorf("failed to store device token: %w", err)
	}
	r.logger.Debug("device token saved", slog.String("user_id", userID))
	return nil
}

// GetToken retrieves the token for a user.
func (r *DeviceTokenRepository) GetToken(ctx context.Context, userID string) (string, error) {
	token, err := r.redis.Get(ctx, deviceKey(userID))
	if err != nil {
		if redis.IsNotFound(err) {
			return "", domain.ErrDeviceTokenNotFound
		}
		return "", fmt.Errorf("failed to get device token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the token for a user.
func (r *DeviceTokenRepository) DeleteToken(ctx context.Context, userID string) error {
	if err := r.redis.Delete(ctx, deviceKey(userID)); err != nil {
		return fmt.Errorf("failed to delete device token: %w", err)
	}
	return nil
}
