// Package services contains the business layer of the auth server: the
// session store, the CSRF guard, the auth orchestrator, and the OAuth
// bridge. Services depend on repository interfaces and never touch SQL or
// Redis directly.
package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/logging"
	"github.com/redis/go-redis/v9"
)

// ResetMailer delivers password-reset links. Implementations live outside
// this subsystem (SMTP relay, transactional mail API); the orchestrator only
// needs the single call.
type ResetMailer interface {
	SendResetLink(ctx context.Context, email, link string) error
}

// LogMailer is the development ResetMailer: it writes the link to the log
// instead of sending mail.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendResetLink(ctx context.Context, email, link string) error {
	m.log.Info(ctx, "password reset link issued", "email", email, "link", link)
	return nil
}

// Settings provides dynamic runtime switches read per request.
type Settings interface {
	// MaintenanceMode reports whether the service should refuse writes.
	// A lookup failure must report false: the gate fails open.
	MaintenanceMode(ctx context.Context) bool
}

const maintenanceModeKey = "settings:maintenance_mode"

// RedisSettings reads switches from Redis keys shared with the admin panel.
type RedisSettings struct {
	client *redis.Client
	log    logging.Logger
}

func NewRedisSettings(client *redis.Client, log logging.Logger) *RedisSettings {
	return &RedisSettings{client: client, log: log}
}

func (s *RedisSettings) MaintenanceMode(ctx context.Context) bool {
	val, err := s.client.Get(ctx, maintenanceModeKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn(ctx, "maintenance flag lookup failed", "error", err)
		}
		return false
	}
	on, err := strconv.ParseBool(val)
	if err != nil {
		return false
	}
	return on
}

// ExternalIdentity is the profile a third-party provider vouches for after
// a successful code exchange. ProviderID is the provider's stable subject
// identifier, not our account id.
type ExternalIdentity struct {
	ProviderID string
	Email      string
	Name       string
	AvatarURL  string
}
