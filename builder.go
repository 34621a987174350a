package authgate

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kharland/authgate/mailer"
	"github.com/kharland/authgate/password"
	"github.com/kharland/authgate/session"
	"github.com/kharland/authgate/token"
)

// Builder assembles an [Engine]. Construction is allocation-only until
// Build, which validates the configuration and wires every component once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  CredentialStore
	mail   mailer.Mailer

	built bool
}

// New returns a Builder preloaded with [DefaultConfig]. The token secret,
// Redis client, credential store, and mailer must still be supplied.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithSecretKey sets the 32-byte process-wide token secret.
func (b *Builder) WithSecretKey(key []byte) *Builder {
	b.config.Token.SecretKey = key
	return b
}

// WithRedis sets the client backing the session registry.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCredentialStore sets the user-record persistence boundary.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithMailer sets the reset-code delivery collaborator.
func (b *Builder) WithMailer(m mailer.Mailer) *Builder {
	b.mail = m
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and returns the ready Engine. A Builder
// is single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.store == nil {
		return nil, errors.New("credential store is required")
	}
	if b.mail == nil {
		return nil, errors.New("mailer is required")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(b.config.Token.SecretKey)
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewArgon2(b.config.Password)
	if err != nil {
		return nil, err
	}

	b.built = true
	return &Engine{
		config:   b.config,
		codec:    codec,
		sessions: session.NewRegistry(b.redis, b.config.Session.RedisPrefix),
		store:    b.store,
		mail:     b.mail,
		hasher:   hasher,
		totp:     newTOTPManager(b.config.TOTP),
		metrics:  NewMetrics(b.config.Metrics),
		now:      time.Now,
	}, nil
}
