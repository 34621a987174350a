package authgate

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/kharland/authgate/password"
)

// Config holds every tunable of the engine. It is constructed once at process
// start, passed into [Builder.WithConfig], and treated as immutable after
// [Builder.Build]. There are no ambient lookups: components receive their
// section by injection.
type Config struct {
	Token         TokenConfig
	StepUp        StepUpConfig
	TOTP          TOTPConfig
	PasswordReset PasswordResetConfig
	Password      password.Config
	Session       SessionConfig
	Metrics       MetricsConfig
}

// TokenConfig carries the process-wide symmetric secret. The key is loaded
// once and never rotated at runtime; both token families are sealed with it.
type TokenConfig struct {
	// SecretKey must be exactly 32 bytes.
	SecretKey []byte
}

// StepUpConfig controls the short-lived token bridging password verification
// and second-factor verification.
type StepUpConfig struct {
	// Window is how long a step-up token stays valid after issuance.
	Window time.Duration
}

// TOTPConfig controls code generation and verification for the second factor.
type TOTPConfig struct {
	Digits int
	// Period is the TOTP time step in seconds.
	Period int
	// Skew is the number of adjacent steps accepted on either side.
	Skew   int
	Issuer string
}

// PasswordResetConfig controls the one-time-code recovery flow.
type PasswordResetConfig struct {
	CodeDigits int
	// ExpireWindow is how long a mailed code stays consumable.
	ExpireWindow time.Duration
}

// SessionConfig sets the Redis key namespace for session lists.
type SessionConfig struct {
	RedisPrefix string
}

// MetricsConfig toggles the in-process counters. When Enabled is false every
// metrics operation is a no-op.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the baseline configuration: 10-minute step-up window,
// 4-hour reset-code expiry, 6-digit codes, standard 30-second TOTP step with
// ±1 step drift. The token secret has no default and must be supplied.
func DefaultConfig() Config {
	return Config{
		StepUp: StepUpConfig{
			Window: 10 * time.Minute,
		},
		TOTP: TOTPConfig{
			Digits: 6,
			Period: 30,
			Skew:   1,
			Issuer: "authgate",
		},
		PasswordReset: PasswordResetConfig{
			CodeDigits:   6,
			ExpireWindow: 4 * time.Hour,
		},
		Password: password.Config{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Session: SessionConfig{
			RedisPrefix: "asr",
		},
	}
}

// envOptions mirrors the recognized environment variables.
type envOptions struct {
	SecretKey        string `env:"SECRET_KEY,required"`
	StepUpMinutes    int    `env:"SHORT_LIVED_TOKEN_EXPIRE_MINUTES" envDefault:"10"`
	ResetExpireHours int    `env:"PASSWORD_CHANGE_EXPIRE_HOURS" envDefault:"4"`
	RedisPrefix      string `env:"SESSION_REDIS_PREFIX" envDefault:"asr"`
	TOTPIssuer       string `env:"TOTP_ISSUER" envDefault:"authgate"`
}

// ConfigFromEnv builds a [Config] from the environment on top of
// [DefaultConfig]. SECRET_KEY is required and must be the standard base64
// encoding of 32 bytes.
func ConfigFromEnv() (Config, error) {
	var opts envOptions
	if err := env.Parse(&opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	key, err := base64.StdEncoding.DecodeString(opts.SecretKey)
	if err != nil {
		return Config{}, fmt.Errorf("decode SECRET_KEY: %w", err)
	}
	if len(key) != 32 {
		return Config{}, errors.New("SECRET_KEY must decode to 32 bytes")
	}

	cfg := DefaultConfig()
	cfg.Token.SecretKey = key
	cfg.StepUp.Window = time.Duration(opts.StepUpMinutes) * time.Minute
	cfg.PasswordReset.ExpireWindow = time.Duration(opts.ResetExpireHours) * time.Hour
	cfg.Session.RedisPrefix = opts.RedisPrefix
	cfg.TOTP.Issuer = opts.TOTPIssuer

	return cfg, nil
}

func validateConfig(cfg Config) error {
	if len(cfg.Token.SecretKey) != 32 {
		return errors.New("token secret key must be 32 bytes")
	}
	if cfg.StepUp.Window <= 0 {
		return errors.New("step-up window must be positive")
	}
	if cfg.TOTP.Digits < 6 || cfg.TOTP.Digits > 10 {
		return errors.New("totp digits must be between 6 and 10")
	}
	if cfg.TOTP.Period <= 0 {
		return errors.New("totp period must be positive")
	}
	if cfg.TOTP.Skew < 0 {
		return errors.New("totp skew must not be negative")
	}
	if cfg.PasswordReset.CodeDigits < 6 || cfg.PasswordReset.CodeDigits > 10 {
		return errors.New("reset code digits must be between 6 and 10")
	}
	if cfg.PasswordReset.ExpireWindow <= 0 {
		return errors.New("reset expire window must be positive")
	}
	return nil
}
