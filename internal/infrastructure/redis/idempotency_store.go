// Package redis guarda las respuestas de comandos HTTP por Idempotency-Key.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/stock-transfer-api/pkg/config"
	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace      = "stx"
	idempotencyPrefix = "idempotency"
)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// IdempotencyStore almacén de respuestas registradas por clave.
type IdempotencyStore struct {
	store cmdable
	raw   *redis.Client
}

// New crea el cliente con la configuración dada y verifica la conexión.
func New(ctx context.Context, cfg config.RedisConfig) (*IdempotencyStore, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &IdempotencyStore{store: raw, raw: raw}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if !cfg.Enabled() {
		return nil, errors.New("redis: se requiere REDIS_URL o REDIS_ADDR")
	}
	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		if opts.DB == 0 {
			opts.DB = cfg.DB
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}, nil
}

// Key construye la clave con espacio de nombres: stx:idempotency:<scope>:<id>.
func (s *IdempotencyStore) Key(scope, id string) string {
	return strings.Join([]string{keyNamespace, idempotencyPrefix, scope, id}, ":")
}

// Get devuelve el registro guardado; found=false si la clave no existe.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.store.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// SetNX guarda el registro solo si la clave no existe todavía.
func (s *IdempotencyStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return s.store.SetNX(ctx, key, value, ttl).Result()
}

// Delete elimina claves (tests y limpieza manual).
func (s *IdempotencyStore) Delete(ctx context.Context, keys ...string) error {
	return s.store.Del(ctx, keys...).Err()
}

// Ping verifica la conexión (health check).
func (s *IdempotencyStore) Ping(ctx context.Context) error {
	return s.store.Ping(ctx).Err()
}

// Close cierra el cliente subyacente.
func (s *IdempotencyStore) Close() error {
	if s.raw == nil {
		return nil
	}
	return s.raw.Close()
}
