package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the cache with Redis. Expiry is delegated to Redis TTLs,
// so SweepExpired has nothing to do.
type RedisStore struct {
	client *redis.Client
	ready  bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewRedisStore(cfg RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  cache: redis unreachable at %s:%s: %v — cache disabled", cfg.Host, cfg.Port, err)
		client.Close()
		return &RedisStore{}
	}

	return &RedisStore{client: client, ready: true}
}

func (s *RedisStore) Ready() bool { return s.ready }

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	if !s.ready {
		return nil, false
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("⚠️  cache: get %q failed: %v", key, err)
		}
		return nil, false
	}
	return data, true
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !s.ready {
		return
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Printf("⚠️  cache: set %q failed: %v", key, err)
	}
}

func (s *RedisStore) Delete(ctx context.Context, key string) {
	if !s.ready {
		return
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		log.Printf("⚠️  cache: delete %q failed: %v", key, err)
	}
}

// SweepExpired is a no-op: Redis expires keys server-side.
func (s *RedisStore) SweepExpired(ctx context.Context) int { return 0 }

func (s *RedisStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
