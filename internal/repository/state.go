package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	bolt "go.etcd.io/bbolt"
)

// MemoryState хранит именованные блоки данных в памяти процесса.
type MemoryState struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryState создаёт пустое хранилище в памяти.
func NewMemoryState() *MemoryState {
	return &MemoryState{data: make(map[string][]byte)}
}

// Load возвращает копию блока или nil, если его нет.
func (m *MemoryState) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

// Save заменяет блок целиком.
func (m *MemoryState) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryState) Close() error { return nil }

var stateBucket = []byte("state")

// BoltState хранит блоки в файле bbolt.
type BoltState struct {
	db *bolt.DB
}

// NewBoltState открывает или создаёт файл состояния.
func NewBoltState(path string) (*BoltState, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(stateBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &BoltState{db: db}, nil
}

// Load возвращает блок или nil, если его нет.
func (b *BoltState) Load(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		// значение действительно только внутри транзакции
		if v := tx.Bucket(stateBucket).Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return out, nil
}

// Save заменяет блок целиком.
func (b *BoltState) Save(_ context.Context, key string, data []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Close закрывает файл состояния.
func (b *BoltState) Close() error {
	return b.db.Close()
}

// keyState задаёт шаблон ключа блока в Redis: sellertracker:state:{name}.
const keyState = "sellertracker:state:%s"

// RedisState хранит блоки в Redis, что позволяет нескольким экземплярам делить состояние.
type RedisState struct {
	rdb *redis.Client
}

// NewRedisState подключается к Redis по адресу addr.
func NewRedisState(ctx context.Context, addr string) (*RedisState, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisState{rdb: rdb}, nil
}

// Load возвращает блок или nil, если ключа нет.
func (r *RedisState) Load(ctx context.Context, key string) ([]byte, error) {
	v, err := r.rdb.Get(ctx, fmt.Sprintf(keyState, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return v, nil
}

// Save заменяет блок целиком, без срока жизни.
func (r *RedisState) Save(ctx context.Context, key string, data []byte) error {
	if err := r.rdb.Set(ctx, fmt.Sprintf(keyState, key), data, 0).Err(); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func (r *RedisState) Close() error {
	return r.rdb.Close()
}
