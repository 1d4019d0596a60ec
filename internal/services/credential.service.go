package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCredentialKey is the key the token is stored under
const DefaultCredentialKey = "NZ_TOKEN"

// CredentialStore is the durable holder of the single bearer token.
// No TTL is applied; staleness is discovered by a failing call.
type CredentialStore interface {
	// Get returns the stored token. ok is false when nothing is stored.
	Get(ctx context.Context) (token string, ok bool, err error)
	// Put overwrites the stored token.
	Put(ctx context.Context, token string) error
}

// MemoryStore keeps the token in process memory. It does not survive a
// restart and is meant for tests and single-shot runs.
type MemoryStore struct {
	mu      sync.RWMutex
	token   string
	present bool
	puts    int
}

// NewMemoryStore creates a store, optionally pre-populated
func NewMemoryStore(initial string) *MemoryStore {
	return &MemoryStore{token: initial, present: initial != ""}
}

func (s *MemoryStore) Get(_ context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.present, nil
}

func (s *MemoryStore) Put(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.present = true
	s.puts++
	return nil
}

// Puts returns how many times the token was written
func (s *MemoryStore) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}

// FileStore persists the token in a single 0600 file
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file backed store. An empty path falls back to
// ~/.nezhabot-token, or the temp dir when no home directory exists.
func NewFileStore(path string) *FileStore {
	if path == "" {
		homeDir, _ := os.UserHomeDir()
		if homeDir == "" {
			homeDir = os.TempDir()
		}
		path = filepath.Join(homeDir, ".nezhabot-token")
	}
	return &FileStore{path: path}
}

// Path returns the file the token is written to
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(_ context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	return token, token != "", nil
}

func (s *FileStore) Put(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}

	// write-then-rename so a concurrent reader never sees a truncated token
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

// RedisStoreConfig configures the redis backed store
type RedisStoreConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
	Key       string
	PoolSize  int
}

// RedisStore keeps the token in redis so that several bot instances share it.
// Concurrent writers are not coordinated: the last Put wins.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedisStore connects to redis and verifies the connection
func NewRedisStore(ctx context.Context, cfg RedisStoreConfig) (*RedisStore, error) {
	addr := cfg.Address
	if addr == "" {
		addr = "localhost:6379"
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 4
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreWithClient(client, cfg.KeyPrefix, cfg.Key), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client redis.UniversalClient, prefix, key string) *RedisStore {
	if key == "" {
		key = DefaultCredentialKey
	}
	return &RedisStore{client: client, key: prefix + key}
}

func (s *RedisStore) Get(ctx context.Context) (string, bool, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get token: %w", err)
	}
	return token, true, nil
}

func (s *RedisStore) Put(ctx context.Context, token string) error {
	// 0 expiration: the store never expires the token on its own
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("failed to put token: %w", err)
	}
	return nil
}

// Close closes the redis connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// StoreOptions selects and configures a credential store backend
type StoreOptions struct {
	Backend  string // memory, file or redis
	FilePath string
	Redis    RedisStoreConfig
}

// OpenCredentialStore builds the store named by opts.Backend
func OpenCredentialStore(ctx context.Context, opts StoreOptions) (CredentialStore, error) {
	switch strings.ToLower(opts.Backend) {
	case "", "file":
		store := NewFileStore(opts.FilePath)
		log.Printf("[TOKEN] Using file credential store at %s", store.Path())
		return store, nil
	case "memory":
		log.Printf("[TOKEN] Using in-memory credential store, token will not survive restarts")
		return NewMemoryStore(""), nil
	case "redis":
		store, err := NewRedisStore(ctx, opts.Redis)
		if err != nil {
			return nil, err
		}
		log.Printf("[TOKEN] Using redis credential store at %s", opts.Redis.Address)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown credential store backend %q", opts.Backend)
	}
}
