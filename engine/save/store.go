package save

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrNoSlot is returned when a save slot does not exist.
var ErrNoSlot = errors.New("save slot not found")

var slotPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Store persists encoded saves under named slots.
type Store interface {
	Put(ctx context.Context, slot string, data []byte) error
	Get(ctx context.Context, slot string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, slot string) error
}

func checkSlot(slot string) error {
	if !slotPattern.MatchString(slot) {
		return fmt.Errorf("invalid slot name %q", slot)
	}
	return nil
}

// FileStore keeps each slot as <dir>/<slot>.json.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating save dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(slot string) string {
	return filepath.Join(f.dir, slot+".json")
}

func (f *FileStore) Put(_ context.Context, slot string, data []byte) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	tmp := f.path(slot) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing save: %w", err)
	}
	if err := os.Rename(tmp, f.path(slot)); err != nil {
		return fmt.Errorf("writing save: %w", err)
	}
	return nil
}

func (f *FileStore) Get(_ context.Context, slot string) ([]byte, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(slot))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", slot, ErrNoSlot)
	}
	if err != nil {
		return nil, fmt.Errorf("reading save: %w", err)
	}
	return data, nil
}

func (f *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	var slots []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		slots = append(slots, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(slots)
	return slots, nil
}

func (f *FileStore) Delete(_ context.Context, slot string) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	err := os.Remove(f.path(slot))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", slot, ErrNoSlot)
	}
	return err
}

// RedisStore keeps each slot under the key <prefix>:save:<slot>.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to the Redis server at addr.
func NewRedisStore(addr, prefix string, logger *slog.Logger) *RedisStore {
	return NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: addr}), prefix, logger)
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string, logger *slog.Logger) *RedisStore {
	if prefix == "" {
		prefix = "talecraft"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, prefix: prefix, logger: logger}
}

func (r *RedisStore) key(slot string) string {
	return r.prefix + ":save:" + slot
}

// Ping checks the connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Put(ctx context.Context, slot string, data []byte) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(slot), data, 0).Err(); err != nil {
		r.logger.Error("redis SET failed", "slot", slot, "error", err)
		return fmt.Errorf("redis set failed: %w", err)
	}
	r.logger.Debug("save stored", "slot", slot, "bytes", len(data))
	return nil
}

func (r *RedisStore) Get(ctx context.Context, slot string) ([]byte, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, r.key(slot)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", slot, ErrNoSlot)
	}
	if err != nil {
		r.logger.Error("redis GET failed", "slot", slot, "error", err)
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *RedisStore) List(ctx context.Context) ([]string, error) {
	base := r.key("")
	var slots []string
	iter := r.client.Scan(ctx, 0, base+"*", 100).Iterator()
	for iter.Next(ctx) {
		slots = append(slots, strings.TrimPrefix(iter.Val(), base))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan failed: %w", err)
	}
	sort.Strings(slots)
	return slots, nil
}

func (r *RedisStore) Delete(ctx context.Context, slot string) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	n, err := r.client.Del(ctx, r.key(slot)).Result()
	if err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", slot, ErrNoSlot)
	}
	return nil
}

// Close closes the underlying client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
