package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cognicore/licmatch/pkg/licmatch/corpus"
	"github.com/cognicore/licmatch/pkg/licmatch/internalerr"
)

const MaxRedisWait = time.Second * 30

// DefaultPrefix namespaces license keys when Options.Prefix is empty, so
// Replace never touches keys it did not write.
const DefaultPrefix = "license:"

// Store keeps compressed license texts as plain Redis string values. Every
// key carries the prefix so a shared database can hold other data.
type Store struct {
	client *redis.Client
	prefix string
}

var _ corpus.Store = (*Store)(nil)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// New connects to Redis. It does not ping; call WaitReady for that.
func New(opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("missing redis addr: %w", internalerr.ErrConfiguration)
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		prefix: prefix,
	}, nil
}

// WaitReady pings the server until it answers or MaxRedisWait passes.
func (s *Store) WaitReady(ctx context.Context) error {
	start := time.Now()
	var err error
	for {
		if err = s.client.Ping(ctx).Err(); err == nil {
			return nil
		}
		if time.Since(start) >= MaxRedisWait {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	return fmt.Errorf("ping redis: %w: %v", internalerr.ErrCollaboratorUnavailable, err)
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(id string) string { return s.prefix + id }

// Get returns the stored bytes for id.
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("license %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Keys scans for every key under the prefix.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	raw, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(raw))
	for i, k := range raw {
		keys[i] = strings.TrimPrefix(k, s.prefix)
	}
	return keys, nil
}

func (s *Store) scan(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, scanPattern(s.prefix), 500).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

// scanPattern matches every key under prefix, with glob characters in the
// prefix taken literally.
func scanPattern(prefix string) string {
	return globEscaper.Replace(prefix) + "*"
}

// Put stores one entry without expiry.
func (s *Store) Put(ctx context.Context, id string, compressed []byte) error {
	return s.client.Set(ctx, s.key(id), compressed, 0).Err()
}

// Replace deletes every prefixed key and loads entries inside one MULTI/EXEC.
func (s *Store) Replace(ctx context.Context, entries map[string][]byte) error {
	old, err := s.scan(ctx)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(old) > 0 {
			pipe.Del(ctx, old...)
		}
		for id, data := range entries {
			pipe.Set(ctx, s.key(id), data, 0)
		}
		return nil
	})
	return err
}
