package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/park285/nuclear-chess/pkg/viewdto"
	"github.com/redis/go-redis/v9"
)

const (
	keyFrame     = "chess:frame"
	channelFrame = "chess:frames"
	ttlFrame     = 24 * time.Hour
)

var ErrNoRedisURL = errors.New("mirror: REDIS_URL required")

// Store keeps the latest frame in Redis and announces every update on a
// pub/sub channel.
type Store struct{ rdb *redis.Client }

func NewStore(ctx context.Context, redisURL string) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, ErrNoRedisURL
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{rdb: rdb}, nil
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *Store) Save(ctx context.Context, f viewdto.Frame) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, keyFrame, raw, ttlFrame).Err(); err != nil {
		return fmt.Errorf("save frame: %w", err)
	}
	if err := s.rdb.Publish(ctx, channelFrame, raw).Err(); err != nil {
		return fmt.Errorf("publish frame: %w", err)
	}
	return nil
}

// Latest returns the stored frame, or nil when there is none.
func (s *Store) Latest(ctx context.Context) (*viewdto.Frame, error) {
	raw, err := s.rdb.Get(ctx, keyFrame).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var f viewdto.Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Subscribe returns the frame channel subscription. Callers close it.
func (s *Store) Subscribe(ctx context.Context) *redis.PubSub {
	return s.rdb.Subscribe(ctx, channelFrame)
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
