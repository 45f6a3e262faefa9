// Package cache keeps in-flight quiz sessions in Redis so a learner can
// resume a quiz from another terminal.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/abhisek/stepwise/internal/config"
	"github.com/abhisek/stepwise/internal/logger"
	"github.com/abhisek/stepwise/internal/quiz"
)

const keyPrefix = "quiz"

// SessionKey returns the Redis key of a learner's session on a quiz section.
func SessionKey(sectionID, learnerID string) string {
	return keyPrefix + ":" + sectionID + ":" + learnerID
}

// RedisSessions stores quiz sessions as JSON values with a TTL.
type RedisSessions struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedisSessions connects to Redis and pings it before returning.
func NewRedisSessions(cfg config.RedisConfig, log *logger.Logger) (*RedisSessions, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisSessions{
		log: log.With("service", "RedisSessions"),
		rdb: rdb,
		ttl: cfg.TTL,
	}, nil
}

// LoadQuizSession returns the stored session, or nil when there is none.
func (c *RedisSessions) LoadQuizSession(ctx context.Context, sectionID, learnerID string) (*quiz.Session, error) {
	if c == nil || c.rdb == nil {
		return nil, fmt.Errorf("redis session cache not initialized")
	}
	raw, err := c.rdb.Get(ctx, SessionKey(sectionID, learnerID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz session: %w", err)
	}
	s, err := decodeSession(raw)
	if err != nil {
		// A corrupt entry is treated as absent so the quiz restarts cleanly.
		c.log.Warn("bad cached quiz session", "section_id", sectionID, "error", err)
		return nil, nil
	}
	return s, nil
}

// SaveQuizSession writes the session and refreshes its TTL.
func (c *RedisSessions) SaveQuizSession(ctx context.Context, s quiz.Session) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("redis session cache not initialized")
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal quiz session: %w", err)
	}
	if err := c.rdb.Set(ctx, SessionKey(s.SectionID, s.LearnerID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set quiz session: %w", err)
	}
	return nil
}

// DeleteQuizSession removes a session. Removing a missing one is not an error.
func (c *RedisSessions) DeleteQuizSession(ctx context.Context, sectionID, learnerID string) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("redis session cache not initialized")
	}
	if err := c.rdb.Del(ctx, SessionKey(sectionID, learnerID)).Err(); err != nil {
		return fmt.Errorf("delete quiz session: %w", err)
	}
	return nil
}

// Close releases the client.
func (c *RedisSessions) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func decodeSession(raw []byte) (*quiz.Session, error) {
	var s quiz.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s.Answers == nil {
		s.Answers = map[int]quiz.Answer{}
	}
	return &s, nil
}
