package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/refyne-backend/internal/platform/logger"
	"github.com/yungbote/refyne-backend/internal/realtime"
)

const DefaultChannel = "refyne:runs"

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// envelope tags each event with the instance that published it.
type envelope struct {
	Origin  string              `json:"origin"`
	Message realtime.SSEMessage `json:"message"`
}

type redisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
	origin  string
}

func NewRedisBus(log *logger.Logger, cfg RedisConfig) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	origin := uuid.NewString()
	return &redisBus{
		log:     log.With("service", "RedisRunBus", "origin", origin),
		rdb:     rdb,
		channel: channel,
		origin:  origin,
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("run bus not initialized")
	}
	raw, err := json.Marshal(envelope{Origin: b.origin, Message: msg})
	if err != nil {
		return fmt.Errorf("encode run event: %w", err)
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes and hands every event published by another
// instance to onMsg until ctx is done.
func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("run bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe %s: %w", b.channel, err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				if m == nil {
					continue
				}
				msg, ok, err := decodeEnvelope(m.Payload, b.origin)
				if err != nil {
					b.log.Warn("Dropping malformed run event", "error", err)
					continue
				}
				if ok {
					onMsg(msg)
				}
			}
		}
	}()
	return nil
}

func (b *redisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

// decodeEnvelope returns ok=false for events this instance published itself.
func decodeEnvelope(payload, self string) (realtime.SSEMessage, bool, error) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return realtime.SSEMessage{}, false, err
	}
	if strings.TrimSpace(env.Message.Channel) == "" {
		return realtime.SSEMessage{}, false, fmt.Errorf("run event without channel")
	}
	if env.Origin == self {
		return realtime.SSEMessage{}, false, nil
	}
	return env.Message, true, nil
}
