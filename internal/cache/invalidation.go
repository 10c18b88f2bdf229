// Package cache propagates profile cache invalidations between server
// instances over redis pub/sub.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel carries invalidation messages.
const DefaultChannel = "gopolicy:profiles:invalidate"

// flushAll is the payload that drops every cached profile.
const flushAll = "*"

// Invalidator is the local cache being kept in sync.
type Invalidator interface {
	Invalidate(userID uint)
	InvalidateAll()
}

// Bus publishes and applies invalidations. Without a redis client it only
// applies them locally.
type Bus struct {
	rdb     *redis.Client
	channel string
	target  Invalidator
	logger  *zap.Logger
}

// NewBus returns a bus on channel. rdb may be nil for single-instance setups.
func NewBus(rdb *redis.Client, channel string, target Invalidator, logger *zap.Logger) *Bus {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{rdb: rdb, channel: channel, target: target, logger: logger.Named("cache-bus")}
}

// InvalidateUser drops one user's profile on every instance.
func (b *Bus) InvalidateUser(ctx context.Context, userID uint) error {
	return b.publish(ctx, strconv.FormatUint(uint64(userID), 10))
}

// InvalidateAll drops every cached profile on every instance.
func (b *Bus) InvalidateAll(ctx context.Context) error {
	return b.publish(ctx, flushAll)
}

func (b *Bus) publish(ctx context.Context, payload string) error {
	// Apply locally first so this instance never serves a stale profile,
	// even when redis is down.
	if err := b.Apply(payload); err != nil {
		return err
	}
	if b.rdb == nil {
		return nil
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	return nil
}

// Parse decodes a payload: "*" for everything or a decimal user id.
func Parse(payload string) (userID uint, all bool, err error) {
	payload = strings.TrimSpace(payload)
	if payload == flushAll {
		return 0, true, nil
	}
	id, err := strconv.ParseUint(payload, 10, 64)
	if err != nil || id == 0 {
		return 0, false, fmt.Errorf("invalid invalidation payload %q", payload)
	}
	return uint(id), false, nil
}

// Apply runs an invalidation payload against the local cache.
func (b *Bus) Apply(payload string) error {
	userID, all, err := Parse(payload)
	if err != nil {
		return err
	}
	if all {
		b.target.InvalidateAll()
		return nil
	}
	b.target.Invalidate(userID)
	return nil
}

// Listen applies invalidations published by other instances until ctx is
// done. It resubscribes after connection loss and flushes the local cache
// on every (re)subscription, since messages may have been missed meanwhile.
func (b *Bus) Listen(ctx context.Context) {
	if b.rdb == nil {
		return
	}
	for {
		pubsub := b.rdb.Subscribe(ctx, b.channel)

		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			b.logger.Error("subscribe failed", zap.String("channel", b.channel), zap.Error(err))
			if !sleep(ctx, 5*time.Second) {
				return
			}
			continue
		}
		b.target.InvalidateAll()
		b.logger.Info("listening for invalidations", zap.String("channel", b.channel))

		ch := pubsub.Channel()
	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop
				}
				if err := b.Apply(msg.Payload); err != nil {
					b.logger.Warn("bad invalidation message", zap.String("payload", msg.Payload), zap.Error(err))
				}
			}
		}

		pubsub.Close()
		if !sleep(ctx, time.Second) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
