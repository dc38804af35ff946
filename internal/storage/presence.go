package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const (
	presenceSetKey  = "presence:online"
	PresenceChannel = "presence"
)

// ErrNoRedis is returned by presence reads when Redis is not configured.
var ErrNoRedis = errors.New("redis is not configured")

// MarkOnline mirrors a directory join into Redis and announces it on the
// presence channel. A nil Redis client makes it a no-op.
func (s *Service) MarkOnline(ctx context.Context, userID string) error {
	if s.Redis == nil {
		return nil
	}
	pipe := s.Redis.TxPipeline()
	pipe.SAdd(ctx, presenceSetKey, userID)
	pipe.Publish(ctx, PresenceChannel, "online:"+userID)
	_, err := pipe.Exec(ctx)
	return err
}

// MarkOffline mirrors a directory leave.
func (s *Service) MarkOffline(ctx context.Context, userID string) error {
	if s.Redis == nil {
		return nil
	}
	pipe := s.Redis.TxPipeline()
	pipe.SRem(ctx, presenceSetKey, userID)
	pipe.Publish(ctx, PresenceChannel, "offline:"+userID)
	_, err := pipe.Exec(ctx)
	return err
}

// ResetPresence drops the mirrored set. Presence does not survive a
// restart, so the server calls this before accepting connections.
func (s *Service) ResetPresence(ctx context.Context) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Del(ctx, presenceSetKey).Err()
}

// OnlineUsers reads the mirrored set.
func (s *Service) OnlineUsers(ctx context.Context) ([]string, error) {
	if s.Redis == nil {
		return nil, ErrNoRedis
	}
	return s.Redis.SMembers(ctx, presenceSetKey).Result()
}

// SubscribePresence follows the presence channel. Messages read
// "online:<id>" or "offline:<id>".
func (s *Service) SubscribePresence(ctx context.Context) (*redis.PubSub, error) {
	if s.Redis == nil {
		return nil, ErrNoRedis
	}
	return s.Redis.Subscribe(ctx, PresenceChannel), nil
}
