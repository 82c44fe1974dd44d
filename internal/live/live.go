package live

import (
	"context"
	"errors"
	"strconv"

	"topic-rush/internal/config"

	"github.com/redis/go-redis/v9"
)

// Store holds the session-scoped mirrors of game state in Redis. Every
// mutation is a single atomic command; nothing here is authoritative beyond
// the current-membership set.
type Store struct {
	client *redis.Client
}

func NewStore(cfg config.Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	opts.PoolSize = cfg.RedisPoolSize
	return &Store{client: redis.NewClient(opts)}, nil
}

// NewStoreWithClient wraps an existing client, for tests.
func NewStoreWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Client exposes the underlying connection so the pub/sub bus can share it.
func (s *Store) Client() *redis.Client {
	return s.client
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) SetStatus(ctx context.Context, gameID uint, status string) error {
	return s.client.Set(ctx, statusKey(gameID), status, 0).Err()
}

// Status returns the mirrored status, or "" when no mirror is set.
func (s *Store) Status(ctx context.Context, gameID uint) (string, error) {
	value, err := s.client.Get(ctx, statusKey(gameID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return value, err
}

func (s *Store) DeleteStatus(ctx context.Context, gameID uint) error {
	return s.client.Del(ctx, statusKey(gameID)).Err()
}

func (s *Store) IncrRoundCounter(ctx context.Context, gameID uint) (int, error) {
	value, err := s.client.IncrBy(ctx, roundsKey(gameID), 1).Result()
	return int(value), err
}

// RoundCounter returns the cached count of rounds started, 0 when unset.
func (s *Store) RoundCounter(ctx context.Context, gameID uint) (int, error) {
	value, err := s.client.Get(ctx, roundsKey(gameID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

// SetRoundCounter overwrites the cached counter, used to reconcile it with
// the durable round count.
func (s *Store) SetRoundCounter(ctx context.Context, gameID uint, count int) error {
	return s.client.Set(ctx, roundsKey(gameID), count, 0).Err()
}

func (s *Store) DeleteRoundCounter(ctx context.Context, gameID uint) error {
	return s.client.Del(ctx, roundsKey(gameID)).Err()
}

func (s *Store) AddPlayer(ctx context.Context, gameID uint, playerID string) error {
	return s.client.SAdd(ctx, playersKey(gameID), playerID).Err()
}

func (s *Store) RemovePlayer(ctx context.Context, gameID uint, playerID string) error {
	return s.client.SRem(ctx, playersKey(gameID), playerID).Err()
}

func (s *Store) Players(ctx context.Context, gameID uint) ([]string, error) {
	return s.client.SMembers(ctx, playersKey(gameID)).Result()
}

func (s *Store) DeletePlayers(ctx context.Context, gameID uint) error {
	return s.client.Del(ctx, playersKey(gameID)).Err()
}

func (s *Store) IsPlayer(ctx context.Context, gameID uint, playerID string) (bool, error) {
	return s.client.SIsMember(ctx, playersKey(gameID), playerID).Result()
}

func (s *Store) AddActiveGame(ctx context.Context, gameID uint) error {
	return s.client.SAdd(ctx, activeGamesKey, strconv.FormatUint(uint64(gameID), 10)).Err()
}

func (s *Store) RemoveActiveGame(ctx context.Context, gameID uint) error {
	return s.client.SRem(ctx, activeGamesKey, strconv.FormatUint(uint64(gameID), 10)).Err()
}

func (s *Store) ActiveGames(ctx context.Context) ([]uint, error) {
	members, err := s.client.SMembers(ctx, activeGamesKey).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(members))
	for _, member := range members {
		id, err := strconv.ParseUint(member, 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
