package rounds

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"betwise-backend/internal/config"
	"betwise-backend/internal/models"
)

// Game keys for round state. One active round per game per user.
const (
	GameBlackjack = "blackjack"
	GameMines     = "mines"

	keyRound     = "round:%d:%s"
	keyRateLimit = "ratelimit:%d:%s"
)

// Coordinator holds the in-flight, not-yet-settled state of Blackjack and
// Mines rounds. State is keyed by (user, game) and expires after the
// configured TTL instead of relying on implicit session garbage
// collection. The ledger never sees any of this; only bets and payouts
// touch the ledger.
type Coordinator struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCoordinator connects to Redis and verifies it is reachable.
func NewCoordinator(cfg *config.Config) (*Coordinator, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Coordinator{client: client, ttl: cfg.RoundTTL}, nil
}

// Close releases the underlying Redis connection.
func (c *Coordinator) Close() error {
	return c.client.Close()
}

// Blackjack returns the user's active blackjack round, or nil when none
// exists.
func (c *Coordinator) Blackjack(ctx context.Context, userID int64) (*models.BlackjackRound, error) {
	var round models.BlackjackRound
	ok, err := c.get(ctx, userID, GameBlackjack, &round)
	if err != nil || !ok {
		return nil, err
	}
	return &round, nil
}

// SaveBlackjack stores the round, refreshing its expiry.
func (c *Coordinator) SaveBlackjack(ctx context.Context, userID int64, round *models.BlackjackRound) error {
	return c.put(ctx, userID, GameBlackjack, round)
}

// ClearBlackjack discards the user's blackjack round state.
func (c *Coordinator) ClearBlackjack(ctx context.Context, userID int64) error {
	return c.clear(ctx, userID, GameBlackjack)
}

// Mines returns the user's active mines round, or nil when none exists.
func (c *Coordinator) Mines(ctx context.Context, userID int64) (*models.MinesRound, error) {
	var round models.MinesRound
	ok, err := c.get(ctx, userID, GameMines, &round)
	if err != nil || !ok {
		return nil, err
	}
	return &round, nil
}

// SaveMines stores the round, refreshing its expiry.
func (c *Coordinator) SaveMines(ctx context.Context, userID int64, round *models.MinesRound) error {
	return c.put(ctx, userID, GameMines, round)
}

// ClearMines discards the user's mines round state.
func (c *Coordinator) ClearMines(ctx context.Context, userID int64) error {
	return c.clear(ctx, userID, GameMines)
}

// CheckRateLimit counts actions per user in a fixed window and reports
// whether this one is still within the limit. The counter key expires
// with the window, so a missed expiry self-heals.
func (c *Coordinator) CheckRateLimit(ctx context.Context, userID int64, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(keyRateLimit, userID, action)

	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to count %s actions for user %d: %w", action, userID, err)
	}
	if count == 1 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set %s window for user %d: %w", action, userID, err)
		}
	}

	return count <= int64(limit), nil
}

func (c *Coordinator) get(ctx context.Context, userID int64, game string, out any) (bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf(keyRound, userID, game)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s round for user %d: %w", game, userID, err)
	}

	if err := json.Unmarshal([]byte(data), out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s round for user %d: %w", game, userID, err)
	}
	return true, nil
}

func (c *Coordinator) put(ctx context.Context, userID int64, game string, round any) error {
	data, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("failed to marshal %s round for user %d: %w", game, userID, err)
	}

	if err := c.client.Set(ctx, fmt.Sprintf(keyRound, userID, game), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save %s round for user %d: %w", game, userID, err)
	}
	return nil
}

func (c *Coordinator) clear(ctx context.Context, userID int64, game string) error {
	if err := c.client.Del(ctx, fmt.Sprintf(keyRound, userID, game)).Err(); err != nil {
		return fmt.Errorf("failed to clear %s round for user %d: %w", game, userID, err)
	}
	return nil
}
