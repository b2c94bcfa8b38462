package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"chargefleet/internal/models"
)

// PileStatusStore mirrors live pile status into redis for cheap dashboard
// reads. It is best-effort: the engine registry stays authoritative.
type PileStatusStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPileStatusStore returns redis-backed store.
func NewPileStatusStore(client *redis.Client, ttl time.Duration) *PileStatusStore {
	return &PileStatusStore{client: client, ttl: ttl}
}

func (s *PileStatusStore) key(pileID string) string {
	return fmt.Sprintf("piles:status:%s", pileID)
}

// Save caches the pile's current status.
func (s *PileStatusStore) Save(ctx context.Context, pileID string, status models.PileStatus) error {
	return s.client.Set(ctx, s.key(pileID), string(status), s.ttl).Err()
}

// Get returns the cached status.
func (s *PileStatusStore) Get(ctx context.Context, pileID string) (models.PileStatus, error) {
	result, err := s.client.Get(ctx, s.key(pileID)).Result()
	if err != nil {
		return "", err
	}
	return models.PileStatus(result), nil
}

// Delete removes the cached status.
func (s *PileStatusStore) Delete(ctx context.Context, pileID string) error {
	return s.client.Del(ctx, s.key(pileID)).Err()
}
