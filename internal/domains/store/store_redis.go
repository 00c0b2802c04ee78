package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"domainwatch/internal/domains/models"
	"domainwatch/pkg/domain"
	"domainwatch/pkg/platform/sentinel"
)

const (
	recordKeyPrefix = "domainwatch:domain:"
	scannedIndexKey = "domainwatch:domains:scanned"
	maxTxRetries    = 10
)

// RedisStore keeps each record as a JSON document and indexes last scan times
// in a sorted set. Never-scanned records sit at score 0.
type RedisStore struct {
	client *redis.Client
	clock  func() time.Time
}

// NewRedisStore constructs a Redis-backed record store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, clock: time.Now}
}

type redisRecord struct {
	Name          string               `json:"name"`
	Status        string               `json:"status"`
	Reputation    *models.Reputation   `json:"reputation,omitempty"`
	Registration  *models.Registration `json:"registration,omitempty"`
	LastScannedAt *time.Time           `json:"last_scanned_at,omitempty"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func recordKey(name domain.Name) string {
	return recordKeyPrefix + name.String()
}

func (s *RedisStore) Get(ctx context.Context, name domain.Name) (*models.Record, error) {
	rec, err := load(ctx, s.client, name)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func load(ctx context.Context, c redis.Cmdable, name domain.Name) (*models.Record, error) {
	payload, err := c.Get(ctx, recordKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find domain record: %w", err)
	}
	var raw redisRecord
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode domain record: %w", err)
	}
	return &models.Record{
		Name:          domain.Name(raw.Name),
		Status:        models.Status(raw.Status),
		Reputation:    raw.Reputation,
		Registration:  raw.Registration,
		LastScannedAt: raw.LastScannedAt,
		UpdatedAt:     raw.UpdatedAt,
	}, nil
}

// Upsert runs read-modify-write under WATCH so concurrent writers to the same
// record retry instead of overwriting each other.
func (s *RedisStore) Upsert(ctx context.Context, name domain.Name, u models.Update) error {
	key := recordKey(name)
	txf := func(tx *redis.Tx) error {
		rec, err := load(ctx, tx, name)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			rec = models.NewRecord(name)
		case err != nil:
			return err
		}
		u.Apply(rec)
		rec.UpdatedAt = s.clock()

		payload, err := json.Marshal(redisRecord{
			Name:          rec.Name.String(),
			Status:        string(rec.Status),
			Reputation:    rec.Reputation,
			Registration:  rec.Registration,
			LastScannedAt: rec.LastScannedAt,
			UpdatedAt:     rec.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("encode domain record: %w", err)
		}
		var score float64
		if rec.LastScannedAt != nil {
			score = float64(rec.LastScannedAt.UnixMilli())
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			pipe.ZAdd(ctx, scannedIndexKey, redis.Z{Score: score, Member: name.String()})
			return nil
		})
		return err
	}

	for range maxTxRetries {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("upsert domain record: %w", err)
	}
	return fmt.Errorf("upsert domain record: %w", redis.TxFailedErr)
}

func (s *RedisStore) ListStale(ctx context.Context, cutoff time.Time) ([]domain.Name, error) {
	members, err := s.client.ZRangeByScore(ctx, scannedIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list stale domains: %w", err)
	}
	names := make([]domain.Name, len(members))
	for i, m := range members {
		names[i] = domain.Name(m)
	}
	slices.Sort(names)
	return names, nil
}
