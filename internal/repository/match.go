package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/chess-backend/internal/apperror"
	"github.com/rocketscienceinc/chess-backend/internal/entity"
)

const (
	matchKeyPrefix   = "match:"
	recentMatchesKey = "matches:recent"
)

type MatchRepository interface {
	Save(ctx context.Context, record *entity.MatchRecord) error
	GetByID(ctx context.Context, id string) (*entity.MatchRecord, error)
	Recent(ctx context.Context, limit int64) ([]*entity.MatchRecord, error)
}

type dbMatch struct {
	client      *redis.Client
	ttl         time.Duration
	recentLimit int64
}

// NewMatchRepository - keeps finished matches for ttl and the ids of the last recentLimit of them.
func NewMatchRepository(client *redis.Client, ttl time.Duration, recentLimit int64) MatchRepository {
	return &dbMatch{
		client:      client,
		ttl:         ttl,
		recentLimit: recentLimit,
	}
}

func (that *dbMatch) Save(ctx context.Context, record *entity.MatchRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, matchKeyPrefix+record.ID, recordJSON, that.ttl)
		pipe.LPush(ctx, recentMatchesKey, record.ID)

		if that.recentLimit > 0 {
			pipe.LTrim(ctx, recentMatchesKey, 0, that.recentLimit-1)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}

	return nil
}

func (that *dbMatch) GetByID(ctx context.Context, id string) (*entity.MatchRecord, error) {
	response, err := that.client.Get(ctx, matchKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrMatchNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get match by id: %w", err)
	}

	var record entity.MatchRecord
	if err = json.Unmarshal(response, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}

	return &record, nil
}

// Recent - returns up to limit matches, newest first. Ids whose record already expired are skipped.
func (that *dbMatch) Recent(ctx context.Context, limit int64) ([]*entity.MatchRecord, error) {
	if limit <= 0 {
		return []*entity.MatchRecord{}, nil
	}

	ids, err := that.client.LRange(ctx, recentMatchesKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list recent matches: %w", err)
	}

	records := make([]*entity.MatchRecord, 0, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = matchKeyPrefix + id
	}

	values, err := that.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get recent matches: %w", err)
	}

	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}

		var record entity.MatchRecord
		if err = json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal match: %w", err)
		}

		records = append(records, &record)
	}

	return records, nil
}
