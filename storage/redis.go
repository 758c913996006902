package storage

import (
	"context"
	"errors"
	"sort"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"kanban-flow/domain"
)

const (
	cardKeyPrefix = "card:"
	cardIndexKey  = "cards"
)

// Redis persists cards as JSON values with a set index of known ids, so the
// board survives API server restarts.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed card store using the provided client.
func NewRedis(client *redis.Client) *Redis {
	if client == nil {
		panic("storage.NewRedis: client is nil")
	}
	return &Redis{client: client}
}

func cardKey(id string) string {
	return cardKeyPrefix + id
}

func (r *Redis) Put(ctx context.Context, card domain.Card) error {
	data, err := sonic.Marshal(card)
	if err != nil {
		return err
	}
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, cardKey(card.ID), data, 0)
		pipe.SAdd(ctx, cardIndexKey, card.ID)
		return nil
	})
	return err
}

func (r *Redis) Get(ctx context.Context, id string) (domain.Card, error) {
	data, err := r.client.Get(ctx, cardKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Card{}, domain.ErrNotFound
		}
		return domain.Card{}, err
	}
	var card domain.Card
	if err := sonic.Unmarshal(data, &card); err != nil {
		return domain.Card{}, err
	}
	return card, nil
}

func (r *Redis) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := r.client.Del(ctx, cardKey(id)).Result()
	if err != nil {
		return false, err
	}
	if err := r.client.SRem(ctx, cardIndexKey, id).Err(); err != nil {
		return false, err
	}
	return removed > 0, nil
}

func (r *Redis) List(ctx context.Context, f ListFilter) ([]domain.Card, error) {
	ids, err := r.client.SMembers(ctx, cardIndexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Card{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cardKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	cards := make([]domain.Card, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a value: the card was deleted mid-listing.
			continue
		}
		var card domain.Card
		if err := sonic.Unmarshal([]byte(raw), &card); err != nil {
			return nil, err
		}
		if f.matches(card) {
			cards = append(cards, card)
		}
	}
	return cards, nil
}

func (r *Redis) Projects(ctx context.Context) ([]string, error) {
	cards, err := r.List(ctx, ListFilter{})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, c := range cards {
		seen[c.Project] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for p := range seen {
		names = append(names, p)
	}
	sort.Strings(names)
	return names, nil
}
