package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jwt-pizza/jwt-pizza-mock/internal/pizza"
)

// Redis keeps the directory in redis under a per-backend namespace:
//
//	<ns>:accounts  hash email -> account JSON
//	<ns>:ids       hash id -> email
//	<ns>:order     sorted set of emails scored by insertion sequence
//	<ns>:seq       insertion counter
type Redis struct {
	client    *redis.Client
	namespace string
}

// NewRedis builds a Redis store. Keys are prefixed with namespace.
func NewRedis(client *redis.Client, namespace string) *Redis {
	return &Redis{client: client, namespace: "jwtpizza:" + namespace}
}

func (r *Redis) Get(ctx context.Context, email string) (pizza.Account, error) {
	raw, err := r.client.HGet(ctx, r.key("accounts"), email).Bytes()
	if errors.Is(err, redis.Nil) {
		return pizza.Account{}, fmt.Errorf("email %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return pizza.Account{}, fmt.Errorf("redis get account: %w", err)
	}
	return decodeAccount(raw)
}

func (r *Redis) FindByID(ctx context.Context, id string) (pizza.Account, error) {
	email, err := r.client.HGet(ctx, r.key("ids"), id).Result()
	if errors.Is(err, redis.Nil) {
		return pizza.Account{}, fmt.Errorf("id %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return pizza.Account{}, fmt.Errorf("redis find account: %w", err)
	}
	return r.Get(ctx, email)
}

func (r *Redis) Put(ctx context.Context, account pizza.Account) error {
	existing, err := r.Get(ctx, account.Email)
	switch {
	case err == nil:
		return r.replace(ctx, existing, account)
	case errors.Is(err, ErrNotFound):
		return r.insert(ctx, account)
	default:
		return err
	}
}

func (r *Redis) Rekey(ctx context.Context, oldEmail string, account pizza.Account) error {
	if err := r.Delete(ctx, oldEmail); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return r.Put(ctx, account)
}

func (r *Redis) Delete(ctx context.Context, email string) error {
	existing, err := r.Get(ctx, email)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, r.key("accounts"), email)
		pipe.HDel(ctx, r.key("ids"), existing.ID)
		pipe.ZRem(ctx, r.key("order"), email)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete account: %w", err)
	}
	return nil
}

func (r *Redis) List(ctx context.Context) ([]pizza.Account, error) {
	emails, err := r.client.ZRange(ctx, r.key("order"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list order: %w", err)
	}
	if len(emails) == 0 {
		return []pizza.Account{}, nil
	}
	values, err := r.client.HMGet(ctx, r.key("accounts"), emails...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list accounts: %w", err)
	}
	out := make([]pizza.Account, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		account, err := decodeAccount([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	return out, nil
}

func (r *Redis) Reset(ctx context.Context, seed []pizza.Account) error {
	if err := r.Flush(ctx); err != nil {
		return err
	}
	for _, account := range seed {
		if err := r.insert(ctx, account); err != nil {
			return err
		}
	}
	return nil
}

// Flush removes every key of the namespace.
func (r *Redis) Flush(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key("accounts"), r.key("ids"), r.key("order"), r.key("seq")).Err(); err != nil {
		return fmt.Errorf("redis flush directory: %w", err)
	}
	return nil
}

func (r *Redis) insert(ctx context.Context, account pizza.Account) error {
	raw, err := json.Marshal(account)
	if err != nil {
		return err
	}
	seq, err := r.client.Incr(ctx, r.key("seq")).Result()
	if err != nil {
		return fmt.Errorf("redis next sequence: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key("accounts"), account.Email, raw)
		pipe.HSet(ctx, r.key("ids"), account.ID, account.Email)
		pipe.ZAdd(ctx, r.key("order"), redis.Z{Score: float64(seq), Member: account.Email})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis insert account: %w", err)
	}
	return nil
}

func (r *Redis) replace(ctx context.Context, existing, account pizza.Account) error {
	raw, err := json.Marshal(account)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if existing.ID != account.ID {
			pipe.HDel(ctx, r.key("ids"), existing.ID)
		}
		pipe.HSet(ctx, r.key("accounts"), account.Email, raw)
		pipe.HSet(ctx, r.key("ids"), account.ID, account.Email)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis replace account: %w", err)
	}
	return nil
}

func (r *Redis) key(name string) string {
	return r.namespace + ":" + name
}

func decodeAccount(raw []byte) (pizza.Account, error) {
	var account pizza.Account
	if err := json.Unmarshal(raw, &account); err != nil {
		return pizza.Account{}, fmt.Errorf("decode account: %w", err)
	}
	return account, nil
}
