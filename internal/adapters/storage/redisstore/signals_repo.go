// Package redisstore guarda los content signals en Redis cuando varias
// instancias comparten el pricing. Grants y ledger quedan en el store SQL.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"content-gate/internal/domain/pricing"
	"content-gate/internal/platform/money"

	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "contentgate:"

// Los signals viven bajo <prefix>signal:<id> y el índice en <prefix>index,
// así ningún content id puede pisar el índice.
const (
	signalSegment = "signal:"
	indexSegment  = "index"
)

// maxTxRetries: intentos de WATCH/MULTI antes de rendirse.
const maxTxRetries = 8

var ErrContention = errors.New("signal update contention")

type SignalRepo struct {
	rdb   *redis.Client
	keyNS string
}

func NewSignalRepo(rdb *redis.Client, keyPrefix string) *SignalRepo {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &SignalRepo{rdb: rdb, keyNS: keyPrefix}
}

var _ pricing.Repository = (*SignalRepo)(nil)

func (r *SignalRepo) key(contentID string) string { return r.keyNS + signalSegment + contentID }

// indexKey es un SET con todos los content ids; List no depende de SCAN.
func (r *SignalRepo) indexKey() string { return r.keyNS + indexSegment }

type signalRecord struct {
	ContentID    string  `json:"content_id"`
	PublishedAt  int64   `json:"published_at"`
	DemandScore  float64 `json:"demand_score"`
	BaseAmount   int64   `json:"base_amount"`
	BaseCurrency string  `json:"base_currency"`
	UpdatedAt    int64   `json:"updated_at"`
}

func toRecord(s pricing.ContentSignal) signalRecord {
	return signalRecord{
		ContentID:    s.ContentID,
		PublishedAt:  s.PublishedAt.UnixNano(),
		DemandScore:  s.DemandScore,
		BaseAmount:   s.BasePrice.Amount,
		BaseCurrency: s.BasePrice.Currency,
		UpdatedAt:    s.UpdatedAt.UnixNano(),
	}
}

func (rec signalRecord) signal() pricing.ContentSignal {
	return pricing.ContentSignal{
		ContentID:   rec.ContentID,
		PublishedAt: time.Unix(0, rec.PublishedAt).UTC(),
		DemandScore: rec.DemandScore,
		BasePrice:   money.New(rec.BaseAmount, rec.BaseCurrency),
		UpdatedAt:   time.Unix(0, rec.UpdatedAt).UTC(),
	}
}

func decode(b []byte) (pricing.ContentSignal, error) {
	var rec signalRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return pricing.ContentSignal{}, err
	}
	return rec.signal(), nil
}

func (r *SignalRepo) Get(ctx context.Context, contentID string) (pricing.ContentSignal, error) {
	b, err := r.rdb.Get(ctx, r.key(contentID)).Bytes()
	if err == redis.Nil {
		return pricing.ContentSignal{}, pricing.ErrUnknownContent
	}
	if err != nil {
		return pricing.ContentSignal{}, err
	}
	return decode(b)
}

// Update: WATCH sobre la clave + MULTI/EXEC. Si otra instancia escribió en el
// medio, EXEC falla con TxFailedErr y se reintenta con el valor nuevo.
func (r *SignalRepo) Update(ctx context.Context, contentID string, fn pricing.UpdateFunc) (pricing.ContentSignal, error) {
	key := r.key(contentID)
	var result pricing.ContentSignal

	txf := func(tx *redis.Tx) error {
		var (
			cur    pricing.ContentSignal
			exists bool
		)
		b, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
		case err != nil:
			return err
		default:
			if cur, err = decode(b); err != nil {
				return err
			}
			exists = true
		}

		next, err := fn(cur, exists)
		if err != nil {
			return err
		}
		next.ContentID = contentID

		raw, err := json.Marshal(toRecord(next))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, raw, 0)
			p.SAdd(ctx, r.indexKey(), contentID)
			return nil
		})
		if err == nil {
			result = next
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return pricing.ContentSignal{}, err
	}
	return pricing.ContentSignal{}, fmt.Errorf("%w: %s", ErrContention, contentID)
}

func (r *SignalRepo) List(ctx context.Context) ([]pricing.ContentSignal, error) {
	ids, err := r.rdb.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []pricing.ContentSignal{}, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]pricing.ContentSignal, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue // borrado entre SMEMBERS y MGET
		}
		sig, err := decode([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, nil
}
