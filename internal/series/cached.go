package series

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"PricePulse/internal/cache"
	"PricePulse/internal/model"
)

// CachedStore memoizes FileStore reads keyed by the log's size and modification
// time. A changed log produces a new key, so a hit is always the current content.
type CachedStore struct {
	store *FileStore
	cache cache.Cache
	ttl   time.Duration
	log   zerolog.Logger

	// OnLookup, when set, is told whether each Load was served from cache.
	OnLookup func(hit bool)
}

// NewCachedStore wraps store with c. Cache errors degrade to a direct read.
func NewCachedStore(store *FileStore, c cache.Cache, ttl time.Duration, log zerolog.Logger) *CachedStore {
	return &CachedStore{store: store, cache: c, ttl: ttl, log: log}
}

type cachedSample struct {
	T   time.Time       `json:"t"`
	Raw string          `json:"r"`
	P   decimal.Decimal `json:"p"`
}

type cachedResult struct {
	Samples []cachedSample `json:"s"`
	Rows    int            `json:"rows"`
	Dropped int            `json:"dropped"`
}

func (c *CachedStore) Load(ctx context.Context) (*Result, error) {
	before, err := c.store.Stat()
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("series:%s:%d:%d", c.store.Path, before.Size(), before.ModTime().UnixNano())

	if b, ok, err := c.cache.Get(ctx, key); err != nil {
		c.log.Warn().Err(err).Msg("series cache get failed")
	} else if ok {
		if res, err := decodeResult(b); err == nil {
			c.observe(true)
			return res, nil
		}
		c.log.Warn().Str("key", key).Msg("series cache entry undecodable, reloading")
	}

	c.observe(false)
	res, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	// Only memoize when the log did not change while it was being read.
	after, err := c.store.Stat()
	if err != nil || after.Size() != before.Size() || !after.ModTime().Equal(before.ModTime()) {
		return res, nil
	}
	if b, err := encodeResult(res); err == nil {
		if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
			c.log.Warn().Err(err).Msg("series cache set failed")
		}
	}
	return res, nil
}

func (c *CachedStore) observe(hit bool) {
	if c.OnLookup != nil {
		c.OnLookup(hit)
	}
}

func encodeResult(res *Result) ([]byte, error) {
	cr := cachedResult{Rows: res.Rows, Dropped: res.Dropped, Samples: make([]cachedSample, len(res.Samples))}
	for i, s := range res.Samples {
		cr.Samples[i] = cachedSample{T: s.Time, Raw: s.RawTime, P: s.Price}
	}
	return json.Marshal(cr)
}

func decodeResult(b []byte) (*Result, error) {
	var cr cachedResult
	if err := json.Unmarshal(b, &cr); err != nil {
		return nil, err
	}
	res := &Result{Rows: cr.Rows, Dropped: cr.Dropped}
	if len(cr.Samples) > 0 {
		res.Samples = make([]model.Sample, len(cr.Samples))
		for i, s := range cr.Samples {
			res.Samples[i] = model.Sample{Time: s.T, RawTime: s.Raw, Price: s.P}
		}
	}
	return res, nil
}
