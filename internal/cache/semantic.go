// Package cache implements a Redis-backed semantic response cache.
//
// Legal queries are rarely word-for-word identical. "Show me the indemnity
// clause" and "What are the indemnification obligations?" should hit the same
// entry, so lookups match on embedding cosine similarity instead of exact
// keys. Entries are indexed by the document ids their citations reference so
// a re-ingested document can purge exactly the answers it backed.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/legalmind/legalmind/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	embedPrefix = "semcache:embed:"
	respPrefix  = "semcache:resp:"
	// docIndexPrefix keys a set of entry ids that cite the document.
	docIndexPrefix = "semcache:doc:"

	scanBatch = 100
)

// DefaultSimilarityThreshold declares a hit at or above this cosine
// similarity between query embeddings.
const DefaultSimilarityThreshold = 0.95

// SemanticCache stores QueryResponses keyed by query embedding. The cache is
// an optimization, never a dependency: every Redis failure on the read path
// reads as a miss, and callers treat write failures as log-and-continue.
type SemanticCache struct {
	client    redis.UniversalClient
	threshold float64
	ttl       time.Duration
	logger    *zap.Logger
}

func NewSemanticCache(client redis.UniversalClient, threshold float64, ttl time.Duration, logger *zap.Logger) *SemanticCache {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &SemanticCache{
		client:    client,
		threshold: threshold,
		ttl:       ttl,
		logger:    logger,
	}
}

// NewSemanticCacheFromURL connects to Redis at url.
func NewSemanticCacheFromURL(url string, threshold float64, ttl time.Duration, logger *zap.Logger) (*SemanticCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid redis url", err)
	}
	return NewSemanticCache(redis.NewClient(opts), threshold, ttl, logger), nil
}

// Get returns the cached response whose stored query embedding is most
// similar to embedding, if that similarity clears the threshold.
//
// The lookup scans all stored embeddings. That is linear in live entries,
// which is fine at a firm's query volume; Redis vector search is the upgrade
// path if it ever is not.
func (c *SemanticCache) Get(ctx context.Context, embedding []float32) (*domain.QueryResponse, bool) {
	var (
		bestSim float64 = -1
		bestID  string
		cursor  uint64
	)

	for {
		keys, next, err := c.client.Scan(ctx, cursor, embedPrefix+"*", scanBatch).Result()
		if err != nil {
			c.logger.Warn("cache_scan_failed", zap.Error(err))
			return nil, false
		}

		for _, key := range keys {
			raw, err := c.client.Get(ctx, key).Result()
			if err != nil {
				// Entry may have expired between SCAN and GET.
				continue
			}
			var stored []float32
			if err := json.Unmarshal([]byte(raw), &stored); err != nil {
				continue
			}
			if sim := domain.CosineSimilarity(embedding, stored); sim > bestSim {
				bestSim = sim
				bestID = key[len(embedPrefix):]
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	if bestID == "" || bestSim < c.threshold {
		return nil, false
	}

	raw, err := c.client.Get(ctx, respPrefix+bestID).Result()
	if err != nil {
		return nil, false
	}
	var resp domain.QueryResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		c.logger.Warn("cache_entry_unparseable", zap.Error(err), zap.String("entry_id", bestID))
		return nil, false
	}
	return &resp, true
}

// Set stores a response alongside its query embedding with the configured
// TTL, and indexes the entry under every document id its citations reference.
func (c *SemanticCache) Set(ctx context.Context, embedding []float32, resp *domain.QueryResponse) error {
	entryID := uuid.NewString()

	embedJSON, err := json.Marshal(embedding)
	if err != nil {
		return err
	}
	respJSON, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, embedPrefix+entryID, embedJSON, c.ttl).Err(); err != nil {
		return err
	}
	if err := c.client.Set(ctx, respPrefix+entryID, respJSON, c.ttl).Err(); err != nil {
		return err
	}

	for _, docID := range resp.DocumentIDs() {
		if err := c.client.SAdd(ctx, docIndexPrefix+docID, entryID).Err(); err != nil {
			return err
		}
	}
	return nil
}

// InvalidateByDocument purges every cache entry that cites documentID and
// returns the number of entries purged. Entry ids already expired by TTL
// still count; deleting an absent key is a no-op.
func (c *SemanticCache) InvalidateByDocument(ctx context.Context, documentID string) (int, error) {
	docKey := docIndexPrefix + documentID

	entryIDs, err := c.client.SMembers(ctx, docKey).Result()
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, entryID := range entryIDs {
		if err := c.client.Del(ctx, embedPrefix+entryID, respPrefix+entryID).Err(); err != nil {
			return purged, err
		}
		purged++
	}

	if err := c.client.Del(ctx, docKey).Err(); err != nil {
		return purged, err
	}
	return purged, nil
}

// Ping reports cache reachability for health checks.
func (c *SemanticCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *SemanticCache) Close() error {
	return c.client.Close()
}
