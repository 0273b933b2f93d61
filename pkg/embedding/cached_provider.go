package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "cskg:embedding:"

// CachedProvider keeps question embeddings in Redis. Rewritten questions
// repeat across retries and sessions, so hits are common.
type CachedProvider struct {
	next  EmbeddingProvider
	rdb   *redis.Client
	model string
	ttl   time.Duration
}

func NewCachedProvider(next EmbeddingProvider, rdb *redis.Client, model string, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, rdb: rdb, model: model, ttl: ttl}
}

func (p *CachedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	key := p.key(text, taskType)

	raw, err := p.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var values []float32
		if jsonErr := json.Unmarshal(raw, &values); jsonErr == nil && len(values) > 0 {
			return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: values}}, nil
		}
	} else if !errors.Is(err, redis.Nil) && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	resp, err := p.next.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}

	// cache write failures only cost a future recomputation
	if payload, err := json.Marshal(resp.Embedding.Values); err == nil {
		_ = p.rdb.Set(ctx, key, payload, p.ttl).Err()
	}

	return resp, nil
}

func (p *CachedProvider) key(text, taskType string) string {
	sum := sha256.Sum256([]byte(p.model + "\x00" + taskType + "\x00" + text))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
