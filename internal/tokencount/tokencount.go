// Package tokencount implements the token-count estimator used to attach
// model-aware token-estimate metadata to every Response: an accurate
// tiktoken-backed count when available, falling back to a deterministic
// 4-chars-per-token heuristic, cached by (text, model) to bound repeated
// work across requests.
package tokencount

import (
	"encoding/json"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	tiktoken "github.com/pkoukk/tiktoken-go"
)

const cacheSize = 1024

// Tier labels the magnitude of a token count.
type Tier string

const (
	TierMinimal   Tier = "minimal"
	TierStandard  Tier = "standard"
	TierIntensive Tier = "intensive"
	TierExcessive Tier = "excessive"
)

// Estimator counts tokens for arbitrary text/JSON values, cached by
// (text, modelType).
type Estimator struct {
	mu       sync.Mutex
	encoders map[string]*tiktoken.Tiktoken
	cache    *lru.Cache[cacheKey, int]
}

type cacheKey struct {
	text  string
	model string
}

// New builds an Estimator with a bounded LRU result cache.
func New() *Estimator {
	cache, _ := lru.New[cacheKey, int](cacheSize)
	return &Estimator{
		encoders: make(map[string]*tiktoken.Tiktoken),
		cache:    cache,
	}
}

// encodingFor maps a model identifier to a tiktoken encoding name. Unknown
// identifiers fall back to the default encoding.
func encodingFor(modelType string) string {
	switch strings.ToLower(modelType) {
	case "claude", "gpt-3.5", "gpt-4", "gpt-4o", "palm", "gemini", "mistral", "llama":
		return "cl100k_base"
	default:
		return "cl100k_base"
	}
}

func (e *Estimator) encoder(encoding string) (*tiktoken.Tiktoken, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if enc, ok := e.encoders[encoding]; ok {
		return enc, true
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, false
	}
	e.encoders[encoding] = enc
	return enc, true
}

// Count returns the token count for text under the given model's encoding,
// using the tokenizer when available and falling back to a 4-chars-per-
// token heuristic otherwise.
func (e *Estimator) Count(text, modelType string) int {
	key := cacheKey{text: text, model: modelType}
	if cached, ok := e.cache.Get(key); ok {
		return cached
	}

	count := e.countUncached(text, modelType)
	e.cache.Add(key, count)
	return count
}

func (e *Estimator) countUncached(text, modelType string) int {
	encoding := encodingFor(modelType)
	if enc, ok := e.encoder(encoding); ok {
		tokens := enc.Encode(text, nil, nil)
		return len(tokens)
	}
	return fallbackCount(text)
}

// fallbackCount is the deterministic len(utf8_text)//4 heuristic.
func fallbackCount(text string) int {
	return len([]rune(text)) / 4
}

// CountJSON serialises value with a compact, non-ASCII-preserving JSON
// encoding and counts its tokens. nil or serialisation failure yields 0.
func (e *Estimator) CountJSON(value interface{}, modelType string) int {
	if value == nil {
		return 0
	}
	encoded, err := marshalCompact(value)
	if err != nil {
		return 0
	}
	return e.Count(encoded, modelType)
}

// marshalCompact serialises value as JSON without HTML-escaping, preserving
// non-ASCII characters as-is rather than \uXXXX-escaping them.
func marshalCompact(value interface{}) (string, error) {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return "", err
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// Breakdown is the response-level token accounting described in spec §4.7.
type Breakdown struct {
	Total    int
	Data     int
	Metadata int
	Status   int
}

// CountResponse returns the per-section token breakdown for a response's
// data, metadata, and status fields.
func (e *Estimator) CountResponse(data interface{}, metadata interface{}, status string, includeMetadata bool, modelType string) Breakdown {
	b := Breakdown{
		Data:   e.CountJSON(data, modelType),
		Status: e.Count(status, modelType),
	}
	if includeMetadata {
		b.Metadata = e.CountJSON(metadata, modelType)
	}
	b.Total = b.Data + b.Metadata + b.Status
	return b
}

// ShouldTruncate applies the model-adjusted truncation decision of spec
// §4.7: count > threshold, with threshold scaled ×0.8 for gpt-3.5-family,
// ×1.2 for gpt-4-family, ×1.0 otherwise.
func ShouldTruncate(count, threshold int, modelType string) bool {
	adjusted := float64(threshold)
	switch {
	case strings.HasPrefix(strings.ToLower(modelType), "gpt-3.5"):
		adjusted *= 0.8
	case strings.HasPrefix(strings.ToLower(modelType), "gpt-4"):
		adjusted *= 1.2
	}
	return float64(count) > adjusted
}

// UsageTier labels the magnitude of a token count.
func UsageTier(count int) Tier {
	switch {
	case count < 500:
		return TierMinimal
	case count < 2000:
		return TierStandard
	case count < 5000:
		return TierIntensive
	default:
		return TierExcessive
	}
}
