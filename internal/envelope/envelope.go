// Package envelope implements the uniform {status, data, message?, metadata}
// response wrapper: timing, sizing, smart-limit truncation, and
// model-aware token-estimate metadata, ported from the original
// ResponseMetadata/MCPResponse/smart_limit/format_response helpers.
package envelope

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"github.com/ergoplatform/ergo-chain-analytics/internal/config"
	"github.com/ergoplatform/ergo-chain-analytics/internal/tokencount"
)

// Metadata carries timing, sizing, truncation, and token-estimate fields.
type Metadata struct {
	ExecutionTimeMs float64 `json:"execution_time_ms"`
	ResultCount     *int    `json:"result_count"`
	ResultSizeBytes int     `json:"result_size_bytes"`
	IsTruncated     bool    `json:"is_truncated"`
	OriginalCount   *int    `json:"original_count"`
	TokenEstimate   int     `json:"token_estimate"`
}

// Response is the standard wrapper returned by every tool operation.
type Response struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Message  *string     `json:"message,omitempty"`
	Metadata *Metadata   `json:"metadata,omitempty"`
}

// Builder accumulates a Response over the lifetime of one tool invocation.
type Builder struct {
	start     time.Time
	estimator *tokencount.Estimator
	model     string
}

// NewBuilder starts a Response's timing clock.
func NewBuilder(estimator *tokencount.Estimator, model string) *Builder {
	return &Builder{start: time.Now(), estimator: estimator, model: model}
}

// Success finalises a successful Response carrying data, applying smart-limit
// truncation if limit > 0 and data is a slice.
func (b *Builder) Success(data interface{}, limit int) *Response {
	limited, isTruncated, originalCount := SmartLimit(data, limit)
	return b.finish("success", limited, nil, isTruncated, originalCount)
}

// PartialSuccess finalises a Response whose data was collected before an
// upstream error interrupted a multi-page walk (spec §4.3 PartialResult).
func (b *Builder) PartialSuccess(data interface{}) *Response {
	return b.finish("success", data, nil, true, nil)
}

// Error finalises a failed Response. No raw upstream payload is carried in
// data; metadata is still computed against a nil data value.
func (b *Builder) Error(message string) *Response {
	return b.finish("error", nil, &message, false, nil)
}

func (b *Builder) finish(status string, data interface{}, message *string, isTruncated bool, originalCount *int) *Response {
	elapsedMs := math.Round(time.Since(b.start).Seconds()*1000*100) / 100

	encoded, err := marshalCanonical(data)
	sizeBytes := 0
	if err == nil {
		sizeBytes = len(encoded)
	}

	var resultCount *int
	if list, ok := asSlice(data); ok {
		n := len(list)
		resultCount = &n
	}

	tokenEstimate := 0
	if b.estimator != nil {
		tokenEstimate = b.estimator.CountJSON(data, b.model)
	}

	meta := &Metadata{
		ExecutionTimeMs: elapsedMs,
		ResultCount:     resultCount,
		ResultSizeBytes: sizeBytes,
		IsTruncated:     isTruncated,
		TokenEstimate:   tokenEstimate,
	}
	if isTruncated {
		meta.OriginalCount = originalCount
	}

	return &Response{Status: status, Data: data, Message: message, Metadata: meta}
}

// marshalCanonical serialises data as compact UTF-8 JSON, preserving
// non-ASCII characters rather than escaping them.
func marshalCanonical(data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func asSlice(data interface{}) ([]interface{}, bool) {
	list, ok := data.([]interface{})
	return list, ok
}

// SmartLimit truncates a slice to limit, reporting whether truncation
// occurred and the original length. Non-slice data, or limit <= 0, passes
// through unaffected. Idempotent: applying twice with the same limit
// yields the same result as once.
func SmartLimit(data interface{}, limit int) (interface{}, bool, *int) {
	list, ok := asSlice(data)
	if !ok || limit <= 0 || len(list) <= limit {
		return data, false, nil
	}
	original := len(list)
	return list[:limit], true, &original
}

// Emit renders a Response per the verbosity configured: verbose includes
// metadata, minimal omits it.
func Emit(resp *Response, verbosity string) map[string]interface{} {
	out := map[string]interface{}{
		"status": resp.Status,
		"data":   resp.Data,
	}
	if resp.Message != nil {
		out["message"] = *resp.Message
	} else {
		out["message"] = nil
	}
	if verbosity != "minimal" {
		out["metadata"] = resp.Metadata
	}
	return out
}

// LimitFor resolves the configured smart-limit for a response category.
func LimitFor(cfg *config.Config, category string) int {
	return cfg.Limit(category)
}
