package envelope

import (
	"testing"

	"github.com/ergoplatform/ergo-chain-analytics/internal/tokencount"
)

func toInterfaceSlice(n int) []interface{} {
	out := make([]interface{}, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestSmartLimitIdempotent(t *testing.T) {
	data := toInterfaceSlice(10)

	once, truncatedOnce, _ := SmartLimit(data, 5)
	twice, truncatedTwice, _ := SmartLimit(once, 5)

	if len(once.([]interface{})) != len(twice.([]interface{})) {
		t.Fatalf("expected idempotent smart-limit, got %v then %v", once, twice)
	}
	if truncatedOnce != true || truncatedTwice != false {
		t.Fatalf("expected truncated=true then false, got %v then %v", truncatedOnce, truncatedTwice)
	}
}

func TestSmartLimitNoTruncationBelowLimit(t *testing.T) {
	data := toInterfaceSlice(3)
	limited, truncated, original := SmartLimit(data, 5)
	if truncated || original != nil {
		t.Fatalf("expected no truncation for a list under the limit")
	}
	if len(limited.([]interface{})) != 3 {
		t.Fatalf("expected all 3 items preserved")
	}
}

func TestBuilderSuccessMetadata(t *testing.T) {
	b := NewBuilder(tokencount.New(), "claude")
	resp := b.Success(toInterfaceSlice(20), 5)

	if resp.Status != "success" {
		t.Fatalf("expected success status")
	}
	if resp.Metadata.ExecutionTimeMs < 0 {
		t.Fatalf("expected non-negative execution time")
	}
	if !resp.Metadata.IsTruncated || resp.Metadata.OriginalCount == nil || *resp.Metadata.OriginalCount != 20 {
		t.Fatalf("expected truncation metadata for 20->5, got %+v", resp.Metadata)
	}
	if *resp.Metadata.ResultCount != 5 {
		t.Fatalf("expected result_count 5, got %v", resp.Metadata.ResultCount)
	}
}

func TestBuilderErrorHasNoData(t *testing.T) {
	b := NewBuilder(tokencount.New(), "claude")
	resp := b.Error("token not found: T")

	if resp.Status != "error" {
		t.Fatalf("expected error status")
	}
	if resp.Data != nil {
		t.Fatalf("expected nil data on error, got %v", resp.Data)
	}
	if resp.Message == nil || *resp.Message != "token not found: T" {
		t.Fatalf("expected message to be preserved, got %v", resp.Message)
	}
}

func TestEmitMinimalOmitsMetadata(t *testing.T) {
	b := NewBuilder(tokencount.New(), "claude")
	resp := b.Success(toInterfaceSlice(2), 10)

	minimal := Emit(resp, "minimal")
	if _, ok := minimal["metadata"]; ok {
		t.Fatal("expected minimal emission to omit metadata")
	}

	verbose := Emit(resp, "normal")
	if _, ok := verbose["metadata"]; !ok {
		t.Fatal("expected verbose emission to include metadata")
	}
}
