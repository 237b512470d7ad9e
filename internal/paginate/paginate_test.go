package paginate

import (
	"errors"
	"testing"

	"github.com/ergoplatform/ergo-chain-analytics/internal/logger"
)

func makeItems(n int) []interface{} {
	items := make([]interface{}, n)
	for i := range items {
		items[i] = i
	}
	return items
}

func TestWalkExhausted(t *testing.T) {
	all := makeItems(200)
	log := logger.New("test")

	result := Walk(log, func(offset, limit int) Page {
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		if offset >= len(all) {
			return Page{}
		}
		return Page{Items: all[offset:end]}
	}, Options{PageSize: 100})

	if result.Reason != Exhausted {
		t.Fatalf("expected Exhausted, got %s", result.Reason)
	}
	if len(result.Items) != 200 {
		t.Fatalf("expected 200 items, got %d", len(result.Items))
	}
}

func TestWalkShortPage(t *testing.T) {
	all := makeItems(150)
	log := logger.New("test")

	result := Walk(log, func(offset, limit int) Page {
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		if offset >= len(all) {
			return Page{}
		}
		return Page{Items: all[offset:end]}
	}, Options{PageSize: 100})

	if result.Reason != ShortPage {
		t.Fatalf("expected ShortPage, got %s", result.Reason)
	}
	if len(result.Items) != 150 {
		t.Fatalf("expected 150 items, got %d", len(result.Items))
	}
}

func TestWalkCeiling(t *testing.T) {
	all := makeItems(1000)
	log := logger.New("test")

	result := Walk(log, func(offset, limit int) Page {
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		return Page{Items: all[offset:end]}
	}, Options{PageSize: 100, MaxItems: 250})

	if result.Reason != Ceiling {
		t.Fatalf("expected Ceiling, got %s", result.Reason)
	}
	if len(result.Items) != 250 {
		t.Fatalf("expected 250 items, got %d", len(result.Items))
	}
}

func TestWalkUpstreamErrorPreservesPartial(t *testing.T) {
	log := logger.New("test")
	calls := 0

	result := Walk(log, func(offset, limit int) Page {
		calls++
		if calls == 2 {
			return Page{Err: errors.New("boom")}
		}
		return Page{Items: makeItems(100)}
	}, Options{PageSize: 100})

	if result.Reason != UpstreamError {
		t.Fatalf("expected UpstreamError, got %s", result.Reason)
	}
	if len(result.Items) != 100 {
		t.Fatalf("expected 100 partial items preserved, got %d", len(result.Items))
	}
	if result.Err == nil {
		t.Fatal("expected non-nil Err on UpstreamError")
	}
}
