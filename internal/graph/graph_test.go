package graph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ergoplatform/ergo-chain-analytics/internal/config"
	"github.com/ergoplatform/ergo-chain-analytics/internal/gateway"
	"github.com/ergoplatform/ergo-chain-analytics/internal/logger"
)

// s3Fixture describes, per address, the transactions returned by the fake
// Explorer for the S3 scenario: seed -> (n1, n2), n1 -> n3, n2 -> n4.
func s3Fixture() map[string][]map[string]interface{} {
	box := func(addr string) map[string]interface{} { return map[string]interface{}{"address": addr} }
	return map[string][]map[string]interface{}{
		"seed": {
			{"id": "tx1", "inputs": []interface{}{box("seed")}, "outputs": []interface{}{box("n1")}},
			{"id": "tx2", "inputs": []interface{}{box("seed")}, "outputs": []interface{}{box("n2")}},
		},
		"n1": {
			{"id": "tx3", "inputs": []interface{}{box("n1")}, "outputs": []interface{}{box("n3")}},
		},
		"n2": {
			{"id": "tx4", "inputs": []interface{}{box("n2")}, "outputs": []interface{}{box("n4")}},
		},
		"n3": {},
		"n4": {},
	}
}

func testEngine(t *testing.T, fixture map[string][]map[string]interface{}) *Engine {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if contains(r.URL.Path, "balance/confirmed") {
			json.NewEncoder(w).Encode(map[string]interface{}{"nanoErgs": 0})
			return
		}
		for addr, txs := range fixture {
			if contains(r.URL.Path, "addresses/"+addr+"/transactions") {
				json.NewEncoder(w).Encode(txs)
				return
			}
		}
		json.NewEncoder(w).Encode([]interface{}{})
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{Explorer: config.UpstreamConfig{BaseURL: srv.URL, UserAgent: "test", Timeout: 2 * time.Second}}
	gw := gateway.New(cfg, logger.New("test"))
	return New(gw, logger.New("test"))
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func TestAnalyzeScenarioS3(t *testing.T) {
	engine := testEngine(t, s3Fixture())

	report, err := engine.Analyze(context.Background(), "seed", 2, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total := 0
	for _, nodes := range report.NodesByDepth {
		total += len(nodes)
	}
	if total != 5 {
		t.Fatalf("expected 5 total nodes, got %d: %+v", total, report.NodesByDepth)
	}
	if len(report.NodesByDepth[1]) != 2 {
		t.Fatalf("expected 2 distance-1 nodes, got %d", len(report.NodesByDepth[1]))
	}
	if len(report.NodesByDepth[2]) != 2 {
		t.Fatalf("expected 2 distance-2 nodes, got %d", len(report.NodesByDepth[2]))
	}
	if len(report.Hubs) != 0 {
		t.Fatalf("expected no hubs, got %+v", report.Hubs)
	}
}

func TestAnalyzeRejectsOutOfBoundsDepth(t *testing.T) {
	engine := testEngine(t, s3Fixture())
	if _, err := engine.Analyze(context.Background(), "seed", 0, 5); err == nil {
		t.Fatal("expected error for depth below minimum")
	}
	if _, err := engine.Analyze(context.Background(), "seed", 5, 5); err == nil {
		t.Fatal("expected error for depth above maximum")
	}
	if _, err := engine.Analyze(context.Background(), "seed", 2, 21); err == nil {
		t.Fatal("expected error for tx_limit above maximum")
	}
}

func TestAnalyzeSeedAppearsOnceAtDistanceZero(t *testing.T) {
	engine := testEngine(t, s3Fixture())
	report, err := engine.Analyze(context.Background(), "seed", 1, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	zero := report.NodesByDepth[0]
	if len(zero) != 1 || zero[0].Address != "seed" {
		t.Fatalf("expected seed as sole distance-0 node, got %+v", zero)
	}
}
