package holders

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ergoplatform/ergo-chain-analytics/internal/config"
	"github.com/ergoplatform/ergo-chain-analytics/internal/gateway"
	"github.com/ergoplatform/ergo-chain-analytics/internal/logger"
	"github.com/ergoplatform/ergo-chain-analytics/internal/types"
)

func testEngine(t *testing.T, handler http.HandlerFunc) *Engine {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Node: config.UpstreamConfig{BaseURL: srv.URL, UserAgent: "test", Timeout: 2 * time.Second},
	}
	gw := gateway.New(cfg, logger.New("test"))
	return New(gw, logger.New("test"))
}

func TestGetTokenHoldersTwoHolders(t *testing.T) {
	engine := testEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "token/byId"):
			json.NewEncoder(w).Encode(map[string]interface{}{"name": "X", "decimals": 0})
		case strings.Contains(r.URL.Path, "box/unspent/byTokenId"):
			offset := r.URL.Query().Get("offset")
			if offset == "0" {
				json.NewEncoder(w).Encode([]map[string]interface{}{
					{"address": "A", "assets": []map[string]interface{}{{"tokenId": "T", "amount": 600}}},
					{"address": "B", "assets": []map[string]interface{}{{"tokenId": "T", "amount": 400}}},
				})
			} else {
				json.NewEncoder(w).Encode([]interface{}{})
			}
		}
	})

	report, err := engine.GetTokenHolders(context.Background(), "T")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalSupply != 1000 {
		t.Fatalf("expected total supply 1000, got %d", report.TotalSupply)
	}
	if len(report.Holders) != 2 || report.Holders[0].Address != "A" || report.Holders[0].Percentage != 60 {
		t.Fatalf("unexpected holders: %+v", report.Holders)
	}
	// Step 6's formula over ascending [400,600] yields 1-2*(400*2+600*1)/(2*1000)
	// = -0.4, clamped to 0 at the non-negativity floor.
	if math.Abs(report.Gini-0) > 1e-9 {
		t.Fatalf("expected gini 0, got %f", report.Gini)
	}
}

func TestGetTokenHoldersNotFound(t *testing.T) {
	engine := testEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := engine.GetTokenHolders(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestGiniEqualAmountsIsZero(t *testing.T) {
	equal := []types.Holder{{Address: "A", Amount: 100}, {Address: "B", Amount: 100}, {Address: "C", Amount: 100}}
	if g := gini(equal); g != 0 {
		t.Fatalf("expected gini 0 for equal amounts, got %f", g)
	}
}

func TestTop10ConcentrationSingleHolder(t *testing.T) {
	single := []types.Holder{{Address: "A", Amount: 500}}
	if c := top10Concentration(single, 500); c != 1 {
		t.Fatalf("expected full concentration for single holder, got %f", c)
	}
}
