// Package graph implements the bounded breadth-first address-graph
// traversal: depth-bounded exploration of related addresses across
// transaction inputs/outputs, with per-node transaction caps and hub
// detection.
package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/ergoplatform/ergo-chain-analytics/internal/apierror"
	"github.com/ergoplatform/ergo-chain-analytics/internal/gateway"
	"github.com/ergoplatform/ergo-chain-analytics/internal/logger"
	"github.com/ergoplatform/ergo-chain-analytics/internal/types"
	"golang.org/x/sync/errgroup"
)

const (
	minDepth       = 1
	maxDepth       = 4
	minTxLimit     = 1
	maxTxLimit     = 20
	displayLimit   = 5
	hubTxThreshold = 3
	hubReportCount = 3
)

// Engine produces AddressGraphReports for a seed address.
type Engine struct {
	gw  *gateway.Gateway
	log logger.Logger
}

// New builds a graph Engine.
func New(gw *gateway.Gateway, log logger.Logger) *Engine {
	return &Engine{gw: gw, log: log}
}

type queueEntry struct {
	address  string
	distance int
}

// Analyze runs the bounded BFS from seed and returns the full report.
func (e *Engine) Analyze(ctx context.Context, seed string, depth, txLimit int) (*types.AddressGraphReport, error) {
	if depth < minDepth || depth > maxDepth {
		return nil, apierror.InputValidationf("analyze_address: depth must be in [%d,%d], got %d", minDepth, maxDepth, depth)
	}
	if txLimit < minTxLimit || txLimit > maxTxLimit {
		return nil, apierror.InputValidationf("analyze_address: tx_limit must be in [%d,%d], got %d", minTxLimit, maxTxLimit, txLimit)
	}

	visited := map[string]bool{seed: true}
	nodes := map[string]*types.AddressGraphNode{
		seed: {Address: seed, Distance: 0, TxIDs: []string{}},
	}

	queue := []queueEntry{{address: seed, distance: 1}}

	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]

		if entry.distance > depth {
			continue
		}

		node := nodes[entry.address]
		if node == nil {
			node = &types.AddressGraphNode{Address: entry.address, Distance: entry.distance, TxIDs: []string{}}
			nodes[entry.address] = node
		}

		txs, err := e.fetchTransactions(ctx, entry.address, txLimit)
		if err != nil {
			e.log.Errorf("graph: fetch transactions for %s failed: %v", entry.address, err)
			continue
		}

		seenTx := make(map[string]bool, len(node.TxIDs))
		for _, id := range node.TxIDs {
			seenTx[id] = true
		}

		for _, tx := range txs {
			if seenTx[tx.id] {
				continue
			}
			seenTx[tx.id] = true
			node.TxIDs = append(node.TxIDs, tx.id)

			for _, neighbour := range tx.neighbours(entry.address) {
				if visited[neighbour] {
					continue
				}
				visited[neighbour] = true
				nodes[neighbour] = &types.AddressGraphNode{Address: neighbour, Distance: entry.distance, TxIDs: []string{}}
				if entry.distance < depth {
					queue = append(queue, queueEntry{address: neighbour, distance: entry.distance + 1})
				}
			}
		}
	}

	report := &types.AddressGraphReport{
		Seed:         seed,
		Depth:        depth,
		TxLimit:      txLimit,
		NodesByDepth: map[int][]types.AddressGraphNode{},
		Balances:     map[string]types.AddressBalance{},
	}

	for _, node := range nodes {
		report.NodesByDepth[node.Distance] = append(report.NodesByDepth[node.Distance], *node)
		report.TotalTxCount += len(node.TxIDs)
		if node.Distance > 0 && len(node.TxIDs) > hubTxThreshold {
			report.Hubs = append(report.Hubs, types.HubAddress{Address: node.Address, TxCount: len(node.TxIDs)})
		}
	}
	for d := range report.NodesByDepth {
		sort.Slice(report.NodesByDepth[d], func(i, j int) bool {
			return report.NodesByDepth[d][i].Address < report.NodesByDepth[d][j].Address
		})
	}
	sort.Slice(report.Hubs, func(i, j int) bool { return report.Hubs[i].TxCount > report.Hubs[j].TxCount })
	if len(report.Hubs) > hubReportCount {
		report.Hubs = report.Hubs[:hubReportCount]
	}

	e.enrichBalances(ctx, report)

	return report, nil
}

// enrichBalances fetches AddressBalance for up to displayLimit addresses per
// distance group, concurrently, best-effort: errors are dropped silently.
func (e *Engine) enrichBalances(ctx context.Context, report *types.AddressGraphReport) {
	var targets []string
	for d := 1; d <= report.Depth; d++ {
		group := report.NodesByDepth[d]
		limit := displayLimit
		if limit > len(group) {
			limit = len(group)
		}
		for i := 0; i < limit; i++ {
			targets = append(targets, group[i].Address)
		}
	}

	results := make([]*types.AddressBalance, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, addr := range targets {
		i, addr := i, addr
		g.Go(func() error {
			bal, err := e.fetchBalance(gctx, addr)
			if err != nil {
				e.log.Debugf("graph: balance fetch for %s failed, skipping: %v", addr, err)
				return nil
			}
			results[i] = bal
			return nil
		})
	}
	_ = g.Wait()

	for i, addr := range targets {
		if results[i] != nil {
			report.Balances[addr] = *results[i]
		}
	}
}

func (e *Engine) fetchBalance(ctx context.Context, address string) (*types.AddressBalance, error) {
	raw, err := e.gw.Call(ctx, gateway.Explorer, gateway.RequestSpec{
		Path:   fmt.Sprintf("addresses/%s/balance/confirmed", address),
		Method: gateway.GET,
	}, 0)
	if err != nil {
		return nil, err
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, apierror.New(apierror.DecodeFailure, "analyze_address", "unexpected balance shape for %s", address)
	}
	return &types.AddressBalance{
		Address:   address,
		Confirmed: types.Balance{NanoErgs: int64Field(m, "nanoErgs")},
	}, nil
}

type txRef struct {
	id      string
	inputs  []string
	outputs []string
}

func (t txRef) neighbours(exclude string) []string {
	seen := map[string]bool{exclude: true}
	var out []string
	for _, addr := range append(append([]string{}, t.inputs...), t.outputs...) {
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out
}

func (e *Engine) fetchTransactions(ctx context.Context, address string, limit int) ([]txRef, error) {
	raw, err := e.gw.Call(ctx, gateway.Explorer, gateway.RequestSpec{
		Path:   fmt.Sprintf("addresses/%s/transactions", address),
		Method: gateway.GET,
		Query: map[string]string{
			"limit":  gateway.QueryInt(limit),
			"offset": "0",
		},
	}, 0)
	if err != nil {
		return nil, err
	}

	var items []interface{}
	switch v := raw.(type) {
	case []interface{}:
		items = v
	case map[string]interface{}:
		if list, ok := v["items"].([]interface{}); ok {
			items = list
		}
	}

	refs := make([]txRef, 0, len(items))
	for _, item := range items {
		tx, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		ref := txRef{id: stringField(tx, "id")}
		if inputs, ok := tx["inputs"].([]interface{}); ok {
			for _, in := range inputs {
				if box, ok := in.(map[string]interface{}); ok {
					ref.inputs = append(ref.inputs, stringField(box, "address"))
				}
			}
		}
		if outputs, ok := tx["outputs"].([]interface{}); ok {
			for _, out := range outputs {
				if box, ok := out.(map[string]interface{}); ok {
					ref.outputs = append(ref.outputs, stringField(box, "address"))
				}
			}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func int64Field(m map[string]interface{}, key string) int64 {
	if f, ok := m[key].(float64); ok {
		return int64(f)
	}
	return 0
}
