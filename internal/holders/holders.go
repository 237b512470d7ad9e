// Package holders implements the token-holder aggregation engine: a
// paginated walk over unspent boxes for a token, per-address accumulation,
// and distribution analytics (Gini, top-10% concentration), plus the
// NFT-collection variant.
package holders

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/ergoplatform/ergo-chain-analytics/internal/apierror"
	"github.com/ergoplatform/ergo-chain-analytics/internal/gateway"
	"github.com/ergoplatform/ergo-chain-analytics/internal/logger"
	"github.com/ergoplatform/ergo-chain-analytics/internal/paginate"
	"github.com/ergoplatform/ergo-chain-analytics/internal/types"
)

// Engine computes HolderMap/DistributionReport values for tokens.
type Engine struct {
	gw  *gateway.Gateway
	log logger.Logger
}

// New builds a holder Engine.
func New(gw *gateway.Gateway, log logger.Logger) *Engine {
	return &Engine{gw: gw, log: log}
}

const boxPageSize = 100

// GetTokenHolders fetches token metadata, walks every unspent box carrying
// the token, and computes the full DistributionReport.
func (e *Engine) GetTokenHolders(ctx context.Context, tokenID string) (*types.DistributionReport, error) {
	token, err := e.fetchToken(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	holderMap, truncated, walkErr := e.walkHolders(ctx, tokenID)
	report := buildReport(tokenID, token.Name, token.Decimals, holderMap)
	report.IsTruncated = truncated
	if walkErr != nil {
		return report, nil
	}
	return report, nil
}

// GetCollectionHolders aggregates holders across a collection's member
// tokens. Member resolution is the minimal explicit stand-in documented in
// DESIGN.md: the root id plus any ids the caller supplies.
func (e *Engine) GetCollectionHolders(ctx context.Context, collectionID string, memberTokenIDs []string) (*types.DistributionReport, error) {
	root, err := e.fetchToken(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	members := append([]string{collectionID}, memberTokenIDs...)
	combined := make(map[string]int64)
	var anyTruncated bool

	for _, member := range members {
		holderMap, truncated, _ := e.walkHolders(ctx, member)
		if truncated {
			anyTruncated = true
		}
		for addr, amount := range holderMap {
			combined[addr] += amount
		}
	}

	report := buildReport(collectionID, root.Name, root.Decimals, combined)
	report.IsTruncated = anyTruncated
	report.Collection = &types.Collection{
		ID:          collectionID,
		Name:        root.Name,
		Description: root.Description,
		TokenCount:  len(members),
	}
	return report, nil
}

func (e *Engine) fetchToken(ctx context.Context, tokenID string) (*types.Token, error) {
	raw, err := e.gw.Call(ctx, gateway.Node, gateway.RequestSpec{
		Path:   fmt.Sprintf("blockchain/token/byId/%s", tokenID),
		Method: gateway.GET,
	}, 0)
	if err != nil {
		if apiErr, ok := apierror.As(err); ok && apiErr.Kind == apierror.NotFound {
			return nil, apierror.NotFoundf("get_token_holders", "token not found: %s", tokenID)
		}
		return nil, err
	}

	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, apierror.NotFoundf("get_token_holders", "token not found: %s", tokenID)
	}

	return &types.Token{
		ID:          tokenID,
		Name:        stringField(m, "name"),
		Description: stringField(m, "description"),
		Decimals:    intField(m, "decimals"),
	}, nil
}

// walkHolders pages through every unspent box carrying tokenID and
// accumulates per-address amounts. Returns (holderMap, isTruncated, err).
func (e *Engine) walkHolders(ctx context.Context, tokenID string) (map[string]int64, bool, error) {
	holderMap := make(map[string]int64)

	result := paginate.Walk(e.log, func(offset, limit int) paginate.Page {
		raw, err := e.gw.Call(ctx, gateway.Node, gateway.RequestSpec{
			Path:   fmt.Sprintf("blockchain/box/unspent/byTokenId/%s", tokenID),
			Method: gateway.GET,
			Query: map[string]string{
				"offset": gateway.QueryInt(offset),
				"limit":  gateway.QueryInt(limit),
			},
		}, 0)
		if err != nil {
			return paginate.Page{Err: err}
		}
		return paginate.Page{Items: normalizeBoxPage(raw)}
	}, paginate.Options{PageSize: boxPageSize})

	for _, item := range result.Items {
		box, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		addr := stringField(box, "address")
		if addr == "" {
			continue
		}
		amount := assetAmount(box, tokenID)
		if amount > 0 {
			holderMap[addr] += amount
		}
	}

	return holderMap, result.Reason == paginate.UpstreamError, result.Err
}

// normalizeBoxPage accepts either a bare list or an {items: [...]} envelope.
func normalizeBoxPage(raw interface{}) []interface{} {
	switch v := raw.(type) {
	case []interface{}:
		return v
	case map[string]interface{}:
		if items, ok := v["items"].([]interface{}); ok {
			return items
		}
	}
	return nil
}

func assetAmount(box map[string]interface{}, tokenID string) int64 {
	assets, ok := box["assets"].([]interface{})
	if !ok {
		return 0
	}
	for _, a := range assets {
		asset, ok := a.(map[string]interface{})
		if !ok {
			continue
		}
		if stringField(asset, "tokenId") != tokenID {
			continue
		}
		return int64Field(asset, "amount")
	}
	return 0
}

func buildReport(tokenID, name string, decimals int, holderMap map[string]int64) *types.DistributionReport {
	var totalSupply int64
	for _, amount := range holderMap {
		totalSupply += amount
	}

	holders := make([]types.Holder, 0, len(holderMap))
	for addr, amount := range holderMap {
		holders = append(holders, types.Holder{Address: addr, Amount: amount})
	}

	sort.Slice(holders, func(i, j int) bool {
		if holders[i].Amount != holders[j].Amount {
			return holders[i].Amount > holders[j].Amount
		}
		return holders[i].Address < holders[j].Address
	})

	for i := range holders {
		if totalSupply > 0 {
			pct := float64(holders[i].Amount) / float64(totalSupply) * 100
			holders[i].Percentage = math.Round(pct*1e6) / 1e6
		}
	}

	return &types.DistributionReport{
		TokenID:               tokenID,
		Name:                  name,
		Decimals:              decimals,
		TotalSupply:           totalSupply,
		TotalHolders:          len(holders),
		Holders:               holders,
		Gini:                  gini(holders),
		Top10PctConcentration: top10Concentration(holders, totalSupply),
	}
}

// gini computes the Gini coefficient per spec §4.3 step 6, over holders
// sorted ascending by amount.
func gini(holdersDesc []types.Holder) float64 {
	n := len(holdersDesc)
	if n < 2 {
		return 0
	}

	asc := make([]int64, n)
	for i, h := range holdersDesc {
		asc[n-1-i] = h.Amount
	}

	var sum, weighted float64
	for i, x := range asc {
		sum += float64(x)
		weighted += float64(x) * float64(n-i)
	}
	if sum == 0 {
		return 0
	}

	g := 1 - 2*weighted/(float64(n)*sum)
	if g < 0 {
		g = 0
	}
	return g
}

// top10Concentration sums the top ceil(n/10) holders' amounts over total.
func top10Concentration(holdersDesc []types.Holder, totalSupply int64) float64 {
	n := len(holdersDesc)
	if n == 0 || totalSupply == 0 {
		return 0
	}
	topN := int(math.Ceil(float64(n) / 10))
	if topN > n {
		topN = n
	}
	var sum int64
	for i := 0; i < topN; i++ {
		sum += holdersDesc[i].Amount
	}
	return float64(sum) / float64(totalSupply)
}

func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func intField(m map[string]interface{}, key string) int {
	if f, ok := m[key].(float64); ok {
		return int(f)
	}
	return 0
}

func int64Field(m map[string]interface{}, key string) int64 {
	if f, ok := m[key].(float64); ok {
		return int64(f)
	}
	return 0
}
