// Package tools is the thin named-function façade mapping tool operations
// to engine calls, each wrapped in the Response Envelope.
package tools

import (
	"context"
	"fmt"

	"github.com/ergoplatform/ergo-chain-analytics/internal/apierror"
	"github.com/ergoplatform/ergo-chain-analytics/internal/config"
	"github.com/ergoplatform/ergo-chain-analytics/internal/eip"
	"github.com/ergoplatform/ergo-chain-analytics/internal/envelope"
	"github.com/ergoplatform/ergo-chain-analytics/internal/fallback"
	"github.com/ergoplatform/ergo-chain-analytics/internal/gateway"
	"github.com/ergoplatform/ergo-chain-analytics/internal/graph"
	"github.com/ergoplatform/ergo-chain-analytics/internal/holders"
	"github.com/ergoplatform/ergo-chain-analytics/internal/logger"
	"github.com/ergoplatform/ergo-chain-analytics/internal/tokencount"
	"github.com/ergoplatform/ergo-chain-analytics/internal/types"
	"golang.org/x/sync/errgroup"
)

// Surface wires every engine together behind the named tool operations.
type Surface struct {
	cfg       *config.Config
	log       logger.Logger
	gw        *gateway.Gateway
	holders   *holders.Engine
	graph     *graph.Engine
	eip       *eip.Mirror
	fallback  *fallback.Store
	estimator *tokencount.Estimator
	model     string
}

// New builds a Surface from its constituent engines.
func New(cfg *config.Config, log logger.Logger, gw *gateway.Gateway, holderEngine *holders.Engine, graphEngine *graph.Engine, mirror *eip.Mirror, fallbackStore *fallback.Store, estimator *tokencount.Estimator, model string) *Surface {
	return &Surface{
		cfg:       cfg,
		log:       log,
		gw:        gw,
		holders:   holderEngine,
		graph:     graphEngine,
		eip:       mirror,
		fallback:  fallbackStore,
		estimator: estimator,
		model:     model,
	}
}

func (s *Surface) builder() *envelope.Builder {
	return envelope.NewBuilder(s.estimator, s.model)
}

func errorResponse(b *envelope.Builder, err error) *envelope.Response {
	if apiErr, ok := apierror.As(err); ok {
		return b.Error(apiErr.Error())
	}
	return b.Error(err.Error())
}

// GetAddressBalance returns an address's confirmed balance from Explorer.
// The Unconfirmed section of the returned AddressBalance is left empty.
func (s *Surface) GetAddressBalance(ctx context.Context, address string) *envelope.Response {
	b := s.builder()
	raw, err := s.gw.Call(ctx, gateway.Explorer, gateway.RequestSpec{
		Path:   fmt.Sprintf("addresses/%s/balance/confirmed", address),
		Method: gateway.GET,
	}, 0)
	if err != nil {
		return errorResponse(b, err)
	}

	balance := decodeAddressBalance(address, raw)
	return b.Success(balance, 0)
}

func decodeAddressBalance(address string, raw interface{}) types.AddressBalance {
	m, _ := raw.(map[string]interface{})
	return types.AddressBalance{
		Address:   address,
		Confirmed: decodeBalanceSection(m),
	}
}

func decodeBalanceSection(m map[string]interface{}) types.Balance {
	if m == nil {
		return types.Balance{}
	}
	bal := types.Balance{NanoErgs: int64Field(m, "nanoErgs")}
	if tokensRaw, ok := m["tokens"].([]interface{}); ok {
		for _, t := range tokensRaw {
			tm, ok := t.(map[string]interface{})
			if !ok {
				continue
			}
			bal.Tokens = append(bal.Tokens, types.Asset{
				TokenID:  stringField(tm, "tokenId"),
				Amount:   int64Field(tm, "amount"),
				Decimals: intField(tm, "decimals"),
				Name:     stringField(tm, "name"),
			})
		}
	}
	return bal
}

// GetTransaction returns a transaction by id.
func (s *Surface) GetTransaction(ctx context.Context, txID string) *envelope.Response {
	b := s.builder()
	raw, err := s.gw.Call(ctx, gateway.Explorer, gateway.RequestSpec{
		Path:   fmt.Sprintf("transactions/%s", txID),
		Method: gateway.GET,
	}, 0)
	if err != nil {
		return errorResponse(b, err)
	}
	return b.Success(raw, 0)
}

// GetAddressHistory returns a page of an address's transaction history.
func (s *Surface) GetAddressHistory(ctx context.Context, address string, offset, limit int) *envelope.Response {
	b := s.builder()
	if offset < 0 {
		return errorResponse(b, apierror.InputValidationf("get_address_history: offset must be >= 0"))
	}
	ceiling := s.cfg.Limit("address_transactions")
	if limit < 1 || limit > ceiling {
		return errorResponse(b, apierror.InputValidationf("get_address_history: limit must be in [1,%d]", ceiling))
	}

	raw, err := s.gw.Call(ctx, gateway.Explorer, gateway.RequestSpec{
		Path:   fmt.Sprintf("addresses/%s/transactions", address),
		Method: gateway.GET,
		Query:  map[string]string{"offset": gateway.QueryInt(offset), "limit": gateway.QueryInt(limit)},
	}, 0)
	if err != nil {
		return errorResponse(b, err)
	}
	return b.Success(raw, 0)
}

// GetBlockByHeight returns the block at the given height, annotated with the
// height's 0x-prefixed quantity form alongside the decimal one.
func (s *Surface) GetBlockByHeight(ctx context.Context, height int) *envelope.Response {
	b := s.builder()
	if height < 0 {
		return errorResponse(b, apierror.InputValidationf("get_block_by_height: height must be >= 0"))
	}
	raw, err := s.gw.Call(ctx, gateway.Explorer, gateway.RequestSpec{
		Path:   fmt.Sprintf("blocks/at/%d", height),
		Method: gateway.GET,
	}, 0)
	if err != nil {
		return errorResponse(b, err)
	}

	result := map[string]interface{}{
		"heightHex": types.HexHeight(int64(height)),
	}
	switch v := raw.(type) {
	case map[string]interface{}:
		for k, val := range v {
			result[k] = val
		}
	default:
		result["block"] = raw
	}
	return b.Success(result, 0)
}

// BlockchainStatus composes Node info and Explorer network-state
// concurrently, plus the derived hashrate estimate from difficulty.
func (s *Surface) BlockchainStatus(ctx context.Context) *envelope.Response {
	b := s.builder()

	var nodeInfo, networkState interface{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		nodeInfo, err = s.gw.Call(gctx, gateway.Node, gateway.RequestSpec{Path: "info", Method: gateway.GET}, 0)
		return err
	})
	g.Go(func() error {
		var err error
		networkState, err = s.gw.Call(gctx, gateway.Explorer, gateway.RequestSpec{Path: "networkState", Method: gateway.GET}, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return errorResponse(b, err)
	}

	difficulty := float64(0)
	if m, ok := networkState.(map[string]interface{}); ok {
		if d, ok := m["difficulty"].(float64); ok {
			difficulty = d
		}
	}
	hashrateH := difficulty * 4294967296 / (8192 * 120)

	result := map[string]interface{}{
		"nodeInfo":     nodeInfo,
		"networkState": networkState,
		"hashrate": map[string]interface{}{
			"difficulty": difficulty,
			"hashrateH":  hashrateH,
			"hashrateKH": hashrateH / 1e3,
			"hashrateMH": hashrateH / 1e6,
			"hashrateGH": hashrateH / 1e9,
			"hashrateTH": hashrateH / 1e12,
			"hashratePH": hashrateH / 1e15,
		},
	}
	return b.Success(result, 0)
}

// GetMempoolStatistics reports aggregate mempool metrics using the
// documented fee-field-sum approximation (spec §9 Open Question).
func (s *Surface) GetMempoolStatistics(ctx context.Context) *envelope.Response {
	b := s.builder()
	raw, err := s.gw.Call(ctx, gateway.Node, gateway.RequestSpec{
		Path:   "blockchain/transaction/range",
		Method: gateway.GET,
		Query:  map[string]string{"offset": "0", "limit": "100"},
	}, 0)
	if err != nil {
		return errorResponse(b, err)
	}

	txs := normalizeList(raw)
	var totalBytes int64
	var totalFee int64
	for _, item := range txs {
		tx, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		totalBytes += int64Field(tx, "size")
		totalFee += int64Field(tx, "fee")
	}

	avgFee := float64(0)
	if len(txs) > 0 {
		avgFee = float64(totalFee) / float64(len(txs))
	}

	result := map[string]interface{}{
		"transactionCount": len(txs),
		"totalBytes":       totalBytes,
		"averageFee":       avgFee,
	}
	return b.Success(result, 0)
}

// GetToken returns token metadata by id.
func (s *Surface) GetToken(ctx context.Context, tokenID string) *envelope.Response {
	b := s.builder()
	raw, err := s.gw.Call(ctx, gateway.Node, gateway.RequestSpec{
		Path:   fmt.Sprintf("blockchain/token/byId/%s", tokenID),
		Method: gateway.GET,
	}, 0)
	if err != nil {
		return errorResponse(b, err)
	}
	return b.Success(raw, 0)
}

// SearchToken searches Explorer for tokens matching query.
func (s *Surface) SearchToken(ctx context.Context, query string) *envelope.Response {
	b := s.builder()
	if len(query) < 3 {
		return errorResponse(b, apierror.InputValidationf("search_token: query must be at least 3 characters"))
	}
	raw, err := s.gw.Call(ctx, gateway.Explorer, gateway.RequestSpec{
		Path:   "tokens/search",
		Method: gateway.GET,
		Query:  map[string]string{"query": query},
	}, 0)
	if err != nil {
		return errorResponse(b, err)
	}
	return b.Success(normalizeListAsInterface(raw), s.cfg.Limit("tokens"))
}

// SearchCollections searches Explorer for NFT collection root tokens
// matching query, defaulting to a limit of 10.
func (s *Surface) SearchCollections(ctx context.Context, query string, limit int) *envelope.Response {
	b := s.builder()
	if len(query) < 3 {
		return errorResponse(b, apierror.InputValidationf("search_collections: query must be at least 3 characters"))
	}
	if limit <= 0 {
		limit = 10
	}

	raw, err := s.gw.Call(ctx, gateway.Explorer, gateway.RequestSpec{
		Path:   "tokens/search",
		Method: gateway.GET,
		Query:  map[string]string{"query": query},
	}, 0)
	if err != nil {
		return errorResponse(b, err)
	}

	items := normalizeList(raw)
	collections := make([]interface{}, 0, len(items))
	for _, item := range items {
		tm, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		collections = append(collections, types.Collection{
			ID:          stringField(tm, "id"),
			Name:        stringField(tm, "name"),
			Description: stringField(tm, "description"),
		})
	}

	return b.Success(collections, limit)
}

// GetTokenHolders computes the token-holder distribution report.
func (s *Surface) GetTokenHolders(ctx context.Context, tokenID string) *envelope.Response {
	b := s.builder()
	report, err := s.holders.GetTokenHolders(ctx, tokenID)
	if err != nil {
		return errorResponse(b, err)
	}
	if report.IsTruncated {
		return b.PartialSuccess(report)
	}
	return b.Success(report, 0)
}

// GetCollectionHolders aggregates holders across a collection's member
// tokens.
func (s *Surface) GetCollectionHolders(ctx context.Context, collectionID string, memberTokenIDs []string) *envelope.Response {
	b := s.builder()
	report, err := s.holders.GetCollectionHolders(ctx, collectionID, memberTokenIDs)
	if err != nil {
		return errorResponse(b, err)
	}
	if report.IsTruncated {
		return b.PartialSuccess(report)
	}
	return b.Success(report, 0)
}

// AnalyzeAddress runs the bounded address-graph BFS.
func (s *Surface) AnalyzeAddress(ctx context.Context, address string, depth, txLimit int) *envelope.Response {
	b := s.builder()
	report, err := s.graph.Analyze(ctx, address, depth, txLimit)
	if err != nil {
		return errorResponse(b, err)
	}
	return b.Success(report, 0)
}

// ListEIPs returns every mirrored EIP summary.
func (s *Surface) ListEIPs() *envelope.Response {
	b := s.builder()
	summaries := s.eip.List()
	items := make([]interface{}, len(summaries))
	for i, sm := range summaries {
		items[i] = sm
	}
	return b.Success(items, 0)
}

// GetEIP returns one EIP's full rendered detail.
func (s *Surface) GetEIP(number int) *envelope.Response {
	b := s.builder()
	detail, ok := s.eip.Get(number)
	if !ok {
		return errorResponse(b, apierror.NotFoundf("get_eip", "EIP %d not found", number))
	}
	return b.Success(detail, 0)
}

// SubmitTransaction passes a caller-built, already-signed transaction
// through to the Node for broadcast. No construction or signing happens
// here (spec §1 Non-goals) — this only forwards the caller-supplied JSON.
func (s *Surface) SubmitTransaction(ctx context.Context, txJSON map[string]interface{}) *envelope.Response {
	b := s.builder()
	raw, err := s.gw.Call(ctx, gateway.Node, gateway.RequestSpec{
		Path:   "transactions",
		Method: gateway.POST,
		Body:   txJSON,
	}, 0)
	if err != nil {
		return errorResponse(b, err)
	}
	return b.Success(raw, 0)
}

// GetAddressBookFallback serves the disk-resident address-book fallback
// snapshot described in spec §6.
func (s *Surface) GetAddressBookFallback() *envelope.Response {
	b := s.builder()
	snap, err := s.fallback.LoadAddressBook()
	if err != nil {
		return errorResponse(b, err)
	}
	return b.Success(snap, 0)
}

// GetNodeWallet lists the node's own wallet addresses as the Node returns
// them. Balances are not fetched for the listed addresses.
func (s *Surface) GetNodeWallet(ctx context.Context) *envelope.Response {
	b := s.builder()
	raw, err := s.gw.Call(ctx, gateway.Node, gateway.RequestSpec{Path: "wallet/addresses", Method: gateway.GET}, 0)
	if err != nil {
		return errorResponse(b, err)
	}
	return b.Success(normalizeListAsInterface(raw), 0)
}

// --- legacy _node-suffixed aliases (spec §12 supplemented feature) ---

// GetAddressBalanceNode is the historical alias for GetAddressBalance.
func (s *Surface) GetAddressBalanceNode(ctx context.Context, address string) *envelope.Response {
	return s.GetAddressBalance(ctx, address)
}

// GetTransactionNode is the historical alias for GetTransaction.
func (s *Surface) GetTransactionNode(ctx context.Context, txID string) *envelope.Response {
	return s.GetTransaction(ctx, txID)
}

// GetTokenHoldersNode is the historical alias for GetTokenHolders.
func (s *Surface) GetTokenHoldersNode(ctx context.Context, tokenID string) *envelope.Response {
	return s.GetTokenHolders(ctx, tokenID)
}

func normalizeList(raw interface{}) []interface{} {
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

func normalizeListAsInterface(raw interface{}) interface{} {
	if list := normalizeList(raw); list != nil {
		return list
	}
	return raw
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
