// Package types holds the shared domain entities flowing between the
// gateway, engines, and tool surface. Values are request-scoped snapshots;
// nothing here is cached across invocations.
package types

import "github.com/ethereum/go-ethereum/common/hexutil"

// HexHeight renders a block height as a 0x-prefixed quantity string.
// Never used to decode upstream payloads — Explorer/Node emit plain decimal
// JSON numbers, so decoding stays on int64; this is an output-only
// convenience for callers that want the hex form alongside the decimal one.
func HexHeight(height int64) string {
	return hexutil.Uint64(height).String()
}

// Asset is one token entry carried by a Box or included in a balance.
type Asset struct {
	TokenID  string `json:"tokenId"`
	Amount   int64  `json:"amount"`
	Decimals int    `json:"decimals"`
	Name     string `json:"name,omitempty"`
}

// Box is an immutable snapshot of an Ergo UTXO-style box.
type Box struct {
	ID        string  `json:"id"`
	Address   string  `json:"address"`
	Height    int64   `json:"height"`
	Value     int64   `json:"value"`
	Assets    []Asset `json:"assets"`
	SpentTxID string  `json:"spentTransactionId,omitempty"`
}

// Transaction is an immutable snapshot of a confirmed transaction.
type Transaction struct {
	ID            string `json:"id"`
	BlockID       string `json:"blockId"`
	Height        int64  `json:"inclusionHeight"`
	Timestamp     int64  `json:"timestamp"`
	Size          int    `json:"size"`
	Confirmations int    `json:"numConfirmations"`
	Inputs        []Box  `json:"inputs"`
	Outputs       []Box  `json:"outputs"`
}

// Balance is a confirmed or unconfirmed balance snapshot for an address.
type Balance struct {
	NanoErgs int64   `json:"nanoErgs"`
	Tokens   []Asset `json:"tokens"`
}

// AddressBalance is the full confirmed+unconfirmed balance for an address.
type AddressBalance struct {
	Address     string  `json:"address"`
	Confirmed   Balance `json:"confirmed"`
	Unconfirmed Balance `json:"unconfirmed"`
}

// Token is metadata describing an issued token.
type Token struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Decimals       int    `json:"decimals"`
	EmissionAmount int64  `json:"emissionAmount"`
	Type           string `json:"type"`
	MintingHeight  int64  `json:"mintingHeight"`
	MintingTxID    string `json:"mintingTxId"`
}

// Holder is one entry in a sorted DistributionReport.
type Holder struct {
	Address    string  `json:"address"`
	Amount     int64   `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// Collection describes an NFT collection root token.
type Collection struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TokenCount  int    `json:"tokenCount"`
}

// DistributionReport is the full holder-distribution analysis for a token.
type DistributionReport struct {
	TokenID               string      `json:"tokenId"`
	Name                  string      `json:"name"`
	Decimals              int         `json:"decimals"`
	TotalSupply           int64       `json:"totalSupply"`
	TotalHolders          int         `json:"totalHolders"`
	Holders               []Holder    `json:"holders"`
	Gini                  float64     `json:"gini"`
	Top10PctConcentration float64     `json:"top10PctConcentration"`
	Collection            *Collection `json:"collection,omitempty"`
	IsTruncated           bool        `json:"isTruncated,omitempty"`
}

// AddressGraphNode is one address discovered during a graph walk.
type AddressGraphNode struct {
	Address  string   `json:"address"`
	Distance int      `json:"distance"`
	TxIDs    []string `json:"transactionIds"`
}

// HubAddress names an address whose observed transaction count crosses the
// hub threshold.
type HubAddress struct {
	Address string `json:"address"`
	TxCount int    `json:"txCount"`
}

// AddressGraphReport is the full result of a bounded BFS from a seed address.
type AddressGraphReport struct {
	Seed         string                     `json:"seed"`
	Depth        int                        `json:"depth"`
	TxLimit      int                        `json:"txLimit"`
	NodesByDepth map[int][]AddressGraphNode `json:"nodesByDepth"`
	Balances     map[string]AddressBalance  `json:"balances,omitempty"`
	Hubs         []HubAddress               `json:"hubs"`
	TotalTxCount int                        `json:"totalTransactionCount"`
}

// EIPSummary is the listing-level view of an Ergo Improvement Proposal.
type EIPSummary struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// EIPDetail is the full rendered content of one EIP.
type EIPDetail struct {
	EIPSummary
	Content string `json:"content"`
}
