// Package paginate implements the generic bounded pagination walk used by
// every engine that drives a paged upstream endpoint to completion.
package paginate

import (
	"github.com/ergoplatform/ergo-chain-analytics/internal/logger"
)

// Reason names why a walk stopped.
type Reason string

const (
	Exhausted     Reason = "exhausted"
	Ceiling       Reason = "ceiling"
	ShortPage     Reason = "shortPage"
	UpstreamError Reason = "upstreamError"
)

// Page is one page of results: the items plus the upstream error, if any,
// that was encountered fetching it.
type Page struct {
	Items []interface{}
	Err   error
}

// FetchPage retrieves one page at the given offset/limit.
type FetchPage func(offset, limit int) Page

// Result is the outcome of a completed walk.
type Result struct {
	Items  []interface{}
	Reason Reason
	Err    error // non-nil only when Reason == UpstreamError
}

// Options bounds a walk.
type Options struct {
	PageSize int // default 100
	MaxItems int // 0 means unbounded
}

// Walk drives fetchPage to completion, to a short page, to maxItems, or to
// the first upstream error, returning every item collected in fetch order.
func Walk(log logger.Logger, fetchPage FetchPage, opts Options) Result {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	var items []interface{}
	offset := 0

	for {
		page := fetchPage(offset, pageSize)
		if page.Err != nil {
			log.Errorf("paginate: upstream error at offset %d: %v", offset, page.Err)
			return Result{Items: items, Reason: UpstreamError, Err: page.Err}
		}

		log.Debugf("paginate: fetched page offset=%d size=%d", offset, len(page.Items))

		if len(page.Items) == 0 {
			log.Infof("paginate: exhausted after %d items", len(items))
			return Result{Items: items, Reason: Exhausted}
		}

		items = append(items, page.Items...)

		if len(page.Items) < pageSize {
			log.Infof("paginate: short page (%d < %d) after %d items", len(page.Items), pageSize, len(items))
			return Result{Items: items, Reason: ShortPage}
		}

		if opts.MaxItems > 0 && len(items) >= opts.MaxItems {
			log.Infof("paginate: hit ceiling %d after %d items", opts.MaxItems, len(items))
			return Result{Items: items[:opts.MaxItems], Reason: Ceiling}
		}

		offset += pageSize
	}
}
