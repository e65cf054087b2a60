package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultSnapshotFields are the market-data field codes the pipeline
// needs: last, bid, ask, volume.
var DefaultSnapshotFields = []string{"31", "84", "86", "87"}

// AuthStatus reports the brokerage session state.
func (c *Client) AuthStatus(ctx context.Context) (*AuthStatusResponse, error) {
	var resp AuthStatusResponse
	if err := c.post(ctx, "/iserver/auth/status", nil, &resp); err != nil {
		return nil, fmt.Errorf("auth status: %w", err)
	}
	return &resp, nil
}

// Tickle extends the gateway session. The gateway drops sessions idle
// for a few minutes, so callers run this on an interval; see Keepalive.
func (c *Client) Tickle(ctx context.Context) (*TickleResponse, error) {
	var resp TickleResponse
	if err := c.post(ctx, "/tickle", nil, &resp); err != nil {
		return nil, fmt.Errorf("tickle: %w", err)
	}
	return &resp, nil
}

// Session returns a fresh session token for cookie-authenticated
// connections, tickling the gateway as a side effect.
func (c *Client) Session(ctx context.Context) (string, error) {
	resp, err := c.Tickle(ctx)
	if err != nil {
		return "", err
	}
	if resp.Session == "" {
		return "", fmt.Errorf("tickle returned empty session")
	}
	return resp.Session, nil
}

// Futures fetches the listed contracts for the given series symbols.
func (c *Client) Futures(ctx context.Context, symbols []string) (map[string][]FutureContract, error) {
	query := url.Values{}
	query.Set("symbols", strings.Join(symbols, ","))

	resp := make(map[string][]FutureContract)
	if err := c.get(ctx, "/trsrv/futures", query, &resp); err != nil {
		return nil, fmt.Errorf("futures %s: %w", strings.Join(symbols, ","), err)
	}
	return resp, nil
}

// SearchContracts runs a security-definition search for the symbol,
// optionally restricted to a security type ("BOND", "FUT").
func (c *Client) SearchContracts(ctx context.Context, symbol, secType string) ([]SecDefMatch, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("name", "false")
	if secType != "" {
		query.Set("secType", secType)
	}

	var resp []SecDefMatch
	if err := c.get(ctx, "/iserver/secdef/search", query, &resp); err != nil {
		return nil, fmt.Errorf("secdef search %s: %w", symbol, err)
	}
	return resp, nil
}

// Snapshot fetches one market-data row per contract. Empty fields means
// DefaultSnapshotFields.
func (c *Client) Snapshot(ctx context.Context, conids []int64, fields []string) ([]SnapshotRow, error) {
	if len(fields) == 0 {
		fields = DefaultSnapshotFields
	}

	ids := make([]string, len(conids))
	for i, id := range conids {
		ids[i] = strconv.FormatInt(id, 10)
	}

	query := url.Values{}
	query.Set("conids", strings.Join(ids, ","))
	query.Set("fields", strings.Join(fields, ","))

	var resp []SnapshotRow
	if err := c.get(ctx, "/iserver/marketdata/snapshot", query, &resp); err != nil {
		return nil, fmt.Errorf("marketdata snapshot: %w", err)
	}
	return resp, nil
}

// History fetches bars for one contract, e.g. period "1m", bar "1d" for
// a month of daily closes.
func (c *Client) History(ctx context.Context, conid int64, period, bar string) (*HistoryResponse, error) {
	query := url.Values{}
	query.Set("conid", strconv.FormatInt(conid, 10))
	query.Set("period", period)
	query.Set("bar", bar)

	var resp HistoryResponse
	if err := c.get(ctx, "/iserver/marketdata/history", query, &resp); err != nil {
		return nil, fmt.Errorf("marketdata history %d: %w", conid, err)
	}
	return &resp, nil
}

// Summary fetches the account ledger for the client's account.
func (c *Client) Summary(ctx context.Context) (AccountSummaryResponse, error) {
	var resp AccountSummaryResponse
	path := "/portfolio/" + c.accountID + "/summary"
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("account summary: %w", err)
	}
	return resp, nil
}

// PnL fetches the partitioned profit-and-loss report. Rows are keyed by
// "<accountId>.<model>"; the Core partition carries the account total.
func (c *Client) PnL(ctx context.Context) (*PnLResponse, error) {
	var resp PnLResponse
	if err := c.get(ctx, "/iserver/account/pnl/partitioned", nil, &resp); err != nil {
		return nil, fmt.Errorf("pnl partitioned: %w", err)
	}
	return &resp, nil
}

// NetLiquidation returns the account's net liquidation value in dollars.
// The portfolio ledger is the primary source; when it is unavailable or
// lacks the netliquidation tag, the Core row of the partitioned PnL
// report supplies the value instead.
func (c *Client) NetLiquidation(ctx context.Context) (float64, error) {
	summary, sumErr := c.Summary(ctx)
	if sumErr == nil {
		if v, ok := summary["netliquidation"]; ok {
			return v.Amount, nil
		}
		sumErr = fmt.Errorf("account summary missing netliquidation")
	}

	pnl, err := c.PnL(ctx)
	if err != nil {
		return 0, sumErr
	}
	row, ok := pnl.UPnL[c.accountID+".Core"]
	if !ok {
		return 0, fmt.Errorf("pnl partitioned missing %s.Core: %w", c.accountID, sumErr)
	}
	return row.NetLiq, nil
}
