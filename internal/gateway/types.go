package gateway

// AuthStatusResponse from POST /iserver/auth/status
type AuthStatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Connected     bool   `json:"connected"`
	Competing     bool   `json:"competing"`
	Message       string `json:"message,omitempty"`
}

// TickleResponse from POST /tickle
type TickleResponse struct {
	Session    string `json:"session"`
	SSOExpires int64  `json:"ssoExpires"`
	IServer    struct {
		AuthStatus AuthStatusResponse `json:"authStatus"`
	} `json:"iserver"`
}

// FutureContract is one listed contract from GET /trsrv/futures.
// Dates are yyyymmdd integers on the wire.
type FutureContract struct {
	Symbol          string `json:"symbol"`
	ConID           int64  `json:"conid"`
	UnderlyingConID int64  `json:"underlyingConid"`
	ExpirationDate  int    `json:"expirationDate"`
	LastTradingDay  int    `json:"ltd"`
}

// SecDefMatch is one result from GET /iserver/secdef/search.
type SecDefMatch struct {
	ConID         int64  `json:"conid"`
	Symbol        string `json:"symbol"`
	CompanyHeader string `json:"companyHeader"`
	Description   string `json:"description"`
}

// SnapshotRow is one instrument's row from GET /iserver/marketdata/snapshot.
// Market-data fields come back keyed by numeric field code; prices are
// strings in the instrument's display convention (32nds for Treasury
// futures) and volume may carry K/M suffixes.
type SnapshotRow struct {
	ConID     int64  `json:"conid"`
	LastPrice string `json:"31"`
	BidPrice  string `json:"84"`
	AskPrice  string `json:"86"`
	Volume    string `json:"87"`
}

// HistoryBar is one bar from GET /iserver/marketdata/history.
type HistoryBar struct {
	Open  float64 `json:"o"`
	Close float64 `json:"c"`
	High  float64 `json:"h"`
	Low   float64 `json:"l"`
	Time  int64   `json:"t"` // epoch millis
}

// HistoryResponse from GET /iserver/marketdata/history
type HistoryResponse struct {
	Symbol string       `json:"symbol"`
	Data   []HistoryBar `json:"data"`
}

// LedgerValue is one row of the account summary.
type LedgerValue struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// AccountSummaryResponse from GET /portfolio/{accountId}/summary,
// keyed by lower-case ledger tag ("netliquidation", "availablefunds").
type AccountSummaryResponse map[string]LedgerValue

// PnLResponse from GET /iserver/account/pnl/partitioned
type PnLResponse struct {
	UPnL map[string]struct {
		DailyPnL float64 `json:"dpl"`
		NetLiq   float64 `json:"nl"`
	} `json:"upnl"`
}
