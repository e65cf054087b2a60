package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/basislab/ustbasis/internal/model"
)

// ReplayFiles names the CSV fixture files an offline snapshot is built
// from. ClosesPath may be empty; the risk overlay then sees no history.
type ReplayFiles struct {
	FuturesPath    string
	BondsPath      string
	ClosesPath     string
	NetLiquidation float64
}

// LoadSnapshot builds a snapshot from CSV fixtures instead of a live
// gateway. Prices go through the same 32nds parser as the live path, so
// fixtures can carry quotes exactly as the gateway formats them.
func LoadSnapshot(files ReplayFiles) (*model.Snapshot, error) {
	futures, err := loadFuturesCSV(files.FuturesPath)
	if err != nil {
		return nil, err
	}
	bonds, err := loadBondsCSV(files.BondsPath)
	if err != nil {
		return nil, err
	}

	closes := map[int64][]float64{}
	if files.ClosesPath != "" {
		closes, err = loadClosesCSV(files.ClosesPath)
		if err != nil {
			return nil, err
		}
	}

	return &model.Snapshot{
		TakenAt:        time.Now().UTC(),
		Futures:        futures,
		Bonds:          bonds,
		Closes:         closes,
		NetLiquidation: files.NetLiquidation,
	}, nil
}

// loadFuturesCSV reads futures quotes with columns conid, series, code,
// expiry, last, bid, ask, volume, multiplier, increment, exchange. Empty
// price and volume cells stay unquoted.
func loadFuturesCSV(path string) ([]model.Quote, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open futures fixture: %w", err)
	}
	defer f.Close()

	col, cr, err := headerIndex(f, "conid", "series", "code", "expiry", "multiplier")
	if err != nil {
		return nil, fmt.Errorf("futures fixture %s: %w", path, err)
	}

	var out []model.Quote
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("futures fixture line %d: %w", line, err)
		}

		conid, err := strconv.ParseInt(cell(rec, col, "conid"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("futures fixture line %d: conid: %w", line, err)
		}
		expiry, err := time.Parse("2006-01-02", cell(rec, col, "expiry"))
		if err != nil {
			return nil, fmt.Errorf("futures fixture line %d: expiry: %w", line, err)
		}
		multiplier, err := strconv.ParseFloat(cell(rec, col, "multiplier"), 64)
		if err != nil {
			return nil, fmt.Errorf("futures fixture line %d: multiplier: %w", line, err)
		}

		q := model.Quote{
			ConID:      conid,
			Series:     cell(rec, col, "series"),
			Code:       cell(rec, col, "code"),
			Expiry:     expiry,
			Multiplier: multiplier,
			Exchange:   cell(rec, col, "exchange"),
		}
		if raw := cell(rec, col, "increment"); raw != "" {
			if q.Increment, err = strconv.ParseFloat(raw, 64); err != nil {
				return nil, fmt.Errorf("futures fixture line %d: increment: %w", line, err)
			}
		}
		if v, closed, ok := ParsePrice(cell(rec, col, "last")); ok {
			q.Last = model.Float64(v)
			q.Closed = closed
		}
		if v, _, ok := ParsePrice(cell(rec, col, "bid")); ok {
			q.Bid = model.Float64(v)
		}
		if v, _, ok := ParsePrice(cell(rec, col, "ask")); ok {
			q.Ask = model.Float64(v)
		}
		if v, ok := ParseVolume(cell(rec, col, "volume")); ok {
			q.Volume = model.Float64(v)
		}
		out = append(out, q)
	}
	return out, nil
}

// loadBondsCSV reads deliverable-bond quotes with columns cusip, conid,
// coupon, maturity, code, factor, price, side. A bond spans one row per
// futures contract; the first price/side seen for a cusip+side pair wins.
func loadBondsCSV(path string) ([]model.DeliverableBond, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bonds fixture: %w", err)
	}
	defer f.Close()

	col, cr, err := headerIndex(f, "cusip", "conid", "coupon", "maturity", "code", "factor")
	if err != nil {
		return nil, fmt.Errorf("bonds fixture %s: %w", path, err)
	}

	type key struct {
		cusip string
		side  string
	}
	byKey := make(map[key]*model.DeliverableBond)
	var order []key

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bonds fixture line %d: %w", line, err)
		}

		cusip := cell(rec, col, "cusip")
		if cusip == "" {
			continue
		}
		side := cell(rec, col, "side")
		if side == "" {
			side = "last"
		}

		k := key{cusip, side}
		b, ok := byKey[k]
		if !ok {
			conid, err := strconv.ParseInt(cell(rec, col, "conid"), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bonds fixture line %d: conid: %w", line, err)
			}
			coupon, err := strconv.ParseFloat(cell(rec, col, "coupon"), 64)
			if err != nil {
				return nil, fmt.Errorf("bonds fixture line %d: coupon: %w", line, err)
			}
			maturity, err := time.Parse("2006-01-02", cell(rec, col, "maturity"))
			if err != nil {
				return nil, fmt.Errorf("bonds fixture line %d: maturity: %w", line, err)
			}
			b = &model.DeliverableBond{
				CUSIP:    cusip,
				ConID:    conid,
				Coupon:   coupon,
				Maturity: maturity,
				Factors:  make(map[string]float64),
				Side:     side,
			}
			if v, _, ok := ParsePrice(cell(rec, col, "price")); ok {
				b.Price = model.Float64(v)
			}
			byKey[k] = b
			order = append(order, k)
		}

		code := cell(rec, col, "code")
		if code == "" {
			continue
		}
		factor, err := strconv.ParseFloat(cell(rec, col, "factor"), 64)
		if err != nil {
			return nil, fmt.Errorf("bonds fixture line %d: factor: %w", line, err)
		}
		b.Factors[code] = factor
	}

	out := make([]model.DeliverableBond, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	return out, nil
}

// loadClosesCSV reads trailing closes with columns conid, close, oldest
// first per conid.
func loadClosesCSV(path string) (map[int64][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open closes fixture: %w", err)
	}
	defer f.Close()

	col, cr, err := headerIndex(f, "conid", "close")
	if err != nil {
		return nil, fmt.Errorf("closes fixture %s: %w", path, err)
	}

	out := make(map[int64][]float64)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("closes fixture line %d: %w", line, err)
		}
		conid, err := strconv.ParseInt(cell(rec, col, "conid"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("closes fixture line %d: conid: %w", line, err)
		}
		px, err := strconv.ParseFloat(cell(rec, col, "close"), 64)
		if err != nil {
			return nil, fmt.Errorf("closes fixture line %d: close: %w", line, err)
		}
		out[conid] = append(out[conid], px)
	}
	return out, nil
}

// headerIndex reads the CSV header and verifies the required columns.
func headerIndex(r io.Reader, required ...string) (map[string]int, *csv.Reader, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", name)
		}
	}
	return col, cr, nil
}

// cell returns the trimmed value of an optional column, empty when the
// column is absent.
func cell(rec []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
