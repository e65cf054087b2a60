package universe

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Bond is the static reference data for one deliverable Treasury.
// Factors is keyed by futures contract code; entries missing from the
// file are computed from the coupon schedule at sync time.
type Bond struct {
	CUSIP    string
	ConID    int64
	Coupon   float64
	Maturity time.Time
	Factors  map[string]float64
}

// LoadDeliverables reads the deliverable-bond list from a CSV file with
// columns cusip, conid, coupon, maturity, code, factor. A bond spans
// multiple rows, one per futures contract; the factor column may be
// empty.
func LoadDeliverables(path string) ([]Bond, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open deliverables: %w", err)
	}
	defer f.Close()

	bonds, err := ParseDeliverables(f)
	if err != nil {
		return nil, fmt.Errorf("parse deliverables %s: %w", path, err)
	}
	return bonds, nil
}

// ParseDeliverables decodes the CSV stream. Row order is preserved for
// first-seen bonds.
func ParseDeliverables(r io.Reader) ([]Bond, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"cusip", "conid", "coupon", "maturity", "code"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	byCUSIP := make(map[string]*Bond)
	var order []string

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		cusip := strings.TrimSpace(rec[col["cusip"]])
		if cusip == "" {
			continue
		}

		b, ok := byCUSIP[cusip]
		if !ok {
			conid, err := strconv.ParseInt(strings.TrimSpace(rec[col["conid"]]), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: conid: %w", line, err)
			}
			coupon, err := strconv.ParseFloat(strings.TrimSpace(rec[col["coupon"]]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: coupon: %w", line, err)
			}
			maturity, err := time.Parse("2006-01-02", strings.TrimSpace(rec[col["maturity"]]))
			if err != nil {
				return nil, fmt.Errorf("line %d: maturity: %w", line, err)
			}
			b = &Bond{
				CUSIP:    cusip,
				ConID:    conid,
				Coupon:   coupon,
				Maturity: maturity,
				Factors:  make(map[string]float64),
			}
			byCUSIP[cusip] = b
			order = append(order, cusip)
		}

		code := strings.TrimSpace(rec[col["code"]])
		if code == "" {
			continue
		}
		if fi, ok := col["factor"]; ok && fi < len(rec) {
			raw := strings.TrimSpace(rec[fi])
			if raw == "" {
				b.Factors[code] = 0 // recomputed at sync
				continue
			}
			factor, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: factor: %w", line, err)
			}
			b.Factors[code] = factor
		} else {
			b.Factors[code] = 0
		}
	}

	out := make([]Bond, 0, len(order))
	for _, cusip := range order {
		out = append(out, *byCUSIP[cusip])
	}
	return out, nil
}
