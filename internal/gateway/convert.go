package gateway

import "time"

// ExpiryTime converts the wire yyyymmdd expiration to a UTC date,
// preferring the last trading day when both are present. Zero dates
// yield the zero time.
func (f FutureContract) ExpiryTime() time.Time {
	d := f.LastTradingDay
	if d == 0 {
		d = f.ExpirationDate
	}
	return yyyymmdd(d)
}

func yyyymmdd(d int) time.Time {
	if d == 0 {
		return time.Time{}
	}
	year := d / 10000
	month := d / 100 % 100
	day := d % 100
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// Closes flattens the history bars into a close series, oldest first,
// matching the bar order the gateway returns.
func (h *HistoryResponse) Closes() []float64 {
	out := make([]float64, 0, len(h.Data))
	for _, b := range h.Data {
		out = append(out, b.Close)
	}
	return out
}
