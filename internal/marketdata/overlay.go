package marketdata

import (
	"github.com/basislab/ustbasis/internal/model"
	"github.com/basislab/ustbasis/internal/stream"
)

// ApplyUpdates folds streamed quote updates onto a built snapshot. For
// each contract the latest update wins; fields absent from the update
// keep the polled value. Returns the number of quotes touched.
func ApplyUpdates(snap *model.Snapshot, updates []stream.QuoteUpdate) int {
	if len(updates) == 0 {
		return 0
	}

	latest := make(map[int64]stream.QuoteUpdate, len(updates))
	for _, u := range updates {
		prev, ok := latest[u.ConID]
		if !ok || u.ReceivedAt.After(prev.ReceivedAt) {
			latest[u.ConID] = u
		}
	}

	applied := 0
	for i := range snap.Futures {
		q := &snap.Futures[i]
		u, ok := latest[q.ConID]
		if !ok {
			continue
		}

		touched := false
		if v, closed, ok := ParsePrice(u.LastPrice); ok {
			q.Last = model.Float64(v)
			q.Closed = closed
			touched = true
		}
		if v, _, ok := ParsePrice(u.BidPrice); ok {
			q.Bid = model.Float64(v)
			touched = true
		}
		if v, _, ok := ParsePrice(u.AskPrice); ok {
			q.Ask = model.Float64(v)
			touched = true
		}
		if v, ok := ParseVolume(u.Volume); ok {
			q.Volume = model.Float64(v)
			touched = true
		}
		if touched {
			applied++
		}
	}
	return applied
}
