package refdata

import "time"

// AddMonths shifts a date by n months, clamping the day to the target
// month's length. Unlike time.AddDate it never normalizes Jan 31 + 1 month
// into March; it lands on Feb 28 (or 29), matching spreadsheet EDATE
// arithmetic, which is how coupon schedules are conventionally derived.
func AddMonths(d time.Time, n int) time.Time {
	month := int(d.Month()) - 1 + n
	year := d.Year() + month/12
	month = month % 12
	if month < 0 {
		month += 12
		year--
	}
	m := time.Month(month + 1)

	day := d.Day()
	if last := daysIn(year, m); day > last {
		day = last
	}
	return time.Date(year, m, day, 0, 0, 0, 0, d.Location())
}

func daysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SettlementDate returns the T+n settlement date for a trade date, counting
// business days and skipping weekends. Exchange holidays are not observed.
func SettlementDate(trade time.Time, tPlus int) time.Time {
	d := trade
	added := 0
	for added < tPlus {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return d
}

// CouponAnchor returns the nearest semiannual coupon date on or before asof
// for a bond maturing on maturity. The maturity's month and day are
// transplanted onto asof's year (clamping invalid days to month end), then
// rolled back six months at a time while still in the future.
func CouponAnchor(maturity, asof time.Time) time.Time {
	year := asof.Year()
	day := maturity.Day()
	if last := daysIn(year, maturity.Month()); day > last {
		day = last
	}
	anchor := time.Date(year, maturity.Month(), day, 0, 0, 0, 0, asof.Location())

	for anchor.After(asof) {
		anchor = AddMonths(anchor, -6)
	}
	return anchor
}

// CouponBounds returns the previous (on or before asof) and next (after
// asof) coupon dates on the semiannual schedule anchored at maturity.
func CouponBounds(maturity, asof time.Time) (prev, next time.Time) {
	// Walk back from maturity past asof, then forward one step.
	d := maturity
	for d.After(asof) {
		d = AddMonths(d, -6)
	}
	return d, AddMonths(d, 6)
}

// Term returns the years between two dates on a 365.25-day basis.
func Term(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24 / 365.25
}
