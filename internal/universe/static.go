package universe

import (
	"fmt"
	"time"
)

// ContractSpec holds the static exchange parameters of one futures
// series.
type ContractSpec struct {
	Multiplier float64 // dollars per point
	Increment  float64 // minimum price fluctuation, points
	Exchange   string
}

// Specs for the CBOT Treasury complex. The 2- and 3-year contracts
// carry a $200k face, the rest $100k.
var Specs = map[string]ContractSpec{
	"ZT":  {2000, 0.0078125, "CBOT"},
	"Z3N": {2000, 0.0078125, "CBOT"},
	"ZF":  {1000, 0.0078125, "CBOT"},
	"ZN":  {1000, 0.015625, "CBOT"},
	"TN":  {1000, 0.015625, "CBOT"},
}

// monthCodes per the futures month-letter convention.
var monthCodes = map[time.Month]byte{
	time.January:   'F',
	time.February:  'G',
	time.March:     'H',
	time.April:     'J',
	time.May:       'K',
	time.June:      'M',
	time.July:      'N',
	time.August:    'Q',
	time.September: 'U',
	time.October:   'V',
	time.November:  'X',
	time.December:  'Z',
}

// ContractCode builds the short code for a series and expiry, e.g.
// ("ZN", June 2025) -> "ZNM5".
func ContractCode(series string, expiry time.Time) string {
	code, ok := monthCodes[expiry.Month()]
	if !ok {
		return series
	}
	return fmt.Sprintf("%s%c%d", series, code, expiry.Year()%10)
}
