package marketdata

import (
	"strconv"
	"strings"
)

// ParsePrice decodes a gateway price string. Treasury futures come back
// in 32nds ("102'16.5" is 102 + 16.5/32); cash instruments come back as
// plain decimals. A leading C marks a prior-close print. Returns
// (price, closed, ok).
func ParsePrice(s string) (float64, bool, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, false
	}

	closed := false
	if s[0] == 'C' || s[0] == 'c' {
		closed = true
		s = strings.TrimSpace(s[1:])
		if s == "" {
			return 0, false, false
		}
	}

	whole, frac, ticked := strings.Cut(s, "'")
	if !ticked {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, false
		}
		return v, closed, true
	}

	w, err := strconv.ParseFloat(whole, 64)
	if err != nil {
		return 0, false, false
	}
	f := 0.0
	if frac != "" {
		f, err = strconv.ParseFloat(frac, 64)
		if err != nil {
			return 0, false, false
		}
	}
	return w + f/32, closed, true
}

// ParseVolume decodes a volume string with optional K/M suffix:
// "92.2K" is 92200, "1.5M" is 1.5e6.
func ParseVolume(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	mult := 1.0
	switch s[len(s)-1] {
	case 'K', 'k':
		mult = 1_000
		s = s[:len(s)-1]
	case 'M', 'm':
		mult = 1_000_000
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v * mult, true
}
