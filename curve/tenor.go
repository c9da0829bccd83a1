package curve

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidTenor = errors.New("invalid tenor")

// ParseTenor converts tenor strings like "1W", "3M", "10Y" to year fractions.
// A bare number is read as years.
func ParseTenor(tenor string) (float64, error) {
	s := strings.TrimSpace(strings.ToUpper(tenor))
	if s == "" {
		return 0, fmt.Errorf("ParseTenor: %w: empty", ErrInvalidTenor)
	}
	var scale float64
	switch s[len(s)-1] {
	case 'D':
		scale = 1.0 / 365.0
	case 'W':
		scale = 7.0 / 365.0
	case 'M':
		scale = 1.0 / 12.0
	case 'Y':
		scale = 1
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("ParseTenor: %w: %q", ErrInvalidTenor, tenor)
		}
		return v, nil
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("ParseTenor: %w: %q", ErrInvalidTenor, tenor)
	}
	return float64(n) * scale, nil
}
