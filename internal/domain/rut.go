package domain

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidRUT is returned for national ids with a bad shape or check digit.
var ErrInvalidRUT = errors.New("invalid rut")

// NormalizeRUT canonicalizes a Chilean RUT to "<digits>-<check>" with an
// upper-case K, validating the modulo 11 check digit.
func NormalizeRUT(raw string) (string, error) {
	cleaned := strings.ToUpper(strings.NewReplacer(".", "", "-", "", " ", "").Replace(raw))
	if len(cleaned) < 2 {
		return "", ErrInvalidRUT
	}
	body, check := cleaned[:len(cleaned)-1], cleaned[len(cleaned)-1]
	if len(body) > 9 {
		return "", ErrInvalidRUT
	}
	if _, err := strconv.Atoi(body); err != nil {
		return "", ErrInvalidRUT
	}
	if rutCheckDigit(body) != check {
		return "", ErrInvalidRUT
	}
	return strings.TrimLeft(body, "0") + "-" + string(check), nil
}

func rutCheckDigit(body string) byte {
	sum, factor := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}
	switch rest := 11 - sum%11; rest {
	case 11:
		return '0'
	case 10:
		return 'K'
	default:
		return byte('0' + rest)
	}
}
