package importer

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	errNotInteger = errors.New("no es un entero")
	urlScheme     = regexp.MustCompile(`(?i)^[a-z][a-z0-9+.-]*://`)
	decimalJunk   = regexp.MustCompile(`[^0-9.\-]+`)
	integerJunk   = regexp.MustCompile(`[^0-9\-]+`)
	spaces        = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "")
)

// parseDecimal acepta "1 234,50 €", "12.5" o "-3"; ok=false si la celda no contiene un número.
func parseDecimal(v string) (d decimal.Decimal, ok bool, err error) {
	raw := spaces.Replace(strings.TrimSpace(v))
	if raw == "" {
		return decimal.Zero, false, nil
	}
	raw = decimalJunk.ReplaceAllString(strings.ReplaceAll(raw, ",", "."), "")
	switch raw {
	case "", ".", "-", "-.":
		return decimal.Zero, false, nil
	}
	d, err = decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, err
	}
	return d, true, nil
}

// parseQuantity entero; un número con decimales distintos de cero es un error.
func parseQuantity(v string) (n int, ok bool, err error) {
	raw := spaces.Replace(strings.TrimSpace(v))
	if raw == "" {
		return 0, false, nil
	}
	if d, derr := decimal.NewFromString(strings.ReplaceAll(raw, ",", ".")); derr == nil {
		if !d.Equal(d.Truncate(0)) {
			return 0, false, errNotInteger
		}
		return int(d.IntPart()), true, nil
	}
	raw = integerJunk.ReplaceAllString(raw, "")
	if raw == "" || raw == "-" {
		return 0, false, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, false, err
	}
	return int(d.IntPart()), true, nil
}

// isURL solo acepta valores con esquema (http://, https://, s3://...).
func isURL(v string) bool {
	return urlScheme.MatchString(v)
}
