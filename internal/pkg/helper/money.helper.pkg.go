package helper

import (
	"math"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/currency"
)

const DefaultCurrency = "USD"

// RoundCents rounds an amount to two decimals, half away from zero.
func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// SumLines adds up line totals and rounds the result to cents.
func SumLines[T any](items []T, line func(T) float64) float64 {
	return RoundCents(lo.SumBy(items, line))
}

// NormalizeCurrency returns the ISO 4217 code for code, defaulting to USD.
func NormalizeCurrency(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return DefaultCurrency, nil
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", err
	}
	return unit.String(), nil
}
