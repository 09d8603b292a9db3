// Package utils has small helpers for reading and printing byte sizes.
package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Our size constants. Powers of two!
const (
	_   = iota
	KiB = 1 << (10 * iota)
	MiB
	GiB
	TiB
	PiB
	EiB
)

// Decimal units, for people who write "10MB" and mean it.
const (
	KB uint64 = 1000
	MB        = KB * 1000
	GB        = MB * 1000
	TB        = GB * 1000
	PB        = TB * 1000
	EB        = PB * 1000
)

var sizeSuffixMultipliers = map[string]uint64{
	"":      1,
	"b":     1,
	"byte":  1,
	"bytes": 1,
	"k":     KB,
	"kb":    KB,
	"ki":    KiB,
	"kib":   KiB,
	"m":     MB,
	"mb":    MB,
	"mi":    MiB,
	"mib":   MiB,
	"g":     GB,
	"gb":    GB,
	"gi":    GiB,
	"gib":   GiB,
	"t":     TB,
	"tb":    TB,
	"ti":    TiB,
	"tib":   TiB,
	"p":     PB,
	"pb":    PB,
	"pi":    PiB,
	"pib":   PiB,
	"e":     EB,
	"eb":    EB,
	"ei":    EiB,
	"eib":   EiB,
}

// ParseSize converts human-readable size strings (e.g. "10M", "4GiB", "1.5T") to bytes.
// Plain suffixes (K, MB) are decimal; "i" suffixes (Ki, MiB) are binary.
func ParseSize(input string) (uint64, error) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.NewReplacer(" ", "", "_", "", ",", "").Replace(normalized)
	if normalized == "" {
		return 0, fmt.Errorf("size string is empty")
	}

	if f, err := strconv.ParseFloat(normalized, 64); err == nil {
		return fromFloat(input, f)
	}

	if strings.HasPrefix(normalized, "-") {
		return 0, fmt.Errorf("size must be non-negative: %s", input)
	}
	normalized = strings.TrimPrefix(normalized, "+")

	idx := strings.IndexFunc(normalized, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	if idx == -1 {
		idx = len(normalized)
	}
	numPart, suffix := normalized[:idx], normalized[idx:]
	if numPart == "" {
		return 0, fmt.Errorf("invalid size %q", input)
	}

	value, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", input, err)
	}

	multiplier, err := lookupMultiplier(suffix)
	if err != nil {
		return 0, err
	}
	return fromFloat(input, value*float64(multiplier))
}

func fromFloat(input string, f float64) (uint64, error) {
	switch {
	case math.IsInf(f, 0) || math.IsNaN(f):
		return 0, fmt.Errorf("size %s is not a finite number", input)
	case f < 0:
		return 0, fmt.Errorf("size must be non-negative: %s", input)
	case f >= math.MaxUint64:
		return 0, fmt.Errorf("size %s overflows uint64", input)
	}
	return uint64(f), nil
}

func lookupMultiplier(suffix string) (uint64, error) {
	candidates := []string{
		suffix,
		strings.TrimSuffix(suffix, "s"),
		strings.TrimSuffix(suffix, "bytes"),
		strings.TrimSuffix(suffix, "byte"),
		strings.TrimSuffix(suffix, "b"),
	}

	for _, candidate := range candidates {
		if multiplier, ok := sizeSuffixMultipliers[candidate]; ok {
			return multiplier, nil
		}
	}
	return 0, fmt.Errorf("unknown size suffix %q", suffix)
}

// DisplaySize takes a number of bytes and returns a human-readable string
func DisplaySize(bytes uint64) string {
	switch {
	case bytes < KiB:
		return fmt.Sprintf("%d B", bytes)
	case bytes < MiB:
		return fmt.Sprintf("%.2f KiB", float64(bytes)/float64(KiB))
	case bytes < GiB:
		return fmt.Sprintf("%.2f MiB", float64(bytes)/float64(MiB))
	case bytes < TiB:
		return fmt.Sprintf("%.2f GiB", float64(bytes)/float64(GiB))
	case bytes < PiB:
		return fmt.Sprintf("%.2f TiB", float64(bytes)/float64(TiB))
	case bytes < EiB:
		return fmt.Sprintf("%.2f PiB", float64(bytes)/float64(PiB))
	default:
		return fmt.Sprintf("%.2f EiB", float64(bytes)/float64(EiB))
	}
}

// IsAlphanumeric checks if a rune is an ASCII letter or digit.
func IsAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
