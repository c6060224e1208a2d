// Package records holds the batch input model: one Record per input row,
// phone-number normalization and the record-count limit.
package records

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Record is one row of desired membership changes. Either pair may be empty.
type Record struct {
	CommunityToAdd    string
	PhoneToAdd        string
	CommunityToRemove string
	PhoneToRemove     string
}

// Pair is a community name with the raw phone value that goes with it
type Pair struct {
	Community string
	Phone     string
}

// AddPair returns the add pair and whether both of its fields are populated
func (r Record) AddPair() (Pair, bool) {
	return pair(r.CommunityToAdd, r.PhoneToAdd)
}

// RemovePair returns the remove pair and whether both of its fields are populated
func (r Record) RemovePair() (Pair, bool) {
	return pair(r.CommunityToRemove, r.PhoneToRemove)
}

// Empty reports whether neither pair is populated
func (r Record) Empty() bool {
	_, add := r.AddPair()
	_, remove := r.RemovePair()
	return !add && !remove
}

func pair(community, phone string) (Pair, bool) {
	p := Pair{Community: strings.TrimSpace(community), Phone: strings.TrimSpace(phone)}
	if p.Community == "" || p.Phone == "" || isNaN(p.Phone) {
		return Pair{}, false
	}
	return p, true
}

// spreadsheets export missing numeric cells as nan in some tools
func isNaN(s string) bool {
	return strings.EqualFold(s, "nan")
}

// Phone is a digit-only national number without the country prefix
type Phone string

// ErrInvalidPhone is returned when a raw value holds no digits
var ErrInvalidPhone = errors.New("invalid phone number")

// PhoneRule normalizes raw phone values for one country
type PhoneRule struct {
	CountryCode string
	// NationalDigits is the length of a national number. Longer values that
	// start with CountryCode have the prefix removed.
	NationalDigits int
}

// DefaultPhoneRule is Colombia: +57 and ten-digit mobile numbers
var DefaultPhoneRule = PhoneRule{CountryCode: "57", NationalDigits: 10}

// Normalize turns a raw cell value into a Phone. Float artifacts such as
// "3001112222.0" or "5.73001112222E+11" are removed before non-digits are
// stripped, so the fractional zero never becomes a trailing digit.
func (r PhoneRule) Normalize(raw string) (Phone, error) {
	s := strings.TrimSpace(raw)
	s = stripFloatArtifact(s)

	digits := strings.Map(func(c rune) rune {
		if c >= '0' && c <= '9' {
			return c
		}
		return -1
	}, s)
	if digits == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}

	if r.CountryCode != "" && r.NationalDigits > 0 &&
		len(digits) > r.NationalDigits && strings.HasPrefix(digits, r.CountryCode) {
		digits = strings.TrimPrefix(digits, r.CountryCode)
	}
	return Phone(digits), nil
}

// Lookup is the string typed into search fields: "+" country code digits
func (r PhoneRule) Lookup(p Phone) string {
	return "+" + r.CountryCode + string(p)
}

func stripFloatArtifact(s string) string {
	if !strings.ContainsAny(s, ".eE") {
		return s
	}
	for _, c := range s {
		if !(unicode.IsDigit(c) || strings.ContainsRune(".eE+-", c)) {
			return s
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return s
	}
	return strconv.FormatFloat(f, 'f', 0, 64)
}

// SampleSize is the record count of the "sample" limit
const SampleSize = 3

// Limit caps how many records a batch processes. The zero value is unlimited.
type Limit struct {
	n int
}

// Unlimited processes every record
var Unlimited = Limit{}

// First processes the first n records. n <= 0 means unlimited.
func First(n int) Limit {
	if n < 0 {
		n = 0
	}
	return Limit{n: n}
}

// ParseLimit accepts "all", "sample" or a positive count
func ParseLimit(s string) (Limit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "todos":
		return Unlimited, nil
	case "sample", "prueba":
		return First(SampleSize), nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return Unlimited, fmt.Errorf("invalid limit %q: want all, sample or a positive number", s)
	}
	return First(n), nil
}

// IsUnlimited reports whether no cap applies
func (l Limit) IsUnlimited() bool {
	return l.n == 0
}

// Apply returns the head of recs allowed by the limit
func (l Limit) Apply(recs []Record) []Record {
	if l.n == 0 || l.n >= len(recs) {
		return recs
	}
	return recs[:l.n]
}

func (l Limit) String() string {
	if l.n == 0 {
		return "all"
	}
	return strconv.Itoa(l.n)
}
