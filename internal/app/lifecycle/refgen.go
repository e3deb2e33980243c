// internal/app/lifecycle/refgen.go
package lifecycle

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	referencePrefix   = "REG-"
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceLength   = 6

	// maxReferenceAttempts bounds the regenerate-while-taken loop.
	maxReferenceAttempts = 32

	membershipPrefix = "MTA-"
)

// rejection sampling bound: the largest multiple of 36 that fits in a byte.
const referenceByteLimit = 256 - 256%len(referenceAlphabet)

// NewReference draws a REG-XXXXXX reference from rnd. Each symbol is uniform
// over A-Z0-9.
func NewReference(rnd io.Reader) (string, error) {
	out := make([]byte, 0, len(referencePrefix)+referenceLength)
	out = append(out, referencePrefix...)

	buf := make([]byte, referenceLength*2)
	for len(out) < cap(out) {
		if _, err := io.ReadFull(rnd, buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if int(b) >= referenceByteLimit {
				continue
			}
			out = append(out, referenceAlphabet[int(b)%len(referenceAlphabet)])
			if len(out) == cap(out) {
				break
			}
		}
	}
	return string(out), nil
}

// ValidReference reports whether s has the REG-XXXXXX shape.
func ValidReference(s string) bool {
	if len(s) != len(referencePrefix)+referenceLength || !strings.HasPrefix(s, referencePrefix) {
		return false
	}
	for _, c := range s[len(referencePrefix):] {
		if !strings.ContainsRune(referenceAlphabet, c) {
			return false
		}
	}
	return true
}

// MembershipNumberPrefix returns "MTA-<year>-".
func MembershipNumberPrefix(year int) string {
	return fmt.Sprintf("%s%d-", membershipPrefix, year)
}

// FormatMembershipNumber renders MTA-<year>-<NNNN>. The sequence part is
// zero-padded to at least four digits.
func FormatMembershipNumber(year int, seq int64) string {
	return fmt.Sprintf("%s%04d", MembershipNumberPrefix(year), seq)
}

// ParseMembershipNumber splits a membership number into year and sequence.
func ParseMembershipNumber(s string) (year int, seq int64, ok bool) {
	rest, found := strings.CutPrefix(s, membershipPrefix)
	if !found {
		return 0, 0, false
	}
	y, n, found := strings.Cut(rest, "-")
	if !found || len(y) != 4 || len(n) < 4 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(y)
	if err != nil {
		return 0, 0, false
	}
	seq, err = strconv.ParseInt(n, 10, 64)
	if err != nil || seq < 1 {
		return 0, 0, false
	}
	return year, seq, true
}

func sequenceKey(year int) string {
	return "membership-" + strconv.Itoa(year)
}
