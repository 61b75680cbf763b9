package core

import (
	"encoding/binary"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-crypt/x/blake2b"
)

// DedupKey is the deterministic identity of a real-world opportunity.
// Two records with equal keys are the same opportunity regardless of which
// portal reported them.
type DedupKey uint64

// hash64 generates a deterministic 64-bit hash from text using BLAKE2b.
// Identical content always produces the identical hash.
func hash64(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

func keyFrom(parts ...string) DedupKey {
	return DedupKey(hash64(strings.Join(parts, "|")))
}

// DedupKey derives the record identity. It is a pure function of the
// record's core fields, evaluated in three tiers:
//
//  1. (AgencyTaxID, NoticeNumber, Year) when notice number and year are
//     both present, the official notice identity.
//  2. (AgencyTaxID, hash of the normalized object text, integer-truncated
//     estimated value) when only the agency is known.
//  3. (Source, SourceID) as the last resort, which never collides across
//     portals.
func (r *Record) DedupKey() DedupKey {
	if r.AgencyTaxID != "" && r.NoticeNumber != "" && r.Year != 0 {
		return keyFrom("n", r.AgencyTaxID, r.NoticeNumber, strconv.Itoa(r.Year))
	}
	if r.AgencyTaxID != "" {
		objectHash := strconv.FormatUint(hash64(normalizeObjectText(r.Object)), 16)
		value := strconv.FormatInt(int64(r.EstimatedValue), 10)
		return keyFrom("o", r.AgencyTaxID, objectHash, value)
	}
	return keyFrom("s", string(r.Source), r.SourceID)
}

// normalizeObjectText lowercases and collapses whitespace so that trivial
// formatting differences between portals do not split the identity.
func normalizeObjectText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// NormalizeTaxID strips everything but digits from a CNPJ/CPF string.
func NormalizeTaxID(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeStateCode trims and upper-cases a two-letter state code.
// Returns the empty string for anything that is not two letters.
func NormalizeStateCode(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 2 {
		return ""
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return ""
		}
	}
	return s
}
