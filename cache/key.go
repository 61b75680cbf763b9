package cache

import (
	"encoding/binary"
	"sort"
	"strconv"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// KeyFor derives the stable cache key for a set of normalized query
// parameters. Parameters that are sets (states, keywords) must be passed
// through SortedSet first so ordering differences do not split the key.
func KeyFor(parts ...string) string {
	h, _ := blake2b.New(8, nil)
	h.Write([]byte(strings.Join(parts, "|")))
	sum := h.Sum(nil)
	return strconv.FormatUint(binary.LittleEndian.Uint64(sum), 16)
}

// SortedSet returns a canonical single-string form of a parameter set.
func SortedSet(values []string) string {
	if len(values) == 0 {
		return ""
	}
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
