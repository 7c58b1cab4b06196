// Package keys builds the Redis/LRU keys under which coverings are cached.
package keys

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/mohammed-shakir/geohash-polyfill/internal/geometry"
)

const coverPrefix = "cover"

// Digest hashes the canonical little-endian WKB encoding of s. Inputs that
// normalize to the same shape (GeoJSON vs WKT, open vs closed rings) share a
// digest.
func Digest(s geometry.Shape) (uint64, error) {
	raw, err := wkb.Marshal(s.Orb(), binary.LittleEndian)
	if err != nil {
		return 0, fmt.Errorf("digest: marshal wkb: %w", err)
	}
	return xxhash.Sum64(raw), nil
}

// CoverKey returns "[ns:]cover:<mode>:<precision>:<digest>" with the digest
// as 16 lower-case hex digits.
func CoverKey(ns, mode string, precision int, digest uint64) string {
	k := fmt.Sprintf("%s:%s:%d:%016x", coverPrefix, mode, precision, digest)
	if ns = sanitize(strings.TrimSpace(ns)); ns != "" {
		return ns + ":" + k
	}
	return k
}

// ParseCoverKey is the inverse of CoverKey for keys without a namespace.
func ParseCoverKey(k string) (mode string, precision int, digest uint64, err error) {
	parts := strings.Split(k, ":")
	if len(parts) != 4 || parts[0] != coverPrefix {
		return "", 0, 0, fmt.Errorf("not a cover key: %q", k)
	}
	if parts[1] != "inner" && parts[1] != "outer" {
		return "", 0, 0, fmt.Errorf("cover key %q: unknown mode %q", k, parts[1])
	}
	precision, err = strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("cover key %q: precision: %w", k, err)
	}
	if len(parts[3]) != 16 {
		return "", 0, 0, fmt.Errorf("cover key %q: digest must be 16 hex digits", k)
	}
	digest, err = strconv.ParseUint(parts[3], 16, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("cover key %q: digest: %w", k, err)
	}
	return parts[1], precision, digest, nil
}

// sanitize keeps [A-Za-z0-9:_-], turns whitespace into '_' and anything else
// into '-', collapsing runs of either.
func sanitize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case unicode.IsSpace(r):
			out = '_'
		case isAlphaNum(r) || r == ':' || r == '_' || r == '-':
			out = r
		default:
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
