package cachex

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const keyPrefix = "arena:proc:"

// Key derives the deterministic cache key for a procedure call: procedure
// path, canonically serialized input, then the declared extra components
// (identity fields established by earlier middlewares). Equal (path, input,
// extra) always produce the same key.
func Key(path string, input any, extra ...string) (string, error) {
	encoded, err := Encode(input)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(encoded)

	var b strings.Builder
	b.WriteString(keyPrefix)
	b.WriteString(path)
	b.WriteByte(':')
	b.WriteString(hex.EncodeToString(sum[:16]))
	for _, e := range extra {
		b.WriteByte(':')
		b.WriteString(e)
	}

	return b.String(), nil
}

// TagKey is the redis set name holding the member keys of a tag.
func TagKey(tag string) string {
	return "arena:tag:" + tag
}
