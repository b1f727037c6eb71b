package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Key builds a canonical cache key: prefix:part1:part2:...
// Equal inputs always produce equal keys, so every cached query form is
// cache-key canonical.
func Key(prefix string, parts ...interface{}) string {
	key := prefix
	for _, part := range parts {
		key = fmt.Sprintf("%s:%v", key, part)
	}
	return key
}

// KeyWithFilters appends an order-independent md5 digest of the filter set,
// keeping keys short when filters carry many optional parameters.
func KeyWithFilters(prefix string, filters map[string]interface{}, parts ...interface{}) string {
	key := Key(prefix, parts...)
	if len(filters) == 0 {
		return key
	}
	return fmt.Sprintf("%s:%s", key, hashFilters(filters))
}

func hashFilters(filters map[string]interface{}) string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%v;", k, filters[k])
	}

	sum := md5.Sum([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
