package cache

import (
	"net/url"
	"sort"
	"strings"
)

// GenerateKey creates a cache key with prefix and ID.
func GenerateKey(prefix string, id string) string {
	return prefix + ":" + id
}

// NormalizeRequestKey renders path plus query with keys sorted and values kept in
// request order, so equivalent URLs map to one entry. Keys are lower-cased; empty
// values are dropped.
func NormalizeRequestKey(path string, query url.Values) string {
	keys := make([]string, 0, len(query))
	merged := make(map[string][]string, len(query))
	for k, vs := range query {
		lk := strings.ToLower(strings.TrimSpace(k))
		for _, v := range vs {
			if v = strings.TrimSpace(v); v != "" {
				merged[lk] = append(merged[lk], v)
			}
		}
	}
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(path)
	for i, k := range keys {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		for j, v := range merged[k] {
			if j > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}
