package redis

import "fmt"

const (
	// KeyPrefixCatalog is the prefix for cached catalog pages
	KeyPrefixCatalog = "shelf:catalog:"
	// KeyUsage is the hash of component id -> insert count
	KeyUsage = "shelf:usage"
)

// CatalogKey returns the Redis key for a cached page by filter key
func CatalogKey(filterKey string) string {
	return KeyPrefixCatalog + filterKey
}

// UsageKey returns the key of the usage hash
func UsageKey() string {
	return KeyUsage
}

// ExtractFilterKey extracts the filter key from a catalog page key
func ExtractFilterKey(key string) (string, error) {
	if len(key) <= len(KeyPrefixCatalog) || key[:len(KeyPrefixCatalog)] != KeyPrefixCatalog {
		return "", fmt.Errorf("invalid catalog key: %s", key)
	}
	return key[len(KeyPrefixCatalog):], nil
}
