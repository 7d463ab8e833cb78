// File: utils/constants.go
package utils

// Redis key prefixes.
const (
	SessionCachePrefix  = "selection:"
	SnapshotCachePrefix = "availability:"
)

// Context keys set by the identity middleware.
const (
	ContextIdentityKey = "identity"
)
