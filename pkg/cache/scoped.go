package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// The render service uses it to keep each API client's artifacts apart
// when several instances share one Redis.
//
// Example usage:
//
//	clientKeyer := NewScopedKeyer(NewDefaultKeyer(), "client:abc123:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(deckHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(deckHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(deckHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(deckHash, opts)
}
