package cache

import "fmt"

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey identifies the layout dump of a deck.
	LayoutKey(deckHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies one rendered output of a deck.
	ArtifactKey(deckHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds the options that change a layout.
type LayoutKeyOpts struct {
	Measurer string `json:"measurer,omitempty"` // "fonts" or "fixed"
	Version  string `json:"version,omitempty"`
}

// ArtifactKeyOpts holds the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format  string  `json:"format"`
	Page    int     `json:"page"` // -1 for whole-document formats
	Scale   float64 `json:"scale,omitempty"`
	Engine  string  `json:"engine,omitempty"` // PDF engine: rsvg, vector or raster
	Version string  `json:"version,omitempty"`
}

// DefaultKeyer produces "layout:<sha256>" and "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(deckHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", deckHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(deckHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", deckHash, opts)
}

// String describes the options for log output.
func (o ArtifactKeyOpts) String() string {
	if o.Page < 0 {
		return o.Format
	}
	return fmt.Sprintf("%s[%d]", o.Format, o.Page)
}
