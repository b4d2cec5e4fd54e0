// Package cache stores routed layouts and rendered artifacts.
//
// Backends implement [Cache]: a byte store with per-entry TTL. The file
// backend serves the CLI, Redis and MongoDB serve shared deployments of
// the HTTP API, and the memory and null backends serve tests and one-off
// runs. Keys are built by a [Keyer] so that every backend sees the same
// key layout.
package cache

import (
	"context"
	"time"
)

// Cache is a key/value byte store with optional expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. Expired
	// entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero keeps the entry forever.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default entry lifetimes.
const (
	// TTLLayout applies to routed layouts, which only depend on their input.
	TTLLayout = 7 * 24 * time.Hour

	// TTLArtifact applies to rendered files.
	TTLArtifact = 7 * 24 * time.Hour

	// TTLStored applies to layouts stored by the HTTP API under an ID.
	TTLStored = 24 * time.Hour
)

// LayoutKeyOpts are the routing options that change a layout.
type LayoutKeyOpts struct {
	Margin           float64 `json:"margin"`
	BaseChannelWidth float64 `json:"base_channel_width"`
	SlotSpacing      float64 `json:"slot_spacing"`
	Resize           bool    `json:"resize"`
}

// ArtifactKeyOpts are the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format       string  `json:"format"`
	Stroke       float64 `json:"stroke"`
	Padding      float64 `json:"padding"`
	ShowChannels bool    `json:"show_channels"`
}

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey identifies the layout routed for a scene.
	LayoutKey(sceneHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies one rendering of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string

	// StoredKey identifies a layout stored by ID.
	StoredKey(id string) string
}

// DefaultKeyer hashes the key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key layout.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey returns "layout:<sha256>".
func (DefaultKeyer) LayoutKey(sceneHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", sceneHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// StoredKey returns "stored:<id>".
func (DefaultKeyer) StoredKey(id string) string {
	return "stored:" + id
}

var _ Keyer = DefaultKeyer{}
