package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "<kind>:<hash>" over the JSON encoding of parts.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":" + Hash(data)
}

// DefaultKeyer produces keys shared by every caller:
//
//	http:<namespace>:<key>
//	playlist:<sha256 of id and options>
//	setlist:<id>
type DefaultKeyer struct{}

func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

func (DefaultKeyer) PlaylistKey(playlistID string, opts PlaylistKeyOpts) string {
	return hashKey("playlist", playlistID, opts)
}

func (DefaultKeyer) SetlistKey(setlistID string) string { return "setlist:" + setlistID }

// ScopedKeyer prepends a fixed prefix to every key of another Keyer, so
// responses fetched with one user's token never leak to another:
//
//	alice := cache.NewScopedKeyer(nil, "user:spotify:alice:")
type ScopedKeyer struct {
	Keyer
	prefix string
}

// NewScopedKeyer scopes inner, or a [DefaultKeyer] when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = DefaultKeyer{}
	}
	return ScopedKeyer{Keyer: inner, prefix: prefix}
}

func (k ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.Keyer.HTTPKey(namespace, key)
}

func (k ScopedKeyer) PlaylistKey(playlistID string, opts PlaylistKeyOpts) string {
	return k.prefix + k.Keyer.PlaylistKey(playlistID, opts)
}

func (k ScopedKeyer) SetlistKey(setlistID string) string {
	return k.prefix + k.Keyer.SetlistKey(setlistID)
}
