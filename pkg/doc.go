// Package pkg provides the libraries behind setlistgen, a DJ setlist
// generator for Spotify playlists.
//
// # Overview
//
// setlistgen loads a playlist with each track's audio features and artist
// genres, then chains tracks into a setlist that stays within a BPM window
// and prefers harmonically compatible key changes on the Camelot wheel.
//
// # Architecture
//
//	Spotify playlist
//	       ↓
//	[integrations/spotify] (tracks, audio features, artists)
//	       ↓
//	[pipeline] Load (skip tracks without features, cache per snapshot)
//	       ↓
//	[setlist] Generate (BPM window, [music] compatibility and similarity)
//	       ↓
//	txt / json / dot / svg / m3u
//
// # Quick Start
//
//	client := spotify.NewClient(backend, spotify.NewClientCredentialsSource(oauth))
//	runner := pipeline.NewRunner(client, backend, nil, logger)
//
//	pl, err := runner.Load(ctx, "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M", false)
//	if err != nil {
//	    return err
//	}
//	s, _, err := runner.Generate(ctx, pl, setlist.Options{Start: "strobe"})
//	if err != nil {
//	    return err
//	}
//	fmt.Print(setlist.ToText(s))
//
// # Main Packages
//
// [music] - Camelot keys, key compatibility scores and audio/genre
// similarity between tracks.
//
// [setlist] - The greedy setlist generator and its export formats.
//
// [pipeline] - Load and Generate stages shared by the CLI and the server.
//
// [integrations] - The shared HTTP client (cache, retry, rate limit,
// circuit breaker) and the [integrations/spotify] Web API and OAuth client.
//
// ## Infrastructure
//
// [cache] - File, Redis and null response caches with namespaced keys.
//
// [session] - Login sessions and OAuth state tokens in memory, Redis or
// files.
//
// [store] - Saved setlists in memory or MongoDB.
//
// [config] - TOML configuration with .env and environment overrides.
//
// [observability] - Hooks for load, generate, cache and HTTP events, with a
// Prometheus implementation in observability/prom.
//
// [errors] - Coded errors shared by the CLI and the HTTP API.
//
// [music]: https://pkg.go.dev/github.com/matzehuels/setlistgen/pkg/music
// [setlist]: https://pkg.go.dev/github.com/matzehuels/setlistgen/pkg/setlist
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/setlistgen/pkg/pipeline
// [integrations]: https://pkg.go.dev/github.com/matzehuels/setlistgen/pkg/integrations
// [integrations/spotify]: https://pkg.go.dev/github.com/matzehuels/setlistgen/pkg/integrations/spotify
// [cache]: https://pkg.go.dev/github.com/matzehuels/setlistgen/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/setlistgen/pkg/session
// [store]: https://pkg.go.dev/github.com/matzehuels/setlistgen/pkg/store
// [config]: https://pkg.go.dev/github.com/matzehuels/setlistgen/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/setlistgen/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/setlistgen/pkg/errors
package pkg
