// Package spotify provides a client for the Spotify Web API and the
// Spotify Accounts service.
//
// # Overview
//
// The client fetches everything setlist generation needs:
//
//   - [Client.Playlist]: playlist name, owner and snapshot id
//   - [Client.PlaylistTracks]: all tracks, following the paging "next" links
//   - [Client.AudioFeatures]: tempo, key, mode and timbre features (batches of 100)
//   - [Client.Artists]: artist genres (batches of 50)
//   - [Client.CurrentUser]: the authenticated user
//
// Audio features and artists are cached per id; they rarely change.
//
// # Authentication
//
// [OAuth] implements the Authorization Code flow with the scopes in
// [Scope], token refresh, and the Client Credentials flow used for public
// playlists when no user is logged in. A [TokenSource] supplies bearer
// tokens to the client:
//
//	creds, err := spotify.LoadCredentials("")
//	oauth := spotify.NewOAuth(creds)
//	client := spotify.NewClient(backend, spotify.NewClientCredentialsSource(oauth))
//	tracks, err := client.PlaylistTracks(ctx, "37i9dQZF1DXcBWIGoYBM5M")
//
// # Playlist references
//
// [ParsePlaylistID] accepts share URLs, spotify: URIs and bare ids.
package spotify
