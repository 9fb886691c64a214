// Package remote reads the server's library export from object storage.
//
// The server writes one JSON document per concern under a common prefix:
//
//	<prefix>/users.json          every user
//	<prefix>/assets/<user>.json  every asset of a user
//	<prefix>/albums/index.json   album summaries
//	<prefix>/albums/<id>.json    album details with assets and shared users
//	<prefix>/changes.json        the asset change log
//
// Source implements sync.RemoteSource over that layout.
package remote
