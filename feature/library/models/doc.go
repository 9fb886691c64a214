// Package models defines the persisted entities of the local library snapshot.
//
// # Identity
//
// An Asset is identified across sources by (OwnerID, Checksum). ID is the local
// primary key; LocalID is set iff the device knows the asset and RemoteID is set
// iff the server knows it. A row carrying both is "unified".
//
// Albums are identified by LocalID (device albums) or RemoteID (server albums).
// Album membership and album sharing are independent join tables (AlbumAsset,
// AlbumSharedUser) that are only ever linked or unlinked, never replaced.
//
// # Watermarks
//
// ETag rows store per user or per device album high-water marks: the time of
// the last successful asset sync, or the last known device album asset count.
package models
