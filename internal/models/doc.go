// package models defines the data model for the playlist transfer engine.
//
// Value types ([Track], [Playlist], [SearchResult], [TransferPlan]) are
// immutable snapshots of catalog data. Record types ([MatchRecord],
// [RunRecord]) are the shapes persisted by internal/repositories.
package models
