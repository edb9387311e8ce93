// Package models defines the domain types the client shares with the sync
// service.
//
// Three groups of types live here:
//
//  1. Job state: [SyncState] and [StatusSnapshot], the authoritative job
//     status polled from the service, plus [ClassifyLogLine] for best-effort
//     presentation of activity log lines.
//  2. Start parameters: [DateRange], the scraping window sent with a start
//     request.
//  3. Configuration: [AccountMapping] and [Settings], including the legacy
//     flat-dictionary mapping migration and the import/export document.
//
// The package has no dependencies on the transport; services and the UI both
// build on it.
package models
