// Package services contains the HTTP clients for the sync service API.
//
// [Client] is the shared transport. It comes in two flavors behind one type:
// plain requests for the token-exchange and registration endpoints, and
// authorized requests whose bearer credential is injected by an
// [golang.org/x/oauth2.Transport] reading from the [SessionManager]. Because
// the session manager is the token source, every component issuing requests
// through the client picks up a new token the moment sign-in completes, and
// loses it the moment sign-out runs; nothing re-reads the credential
// explicitly and no request can carry a token from a superseded session.
//
// [SessionManager] owns the token lifecycle (hydrate, sign in, register,
// sign out) and the current user identity. [SyncService] and
// [SettingsService] wrap the job-control and configuration endpoints.
package services
