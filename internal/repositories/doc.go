// Package repositories implements local state persistence on SQLite.
//
// Two stores live here: [CredentialRepository], which keeps the session token
// under a fixed name so it survives process restarts until sign-out, and
// [RunRepository], which records sync runs started from this client together
// with the terminal state later observed by the poller.
package repositories
