// Package ui implements the interactive terminal dashboard using bubbletea's
// Elm architecture.
//
// The TUI mirrors the web dashboard of the sync service:
//  1. [LoadingView] : spinner while the persisted session is resolved
//  2. [LoginView] : sign in or register
//  3. [DashboardView] : job state badge, date range, activity log, start/stop
//  4. [SettingsView] : credentials and account mappings
//
// Session gating works like a route guard: no navigation decision is made
// while session resolution is in flight, and the protected views fall back to
// [LoginView] whenever no user is present. Status updates flow in from a
// poller subscription; the displayed state is always the most recently polled
// one and the dashboard never infers transitions on its own.
package ui
