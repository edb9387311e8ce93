package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/minhvu/tcbsync/internal/shared"
)

var errInvertedRange = fmt.Errorf("%w: from date is after to date", shared.ErrInvalidDateRange)

// SyncState is the job lifecycle state reported by the service.
//
// The service owns the state machine; the client never infers transitions and
// fully replaces its copy with every polled value.
type SyncState string

const (
	StateIdle       SyncState = "idle"
	StateStarting   SyncState = "starting"
	StateLoggingIn  SyncState = "logging_in"
	StateWaitingOTP SyncState = "waiting_otp"
	StateFetching   SyncState = "fetching_data"
	StateSaving     SyncState = "saving_data"
	StateSuccess    SyncState = "success"
	StateError      SyncState = "error"
)

// Startable reports whether a new job may be started from this state.
// Only idle, error, and success qualify; anything else, including states this
// client version does not recognize, counts as in progress.
func (s SyncState) Startable() bool {
	return s == StateIdle || s == StateError || s == StateSuccess
}

// Running reports whether the state belongs to the running family.
// An empty state (no snapshot observed yet) is not running.
func (s SyncState) Running() bool {
	return s != "" && !s.Startable()
}

// WaitingOTP reports whether the job is blocked on step-up authentication
// that the user must complete through the live view.
func (s SyncState) WaitingOTP() bool {
	return s == StateWaitingOTP
}

// Label returns the state with underscores replaced for display.
func (s SyncState) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// StatusSnapshot is one poll result: the current state, the complete activity
// log, and the last error message (meaningful only in the error state).
type StatusSnapshot struct {
	State     SyncState `json:"status"`
	LastError string    `json:"last_error"`
	Logs      []string  `json:"logs"`
}

// User is the authenticated account identity.
type User struct {
	Username string `json:"username"`
}

// Token is the bearer credential returned by the token-exchange and
// registration endpoints.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// DateRange is the scraping window sent with a start request.
type DateRange struct {
	From time.Time
	To   time.Time
}

// dateLayout is the wire format for date range bounds.
const dateLayout = "2006-01-02"

// DefaultDateRange returns the last 30 days ending today.
func DefaultDateRange() DateRange {
	now := time.Now()
	return DateRange{From: now.AddDate(0, 0, -30), To: now}
}

// ParseDateRange builds a DateRange from two YYYY-MM-DD strings. An empty
// string keeps the default bound.
func ParseDateRange(from, to string) (DateRange, error) {
	dr := DefaultDateRange()
	if from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return DateRange{}, err
		}
		dr.From = t
	}
	if to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return DateRange{}, err
		}
		dr.To = t
	}
	return dr, nil
}

// Validate rejects windows where the lower bound is after the upper bound.
// The service validates again; this only saves a round trip.
func (d DateRange) Validate() error {
	if d.From.After(d.To) {
		return errInvertedRange
	}
	return nil
}

// FromString returns the lower bound in wire format.
func (d DateRange) FromString() string { return d.From.Format(dateLayout) }

// ToString returns the upper bound in wire format.
func (d DateRange) ToString() string { return d.To.Format(dateLayout) }

// LogClass is the presentation class of an activity log line. It is a
// best-effort annotation and carries no state machine meaning.
type LogClass int

const (
	LogInfo LogClass = iota
	LogError
	LogSuccess
	LogWarning
)

// ClassifyLogLine maps a log line to a display class by keyword matching on
// the lowercased text. Later matches win so that a line tagged both as failed
// and as a warning renders as a warning, mirroring the service dashboard.
func ClassifyLogLine(line string) LogClass {
	lower := strings.ToLower(line)
	class := LogInfo
	if strings.Contains(lower, "[error]") || strings.Contains(lower, "failed") {
		class = LogError
	}
	if strings.Contains(lower, "[success]") || strings.Contains(lower, "done") {
		class = LogSuccess
	}
	if strings.Contains(lower, "[warning]") || strings.Contains(lower, "timeout") {
		class = LogWarning
	}
	return class
}
