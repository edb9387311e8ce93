// Job-control endpoints: status, start, stop, live view
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/minhvu/tcbsync/internal/models"
	"github.com/minhvu/tcbsync/internal/shared"
)

// configMissingMarker is the substring the service puts in the 400 detail
// when a start is requested before settings exist.
const configMissingMarker = "Settings not configured"

// SyncService wraps the job-control endpoints of the sync service.
type SyncService struct {
	api *Client
}

// NewSyncService creates a SyncService issuing requests through the given
// authorized transport.
func NewSyncService(api *Client) *SyncService {
	return &SyncService{api: api}
}

// Status fetches the authoritative job state. The returned snapshot fully
// replaces whatever the caller held before; the client never merges or diffs
// poll results.
func (s *SyncService) Status(ctx context.Context) (*models.StatusSnapshot, error) {
	resp, err := s.api.Get(ctx, "/api/status")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: %s", shared.ErrAuthFailed, resp.Detail())
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var snapshot models.StatusSnapshot
	if err := json.Unmarshal(resp.Body, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode status: %w", err)
	}
	if snapshot.Logs == nil {
		snapshot.Logs = []string{}
	}
	return &snapshot, nil
}

// Start asks the service to begin a sync job over the given date range.
//
// Three failures are told apart: a 400 carrying the configuration-missing
// marker (the caller should route the user to settings, not show a generic
// alert), a 409 when a job is already in progress, and everything else as a
// generic request failure. The local state is never mutated here; the next
// poll reflects whatever the service decided.
func (s *SyncService) Start(ctx context.Context, dateRange models.DateRange) error {
	if err := dateRange.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{
		"date_from": dateRange.FromString(),
		"date_to":   dateRange.ToString(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode start request: %w", err)
	}

	resp, err := s.api.Post(ctx, "/api/sync/start", payload)
	if err != nil {
		return err
	}
	if resp.OK() {
		return nil
	}

	detail := resp.Detail()
	switch {
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", shared.ErrSyncInProgress, detail)
	case resp.StatusCode == http.StatusBadRequest && strings.Contains(detail, configMissingMarker):
		return fmt.Errorf("%w: %s", shared.ErrConfigMissing, detail)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, detail)
	default:
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, detail)
	}
}

// Stop requests cancellation of the running job. The job does not stop
// synchronously; callers wait for a later poll to confirm.
func (s *SyncService) Stop(ctx context.Context) error {
	resp, err := s.api.Post(ctx, "/api/sync/stop", nil)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, resp.Detail())
	}
	return nil
}

// StreamURL returns the address of the live browser-session view. The stream
// is an opaque media resource; the client only hands the URL to a browser.
func (s *SyncService) StreamURL() string {
	return s.api.BaseURL() + "/api/stream"
}
