// Configuration endpoints: fetch and save the sync settings
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/minhvu/tcbsync/internal/models"
	"github.com/minhvu/tcbsync/internal/shared"
)

// SettingsService wraps the settings endpoints. Settings are fetched once per
// edit session and written back as a single blob; there is no field-level
// persistence.
type SettingsService struct {
	api *Client
}

// NewSettingsService creates a SettingsService on the authorized transport.
func NewSettingsService(api *Client) *SettingsService {
	return &SettingsService{api: api}
}

// Fetch retrieves the current settings. A service that has never been
// configured returns empty fields, not an error.
func (s *SettingsService) Fetch(ctx context.Context) (*models.Settings, error) {
	resp, err := s.api.Get(ctx, "/api/settings/")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: %s", shared.ErrAuthFailed, resp.Detail())
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var settings models.Settings
	if err := json.Unmarshal(resp.Body, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &settings, nil
}

// Save writes the full settings structure in one request.
func (s *SettingsService) Save(ctx context.Context, settings models.Settings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	resp, err := s.api.Post(ctx, "/api/settings/", payload)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, resp.Detail())
	}
	if !resp.OK() {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, resp.Detail())
	}
	return nil
}
