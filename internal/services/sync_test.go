package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/minhvu/tcbsync/internal/models"
	"github.com/minhvu/tcbsync/internal/shared"
)

func newSyncClient(t *testing.T, handler http.HandlerFunc) (*SyncService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewSyncService(NewClient(server.URL, nil, testCreds)), server
}

func detailResponse(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func TestSyncService(t *testing.T) {
	ctx := context.Background()
	validRange, _ := models.ParseDateRange("2026-08-01", "2026-08-29")

	t.Run("Status", func(t *testing.T) {
		t.Run("Decodes Snapshot", func(t *testing.T) {
			svc, _ := newSyncClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/status" {
					t.Errorf("expected /api/status, got %s", r.URL.Path)
				}
				json.NewEncoder(w).Encode(map[string]any{
					"status":     "fetching_data",
					"last_error": "",
					"logs":       []string{"Logged in", "Fetching transactions"},
				})
			})

			snapshot, err := svc.Status(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if snapshot.State != models.StateFetching {
				t.Errorf("expected fetching_data, got %s", snapshot.State)
			}
			if len(snapshot.Logs) != 2 {
				t.Errorf("expected 2 log lines, got %d", len(snapshot.Logs))
			}
		})

		t.Run("Missing Logs Become Empty Slice", func(t *testing.T) {
			svc, _ := newSyncClient(t, func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"status": "idle"})
			})

			snapshot, err := svc.Status(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if snapshot.Logs == nil {
				t.Error("expected non-nil logs slice")
			}
		})

		t.Run("Unauthorized", func(t *testing.T) {
			svc, _ := newSyncClient(t, func(w http.ResponseWriter, r *http.Request) {
				detailResponse(w, http.StatusUnauthorized, "Could not validate credentials")
			})

			_, err := svc.Status(ctx)
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})
	})

	t.Run("Start", func(t *testing.T) {
		t.Run("Sends Date Range", func(t *testing.T) {
			svc, _ := newSyncClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/sync/start" {
					t.Errorf("expected /api/sync/start, got %s", r.URL.Path)
				}
				var body map[string]string
				json.NewDecoder(r.Body).Decode(&body)
				if body["date_from"] != "2026-08-01" || body["date_to"] != "2026-08-29" {
					t.Errorf("expected wire dates, got %v", body)
				}
				json.NewEncoder(w).Encode(map[string]string{"message": "Sync started"})
			})

			if err := svc.Start(ctx, validRange); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Rejects Inverted Range Locally", func(t *testing.T) {
			hit := false
			svc, _ := newSyncClient(t, func(w http.ResponseWriter, r *http.Request) {
				hit = true
			})

			inverted, _ := models.ParseDateRange("2026-08-29", "2026-08-01")
			err := svc.Start(ctx, inverted)
			if !errors.Is(err, shared.ErrInvalidDateRange) {
				t.Errorf("expected ErrInvalidDateRange, got %v", err)
			}
			if hit {
				t.Error("expected no request for an invalid range")
			}
		})

		t.Run("Conflict Means Already Running", func(t *testing.T) {
			svc, _ := newSyncClient(t, func(w http.ResponseWriter, r *http.Request) {
				detailResponse(w, http.StatusConflict, "Sync already in progress")
			})

			err := svc.Start(ctx, validRange)
			if !errors.Is(err, shared.ErrSyncInProgress) {
				t.Errorf("expected ErrSyncInProgress, got %v", err)
			}
		})

		t.Run("Configuration Missing Is Distinguished", func(t *testing.T) {
			svc, _ := newSyncClient(t, func(w http.ResponseWriter, r *http.Request) {
				detailResponse(w, http.StatusBadRequest, "Settings not configured. Please configure sync settings first.")
			})

			err := svc.Start(ctx, validRange)
			if !errors.Is(err, shared.ErrConfigMissing) {
				t.Errorf("expected ErrConfigMissing, got %v", err)
			}
		})

		t.Run("Other Bad Request Stays Generic", func(t *testing.T) {
			svc, _ := newSyncClient(t, func(w http.ResponseWriter, r *http.Request) {
				detailResponse(w, http.StatusBadRequest, "date_from must be before date_to")
			})

			err := svc.Start(ctx, validRange)
			if errors.Is(err, shared.ErrConfigMissing) {
				t.Error("expected generic failure, got ErrConfigMissing")
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})

	t.Run("Stop", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			svc, _ := newSyncClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/sync/stop" {
					t.Errorf("expected /api/sync/stop, got %s", r.URL.Path)
				}
				json.NewEncoder(w).Encode(map[string]string{"message": "Stop requested"})
			})

			if err := svc.Stop(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Failure", func(t *testing.T) {
			svc, _ := newSyncClient(t, func(w http.ResponseWriter, r *http.Request) {
				detailResponse(w, http.StatusBadRequest, "No sync in progress")
			})

			if err := svc.Stop(ctx); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})

	t.Run("StreamURL", func(t *testing.T) {
		svc, server := newSyncClient(t, func(w http.ResponseWriter, r *http.Request) {})
		if svc.StreamURL() != server.URL+"/api/stream" {
			t.Errorf("expected stream under base URL, got %s", svc.StreamURL())
		}
	})
}

func TestSettingsService(t *testing.T) {
	ctx := context.Background()

	t.Run("Fetch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/settings/" {
				t.Errorf("expected /api/settings/, got %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]string{
				"tcb_username":     "alice",
				"accounts_mapping": `{"arr-1":"act-1"}`,
			})
		}))
		defer server.Close()

		svc := NewSettingsService(NewClient(server.URL, nil, testCreds))
		settings, err := svc.Fetch(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if settings.TCBUsername != "alice" {
			t.Errorf("expected username alice, got %s", settings.TCBUsername)
		}
		if len(settings.Mappings()) != 1 {
			t.Errorf("expected legacy mapping migrated on read, got %v", settings.Mappings())
		}
	})

	t.Run("Save Posts Full Blob", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["tcb_username"] != "alice" {
				t.Errorf("expected full settings body, got %v", body)
			}
			if _, ok := body["accounts_mapping"]; !ok {
				t.Error("expected accounts_mapping present in save body")
			}
			json.NewEncoder(w).Encode(map[string]string{"message": "saved"})
		}))
		defer server.Close()

		svc := NewSettingsService(NewClient(server.URL, nil, testCreds))
		err := svc.Save(ctx, models.Settings{TCBUsername: "alice", AccountsMapping: "[]"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}
