package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ontime/internal/domain/canvas"
)

// MockConnectionRepo implements canvas.ConnectionRepository for testing
type MockConnectionRepo struct {
	GetByUserIDFunc func(ctx context.Context, userID int64) (*canvas.Connection, error)
	UpsertFunc      func(ctx context.Context, userID int64, feedURL string, lastSyncedAt *time.Time) (*canvas.Connection, bool, error)
	ListFunc        func(ctx context.Context) ([]*canvas.Connection, error)
}

func (m *MockConnectionRepo) GetByUserID(ctx context.Context, userID int64) (*canvas.Connection, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, canvas.ErrConnectionNotFound
}

func (m *MockConnectionRepo) Upsert(ctx context.Context, userID int64, feedURL string, lastSyncedAt *time.Time) (*canvas.Connection, bool, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, userID, feedURL, lastSyncedAt)
	}
	return nil, false, nil
}

func (m *MockConnectionRepo) List(ctx context.Context) ([]*canvas.Connection, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

// MockSyncer implements canvas.Syncer for testing
type MockSyncer struct {
	SyncFunc func(ctx context.Context, userID int64, feedURL string) (*canvas.SyncSummary, error)
}

func (m *MockSyncer) Sync(ctx context.Context, userID int64, feedURL string) (*canvas.SyncSummary, error) {
	if m.SyncFunc != nil {
		return m.SyncFunc(ctx, userID, feedURL)
	}
	return &canvas.SyncSummary{Source: canvas.Source}, nil
}

const testFeedURL = "https://canvas.example.edu/feeds/calendars/user_abc.ics"

func TestHandleConnect(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		inserted       bool
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "New Connection",
			body:           `{"icsUrl":"` + testFeedURL + `"}`,
			inserted:       true,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Replace Existing",
			body:           `{"icsUrl":"` + testFeedURL + `"}`,
			inserted:       false,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Missing URL",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "ics_url_required",
		},
		{
			name:           "Blank URL",
			body:           `{"icsUrl":"   "}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "ics_url_required",
		},
		{
			name:           "Invalid URL",
			body:           `{"icsUrl":"not a url"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid_ics_url",
		},
		{
			name:           "Wrong Scheme",
			body:           `{"icsUrl":"ftp://canvas.example.edu/feed.ics"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid_ics_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connRepo := &MockConnectionRepo{
				UpsertFunc: func(ctx context.Context, userID int64, feedURL string, lastSyncedAt *time.Time) (*canvas.Connection, bool, error) {
					if lastSyncedAt != nil {
						t.Error("connect must not stamp a sync time")
					}
					return &canvas.Connection{UserID: userID, FeedURL: feedURL}, tt.inserted, nil
				},
			}
			handler := NewCanvasHandler(connRepo, &MockSyncer{})

			rec := httptest.NewRecorder()
			handler.HandleConnect(rec, authedRequest(http.MethodPost, "/api/canvas/connect", tt.body))

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if tt.expectedError != "" {
				if got := decodeError(t, rec); got != tt.expectedError {
					t.Errorf("expected error %q, got %q", tt.expectedError, got)
				}
			}
		})
	}
}

func TestHandleSync_UsesStoredURL(t *testing.T) {
	syncedAt := time.Now().UTC()
	connRepo := &MockConnectionRepo{
		GetByUserIDFunc: func(ctx context.Context, userID int64) (*canvas.Connection, error) {
			return &canvas.Connection{UserID: userID, FeedURL: testFeedURL, LastSyncedAt: &syncedAt}, nil
		},
	}
	var syncedURL string
	syncer := &MockSyncer{
		SyncFunc: func(ctx context.Context, userID int64, feedURL string) (*canvas.SyncSummary, error) {
			syncedURL = feedURL
			return &canvas.SyncSummary{Source: canvas.Source, Created: 3, TotalEvents: 3, SyncedAt: syncedAt}, nil
		},
	}
	handler := NewCanvasHandler(connRepo, syncer)

	rec := httptest.NewRecorder()
	handler.HandleSync(rec, authedRequest(http.MethodPost, "/api/canvas/sync", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if syncedURL != testFeedURL {
		t.Errorf("expected sync with stored URL, got %q", syncedURL)
	}

	var resp SyncResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Sync == nil || resp.Sync.Created != 3 {
		t.Errorf("unexpected sync summary: %+v", resp.Sync)
	}
	if resp.Connection == nil || resp.Connection.FeedURL != testFeedURL {
		t.Errorf("unexpected connection: %+v", resp.Connection)
	}
}

func TestHandleSync_OverrideURL(t *testing.T) {
	override := "https://canvas.example.edu/feeds/calendars/other_feed.ics"
	connRepo := &MockConnectionRepo{
		GetByUserIDFunc: func(ctx context.Context, userID int64) (*canvas.Connection, error) {
			return &canvas.Connection{UserID: userID, FeedURL: override}, nil
		},
	}
	var syncedURL string
	syncer := &MockSyncer{
		SyncFunc: func(ctx context.Context, userID int64, feedURL string) (*canvas.SyncSummary, error) {
			syncedURL = feedURL
			return &canvas.SyncSummary{Source: canvas.Source}, nil
		},
	}
	handler := NewCanvasHandler(connRepo, syncer)

	body := `{"icsUrl":"` + override + `"}`
	rec := httptest.NewRecorder()
	handler.HandleSync(rec, authedRequest(http.MethodPost, "/api/canvas/sync", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if syncedURL != override {
		t.Errorf("expected sync with override URL, got %q", syncedURL)
	}
}

func TestHandleSync_NoConnection(t *testing.T) {
	handler := NewCanvasHandler(&MockConnectionRepo{}, &MockSyncer{
		SyncFunc: func(ctx context.Context, userID int64, feedURL string) (*canvas.SyncSummary, error) {
			t.Error("sync should not run without a connection")
			return nil, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.HandleSync(rec, authedRequest(http.MethodPost, "/api/canvas/sync", ""))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if got := decodeError(t, rec); got != "no_canvas_connection" {
		t.Errorf("expected error no_canvas_connection, got %q", got)
	}
}

func TestHandleSync_ErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		syncErr        error
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Invalid URL",
			syncErr:        canvas.ErrInvalidFeedURL,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid_ics_url",
		},
		{
			name:           "Fetch Failure",
			syncErr:        &canvas.FetchError{URL: testFeedURL, Err: errors.New("connection refused")},
			expectedStatus: http.StatusBadGateway,
			expectedError:  "failed_to_fetch_ics",
		},
		{
			name:           "Sync In Progress",
			syncErr:        canvas.ErrSyncInProgress,
			expectedStatus: http.StatusConflict,
			expectedError:  "sync_in_progress",
		},
		{
			name:           "Store Failure",
			syncErr:        errors.New("tx deadlock"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connRepo := &MockConnectionRepo{
				GetByUserIDFunc: func(ctx context.Context, userID int64) (*canvas.Connection, error) {
					return &canvas.Connection{UserID: userID, FeedURL: testFeedURL}, nil
				},
			}
			syncer := &MockSyncer{
				SyncFunc: func(ctx context.Context, userID int64, feedURL string) (*canvas.SyncSummary, error) {
					return nil, tt.syncErr
				},
			}
			handler := NewCanvasHandler(connRepo, syncer)

			rec := httptest.NewRecorder()
			handler.HandleSync(rec, authedRequest(http.MethodPost, "/api/canvas/sync", ""))

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if got := decodeError(t, rec); got != tt.expectedError {
				t.Errorf("expected error %q, got %q", tt.expectedError, got)
			}
		})
	}
}

func TestHandleGetConnection(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		connRepo := &MockConnectionRepo{
			GetByUserIDFunc: func(ctx context.Context, userID int64) (*canvas.Connection, error) {
				return &canvas.Connection{UserID: userID, FeedURL: testFeedURL}, nil
			},
		}
		handler := NewCanvasHandler(connRepo, &MockSyncer{})

		rec := httptest.NewRecorder()
		handler.HandleGetConnection(rec, authedRequest(http.MethodGet, "/api/canvas/connection", ""))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		var conn canvas.Connection
		if err := json.NewDecoder(rec.Body).Decode(&conn); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if conn.FeedURL != testFeedURL {
			t.Errorf("unexpected feed URL: %q", conn.FeedURL)
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		handler := NewCanvasHandler(&MockConnectionRepo{}, &MockSyncer{})

		rec := httptest.NewRecorder()
		handler.HandleGetConnection(rec, authedRequest(http.MethodGet, "/api/canvas/connection", ""))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})
}
