package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"ontime/internal/domain/canvas"
	"ontime/internal/shared/middleware"
)

type CanvasHandler struct {
	connRepo canvas.ConnectionRepository
	syncer   canvas.Syncer
}

func NewCanvasHandler(connRepo canvas.ConnectionRepository, syncer canvas.Syncer) *CanvasHandler {
	return &CanvasHandler{connRepo: connRepo, syncer: syncer}
}

// Request/Response DTOs

type ConnectRequest struct {
	ICSURL string `json:"icsUrl"`
}

type SyncRequest struct {
	ICSURL string `json:"icsUrl,omitempty"`
}

type SyncResponse struct {
	Connection *canvas.Connection  `json:"connection"`
	Sync       *canvas.SyncSummary `json:"sync"`
}

// HandleConnect stores or replaces the caller's Canvas feed URL.
// Responds 201 when the connection is created, 200 when an existing one is
// updated.
func (h *CanvasHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request_body")
		return
	}

	req.ICSURL = strings.TrimSpace(req.ICSURL)
	if req.ICSURL == "" {
		respondError(w, http.StatusBadRequest, "ics_url_required")
		return
	}
	if err := canvas.ValidateFeedURL(req.ICSURL); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_ics_url")
		return
	}

	conn, inserted, err := h.connRepo.Upsert(r.Context(), userID, req.ICSURL, nil)
	if err != nil {
		log.Printf("Error upserting canvas connection for user %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	status := http.StatusOK
	if inserted {
		status = http.StatusCreated
	}
	respondJSON(w, status, conn)
}

// HandleGetConnection returns the caller's Canvas connection, if any
func (h *CanvasHandler) HandleGetConnection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	conn, err := h.connRepo.GetByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, canvas.ErrConnectionNotFound) {
			respondError(w, http.StatusNotFound, "no_canvas_connection")
			return
		}
		log.Printf("Error fetching canvas connection for user %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, conn)
}

// HandleSync runs a reconciliation pass for the caller. The request body may
// carry an icsUrl to use instead of the stored one; a successful run persists
// it on the connection.
func (h *CanvasHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	// Body is optional; an empty read means "use the stored URL".
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request_body")
		return
	}

	feedURL := strings.TrimSpace(req.ICSURL)
	if feedURL == "" {
		conn, err := h.connRepo.GetByUserID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, canvas.ErrConnectionNotFound) {
				respondError(w, http.StatusNotFound, "no_canvas_connection")
				return
			}
			log.Printf("Error fetching canvas connection for user %d: %v", userID, err)
			respondError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		if conn.FeedURL == "" {
			respondError(w, http.StatusNotFound, "no_canvas_connection")
			return
		}
		feedURL = conn.FeedURL
	}

	summary, err := h.syncer.Sync(r.Context(), userID, feedURL)
	if err != nil {
		var fetchErr *canvas.FetchError
		switch {
		case errors.Is(err, canvas.ErrInvalidFeedURL):
			respondError(w, http.StatusBadRequest, "invalid_ics_url")
		case errors.Is(err, canvas.ErrSyncInProgress):
			respondError(w, http.StatusConflict, "sync_in_progress")
		case errors.As(err, &fetchErr):
			log.Printf("Canvas fetch failed for user %d: %v", userID, err)
			respondError(w, http.StatusBadGateway, "failed_to_fetch_ics")
		default:
			log.Printf("Canvas sync failed for user %d: %v", userID, err)
			respondError(w, http.StatusInternalServerError, "internal_error")
		}
		return
	}

	conn, err := h.connRepo.GetByUserID(r.Context(), userID)
	if err != nil {
		log.Printf("Error re-reading canvas connection for user %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	respondJSON(w, http.StatusOK, SyncResponse{Connection: conn, Sync: summary})
}
