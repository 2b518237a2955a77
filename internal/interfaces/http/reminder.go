package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"ontime/internal/domain/reminder"
	"ontime/internal/shared/middleware"
)

type ReminderHandler struct {
	service *reminder.Service
}

func NewReminderHandler(service *reminder.Service) *ReminderHandler {
	return &ReminderHandler{service: service}
}

// Request DTOs

type CreateReminderRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	DueAt       *time.Time `json:"dueAt,omitempty"`
}

// UpdateReminderRequest distinguishes absent fields from explicit nulls:
// a RawMessage is nil when the key is missing and "null" when the client
// wants the field cleared.
type UpdateReminderRequest struct {
	Title       *string         `json:"title"`
	Description json.RawMessage `json:"description"`
	DueAt       json.RawMessage `json:"dueAt"`
	IsCompleted *bool           `json:"isCompleted"`
}

// HandleReminders routes collection-level requests
func (h *ReminderHandler) HandleReminders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListReminders(w, r)
	case http.MethodPost:
		h.handleCreateReminder(w, r)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	}
}

// HandleReminderByID routes requests for a specific reminder
func (h *ReminderHandler) HandleReminderByID(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPatch:
		h.handleUpdateReminder(w, r)
	case http.MethodDelete:
		h.handleDeleteReminder(w, r)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	}
}

func (h *ReminderHandler) handleListReminders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reminders, err := h.service.ListReminders(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing reminders for user %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	if reminders == nil {
		reminders = []*reminder.Reminder{}
	}
	respondJSON(w, http.StatusOK, reminders)
}

func (h *ReminderHandler) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request_body")
		return
	}

	rem, err := h.service.CreateReminder(r.Context(), reminder.CreateParams{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		DueAt:       req.DueAt,
	})
	if err != nil {
		if errors.Is(err, reminder.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		log.Printf("Error creating reminder for user %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	respondJSON(w, http.StatusCreated, rem)
}

func (h *ReminderHandler) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reminderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_reminder_id")
		return
	}

	var req UpdateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request_body")
		return
	}

	params := reminder.UpdateParams{
		Title:       req.Title,
		IsCompleted: req.IsCompleted,
	}

	if req.Description != nil {
		if isJSONNull(req.Description) {
			params.ClearDescription = true
		} else {
			var desc string
			if err := json.Unmarshal(req.Description, &desc); err != nil {
				respondError(w, http.StatusBadRequest, "invalid_request_body")
				return
			}
			params.Description = &desc
		}
	}
	if req.DueAt != nil {
		if isJSONNull(req.DueAt) {
			params.ClearDueAt = true
		} else {
			var dueAt time.Time
			if err := json.Unmarshal(req.DueAt, &dueAt); err != nil {
				respondError(w, http.StatusBadRequest, "invalid_due_date")
				return
			}
			params.DueAt = &dueAt
		}
	}

	rem, err := h.service.UpdateReminder(r.Context(), userID, reminderID, params)
	if err != nil {
		switch {
		case errors.Is(err, reminder.ErrInvalidInput):
			respondError(w, http.StatusBadRequest, "invalid_request")
		case errors.Is(err, reminder.ErrReminderNotFound):
			respondError(w, http.StatusNotFound, "reminder_not_found")
		default:
			log.Printf("Error updating reminder %d for user %d: %v", reminderID, userID, err)
			respondError(w, http.StatusInternalServerError, "internal_error")
		}
		return
	}

	respondJSON(w, http.StatusOK, rem)
}

func (h *ReminderHandler) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reminderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_reminder_id")
		return
	}

	if err := h.service.DeleteReminder(r.Context(), userID, reminderID); err != nil {
		switch {
		case errors.Is(err, reminder.ErrInvalidInput):
			respondError(w, http.StatusBadRequest, "invalid_request")
		case errors.Is(err, reminder.ErrReminderNotFound):
			respondError(w, http.StatusNotFound, "reminder_not_found")
		default:
			log.Printf("Error deleting reminder %d for user %d: %v", reminderID, userID, err)
			respondError(w, http.StatusInternalServerError, "internal_error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func isJSONNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
