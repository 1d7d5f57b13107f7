package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/campusbook/appointment-booking/internal/booking"
	redisclient "github.com/campusbook/appointment-booking/internal/redis"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// handleServiceError is the single place service failures become HTTP
// statuses. Every handler funnels unexpected errors through here so nothing
// leaks as an uncaught fault.
func handleServiceError(w http.ResponseWriter, err error) {
	var transition *booking.InvalidTransitionError

	switch {
	case errors.As(err, &transition):
		writeError(w, http.StatusConflict, "invalid_transition", transition.Error())

	case errors.Is(err, booking.ErrProfileNotFound),
		errors.Is(err, booking.ErrWindowNotFound),
		errors.Is(err, booking.ErrAppointmentNotFound),
		errors.Is(err, booking.ErrNotificationNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, booking.ErrNotPermitted):
		writeError(w, http.StatusForbidden, "not_permitted", err.Error())

	case errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())

	case errors.Is(err, booking.ErrSlotNotOffered):
		writeError(w, http.StatusConflict, "slot_not_offered", err.Error())

	case errors.Is(err, booking.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")

	case errors.Is(err, booking.ErrEmailTaken):
		// deliberately vague, same as a validation failure would look
		writeError(w, http.StatusConflict, "registration_failed", "registration failed")

	case errors.Is(err, booking.ErrInvalidTimeFormat),
		errors.Is(err, booking.ErrInvalidDayOfWeek),
		errors.Is(err, booking.ErrInvalidWindow),
		errors.Is(err, booking.ErrInvalidGranularity),
		errors.Is(err, booking.ErrNotStaff):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())

	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected failure")
	}
}
