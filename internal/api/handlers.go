package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campusbook/appointment-booking/internal/booking"
)

func principal(w http.ResponseWriter, r *http.Request) (Principal, bool) {
	p, ok := GetPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
	}
	return p, ok
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseDate(w http.ResponseWriter, raw string) (time.Time, bool) {
	d, err := time.Parse(dateFormat, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

func slotsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staffID, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		date, ok := parseDate(w, r.URL.Query().Get("date"))
		if !ok {
			return
		}

		slots, err := svc.SlotsForDate(r.Context(), staffID, date)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		out := make([]SlotResponse, len(slots))
		for i, s := range slots {
			out[i] = SlotResponse{StartTime: s.Start.String(), EndTime: s.End.String()}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func bookAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		var req BookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		staffID, err := uuid.Parse(req.StaffID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_staff_id", "staff_id must be a valid UUID")
			return
		}
		date, ok := parseDate(w, req.Date)
		if !ok {
			return
		}

		appt, err := svc.Book(r.Context(), p.Actor(), booking.BookParams{
			StaffID:   staffID,
			Date:      date,
			StartTime: req.StartTime,
			Subject:   req.Subject,
			Notes:     req.Notes,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		// default range: a month back through two months ahead
		now := time.Now()
		from := now.AddDate(0, -1, 0)
		to := now.AddDate(0, 2, 0)

		if raw := r.URL.Query().Get("from"); raw != "" {
			d, ok := parseDate(w, raw)
			if !ok {
				return
			}
			from = d
		}
		if raw := r.URL.Query().Get("to"); raw != "" {
			d, ok := parseDate(w, raw)
			if !ok {
				return
			}
			to = d
		}

		appts, err := svc.ListAppointments(r.Context(), p.Actor(), from, to)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		out := make([]AppointmentResponse, len(appts))
		for i := range appts {
			out[i] = toAppointmentResponse(&appts[i])
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		appt, err := svc.Appointment(r.Context(), p.Actor(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func transitionHandler(svc *booking.Service, to booking.AppointmentStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		appt, err := svc.Transition(r.Context(), p.Actor(), id, to)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func rescheduleAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		staffID, err := uuid.Parse(req.StaffID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_staff_id", "staff_id must be a valid UUID")
			return
		}
		date, ok := parseDate(w, req.Date)
		if !ok {
			return
		}

		appt, err := svc.Reschedule(r.Context(), p.Actor(), id, booking.RescheduleParams{
			StaffID:   staffID,
			Date:      date,
			StartTime: req.StartTime,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func staffNotesHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req StaffNotesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.AnnotateStaffNotes(r.Context(), p.Actor(), id, req.StaffNotes)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}
