package api

import (
	"encoding/json"
	"net/http"

	"github.com/campusbook/appointment-booking/internal/booking"
)

func listWindowsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		windows, err := svc.ListWindows(r.Context(), p.Actor())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		out := make([]WindowResponse, len(windows))
		for i := range windows {
			out[i] = toWindowResponse(&windows[i])
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func createWindowHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		var req WindowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		window, err := svc.AddWindow(r.Context(), p.Actor(), booking.WindowParams{
			DayOfWeek: req.DayOfWeek,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toWindowResponse(window))
	}
}

func toggleWindowHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req ToggleWindowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		window, err := svc.SetWindowAvailable(r.Context(), p.Actor(), id, req.IsAvailable)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toWindowResponse(window))
	}
}

func deleteWindowHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.RemoveWindow(r.Context(), p.Actor(), id); err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
