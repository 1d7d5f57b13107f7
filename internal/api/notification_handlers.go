package api

import (
	"net/http"

	"github.com/campusbook/appointment-booking/internal/booking"
)

func listNotificationsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		unreadOnly := r.URL.Query().Get("unread") == "true"
		notifications, err := svc.Notifications(r.Context(), p.Actor(), unreadOnly)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		out := make([]NotificationResponse, len(notifications))
		for i := range notifications {
			out[i] = toNotificationResponse(&notifications[i])
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func markNotificationReadHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.MarkNotificationRead(r.Context(), p.Actor(), id); err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func markAllNotificationsReadHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		if err := svc.MarkAllNotificationsRead(r.Context(), p.Actor()); err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteNotificationHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.DeleteNotification(r.Context(), p.Actor(), id); err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
