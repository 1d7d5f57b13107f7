package api

import (
	"net/http"

	"github.com/campusbook/appointment-booking/internal/booking"
)

func reportHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		summary, err := svc.Report(r.Context(), p.Actor())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := ReportResponse{
			Months:   make([]ReportMonthResponse, len(summary.Months)),
			Students: make([]ReportStudentResponse, len(summary.Students)),
		}
		for i, m := range summary.Months {
			resp.Months[i] = ReportMonthResponse{Month: m.Month, Status: string(m.Status), Count: m.Count}
		}
		for i, s := range summary.Students {
			resp.Students[i] = ReportStudentResponse{StudentID: s.StudentID, FullName: s.FullName, Count: s.Count}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
