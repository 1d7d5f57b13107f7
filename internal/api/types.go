package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/campusbook/appointment-booking/internal/booking"
)

const dateFormat = "2006-01-02"

type RegisterRequest struct {
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	FullName   string  `json:"full_name"`
	Role       string  `json:"role"`
	Phone      *string `json:"phone,omitempty"`
	Department *string `json:"department,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token   string          `json:"token"`
	Profile ProfileResponse `json:"profile"`
}

type ProfileResponse struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Role       string    `json:"role"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Phone      *string   `json:"phone,omitempty"`
	Department *string   `json:"department,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type UpdateProfileRequest struct {
	FullName   string  `json:"full_name"`
	Phone      *string `json:"phone,omitempty"`
	Department *string `json:"department,omitempty"`
}

type WindowRequest struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type ToggleWindowRequest struct {
	IsAvailable bool `json:"is_available"`
}

type WindowResponse struct {
	ID          uuid.UUID `json:"id"`
	StaffID     uuid.UUID `json:"staff_id"`
	DayOfWeek   int       `json:"day_of_week"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	IsAvailable bool      `json:"is_available"`
}

type SlotResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type BookRequest struct {
	StaffID   string  `json:"staff_id"`
	Date      string  `json:"date"`
	StartTime string  `json:"start_time"`
	Subject   *string `json:"subject,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

type RescheduleRequest struct {
	StaffID   string `json:"staff_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

type StaffNotesRequest struct {
	StaffNotes string `json:"staff_notes"`
}

type AppointmentResponse struct {
	ID         uuid.UUID `json:"id"`
	StudentID  uuid.UUID `json:"student_id"`
	StaffID    uuid.UUID `json:"staff_id"`
	Date       string    `json:"appointment_date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	Status     string    `json:"status"`
	Subject    *string   `json:"subject,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
	StaffNotes *string   `json:"staff_notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type NotificationResponse struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Message       string     `json:"message"`
	Type          string     `json:"type"`
	IsRead        bool       `json:"is_read"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type ReportMonthResponse struct {
	Month  string `json:"month"`
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type ReportStudentResponse struct {
	StudentID uuid.UUID `json:"student_id"`
	FullName  string    `json:"full_name"`
	Count     int       `json:"count"`
}

type ReportResponse struct {
	Months   []ReportMonthResponse   `json:"months"`
	Students []ReportStudentResponse `json:"students"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toProfileResponse(p *booking.UserProfile) ProfileResponse {
	return ProfileResponse{
		ID:         p.ID,
		UserID:     p.UserID,
		Role:       string(p.Role),
		FullName:   p.FullName,
		Email:      p.Email,
		Phone:      p.Phone,
		Department: p.Department,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func toWindowResponse(w *booking.AvailabilityWindow) WindowResponse {
	return WindowResponse{
		ID:          w.ID,
		StaffID:     w.StaffID,
		DayOfWeek:   w.DayOfWeek,
		StartTime:   w.StartTime,
		EndTime:     w.EndTime,
		IsAvailable: w.IsAvailable,
	}
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:         a.ID,
		StudentID:  a.StudentID,
		StaffID:    a.StaffID,
		Date:       a.Date.Format(dateFormat),
		StartTime:  a.StartTime,
		EndTime:    a.EndTime,
		Status:     string(a.Status),
		Subject:    a.Subject,
		Notes:      a.Notes,
		StaffNotes: a.StaffNotes,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func toNotificationResponse(n *booking.Notification) NotificationResponse {
	return NotificationResponse{
		ID:            n.ID,
		Title:         n.Title,
		Message:       n.Message,
		Type:          string(n.Type),
		IsRead:        n.IsRead,
		AppointmentID: n.AppointmentID,
		CreatedAt:     n.CreatedAt,
	}
}
