package booking

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusApproved  AppointmentStatus = "approved"
	StatusDeclined  AppointmentStatus = "declined"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// IsTerminal reports whether no further transition may leave the status.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case StatusDeclined, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type NotificationType string

const (
	NotificationAppointment NotificationType = "appointment"
	NotificationReminder    NotificationType = "reminder"
	NotificationSystem      NotificationType = "system"
)

// Credential is the authentication identity a profile hangs off.
type Credential struct {
	UserID       uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type UserProfile struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Role       Role
	FullName   string
	Email      string
	Phone      *string
	Department *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AvailabilityWindow is one recurring weekly window for a staff member.
// Times are wall-clock HH:MM strings; DayOfWeek is 0 (Sunday) through 6.
type AvailabilityWindow struct {
	ID          uuid.UUID
	StaffID     uuid.UUID
	DayOfWeek   int
	StartTime   string
	EndTime     string
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Appointment struct {
	ID         uuid.UUID
	StudentID  uuid.UUID
	StaffID    uuid.UUID
	Date       time.Time // calendar date, time part zero
	StartTime  string
	EndTime    string
	Status     AppointmentStatus
	Subject    *string
	Notes      *string
	StaffNotes *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// StartsAt combines the appointment date with its start time.
func (a *Appointment) StartsAt() (time.Time, error) {
	t, err := ParseTimeOfDay(a.StartTime)
	if err != nil {
		return time.Time{}, err
	}
	return t.On(a.Date), nil
}

// EndsAt combines the appointment date with its end time.
func (a *Appointment) EndsAt() (time.Time, error) {
	t, err := ParseTimeOfDay(a.EndTime)
	if err != nil {
		return time.Time{}, err
	}
	return t.On(a.Date), nil
}

type Notification struct {
	ID            uuid.UUID
	UserID        uuid.UUID // recipient profile id
	Title         string
	Message       string
	Type          NotificationType
	IsRead        bool
	AppointmentID *uuid.UUID
	CreatedAt     time.Time
}

// ReportRow is one month/status bucket of a staff member's appointments.
type ReportRow struct {
	Month  string // YYYY-MM
	Status AppointmentStatus
	Count  int
}

// StudentReportRow counts a staff member's appointments per student.
type StudentReportRow struct {
	StudentID uuid.UUID
	FullName  string
	Count     int
}
