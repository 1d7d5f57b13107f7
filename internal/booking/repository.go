package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrCredentialNotFound   = errors.New("credential not found")
	ErrWindowNotFound       = errors.New("availability window not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrEmailTaken           = errors.New("email already registered")
	ErrSlotTaken            = errors.New("slot already has a pending or approved appointment")
)

// Repository contains all store interactions needed by the service.
type Repository interface {
	// Accounts and profiles
	CreateAccount(ctx context.Context, cred *Credential, profile *UserProfile) (*UserProfile, error)
	GetCredentialByEmail(ctx context.Context, email string) (*Credential, error)
	GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*UserProfile, error)
	GetProfileByID(ctx context.Context, id uuid.UUID) (*UserProfile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName string, phone, department *string) (*UserProfile, error)
	ListStaffProfiles(ctx context.Context) ([]UserProfile, error)

	// Availability windows
	CreateWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error)
	ListWindows(ctx context.Context, staffID uuid.UUID) ([]AvailabilityWindow, error)
	ListOpenWindowsForDay(ctx context.Context, staffID uuid.UUID, dayOfWeek int) ([]AvailabilityWindow, error)
	SetWindowAvailable(ctx context.Context, id, staffID uuid.UUID, available bool) (*AvailabilityWindow, error)
	DeleteWindow(ctx context.Context, id, staffID uuid.UUID) error

	// Appointments. CreateAppointment and RescheduleAppointment are
	// conditional writes: they must fail with ErrSlotTaken when the target
	// range overlaps another pending or approved appointment for the same
	// staff member and date, atomically with the write itself.
	CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointmentsForStudent(ctx context.Context, studentID uuid.UUID, from, to time.Time) ([]Appointment, error)
	ListAppointmentsForStaff(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]Appointment, error)
	ListBlockingAppointments(ctx context.Context, staffID uuid.UUID, date time.Time) ([]Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)
	RescheduleAppointment(ctx context.Context, id, studentID uuid.UUID, staffID uuid.UUID, date time.Time, start, end string) (*Appointment, error)
	SetStaffNotes(ctx context.Context, id, staffID uuid.UUID, notes string) (*Appointment, error)

	// Notifications
	CreateNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error
	DeleteNotification(ctx context.Context, id, userID uuid.UUID) error

	// Reminder worker
	FindApprovedNeedingReminder(ctx context.Context, from, to time.Time) ([]Appointment, error)

	// Reporting
	MonthlyReport(ctx context.Context, staffID uuid.UUID) ([]ReportRow, error)
	StudentReport(ctx context.Context, staffID uuid.UUID) ([]StudentReportRow, error)
}

// Locker guards the booking critical section for one staff/date/time key.
// The Redis implementation lives in internal/redis; an in-process variant
// backs demo mode and tests.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
