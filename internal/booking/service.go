package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/campusbook/appointment-booking/internal/redis"
)

var (
	ErrSlotNotOffered   = errors.New("requested slot is not offerable")
	ErrNotStaff         = errors.New("profile is not a staff member")
	ErrInvalidDayOfWeek = errors.New("day_of_week must be between 0 and 6")
	ErrInvalidWindow    = errors.New("window start must precede its end")
	ErrSlotBeingBooked  = errors.New("slot is currently being booked, please retry")
)

type Service struct {
	repo        Repository
	locker      Locker
	granularity time.Duration
	now         func() time.Time
}

func NewService(repo Repository, locker Locker, granularity time.Duration) *Service {
	return &Service{
		repo:        repo,
		locker:      locker,
		granularity: granularity,
		now:         time.Now,
	}
}

// Accounts

type RegisterParams struct {
	Email        string
	PasswordHash string
	Role         Role
	FullName     string
	Phone        *string
	Department   *string
}

func (s *Service) Register(ctx context.Context, p RegisterParams) (*UserProfile, error) {
	if p.Role != RoleStudent && p.Role != RoleStaff {
		return nil, fmt.Errorf("%w: unknown role %q", ErrNotPermitted, p.Role)
	}

	userID := uuid.New()
	cred := &Credential{UserID: userID, Email: p.Email, PasswordHash: p.PasswordHash}
	profile := &UserProfile{
		ID:         uuid.New(),
		UserID:     userID,
		Role:       p.Role,
		FullName:   p.FullName,
		Email:      p.Email,
		Phone:      p.Phone,
		Department: p.Department,
	}

	created, err := s.repo.CreateAccount(ctx, cred, profile)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return created, nil
}

func (s *Service) CredentialByEmail(ctx context.Context, email string) (*Credential, error) {
	return s.repo.GetCredentialByEmail(ctx, email)
}

func (s *Service) ProfileByUserID(ctx context.Context, userID uuid.UUID) (*UserProfile, error) {
	return s.repo.GetProfileByUserID(ctx, userID)
}

func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*UserProfile, error) {
	return s.repo.GetProfileByID(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, actor Actor, fullName string, phone, department *string) (*UserProfile, error) {
	return s.repo.UpdateProfile(ctx, actor.ProfileID, fullName, phone, department)
}

func (s *Service) ListStaff(ctx context.Context) ([]UserProfile, error) {
	return s.repo.ListStaffProfiles(ctx)
}

// Availability

type WindowParams struct {
	DayOfWeek int
	StartTime string
	EndTime   string
}

func (s *Service) AddWindow(ctx context.Context, actor Actor, p WindowParams) (*AvailabilityWindow, error) {
	if !actor.Role.Can(CapManageAvailability) {
		return nil, ErrNotPermitted
	}
	if p.DayOfWeek < 0 || p.DayOfWeek > 6 {
		return nil, ErrInvalidDayOfWeek
	}
	start, err := ParseTimeOfDay(p.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := ParseTimeOfDay(p.EndTime)
	if err != nil {
		return nil, err
	}
	if start >= end {
		return nil, ErrInvalidWindow
	}

	w := &AvailabilityWindow{
		ID:          uuid.New(),
		StaffID:     actor.ProfileID,
		DayOfWeek:   p.DayOfWeek,
		StartTime:   start.String(),
		EndTime:     end.String(),
		IsAvailable: true,
	}
	created, err := s.repo.CreateWindow(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("create availability window: %w", err)
	}
	return created, nil
}

func (s *Service) ListWindows(ctx context.Context, actor Actor) ([]AvailabilityWindow, error) {
	if !actor.Role.Can(CapManageAvailability) {
		return nil, ErrNotPermitted
	}
	return s.repo.ListWindows(ctx, actor.ProfileID)
}

func (s *Service) SetWindowAvailable(ctx context.Context, actor Actor, id uuid.UUID, available bool) (*AvailabilityWindow, error) {
	if !actor.Role.Can(CapManageAvailability) {
		return nil, ErrNotPermitted
	}
	return s.repo.SetWindowAvailable(ctx, id, actor.ProfileID, available)
}

func (s *Service) RemoveWindow(ctx context.Context, actor Actor, id uuid.UUID) error {
	if !actor.Role.Can(CapManageAvailability) {
		return ErrNotPermitted
	}
	return s.repo.DeleteWindow(ctx, id, actor.ProfileID)
}

// Slots

// SlotsForDate computes the offerable slots for one staff member and date.
// An empty result is not an error.
func (s *Service) SlotsForDate(ctx context.Context, staffID uuid.UUID, date time.Time) ([]Slot, error) {
	staff, err := s.repo.GetProfileByID(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if staff.Role != RoleStaff {
		return nil, ErrNotStaff
	}
	return s.slotsForDate(ctx, staffID, date, uuid.Nil)
}

// slotsForDate optionally ignores one appointment, so a reschedule does not
// collide with the booking it is replacing.
func (s *Service) slotsForDate(ctx context.Context, staffID uuid.UUID, date time.Time, ignore uuid.UUID) ([]Slot, error) {
	windows, err := s.repo.ListOpenWindowsForDay(ctx, staffID, int(date.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}

	blocking, err := s.repo.ListBlockingAppointments(ctx, staffID, date)
	if err != nil {
		return nil, fmt.Errorf("load booked appointments: %w", err)
	}

	booked := make([]Interval, 0, len(blocking))
	for _, a := range blocking {
		if a.ID == ignore {
			continue
		}
		booked = append(booked, Interval{Start: a.StartTime, End: a.EndTime})
	}

	return GenerateSlots(windows, booked, s.granularity)
}

func slotOffered(slots []Slot, start TimeOfDay) bool {
	for _, sl := range slots {
		if sl.Start == start {
			return true
		}
	}
	return false
}

// Appointments

type BookParams struct {
	StaffID   uuid.UUID
	Date      time.Time
	StartTime string
	Subject   *string
	Notes     *string
}

func lockKey(staffID uuid.UUID, date time.Time, start TimeOfDay) string {
	return fmt.Sprintf("lock:slot:%s:%s:%s", staffID, date.Format("2006-01-02"), start)
}

// Book reserves an offerable slot for a student as a pending appointment.
// The slot check is advisory; the repository's conditional insert is what
// actually prevents a double booking, and the per-slot lock keeps the common
// case from ever reaching that conflict.
func (s *Service) Book(ctx context.Context, actor Actor, p BookParams) (*Appointment, error) {
	if !actor.Role.Can(CapBookAppointment) {
		return nil, ErrNotPermitted
	}

	staff, err := s.repo.GetProfileByID(ctx, p.StaffID)
	if err != nil {
		return nil, err
	}
	if staff.Role != RoleStaff {
		return nil, ErrNotStaff
	}

	start, err := ParseTimeOfDay(p.StartTime)
	if err != nil {
		return nil, err
	}
	end := start.Add(s.granularity)

	slots, err := s.slotsForDate(ctx, p.StaffID, p.Date, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if !slotOffered(slots, start) {
		return nil, ErrSlotNotOffered
	}

	var created *Appointment
	err = s.locker.WithLock(ctx, lockKey(p.StaffID, p.Date, start), func(lockCtx context.Context) error {
		appt := &Appointment{
			ID:        uuid.New(),
			StudentID: actor.ProfileID,
			StaffID:   p.StaffID,
			Date:      p.Date,
			StartTime: start.String(),
			EndTime:   end.String(),
			Subject:   p.Subject,
			Notes:     p.Notes,
		}
		created, err = s.repo.CreateAppointment(lockCtx, appt)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return nil, err
		}
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, fmt.Errorf("book appointment: %w", err)
	}

	s.notify(ctx, staff.ID, created, "New appointment request",
		fmt.Sprintf("A student requested %s on %s.", created.StartTime, created.Date.Format("2006-01-02")))

	return created, nil
}

func (s *Service) Appointment(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Non-participants get not-found, not forbidden.
	if actor.ProfileID != a.StudentID && actor.ProfileID != a.StaffID {
		return nil, ErrAppointmentNotFound
	}
	return a, nil
}

func (s *Service) ListAppointments(ctx context.Context, actor Actor, from, to time.Time) ([]Appointment, error) {
	if actor.Role == RoleStaff {
		return s.repo.ListAppointmentsForStaff(ctx, actor.ProfileID, from, to)
	}
	return s.repo.ListAppointmentsForStudent(ctx, actor.ProfileID, from, to)
}

// Transition applies one lifecycle change after validating it against the
// state machine. The repository update is a compare-and-set on the current
// status, so a concurrent transition loses cleanly.
func (s *Service) Transition(ctx context.Context, actor Actor, id uuid.UUID, to AppointmentStatus) (*Appointment, error) {
	a, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ProfileID != a.StudentID && actor.ProfileID != a.StaffID {
		return nil, ErrAppointmentNotFound
	}

	if err := ValidateTransition(a, to, actor, s.now()); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, a.ID, a.Status, to)
	if err != nil {
		return nil, fmt.Errorf("apply transition: %w", err)
	}

	recipient := updated.StaffID
	if actor.ProfileID == updated.StaffID {
		recipient = updated.StudentID
	}
	s.notify(ctx, recipient, updated, "Appointment "+string(to),
		fmt.Sprintf("Your appointment on %s at %s is now %s.",
			updated.Date.Format("2006-01-02"), updated.StartTime, to))

	return updated, nil
}

func (s *Service) Approve(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	return s.Transition(ctx, actor, id, StatusApproved)
}

func (s *Service) Decline(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	return s.Transition(ctx, actor, id, StatusDeclined)
}

func (s *Service) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	return s.Transition(ctx, actor, id, StatusCancelled)
}

func (s *Service) Complete(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	return s.Transition(ctx, actor, id, StatusCompleted)
}

type RescheduleParams struct {
	StaffID   uuid.UUID
	Date      time.Time
	StartTime string
}

// Reschedule moves a pending appointment to another offerable slot, possibly
// with a different staff member. Status stays pending.
func (s *Service) Reschedule(ctx context.Context, actor Actor, id uuid.UUID, p RescheduleParams) (*Appointment, error) {
	a, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateReschedule(a, actor); err != nil {
		return nil, err
	}

	staff, err := s.repo.GetProfileByID(ctx, p.StaffID)
	if err != nil {
		return nil, err
	}
	if staff.Role != RoleStaff {
		return nil, ErrNotStaff
	}

	start, err := ParseTimeOfDay(p.StartTime)
	if err != nil {
		return nil, err
	}
	end := start.Add(s.granularity)

	slots, err := s.slotsForDate(ctx, p.StaffID, p.Date, a.ID)
	if err != nil {
		return nil, err
	}
	if !slotOffered(slots, start) {
		return nil, ErrSlotNotOffered
	}

	var updated *Appointment
	err = s.locker.WithLock(ctx, lockKey(p.StaffID, p.Date, start), func(lockCtx context.Context) error {
		updated, err = s.repo.RescheduleAppointment(lockCtx, a.ID, actor.ProfileID, p.StaffID, p.Date, start.String(), end.String())
		return err
	})
	if err != nil {
		if errors.Is(err, ErrSlotTaken) || errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, fmt.Errorf("reschedule appointment: %w", err)
	}

	s.notify(ctx, updated.StaffID, updated, "Appointment rescheduled",
		fmt.Sprintf("A pending appointment moved to %s at %s.",
			updated.Date.Format("2006-01-02"), updated.StartTime))

	return updated, nil
}

func (s *Service) AnnotateStaffNotes(ctx context.Context, actor Actor, id uuid.UUID, notes string) (*Appointment, error) {
	if !actor.Role.Can(CapAnnotateAppointment) {
		return nil, ErrNotPermitted
	}
	return s.repo.SetStaffNotes(ctx, id, actor.ProfileID, notes)
}

// Notifications

// notify writes a notification for the counter-party. Failures never fail
// the operation that triggered them.
func (s *Service) notify(ctx context.Context, recipient uuid.UUID, a *Appointment, title, message string) {
	apptID := a.ID
	n := &Notification{
		ID:            uuid.New(),
		UserID:        recipient,
		Title:         title,
		Message:       message,
		Type:          NotificationAppointment,
		AppointmentID: &apptID,
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		log.Printf("failed to create notification for %s: %v", recipient, err)
	}
}

func (s *Service) Notifications(ctx context.Context, actor Actor, unreadOnly bool) ([]Notification, error) {
	return s.repo.ListNotifications(ctx, actor.ProfileID, unreadOnly)
}

func (s *Service) MarkNotificationRead(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.repo.MarkNotificationRead(ctx, id, actor.ProfileID)
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, actor Actor) error {
	return s.repo.MarkAllNotificationsRead(ctx, actor.ProfileID)
}

func (s *Service) DeleteNotification(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.repo.DeleteNotification(ctx, id, actor.ProfileID)
}

// SendReminders finds approved appointments starting within the lead window
// that have not been reminded yet and notifies the student. Intended to be
// called periodically by the reminder worker.
func (s *Service) SendReminders(ctx context.Context, lead time.Duration) (int, error) {
	now := s.now()
	due, err := s.repo.FindApprovedNeedingReminder(ctx, now, now.Add(lead))
	if err != nil {
		return 0, fmt.Errorf("find appointments needing reminder: %w", err)
	}

	sent := 0
	for i := range due {
		a := due[i]
		apptID := a.ID
		n := &Notification{
			ID:            uuid.New(),
			UserID:        a.StudentID,
			Title:         "Upcoming appointment",
			Message:       fmt.Sprintf("Reminder: your appointment on %s starts at %s.", a.Date.Format("2006-01-02"), a.StartTime),
			Type:          NotificationReminder,
			AppointmentID: &apptID,
		}
		if err := s.repo.CreateNotification(ctx, n); err != nil {
			log.Printf("failed to create reminder for appointment %s: %v", a.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}

// Reporting

type ReportSummary struct {
	Months   []ReportRow
	Students []StudentReportRow
}

func (s *Service) Report(ctx context.Context, actor Actor) (*ReportSummary, error) {
	if !actor.Role.Can(CapViewReports) {
		return nil, ErrNotPermitted
	}
	months, err := s.repo.MonthlyReport(ctx, actor.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("monthly report: %w", err)
	}
	students, err := s.repo.StudentReport(ctx, actor.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("student report: %w", err)
	}
	return &ReportSummary{Months: months, Students: students}, nil
}
