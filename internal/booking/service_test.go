package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fixture struct {
	svc     *Service
	repo    *MemRepository
	staff   *UserProfile
	student *UserProfile
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := NewMemRepository()
	svc := NewService(repo, NewLocalLocker(), time.Hour)
	ctx := context.Background()

	staff, err := svc.Register(ctx, RegisterParams{
		Email:        "advisor@campus.test",
		PasswordHash: "x",
		Role:         RoleStaff,
		FullName:     "Advisor One",
	})
	if err != nil {
		t.Fatalf("register staff: %v", err)
	}

	student, err := svc.Register(ctx, RegisterParams{
		Email:        "student@campus.test",
		PasswordHash: "x",
		Role:         RoleStudent,
		FullName:     "Student One",
	})
	if err != nil {
		t.Fatalf("register student: %v", err)
	}

	return &fixture{svc: svc, repo: repo, staff: staff, student: student}
}

func (f *fixture) staffActor() Actor {
	return Actor{ProfileID: f.staff.ID, Role: RoleStaff}
}

func (f *fixture) studentActor() Actor {
	return Actor{ProfileID: f.student.ID, Role: RoleStudent}
}

func (f *fixture) addWindow(t *testing.T, day int, start, end string) {
	t.Helper()
	if _, err := f.svc.AddWindow(context.Background(), f.staffActor(), WindowParams{
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
	}); err != nil {
		t.Fatalf("add window: %v", err)
	}
}

// nextDate returns the next calendar date at least a day out, giving every
// booked appointment a start instant safely in the future.
func nextDate() time.Time {
	d := time.Now().AddDate(0, 0, 7)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.Local)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), RegisterParams{
		Email:        "advisor@campus.test",
		PasswordHash: "x",
		Role:         RoleStudent,
		FullName:     "Someone Else",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterUnknownRole(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), RegisterParams{
		Email:        "admin@campus.test",
		PasswordHash: "x",
		Role:         Role("admin"),
		FullName:     "Admin",
	})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestBookEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := nextDate()
	f.addWindow(t, int(date.Weekday()), "09:00", "12:00")

	slots, err := f.svc.SlotsForDate(ctx, f.staff.ID, date)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}

	appt, err := f.svc.Book(ctx, f.studentActor(), BookParams{
		StaffID:   f.staff.ID,
		Date:      date,
		StartTime: "10:00",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if appt.Status != StatusPending {
		t.Errorf("new appointment status = %s, want pending", appt.Status)
	}
	if appt.EndTime != "11:00" {
		t.Errorf("end time = %s, want 11:00", appt.EndTime)
	}

	// the booked slot disappears, its neighbors remain
	slots, err = f.svc.SlotsForDate(ctx, f.staff.ID, date)
	if err != nil {
		t.Fatalf("slots after booking: %v", err)
	}
	if len(slots) != 2 || slots[0].Start.String() != "09:00" || slots[1].Start.String() != "11:00" {
		t.Fatalf("unexpected remaining slots: %+v", slots)
	}

	// booking notified the staff member
	staffNotes, err := f.svc.Notifications(ctx, f.staffActor(), true)
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	if len(staffNotes) != 1 || staffNotes[0].Type != NotificationAppointment {
		t.Fatalf("expected one appointment notification for staff, got %+v", staffNotes)
	}

	// approval flips status and notifies the student
	approved, err := f.svc.Approve(ctx, f.staffActor(), appt.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Errorf("status = %s, want approved", approved.Status)
	}

	studentNotes, err := f.svc.Notifications(ctx, f.studentActor(), true)
	if err != nil {
		t.Fatalf("student notifications: %v", err)
	}
	if len(studentNotes) != 1 {
		t.Fatalf("expected one notification for student, got %d", len(studentNotes))
	}
}

func TestBookUnofferedSlot(t *testing.T) {
	f := newFixture(t)
	date := nextDate()
	f.addWindow(t, int(date.Weekday()), "09:00", "12:00")

	_, err := f.svc.Book(context.Background(), f.studentActor(), BookParams{
		StaffID:   f.staff.ID,
		Date:      date,
		StartTime: "13:00",
	})
	if !errors.Is(err, ErrSlotNotOffered) {
		t.Fatalf("expected ErrSlotNotOffered, got %v", err)
	}
}

func TestBookRequiresStudentRole(t *testing.T) {
	f := newFixture(t)
	date := nextDate()
	f.addWindow(t, int(date.Weekday()), "09:00", "12:00")

	_, err := f.svc.Book(context.Background(), f.staffActor(), BookParams{
		StaffID:   f.staff.ID,
		Date:      date,
		StartTime: "09:00",
	})
	if !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("expected ErrNotPermitted, got %v", err)
	}
}

func TestBookAgainstNonStaffProfile(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Book(context.Background(), f.studentActor(), BookParams{
		StaffID:   f.student.ID,
		Date:      nextDate(),
		StartTime: "09:00",
	})
	if !errors.Is(err, ErrNotStaff) {
		t.Fatalf("expected ErrNotStaff, got %v", err)
	}
}

// Two students race for one slot: the first insert wins, the second is
// rejected by the store's conditional write even though both saw the slot as
// offerable.
func TestDoubleBookingRejectedByStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := nextDate()
	f.addWindow(t, int(date.Weekday()), "09:00", "12:00")

	other, err := f.svc.Register(ctx, RegisterParams{
		Email:        "student2@campus.test",
		PasswordHash: "x",
		Role:         RoleStudent,
		FullName:     "Student Two",
	})
	if err != nil {
		t.Fatalf("register second student: %v", err)
	}

	// both computed the same slot list; A books first
	if _, err := f.svc.Book(ctx, f.studentActor(), BookParams{
		StaffID: f.staff.ID, Date: date, StartTime: "09:00",
	}); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	// B's write goes straight to the store, simulating a stale slot list
	_, err = f.repo.CreateAppointment(ctx, &Appointment{
		ID:        uuid.New(),
		StudentID: other.ID,
		StaffID:   f.staff.ID,
		Date:      date,
		StartTime: "09:00",
		EndTime:   "10:00",
	})
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestRescheduleKeepsPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := nextDate()
	f.addWindow(t, int(date.Weekday()), "09:00", "12:00")

	appt, err := f.svc.Book(ctx, f.studentActor(), BookParams{
		StaffID: f.staff.ID, Date: date, StartTime: "09:00",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	moved, err := f.svc.Reschedule(ctx, f.studentActor(), appt.ID, RescheduleParams{
		StaffID: f.staff.ID, Date: date, StartTime: "11:00",
	})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if moved.Status != StatusPending {
		t.Errorf("status after reschedule = %s, want pending", moved.Status)
	}
	if moved.StartTime != "11:00" || moved.EndTime != "12:00" {
		t.Errorf("moved to %s-%s, want 11:00-12:00", moved.StartTime, moved.EndTime)
	}
}

func TestRescheduleToOwnSlotAllowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := nextDate()
	f.addWindow(t, int(date.Weekday()), "09:00", "12:00")

	appt, err := f.svc.Book(ctx, f.studentActor(), BookParams{
		StaffID: f.staff.ID, Date: date, StartTime: "09:00",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	// the appointment's own slot does not block its reschedule
	if _, err := f.svc.Reschedule(ctx, f.studentActor(), appt.ID, RescheduleParams{
		StaffID: f.staff.ID, Date: date, StartTime: "09:00",
	}); err != nil {
		t.Fatalf("reschedule onto own slot: %v", err)
	}
}

func TestRescheduleApprovedRefused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := nextDate()
	f.addWindow(t, int(date.Weekday()), "09:00", "12:00")

	appt, err := f.svc.Book(ctx, f.studentActor(), BookParams{
		StaffID: f.staff.ID, Date: date, StartTime: "09:00",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := f.svc.Approve(ctx, f.staffActor(), appt.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err = f.svc.Reschedule(ctx, f.studentActor(), appt.ID, RescheduleParams{
		StaffID: f.staff.ID, Date: date, StartTime: "11:00",
	})
	var te *InvalidTransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
}

func TestCancelPastAppointmentRefused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	yesterday := time.Now().AddDate(0, 0, -1)

	appt, err := f.repo.CreateAppointment(ctx, &Appointment{
		ID:        uuid.New(),
		StudentID: f.student.ID,
		StaffID:   f.staff.ID,
		Date:      yesterday,
		StartTime: "09:00",
		EndTime:   "10:00",
	})
	if err != nil {
		t.Fatalf("insert past appointment: %v", err)
	}

	_, err = f.svc.Cancel(ctx, f.studentActor(), appt.ID)
	var te *InvalidTransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
}

func TestAppointmentHiddenFromNonParticipants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := nextDate()
	f.addWindow(t, int(date.Weekday()), "09:00", "12:00")

	appt, err := f.svc.Book(ctx, f.studentActor(), BookParams{
		StaffID: f.staff.ID, Date: date, StartTime: "09:00",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	outsider := Actor{ProfileID: uuid.New(), Role: RoleStudent}
	if _, err := f.svc.Appointment(ctx, outsider, appt.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound for outsider, got %v", err)
	}
}

func TestAnnotateStaffNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := nextDate()
	f.addWindow(t, int(date.Weekday()), "09:00", "12:00")

	appt, err := f.svc.Book(ctx, f.studentActor(), BookParams{
		StaffID: f.staff.ID, Date: date, StartTime: "09:00",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	updated, err := f.svc.AnnotateStaffNotes(ctx, f.staffActor(), appt.ID, "bring transcript")
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if updated.StaffNotes == nil || *updated.StaffNotes != "bring transcript" {
		t.Errorf("staff notes not set: %+v", updated.StaffNotes)
	}

	if _, err := f.svc.AnnotateStaffNotes(ctx, f.studentActor(), appt.ID, "nope"); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("expected ErrNotPermitted for student, got %v", err)
	}
}

func TestAvailabilityValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		params WindowParams
		want   error
	}{
		{"bad day", WindowParams{DayOfWeek: 7, StartTime: "09:00", EndTime: "10:00"}, ErrInvalidDayOfWeek},
		{"bad start", WindowParams{DayOfWeek: 1, StartTime: "9am", EndTime: "10:00"}, ErrInvalidTimeFormat},
		{"inverted", WindowParams{DayOfWeek: 1, StartTime: "11:00", EndTime: "10:00"}, ErrInvalidWindow},
		{"empty", WindowParams{DayOfWeek: 1, StartTime: "10:00", EndTime: "10:00"}, ErrInvalidWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.AddWindow(ctx, f.staffActor(), tt.params); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := f.svc.AddWindow(ctx, f.studentActor(), WindowParams{
		DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00",
	}); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("expected ErrNotPermitted for student, got %v", err)
	}
}

func TestNotificationOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := nextDate()
	f.addWindow(t, int(date.Weekday()), "09:00", "12:00")

	if _, err := f.svc.Book(ctx, f.studentActor(), BookParams{
		StaffID: f.staff.ID, Date: date, StartTime: "09:00",
	}); err != nil {
		t.Fatalf("book: %v", err)
	}

	notes, err := f.svc.Notifications(ctx, f.staffActor(), false)
	if err != nil || len(notes) != 1 {
		t.Fatalf("staff notifications: %v, %d", err, len(notes))
	}

	// the student cannot touch the staff member's notification
	if err := f.svc.MarkNotificationRead(ctx, f.studentActor(), notes[0].ID); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
	if err := f.svc.DeleteNotification(ctx, f.studentActor(), notes[0].ID); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}

	if err := f.svc.MarkNotificationRead(ctx, f.staffActor(), notes[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	unread, err := f.svc.Notifications(ctx, f.staffActor(), true)
	if err != nil || len(unread) != 0 {
		t.Fatalf("unread after mark read: %v, %d", err, len(unread))
	}
}

func TestSendRemindersOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := nextDate()
	f.addWindow(t, int(date.Weekday()), "09:00", "12:00")

	appt, err := f.svc.Book(ctx, f.studentActor(), BookParams{
		StaffID: f.staff.ID, Date: date, StartTime: "09:00",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := f.svc.Approve(ctx, f.staffActor(), appt.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	lead := 14 * 24 * time.Hour
	sent, err := f.svc.SendReminders(ctx, lead)
	if err != nil {
		t.Fatalf("send reminders: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want 1", sent)
	}

	// a second run must not remind again
	sent, err = f.svc.SendReminders(ctx, lead)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if sent != 0 {
		t.Fatalf("second run sent = %d, want 0", sent)
	}

	notes, err := f.svc.Notifications(ctx, f.studentActor(), false)
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	var reminders int
	for _, n := range notes {
		if n.Type == NotificationReminder {
			reminders++
		}
	}
	if reminders != 1 {
		t.Fatalf("reminders = %d, want 1", reminders)
	}
}

func TestReportAggregation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := nextDate()
	f.addWindow(t, int(date.Weekday()), "09:00", "12:00")

	for _, start := range []string{"09:00", "10:00"} {
		if _, err := f.svc.Book(ctx, f.studentActor(), BookParams{
			StaffID: f.staff.ID, Date: date, StartTime: start,
		}); err != nil {
			t.Fatalf("book %s: %v", start, err)
		}
	}

	summary, err := f.svc.Report(ctx, f.staffActor())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(summary.Months) != 1 {
		t.Fatalf("months = %+v, want one bucket", summary.Months)
	}
	m := summary.Months[0]
	if m.Month != date.Format("2006-01") || m.Status != StatusPending || m.Count != 2 {
		t.Errorf("unexpected month row: %+v", m)
	}
	if len(summary.Students) != 1 || summary.Students[0].Count != 2 {
		t.Errorf("unexpected student rows: %+v", summary.Students)
	}

	if _, err := f.svc.Report(ctx, f.studentActor()); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("expected ErrNotPermitted for student report, got %v", err)
	}
}
