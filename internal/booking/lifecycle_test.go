package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testAppointment(status AppointmentStatus, date time.Time) *Appointment {
	return &Appointment{
		ID:        uuid.New(),
		StudentID: uuid.New(),
		StaffID:   uuid.New(),
		Date:      date,
		StartTime: "10:00",
		EndTime:   "11:00",
		Status:    status,
	}
}

func asTransitionErr(t *testing.T, err error) *InvalidTransitionError {
	t.Helper()
	var te *InvalidTransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	return te
}

func TestTerminalStatesAbsorb(t *testing.T) {
	now := time.Now()
	tomorrow := now.AddDate(0, 0, 1)

	for _, terminal := range []AppointmentStatus{StatusDeclined, StatusCancelled, StatusCompleted} {
		for _, to := range []AppointmentStatus{StatusPending, StatusApproved, StatusDeclined, StatusCancelled, StatusCompleted} {
			a := testAppointment(terminal, tomorrow)
			staff := Actor{ProfileID: a.StaffID, Role: RoleStaff}

			err := ValidateTransition(a, to, staff, now)
			te := asTransitionErr(t, err)
			if te.From != terminal {
				t.Errorf("%s -> %s: error reports from=%s", terminal, to, te.From)
			}
		}
	}
}

func TestApproveOnlyByOwningStaff(t *testing.T) {
	now := time.Now()
	a := testAppointment(StatusPending, now.AddDate(0, 0, 1))

	owner := Actor{ProfileID: a.StaffID, Role: RoleStaff}
	if err := ValidateTransition(a, StatusApproved, owner, now); err != nil {
		t.Fatalf("owning staff approve: %v", err)
	}

	student := Actor{ProfileID: a.StudentID, Role: RoleStudent}
	asTransitionErr(t, ValidateTransition(a, StatusApproved, student, now))

	otherStaff := Actor{ProfileID: uuid.New(), Role: RoleStaff}
	asTransitionErr(t, ValidateTransition(a, StatusApproved, otherStaff, now))
}

func TestDeclineOnlyPending(t *testing.T) {
	now := time.Now()
	a := testAppointment(StatusApproved, now.AddDate(0, 0, 1))
	owner := Actor{ProfileID: a.StaffID, Role: RoleStaff}
	asTransitionErr(t, ValidateTransition(a, StatusDeclined, owner, now))
}

func TestCancelPastStartRefused(t *testing.T) {
	now := time.Now()

	yesterday := testAppointment(StatusPending, now.AddDate(0, 0, -1))
	student := Actor{ProfileID: yesterday.StudentID, Role: RoleStudent}
	te := asTransitionErr(t, ValidateTransition(yesterday, StatusCancelled, student, now))
	if te.Role != RoleStudent {
		t.Errorf("error reports role=%s", te.Role)
	}

	tomorrow := testAppointment(StatusPending, now.AddDate(0, 0, 1))
	student = Actor{ProfileID: tomorrow.StudentID, Role: RoleStudent}
	if err := ValidateTransition(tomorrow, StatusCancelled, student, now); err != nil {
		t.Fatalf("cancel tomorrow: %v", err)
	}
}

func TestCancelByEitherParticipant(t *testing.T) {
	now := time.Now()
	a := testAppointment(StatusApproved, now.AddDate(0, 0, 1))

	staff := Actor{ProfileID: a.StaffID, Role: RoleStaff}
	if err := ValidateTransition(a, StatusCancelled, staff, now); err != nil {
		t.Fatalf("staff cancel: %v", err)
	}

	student := Actor{ProfileID: a.StudentID, Role: RoleStudent}
	if err := ValidateTransition(a, StatusCancelled, student, now); err != nil {
		t.Fatalf("student cancel: %v", err)
	}

	outsider := Actor{ProfileID: uuid.New(), Role: RoleStudent}
	asTransitionErr(t, ValidateTransition(a, StatusCancelled, outsider, now))
}

func TestCompleteRequiresElapsedEnd(t *testing.T) {
	now := time.Now()

	past := testAppointment(StatusApproved, now.AddDate(0, 0, -1))
	staff := Actor{ProfileID: past.StaffID, Role: RoleStaff}
	if err := ValidateTransition(past, StatusCompleted, staff, now); err != nil {
		t.Fatalf("complete elapsed appointment: %v", err)
	}

	future := testAppointment(StatusApproved, now.AddDate(0, 0, 1))
	staff = Actor{ProfileID: future.StaffID, Role: RoleStaff}
	asTransitionErr(t, ValidateTransition(future, StatusCompleted, staff, now))

	pending := testAppointment(StatusPending, now.AddDate(0, 0, -1))
	staff = Actor{ProfileID: pending.StaffID, Role: RoleStaff}
	asTransitionErr(t, ValidateTransition(pending, StatusCompleted, staff, now))
}

func TestCompleteOnlyByOwningStaff(t *testing.T) {
	now := time.Now()
	a := testAppointment(StatusApproved, now.AddDate(0, 0, -1))

	student := Actor{ProfileID: a.StudentID, Role: RoleStudent}
	asTransitionErr(t, ValidateTransition(a, StatusCompleted, student, now))
}

func TestRescheduleRules(t *testing.T) {
	now := time.Now()

	pending := testAppointment(StatusPending, now.AddDate(0, 0, 1))
	owner := Actor{ProfileID: pending.StudentID, Role: RoleStudent}
	if err := ValidateReschedule(pending, owner); err != nil {
		t.Fatalf("owner reschedule pending: %v", err)
	}

	approved := testAppointment(StatusApproved, now.AddDate(0, 0, 1))
	owner = Actor{ProfileID: approved.StudentID, Role: RoleStudent}
	asTransitionErr(t, ValidateReschedule(approved, owner))

	staff := Actor{ProfileID: pending.StaffID, Role: RoleStaff}
	asTransitionErr(t, ValidateReschedule(pending, staff))

	other := Actor{ProfileID: uuid.New(), Role: RoleStudent}
	asTransitionErr(t, ValidateReschedule(pending, other))
}

func TestRolePolicy(t *testing.T) {
	if !RoleStudent.Can(CapBookAppointment) {
		t.Error("students should book")
	}
	if RoleStudent.Can(CapApproveAppointment) {
		t.Error("students should not approve")
	}
	if RoleStudent.Can(CapManageAvailability) {
		t.Error("students should not manage availability")
	}
	if !RoleStaff.Can(CapManageAvailability) {
		t.Error("staff should manage availability")
	}
	if RoleStaff.Can(CapBookAppointment) {
		t.Error("staff should not book")
	}
	if Role("admin").Can(CapBookAppointment) {
		t.Error("unknown roles hold no capabilities")
	}
}
