package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Actor is the authenticated profile attempting a transition.
type Actor struct {
	ProfileID uuid.UUID
	Role      Role
}

// InvalidTransitionError reports a lifecycle rule violation. It carries the
// current state, the requested state, and the actor's role so the edge can
// explain exactly why the action was refused.
type InvalidTransitionError struct {
	From   AppointmentStatus
	To     AppointmentStatus
	Role   Role
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s by %s: %s", e.From, e.To, e.Role, e.Reason)
}

func transitionErr(a *Appointment, to AppointmentStatus, actor Actor, reason string) error {
	return &InvalidTransitionError{From: a.Status, To: to, Role: actor.Role, Reason: reason}
}

// ValidateTransition checks whether the actor may move the appointment to the
// requested status at the given instant. It only judges validity; applying the
// change is the caller's job.
func ValidateTransition(a *Appointment, to AppointmentStatus, actor Actor, now time.Time) error {
	if a.Status.IsTerminal() {
		return transitionErr(a, to, actor, "appointment is in a terminal state")
	}

	switch to {
	case StatusApproved, StatusDeclined:
		if a.Status != StatusPending {
			return transitionErr(a, to, actor, "only pending appointments can be approved or declined")
		}
		need := CapApproveAppointment
		if to == StatusDeclined {
			need = CapDeclineAppointment
		}
		if !actor.Role.Can(need) || actor.ProfileID != a.StaffID {
			return transitionErr(a, to, actor, "only the appointment's staff member may do this")
		}

	case StatusCancelled:
		if a.Status != StatusPending && a.Status != StatusApproved {
			return transitionErr(a, to, actor, "only pending or approved appointments can be cancelled")
		}
		if !actor.Role.Can(CapCancelOwn) {
			return transitionErr(a, to, actor, "role may not cancel")
		}
		if actor.ProfileID != a.StudentID && actor.ProfileID != a.StaffID {
			return transitionErr(a, to, actor, "only a participant may cancel")
		}
		startsAt, err := a.StartsAt()
		if err != nil {
			return err
		}
		if !startsAt.After(now) {
			return transitionErr(a, to, actor, "appointment has already started")
		}

	case StatusCompleted:
		if a.Status != StatusApproved {
			return transitionErr(a, to, actor, "only approved appointments can be completed")
		}
		if !actor.Role.Can(CapCompleteAppointment) || actor.ProfileID != a.StaffID {
			return transitionErr(a, to, actor, "only the appointment's staff member may complete")
		}
		endsAt, err := a.EndsAt()
		if err != nil {
			return err
		}
		if endsAt.After(now) {
			return transitionErr(a, to, actor, "appointment has not finished yet")
		}

	default:
		return transitionErr(a, to, actor, "unknown target status")
	}

	return nil
}

// ValidateReschedule checks the edit rule: only the owning student, only
// while the appointment is still pending. The status itself never changes.
func ValidateReschedule(a *Appointment, actor Actor) error {
	if !actor.Role.Can(CapRescheduleOwn) || actor.ProfileID != a.StudentID {
		return transitionErr(a, a.Status, actor, "only the owning student may reschedule")
	}
	if a.Status != StatusPending {
		return transitionErr(a, a.Status, actor, "only pending appointments can be rescheduled")
	}
	return nil
}
