package booking

import "errors"

var ErrNotPermitted = errors.New("not permitted for this role")

// Capability names one action a role may perform. All role checks in the
// service and the HTTP layer go through this table; nothing compares role
// strings at call sites.
type Capability string

const (
	CapBookAppointment     Capability = "appointment:book"
	CapRescheduleOwn       Capability = "appointment:reschedule"
	CapApproveAppointment  Capability = "appointment:approve"
	CapDeclineAppointment  Capability = "appointment:decline"
	CapCancelOwn           Capability = "appointment:cancel"
	CapCompleteAppointment Capability = "appointment:complete"
	CapAnnotateAppointment Capability = "appointment:annotate"
	CapManageAvailability  Capability = "availability:manage"
	CapViewReports         Capability = "reports:view"
)

var rolePolicy = map[Role]map[Capability]bool{
	RoleStudent: {
		CapBookAppointment: true,
		CapRescheduleOwn:   true,
		CapCancelOwn:       true,
	},
	RoleStaff: {
		CapApproveAppointment:  true,
		CapDeclineAppointment:  true,
		CapCancelOwn:           true,
		CapCompleteAppointment: true,
		CapAnnotateAppointment: true,
		CapManageAvailability:  true,
		CapViewReports:         true,
	},
}

// Can reports whether the role holds the capability.
func (r Role) Can(c Capability) bool {
	return rolePolicy[r][c]
}
