package booking

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemRepository is an in-memory Repository. It backs the demo/offline mode
// when Postgres is unreachable and doubles as the store for tests. All
// methods honor the same conditional-write semantics as the Postgres
// implementation.
type MemRepository struct {
	mu            sync.RWMutex
	credentials   map[string]*Credential // keyed by email
	profiles      map[uuid.UUID]*UserProfile
	windows       map[uuid.UUID]*AvailabilityWindow
	appointments  map[uuid.UUID]*Appointment
	notifications map[uuid.UUID]*Notification
}

func NewMemRepository() *MemRepository {
	return &MemRepository{
		credentials:   make(map[string]*Credential),
		profiles:      make(map[uuid.UUID]*UserProfile),
		windows:       make(map[uuid.UUID]*AvailabilityWindow),
		appointments:  make(map[uuid.UUID]*Appointment),
		notifications: make(map[uuid.UUID]*Notification),
	}
}

// Accounts and profiles

func (r *MemRepository) CreateAccount(ctx context.Context, cred *Credential, profile *UserProfile) (*UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(cred.Email)
	if _, ok := r.credentials[key]; ok {
		return nil, ErrEmailTaken
	}

	now := time.Now()
	c := *cred
	c.CreatedAt = now
	r.credentials[key] = &c

	p := *profile
	p.CreatedAt = now
	p.UpdatedAt = now
	r.profiles[p.ID] = &p

	out := p
	return &out, nil
}

func (r *MemRepository) GetCredentialByEmail(ctx context.Context, email string) (*Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.credentials[strings.ToLower(email)]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	out := *c
	return &out, nil
}

func (r *MemRepository) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.profiles {
		if p.UserID == userID {
			out := *p
			return &out, nil
		}
	}
	return nil, ErrProfileNotFound
}

func (r *MemRepository) GetProfileByID(ctx context.Context, id uuid.UUID) (*UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	out := *p
	return &out, nil
}

func (r *MemRepository) UpdateProfile(ctx context.Context, id uuid.UUID, fullName string, phone, department *string) (*UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	p.FullName = fullName
	p.Phone = phone
	p.Department = department
	p.UpdatedAt = time.Now()
	out := *p
	return &out, nil
}

func (r *MemRepository) ListStaffProfiles(ctx context.Context) ([]UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []UserProfile
	for _, p := range r.profiles {
		if p.Role == RoleStaff {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FullName < result[j].FullName })
	return result, nil
}

// Availability windows

func (r *MemRepository) CreateWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cp := *w
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.windows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *MemRepository) ListWindows(ctx context.Context, staffID uuid.UUID) ([]AvailabilityWindow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []AvailabilityWindow
	for _, w := range r.windows {
		if w.StaffID == staffID {
			result = append(result, *w)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result, nil
}

func (r *MemRepository) ListOpenWindowsForDay(ctx context.Context, staffID uuid.UUID, dayOfWeek int) ([]AvailabilityWindow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []AvailabilityWindow
	for _, w := range r.windows {
		if w.StaffID == staffID && w.DayOfWeek == dayOfWeek && w.IsAvailable {
			result = append(result, *w)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime < result[j].StartTime })
	return result, nil
}

func (r *MemRepository) SetWindowAvailable(ctx context.Context, id, staffID uuid.UUID, available bool) (*AvailabilityWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[id]
	if !ok || w.StaffID != staffID {
		return nil, ErrWindowNotFound
	}
	w.IsAvailable = available
	w.UpdatedAt = time.Now()
	out := *w
	return &out, nil
}

func (r *MemRepository) DeleteWindow(ctx context.Context, id, staffID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[id]
	if !ok || w.StaffID != staffID {
		return ErrWindowNotFound
	}
	delete(r.windows, id)
	return nil
}

// Appointments

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func overlapsLocked(appts map[uuid.UUID]*Appointment, excludeID, staffID uuid.UUID, date time.Time, start, end string) bool {
	for _, other := range appts {
		if other.ID == excludeID || other.StaffID != staffID || !sameDate(other.Date, date) {
			continue
		}
		if other.Status != StatusPending && other.Status != StatusApproved {
			continue
		}
		if other.StartTime < end && other.EndTime > start {
			return true
		}
	}
	return false
}

func (r *MemRepository) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if overlapsLocked(r.appointments, uuid.Nil, a.StaffID, a.Date, a.StartTime, a.EndTime) {
		return nil, ErrSlotTaken
	}

	now := time.Now()
	cp := *a
	cp.Status = StatusPending
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.appointments[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *MemRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	out := *a
	return &out, nil
}

func (r *MemRepository) ListAppointmentsForStudent(ctx context.Context, studentID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	return r.listAppointments(func(a *Appointment) bool { return a.StudentID == studentID }, from, to)
}

func (r *MemRepository) ListAppointmentsForStaff(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	return r.listAppointments(func(a *Appointment) bool { return a.StaffID == staffID }, from, to)
}

func (r *MemRepository) listAppointments(owns func(*Appointment) bool, from, to time.Time) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Appointment
	for _, a := range r.appointments {
		if owns(a) && !a.Date.Before(from) && !a.Date.After(to) {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].StartTime > result[j].StartTime
	})
	return result, nil
}

func (r *MemRepository) ListBlockingAppointments(ctx context.Context, staffID uuid.UUID, date time.Time) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Appointment
	for _, a := range r.appointments {
		if a.StaffID == staffID && sameDate(a.Date, date) &&
			(a.Status == StatusPending || a.Status == StatusApproved) {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime < result[j].StartTime })
	return result, nil
}

func (r *MemRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	out := *a
	return &out, nil
}

func (r *MemRepository) RescheduleAppointment(ctx context.Context, id, studentID, staffID uuid.UUID, date time.Time, start, end string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok || a.StudentID != studentID || a.Status != StatusPending {
		return nil, ErrAppointmentNotFound
	}
	if overlapsLocked(r.appointments, id, staffID, date, start, end) {
		return nil, ErrSlotTaken
	}

	a.StaffID = staffID
	a.Date = date
	a.StartTime = start
	a.EndTime = end
	a.UpdatedAt = time.Now()
	out := *a
	return &out, nil
}

func (r *MemRepository) SetStaffNotes(ctx context.Context, id, staffID uuid.UUID, notes string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok || a.StaffID != staffID {
		return nil, ErrAppointmentNotFound
	}
	a.StaffNotes = &notes
	a.UpdatedAt = time.Now()
	out := *a
	return &out, nil
}

// Notifications

func (r *MemRepository) CreateNotification(ctx context.Context, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *n
	cp.CreatedAt = time.Now()
	r.notifications[cp.ID] = &cp
	return nil
}

func (r *MemRepository) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Notification
	for _, n := range r.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		result = append(result, *n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *MemRepository) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok || n.UserID != userID {
		return ErrNotificationNotFound
	}
	n.IsRead = true
	return nil
}

func (r *MemRepository) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *MemRepository) DeleteNotification(ctx context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok || n.UserID != userID {
		return ErrNotificationNotFound
	}
	delete(r.notifications, id)
	return nil
}

// Reminder worker

func (r *MemRepository) FindApprovedNeedingReminder(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reminded := make(map[uuid.UUID]bool)
	for _, n := range r.notifications {
		if n.Type == NotificationReminder && n.AppointmentID != nil {
			reminded[*n.AppointmentID] = true
		}
	}

	var result []Appointment
	for _, a := range r.appointments {
		if a.Status != StatusApproved || reminded[a.ID] {
			continue
		}
		startsAt, err := a.StartsAt()
		if err != nil {
			continue
		}
		if !startsAt.Before(from) && startsAt.Before(to) {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result, nil
}

// Reporting

func (r *MemRepository) MonthlyReport(ctx context.Context, staffID uuid.UUID) ([]ReportRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]map[AppointmentStatus]int)
	for _, a := range r.appointments {
		if a.StaffID != staffID {
			continue
		}
		month := a.Date.Format("2006-01")
		if counts[month] == nil {
			counts[month] = make(map[AppointmentStatus]int)
		}
		counts[month][a.Status]++
	}

	var result []ReportRow
	for month, byStatus := range counts {
		for status, n := range byStatus {
			result = append(result, ReportRow{Month: month, Status: status, Count: n})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Month != result[j].Month {
			return result[i].Month > result[j].Month
		}
		return result[i].Status < result[j].Status
	})
	return result, nil
}

func (r *MemRepository) StudentReport(ctx context.Context, staffID uuid.UUID) ([]StudentReportRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[uuid.UUID]int)
	for _, a := range r.appointments {
		if a.StaffID == staffID {
			counts[a.StudentID]++
		}
	}

	var result []StudentReportRow
	for studentID, n := range counts {
		name := ""
		if p, ok := r.profiles[studentID]; ok {
			name = p.FullName
		}
		result = append(result, StudentReportRow{StudentID: studentID, FullName: name, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].FullName < result[j].FullName
	})
	return result, nil
}

// LocalLocker serializes booking sections in-process. It stands in for the
// Redis locker in demo mode and in tests.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *LocalLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}
