package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Scan helpers

func scanProfile(row pgx.Row) (*UserProfile, error) {
	var p UserProfile
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Role,
		&p.FullName,
		&p.Email,
		&p.Phone,
		&p.Department,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanWindow(row pgx.Row) (*AvailabilityWindow, error) {
	var w AvailabilityWindow
	err := row.Scan(
		&w.ID,
		&w.StaffID,
		&w.DayOfWeek,
		&w.StartTime,
		&w.EndTime,
		&w.IsAvailable,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowNotFound
		}
		return nil, err
	}
	return &w, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.StudentID,
		&a.StaffID,
		&a.Date,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.Subject,
		&a.Notes,
		&a.StaffNotes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

const profileColumns = `id, user_id, role, full_name, email, phone, department, created_at, updated_at`

const windowColumns = `id, staff_id, day_of_week,
	to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	is_available, created_at, updated_at`

const appointmentColumns = `id, student_id, staff_id, appointment_date,
	to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	status, subject, notes, staff_notes, created_at, updated_at`

// Accounts and profiles

func (r *PgRepository) CreateAccount(ctx context.Context, cred *Credential, profile *UserProfile) (*UserProfile, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create account: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO user_credentials (user_id, email, password_hash, created_at)
		VALUES ($1, $2, $3, now())
	`, cred.UserID, cred.Email, cred.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert credential: %w", err)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO user_profiles (id, user_id, role, full_name, email, phone, department, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+profileColumns+`
	`, profile.ID, profile.UserID, profile.Role, profile.FullName, profile.Email, profile.Phone, profile.Department)

	created, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create account: %w", err)
	}
	return created, nil
}

func (r *PgRepository) GetCredentialByEmail(ctx context.Context, email string) (*Credential, error) {
	var c Credential
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, email, password_hash, created_at
		FROM user_credentials
		WHERE email = $1
	`, email).Scan(&c.UserID, &c.Email, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *PgRepository) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*UserProfile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1
	`, userID)
	return scanProfile(row)
}

func (r *PgRepository) GetProfileByID(ctx context.Context, id uuid.UUID) (*UserProfile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+profileColumns+` FROM user_profiles WHERE id = $1
	`, id)
	return scanProfile(row)
}

func (r *PgRepository) UpdateProfile(ctx context.Context, id uuid.UUID, fullName string, phone, department *string) (*UserProfile, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE user_profiles
		SET full_name = $2,
		    phone = $3,
		    department = $4,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+profileColumns+`
	`, id, fullName, phone, department)
	return scanProfile(row)
}

func (r *PgRepository) ListStaffProfiles(ctx context.Context) ([]UserProfile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+profileColumns+`
		FROM user_profiles
		WHERE role = 'staff'
		ORDER BY full_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// Availability windows

func (r *PgRepository) CreateWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO staff_availability (id, staff_id, day_of_week, start_time, end_time, is_available, created_at, updated_at)
		VALUES ($1, $2, $3, $4::time, $5::time, $6, now(), now())
		RETURNING `+windowColumns+`
	`, w.ID, w.StaffID, w.DayOfWeek, w.StartTime, w.EndTime, w.IsAvailable)
	return scanWindow(row)
}

func (r *PgRepository) ListWindows(ctx context.Context, staffID uuid.UUID) ([]AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+windowColumns+`
		FROM staff_availability
		WHERE staff_id = $1
		ORDER BY day_of_week, start_time
	`, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWindows(rows)
}

func (r *PgRepository) ListOpenWindowsForDay(ctx context.Context, staffID uuid.UUID, dayOfWeek int) ([]AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+windowColumns+`
		FROM staff_availability
		WHERE staff_id = $1
		  AND day_of_week = $2
		  AND is_available
		ORDER BY start_time
	`, staffID, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWindows(rows)
}

func collectWindows(rows pgx.Rows) ([]AvailabilityWindow, error) {
	var result []AvailabilityWindow
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}
	return result, rows.Err()
}

func (r *PgRepository) SetWindowAvailable(ctx context.Context, id, staffID uuid.UUID, available bool) (*AvailabilityWindow, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE staff_availability
		SET is_available = $3,
		    updated_at = now()
		WHERE id = $1 AND staff_id = $2
		RETURNING `+windowColumns+`
	`, id, staffID, available)
	return scanWindow(row)
}

func (r *PgRepository) DeleteWindow(ctx context.Context, id, staffID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM staff_availability WHERE id = $1 AND staff_id = $2
	`, id, staffID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}

// Appointments

// CreateAppointment inserts a pending appointment only if no pending or
// approved appointment for the same staff member and date overlaps the
// requested range. The check and the insert are one statement, so two racing
// bookings cannot both succeed even if the advisory lock is lost.
func (r *PgRepository) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, student_id, staff_id, appointment_date, start_time, end_time, status, subject, notes, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5::time, $6::time, 'pending', $7, $8, now(), now()
		WHERE NOT EXISTS (
			SELECT 1 FROM appointments
			WHERE staff_id = $3
			  AND appointment_date = $4
			  AND status IN ('pending', 'approved')
			  AND start_time < $6::time
			  AND end_time > $5::time
		)
		RETURNING `+appointmentColumns+`
	`, a.ID, a.StudentID, a.StaffID, a.Date, a.StartTime, a.EndTime, a.Subject, a.Notes)

	created, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+` FROM appointments WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointmentsForStudent(ctx context.Context, studentID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	return r.listAppointments(ctx, `student_id`, studentID, from, to)
}

func (r *PgRepository) ListAppointmentsForStaff(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	return r.listAppointments(ctx, `staff_id`, staffID, from, to)
}

func (r *PgRepository) listAppointments(ctx context.Context, ownerColumn string, ownerID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE `+ownerColumn+` = $1
		  AND appointment_date >= $2
		  AND appointment_date <= $3
		ORDER BY appointment_date DESC, start_time DESC
	`, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (r *PgRepository) ListBlockingAppointments(ctx context.Context, staffID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE staff_id = $1
		  AND appointment_date = $2
		  AND status IN ('pending', 'approved')
		ORDER BY start_time
	`, staffID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)
	return scanAppointment(row)
}

func (r *PgRepository) RescheduleAppointment(ctx context.Context, id, studentID, staffID uuid.UUID, date time.Time, start, end string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET staff_id = $3,
		    appointment_date = $4,
		    start_time = $5::time,
		    end_time = $6::time,
		    updated_at = now()
		WHERE id = $1
		  AND student_id = $2
		  AND status = 'pending'
		  AND NOT EXISTS (
			SELECT 1 FROM appointments other
			WHERE other.staff_id = $3
			  AND other.appointment_date = $4
			  AND other.id != $1
			  AND other.status IN ('pending', 'approved')
			  AND other.start_time < $6::time
			  AND other.end_time > $5::time
		  )
		RETURNING `+appointmentColumns+`
	`, id, studentID, staffID, date, start, end)

	updated, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return updated, nil
}

func (r *PgRepository) SetStaffNotes(ctx context.Context, id, staffID uuid.UUID, notes string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET staff_notes = $3,
		    updated_at = now()
		WHERE id = $1 AND staff_id = $2
		RETURNING `+appointmentColumns+`
	`, id, staffID, notes)
	return scanAppointment(row)
}

// Notifications

func (r *PgRepository) CreateNotification(ctx context.Context, n *Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, title, message, type, is_read, appointment_id, created_at)
		VALUES ($1, $2, $3, $4, $5, false, $6, now())
	`, n.ID, n.UserID, n.Title, n.Message, n.Type, n.AppointmentID)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *PgRepository) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]Notification, error) {
	q := `
		SELECT id, user_id, title, message, type, is_read, appointment_id, created_at
		FROM notifications
		WHERE user_id = $1`
	if unreadOnly {
		q += ` AND NOT is_read`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.AppointmentID, &n.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *PgRepository) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *PgRepository) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notifications SET is_read = true WHERE user_id = $1 AND NOT is_read
	`, userID)
	return err
}

func (r *PgRepository) DeleteNotification(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM notifications WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// Reminder worker

func (r *PgRepository) FindApprovedNeedingReminder(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.status = 'approved'
		  AND a.appointment_date + a.start_time >= $1
		  AND a.appointment_date + a.start_time < $2
		  AND NOT EXISTS (
			SELECT 1 FROM notifications n
			WHERE n.appointment_id = a.id AND n.type = 'reminder'
		  )
		ORDER BY a.appointment_date, a.start_time
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// Reporting

func (r *PgRepository) MonthlyReport(ctx context.Context, staffID uuid.UUID) ([]ReportRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(appointment_date, 'YYYY-MM') AS month, status, count(*)
		FROM appointments
		WHERE staff_id = $1
		GROUP BY month, status
		ORDER BY month DESC, status
	`, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ReportRow
	for rows.Next() {
		var row ReportRow
		if err := rows.Scan(&row.Month, &row.Status, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *PgRepository) StudentReport(ctx context.Context, staffID uuid.UUID) ([]StudentReportRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.student_id, p.full_name, count(*)
		FROM appointments a
		JOIN user_profiles p ON p.id = a.student_id
		WHERE a.staff_id = $1
		GROUP BY a.student_id, p.full_name
		ORDER BY count(*) DESC, p.full_name
	`, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StudentReportRow
	for rows.Next() {
		var row StudentReportRow
		if err := rows.Scan(&row.StudentID, &row.FullName, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
