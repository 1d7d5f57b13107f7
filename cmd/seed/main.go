package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusbook/appointment-booking/internal/auth"
	"github.com/campusbook/appointment-booking/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	// one hash for every seeded account; bcrypt per row would be slow
	hash, err := auth.HashPassword("seed-password")
	if err != nil {
		log.Fatalf("hash seed password: %v", err)
	}

	staffIDs, err := seedStaff(context.Background(), pool, hash, 20)
	if err != nil {
		log.Fatalf("seed staff: %v", err)
	}
	if err := seedAvailability(context.Background(), pool, staffIDs); err != nil {
		log.Fatalf("seed availability: %v", err)
	}
	if err := seedStudents(context.Background(), pool, hash, 500); err != nil {
		log.Fatalf("seed students: %v", err)
	}

	log.Println("seed complete")
}

func seedStaff(ctx context.Context, pool *pgxpool.Pool, hash string, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d staff profiles", count)

	departments := []string{
		"Mathematics",
		"Computer Science",
		"Physics",
		"Chemistry",
		"Biology",
		"History",
		"Economics",
		"Student Services",
		"Career Advising",
		"Financial Aid",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		userID := uuid.New()
		profileID := uuid.New()
		email := gofakeit.Email()
		dept := departments[gofakeit.Number(0, len(departments)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO user_credentials (user_id, email, password_hash, created_at)
			VALUES ($1, $2, $3, now())
		`, userID, email, hash)
		if err != nil {
			return nil, err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO user_profiles (id, user_id, role, full_name, email, department, created_at, updated_at)
			VALUES ($1, $2, 'staff', $3, $4, $5, now(), now())
		`, profileID, userID, gofakeit.Name(), email, dept)
		if err != nil {
			return nil, err
		}

		ids = append(ids, profileID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("staff seeded")
	return ids, nil
}

func seedAvailability(ctx context.Context, pool *pgxpool.Pool, staffIDs []uuid.UUID) error {
	log.Printf("seeding availability for %d staff", len(staffIDs))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, staffID := range staffIDs {
		for day := 1; day <= 5; day++ { // Monday through Friday
			// morning block, and an afternoon block most days
			_, err := tx.Exec(ctx, `
				INSERT INTO staff_availability (id, staff_id, day_of_week, start_time, end_time, is_available, created_at, updated_at)
				VALUES ($1, $2, $3, '09:00'::time, '12:00'::time, true, now(), now())
			`, uuid.New(), staffID, day)
			if err != nil {
				return err
			}

			if gofakeit.Bool() {
				_, err := tx.Exec(ctx, `
					INSERT INTO staff_availability (id, staff_id, day_of_week, start_time, end_time, is_available, created_at, updated_at)
					VALUES ($1, $2, $3, '14:00'::time, '17:00'::time, true, now(), now())
				`, uuid.New(), staffID, day)
				if err != nil {
					return err
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("availability seeded")
	return nil
}

func seedStudents(ctx context.Context, pool *pgxpool.Pool, hash string, count int) error {
	log.Printf("seeding %d students", count)

	const batchSize = 100

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			userID := uuid.New()
			email := gofakeit.Email()
			phone := gofakeit.Phone()

			_, err := tx.Exec(ctx, `
				INSERT INTO user_credentials (user_id, email, password_hash, created_at)
				VALUES ($1, $2, $3, now())
			`, userID, email, hash)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO user_profiles (id, user_id, role, full_name, email, phone, created_at, updated_at)
				VALUES ($1, $2, 'student', $3, $4, $5, now(), now())
			`, uuid.New(), userID, gofakeit.Name(), email, phone)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("students seeded: %d/%d", end, count)
	}

	log.Println("students seeded")
	return nil
}
