package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/campusbook/appointment-booking/internal/auth"
	"github.com/campusbook/appointment-booking/internal/booking"
)

// seedDemoStore builds the offline fixture store: a handful of staff with
// weekday availability and a few students. Every account logs in with the
// same well-known password so the demo is usable without a database.
func seedDemoStore() *booking.MemRepository {
	repo := booking.NewMemRepository()
	ctx := context.Background()

	hash, err := auth.HashPassword("demo-password")
	if err != nil {
		log.Fatalf("hash demo password: %v", err)
	}

	departments := []string{"Mathematics", "Computer Science", "Physics", "Student Services"}

	svc := booking.NewService(repo, booking.NewLocalLocker(), time.Hour)

	for i := 0; i < 4; i++ {
		dept := departments[i%len(departments)]
		staff, err := svc.Register(ctx, booking.RegisterParams{
			Email:        fmt.Sprintf("staff%d@demo.local", i+1),
			PasswordHash: hash,
			Role:         booking.RoleStaff,
			FullName:     gofakeit.Name(),
			Department:   &dept,
		})
		if err != nil {
			log.Fatalf("seed demo staff: %v", err)
		}

		actor := booking.Actor{ProfileID: staff.ID, Role: booking.RoleStaff}
		for day := 1; day <= 5; day++ { // Monday through Friday
			if _, err := svc.AddWindow(ctx, actor, booking.WindowParams{
				DayOfWeek: day,
				StartTime: "09:00",
				EndTime:   "12:00",
			}); err != nil {
				log.Fatalf("seed demo availability: %v", err)
			}
		}
	}

	for i := 0; i < 6; i++ {
		if _, err := svc.Register(ctx, booking.RegisterParams{
			Email:        fmt.Sprintf("student%d@demo.local", i+1),
			PasswordHash: hash,
			Role:         booking.RoleStudent,
			FullName:     gofakeit.Name(),
		}); err != nil {
			log.Fatalf("seed demo student: %v", err)
		}
	}

	log.Println("demo store ready: staff1..4@demo.local / student1..6@demo.local, password demo-password")
	return repo
}
