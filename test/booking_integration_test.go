//go:build integration

package integration

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"

	repo "github.com/ogurasousui/workforce-core/internal/adapters/repository/postgres"
	"github.com/ogurasousui/workforce-core/internal/core/absence"
	"github.com/ogurasousui/workforce-core/internal/core/permission"
	"github.com/ogurasousui/workforce-core/internal/core/user"
	"github.com/ogurasousui/workforce-core/internal/platform/config"
	pg "github.com/ogurasousui/workforce-core/internal/platform/db/postgres"
)

const (
	migrationsDir = "../assets/migrations"
	seedsDir      = "../assets/seeds"
)

const organizationID = "org-it"

type env struct {
	users       *user.Service
	absences    *absence.Service
	absenceRepo *repo.AbsenceRepository
	userRepo    *repo.UserRepository
}

func setup(t *testing.T) (context.Context, *env) {
	t.Helper()

	cfg, err := config.Load(configPathFromEnv())
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if err := resetMigrations(cfg.Database.DSN(), migrationsDir); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	if err := applySeeds(cfg.Database.DSN(), seedsDir); err != nil {
		t.Fatalf("failed to apply seeds: %v", err)
	}

	ctx := context.Background()
	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	tx := pg.NewTransactionManager(pool)
	absenceRepo := repo.NewAbsenceRepository(pool)
	userRepo := repo.NewUserRepository(pool)

	return ctx, &env{
		users:       user.NewService(userRepo, nil, nil),
		absences:    absence.NewService(absenceRepo, tx, nil, nil, nil, zerolog.Nop(), absence.Config{}),
		absenceRepo: absenceRepo,
		userRepo:    userRepo,
	}
}

func bootstrapManager() permission.Actor {
	return permission.Actor{
		ID:             "bootstrap-manager",
		OrganizationID: organizationID,
		Role:           permission.RoleManager,
		Email:          "bootstrap@example.com",
	}
}

func createEmployee(t *testing.T, ctx context.Context, users *user.Service, email string) permission.Actor {
	t.Helper()

	created, err := users.CreateUser(ctx, bootstrapManager(), user.CreateUserInput{
		OrganizationID: organizationID,
		Email:          email,
		Name:           "Integration Employee",
		Role:           permission.RoleEmployee,
	})
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}

	return permission.Actor{
		ID:             created.ID,
		OrganizationID: created.OrganizationID,
		Role:           created.Role,
		Email:          string(created.Email),
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestUserLifecycleIntegration(t *testing.T) {
	ctx, env := setup(t)
	manager := bootstrapManager()

	employee := createEmployee(t, ctx, env.users, "lifecycle@example.com")

	found, err := env.userRepo.FindByID(ctx, employee.ID)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if string(found.Snapshot().Email) != "lifecycle@example.com" {
		t.Fatalf("unexpected email %s", found.Snapshot().Email)
	}

	newName := "Renamed Employee"
	updated, err := env.users.UpdateProfile(ctx, manager, user.UpdateProfileInput{ID: employee.ID, Name: &newName})
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if updated.Name != newName {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := env.users.DeleteUser(ctx, manager, user.DeleteUserInput{ID: employee.ID}); err != nil {
		t.Fatalf("DeleteUser error: %v", err)
	}

	if _, err := env.userRepo.FindByID(ctx, employee.ID); !errors.Is(err, user.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	restored, err := env.users.RestoreUser(ctx, manager, user.RestoreUserInput{ID: employee.ID})
	if err != nil {
		t.Fatalf("RestoreUser error: %v", err)
	}
	if restored.DeletedAt != nil {
		t.Fatalf("expected restored user to be live, got %+v", restored)
	}
}

func TestBookingConcurrencyIntegration(t *testing.T) {
	ctx, env := setup(t)
	employee := createEmployee(t, ctx, env.users, "booker@example.com")

	start := day(2025, time.July, 7)
	end := day(2025, time.July, 11)

	const contenders = 5
	var wg sync.WaitGroup
	results := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, err := env.absences.SubmitAbsence(ctx, employee, absence.SubmitAbsenceInput{
				StartDate: start,
				EndDate:   end,
				Reason:    "annual leave for a family trip",
			})
			results[slot] = err
		}(i)
	}
	wg.Wait()

	var winners int
	for _, err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, absence.ErrOverlappingRequest), errors.Is(err, absence.ErrBookingContention):
		default:
			t.Fatalf("unexpected submission error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}

	dr, err := absence.NewDateRange(start, end)
	if err != nil {
		t.Fatalf("NewDateRange error: %v", err)
	}
	stored, err := env.absenceRepo.FindOverlapping(ctx, employee.ID, dr, "")
	if err != nil {
		t.Fatalf("FindOverlapping error: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected exactly one stored request, got %d", len(stored))
	}
}

func TestDisjointBookingsIntegration(t *testing.T) {
	ctx, env := setup(t)
	employee := createEmployee(t, ctx, env.users, "traveler@example.com")

	ranges := [][2]time.Time{
		{day(2025, time.August, 4), day(2025, time.August, 8)},
		{day(2025, time.August, 11), day(2025, time.August, 15)},
		{day(2025, time.August, 18), day(2025, time.August, 22)},
		{day(2025, time.August, 25), day(2025, time.August, 29)},
	}

	var wg sync.WaitGroup
	results := make([]error, len(ranges))
	for i, r := range ranges {
		wg.Add(1)
		go func(slot int, window [2]time.Time) {
			defer wg.Done()
			_, err := env.absences.SubmitAbsence(ctx, employee, absence.SubmitAbsenceInput{
				StartDate: window[0],
				EndDate:   window[1],
				Reason:    "planned time off for the week",
			})
			results[slot] = err
		}(i, r)
	}
	wg.Wait()

	for i, err := range results {
		if err != nil {
			t.Fatalf("disjoint submission %d failed: %v", i, err)
		}
	}

	list, err := env.absences.ListAbsencesForUser(ctx, employee, absence.ListAbsencesInput{UserID: employee.ID, PageSize: 10})
	if err != nil {
		t.Fatalf("ListAbsencesForUser error: %v", err)
	}
	if len(list.Absences) != len(ranges) {
		t.Fatalf("expected %d stored requests, got %d", len(ranges), len(list.Absences))
	}
}

func TestBookingDecisionFlowIntegration(t *testing.T) {
	ctx, env := setup(t)
	manager := bootstrapManager()
	employee := createEmployee(t, ctx, env.users, "decided@example.com")

	submitted, err := env.absences.SubmitAbsence(ctx, employee, absence.SubmitAbsenceInput{
		StartDate: day(2025, time.September, 1),
		EndDate:   day(2025, time.September, 5),
		Reason:    "attending a family ceremony",
	})
	if err != nil {
		t.Fatalf("SubmitAbsence error: %v", err)
	}

	approved, err := env.absences.ApproveAbsence(ctx, manager, absence.DecideAbsenceInput{ID: submitted.ID})
	if err != nil {
		t.Fatalf("ApproveAbsence error: %v", err)
	}
	if approved.Status != absence.StatusApproved {
		t.Fatalf("expected approved status, got %s", approved.Status)
	}

	newStart := day(2025, time.September, 2)
	newEnd := day(2025, time.September, 6)
	if _, err := env.absences.RescheduleAbsence(ctx, employee, absence.RescheduleAbsenceInput{
		ID:        submitted.ID,
		StartDate: newStart,
		EndDate:   newEnd,
	}); err == nil {
		t.Fatal("expected reschedule of a decided request to fail")
	}

	overlapStart := day(2025, time.September, 5)
	if _, err := env.absences.SubmitAbsence(ctx, employee, absence.SubmitAbsenceInput{
		StartDate: overlapStart,
		EndDate:   day(2025, time.September, 8),
		Reason:    "extending the ceremony trip",
	}); !errors.Is(err, absence.ErrOverlappingRequest) {
		t.Fatalf("expected ErrOverlappingRequest, got %v", err)
	}

	adjacent, err := env.absences.SubmitAbsence(ctx, employee, absence.SubmitAbsenceInput{
		StartDate: day(2025, time.September, 6),
		EndDate:   day(2025, time.September, 8),
		Reason:    "recovering after the ceremony trip",
	})
	if err != nil {
		t.Fatalf("adjacent submission failed: %v", err)
	}
	if adjacent.Status != absence.StatusPending {
		t.Fatalf("expected pending status, got %s", adjacent.Status)
	}
}

func resetMigrations(dsn, dir string) error {
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func applySeeds(dsn, dir string) error {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func configPathFromEnv() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "../assets/local.yaml"
}
