package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/memory"
)

func newAccountService(t *testing.T) (*AccountService, *memory.Store) {
	t.Helper()
	store := memory.New()
	counter := 0
	ids := func() string {
		counter++
		return fmt.Sprintf("acc-%d", counter)
	}
	now := func() time.Time { return serviceNow }
	return NewAccountService(store, NewArgon2idHasher(fastArgon2idParams), VerifyPassword, ids, now, nil), store
}

func TestAccountService_CreateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("requires administrator privileges", func(t *testing.T) {
		svc, _ := newAccountService(t)
		_, err := svc.CreateAccount(ctx, CreateAccountParams{
			Principal: teacherPrincipal,
			Input:     AccountInput{Username: "new", Password: "long enough"},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("defaults to the generic role and stores a hash", func(t *testing.T) {
		svc, store := newAccountService(t)
		account, err := svc.CreateAccount(ctx, CreateAccountParams{
			Principal: adminPrincipal,
			Input:     AccountInput{Username: "  guest ", Password: "long enough"},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if account.ID != "acc-1" || account.Username != "guest" || account.Role != booking.RoleGeneric {
			t.Fatalf("unexpected account: %+v", account)
		}
		if !account.CreatedAt.Equal(serviceNow) {
			t.Fatalf("expected created_at from injected clock, got %v", account.CreatedAt)
		}

		record, err := store.GetAccount(ctx, "acc-1")
		if err != nil {
			t.Fatalf("expected stored account, got %v", err)
		}
		if record.PasswordHash == "" || record.PasswordHash == "long enough" {
			t.Fatalf("expected hashed password, got %q", record.PasswordHash)
		}
	})

	t.Run("validates username, role and password length", func(t *testing.T) {
		svc, _ := newAccountService(t)
		_, err := svc.CreateAccount(ctx, CreateAccountParams{
			Principal: adminPrincipal,
			Input:     AccountInput{Username: " ", Password: "short", Role: booking.Role("janitor")},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"username", "role", "password"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects duplicate usernames ignoring case", func(t *testing.T) {
		svc, _ := newAccountService(t)
		params := CreateAccountParams{Principal: adminPrincipal, Input: AccountInput{Username: "Sam", Password: "long enough", Role: booking.RoleStudent}}
		if _, err := svc.CreateAccount(ctx, params); err != nil {
			t.Fatalf("expected first account to be created, got %v", err)
		}
		params.Input.Username = "sam"
		if _, err := svc.CreateAccount(ctx, params); !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestAccountService_Authenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAccountService(t)
	created, err := svc.CreateAccount(ctx, CreateAccountParams{
		Principal: adminPrincipal,
		Input:     AccountInput{Username: "Tina", Password: "correct horse", Role: booking.RoleTeacher},
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}

	t.Run("accepts the right password", func(t *testing.T) {
		account, err := svc.Authenticate(ctx, "tina", "correct horse")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if account.ID != created.ID || account.Role != booking.RoleTeacher {
			t.Fatalf("unexpected account: %+v", account)
		}
	})

	cases := map[string][2]string{
		"wrong password": {"Tina", "wrong horse"},
		"unknown user":   {"nobody", "correct horse"},
		"empty password": {"Tina", ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Authenticate(ctx, tc[0], tc[1]); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestAccountService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, store := newAccountService(t)
	created, err := svc.CreateAccount(ctx, CreateAccountParams{
		Principal: adminPrincipal,
		Input:     AccountInput{Username: "Sam", Password: "long enough", Role: booking.RoleStudent},
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}

	if _, err := svc.UpdateAccount(ctx, UpdateAccountParams{Principal: studentPrincipal, AccountID: created.ID, Username: "Sam", Role: booking.RoleAdministrator}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	updated, err := svc.UpdateAccount(ctx, UpdateAccountParams{Principal: adminPrincipal, AccountID: created.ID, Username: "Samuel", Role: booking.RoleTeacher})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if updated.Username != "Samuel" || updated.Role != booking.RoleTeacher {
		t.Fatalf("unexpected update: %+v", updated)
	}
	record, _ := store.GetAccount(ctx, created.ID)
	if record.PasswordHash == "" {
		t.Fatal("expected password hash to be preserved")
	}

	if _, err := svc.UpdateAccount(ctx, UpdateAccountParams{Principal: adminPrincipal, AccountID: "ghost", Username: "x", Role: booking.RoleGeneric}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := svc.DeleteAccount(ctx, teacherPrincipal, created.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := svc.DeleteAccount(ctx, adminPrincipal, created.ID); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if _, err := store.GetAccount(ctx, created.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected account removed, got %v", err)
	}
	if err := svc.DeleteAccount(ctx, adminPrincipal, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestAccountService_GetAndList(t *testing.T) {
	ctx := context.Background()
	svc, store := newAccountService(t)
	for _, a := range []persistence.Account{
		{ID: "a-student", Username: "Sam", Role: "student"},
		{ID: "a-other", Username: "Olga", Role: "student"},
	} {
		if err := store.CreateAccount(ctx, a); err != nil {
			t.Fatalf("seed account: %v", err)
		}
	}

	if _, err := svc.GetAccount(ctx, studentPrincipal, "a-student"); err != nil {
		t.Fatalf("expected self lookup to succeed, got %v", err)
	}
	if _, err := svc.GetAccount(ctx, studentPrincipal, "a-other"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.ListAccounts(ctx, studentPrincipal); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	list, err := svc.ListAccounts(ctx, adminPrincipal)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(list) != 2 || list[0].Username != "Olga" {
		t.Fatalf("expected accounts ordered by username, got %+v", list)
	}
}

func TestAccountService_ResolvePrincipal(t *testing.T) {
	ctx := context.Background()
	svc, store := newAccountService(t)
	if err := store.CreateAccount(ctx, persistence.Account{ID: "a-teacher", Username: "Tina", Role: "teacher"}); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	if err := store.CreateAccount(ctx, persistence.Account{ID: "a-odd", Username: "Odd", Role: "unknown"}); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	p, err := svc.ResolvePrincipal(ctx, "a-teacher")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if p.AccountID != "a-teacher" || p.Role != booking.RoleTeacher {
		t.Fatalf("unexpected principal: %+v", p)
	}

	p, err = svc.ResolvePrincipal(ctx, "a-odd")
	if err != nil || p.Role != booking.RoleGeneric {
		t.Fatalf("expected unknown role to resolve as generic, got %+v (%v)", p, err)
	}

	for _, id := range []string{"", "  ", "ghost"} {
		if _, err := svc.ResolvePrincipal(ctx, id); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for %q, got %v", id, err)
		}
	}
}
