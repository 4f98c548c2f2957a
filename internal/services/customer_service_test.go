package services

import (
	"context"
	"errors"
	"testing"

	"github.com/huertohogar/storefront/internal/repositories/memory"
)

func TestCustomerServiceRegister(t *testing.T) {
	notifier := &captureNotifier{}
	svc, err := NewCustomerService(CustomerServiceDeps{
		Customers:   memory.NewCustomerStore(),
		Notifier:    notifier,
		Clock:       newFakeClock().Now,
		IDGenerator: func() string { return "cust-1" },
	})
	if err != nil {
		t.Fatalf("NewCustomerService: %v", err)
	}
	ctx := context.Background()

	customer, err := svc.Register(ctx, RegisterCustomerCommand{
		RUT:     "12345678-5",
		Name:    "Ana",
		Email:   "Ana@Gmail.com",
		Address: &Address{Street: "Los Aromos 12", City: "Talca", Region: "Maule"},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if customer.ID != "cust-1" || customer.RUT != "12.345.678-5" || customer.Email != "ana@gmail.com" || customer.Points != 0 {
		t.Fatalf("unexpected customer %+v", customer)
	}
	if len(customer.Addresses) != 1 {
		t.Fatalf("expected initial address, got %+v", customer.Addresses)
	}

	got, err := svc.Get(ctx, "cust-1")
	if err != nil || got.Name != "Ana" {
		t.Fatalf("Get: %+v err=%v", got, err)
	}
	if _, err := svc.Get(ctx, "ghost"); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestCustomerServiceRegisterValidation(t *testing.T) {
	notifier := &captureNotifier{}
	ids := 0
	svc, err := NewCustomerService(CustomerServiceDeps{
		Customers: memory.NewCustomerStore(),
		Notifier:  notifier,
		IDGenerator: func() string {
			ids++
			return string(rune('a' + ids))
		},
	})
	if err != nil {
		t.Fatalf("NewCustomerService: %v", err)
	}
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterCustomerCommand{RUT: "12345678-9", Name: "Ana", Email: "ana@gmail.com"}); !errors.Is(err, ErrCustomerInvalidInput) {
		t.Fatalf("expected invalid RUT, got %v", err)
	}
	if msg := notifier.last().message; msg != "El RUT ingresado no es válido." {
		t.Fatalf("unexpected notification %q", msg)
	}
	if _, err := svc.Register(ctx, RegisterCustomerCommand{RUT: "12345678-5", Name: "Ana", Email: "ana@hotmail.com"}); !errors.Is(err, ErrCustomerInvalidInput) {
		t.Fatalf("expected invalid email, got %v", err)
	}
	if _, err := svc.Register(ctx, RegisterCustomerCommand{RUT: "12345678-5", Name: " ", Email: "ana@duoc.cl"}); !errors.Is(err, ErrCustomerInvalidInput) {
		t.Fatalf("expected invalid name, got %v", err)
	}

	if _, err := svc.Register(ctx, RegisterCustomerCommand{RUT: "12345678-5", Name: "Ana", Email: "ana@duoc.cl"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterCustomerCommand{RUT: "12.345.678-5", Name: "Otra", Email: "otra@duoc.cl"}); !errors.Is(err, ErrCustomerConflict) {
		t.Fatalf("expected duplicate RUT conflict, got %v", err)
	}
}

func TestCustomerServiceEnsureAdmin(t *testing.T) {
	store := memory.NewCustomerStore()
	svc, err := NewCustomerService(CustomerServiceDeps{Customers: store, Clock: newFakeClock().Now})
	if err != nil {
		t.Fatalf("NewCustomerService: %v", err)
	}
	ctx := context.Background()

	admin, err := svc.EnsureAdmin(ctx, AdminAccount{CustomerID: "admin"})
	if err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if !admin.IsAdmin || admin.Email != "admin@huertohogar.cl" || admin.RUT != "1-9" {
		t.Fatalf("unexpected admin %+v", admin)
	}

	again, err := svc.EnsureAdmin(ctx, AdminAccount{CustomerID: "admin"})
	if err != nil || again.ID != "admin" {
		t.Fatalf("second EnsureAdmin: %+v err=%v", again, err)
	}

	if err := store.Insert(ctx, Customer{ID: "ops", RUT: "12.345.678-5", Name: "Ops", Email: "ops@gmail.com"}); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	promoted, err := svc.EnsureAdmin(ctx, AdminAccount{CustomerID: "ops"})
	if err != nil || !promoted.IsAdmin {
		t.Fatalf("expected promotion, got %+v err=%v", promoted, err)
	}
	stored, _ := svc.Get(ctx, "ops")
	if !stored.IsAdmin {
		t.Fatalf("expected stored admin flag, got %+v", stored)
	}

	if _, err := svc.EnsureAdmin(ctx, AdminAccount{}); !errors.Is(err, ErrCustomerInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
