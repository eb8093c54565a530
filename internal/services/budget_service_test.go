package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBudgetService_CRUD(t *testing.T) {
	s := NewBudgetService(newServiceDB(t))
	ctx := context.Background()

	b, err := s.Create(ctx, "u1", "food", "2026-10", dec("300"))
	if err != nil || b.Category != "Food" {
		t.Fatalf("Create = %+v, %v", b, err)
	}
	if _, err := s.Create(ctx, "u1", "FOOD", "2026-10", dec("100")); !errors.Is(err, ErrBudgetExists) {
		t.Fatalf("duplicate err = %v; want ErrBudgetExists", err)
	}
	if _, err := s.Create(ctx, "u1", "food", "2026-13", dec("100")); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("bad month err = %v", err)
	}
	if _, err := s.Create(ctx, "u1", "food", "2026-11", dec("0")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero limit err = %v", err)
	}

	up, err := s.UpdateLimit(ctx, "u1", b.ID, dec("450.5"))
	if err != nil || !up.Limit.Equal(dec("450.5")) {
		t.Fatalf("UpdateLimit = %+v, %v", up, err)
	}
	if _, err := s.UpdateLimit(ctx, "u2", b.ID, dec("1")); !errors.Is(err, ErrBudgetNotFound) {
		t.Fatalf("foreign update err = %v", err)
	}

	list, err := s.List(ctx, "u1", "2026-10")
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %+v, %v", list, err)
	}
	if _, err := s.List(ctx, "u1", "oct"); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("List bad month err = %v", err)
	}

	if err := s.Delete(ctx, "u1", b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "u1", b.ID); !errors.Is(err, ErrBudgetNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestBudgetService_Status(t *testing.T) {
	db := newServiceDB(t)
	bs := NewBudgetService(db)
	es := NewExpenseService(db)
	ctx := context.Background()

	if _, err := bs.Create(ctx, "u1", "Food", "2026-10", dec("200")); err != nil {
		t.Fatalf("budget: %v", err)
	}
	if _, err := bs.Create(ctx, "u1", "Transport", "2026-10", dec("50")); err != nil {
		t.Fatalf("budget: %v", err)
	}
	seed := []ExpenseInput{
		{Amount: dec("120.25"), Category: "food", Date: time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC)},
		{Amount: dec("29.75"), Category: "food", Date: time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC)},
		{Amount: dec("500"), Category: "food", Date: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)},
		{Amount: dec("60"), Category: "transport", Date: time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, in := range seed {
		if _, err := es.Create(ctx, "u1", in); err != nil {
			t.Fatalf("expense: %v", err)
		}
	}

	st, err := bs.Status(ctx, "u1", "2026-10")
	if err != nil || len(st) != 2 {
		t.Fatalf("Status = %+v, %v", st, err)
	}
	food, transport := st[0], st[1]
	if !food.Spent.Equal(dec("150")) || !food.Remaining.Equal(dec("50")) || food.Percentage != 75 || food.OverBudget {
		t.Fatalf("food status = %+v", food)
	}
	if !transport.Spent.Equal(dec("60")) || !transport.Remaining.Equal(dec("-10")) || transport.Percentage != 120 || !transport.OverBudget {
		t.Fatalf("transport status = %+v", transport)
	}

	if _, err := bs.Status(ctx, "u1", ""); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("empty month err = %v", err)
	}
}
