package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSavingsService_Lifecycle(t *testing.T) {
	s := NewSavingsService(newServiceDB(t))
	ctx := context.Background()

	dl := time.Date(2027, 6, 1, 18, 0, 0, 0, time.UTC)
	g, err := s.Create(ctx, "u1", SavingsInput{Name: "  Japan   trip ", TargetAmount: dec("1500"), Deadline: &dl})
	if err != nil || g.Name != "Japan trip" || !g.CurrentAmount.IsZero() || g.Deadline.Hour() != 0 {
		t.Fatalf("Create = %+v, %v", g, err)
	}
	if _, err := s.Create(ctx, "u1", SavingsInput{Name: " ", TargetAmount: dec("1")}); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("blank name err = %v", err)
	}

	g, err = s.Contribute(ctx, "u1", g.ID, dec("1000"))
	if err != nil || !g.CurrentAmount.Equal(dec("1000")) || g.Reached() {
		t.Fatalf("Contribute = %+v, %v", g, err)
	}
	g, err = s.Contribute(ctx, "u1", g.ID, dec("500"))
	if err != nil || !g.Reached() {
		t.Fatalf("goal should be reached: %+v, %v", g, err)
	}
	if _, err := s.Contribute(ctx, "u1", g.ID, dec("-5")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative contribution err = %v", err)
	}
	if _, err := s.Contribute(ctx, "u2", g.ID, dec("5")); !errors.Is(err, ErrGoalNotFound) {
		t.Fatalf("foreign contribution err = %v", err)
	}

	up, err := s.Update(ctx, "u1", g.ID, SavingsInput{Name: "Japan", TargetAmount: dec("2000")})
	if err != nil || up.Name != "Japan" || up.Reached() || up.Deadline != nil {
		t.Fatalf("Update = %+v, %v", up, err)
	}

	list, err := s.List(ctx, "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %+v, %v", list, err)
	}
	if err := s.Delete(ctx, "u1", g.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "u1", g.ID); !errors.Is(err, ErrGoalNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}
