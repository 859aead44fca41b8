package profile

import (
	"context"
	"errors"
	"testing"

	"offers-marketplace/internal/dbtest"
	"offers-marketplace/internal/domain"
)

func TestPostgres_CreateOncePerUser(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	userID := dbtest.InsertAccount(t, pool, "nurse@example.com", "customer")
	repo := NewPostgres(pool, nil)

	in := domain.Profile{
		UserID:           userID,
		FirstName:        "Ada",
		EmploymentStatus: "employed",
		Employer:         "nhs",
		IDCardFrontKey:   "id_cards/front.png",
		IDCardBackKey:    "id_cards/back.png",
	}
	created, err := repo.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.SubscriptionStatus {
		t.Fatalf("new profiles must start unsubscribed")
	}

	_, err = repo.Create(ctx, in)
	var conflict domain.ConflictError
	if !errors.As(err, &conflict) || conflict.Field != "user" {
		t.Fatalf("expected conflict on user, got %v", err)
	}

	updated, err := repo.SetSubscription(ctx, userID, true)
	if err != nil {
		t.Fatalf("SetSubscription: %v", err)
	}
	if !updated.SubscriptionStatus || updated.ID != created.ID {
		t.Fatalf("unexpected profile %+v", updated)
	}

	stranger := dbtest.InsertAccount(t, pool, "stranger@example.com", "customer")
	if _, err := repo.GetByUserID(ctx, stranger); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := repo.SetSubscription(ctx, stranger, true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgres_List(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool, nil)

	for _, p := range []struct {
		email, status, employer string
	}{
		{"ada@nhs.example.com", "employed", "nhs"},
		{"bob@police.example.com", "retired", "police"},
		{"cy_d@nhs.example.com", "volunteer", "nhs"},
	} {
		userID := dbtest.InsertAccount(t, pool, p.email, "customer")
		if _, err := repo.Create(ctx, domain.Profile{UserID: userID, EmploymentStatus: p.status, Employer: p.employer}); err != nil {
			t.Fatalf("Create %s: %v", p.email, err)
		}
		if p.status == "retired" {
			if _, err := repo.SetSubscription(ctx, userID, true); err != nil {
				t.Fatalf("SetSubscription: %v", err)
			}
		}
	}

	subscribed := true
	tests := []struct {
		name   string
		filter ListFilter
		want   int
	}{
		{"all", ListFilter{}, 3},
		{"employer", ListFilter{Employer: "nhs"}, 2},
		{"employment status", ListFilter{EmploymentStatus: "retired"}, 1},
		{"subscribed", ListFilter{Subscribed: &subscribed}, 1},
		{"email substring", ListFilter{Email: "NHS.EXAMPLE"}, 2},
		{"underscore is literal", ListFilter{Email: "y_d"}, 1},
		{"combined", ListFilter{Employer: "nhs", EmploymentStatus: "retired"}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, total, err := repo.List(ctx, tc.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if total != tc.want || len(got) != tc.want {
				t.Fatalf("total=%d len=%d want %d", total, len(got), tc.want)
			}
			for _, p := range got {
				if p.UserEmail == "" {
					t.Fatalf("profile %s has no email", p.ID)
				}
			}
		})
	}

	page, total, err := repo.List(ctx, ListFilter{Limit: 1, Offset: 1})
	if err != nil || total != 3 || len(page) != 1 {
		t.Fatalf("paged: err=%v total=%d len=%d", err, total, len(page))
	}
}
