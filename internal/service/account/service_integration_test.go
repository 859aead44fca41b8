package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"offers-marketplace/internal/dbtest"
	"offers-marketplace/internal/domain"
	accountrepo "offers-marketplace/internal/repository/account"
	tokenrepo "offers-marketplace/internal/repository/token"
)

func TestSignupLoginLogout_Integration(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)

	tokens := tokenrepo.NewPostgres(pool, nil)
	svc := New(accountrepo.NewPostgres(pool, nil), tokens, time.Hour, nil)

	password := "Abcdefg1"
	account, err := svc.Signup(ctx, domain.Anonymous(), SignupInput{Email: "Integration@Example.com", Password: password})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if account.ID == "" || account.Email != "integration@example.com" || account.Role != domain.RoleCustomer {
		t.Fatalf("unexpected account %+v", account)
	}

	_, err = svc.Signup(ctx, domain.Anonymous(), SignupInput{Email: "INTEGRATION@example.com", Password: password})
	var fields domain.FieldErrors
	if !errors.As(err, &fields) || fields["email"] == "" {
		t.Fatalf("expected email field error for duplicate, got %v", err)
	}

	_, token, err := svc.Login(ctx, "integration@example.com", password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	found, err := svc.LookupByToken(ctx, token)
	if err != nil || found.ID != account.ID {
		t.Fatalf("lookup: %+v %v", found, err)
	}

	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.LookupByToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token after logout, got %v", err)
	}
}

func TestPurgeExpiredTokens_Integration(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	accountID := dbtest.InsertAccount(t, pool, "purge@example.com", "customer")

	tokens := tokenrepo.NewPostgres(pool, nil)
	now := time.Now().UTC()
	for i, exp := range []time.Time{now.Add(-time.Hour), now.Add(-time.Minute), now.Add(time.Hour)} {
		tok := tokenrepo.Token{Token: "tok-" + string(rune('a'+i)), AccountID: accountID, ExpiresAt: exp}
		if err := tokens.Create(ctx, tok); err != nil {
			t.Fatalf("create token: %v", err)
		}
	}
	if err := tokens.Create(ctx, tokenrepo.Token{Token: "tok-a", AccountID: accountID, ExpiresAt: now}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected duplicate token to be rejected, got %v", err)
	}

	svc := New(accountrepo.NewPostgres(pool, nil), tokens, time.Hour, nil)
	n, err := svc.PurgeExpiredTokens(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 2 {
		t.Fatalf("purged %d, want 2", n)
	}
	if _, err := tokens.Get(ctx, "tok-c"); err != nil {
		t.Fatalf("live token should survive: %v", err)
	}
}
