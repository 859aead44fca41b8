package offer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"offers-marketplace/internal/domain"
	categoryrepo "offers-marketplace/internal/repository/category"
	offerrepo "offers-marketplace/internal/repository/offer"
	profilerepo "offers-marketplace/internal/repository/profile"
)

// memoryRepo keeps offers in insertion order and mimics the store's
// unique slug and search behaviour.
type memoryRepo struct {
	offers    []domain.Offer
	catOf     map[string]string
	subNameOf map[string]string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{catOf: map[string]string{}, subNameOf: map[string]string{}}
}

func (r *memoryRepo) Create(_ context.Context, o domain.Offer) (*domain.Offer, error) {
	for _, existing := range r.offers {
		if existing.Slug == o.Slug {
			return nil, domain.ConflictError{Field: "slug"}
		}
	}
	o.ID = uuid.NewString()
	r.offers = append(r.offers, o)
	return &o, nil
}

func (r *memoryRepo) GetBySlug(_ context.Context, slug string) (*domain.Offer, error) {
	for _, o := range r.offers {
		if o.Slug == slug {
			clone := o
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) List(_ context.Context, f offerrepo.ListFilter) ([]domain.Offer, int, error) {
	var out []domain.Offer
	for _, o := range r.offers {
		if f.OwnerID != "" && o.UserID != f.OwnerID {
			continue
		}
		if f.IsActive != nil && o.IsActive != *f.IsActive {
			continue
		}
		if f.UsageType != "" && o.UsageType != f.UsageType {
			continue
		}
		if f.Text != "" && !containsFold(o.BrandName, f.Text) && !containsFold(o.Description, f.Text) {
			continue
		}
		out = append(out, o)
	}
	total := len(out)
	if f.Offset < len(out) {
		out = out[f.Offset:]
	} else {
		out = nil
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (r *memoryRepo) Update(_ context.Context, o domain.Offer) (*domain.Offer, error) {
	for _, existing := range r.offers {
		if existing.ID != o.ID && existing.Slug == o.Slug {
			return nil, domain.ConflictError{Field: "slug"}
		}
	}
	for i := range r.offers {
		if r.offers[i].ID == o.ID {
			r.offers[i] = o
			return &o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	for i, o := range r.offers {
		if o.ID == id {
			r.offers = append(r.offers[:i], r.offers[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memoryRepo) Search(_ context.Context, m offerrepo.Match, query string) ([]domain.Offer, error) {
	q := strings.ToLower(query)
	has := func(s string) bool { return strings.Contains(strings.ToLower(s), q) }
	var out []domain.Offer
	for _, o := range r.offers {
		var hit bool
		switch m {
		case offerrepo.MatchOfferText:
			hit = has(o.BrandName) || has(o.Slug) || has(o.Description)
		case offerrepo.MatchCategoryName:
			hit = has(r.catOf[o.SubCategoryID])
		case offerrepo.MatchSubCategoryName:
			hit = has(r.subNameOf[o.SubCategoryID])
		}
		if hit {
			out = append(out, o)
		}
	}
	return out, nil
}

type stubSubCategories struct {
	categoryrepo.Repository
	ids map[string]bool
}

func (s stubSubCategories) GetSubCategoryByID(_ context.Context, id string) (*domain.SubCategory, error) {
	if !s.ids[id] {
		return nil, domain.ErrNotFound
	}
	return &domain.SubCategory{ID: id}, nil
}

type stubProfiles struct {
	subscribed map[string]bool
}

func (s stubProfiles) Create(context.Context, domain.Profile) (*domain.Profile, error) {
	return nil, errors.New("not implemented")
}

func (s stubProfiles) GetByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	sub, ok := s.subscribed[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Profile{UserID: userID, SubscriptionStatus: sub}, nil
}

func (s stubProfiles) SetSubscription(context.Context, string, bool) (*domain.Profile, error) {
	return nil, errors.New("not implemented")
}

func (s stubProfiles) List(context.Context, profilerepo.ListFilter) ([]domain.Profile, int, error) {
	return nil, 0, errors.New("not implemented")
}

type fixture struct {
	svc   *Service
	repo  *memoryRepo
	subID string

	root, staff, brandA, brandB, customer, subscriber domain.Caller
}

func newFixture() *fixture {
	f := &fixture{repo: newMemoryRepo(), subID: uuid.NewString()}
	f.root = domain.Caller{AccountID: uuid.NewString(), Authenticated: true, Superuser: true}
	f.staff = domain.Caller{AccountID: uuid.NewString(), Authenticated: true, Staff: true}
	f.brandA = domain.Caller{AccountID: uuid.NewString(), Authenticated: true, Role: domain.RoleBrand}
	f.brandB = domain.Caller{AccountID: uuid.NewString(), Authenticated: true, Role: domain.RoleBrand}
	f.customer = domain.Caller{AccountID: uuid.NewString(), Authenticated: true, Role: domain.RoleCustomer}
	f.subscriber = domain.Caller{AccountID: uuid.NewString(), Authenticated: true, Role: domain.RoleCustomer}

	subs := stubSubCategories{ids: map[string]bool{f.subID: true}}
	profiles := stubProfiles{subscribed: map[string]bool{f.customer.AccountID: false, f.subscriber.AccountID: true}}
	f.svc = New(f.repo, subs, profiles, nil)
	return f
}

func (f *fixture) input(brand string) OfferInput {
	pct := 15
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return OfferInput{
		SubCategory:     f.subID,
		BrandName:       brand,
		DiscountPercent: &pct,
		StartDate:       start,
		EndDate:         start.AddDate(0, 1, 0),
		RetailerURL:     "https://shop.example/deal",
	}
}

func fieldError(t *testing.T, err error, field string) {
	t.Helper()
	var fields domain.FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("expected FieldErrors with %q, got %v", field, err)
	}
	if fields[field] == "" {
		t.Fatalf("expected error on %q, got %v", field, fields)
	}
}

func TestCreate_ForcesAuthorForNonSuperusers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	in := f.input("Pizza Place")
	in.User = f.brandB.AccountID
	created, err := f.svc.Create(ctx, f.brandA, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.UserID != f.brandA.AccountID {
		t.Fatalf("author should be forced to caller, got %s", created.UserID)
	}
	if created.Slug != "pizza-place" || created.UsageType != domain.UsageMulti || !created.IsActive {
		t.Fatalf("unexpected defaults %+v", created)
	}

	in = f.input("Staff Made")
	in.User = f.brandB.AccountID
	created, err = f.svc.Create(ctx, f.staff, in)
	if err != nil {
		t.Fatalf("create as staff: %v", err)
	}
	if created.UserID != f.staff.AccountID {
		t.Fatalf("staff cannot assign authors, got %s", created.UserID)
	}

	in = f.input("On Behalf")
	in.User = f.brandB.AccountID
	created, err = f.svc.Create(ctx, f.root, in)
	if err != nil {
		t.Fatalf("create as superuser: %v", err)
	}
	if created.UserID != f.brandB.AccountID {
		t.Fatalf("superuser assignment ignored, got %s", created.UserID)
	}
}

func TestCreate_RejectsCallersAndBadInput(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, domain.Anonymous(), f.input("X")); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("anonymous: expected unauthorized, got %v", err)
	}
	if _, err := f.svc.Create(ctx, f.customer, f.input("X")); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("customer: expected forbidden, got %v", err)
	}

	if _, err := f.svc.Create(ctx, f.brandA, f.input("Same Name")); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := f.svc.Create(ctx, f.brandA, f.input("Same  name!"))
	fieldError(t, err, "slug")

	in := f.input("Both")
	amount := decimal.RequireFromString("5")
	in.DiscountAmount = &amount
	_, err = f.svc.Create(ctx, f.brandA, in)
	fieldError(t, err, "discount")

	in = f.input("Lost")
	in.SubCategory = uuid.NewString()
	_, err = f.svc.Create(ctx, f.brandA, in)
	fieldError(t, err, "subcategory")

	in = f.input("Bad User")
	in.User = "nobody"
	_, err = f.svc.Create(ctx, f.root, in)
	fieldError(t, err, "user")
}

func TestListScopes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for _, c := range []struct {
		caller domain.Caller
		brand  string
	}{{f.brandA, "A1"}, {f.brandA, "A2"}, {f.brandB, "B1"}} {
		if _, err := f.svc.Create(ctx, c.caller, f.input(c.brand)); err != nil {
			t.Fatalf("create %s: %v", c.brand, err)
		}
	}

	cases := []struct {
		name   string
		caller domain.Caller
		want   int
	}{
		{"superuser sees all", f.root, 3},
		{"staff sees all", f.staff, 3},
		{"brand sees own", f.brandA, 2},
		{"other brand sees own", f.brandB, 1},
		{"customer sees none", f.customer, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := f.svc.List(ctx, tc.caller, ListQuery{})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(page.Items) != tc.want || page.Total != tc.want {
				t.Fatalf("got %d items (total %d), want %d", len(page.Items), page.Total, tc.want)
			}
			for _, o := range page.Items {
				if tc.caller.Role == domain.RoleBrand && o.UserID != tc.caller.AccountID {
					t.Fatalf("brand listing leaked offer of %s", o.UserID)
				}
			}
		})
	}

	if _, err := f.svc.List(ctx, domain.Anonymous(), ListQuery{}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("anonymous list: expected unauthorized, got %v", err)
	}
	page, err := f.svc.List(ctx, f.root, ListQuery{Limit: 2, Offset: 1})
	if err != nil || len(page.Items) != 2 || page.Total != 3 || page.Offset != 1 {
		t.Fatalf("paged list: %v %+v", err, page)
	}
}

func TestList_Filters(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	live := f.input("Sunny Shoes")
	live.Description = "summer sandals"
	paused := f.input("Rain Boots")
	off := false
	paused.IsActive = &off
	paused.UsageType = domain.UsageSingle
	theirs := f.input("Sandal Hut")
	for _, c := range []struct {
		caller domain.Caller
		in     OfferInput
	}{{f.brandA, live}, {f.brandA, paused}, {f.brandB, theirs}} {
		if _, err := f.svc.Create(ctx, c.caller, c.in); err != nil {
			t.Fatalf("create %s: %v", c.in.BrandName, err)
		}
	}

	on := true
	cases := []struct {
		name   string
		caller domain.Caller
		q      ListQuery
		want   []string
	}{
		{"inactive only", f.staff, ListQuery{IsActive: &off}, []string{"rain-boots"}},
		{"active for brand", f.brandA, ListQuery{IsActive: &on}, []string{"sunny-shoes"}},
		{"usage type", f.root, ListQuery{UsageType: domain.UsageSingle}, []string{"rain-boots"}},
		{"search brand or description", f.staff, ListQuery{Search: "SANDAL"}, []string{"sunny-shoes", "sandal-hut"}},
		{"search stays in brand scope", f.brandA, ListQuery{Search: "sandal"}, []string{"sunny-shoes"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := f.svc.List(ctx, tc.caller, tc.q)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if page.Total != len(tc.want) || len(page.Items) != len(tc.want) {
				t.Fatalf("got %d items (total %d), want %v", len(page.Items), page.Total, tc.want)
			}
			for i, o := range page.Items {
				if o.Slug != tc.want[i] {
					t.Fatalf("item %d = %s, want %s", i, o.Slug, tc.want[i])
				}
			}
		})
	}

	_, err := f.svc.List(ctx, f.staff, ListQuery{UsageType: "weekly"})
	fieldError(t, err, "usageType")
}

func TestGet_InactiveHiddenBelowStaff(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	in := f.input("Quiet Deal")
	off := false
	in.IsActive = &off
	created, err := f.svc.Create(ctx, f.brandA, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, c := range []domain.Caller{f.brandA, f.brandB, f.subscriber} {
		if _, err := f.svc.Get(ctx, c, created.Slug); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("caller %s: expected not found, got %v", c.AccountID, err)
		}
	}
	for _, c := range []domain.Caller{f.staff, f.root} {
		if _, err := f.svc.Get(ctx, c, created.Slug); err != nil {
			t.Fatalf("operator read: %v", err)
		}
	}

	on := true
	if _, err := f.svc.Update(ctx, f.brandA, created.Slug, OfferPatch{IsActive: &on}); err != nil {
		t.Fatalf("owner reactivates: %v", err)
	}
	if _, err := f.svc.Get(ctx, f.brandA, created.Slug); err != nil {
		t.Fatalf("owner read after reactivation: %v", err)
	}
}

func TestGetUpdateDelete_OwnerOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, err := f.svc.Create(ctx, f.brandA, f.input("Mine"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.Get(ctx, f.brandB, created.Slug); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("other brand read: expected forbidden, got %v", err)
	}
	if _, err := f.svc.Get(ctx, domain.Anonymous(), created.Slug); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("anonymous read: expected unauthorized, got %v", err)
	}
	if _, err := f.svc.Get(ctx, f.staff, created.Slug); err != nil {
		t.Fatalf("staff read: %v", err)
	}
	if _, err := f.svc.Get(ctx, f.brandA, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	name := "Theirs"
	if _, err := f.svc.Update(ctx, f.brandB, created.Slug, OfferPatch{BrandName: &name}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("other brand update: expected forbidden, got %v", err)
	}

	amount := decimal.RequireFromString("4.50")
	hijack := f.brandB.AccountID
	updated, err := f.svc.Update(ctx, f.brandA, created.Slug, OfferPatch{DiscountAmount: &amount, User: &hijack})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.DiscountPercent != nil || updated.DiscountAmount == nil || updated.UserID != f.brandA.AccountID {
		t.Fatalf("unexpected update result %+v", updated)
	}

	reassigned, err := f.svc.Update(ctx, f.root, created.Slug, OfferPatch{User: &hijack})
	if err != nil || reassigned.UserID != f.brandB.AccountID {
		t.Fatalf("superuser reassign: %v %+v", err, reassigned)
	}

	if err := f.svc.Delete(ctx, f.brandA, created.Slug); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("former owner delete: expected forbidden, got %v", err)
	}
	if err := f.svc.Delete(ctx, f.brandB, created.Slug); err != nil {
		t.Fatalf("new owner delete: %v", err)
	}
}

func TestSearch_UnionWithoutDuplicates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.repo.catOf[f.subID] = "Fashion"
	f.repo.subNameOf[f.subID] = "Shoes"

	in := f.input("Fashion Outlet")
	if _, err := f.svc.Create(ctx, f.brandA, in); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Create(ctx, f.brandB, f.input("Boots Co")); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := f.svc.Search(ctx, f.brandA, "fashion")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 || got[0].BrandName != "Boots Co" || got[1].BrandName != "Fashion Outlet" {
		t.Fatalf("expected both offers once, sorted by brand: %+v", got)
	}

	for _, q := range []string{"", "   "} {
		got, err := f.svc.Search(ctx, f.root, q)
		if err != nil || len(got) != 0 {
			t.Fatalf("blank query %q: %v %d", q, err, len(got))
		}
	}
}

func TestSearch_RequiresSubscriptionForCustomers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.Search(ctx, domain.Anonymous(), "x"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("anonymous: expected unauthorized, got %v", err)
	}
	if _, err := f.svc.Search(ctx, f.customer, "x"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("unsubscribed: expected forbidden, got %v", err)
	}
	stranger := domain.Caller{AccountID: uuid.NewString(), Authenticated: true, Role: domain.RoleCustomer}
	if _, err := f.svc.Search(ctx, stranger, "x"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("no profile: expected forbidden, got %v", err)
	}
	for _, c := range []domain.Caller{f.subscriber, f.brandA, f.staff, f.root} {
		if _, err := f.svc.Search(ctx, c, "x"); err != nil {
			t.Fatalf("caller %+v should pass: %v", c, err)
		}
	}
}

func TestCreate_RejectsValuesBeyondColumns(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	in := f.input("Big Spender")
	in.DiscountPercent = nil
	huge := decimal.RequireFromString("100000000")
	in.DiscountAmount = &huge
	_, err := f.svc.Create(ctx, f.brandA, in)
	fieldError(t, err, "discountAmount")

	in = f.input("Fine Print")
	fine := decimal.RequireFromString("10.005")
	in.MinimumPurchase = &fine
	_, err = f.svc.Create(ctx, f.brandA, in)
	fieldError(t, err, "minimumPurchase")

	in = f.input("Endless")
	uses := 1 << 40
	in.MaxUses = &uses
	_, err = f.svc.Create(ctx, f.brandA, in)
	fieldError(t, err, "maxUses")

	if len(f.repo.offers) != 0 {
		t.Fatalf("rejected offers reached the store: %d", len(f.repo.offers))
	}
}
