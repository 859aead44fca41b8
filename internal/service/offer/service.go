package offer

import (
	"context"
	"errors"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"offers-marketplace/internal/access"
	"offers-marketplace/internal/domain"
	"offers-marketplace/internal/metrics"
	categoryrepo "offers-marketplace/internal/repository/category"
	offerrepo "offers-marketplace/internal/repository/offer"
	profilerepo "offers-marketplace/internal/repository/profile"
	"offers-marketplace/internal/slug"
)

const (
	maxSlugLen   = 150
	maxPageLimit = 100
	defaultLimit = 20
)

// Service applies the offer permission rules on top of the offer store.
type Service struct {
	repo     offerrepo.Repository
	subcats  categoryrepo.Repository
	profiles profilerepo.Repository
	logger   *log.Logger
	source   string
}

func New(repo offerrepo.Repository, subcats categoryrepo.Repository, profiles profilerepo.Repository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, subcats: subcats, profiles: profiles, logger: logger, source: "api"}
}

// WithSource returns a copy of s that labels created offers with source in metrics and logs.
func (s *Service) WithSource(source string) *Service {
	clone := *s
	clone.source = source
	return &clone
}

// OfferInput is the create payload. User is honoured only for superusers;
// everyone else authors their own offers. An empty Slug is derived from
// BrandName and a nil IsActive means active.
type OfferInput struct {
	SubCategory     string           `json:"subcategory"`
	User            string           `json:"user"`
	BrandName       string           `json:"brandName"`
	Slug            string           `json:"slug"`
	Description     string           `json:"description"`
	DiscountPercent *int             `json:"discountPercent"`
	DiscountAmount  *decimal.Decimal `json:"discountAmount"`
	StartDate       time.Time        `json:"startDate"`
	EndDate         time.Time        `json:"endDate"`
	UsageType       domain.UsageType `json:"usageType"`
	IsActive        *bool            `json:"isActive"`
	MaxUses         *int             `json:"maxUses"`
	MinimumPurchase *decimal.Decimal `json:"minimumPurchase"`
	RetailerURL     string           `json:"retailerUrl"`
}

// OfferPatch is a partial update. Setting one discount kind clears the other.
type OfferPatch struct {
	SubCategory     *string           `json:"subcategory"`
	User            *string           `json:"user"`
	BrandName       *string           `json:"brandName"`
	Slug            *string           `json:"slug"`
	Description     *string           `json:"description"`
	DiscountPercent *int              `json:"discountPercent"`
	DiscountAmount  *decimal.Decimal  `json:"discountAmount"`
	StartDate       *time.Time        `json:"startDate"`
	EndDate         *time.Time        `json:"endDate"`
	UsageType       *domain.UsageType `json:"usageType"`
	IsActive        *bool             `json:"isActive"`
	MaxUses         *int              `json:"maxUses"`
	MinimumPurchase *decimal.Decimal  `json:"minimumPurchase"`
	RetailerURL     *string           `json:"retailerUrl"`
}

// Page is one slice of a listing.
type Page struct {
	Items  []domain.Offer `json:"results"`
	Total  int            `json:"count"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ListQuery narrows an admin listing. Zero values mean "no restriction".
// Category and SubCategory are slugs; Search matches brand name or description.
type ListQuery struct {
	Limit       int
	Offset      int
	IsActive    *bool
	UsageType   domain.UsageType
	Category    string
	SubCategory string
	Search      string
}

// List returns the offers caller may enumerate: everything for staff and
// superusers, their own for brands, nothing for other accounts.
func (s *Service) List(ctx context.Context, caller domain.Caller, q ListQuery) (*Page, error) {
	if err := access.Check(caller, access.ResourceOffer, access.ActionViewModule, ""); err != nil {
		return nil, err
	}
	if q.UsageType != "" && !q.UsageType.Valid() {
		return nil, domain.Invalid("usageType", "must be single or multi")
	}
	limit, offset := q.Limit, q.Offset
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	page := &Page{Items: []domain.Offer{}, Limit: limit, Offset: offset}

	scope := access.OfferScope(caller)
	if scope.None() {
		return page, nil
	}
	items, total, err := s.repo.List(ctx, offerrepo.ListFilter{
		OwnerID:         scope.OwnerID,
		IsActive:        q.IsActive,
		UsageType:       q.UsageType,
		CategorySlug:    strings.TrimSpace(q.Category),
		SubCategorySlug: strings.TrimSpace(q.SubCategory),
		Text:            q.Search,
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		return nil, err
	}
	if items != nil {
		page.Items = items
	}
	page.Total = total
	return page, nil
}

// Get returns one offer. Inactive offers are visible to staff and
// superusers only; owners reach theirs through List.
func (s *Service) Get(ctx context.Context, caller domain.Caller, offerSlug string) (*domain.Offer, error) {
	if !caller.Authenticated {
		return nil, domain.ErrUnauthorized
	}
	o, err := s.repo.GetBySlug(ctx, offerSlug)
	if err != nil {
		return nil, err
	}
	if !o.IsActive && access.TierOf(caller) < access.TierStaff {
		return nil, domain.ErrNotFound
	}
	if err := access.Check(caller, access.ResourceOffer, access.ActionRead, o.UserID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) Create(ctx context.Context, caller domain.Caller, in OfferInput) (*domain.Offer, error) {
	if err := access.Check(caller, access.ResourceOffer, access.ActionCreate, ""); err != nil {
		return nil, err
	}

	author := caller.AccountID
	if access.CanAssignAuthor(caller) && strings.TrimSpace(in.User) != "" {
		author = strings.TrimSpace(in.User)
	}
	o := domain.Offer{
		SubCategoryID:   strings.TrimSpace(in.SubCategory),
		UserID:          author,
		BrandName:       strings.TrimSpace(in.BrandName),
		Description:     strings.TrimSpace(in.Description),
		DiscountPercent: in.DiscountPercent,
		DiscountAmount:  in.DiscountAmount,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		UsageType:       in.UsageType,
		IsActive:        true,
		MaxUses:         in.MaxUses,
		MinimumPurchase: in.MinimumPurchase,
		RetailerURL:     strings.TrimSpace(in.RetailerURL),
	}
	if o.UsageType == "" {
		o.UsageType = domain.UsageMulti
	}
	if in.IsActive != nil {
		o.IsActive = *in.IsActive
	}

	if err := s.prepare(ctx, &o, in.Slug); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, o)
	if err != nil {
		return nil, slugConflict(err)
	}
	metrics.RecordOfferCreated(s.source)
	s.logger.Printf("offer: created slug=%s user=%s by=%s source=%s", created.Slug, created.UserID, caller.AccountID, s.source)
	return created, nil
}

func (s *Service) Update(ctx context.Context, caller domain.Caller, offerSlug string, p OfferPatch) (*domain.Offer, error) {
	if !caller.Authenticated {
		return nil, domain.ErrUnauthorized
	}
	o, err := s.repo.GetBySlug(ctx, offerSlug)
	if err != nil {
		return nil, err
	}
	if err := access.Check(caller, access.ResourceOffer, access.ActionUpdate, o.UserID); err != nil {
		return nil, err
	}

	if p.SubCategory != nil {
		o.SubCategoryID = strings.TrimSpace(*p.SubCategory)
	}
	if p.User != nil && access.CanAssignAuthor(caller) {
		o.UserID = strings.TrimSpace(*p.User)
	}
	if p.BrandName != nil {
		o.BrandName = strings.TrimSpace(*p.BrandName)
	}
	if p.Description != nil {
		o.Description = strings.TrimSpace(*p.Description)
	}
	switch {
	case p.DiscountPercent != nil && p.DiscountAmount != nil:
		o.DiscountPercent, o.DiscountAmount = p.DiscountPercent, p.DiscountAmount
	case p.DiscountPercent != nil:
		o.DiscountPercent, o.DiscountAmount = p.DiscountPercent, nil
	case p.DiscountAmount != nil:
		o.DiscountPercent, o.DiscountAmount = nil, p.DiscountAmount
	}
	if p.StartDate != nil {
		o.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		o.EndDate = *p.EndDate
	}
	if p.UsageType != nil {
		o.UsageType = *p.UsageType
	}
	if p.IsActive != nil {
		o.IsActive = *p.IsActive
	}
	if p.MaxUses != nil {
		o.MaxUses = p.MaxUses
	}
	if p.MinimumPurchase != nil {
		o.MinimumPurchase = p.MinimumPurchase
	}
	if p.RetailerURL != nil {
		o.RetailerURL = strings.TrimSpace(*p.RetailerURL)
	}

	requested := o.Slug
	if p.Slug != nil {
		requested = *p.Slug
	}
	if err := s.prepare(ctx, o, requested); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, *o)
	if err != nil {
		return nil, slugConflict(err)
	}
	s.logger.Printf("offer: updated slug=%s by=%s", updated.Slug, caller.AccountID)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, caller domain.Caller, offerSlug string) error {
	if !caller.Authenticated {
		return domain.ErrUnauthorized
	}
	o, err := s.repo.GetBySlug(ctx, offerSlug)
	if err != nil {
		return err
	}
	if err := access.Check(caller, access.ResourceOffer, access.ActionDelete, o.UserID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, o.ID); err != nil {
		return err
	}
	s.logger.Printf("offer: deleted slug=%s by=%s", o.Slug, caller.AccountID)
	return nil
}

// Search returns every offer whose brand name, slug or description, or
// whose category or subcategory name, contains query. Each offer appears
// once. Blank queries match nothing.
func (s *Service) Search(ctx context.Context, caller domain.Caller, query string) ([]domain.Offer, error) {
	if err := s.requireSubscription(ctx, caller); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Offer{}, nil
	}

	seen := map[string]bool{}
	out := []domain.Offer{}
	for _, m := range []offerrepo.Match{offerrepo.MatchOfferText, offerrepo.MatchCategoryName, offerrepo.MatchSubCategoryName} {
		found, err := s.repo.Search(ctx, m, query)
		if err != nil {
			return nil, err
		}
		for _, o := range found {
			if seen[o.ID] {
				continue
			}
			seen[o.ID] = true
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BrandName != out[j].BrandName {
			return out[i].BrandName < out[j].BrandName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// requireSubscription lets brands, staff and superusers through and asks
// plain accounts for a subscribed profile.
func (s *Service) requireSubscription(ctx context.Context, caller domain.Caller) error {
	switch access.TierOf(caller) {
	case access.TierAnonymous:
		return domain.ErrUnauthorized
	case access.TierAuthenticated:
		p, err := s.profiles.GetByUserID(ctx, caller.AccountID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrForbidden
		}
		if err != nil {
			return err
		}
		if !p.SubscriptionStatus {
			return domain.ErrForbidden
		}
	}
	return nil
}

// prepare normalizes the slug, checks references and runs field validation.
func (s *Service) prepare(ctx context.Context, o *domain.Offer, requestedSlug string) error {
	source := requestedSlug
	if strings.TrimSpace(source) == "" {
		source = o.BrandName
	}
	o.Slug = slug.Make(source, maxSlugLen)

	errs := domain.FieldErrors{}
	if err := o.Validate(); err != nil {
		var fields domain.FieldErrors
		if !errors.As(err, &fields) {
			return err
		}
		for k, v := range fields {
			errs.Add(k, v)
		}
	}
	if o.Slug == "" {
		errs.Add("slug", "could not derive a slug; supply one containing letters or digits")
	}
	if o.UserID != "" && uuid.Validate(o.UserID) != nil {
		errs.Add("user", "must be an account id")
	}
	if o.SubCategoryID != "" {
		if uuid.Validate(o.SubCategoryID) != nil {
			errs.Add("subcategory", "must be a subcategory id")
		} else if _, err := s.subcats.GetSubCategoryByID(ctx, o.SubCategoryID); errors.Is(err, domain.ErrNotFound) {
			errs.Add("subcategory", "refers to a record that does not exist")
		} else if err != nil {
			return err
		}
	}
	return errs.Err()
}

func slugConflict(err error) error {
	var conflict domain.ConflictError
	if errors.As(err, &conflict) {
		field := conflict.Field
		if field == "" {
			field = "slug"
		}
		return domain.Invalid(field, "an offer with this "+field+" already exists")
	}
	return err
}
