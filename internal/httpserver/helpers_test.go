package httpserver

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/gin-gonic/gin"

	"offers-marketplace/internal/domain"
	accountsvc "offers-marketplace/internal/service/account"
	catalogsvc "offers-marketplace/internal/service/catalog"
	offersvc "offers-marketplace/internal/service/offer"
	profilesvc "offers-marketplace/internal/service/profile"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubAuthService struct {
	accounts map[string]*domain.Account
	account  *domain.Account
	loginErr error
	signErr  error
	lookErr  error

	signupCaller domain.Caller
	loggedOut    string
}

func (s *stubAuthService) Signup(_ context.Context, caller domain.Caller, in accountsvc.SignupInput) (*domain.Account, error) {
	s.signupCaller = caller
	if s.signErr != nil {
		return nil, s.signErr
	}
	return &domain.Account{ID: "new", Email: in.Email, Role: domain.RoleCustomer}, nil
}

func (s *stubAuthService) Login(context.Context, string, string) (*domain.Account, string, error) {
	return s.account, "access-token", s.loginErr
}

func (s *stubAuthService) Logout(_ context.Context, token string) error {
	s.loggedOut = token
	return nil
}

func (s *stubAuthService) LookupByToken(_ context.Context, token string) (*domain.Account, error) {
	if s.lookErr != nil {
		return nil, s.lookErr
	}
	if a, ok := s.accounts[token]; ok {
		return a, nil
	}
	return nil, accountsvc.ErrInvalidToken
}

func (s *stubAuthService) AccessTTLSeconds() int {
	return 3600
}

type stubCatalogService struct {
	trees []domain.CategoryTree
	err   error

	gotSlug     string
	gotPatch    catalogsvc.CategoryPatch
	gotSubPatch catalogsvc.SubCategoryPatch
	gotInput    catalogsvc.CategoryInput
	deleted     string
}

func (s *stubCatalogService) ListTree(context.Context) ([]domain.CategoryTree, error) {
	return s.trees, s.err
}

func (s *stubCatalogService) GetCategory(_ context.Context, slug string) (*domain.CategoryTree, error) {
	for _, t := range s.trees {
		if t.Slug == slug {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubCatalogService) CreateCategory(_ context.Context, _ domain.Caller, in catalogsvc.CategoryInput) (*domain.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Category{ID: "c1", Name: in.Name, Slug: in.Slug}, nil
}

func (s *stubCatalogService) UpdateCategory(_ context.Context, _ domain.Caller, slug string, patch catalogsvc.CategoryPatch) (*domain.Category, error) {
	s.gotSlug, s.gotPatch = slug, patch
	if s.err != nil {
		return nil, s.err
	}
	c := &domain.Category{ID: "c1", Name: "Food", Slug: slug}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	return c, nil
}

func (s *stubCatalogService) DeleteCategory(_ context.Context, _ domain.Caller, slug string) error {
	s.deleted = slug
	return s.err
}

func (s *stubCatalogService) CreateSubCategory(_ context.Context, _ domain.Caller, slug string, in catalogsvc.CategoryInput) (*domain.SubCategory, error) {
	s.gotSlug, s.gotInput = slug, in
	if s.err != nil {
		return nil, s.err
	}
	return &domain.SubCategory{ID: "s1", CategoryID: "c1", Name: in.Name, Slug: in.Slug}, nil
}

func (s *stubCatalogService) UpdateSubCategory(_ context.Context, _ domain.Caller, slug string, patch catalogsvc.SubCategoryPatch) (*domain.SubCategory, error) {
	s.gotSlug, s.gotSubPatch = slug, patch
	if s.err != nil {
		return nil, s.err
	}
	return &domain.SubCategory{ID: "s1", CategoryID: "c2", Name: "Pizza", Slug: slug}, nil
}

func (s *stubCatalogService) DeleteSubCategory(_ context.Context, _ domain.Caller, slug string) error {
	s.deleted = slug
	return s.err
}

type stubOfferService struct {
	offer     *domain.Offer
	offers    []domain.Offer
	err       error
	gotCaller domain.Caller
	gotInput  offersvc.OfferInput
	gotQuery  string
	gotList   offersvc.ListQuery
	gotSlug   string
	gotPatch  offersvc.OfferPatch
}

func (s *stubOfferService) List(_ context.Context, caller domain.Caller, q offersvc.ListQuery) (*offersvc.Page, error) {
	s.gotCaller, s.gotList = caller, q
	if s.err != nil {
		return nil, s.err
	}
	return &offersvc.Page{Items: s.offers, Total: len(s.offers), Limit: q.Limit, Offset: q.Offset}, nil
}

func (s *stubOfferService) Get(_ context.Context, caller domain.Caller, _ string) (*domain.Offer, error) {
	s.gotCaller = caller
	return s.offer, s.err
}

func (s *stubOfferService) Create(_ context.Context, caller domain.Caller, in offersvc.OfferInput) (*domain.Offer, error) {
	s.gotCaller, s.gotInput = caller, in
	return s.offer, s.err
}

func (s *stubOfferService) Update(_ context.Context, caller domain.Caller, slug string, patch offersvc.OfferPatch) (*domain.Offer, error) {
	s.gotCaller, s.gotSlug, s.gotPatch = caller, slug, patch
	return s.offer, s.err
}

func (s *stubOfferService) Delete(context.Context, domain.Caller, string) error {
	return s.err
}

func (s *stubOfferService) Search(_ context.Context, caller domain.Caller, q string) ([]domain.Offer, error) {
	s.gotCaller, s.gotQuery = caller, q
	return s.offers, s.err
}

type stubLogoService struct {
	logo     *domain.Logo
	err      error
	uploaded []byte
}

func (s *stubLogoService) Get(context.Context, domain.Caller) (*domain.Logo, error) {
	return s.logo, s.err
}

func (s *stubLogoService) Upload(_ context.Context, _ domain.Caller, r io.Reader) (*domain.Logo, error) {
	if r == nil {
		return nil, domain.Invalid("image", "this field is required")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s.uploaded = data
	return s.logo, s.err
}

func (s *stubLogoService) ImageURL(key string) string {
	return "http://media.test/media/" + key
}

type stubProfileService struct {
	profile  *domain.Profile
	profiles []domain.Profile
	err      error
	gotFront bool
	gotBack  bool
	gotInput profilesvc.ProfileInput
	gotQuery profilesvc.ProfileQuery
}

func (s *stubProfileService) Create(_ context.Context, _ domain.Caller, in profilesvc.ProfileInput, front, back io.Reader) (*domain.Profile, error) {
	s.gotInput, s.gotFront, s.gotBack = in, front != nil, back != nil
	return s.profile, s.err
}

func (s *stubProfileService) Get(context.Context, domain.Caller) (*domain.Profile, error) {
	return s.profile, s.err
}

func (s *stubProfileService) SetSubscription(context.Context, domain.Caller, string, bool) (*domain.Profile, error) {
	return s.profile, s.err
}

func (s *stubProfileService) List(_ context.Context, _ domain.Caller, q profilesvc.ProfileQuery) (*profilesvc.ProfilePage, error) {
	s.gotQuery = q
	if s.err != nil {
		return nil, s.err
	}
	return &profilesvc.ProfilePage{Items: s.profiles, Total: len(s.profiles), Limit: q.Limit, Offset: q.Offset}, nil
}

func (s *stubProfileService) ImageURL(key string) string {
	if key == "" {
		return ""
	}
	return "http://media.test/media/" + key
}

// testDeps returns stub services with three known bearer tokens:
// "brand-token", "customer-token" and "staff-token".
func testDeps() Deps {
	return Deps{
		AuthSvc: &stubAuthService{accounts: map[string]*domain.Account{
			"brand-token":    {ID: "brand-id", Email: "brand@example.com", Role: domain.RoleBrand},
			"customer-token": {ID: "customer-id", Email: "c@example.com", Role: domain.RoleCustomer},
			"staff-token":    {ID: "staff-id", Email: "s@example.com", Role: domain.RoleCustomer, IsStaff: true},
		}},
		CatalogSvc: &stubCatalogService{},
		OfferSvc:   &stubOfferService{},
		LogoSvc:    &stubLogoService{},
		ProfileSvc: &stubProfileService{},
	}
}

func newTestRouter(t *testing.T, deps Deps, opts ...Options) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logDiscard(), nil, deps, opts...)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}
