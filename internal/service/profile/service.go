package profile

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"

	"offers-marketplace/internal/access"
	"offers-marketplace/internal/domain"
	"offers-marketplace/internal/metrics"
	profilerepo "offers-marketplace/internal/repository/profile"
	"offers-marketplace/internal/storage"
)

const (
	idCardPrefix = "id_cards"
	defaultLimit = 20
	maxPageLimit = 100
)

// Service files verification profiles and their ID card images.
type Service struct {
	repo      profilerepo.Repository
	store     storage.Store
	maxUpload int64
	logger    *log.Logger
}

func New(repo profilerepo.Repository, store storage.Store, maxUpload int64, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, store: store, maxUpload: maxUpload, logger: logger}
}

// ProfileInput holds the text fields of a profile submission.
type ProfileInput struct {
	FirstName        string `json:"firstName" form:"firstName"`
	LastName         string `json:"lastName" form:"lastName"`
	EmploymentStatus string `json:"employmentStatus" form:"employmentStatus"`
	JobDetails       string `json:"jobDetails" form:"jobDetails"`
	Employer         string `json:"employer" form:"employer"`
	AddressLine1     string `json:"addressLine1" form:"addressLine1"`
	AddressLine2     string `json:"addressLine2" form:"addressLine2"`
	City             string `json:"city" form:"city"`
	Country          string `json:"country" form:"country"`
	Postcode         string `json:"postcode" form:"postcode"`
}

// Create stores both ID card images and then the profile row. Nothing is
// left behind when any step fails.
func (s *Service) Create(ctx context.Context, caller domain.Caller, in ProfileInput, front, back io.Reader) (*domain.Profile, error) {
	if err := access.Check(caller, access.ResourceProfile, access.ActionCreate, caller.AccountID); err != nil {
		return nil, err
	}

	p := domain.Profile{
		UserID:           caller.AccountID,
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
		EmploymentStatus: strings.TrimSpace(in.EmploymentStatus),
		JobDetails:       strings.TrimSpace(in.JobDetails),
		Employer:         strings.TrimSpace(in.Employer),
		AddressLine1:     strings.TrimSpace(in.AddressLine1),
		AddressLine2:     strings.TrimSpace(in.AddressLine2),
		City:             strings.TrimSpace(in.City),
		Country:          strings.TrimSpace(in.Country),
		Postcode:         strings.TrimSpace(in.Postcode),
	}
	errs := domain.FieldErrors{}
	switch {
	case p.EmploymentStatus == "":
		errs.Add("employmentStatus", "this field is required")
	case !domain.OneOf(p.EmploymentStatus, domain.EmploymentStatuses):
		errs.Add("employmentStatus", "must be one of "+strings.Join(domain.EmploymentStatuses, ", "))
	}
	if p.JobDetails != "" && !domain.OneOf(p.JobDetails, domain.JobDetails) {
		errs.Add("jobDetails", "must be one of "+strings.Join(domain.JobDetails, ", "))
	}
	if p.Employer != "" && !domain.OneOf(p.Employer, domain.Employers) {
		errs.Add("employer", "must be one of "+strings.Join(domain.Employers, ", "))
	}
	if front == nil {
		errs.Add("idCardFront", "this field is required")
	}
	if back == nil {
		errs.Add("idCardBack", "this field is required")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByUserID(ctx, caller.AccountID); err == nil {
		return nil, domain.Invalid("user", "profile already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var stored []string
	cleanup := func() {
		for _, key := range stored {
			if err := s.store.Delete(context.WithoutCancel(ctx), key); err != nil {
				s.logger.Printf("profile: cleanup key=%s error=%v", key, err)
			}
		}
	}

	for _, side := range []struct {
		field string
		name  string
		r     io.Reader
		dst   *string
	}{
		{"idCardFront", "front", front, &p.IDCardFrontKey},
		{"idCardBack", "back", back, &p.IDCardBackKey},
	} {
		key, err := s.storeImage(ctx, side.name, side.r)
		if err != nil {
			cleanup()
			return nil, imageFieldError(side.field, err)
		}
		stored = append(stored, key)
		*side.dst = key
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		cleanup()
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.Invalid("user", "profile already exists")
		}
		return nil, err
	}
	for range stored {
		metrics.RecordUpload("id_card")
	}
	s.logger.Printf("profile: created id=%s user=%s", created.ID, created.UserID)
	return created, nil
}

// Get returns the caller's own profile.
func (s *Service) Get(ctx context.Context, caller domain.Caller) (*domain.Profile, error) {
	if err := access.Check(caller, access.ResourceProfile, access.ActionViewModule, ""); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByUserID(ctx, caller.AccountID)
	if err != nil {
		return nil, err
	}
	if err := access.Check(caller, access.ResourceProfile, access.ActionRead, p.UserID); err != nil {
		return nil, err
	}
	return p, nil
}

// ProfileQuery narrows the operator listing. Zero values mean "no restriction".
type ProfileQuery struct {
	EmploymentStatus string
	Employer         string
	Subscribed       *bool
	Email            string
	Limit            int
	Offset           int
}

// ProfilePage is one slice of the operator listing.
type ProfilePage struct {
	Items  []domain.Profile `json:"results"`
	Total  int              `json:"count"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// List lets staff and superusers browse every profile.
func (s *Service) List(ctx context.Context, caller domain.Caller, q ProfileQuery) (*ProfilePage, error) {
	if err := access.Check(caller, access.ResourceProfile, access.ActionRead, ""); err != nil {
		return nil, err
	}
	errs := domain.FieldErrors{}
	if q.EmploymentStatus != "" && !domain.OneOf(q.EmploymentStatus, domain.EmploymentStatuses) {
		errs.Add("employmentStatus", "must be one of "+strings.Join(domain.EmploymentStatuses, ", "))
	}
	if q.Employer != "" && !domain.OneOf(q.Employer, domain.Employers) {
		errs.Add("employer", "must be one of "+strings.Join(domain.Employers, ", "))
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxPageLimit {
		q.Limit = maxPageLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	items, total, err := s.repo.List(ctx, profilerepo.ListFilter{
		EmploymentStatus: q.EmploymentStatus,
		Employer:         q.Employer,
		Subscribed:       q.Subscribed,
		Email:            q.Email,
		Limit:            q.Limit,
		Offset:           q.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &ProfilePage{Items: items, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

// SetSubscription flips the subscription flag on userID's profile.
func (s *Service) SetSubscription(ctx context.Context, caller domain.Caller, userID string, subscribed bool) (*domain.Profile, error) {
	if err := access.Check(caller, access.ResourceProfile, access.ActionUpdate, ""); err != nil {
		return nil, err
	}
	if uuid.Validate(userID) != nil {
		return nil, domain.ErrNotFound
	}
	p, err := s.repo.SetSubscription(ctx, userID, subscribed)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("profile: subscription user=%s status=%t by=%s", userID, subscribed, caller.AccountID)
	return p, nil
}

// ImageURL resolves a stored image key to its public URL.
func (s *Service) ImageURL(key string) string {
	if key == "" {
		return ""
	}
	return s.store.URL(key)
}

func (s *Service) storeImage(ctx context.Context, name string, r io.Reader) (string, error) {
	img, err := storage.SniffImage(r, s.maxUpload)
	if err != nil {
		return "", err
	}
	key := storage.NewKey(idCardPrefix, name, img.Ext)
	if err := s.store.Put(ctx, key, img.Body); err != nil {
		return "", err
	}
	return key, nil
}

func imageFieldError(field string, err error) error {
	switch {
	case errors.Is(err, storage.ErrUnsupportedType):
		return domain.Invalid(field, "must be a png, jpeg, gif or webp image")
	case errors.Is(err, storage.ErrTooLarge):
		return domain.Invalid(field, "file is too large")
	}
	return err
}
