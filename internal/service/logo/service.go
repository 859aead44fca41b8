package logo

import (
	"context"
	"errors"
	"io"
	"log"

	"offers-marketplace/internal/access"
	"offers-marketplace/internal/domain"
	"offers-marketplace/internal/metrics"
	logorepo "offers-marketplace/internal/repository/logo"
	"offers-marketplace/internal/storage"
)

type Service struct {
	repo      logorepo.Repository
	store     storage.Store
	maxUpload int64
	logger    *log.Logger
}

func New(repo logorepo.Repository, store storage.Store, maxUpload int64, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, store: store, maxUpload: maxUpload, logger: logger}
}

// Get returns the company logo, or ErrNotFound before the first upload.
func (s *Service) Get(ctx context.Context, caller domain.Caller) (*domain.Logo, error) {
	if err := access.Check(caller, access.ResourceLogo, access.ActionRead, ""); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx)
}

// Upload replaces the company logo with the image read from r. The old
// image is removed once the new one is recorded.
func (s *Service) Upload(ctx context.Context, caller domain.Caller, r io.Reader) (*domain.Logo, error) {
	if err := access.Check(caller, access.ResourceLogo, access.ActionCreate, ""); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.Invalid("image", "this field is required")
	}

	img, err := storage.SniffImage(r, s.maxUpload)
	if err != nil {
		return nil, imageError(err)
	}
	key := storage.NewKey("logo", "logo", img.Ext)
	if err := s.store.Put(ctx, key, img.Body); err != nil {
		return nil, imageError(err)
	}

	current, previous, err := s.repo.Replace(ctx, domain.Logo{ImageKey: key, ContentType: img.ContentType})
	if err != nil {
		if derr := s.store.Delete(context.WithoutCancel(ctx), key); derr != nil {
			s.logger.Printf("logo: cleanup key=%s error=%v", key, derr)
		}
		return nil, err
	}
	if previous != nil && previous.ImageKey != current.ImageKey {
		if err := s.store.Delete(ctx, previous.ImageKey); err != nil {
			s.logger.Printf("logo: remove previous key=%s error=%v", previous.ImageKey, err)
		}
	}
	metrics.RecordUpload("logo")
	s.logger.Printf("logo: replaced key=%s type=%s by=%s", current.ImageKey, current.ContentType, caller.AccountID)
	return current, nil
}

// ImageURL resolves the logo key to its public URL.
func (s *Service) ImageURL(key string) string {
	return s.store.URL(key)
}

func imageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrUnsupportedType):
		return domain.Invalid("image", "must be a png, jpeg, gif or webp image")
	case errors.Is(err, storage.ErrTooLarge):
		return domain.Invalid("image", "file is too large")
	}
	return err
}
