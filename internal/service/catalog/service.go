package catalog

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"offers-marketplace/internal/access"
	"offers-marketplace/internal/domain"
	categoryrepo "offers-marketplace/internal/repository/category"
	offerrepo "offers-marketplace/internal/repository/offer"
	"offers-marketplace/internal/slug"
)

const (
	maxNameLen        = 50
	maxSlugLen        = 100
	maxDescriptionLen = 256
)

type Service struct {
	repo   categoryrepo.Repository
	offers offerrepo.Repository
	logger *log.Logger
	now    func() time.Time
}

func New(repo categoryrepo.Repository, offers offerrepo.Repository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, offers: offers, logger: logger, now: time.Now}
}

// CategoryInput is the payload for creating a category or subcategory.
// An empty Slug is derived from Name.
type CategoryInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// CategoryPatch carries the fields a partial update may change.
type CategoryPatch struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
}

// SubCategoryPatch is CategoryPatch plus an optional move to another
// category, named by slug.
type SubCategoryPatch struct {
	CategoryPatch
	Category *string `json:"category"`
}

// ListTree returns every category with its subcategories and the offers
// currently valid under each of them.
func (s *Service) ListTree(ctx context.Context) ([]domain.CategoryTree, error) {
	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := s.repo.ListSubCategories(ctx, "")
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, cats, subs)
}

// GetCategory returns one category tree by slug.
func (s *Service) GetCategory(ctx context.Context, categorySlug string) (*domain.CategoryTree, error) {
	c, err := s.repo.GetCategoryBySlug(ctx, categorySlug)
	if err != nil {
		return nil, err
	}
	subs, err := s.repo.ListSubCategories(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	trees, err := s.assemble(ctx, []domain.Category{*c}, subs)
	if err != nil {
		return nil, err
	}
	return &trees[0], nil
}

func (s *Service) assemble(ctx context.Context, cats []domain.Category, subs []domain.SubCategory) ([]domain.CategoryTree, error) {
	offersBySub := map[string][]domain.Offer{}
	if len(subs) > 0 {
		ids := make([]string, 0, len(subs))
		for _, sc := range subs {
			ids = append(ids, sc.ID)
		}
		now := s.now()
		valid, _, err := s.offers.List(ctx, offerrepo.ListFilter{SubCategoryIDs: ids, ValidAt: &now})
		if err != nil {
			return nil, err
		}
		for _, o := range valid {
			offersBySub[o.SubCategoryID] = append(offersBySub[o.SubCategoryID], o)
		}
	}

	subsByCat := map[string][]domain.SubCategoryTree{}
	for _, sc := range subs {
		offers := offersBySub[sc.ID]
		if offers == nil {
			offers = []domain.Offer{}
		}
		subsByCat[sc.CategoryID] = append(subsByCat[sc.CategoryID], domain.SubCategoryTree{SubCategory: sc, Offers: offers})
	}

	trees := make([]domain.CategoryTree, 0, len(cats))
	for _, c := range cats {
		children := subsByCat[c.ID]
		if children == nil {
			children = []domain.SubCategoryTree{}
		}
		trees = append(trees, domain.CategoryTree{Category: c, SubCategories: children})
	}
	return trees, nil
}

func (s *Service) CreateCategory(ctx context.Context, caller domain.Caller, in CategoryInput) (*domain.Category, error) {
	if err := access.Check(caller, access.ResourceCatalog, access.ActionCreate, ""); err != nil {
		return nil, err
	}
	c, err := normalize(in)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.CreateCategory(ctx, domain.Category{Name: c.Name, Slug: c.Slug, Description: c.Description})
	if err != nil {
		return nil, conflictToField(err)
	}
	s.logger.Printf("catalog: created category slug=%s by=%s", created.Slug, caller.AccountID)
	return created, nil
}

func (s *Service) UpdateCategory(ctx context.Context, caller domain.Caller, categorySlug string, patch CategoryPatch) (*domain.Category, error) {
	if err := access.Check(caller, access.ResourceCatalog, access.ActionUpdate, ""); err != nil {
		return nil, err
	}
	current, err := s.repo.GetCategoryBySlug(ctx, categorySlug)
	if err != nil {
		return nil, err
	}

	in := CategoryInput{Name: current.Name, Slug: current.Slug, Description: current.Description}
	if patch.Name != nil {
		in.Name = *patch.Name
	}
	if patch.Slug != nil {
		in.Slug = *patch.Slug
	}
	if patch.Description != nil {
		in.Description = *patch.Description
	}
	c, err := normalize(in)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateCategory(ctx, domain.Category{ID: current.ID, Name: c.Name, Slug: c.Slug, Description: c.Description})
	if err != nil {
		return nil, conflictToField(err)
	}
	return updated, nil
}

// DeleteCategory removes a category together with its subcategories and offers.
func (s *Service) DeleteCategory(ctx context.Context, caller domain.Caller, categorySlug string) error {
	if err := access.Check(caller, access.ResourceCatalog, access.ActionDelete, ""); err != nil {
		return err
	}
	c, err := s.repo.GetCategoryBySlug(ctx, categorySlug)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCategory(ctx, c.ID); err != nil {
		return err
	}
	s.logger.Printf("catalog: deleted category slug=%s by=%s", c.Slug, caller.AccountID)
	return nil
}

func (s *Service) CreateSubCategory(ctx context.Context, caller domain.Caller, categorySlug string, in CategoryInput) (*domain.SubCategory, error) {
	if err := access.Check(caller, access.ResourceCatalog, access.ActionCreate, ""); err != nil {
		return nil, err
	}
	parent, err := s.repo.GetCategoryBySlug(ctx, categorySlug)
	if err != nil {
		return nil, err
	}
	c, err := normalize(in)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.CreateSubCategory(ctx, domain.SubCategory{
		CategoryID:  parent.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
	})
	if err != nil {
		return nil, conflictToField(err)
	}
	s.logger.Printf("catalog: created subcategory slug=%s category=%s by=%s", created.Slug, parent.Slug, caller.AccountID)
	return created, nil
}

func (s *Service) UpdateSubCategory(ctx context.Context, caller domain.Caller, subSlug string, patch SubCategoryPatch) (*domain.SubCategory, error) {
	if err := access.Check(caller, access.ResourceCatalog, access.ActionUpdate, ""); err != nil {
		return nil, err
	}
	current, err := s.repo.GetSubCategoryBySlug(ctx, subSlug)
	if err != nil {
		return nil, err
	}

	categoryID := current.CategoryID
	if patch.Category != nil {
		parent, err := s.repo.GetCategoryBySlug(ctx, strings.TrimSpace(*patch.Category))
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("category", "no such category")
		}
		if err != nil {
			return nil, err
		}
		categoryID = parent.ID
	}

	in := CategoryInput{Name: current.Name, Slug: current.Slug, Description: current.Description}
	if patch.Name != nil {
		in.Name = *patch.Name
	}
	if patch.Slug != nil {
		in.Slug = *patch.Slug
	}
	if patch.Description != nil {
		in.Description = *patch.Description
	}
	c, err := normalize(in)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateSubCategory(ctx, domain.SubCategory{
		ID:          current.ID,
		CategoryID:  categoryID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
	})
	if err != nil {
		return nil, conflictToField(err)
	}
	s.logger.Printf("catalog: updated subcategory slug=%s by=%s", updated.Slug, caller.AccountID)
	return updated, nil
}

func (s *Service) DeleteSubCategory(ctx context.Context, caller domain.Caller, subSlug string) error {
	if err := access.Check(caller, access.ResourceCatalog, access.ActionDelete, ""); err != nil {
		return err
	}
	sc, err := s.repo.GetSubCategoryBySlug(ctx, subSlug)
	if err != nil {
		return err
	}
	return s.repo.DeleteSubCategory(ctx, sc.ID)
}

func normalize(in CategoryInput) (CategoryInput, error) {
	errs := domain.FieldErrors{}
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	switch {
	case in.Name == "":
		errs.Add("name", "this field is required")
	case utf8.RuneCountInString(in.Name) > maxNameLen:
		errs.Add("name", "must be at most 50 characters")
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLen {
		errs.Add("description", "must be at most 256 characters")
	}

	source := in.Slug
	if strings.TrimSpace(source) == "" {
		source = in.Name
	}
	in.Slug = slug.Make(source, maxSlugLen)
	if in.Slug == "" {
		errs.Add("slug", "could not derive a slug; supply one containing letters or digits")
	}
	return in, errs.Err()
}

// conflictToField reports a unique violation against the field that caused it.
func conflictToField(err error) error {
	var conflict domain.ConflictError
	if errors.As(err, &conflict) && conflict.Field != "" {
		return domain.Invalid(conflict.Field, "already exists")
	}
	return err
}
