package httpserver

import (
	"time"

	"offers-marketplace/internal/domain"
)

type offerResponse struct {
	domain.Offer
	IsValid bool `json:"isValid"`
}

type subCategoryResponse struct {
	domain.SubCategory
	Offers []offerResponse `json:"offers"`
}

type categoryResponse struct {
	domain.Category
	SubCategories []subCategoryResponse `json:"subcategories"`
}

type logoResponse struct {
	domain.Logo
	URL string `json:"url"`
}

type profileResponse struct {
	domain.Profile
	IDCardFrontURL string `json:"idCardFront"`
	IDCardBackURL  string `json:"idCardBack"`
}

type tokenResponse struct {
	AccessToken string          `json:"accessToken"`
	TokenType   string          `json:"tokenType"`
	ExpiresIn   int             `json:"expiresIn"`
	Account     *domain.Account `json:"account"`
}

type pageResponse struct {
	Results []offerResponse `json:"results"`
	Count   int             `json:"count"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

type profilePageResponse struct {
	Results []profileResponse `json:"results"`
	Count   int               `json:"count"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
}

// toOffer stamps validity at response time; it is never stored.
func toOffer(o domain.Offer, now time.Time) offerResponse {
	return offerResponse{Offer: o, IsValid: o.IsValid(now)}
}

func toOffers(offers []domain.Offer, now time.Time) []offerResponse {
	out := make([]offerResponse, 0, len(offers))
	for _, o := range offers {
		out = append(out, toOffer(o, now))
	}
	return out
}

func toCategory(t domain.CategoryTree, now time.Time) categoryResponse {
	subs := make([]subCategoryResponse, 0, len(t.SubCategories))
	for _, s := range t.SubCategories {
		subs = append(subs, subCategoryResponse{SubCategory: s.SubCategory, Offers: toOffers(s.Offers, now)})
	}
	return categoryResponse{Category: t.Category, SubCategories: subs}
}
