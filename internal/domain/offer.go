package domain

import (
	"math"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// UsageType says whether a customer may redeem an offer once or repeatedly.
type UsageType string

const (
	UsageSingle UsageType = "single"
	UsageMulti  UsageType = "multi"
)

func (u UsageType) Valid() bool {
	return u == UsageSingle || u == UsageMulti
}

const maxBrandNameLen = 100

// Money columns are numeric(10,2).
var maxMoney = decimal.New(1, 8)

// Offer is a time-bounded discount authored by a brand account.
type Offer struct {
	ID              string           `json:"id"`
	SubCategoryID   string           `json:"subcategory"`
	SubCategoryName string           `json:"subcategoryName,omitempty"`
	UserID          string           `json:"user"`
	UserEmail       string           `json:"userEmail,omitempty"`
	BrandName       string           `json:"brandName"`
	Slug            string           `json:"slug"`
	Description     string           `json:"description,omitempty"`
	DiscountPercent *int             `json:"discountPercent,omitempty"`
	DiscountAmount  *decimal.Decimal `json:"discountAmount,omitempty"`
	StartDate       time.Time        `json:"startDate"`
	EndDate         time.Time        `json:"endDate"`
	UsageType       UsageType        `json:"usageType"`
	IsActive        bool             `json:"isActive"`
	MaxUses         *int             `json:"maxUses,omitempty"`
	MinimumPurchase *decimal.Decimal `json:"minimumPurchase,omitempty"`
	RetailerURL     string           `json:"retailerUrl"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// IsValid reports whether the offer is active and now lies in [StartDate, EndDate].
func (o Offer) IsValid(now time.Time) bool {
	return o.IsActive && !now.Before(o.StartDate) && !now.After(o.EndDate)
}

// Validate checks the field invariants that do not need the store.
// Exactly one of DiscountPercent and DiscountAmount must be set.
func (o Offer) Validate() error {
	errs := FieldErrors{}

	name := strings.TrimSpace(o.BrandName)
	switch {
	case name == "":
		errs.Add("brandName", "this field is required")
	case utf8.RuneCountInString(name) > maxBrandNameLen:
		errs.Add("brandName", "must be at most 100 characters")
	}
	if o.SubCategoryID == "" {
		errs.Add("subcategory", "this field is required")
	}
	if o.UserID == "" {
		errs.Add("user", "this field is required")
	}

	switch {
	case o.DiscountPercent == nil && o.DiscountAmount == nil:
		errs.Add("discount", "one of discountPercent or discountAmount is required")
	case o.DiscountPercent != nil && o.DiscountAmount != nil:
		errs.Add("discount", "discountPercent and discountAmount are mutually exclusive")
	case o.DiscountPercent != nil && (*o.DiscountPercent < 1 || *o.DiscountPercent > 100):
		errs.Add("discountPercent", "must be between 1 and 100")
	case o.DiscountAmount != nil && !o.DiscountAmount.IsPositive():
		errs.Add("discountAmount", "must be greater than zero")
	case o.DiscountAmount != nil:
		if msg := moneyProblem(*o.DiscountAmount); msg != "" {
			errs.Add("discountAmount", msg)
		}
	}

	if o.StartDate.IsZero() {
		errs.Add("startDate", "this field is required")
	}
	if o.EndDate.IsZero() {
		errs.Add("endDate", "this field is required")
	}
	if !o.StartDate.IsZero() && !o.EndDate.IsZero() && o.EndDate.Before(o.StartDate) {
		errs.Add("endDate", "must not be before startDate")
	}

	if !o.UsageType.Valid() {
		errs.Add("usageType", `must be "single" or "multi"`)
	}
	if o.MaxUses != nil && (*o.MaxUses <= 0 || *o.MaxUses > math.MaxInt32) {
		errs.Add("maxUses", "must be between 1 and 2147483647")
	}
	if o.MinimumPurchase != nil {
		if o.MinimumPurchase.IsNegative() {
			errs.Add("minimumPurchase", "must not be negative")
		} else if msg := moneyProblem(*o.MinimumPurchase); msg != "" {
			errs.Add("minimumPurchase", msg)
		}
	}

	if !isHTTPURL(o.RetailerURL) {
		errs.Add("retailerUrl", "must be an absolute http(s) URL")
	}

	return errs.Err()
}

func moneyProblem(d decimal.Decimal) string {
	if !d.Equal(d.Round(2)) {
		return "at most 2 decimal places"
	}
	if d.Abs().Cmp(maxMoney) >= 0 {
		return "must be less than 100000000"
	}
	return ""
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
