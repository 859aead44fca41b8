// Package importer bulk-creates offers from CSV files on behalf of an account.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"offers-marketplace/internal/domain"
	offersvc "offers-marketplace/internal/service/offer"
)

// OfferCreator is the part of the offer service the importer drives.
type OfferCreator interface {
	Create(ctx context.Context, caller domain.Caller, in offersvc.OfferInput) (*domain.Offer, error)
}

type SubCategoryLookup interface {
	GetSubCategoryBySlug(ctx context.Context, slug string) (*domain.SubCategory, error)
}

// Columns lists the recognised headers. Only subcategory, brand_name,
// start_date, end_date, retailer_url and one discount column are required;
// header order is free.
var Columns = []string{
	"subcategory", "brand_name", "slug", "description", "discount_percent", "discount_amount",
	"start_date", "end_date", "usage_type", "is_active", "max_uses", "minimum_purchase", "retailer_url",
}

// RowError records why one CSV line was not imported.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Report summarises a run.
type Report struct {
	Imported []string
	Failures []RowError
}

// CSVImporter reads offer rows and creates each one through the offer
// service as caller, so every row gets the same permission, slug and
// validation handling as the API.
type CSVImporter struct {
	reader  *csv.Reader
	offers  OfferCreator
	subcats SubCategoryLookup
	caller  domain.Caller

	subIDs map[string]string
}

func NewCSVImporter(r io.Reader, offers OfferCreator, subcats SubCategoryLookup, caller domain.Caller) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:  csvr,
		offers:  offers,
		subcats: subcats,
		caller:  caller,
		subIDs:  map[string]string{},
	}
}

// Run imports every row. Rows that fail parsing or validation are reported
// and skipped; a malformed file or a caller without permission to create
// offers stops the run.
func (i *CSVImporter) Run(ctx context.Context) (Report, error) {
	var report Report

	headers, err := i.reader.Read()
	if err != nil {
		return report, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{"subcategory", "brand_name", "start_date", "end_date", "retailer_url"} {
		if _, ok := index[required]; !ok {
			return report, fmt.Errorf("missing required column %q", required)
		}
	}

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, fmt.Errorf("read row: %w", err)
		}
		line, _ := i.reader.FieldPos(0)
		if blank(record) {
			continue
		}

		created, err := i.importRow(ctx, record, index)
		if errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, domain.ErrForbidden) {
			return report, fmt.Errorf("line %d: %w", line, err)
		}
		if err != nil {
			report.Failures = append(report.Failures, RowError{Line: line, Err: err})
			continue
		}
		report.Imported = append(report.Imported, created.Slug)
	}
	return report, nil
}

func (i *CSVImporter) importRow(ctx context.Context, record []string, index map[string]int) (*domain.Offer, error) {
	in, err := parseRow(record, index)
	if err != nil {
		return nil, err
	}
	if in.SubCategory, err = i.resolveSubCategory(ctx, in.SubCategory); err != nil {
		return nil, err
	}
	return i.offers.Create(ctx, i.caller, in)
}

// resolveSubCategory accepts either a subcategory id or its slug.
func (i *CSVImporter) resolveSubCategory(ctx context.Context, ref string) (string, error) {
	if ref == "" || uuid.Validate(ref) == nil {
		return ref, nil
	}
	if id, ok := i.subIDs[ref]; ok {
		return id, nil
	}
	sub, err := i.subcats.GetSubCategoryBySlug(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.Invalid("subcategory", fmt.Sprintf("no subcategory with slug %q", ref))
	}
	if err != nil {
		return "", err
	}
	i.subIDs[ref] = sub.ID
	return sub.ID, nil
}

func parseRow(record []string, index map[string]int) (offersvc.OfferInput, error) {
	errs := domain.FieldErrors{}
	in := offersvc.OfferInput{
		SubCategory: pick(record, index, "subcategory"),
		BrandName:   pick(record, index, "brand_name"),
		Slug:        pick(record, index, "slug"),
		Description: pick(record, index, "description"),
		UsageType:   domain.UsageType(strings.ToLower(pick(record, index, "usage_type"))),
		RetailerURL: pick(record, index, "retailer_url"),
	}

	var err error
	if in.DiscountPercent, err = optionalInt(pick(record, index, "discount_percent")); err != nil {
		errs.Add("discountPercent", "must be a whole number")
	}
	if in.MaxUses, err = optionalInt(pick(record, index, "max_uses")); err != nil {
		errs.Add("maxUses", "must be a whole number")
	}
	if in.DiscountAmount, err = optionalDecimal(pick(record, index, "discount_amount")); err != nil {
		errs.Add("discountAmount", "must be a decimal number")
	}
	if in.MinimumPurchase, err = optionalDecimal(pick(record, index, "minimum_purchase")); err != nil {
		errs.Add("minimumPurchase", "must be a decimal number")
	}
	if in.StartDate, err = parseDate(pick(record, index, "start_date")); err != nil {
		errs.Add("startDate", err.Error())
	}
	if in.EndDate, err = parseDate(pick(record, index, "end_date")); err != nil {
		errs.Add("endDate", err.Error())
	}
	if raw := pick(record, index, "is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			errs.Add("isActive", "must be true or false")
		} else {
			in.IsActive = &active
		}
	}
	return in, errs.Err()
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// parseDate reads RFC 3339 timestamps or plain dates; values without a zone are UTC.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q, use YYYY-MM-DD or RFC 3339", raw)
}

func optionalInt(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optionalDecimal(raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
