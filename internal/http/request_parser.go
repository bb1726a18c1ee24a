// Package http provides HTTP server and handler implementations.
//
// This file implements request decoding: JSON record bodies, list filters
// and input sanitization.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/BurairCodes/Expense-tracker/internal/core"
	"github.com/BurairCodes/Expense-tracker/internal/filter"
)

const maxBodyBytes = 1 << 20

// ErrMalformedBody is returned when a request body is not a JSON object.
var ErrMalformedBody = errors.New("malformed JSON body")

var (
	validate     = newValidator()
	strictPolicy = bluemonday.StrictPolicy()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names in errors.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// amountField accepts a JSON number or a decimal string. Parse failures
// are kept and reported as validation errors rather than decode errors.
type amountField struct {
	Money core.Money
	Set   bool
	Err   error
}

func (a *amountField) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	a.Set = true
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(b, &raw); err != nil {
			a.Err = core.ErrInvalidAmount
			return nil
		}
	}
	a.Money, a.Err = core.ParseMoney(raw)
	return nil
}

// recordRequest is the body of POST and PUT on a collection.
type recordRequest struct {
	Title       string      `json:"title" validate:"required,max=100"`
	Amount      amountField `json:"amount"`
	Category    string      `json:"category" validate:"required"`
	Description string      `json:"description" validate:"max=500"`
	Date        string      `json:"date"`
	Frequency   string      `json:"frequency" validate:"omitempty,oneof=daily weekly monthly yearly"`
	IsActive    *bool       `json:"isActive"`
}

// DecodeRecordInput reads and validates a record body. Failures are
// *core.ValidationError, or *http.MaxBytesError for oversized bodies.
func DecodeRecordInput(w http.ResponseWriter, r *http.Request) (core.Input, error) {
	var req recordRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.Input{}, err
		}
		return core.Input{}, &core.ValidationError{Field: "body", Err: fmt.Errorf("%w: %v", ErrMalformedBody, err)}
	}

	req.Title = sanitizeInput(req.Title)
	req.Category = sanitizeInput(req.Category)
	req.Description = sanitizeInput(req.Description)
	req.Frequency = strings.ToLower(strings.TrimSpace(req.Frequency))

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return core.Input{}, fieldError(verrs[0])
		}
		return core.Input{}, err
	}

	if !req.Amount.Set || req.Amount.Err != nil {
		return core.Input{}, &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
	}

	in := core.Input{
		Title:       req.Title,
		Amount:      req.Amount.Money,
		Category:    req.Category,
		Description: req.Description,
		Frequency:   core.Frequency(req.Frequency),
		IsActive:    req.IsActive,
	}
	if strings.TrimSpace(req.Date) != "" {
		d, err := core.ParseDate(req.Date)
		if err != nil {
			return core.Input{}, &core.ValidationError{Field: "date", Err: err}
		}
		in.Date = d
	}
	return in, nil
}

func fieldError(fe validator.FieldError) error {
	var err error
	switch fe.Field() {
	case "title":
		err = core.ErrTitleTooLong
		if fe.Tag() == "required" {
			err = core.ErrEmptyTitle
		}
	case "category":
		err = core.ErrInvalidCategory
	case "description":
		err = core.ErrDescriptionTooLong
	case "frequency":
		err = core.ErrInvalidFrequency
	default:
		err = fmt.Errorf("failed %q check", fe.Tag())
	}
	return &core.ValidationError{Field: fe.Field(), Err: err}
}

// ParseFilter builds a list predicate from the query string. Scheduled
// charges that are inactive are hidden unless includeInactive is true.
func ParseFilter(r *http.Request) (filter.Predicate, error) {
	q := r.URL.Query()
	p := filter.Predicate{
		Category: sanitizeInput(q.Get("category")),
		Search:   sanitizeInput(q.Get("search")),
	}

	if v := strings.TrimSpace(q.Get("startDate")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return filter.Predicate{}, &core.ValidationError{Field: "startDate", Err: err}
		}
		p.DateFrom = d
	}
	if v := strings.TrimSpace(q.Get("endDate")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return filter.Predicate{}, &core.ValidationError{Field: "endDate", Err: err}
		}
		p.DateTo = d
	}
	if v := strings.ToLower(strings.TrimSpace(q.Get("frequency"))); v != "" {
		f := core.Frequency(v)
		if !f.IsValid() {
			return filter.Predicate{}, &core.ValidationError{Field: "frequency", Err: core.ErrInvalidFrequency}
		}
		p.Frequency = f
	}

	includeInactive := false
	if v := strings.TrimSpace(q.Get("includeInactive")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter.Predicate{}, &core.ValidationError{Field: "includeInactive", Err: fmt.Errorf("not a boolean: %q", v)}
		}
		includeInactive = b
	}
	p.OnlyActive = !includeInactive

	return p, nil
}

// sanitizeInput strips markup and control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = html.UnescapeString(strictPolicy.Sanitize(s))
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
