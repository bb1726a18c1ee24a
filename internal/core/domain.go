package core

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	KindExpense   Kind = "expenses"
	KindIncome    Kind = "income"
	KindScheduled Kind = "scheduled"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500

	// AllCategories is the sentinel category that disables category filtering.
	AllCategories = "All"
)

type (
	// Kind names one of the three record collections.
	Kind string

	// Frequency is the repetition period of a scheduled charge.
	Frequency string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Record is a single dated monetary entry. Frequency and IsActive are
	// only meaningful for scheduled charges.
	Record struct {
		ID          string
		Kind        Kind
		Title       string
		Amount      Money
		Category    string
		Date        Date
		Description string
		Frequency   Frequency
		IsActive    bool
		CreatedAt   time.Time
	}

	// Input carries the client supplied fields of a record. Zero values mean
	// "not supplied" and are resolved by Build and Apply.
	Input struct {
		Title       string
		Amount      Money
		Category    string
		Date        Date
		Description string
		Frequency   Frequency
		IsActive    *bool
	}
)

var (
	expenseCategories = []string{
		"Food", "Transportation", "Entertainment", "Shopping", "Bills",
		"Healthcare", "Education", "Travel", "Other",
	}
	incomeCategories = []string{"Salary", "Freelance", "Investment", "Other"}
)

func (k Kind) IsValid() bool {
	switch k {
	case KindExpense, KindIncome, KindScheduled:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }

// Kinds returns every collection in a stable order.
func Kinds() []Kind {
	return []Kind{KindExpense, KindIncome, KindScheduled}
}

// ParseKind maps a collection name onto its Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

func (f Frequency) IsValid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// Categories returns the allowed categories for kind. Scheduled charges
// share the expense set.
func Categories(kind Kind) []string {
	var src []string
	switch kind {
	case KindIncome:
		src = incomeCategories
	case KindExpense, KindScheduled:
		src = expenseCategories
	default:
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

func IsValidCategory(kind Kind, category string) bool {
	for _, c := range Categories(kind) {
		if c == category {
			return true
		}
	}
	return false
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), int(u.Month()), u.Day())
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks every invariant of a stored record.
func (r Record) Validate() error {
	if !r.Kind.IsValid() {
		return &ValidationError{Field: "kind", Err: ErrInvalidKind}
	}
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return &ValidationError{Field: "title", Err: ErrEmptyTitle}
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return &ValidationError{Field: "title", Err: ErrTitleTooLong}
	}
	if err := r.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	if !IsValidCategory(r.Kind, r.Category) {
		return &ValidationError{Field: "category", Err: ErrInvalidCategory}
	}
	if err := r.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Err: err}
	}
	if utf8.RuneCountInString(r.Description) > MaxDescriptionLength {
		return &ValidationError{Field: "description", Err: ErrDescriptionTooLong}
	}
	if r.Kind == KindScheduled && !r.Frequency.IsValid() {
		return &ValidationError{Field: "frequency", Err: ErrInvalidFrequency}
	}
	return nil
}

// Build turns the input into a new record of the given kind, applying
// defaults (today's date, monthly frequency, active) and validating the result.
// ID and CreatedAt are left to the store.
func (in Input) Build(kind Kind, now time.Time) (Record, error) {
	r := Record{
		Kind:        kind,
		Title:       strings.TrimSpace(in.Title),
		Amount:      in.Amount,
		Category:    strings.TrimSpace(in.Category),
		Date:        in.Date,
		Description: strings.TrimSpace(in.Description),
	}
	if r.Date.IsZero() {
		r.Date = DateOf(now)
	}
	if kind == KindScheduled {
		r.Frequency = in.Frequency
		if r.Frequency == "" {
			r.Frequency = Monthly
		}
		r.IsActive = true
		if in.IsActive != nil {
			r.IsActive = *in.IsActive
		}
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Apply replaces the mutable fields of existing with the input. Title,
// amount, category and description are always replaced; date, frequency
// and isActive keep their stored value when not supplied.
func (in Input) Apply(existing Record) (Record, error) {
	r := existing
	r.Title = strings.TrimSpace(in.Title)
	r.Amount = in.Amount
	r.Category = strings.TrimSpace(in.Category)
	r.Description = strings.TrimSpace(in.Description)
	if !in.Date.IsZero() {
		r.Date = in.Date
	}
	if r.Kind == KindScheduled {
		if in.Frequency != "" {
			r.Frequency = in.Frequency
		}
		if in.IsActive != nil {
			r.IsActive = *in.IsActive
		}
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Visible reports whether the record shows up in default listings.
func (r Record) Visible() bool {
	return r.Kind != KindScheduled || r.IsActive
}
