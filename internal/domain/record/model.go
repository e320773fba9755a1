// Package record provides the student record domain: the Record entity,
// its persistence contract and the Record Service that mutates it.
package record

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"studentrecords/internal/core/apperror"
)

// Field length limits, counted in characters.
const (
	MaxFirstNameLen   = 50
	MaxLastNameLen    = 50
	MaxClassLabelLen  = 20
	MaxPhoneNumberLen = 15
	MaxAddressLen     = 200
	MaxStateLen       = 30
	MaxCityLen        = 30
)

// Record is a student record.
// ID and CreatedAt are assigned once at creation and never change.
type Record struct {
	ID          int64     `db:"id" json:"id"`
	FirstName   string    `db:"first_name" json:"firstName"`
	LastName    string    `db:"last_name" json:"lastName"`
	ClassLabel  string    `db:"class_label" json:"class,omitempty"`
	PhoneNumber string    `db:"phone_number" json:"phoneNumber,omitempty"`
	Address     string    `db:"address" json:"address,omitempty"`
	State       string    `db:"state" json:"state,omitempty"`
	City        string    `db:"city" json:"city,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Fields holds the mutable attributes of a Record, as submitted by a caller.
type Fields struct {
	FirstName   string
	LastName    string
	ClassLabel  string
	PhoneNumber string
	Address     string
	State       string
	City        string
}

// Changes is a partial update. Nil fields keep their current value.
// There is no way to express a change of ID or CreatedAt.
type Changes struct {
	FirstName   *string
	LastName    *string
	ClassLabel  *string
	PhoneNumber *string
	Address     *string
	State       *string
	City        *string
}

// NewRecord builds an unsaved Record from submitted fields.
// createdAt is normalized to UTC with microsecond precision, which is what
// both relational stores can hold without rounding.
func NewRecord(f Fields, createdAt time.Time) *Record {
	r := &Record{CreatedAt: createdAt.UTC().Truncate(time.Microsecond)}
	r.apply(f)
	return r
}

// Replace returns Changes that overwrite every mutable field with f.
func (f Fields) Replace() Changes {
	return Changes{
		FirstName:   &f.FirstName,
		LastName:    &f.LastName,
		ClassLabel:  &f.ClassLabel,
		PhoneNumber: &f.PhoneNumber,
		Address:     &f.Address,
		State:       &f.State,
		City:        &f.City,
	}
}

// IsEmpty reports whether no field is set.
func (c Changes) IsEmpty() bool {
	return c.FirstName == nil && c.LastName == nil && c.ClassLabel == nil &&
		c.PhoneNumber == nil && c.Address == nil && c.State == nil && c.City == nil
}

// ApplyTo overwrites the fields of r that are set in c.
func (c Changes) ApplyTo(r *Record) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&r.FirstName, c.FirstName)
	set(&r.LastName, c.LastName)
	set(&r.ClassLabel, c.ClassLabel)
	set(&r.PhoneNumber, c.PhoneNumber)
	set(&r.Address, c.Address)
	set(&r.State, c.State)
	set(&r.City, c.City)
}

func (r *Record) apply(f Fields) {
	f.Replace().ApplyTo(r)
}

// Fields returns the mutable attributes of r.
func (r *Record) Fields() Fields {
	return Fields{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		ClassLabel:  r.ClassLabel,
		PhoneNumber: r.PhoneNumber,
		Address:     r.Address,
		State:       r.State,
		City:        r.City,
	}
}

// FullName returns "First Last".
func (r *Record) FullName() string {
	return r.FirstName + " " + r.LastName
}

// Validate checks required fields and length limits.
func (r *Record) Validate(ctx context.Context) error {
	rules := []struct {
		field    string
		value    string
		max      int
		required bool
	}{
		{"firstName", r.FirstName, MaxFirstNameLen, true},
		{"lastName", r.LastName, MaxLastNameLen, true},
		{"class", r.ClassLabel, MaxClassLabelLen, false},
		{"phoneNumber", r.PhoneNumber, MaxPhoneNumberLen, false},
		{"address", r.Address, MaxAddressLen, false},
		{"state", r.State, MaxStateLen, false},
		{"city", r.City, MaxCityLen, false},
	}

	for _, rule := range rules {
		if rule.required && rule.value == "" {
			return apperror.NewValidation(rule.field + " is required").
				WithDetail("field", rule.field)
		}
		if n := utf8.RuneCountInString(rule.value); n > rule.max {
			return apperror.NewValidation(
				fmt.Sprintf("%s must be at most %d characters", rule.field, rule.max),
			).
				WithDetail("field", rule.field).
				WithDetail("max", rule.max).
				WithDetail("length", n)
		}
	}

	return nil
}
