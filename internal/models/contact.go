// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

package models

import (
	"database/sql/driver"
	"errors"
	"time"
)

// DateOnly is the wire and storage format for contact birthdays.
const DateOnly = "2006-01-02"

// Birthday is a calendar date without a time component. It marshals as
// "YYYY-MM-DD" and is stored the same way.
type Birthday struct {
	time.Time
}

// NewBirthday builds a Birthday from a year, month and day in UTC.
func NewBirthday(year int, month time.Month, day int) Birthday {
	return Birthday{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (b Birthday) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.Format(DateOnly) + `"`), nil
}

func (b *Birthday) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	t, err := time.ParseInLocation(DateOnly, s, time.UTC)
	if err != nil {
		return err
	}
	b.Time = t
	return nil
}

// Value implements driver.Valuer via the string form.
func (b Birthday) Value() (driver.Value, error) {
	return b.Format(DateOnly), nil
}

// Scan accepts the stored string, byte or time form.
func (b *Birthday) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		b.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case string:
		t, err := time.ParseInLocation(DateOnly, v, time.UTC)
		if err != nil {
			return err
		}
		b.Time = t
		return nil
	case []byte:
		t, err := time.ParseInLocation(DateOnly, string(v), time.UTC)
		if err != nil {
			return err
		}
		b.Time = t
		return nil
	default:
		return errors.New("unsupported birthday column type")
	}
}

// Contact is an owner-scoped address book record. Every read and write
// is filtered by OwnerID; a contact is indistinguishable from absent
// for any other user.
type Contact struct { //nolint:govet // fieldalignment not critical for models
	ID        int64     `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Birthday  Birthday  `db:"birthday" json:"birthday"`
	Extra     *string   `db:"extra" json:"extra"`
	OwnerID   int64     `db:"owner_id" json:"owner_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
