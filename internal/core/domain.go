package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	OperatorA Operator = "operator_a"
	OperatorB Operator = "operator_b"
)

const dateLayout = "2006-01-02"

type (
	Operator string

	// MonthName is the canonical English month name a commission refers to.
	MonthName string

	Date struct {
		time.Time
	}

	Sale struct {
		ID       string `json:"id"`
		Date     Date   `json:"date"`
		Quantity int    `json:"quantity"`
	}

	MonthlyCommission struct {
		ID              string          `json:"id"`
		Month           MonthName       `json:"month"`
		Year            int             `json:"year"`
		Operator        Operator        `json:"operator"`
		CommissionValue decimal.Decimal `json:"commissionValue"`
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidYear        = errors.New("invalid year")
	ErrInvalidOperator    = errors.New("invalid operator")
	ErrNegativeCommission = errors.New("commission value cannot be negative")
	ErrInvalidAmount      = errors.New("invalid amount")
)

// MonthNames lists the canonical month names, January first.
var MonthNames = [12]MonthName{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthNameOf returns the canonical name for m.
func MonthNameOf(m time.Month) MonthName {
	if m < time.January || m > time.December {
		return ""
	}
	return MonthNames[m-1]
}

// Month resolves the name to a calendar month. Only exact canonical names
// resolve; anything else reports false.
func (n MonthName) Month() (time.Month, bool) {
	for i, name := range MonthNames {
		if n == name {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

func (o Operator) Valid() bool {
	return o == OperatorA || o == OperatorB
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and normalises both
// to the calendar day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (s Sale) Validate() error {
	if err := s.Date.Validate(); err != nil {
		return err
	}
	if s.Quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

func (c MonthlyCommission) Validate() error {
	if _, ok := c.Month.Month(); !ok {
		return ErrInvalidMonth
	}
	if c.Year < 1900 || c.Year > 9999 {
		return ErrInvalidYear
	}
	if !c.Operator.Valid() {
		return ErrInvalidOperator
	}
	if c.CommissionValue.IsNegative() {
		return ErrNegativeCommission
	}
	return nil
}
