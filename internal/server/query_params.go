package server

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateOnlyLayout = "2006-01-02"

func parseOptionalInt(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	return strconv.Atoi(trimmed)
}

// parseOptionalTime accepts RFC3339 or a bare date, which is read as UTC
// midnight. The zero time means the bound was not given.
func parseOptionalTime(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return parsed, nil
	}
	if parsed, err := time.Parse(dateOnlyLayout, trimmed); err == nil {
		return parsed.UTC(), nil
	}
	return time.Time{}, errors.New("invalid_time")
}

// flexibleTime decodes RFC3339 timestamps and bare dates from JSON bodies.
type flexibleTime struct {
	time.Time
}

func (t *flexibleTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := parseOptionalTime(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t *flexibleTime) ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

// requiredDecimal rejects an amount missing from the body.
func requiredDecimal(field string, v *decimal.Decimal) (decimal.Decimal, error) {
	if v == nil {
		return decimal.Decimal{}, newValidationError(field, "required", field+" is required")
	}
	return *v, nil
}
