// Package coerce holds the column cast primitives used during ingestion.
// Values are converted with github.com/spf13/cast; null cells stay null.
package coerce

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"
)

var (
	ErrInvalidCast       = errors.New("invalid cast")
	ErrInvalidDateFormat = errors.New("invalid date format")
)

// CastError describes the first cell a cast primitive rejected.
type CastError struct {
	Type  string
	Row   int
	Value any
	Err   error
}

func (e *CastError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("cast to %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("row %d: cast %v (%T) to %s: %v", e.Row, e.Value, e.Value, e.Type, e.Err)
}

func (e *CastError) Unwrap() error { return e.Err }

type caster func(any) (any, error)

var casters = map[string]caster{
	"int":     integer(cast.ToInt64E),
	"int64":   integer(cast.ToInt64E),
	"Int64":   integer(cast.ToInt64E),
	"int32":   integer(cast.ToInt32E),
	"Int32":   integer(cast.ToInt32E),
	"int16":   integer(cast.ToInt16E),
	"int8":    integer(cast.ToInt8E),
	"uint":    integer(cast.ToUint64E),
	"uint64":  integer(cast.ToUint64E),
	"uint32":  integer(cast.ToUint32E),
	"uint16":  integer(cast.ToUint16E),
	"uint8":   integer(cast.ToUint8E),
	"float":   wrap(cast.ToFloat64E),
	"float64": wrap(cast.ToFloat64E),
	"Float64": wrap(cast.ToFloat64E),
	"float32": wrap(cast.ToFloat32E),
	"str":     wrap(cast.ToStringE),
	"string":  wrap(cast.ToStringE),
	"object":  wrap(cast.ToStringE),
	// Categories are kept as their string labels.
	"category": wrap(cast.ToStringE),
	"bool":     wrap(cast.ToBoolE),
	"boolean":  wrap(cast.ToBoolE),

	"datetime":       wrap(cast.ToTimeE),
	"datetime64":     wrap(cast.ToTimeE),
	"datetime64[ns]": wrap(cast.ToTimeE),
}

func wrap[T any](fn func(any) (T, error)) caster {
	return func(v any) (any, error) { return fn(v) }
}

// integer is wrap for integer types. String cells must be base-10; they are
// normalized first because cast parses "010" as octal and accepts "0x1F".
func integer[T any](fn func(any) (T, error)) caster {
	return func(v any) (any, error) {
		if s, ok := v.(string); ok {
			d, err := decimal(s)
			if err != nil {
				return nil, err
			}
			v = d
		}
		return fn(v)
	}
}

// decimal returns s as a plain base-10 integer string: optional leading
// '-', no leading zeros.
func decimal(s string) (string, error) {
	digits := strings.TrimSpace(s)
	sign := ""
	switch {
	case strings.HasPrefix(digits, "-"):
		sign, digits = "-", digits[1:]
	case strings.HasPrefix(digits, "+"):
		digits = digits[1:]
	}
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return "", fmt.Errorf("%q is not a base-10 integer", s)
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return "0", nil
	}
	return sign + digits, nil
}

// Supported reports whether typeName is a type the cast primitive knows.
func Supported(typeName string) bool {
	_, ok := casters[typeName]
	return ok
}

// Values casts every non-null cell to the type named by typeName. Casting a
// column that already holds typeName values returns equal values.
func Values(values []any, typeName string) ([]any, error) {
	fn, ok := casters[typeName]
	if !ok {
		return nil, &CastError{Type: typeName, Row: -1, Err: fmt.Errorf("unsupported type %q: %w", typeName, ErrInvalidCast)}
	}

	out := make([]any, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		c, err := fn(v)
		if err != nil {
			return nil, &CastError{Type: typeName, Row: i, Value: v, Err: fmt.Errorf("%w: %v", ErrInvalidCast, err)}
		}
		out[i] = c
	}
	return out, nil
}

// DateTimes parses every non-null cell as a time.Time. String cells are
// matched against layouts, then against common spreadsheet formats
// (month/day/year, slashed ISO, minutes without seconds, month names);
// otherwise the format is inferred by cast.ToTimeE.
func DateTimes(values []any, layouts []string) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		ts, err := parseTime(v, layouts)
		if err != nil {
			return nil, &CastError{Type: "dt", Row: i, Value: v, Err: fmt.Errorf("%w: %v", ErrInvalidDateFormat, err)}
		}
		out[i] = ts
	}
	return out, nil
}

// fallbackLayouts are tried after the configured layouts for formats
// cast.ToTimeE does not infer.
var fallbackLayouts = []string{
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2006/1/2",
	"2006/1/2 15:04",
	"2006/1/2 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
}

func parseTime(v any, layouts []string) (time.Time, error) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		for _, layout := range slices.Concat(layouts, fallbackLayouts) {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, nil
			}
		}
	}
	return cast.ToTimeE(v)
}

// Booleans maps null cells to false and every other cell to true.
func Booleans(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v != nil
	}
	return out
}
