package coerce

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestValues(t *testing.T) {
	tests := []struct {
		name     string
		typeName string
		in       []any
		want     []any
	}{
		{"int64", "int64", []any{"1", "42", nil}, []any{int64(1), int64(42), nil}},
		{"int32", "int32", []any{"7"}, []any{int32(7)}},
		{"int64 zero padded", "int64",
			[]any{"010", "0123", "08", "-007", "+5", "000", " 42 "},
			[]any{int64(10), int64(123), int64(8), int64(-7), int64(5), int64(0), int64(42)}},
		{"uint16 zero padded", "uint16", []any{"00501"}, []any{uint16(501)}},
		{"float64", "float64", []any{"1.5", int64(2)}, []any{1.5, float64(2)}},
		{"str", "str", []any{"x", int64(3)}, []any{"x", "3"}},
		{"category", "category", []any{"red", "blue"}, []any{"red", "blue"}},
		{"bool", "bool", []any{"true", "false", true}, []any{true, false, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Values(tt.in, tt.typeName)
			if err != nil {
				t.Fatalf("Values: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Values(%v, %s) = %#v, want %#v", tt.in, tt.typeName, got, tt.want)
			}
		})
	}
}

func TestValues_RecastIsNoOp(t *testing.T) {
	first, err := Values([]any{"10", "-3"}, "int64")
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	second, err := Values(first, "int64")
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("recast changed values: %v -> %v", first, second)
	}
}

func TestValues_UnsupportedType(t *testing.T) {
	_, err := Values([]any{"1"}, "decimal128")
	if !errors.Is(err, ErrInvalidCast) {
		t.Fatalf("expected ErrInvalidCast, got %v", err)
	}
	if Supported("decimal128") {
		t.Error("decimal128 should not be supported")
	}
	if !Supported("int64") {
		t.Error("int64 should be supported")
	}
}

func TestValues_BadValue(t *testing.T) {
	_, err := Values([]any{"1", "abc"}, "int64")
	if !errors.Is(err, ErrInvalidCast) {
		t.Fatalf("expected ErrInvalidCast, got %v", err)
	}
	var ce *CastError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CastError, got %T", err)
	}
	if ce.Row != 1 || ce.Value != "abc" {
		t.Errorf("CastError = %+v", ce)
	}
}

func TestValues_RejectsNonDecimalIntegers(t *testing.T) {
	for _, in := range []string{"0x1F", "0b101", "0o17", "1_000", "12.0", "-", ""} {
		t.Run(in, func(t *testing.T) {
			if _, err := Values([]any{in}, "int64"); !errors.Is(err, ErrInvalidCast) {
				t.Errorf("Values(%q) error = %v, want ErrInvalidCast", in, err)
			}
		})
	}
}

func TestDateTimes_CommonFormats(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2020-01-01", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2020-01-01 10:00:00", time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"2020-01-01 10:00", time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"1/2/2020", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"01/02/2020", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"12/27/2020 08:30", time.Date(2020, 12, 27, 8, 30, 0, 0, time.UTC)},
		{"2020/01/02", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"Jan 2, 2020", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"January 2, 2020", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"02-Jan-2020", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := DateTimes([]any{tt.in}, nil)
			if err != nil {
				t.Fatalf("DateTimes(%q): %v", tt.in, err)
			}
			if ts, ok := got[0].(time.Time); !ok || !ts.Equal(tt.want) {
				t.Errorf("DateTimes(%q) = %v, want %v", tt.in, got[0], tt.want)
			}
		})
	}
}

func TestDateTimes(t *testing.T) {
	got, err := DateTimes([]any{"2020-01-01", nil, "2020-02-01"}, nil)
	if err != nil {
		t.Fatalf("DateTimes: %v", err)
	}
	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if ts, ok := got[0].(time.Time); !ok || !ts.Equal(want) {
		t.Errorf("got[0] = %v, want %v", got[0], want)
	}
	if got[1] != nil {
		t.Errorf("null should stay null, got %v", got[1])
	}

	again, err := DateTimes(got, nil)
	if err != nil {
		t.Fatalf("DateTimes on parsed values: %v", err)
	}
	if !reflect.DeepEqual(got, again) {
		t.Errorf("reparse changed values: %v -> %v", got, again)
	}
}

func TestDateTimes_Layouts(t *testing.T) {
	got, err := DateTimes([]any{"12/27/2020"}, []string{"01/02/2006"})
	if err != nil {
		t.Fatalf("DateTimes: %v", err)
	}
	want := time.Date(2020, 12, 27, 0, 0, 0, 0, time.UTC)
	if !got[0].(time.Time).Equal(want) {
		t.Errorf("got %v, want %v", got[0], want)
	}
}

func TestDateTimes_Malformed(t *testing.T) {
	_, err := DateTimes([]any{"not a date"}, nil)
	if !errors.Is(err, ErrInvalidDateFormat) {
		t.Errorf("expected ErrInvalidDateFormat, got %v", err)
	}
}

func TestBooleans(t *testing.T) {
	got := Booleans([]any{"1", nil, "1", nil, "0"})
	want := []any{true, false, true, false, true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Booleans = %v, want %v", got, want)
	}
}
