package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseDateLayout(t *testing.T) {
	got, ok := ParseDate("2024-10-10")
	if !ok {
		t.Fatalf("expected ok")
	}
	if FormatDate(got) != "2024-10-10" {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseDateRFC3339Truncates(t *testing.T) {
	got, ok := ParseDate("2024-10-10T10:10:10Z")
	if !ok {
		t.Fatalf("expected ok")
	}
	want := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseDateUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseDate(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if FormatDate(got) != "2024-10-10" {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseDateDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	if got := ParseDateDefault("not-a-date", def); !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 3, 1, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := DaysBetween(b, a); got != -2 {
		t.Fatalf("expected -2, got %d", got)
	}
}

func TestDateRange(t *testing.T) {
	from := time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	days := DateRange(from, to, 0)
	if len(days) != 5 {
		t.Fatalf("expected 5 days across leap day, got %d", len(days))
	}
	if !days[0].Equal(from) || !days[4].Equal(to) {
		t.Fatalf("range endpoints wrong: %v .. %v", days[0], days[4])
	}

	if got := DateRange(from, to, 3); len(got) != 3 {
		t.Fatalf("expected limit 3, got %d", len(got))
	}
	if got := DateRange(to, from, 0); got != nil {
		t.Fatalf("expected nil for inverted range")
	}
}
