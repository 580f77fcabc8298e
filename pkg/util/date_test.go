package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseDateISO(t *testing.T) {
	got, ok := ParseDate("2019-01-01")
	if !ok {
		t.Fatalf("expected ok")
	}
	if !got.Equal(time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseDateTimestampKeepsUTCDate(t *testing.T) {
	got, ok := ParseDate("2023-12-31T23:30:00-02:00")
	if !ok {
		t.Fatalf("expected ok")
	}
	if FormatDate(got) != "2024-01-01" {
		t.Fatalf("expected UTC date 2024-01-01, got %s", FormatDate(got))
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	if _, ok := ParseDate("31/12/2023"); ok {
		t.Fatalf("expected parse failure")
	}
}

func TestFormatDateDropsTime(t *testing.T) {
	d := time.Date(2020, 2, 29, 15, 4, 5, 0, time.UTC)
	if FormatDate(d) != "2020-02-29" {
		t.Fatalf("unexpected format %s", FormatDate(d))
	}
}
