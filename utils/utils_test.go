package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if hash == "secret" {
		t.Fatalf("hash must not equal the password")
	}
	if err := CheckPassword(hash, "secret"); err != nil {
		t.Fatalf("expected password to match")
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected password mismatch")
	}
}

func TestHashPasswordRejectsOverlongInput(t *testing.T) {
	if _, err := HashPassword(strings.Repeat("a", MaxPasswordBytes)); err != nil {
		t.Fatalf("72 bytes should hash: %v", err)
	}
	// 40 characters, 80 bytes
	if _, err := HashPassword(strings.Repeat("\u00e9", 40)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestGenerateAuthToken(t *testing.T) {
	a, err := GenerateAuthToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	b, err := GenerateAuthToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if len(a) != AuthTokenBytes*2 {
		t.Fatalf("expected %d hex chars, got %d", AuthTokenBytes*2, len(a))
	}
	if a == b {
		t.Fatalf("expected distinct tokens")
	}
}

func TestIsDuplicateKey(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	if !IsDuplicateKey(dup) {
		t.Fatalf("expected write exception 11000 to be a duplicate")
	}
	if IsDuplicateKey(errors.New("boom")) {
		t.Fatalf("plain error is not a duplicate")
	}
	if IsDuplicateKey(nil) {
		t.Fatalf("nil is not a duplicate")
	}
}

func TestNormalizeDeviceName(t *testing.T) {
	// "e" + combining acute accent composes to a single rune
	got := NormalizeDeviceName("  Cafe\u0301\x07 Sensor\t\n")
	if got != "Caf\u00e9 Sensor" {
		t.Fatalf("unexpected normalized name %q", got)
	}
}

func TestParseTimeQuery(t *testing.T) {
	got, err := ParseTimeQuery("")
	if err != nil || got != nil {
		t.Fatalf("expected nil for empty value, got %v, %v", got, err)
	}
	got, err = ParseTimeQuery("2021-05-07T02:00:00+10:00")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	want := time.Date(2021, 5, 6, 16, 0, 0, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if _, err := ParseTimeQuery("yesterday"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestQueryLimitsPage(t *testing.T) {
	l := QueryLimits{Max: 50, Default: 20}
	cases := []struct {
		page, limit         string
		wantPage, wantLimit int
	}{
		{"", "", 1, 20},
		{"3", "10", 3, 10},
		{"0", "-4", 1, 20},
		{"x", "500", 1, 50},
		{"9223372036854775807", "50", MaxPage, 50},
	}
	for _, c := range cases {
		p, n := l.Page(c.page, c.limit)
		if p != c.wantPage || n != c.wantLimit {
			t.Fatalf("Page(%q,%q) = %d,%d want %d,%d", c.page, c.limit, p, n, c.wantPage, c.wantLimit)
		}
	}
}
