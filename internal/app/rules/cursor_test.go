package rules

import (
	"encoding/base64"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 30, 45, 123456789, time.UTC)
	id := primitive.NewObjectID()

	token := EncodeCursor(at, id)
	got := DecodeCursor(token)

	if !got.UpdatedAt.Equal(at) {
		t.Fatalf("got %v, want %v", got.UpdatedAt, at)
	}
	if got.ID != id {
		t.Fatalf("got %v, want %v", got.ID, id)
	}
}

func TestCursorEncodesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	at := time.Date(2025, 6, 1, 20, 0, 0, 0, loc)
	id := primitive.NewObjectID()

	got := DecodeCursor(EncodeCursor(at, id))
	if !got.UpdatedAt.Equal(at) {
		t.Fatalf("got %v, want instant %v", got.UpdatedAt, at)
	}
	if got.UpdatedAt.Location() != time.UTC {
		t.Fatalf("got location %v, want UTC", got.UpdatedAt.Location())
	}
}

func TestDecodeCursorMalformed(t *testing.T) {
	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not base64", "!!not-base64!!"},
		{"no separator", base64.RawURLEncoding.EncodeToString([]byte("2025-06-01T00:00:00Z"))},
		{"bad timestamp", base64.RawURLEncoding.EncodeToString([]byte("yesterday|507f1f77bcf86cd799439011"))},
		{"bad id", base64.RawURLEncoding.EncodeToString([]byte("2025-06-01T00:00:00Z|nothex"))},
		{"extra separator", base64.RawURLEncoding.EncodeToString([]byte("2025-06-01T00:00:00Z|507f1f77bcf86cd799439011|junk"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DecodeCursor(tc.token); !got.IsZero() {
				t.Fatalf("got %+v, want zero cursor", got)
			}
		})
	}
}

func TestClampLimit(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 20},
		{-5, 20},
		{1, 1},
		{50, 50},
		{100, 100},
		{101, 100},
		{100000, 100},
	}
	for _, tc := range cases {
		if got := ClampLimit(tc.in); got != tc.want {
			t.Fatalf("ClampLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
