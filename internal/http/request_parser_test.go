package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"viaggi/internal/services"
)

func TestActivityRequestCost(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantNil bool
		wantErr bool
	}{
		{raw: ``, wantNil: true},
		{raw: `null`, wantNil: true},
		{raw: `12.5`, want: 1250},
		{raw: `"$1,200.00"`, want: 120000},
		{raw: `0`, want: 0},
		{raw: `"-3"`, wantErr: true},
		{raw: `"lots"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			in, err := activityRequest{CustomName: "x", EstimatedCost: json.RawMessage(tt.raw)}.input()
			if tt.wantErr {
				var verr *services.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if in.EstimatedCost != nil {
					t.Fatalf("expected nil cost, got %v", in.EstimatedCost)
				}
				return
			}
			if in.EstimatedCost == nil || in.EstimatedCost.Cents != tt.want {
				t.Fatalf("cost = %v, want %d", in.EstimatedCost, tt.want)
			}
		})
	}
}

func TestParseCatalogFilter(t *testing.T) {
	f, err := parseCatalogFilter(url.Values{"type": {" Culture "}, "q": {"museum\x00"}, "limit": {"500"}})
	if err != nil {
		t.Fatal(err)
	}
	if f.Type != "culture" || f.Query != "museum" || f.Limit != maxCatalogLimit {
		t.Fatalf("filter = %+v", f)
	}
	if f, _ := parseCatalogFilter(url.Values{}); f.Limit != defaultCatalogLimit {
		t.Fatalf("default limit = %d", f.Limit)
	}
	if _, err := parseCatalogFilter(url.Values{"limit": {"abc"}}); statusForError(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        int
	}{
		{"ok", "application/json; charset=utf-8", `{"name":"a"}`, http.StatusOK},
		{"empty", "application/json", ``, http.StatusBadRequest},
		{"trailing", "application/json", `{"name":"a"} {"name":"b"}`, http.StatusBadRequest},
		{"form", "application/x-www-form-urlencoded", `name=a`, http.StatusUnsupportedMediaType},
		{"too large", "application/json", `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", tt.contentType)
			var dst tripRequest
			err := decodeJSON(httptest.NewRecorder(), r, &dst)
			if got := statusForError(err); got != tt.want {
				t.Fatalf("status = %d (%v), want %d", got, err, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  Rome\x07\tday\n "); got != "Rome\tday" {
		t.Fatalf("sanitizeInput = %q", got)
	}
}
