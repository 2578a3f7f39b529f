package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWantsWeather(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"what's the weather in Lake Tahoe", true},
		{"Weather for tomorrow?", true},
		{"tell me about your projects", false},
		{"WEATHER please", true},
		{"whether or not you like it", false},
	}

	for _, tt := range tests {
		if got := WantsWeather(tt.message); got != tt.want {
			t.Errorf("WantsWeather(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}

func TestResolveLocation(t *testing.T) {
	const fallback = "San Francisco,CA,US"

	tests := []struct {
		name    string
		message string
		want    string
	}{
		{
			name:    "known multi-word location",
			message: "what's the weather in Lake Tahoe",
			want:    "Lake Tahoe,CA,US",
		},
		{
			name:    "known location odd casing",
			message: "WEATHER IN   lake   tahoe??",
			want:    "Lake Tahoe,CA,US",
		},
		{
			name:    "typo correction then known table",
			message: "weather in lake tahoee",
			want:    "Lake Tahoe,CA,US",
		},
		{
			name:    "pattern extraction",
			message: "how is the weather at portland today",
			want:    "Portland",
		},
		{
			name:    "weather for phrase",
			message: "weather for austin",
			want:    "Austin",
		},
		{
			name:    "no location falls back to default",
			message: "what's the weather like?",
			want:    fallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveLocation(tt.message, fallback)
			if got != tt.want {
				t.Errorf("ResolveLocation(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestClientCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("units") != "imperial" {
			t.Errorf("units = %q, want imperial", r.URL.Query().Get("units"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Lake Tahoe","main":{"temp":41.7},"weather":[{"description":"light snow"}]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", srv.URL)
	report, err := c.Current(context.Background(), "Lake Tahoe,CA,US")
	if err != nil {
		t.Fatalf("Current error: %v", err)
	}

	want := "The weather in Lake Tahoe is currently 41.7°F with light snow."
	if got := report.Sentence(); got != want {
		t.Errorf("Sentence = %q, want %q", got, want)
	}
}

func TestClientCurrentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"cod":"404","message":"city not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", srv.URL)
	if _, err := c.Current(context.Background(), "Nowhere"); err == nil {
		t.Error("expected error for 404 response")
	}
}
