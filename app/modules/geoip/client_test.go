package geoip

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_Lookup(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  error
		wantCity string
		wantFlag string
	}{
		{
			name:     "success",
			status:   http.StatusOK,
			body:     `{"status":"success","city":"Berlin","country":"Germany","countryCode":"DE","lat":52.52,"lon":13.4}`,
			wantCity: "Berlin",
			wantFlag: "DE",
		},
		{
			name:    "endpoint reports fail",
			status:  http.StatusOK,
			body:    `{"status":"fail"}`,
			wantErr: ErrNotFound,
		},
		{
			name:    "not found status",
			status:  http.StatusNotFound,
			body:    ``,
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(ClientConfig{Endpoint: srv.URL, RequestsPerSecond: 1000}, testLogger())
			loc, err := client.Lookup(context.Background(), "203.0.113.7")

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Lookup error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			if gotPath != "/203.0.113.7" {
				t.Errorf("request path = %q, want /203.0.113.7", gotPath)
			}
			if loc.City != tt.wantCity {
				t.Errorf("City = %q, want %q", loc.City, tt.wantCity)
			}
			if loc.CountryCode != tt.wantFlag {
				t.Errorf("CountryCode = %q, want %q", loc.CountryCode, tt.wantFlag)
			}
		})
	}
}

func TestClient_LookupServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{Endpoint: srv.URL, RequestsPerSecond: 1000}, testLogger())
	if _, err := client.Lookup(context.Background(), "203.0.113.7"); err == nil {
		t.Fatal("Lookup on 502 succeeded, want error")
	}
}

func TestPublicIP(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"203.0.113.7", true},
		{"2001:db8::1", true},
		{"10.0.0.4", false},
		{"192.168.1.20", false},
		{"127.0.0.1", false},
		{"0.0.0.0", false},
		{"169.254.10.1", false},
		{"not-an-ip", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := publicIP(tt.addr); got != tt.want {
			t.Errorf("publicIP(%q) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestHostOnly(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"203.0.113.7:27005", "203.0.113.7"},
		{"203.0.113.7", "203.0.113.7"},
		{"[2001:db8::1]:27005", "2001:db8::1"},
	}
	for _, tt := range tests {
		if got := hostOnly(tt.addr); got != tt.want {
			t.Errorf("hostOnly(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}
