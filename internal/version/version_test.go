package version

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL), WithToken(""), WithCurrent("1.0"))
}

func contents(version string) string {
	return fmt.Sprintf(`{"content": %q, "encoding": "base64"}`, base64.StdEncoding.EncodeToString([]byte(version)))
}

func TestLatest(t *testing.T) {
	var gotPath, gotRef string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRef = r.URL.Query().Get("ref")
		fmt.Fprint(w, contents("1.1\n"))
	})

	latest, err := c.Latest(context.Background(), "dev")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest != "1.1" {
		t.Errorf("Latest() = %q, want 1.1", latest)
	}
	if gotPath != "/repos/Dotsian/DexScript/contents/version.txt" {
		t.Errorf("path = %q", gotPath)
	}
	if gotRef != "dev" {
		t.Errorf("ref = %q, want dev", gotRef)
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name      string
		published string
		outdated  bool
		label     string
	}{
		{"same", "1.0", false, "LATEST"},
		{"newer", "1.1", true, "OUTDATED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, contents(tt.published))
			})

			status, err := c.Check(context.Background(), "main")
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if status.Outdated() != tt.outdated {
				t.Errorf("Outdated() = %v, want %v", status.Outdated(), tt.outdated)
			}
			if status.Label() != tt.label {
				t.Errorf("Label() = %q, want %q", status.Label(), tt.label)
			}
		})
	}
}

func TestWarning(t *testing.T) {
	s := Status{Current: "1.0", Latest: "1.1"}
	want := "Your DexScript version (1.0) is outdated. Please update to version (1.1)."
	if s.Warning() != want {
		t.Errorf("Warning() = %q, want %q", s.Warning(), want)
	}

	if (Status{Current: "1.0", Latest: "1.0"}).Warning() != "" {
		t.Error("Warning() should be empty when up to date")
	}
	if (Status{Current: "1.0"}).Outdated() {
		t.Error("unknown latest version is not outdated")
	}
}

func TestLatestErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		header  string
		body    string
		wantErr error
	}{
		{"not found", http.StatusNotFound, "", "", ErrNotFound},
		{"rate limited", http.StatusForbidden, "0", "", ErrRateLimited},
		{"forbidden", http.StatusForbidden, "", "", ErrUnauthorized},
		{"too many", http.StatusTooManyRequests, "", "", ErrRateLimited},
		{"server error", http.StatusInternalServerError, "", "", ErrAPIError},
		{"bad json", http.StatusOK, "", "{", ErrAPIError},
		{"bad base64", http.StatusOK, "", `{"content": "!!!"}`, ErrAPIError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.header != "" {
					w.Header().Set("X-RateLimit-Remaining", tt.header)
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := c.Latest(context.Background(), "main")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Latest() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLatestNetworkError(t *testing.T) {
	c := NewClient(WithBaseURL("http://127.0.0.1:1"))

	_, err := c.Latest(context.Background(), "main")
	if !errors.Is(err, ErrNetworkError) {
		t.Errorf("Latest() error = %v, want ErrNetworkError", err)
	}
}

func TestAuthorizationHeader(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		fmt.Fprint(w, contents("1.0"))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithToken("ghp_test"))
	if _, err := c.Latest(context.Background(), "main"); err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer ghp_test" {
		t.Errorf("Authorization = %q", auth)
	}
}
