package access

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRemoteChecker_Check(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/access/disease_lookup" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("user_id"); got != "user 1" {
			t.Errorf("expected user_id %q, got %q", "user 1", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"allowed":false,"remaining":0,"limit":3,"reason":"upgrade required"}`))
	}))
	defer srv.Close()

	c := NewRemoteChecker(srv.URL, "secret")
	defer c.Close()

	d, err := c.Check(context.Background(), "user 1", FeatureDiseaseLookup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Decision{Allowed: false, Remaining: 0, Limit: 3, Reason: "upgrade required"}
	if d != want {
		t.Errorf("expected %+v, got %+v", want, d)
	}
}

func TestRemoteChecker_CheckServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewRemoteChecker(srv.URL, "")
	if _, err := c.Check(context.Background(), "u1", FeatureDiseaseLookup); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestRemoteChecker_Reserve(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    Decision
		wantErr bool
	}{
		{"allowed", http.StatusOK, `{"allowed":true,"remaining":2,"limit":3}`, Decision{Allowed: true, Remaining: 2, Limit: 3}, false},
		{"forbidden", http.StatusForbidden, `{"allowed":false,"limit":3,"reason":"daily limit of 3 reached"}`, Decision{Limit: 3, Reason: "daily limit of 3 reached"}, false},
		{"rate limited body says allowed", http.StatusTooManyRequests, `{"allowed":true,"limit":3}`, Decision{Limit: 3}, false},
		{"server error", http.StatusInternalServerError, `oops`, Decision{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotUser string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/v1/access/disease_lookup/reserve" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				if r.Header.Get("Authorization") != "" {
					t.Error("expected no auth header without api key")
				}
				var body map[string]string
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Errorf("decode body: %v", err)
				}
				gotUser = body["user_id"]
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewRemoteChecker(srv.URL, "")
			d, err := c.Reserve(context.Background(), "u42", FeatureDiseaseLookup)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d != tc.want {
				t.Errorf("expected %+v, got %+v", tc.want, d)
			}
			if gotUser != "u42" {
				t.Errorf("expected user u42, got %q", gotUser)
			}
		})
	}
}

func TestRemoteChecker_Release(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPost || r.URL.Path != "/v1/access/disease_lookup/release" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewRemoteChecker(srv.URL, "secret")
	if err := c.Release(context.Background(), "u42", FeatureDiseaseLookup); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
