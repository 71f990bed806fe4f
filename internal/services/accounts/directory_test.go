package accounts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestDirectoryListUsers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/admin/users" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("apikey"); got != "service-key" {
			t.Errorf("apikey header = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer service-key" {
			t.Errorf("Authorization header = %q", got)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"users": []map[string]any{
				{
					"id":    "user-1",
					"email": "alice@example.com",
					"user_metadata": map[string]any{
						"full_name":  "Alice",
						"avatar_url": "https://cdn.example.com/alice.png",
					},
				},
				{
					"id":            "user-2",
					"email":         "bob@example.com",
					"user_metadata": map[string]any{},
				},
				{
					"id": "user-3",
				},
			},
		})
	}))
	defer server.Close()

	directory := NewDirectory(Config{
		ProjectURL: server.URL,
		ServiceKey: "service-key",
	}, zap.NewNop())

	accounts, err := directory.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(accounts) != 3 {
		t.Fatalf("ListUsers() returned %d accounts, want 3", len(accounts))
	}

	if accounts[0].DisplayName != "Alice" || accounts[0].AvatarURL != "https://cdn.example.com/alice.png" {
		t.Errorf("account 0 = %+v", accounts[0])
	}
	if accounts[1].DisplayName != "bob" {
		t.Errorf("account 1 display name = %q, want email prefix fallback", accounts[1].DisplayName)
	}
	if accounts[2].DisplayName != "Anonymous" {
		t.Errorf("account 2 display name = %q, want Anonymous", accounts[2].DisplayName)
	}
}

func TestDirectoryListUsersErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	directory := NewDirectory(Config{
		ProjectURL: server.URL,
		ServiceKey: "bad-key",
	}, zap.NewNop())

	if _, err := directory.ListUsers(context.Background()); err == nil {
		t.Fatal("ListUsers() expected error on 403")
	}
}
