package accounts

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/chloe472/Reely/internal/infra/httpclient"
)

// Account is a user record from the Supabase admin API, reduced to the
// fields the leaderboard needs.
type Account struct {
	ID          string
	Email       string
	DisplayName string
	AvatarURL   string
}

// Directory lists project users through the Supabase GoTrue admin
// endpoint, authenticated with the service role key.
type Directory struct {
	client *resty.Client
	logger *zap.Logger
}

type Config struct {
	ProjectURL string
	ServiceKey string
	Timeout    time.Duration
}

const directoryPageSize = 1000

func NewDirectory(cfg Config, logger *zap.Logger) *Directory {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.NewWithClient(httpclient.New(timeout)).
		SetBaseURL(strings.TrimRight(cfg.ProjectURL, "/")).
		SetHeader("apikey", cfg.ServiceKey).
		SetHeader("Authorization", "Bearer "+cfg.ServiceKey)

	return &Directory{client: client, logger: logger}
}

type adminUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

type adminUsersResponse struct {
	Users []adminUser `json:"users"`
}

// ListUsers pages through /auth/v1/admin/users until a short page is
// returned.
func (d *Directory) ListUsers(ctx context.Context) ([]Account, error) {
	var accounts []Account

	for page := 1; ; page++ {
		var body adminUsersResponse
		resp, err := d.client.R().
			SetContext(ctx).
			SetQueryParam("page", fmt.Sprintf("%d", page)).
			SetQueryParam("per_page", fmt.Sprintf("%d", directoryPageSize)).
			SetResult(&body).
			Get("/auth/v1/admin/users")
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("list users: unexpected status %d", resp.StatusCode())
		}

		for _, user := range body.Users {
			accounts = append(accounts, Account{
				ID:          user.ID,
				Email:       user.Email,
				DisplayName: displayNameFromMetadata(user),
				AvatarURL:   metadataString(user.UserMetadata, "avatar_url"),
			})
		}

		if len(body.Users) < directoryPageSize {
			return accounts, nil
		}
	}
}

func displayNameFromMetadata(user adminUser) string {
	for _, key := range []string{"full_name", "name", "user_name"} {
		if value := metadataString(user.UserMetadata, key); value != "" {
			return value
		}
	}
	if user.Email != "" {
		if at := strings.Index(user.Email, "@"); at > 0 {
			return user.Email[:at]
		}
	}
	return "Anonymous"
}

func metadataString(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	value, _ := metadata[key].(string)
	return strings.TrimSpace(value)
}
