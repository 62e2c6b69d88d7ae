package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/WALKERIS/visionrpweb/internal/domain"
)

const defaultDiscordBaseURL = "https://discord.com"

// userNamespace derives stable storefront user ids from Discord ids.
var userNamespace = uuid.MustParse("6f1c2a0e-4b8d-5e57-9a3c-2d7b1e0f9c41")

func UserID(discordID string) uuid.UUID {
	return uuid.NewSHA1(userNamespace, []byte("discord:"+discordID))
}

type DiscordConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// BaseURL overrides https://discord.com.
	BaseURL    string
	HTTPClient *http.Client
}

// Discord runs the authorization-code flow with PKCE against Discord.
type Discord struct {
	oauth   *oauth2.Config
	baseURL string
	client  *http.Client
}

func NewDiscord(cfg DiscordConfig) *Discord {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultDiscordBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Discord{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"identify", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/oauth2/authorize",
				TokenURL:  base + "/api/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		baseURL: base,
		client:  client,
	}
}

// NewState returns a random value for the oauth state parameter.
func NewState() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// AuthCodeURL is the hosted authorization page the visitor is redirected to.
func (d *Discord) AuthCodeURL(state, verifier string) string {
	return d.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades the callback code for a token and fetches the Discord user.
func (d *Discord) Exchange(ctx context.Context, code, verifier string) (domain.User, *oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, d.client)

	token, err := d.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return domain.User{}, nil, fmt.Errorf("exchange code: %w", err)
	}

	user, err := d.me(ctx, token)
	if err != nil {
		return domain.User{}, nil, err
	}
	return user, token, nil
}

type discordUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Email      string `json:"email"`
}

func (d *Discord) me(ctx context.Context, token *oauth2.Token) (domain.User, error) {
	client := d.oauth.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/api/users/@me", nil)
	if err != nil {
		return domain.User{}, fmt.Errorf("build user request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch discord user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.User{}, fmt.Errorf("fetch discord user: unexpected status %d", resp.StatusCode)
	}

	var du discordUser
	if err := json.NewDecoder(resp.Body).Decode(&du); err != nil {
		return domain.User{}, fmt.Errorf("decode discord user: %w", err)
	}
	if du.ID == "" {
		return domain.User{}, fmt.Errorf("decode discord user: missing id")
	}

	name := du.GlobalName
	if name == "" {
		name = du.Username
	}
	return domain.User{
		ID:          UserID(du.ID),
		ProviderID:  du.ID,
		DisplayName: name,
		Email:       du.Email,
	}, nil
}

// Revoke invalidates the access token at Discord.
func (d *Discord) Revoke(ctx context.Context, token *oauth2.Token) error {
	form := url.Values{
		"token":           {token.AccessToken},
		"token_type_hint": {"access_token"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/api/oauth2/token/revoke", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(url.QueryEscape(d.oauth.ClientID), url.QueryEscape(d.oauth.ClientSecret))

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke token: unexpected status %d", resp.StatusCode)
	}
	return nil
}
