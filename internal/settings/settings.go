// Package settings persists the reviewer's API endpoint and bearer token.
// Values live in the key/value store and are mirrored into cookies so a
// browser that lost server state can still present them.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JaimeStill/walacakra/pkg/kv"
)

// Storage keys, also used as cookie names.
const (
	EndpointKey = "apiEndpoint"
	TokenKey    = "apiToken"
)

// CookieLifetime is how long the mirrored cookies survive.
const CookieLifetime = 7 * 24 * time.Hour

// Settings holds the reviewer-supplied connection to the processing API.
type Settings struct {
	Endpoint string `json:"endpoint"`
	Token    string `json:"token,omitempty"`
}

// BaseURL returns the endpoint without a trailing slash.
func (s Settings) BaseURL() (string, error) {
	endpoint := strings.TrimSpace(s.Endpoint)
	if endpoint == "" {
		return "", ErrNoEndpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: %s", ErrInvalidEndpoint, endpoint)
	}

	return strings.TrimRight(endpoint, "/"), nil
}

// Authorization returns the Authorization header value, or "" without a token.
func (s Settings) Authorization() string {
	if s.Token == "" {
		return ""
	}
	return "Bearer " + s.Token
}

// System loads and saves reviewer settings.
type System struct {
	store           kv.Store
	defaultEndpoint string
	logger          *slog.Logger
}

// New creates a settings System. defaultEndpoint is used when neither the
// store nor the request carries an endpoint.
func New(store kv.Store, defaultEndpoint string, logger *slog.Logger) *System {
	return &System{
		store:           store,
		defaultEndpoint: defaultEndpoint,
		logger:          logger.With("system", "settings"),
	}
}

// Load reads the settings from the store, falling back to the request's
// cookies for any value the store does not hold. r may be nil.
func (s *System) Load(ctx context.Context, r *http.Request) Settings {
	result := Settings{
		Endpoint: s.read(ctx, r, EndpointKey),
		Token:    s.read(ctx, r, TokenKey),
	}
	if result.Endpoint == "" {
		result.Endpoint = s.defaultEndpoint
	}
	return result
}

// Save trims and stores both values and, when w is non-nil, mirrors them
// into cookies. A blank endpoint clears the setting.
func (s *System) Save(ctx context.Context, w http.ResponseWriter, in Settings) (Settings, error) {
	out := Settings{
		Endpoint: strings.TrimSpace(in.Endpoint),
		Token:    strings.TrimSpace(in.Token),
	}

	if out.Endpoint != "" {
		if _, err := out.BaseURL(); err != nil {
			return Settings{}, err
		}
	}

	if err := s.store.Put(ctx, EndpointKey, []byte(out.Endpoint)); err != nil {
		return Settings{}, fmt.Errorf("save endpoint: %w", err)
	}
	if err := s.store.Put(ctx, TokenKey, []byte(out.Token)); err != nil {
		return Settings{}, fmt.Errorf("save token: %w", err)
	}

	if w != nil {
		setCookie(w, EndpointKey, out.Endpoint)
		setCookie(w, TokenKey, out.Token)
	}

	s.logger.Info("settings saved", "endpoint", out.Endpoint, "token_set", out.Token != "")
	return out, nil
}

func (s *System) read(ctx context.Context, r *http.Request, key string) string {
	value, err := s.store.Get(ctx, key)
	switch {
	case err == nil && len(value) > 0:
		return string(value)
	case err != nil && !errors.Is(err, kv.ErrNotFound):
		s.logger.Warn("read setting failed", "key", key, "error", err)
	}

	if r == nil {
		return ""
	}
	return readCookie(r, key)
}

func setCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(value),
		Path:     "/",
		Expires:  time.Now().Add(CookieLifetime),
		MaxAge:   int(CookieLifetime.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

func readCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	value, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return value
}
