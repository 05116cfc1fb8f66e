package shared

import (
	_ "embed"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// ClientID is the build-time Spotify client identifier.
//
//	go build -ldflags "-X github.com/desertthunder/insights/internal/shared.ClientID=abc123" ./cmd
var ClientID string

// ClientIDEnv overrides an empty client_id in the config file.
const ClientIDEnv = "INSIGHTS_SPOTIFY_CLIENT_ID"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Insights    InsightsConfig    `toml:"insights"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the public client settings and provider endpoints.
type SpotifyConfig struct {
	ClientID    string   `toml:"client_id"`
	RedirectURI string   `toml:"redirect_uri"`
	Scopes      []string `toml:"scopes"`
	AuthURL     string   `toml:"auth_url"`
	TokenURL    string   `toml:"token_url"`
	APIURL      string   `toml:"api_url"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local callback server.
type ServerConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Timeout int    `toml:"timeout"` // seconds
}

// InsightsConfig controls how listening history is fetched and ranked.
type InsightsConfig struct {
	Limit             int     `toml:"limit"`
	TopGenres         int     `toml:"top_genres"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveClientID returns the client identifier from the config file, then [ClientIDEnv], then the build-time [ClientID].
//
// The placeholder from the example config counts as unset. The value is not validated; the provider rejects bad ids.
func (c *Config) ResolveClientID() string {
	if id := c.Credentials.Spotify.ClientID; id != "" && id != "your_spotify_client_id" {
		return id
	}
	if id := os.Getenv(ClientIDEnv); id != "" {
		return id
	}
	return ClientID
}

// OAuth2 builds the [oauth2.Config] for the public PKCE client.
//
// There is no client secret, so credentials travel in the form body.
func (c *Config) OAuth2() *oauth2.Config {
	spotify := c.Credentials.Spotify
	return &oauth2.Config{
		ClientID:    c.ResolveClientID(),
		RedirectURL: spotify.RedirectURI,
		Scopes:      spotify.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   spotify.AuthURL,
			TokenURL:  spotify.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// Addr returns the host:port the callback server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// CallbackTimeout returns how long to wait for the provider redirect.
func (c *Config) CallbackTimeout() time.Duration {
	if c.Server.Timeout <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(c.Server.Timeout) * time.Second
}

// CallbackPath returns the path component of the redirect URI, defaulting to /callback.
func (c *Config) CallbackPath() (string, error) {
	u, err := url.Parse(c.Credentials.Spotify.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("%w: redirect_uri: %v", ErrInvalidConfig, err)
	}
	if u.Path == "" {
		return "/callback", nil
	}
	return u.Path, nil
}
