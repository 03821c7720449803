package config

import (
	"encoding/json"
	"os"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/flagx"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/timex"
)

// JsonConfig is an intermediate DTO for reading JSON configuration files.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "15m" and integer nanoseconds. After unmarshalling,
// its fields are copied into the runtime Config struct.
type JsonConfig struct {
	EndpointAddrHTTP               string         `json:"endpoint_addr_http"`
	DatabaseDSN                    string         `json:"database_dsn"`
	RedisAddr                      string         `json:"redis_addr"`
	SecretKey                      string         `json:"secret_key"`
	AccessTokenValidityDuration    timex.Duration `json:"access_token_validity_duration"`
	RefreshSessionValidityDuration timex.Duration `json:"refresh_session_validity_duration"`
	OAuthStateValidityDuration     timex.Duration `json:"oauth_state_validity_duration"`
	SweepInterval                  timex.Duration `json:"sweep_interval"`
	BcryptCost                     int            `json:"bcrypt_cost"`
	PublicBaseURL                  string         `json:"public_base_url"`
	CookieSecure                   *bool          `json:"cookie_secure"`
	DefaultGenerationsLimit        int64          `json:"default_generations_limit"`
	GoogleClientID                 string         `json:"google_client_id"`
	GoogleClientSecret             string         `json:"google_client_secret"`
	GoogleRedirectURL              string         `json:"google_redirect_url"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; when neither is set, no JSON file is loaded. A file that cannot be
// read or parsed panics: a half-applied config is worse than no start.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.RedisAddr != "" {
		config.RedisAddr = c.RedisAddr
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshSessionValidityDuration.Duration != 0 {
		config.RefreshSessionValidityDuration = c.RefreshSessionValidityDuration.Duration
	}
	if c.OAuthStateValidityDuration.Duration != 0 {
		config.OAuthStateValidityDuration = c.OAuthStateValidityDuration.Duration
	}
	if c.SweepInterval.Duration != 0 {
		config.SweepInterval = c.SweepInterval.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.PublicBaseURL != "" {
		config.PublicBaseURL = c.PublicBaseURL
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	if c.DefaultGenerationsLimit != 0 {
		config.DefaultGenerationsLimit = c.DefaultGenerationsLimit
	}
	if c.GoogleClientID != "" {
		config.GoogleClientID = c.GoogleClientID
	}
	if c.GoogleClientSecret != "" {
		config.GoogleClientSecret = c.GoogleClientSecret
	}
	if c.GoogleRedirectURL != "" {
		config.GoogleRedirectURL = c.GoogleRedirectURL
	}
}
