package core

import (
	"fmt"
	"strings"
)

// TrustAnchorSourceConfig describes where one environment's verification key
// comes from. Precedence: Key > KeyFile > KeyEnv, first one present wins.
type TrustAnchorSourceConfig struct {
	Key     string `koanf:"key" mapstructure:"key"`
	KeyFile string `koanf:"key_file" mapstructure:"key_file"`
	KeyEnv  string `koanf:"key_env" mapstructure:"key_env"`
}

func (c TrustAnchorSourceConfig) Empty() bool {
	return strings.TrimSpace(c.Key) == "" &&
		strings.TrimSpace(c.KeyFile) == "" &&
		strings.TrimSpace(c.KeyEnv) == ""
}

// CredentialsConfig is the OAuth credential tuple for purchase-state lookups.
// AccessToken is the only field that mutates after setup; the rest are fixed
// for the process lifetime.
type CredentialsConfig struct {
	ClientID     string `koanf:"client_id" mapstructure:"client_id"`
	ClientSecret string `koanf:"client_secret" mapstructure:"client_secret"`
	RefreshToken string `koanf:"refresh_token" mapstructure:"refresh_token"`
	AccessToken  string `koanf:"access_token" mapstructure:"access_token"`
}

// Complete reports whether the full tuple needed for remote status lookups is
// configured. When false, reconciliation is a pass-through.
func (c CredentialsConfig) Complete() bool {
	return strings.TrimSpace(c.ClientID) != "" &&
		strings.TrimSpace(c.ClientSecret) != "" &&
		strings.TrimSpace(c.RefreshToken) != "" &&
		strings.TrimSpace(c.AccessToken) != ""
}

type EndpointConfig struct {
	APIBase  string `koanf:"api_base" mapstructure:"api_base"`
	TokenURL string `koanf:"token_url" mapstructure:"token_url"`
}

type Config struct {
	ServiceName string                  `koanf:"service_name" mapstructure:"service_name"`
	Live        TrustAnchorSourceConfig `koanf:"live" mapstructure:"live"`
	Sandbox     TrustAnchorSourceConfig `koanf:"sandbox" mapstructure:"sandbox"`
	Credentials CredentialsConfig       `koanf:"credentials" mapstructure:"credentials"`
	Endpoints   EndpointConfig          `koanf:"endpoints" mapstructure:"endpoints"`
}

const (
	DefaultAPIBase  = "https://www.googleapis.com/androidpublisher/v3/applications"
	DefaultTokenURL = "https://accounts.google.com/o/oauth2/token"
)

func DefaultConfig() Config {
	return Config{
		ServiceName: "iap",
		Endpoints: EndpointConfig{
			APIBase:  DefaultAPIBase,
			TokenURL: DefaultTokenURL,
		},
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Endpoints.APIBase) == "" {
		return fmt.Errorf("core: endpoints.api_base is required")
	}
	if strings.TrimSpace(c.Endpoints.TokenURL) == "" {
		return fmt.Errorf("core: endpoints.token_url is required")
	}
	return nil
}
