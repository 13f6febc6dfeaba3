package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

// ConfigProvider loads the module configuration from an external source,
// layered on top of defaults.
type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

// OptionsResolver merges defaults, loaded, and runtime configuration into the
// final Config.
type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// NewStaticRawConfigLoader wraps fixed raw values for config loading, mostly
// for wiring and tests.
func NewStaticRawConfigLoader(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if anchor := anchorSourceToMap(cfg.Live, includeZero); anchor != nil {
		layer["live"] = anchor
	}
	if anchor := anchorSourceToMap(cfg.Sandbox, includeZero); anchor != nil {
		layer["sandbox"] = anchor
	}
	if includeZero || !credentialsEmpty(cfg.Credentials) {
		layer["credentials"] = map[string]any{
			"client_id":     cfg.Credentials.ClientID,
			"client_secret": cfg.Credentials.ClientSecret,
			"refresh_token": cfg.Credentials.RefreshToken,
			"access_token":  cfg.Credentials.AccessToken,
		}
	}
	if includeZero || strings.TrimSpace(cfg.Endpoints.APIBase) != "" || strings.TrimSpace(cfg.Endpoints.TokenURL) != "" {
		endpoints := map[string]any{}
		if includeZero || strings.TrimSpace(cfg.Endpoints.APIBase) != "" {
			endpoints["api_base"] = cfg.Endpoints.APIBase
		}
		if includeZero || strings.TrimSpace(cfg.Endpoints.TokenURL) != "" {
			endpoints["token_url"] = cfg.Endpoints.TokenURL
		}
		layer["endpoints"] = endpoints
	}
	return layer
}

func anchorSourceToMap(src TrustAnchorSourceConfig, includeZero bool) map[string]any {
	if !includeZero && src.Empty() {
		return nil
	}
	return map[string]any{
		"key":      src.Key,
		"key_file": src.KeyFile,
		"key_env":  src.KeyEnv,
	}
}

func credentialsEmpty(c CredentialsConfig) bool {
	return strings.TrimSpace(c.ClientID) == "" &&
		strings.TrimSpace(c.ClientSecret) == "" &&
		strings.TrimSpace(c.RefreshToken) == "" &&
		strings.TrimSpace(c.AccessToken) == ""
}
