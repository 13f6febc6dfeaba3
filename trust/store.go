package trust

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/goliatone/go-iap/core"
)

// Store holds the active trust anchor per environment. At most one anchor per
// environment; later-resolved sources overwrite earlier ones, never merge.
type Store struct {
	mu      sync.RWMutex
	anchors map[core.Environment]core.TrustAnchor
}

func NewStore() *Store {
	return &Store{
		anchors: map[core.Environment]core.TrustAnchor{},
	}
}

// Configure resolves one environment's key material from the configured
// sources, precedence: inline string > file path > environment variable. A
// missing key file is treated as "not configured" rather than an error;
// malformed key content only surfaces at verify time.
func (s *Store) Configure(env core.Environment, src core.TrustAnchorSourceConfig) error {
	if s == nil {
		return fmt.Errorf("trust: store is nil")
	}
	if !env.Valid() {
		return core.ConfigError(fmt.Sprintf("trust: unknown environment %q", string(env)))
	}

	if key := strings.TrimSpace(src.Key); key != "" {
		s.set(env, key)
		return nil
	}

	if path := strings.TrimSpace(src.KeyFile); path != "" {
		content, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return core.ConfigError(fmt.Sprintf("trust: read key file %q: %v", path, err))
		}
		// A missing file means "not configured", not a failure; the next
		// source still gets a chance.
		if key := strings.TrimSpace(string(content)); err == nil && key != "" {
			s.set(env, key)
			return nil
		}
	}

	if name := strings.TrimSpace(src.KeyEnv); name != "" {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			s.set(env, key)
		}
	}
	return nil
}

func (s *Store) set(env core.Environment, keyMaterial string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anchors[env] = core.TrustAnchor{
		Environment: env,
		KeyMaterial: keyMaterial,
	}
}

// Anchor returns the active trust anchor for the environment.
func (s *Store) Anchor(env core.Environment) (core.TrustAnchor, bool) {
	if s == nil {
		return core.TrustAnchor{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	anchor, ok := s.anchors[env]
	if !ok || anchor.Empty() {
		return core.TrustAnchor{}, false
	}
	return anchor, true
}

// FromConfig builds a store with both environments resolved from config.
func FromConfig(cfg core.Config) (*Store, error) {
	store := NewStore()
	if err := store.Configure(core.EnvironmentLive, cfg.Live); err != nil {
		return nil, err
	}
	if err := store.Configure(core.EnvironmentSandbox, cfg.Sandbox); err != nil {
		return nil, err
	}
	return store, nil
}

var _ core.KeyStore = (*Store)(nil)
