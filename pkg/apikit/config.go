package apikit

import (
	"maps"
	"sync"
	"time"

	"github.com/spf13/cast"
)

// Configuration keys understood by ConfigStore.Get and ConfigStore.Set.
// Any other key is read from and written to Config.Options.
const (
	KeyBaseURL   = "baseURL"
	KeyHeaders   = "headers"
	KeyTimeout   = "timeout"
	KeyParams    = "params"
	KeyUserAgent = "userAgent"
	KeyDebug     = "debug"
)

// Config is the transport configuration record.
type Config struct {
	// BaseURL is prefixed to every relative request path.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`
	// Headers are sent with every request unless overridden per call.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" mapstructure:"headers"`
	// Timeout bounds a single request. Zero leaves the caller's context in charge.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`
	// Params are default query parameters added to every request.
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`
	// UserAgent overrides the default User-Agent header.
	UserAgent string `json:"user_agent,omitempty" yaml:"user_agent,omitempty" mapstructure:"user_agent"`
	// Debug enables request/response logging in the transport.
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty" mapstructure:"debug"`
	// Options holds transport-specific keys that have no dedicated field.
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`
}

// Clone returns a deep copy of the record. Values stored in Options are
// copied shallowly.
func (c Config) Clone() Config {
	c.Headers = cloneMap(c.Headers)
	c.Params = cloneMap(c.Params)
	c.Options = cloneMap(c.Options)

	return c
}

// Merge returns c with override applied on top of it. Scalar fields of
// override win when they are non-zero; Headers, Params and Options are
// merged key by key with override winning. Neither input is modified.
func (c Config) Merge(override Config) Config {
	merged := c.Clone()

	if override.BaseURL != "" {
		merged.BaseURL = override.BaseURL
	}

	if override.Timeout != 0 {
		merged.Timeout = override.Timeout
	}

	if override.UserAgent != "" {
		merged.UserAgent = override.UserAgent
	}

	if override.Debug {
		merged.Debug = true
	}

	merged.Headers = mergeMaps(merged.Headers, override.Headers)
	merged.Params = mergeMaps(merged.Params, override.Params)
	merged.Options = mergeMaps(merged.Options, override.Options)

	return merged
}

// ConfigStore wraps a live Config record.
//
// The record is shared, not copied: Value returns a pointer to the same
// record that Set writes into, so a caller holding that pointer observes (and
// can cause) changes visible to every other holder of the store. Use Snapshot
// or Clone to work on a detached copy.
type ConfigStore struct {
	mu    sync.RWMutex
	value *Config
	// set records known keys written through Set or SetHeaders.
	set map[string]struct{}
}

// NewConfigStore creates a store around cfg.
func NewConfigStore(cfg Config) *ConfigStore {
	return &ConfigStore{value: &cfg, set: make(map[string]struct{})}
}

// Get returns the current value for key and whether it is set. A known key
// is set when its field is non-zero or when it was written through Set, so
// Set(KeyDebug, false) is reported as present. The timeout is always
// returned as a time.Duration.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, written := s.set[key]

	switch key {
	case KeyBaseURL:
		return s.value.BaseURL, written || s.value.BaseURL != ""
	case KeyHeaders:
		return s.value.Headers, written || s.value.Headers != nil
	case KeyTimeout:
		return s.value.Timeout, written || s.value.Timeout != 0
	case KeyParams:
		return s.value.Params, written || s.value.Params != nil
	case KeyUserAgent:
		return s.value.UserAgent, written || s.value.UserAgent != ""
	case KeyDebug:
		return s.value.Debug, written || s.value.Debug
	default:
		value, ok := s.value.Options[key]

		return value, ok
	}
}

// Set writes value under key directly into the live record. Known keys only
// accept their field type; a value of another type is ignored. The timeout
// also accepts a duration string ("1.5s") or a number of milliseconds of any
// numeric kind, and Get reports it back as a time.Duration.
func (s *ConfigStore) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accepted := true

	switch key {
	case KeyBaseURL:
		v, ok := value.(string)
		if ok {
			s.value.BaseURL = v
		}

		accepted = ok
	case KeyHeaders:
		v, ok := value.(map[string]string)
		if ok {
			s.value.Headers = v
		}

		accepted = ok
	case KeyTimeout:
		v, ok := toDuration(value)
		if ok {
			s.value.Timeout = v
		}

		accepted = ok
	case KeyParams:
		v, ok := value.(map[string]string)
		if ok {
			s.value.Params = v
		}

		accepted = ok
	case KeyUserAgent:
		v, ok := value.(string)
		if ok {
			s.value.UserAgent = v
		}

		accepted = ok
	case KeyDebug:
		v, ok := value.(bool)
		if ok {
			s.value.Debug = v
		}

		accepted = ok
	default:
		if s.value.Options == nil {
			s.value.Options = make(map[string]any)
		}

		s.value.Options[key] = value
	}

	if accepted {
		s.set[key] = struct{}{}
	}
}

// SetHeaders installs a new headers map holding the previous entries plus
// key. Maps previously obtained from the store are left untouched.
func (s *ConfigStore) SetHeaders(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	headers := make(map[string]string, len(s.value.Headers)+1)
	maps.Copy(headers, s.value.Headers)
	headers[key] = value

	s.value.Headers = headers
	s.set[KeyHeaders] = struct{}{}
}

// Value returns the live record. Mutating it mutates the store.
func (s *ConfigStore) Value() *Config {
	return s.value
}

// Snapshot returns a detached copy of the record.
func (s *ConfigStore) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.value.Clone()
}

// Clone returns a new store around a snapshot of this one.
func (s *ConfigStore) Clone() *ConfigStore {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := s.value.Clone()

	return &ConfigStore{value: &cfg, set: maps.Clone(s.set)}
}

func toDuration(value any) (time.Duration, bool) {
	switch v := value.(type) {
	case time.Duration:
		return v, true
	case nil, bool:
		return 0, false
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d, true
		}
	}

	millis, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, false
	}

	return time.Duration(millis * float64(time.Millisecond)), true
}

func cloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}

	return maps.Clone(m)
}

func mergeMaps[V any](base, override map[string]V) map[string]V {
	if len(override) == 0 {
		return base
	}

	merged := make(map[string]V, len(base)+len(override))
	maps.Copy(merged, base)
	maps.Copy(merged, override)

	return merged
}
