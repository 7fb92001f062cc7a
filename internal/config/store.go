// Package config provides the layered configuration store used by the
// daemon harness and its host applications.
//
// Values are resolved from, in order of precedence:
//  1. Explicit overrides (Set*, -D key=value)
//  2. Environment variables (SWARM_*, dots replaced by underscores)
//  3. Loaded configuration files (later files win)
//  4. Defaults
//
// Keys are case-insensitive and use dots as hierarchy separators.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	serrors "github.com/swarmcom/swarm/internal/errors"
)

// DefaultEnvPrefix is the environment variable prefix used by NewStore.
const DefaultEnvPrefix = "SWARM"

// maxExpandDepth bounds ${key} expansion; deeper chains are reported as cycles.
const maxExpandDepth = 10

// Store is a layered, concurrency-safe key/value configuration store.
type Store struct {
	mu        sync.RWMutex
	v         *viper.Viper
	envPrefix string
	defaults  map[string]any
	overrides map[string]any
	files     []string
}

// Option configures a Store.
type Option func(*Store)

// WithEnvPrefix sets the environment variable prefix. An empty prefix
// disables the environment layer.
func WithEnvPrefix(prefix string) Option {
	return func(s *Store) {
		s.envPrefix = prefix
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		envPrefix: DefaultEnvPrefix,
		defaults:  make(map[string]any),
		overrides: make(map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.v = s.newViper()
	return s
}

// newViper builds a viper instance carrying the default, environment and
// override layers. The file layer is merged by the caller.
func (s *Store) newViper() *viper.Viper {
	v := viper.New()
	if s.envPrefix != "" {
		v.SetEnvPrefix(s.envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}
	for key, value := range s.defaults {
		v.SetDefault(key, value)
	}
	for key, value := range s.overrides {
		v.Set(key, value)
	}
	return v
}

// LoadFile merges a configuration file into the file layer. YAML files are
// decoded with yaml.v3; other extensions use viper's readers.
func (s *Store) LoadFile(path string) error {
	settings, err := readFile(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.v.MergeConfigMap(settings); err != nil {
		return fmt.Errorf("failed to merge config file %s: %w", path, err)
	}
	s.files = append(s.files, path)
	return nil
}

// Reload re-reads every file previously loaded with LoadFile. On error the
// store keeps its previous contents.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.newViper()
	for _, path := range s.files {
		settings, err := readFile(path)
		if err != nil {
			return err
		}
		if err := v.MergeConfigMap(settings); err != nil {
			return fmt.Errorf("failed to merge config file %s: %w", path, err)
		}
	}
	s.v = v
	return nil
}

// Files returns the configuration files loaded so far.
func (s *Store) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.files...)
}

// readFile decodes a configuration file into a settings map.
func readFile(path string) (map[string]any, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		settings := make(map[string]any)
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return nil, serrors.Wrapf(serrors.KindMalformed, err, "failed to parse config file %s", path)
		}
		return settings, nil
	default:
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			return nil, serrors.Wrapf(serrors.KindMalformed, err, "failed to parse config file %s", path)
		}
		return v.AllSettings(), nil
	}
}

// Save writes all resolved settings to path as YAML.
func (s *Store) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(s.AllSettings())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// AllSettings returns the merged settings as a nested map.
func (s *Store) AllSettings() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.AllSettings()
}

// SetDefault sets the lowest-precedence value for key.
func (s *Store) SetDefault(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key = strings.ToLower(key)
	s.defaults[key] = value
	s.v.SetDefault(key, value)
}

func (s *Store) set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key = strings.ToLower(key)
	s.overrides[key] = value
	s.v.Set(key, value)
}

// SetString sets key to value, overwriting any existing value.
func (s *Store) SetString(key, value string) { s.set(key, value) }

// SetInt sets key to value, overwriting any existing value.
func (s *Store) SetInt(key string, value int) { s.set(key, value) }

// SetFloat64 sets key to value, overwriting any existing value.
func (s *Store) SetFloat64(key string, value float64) { s.set(key, value) }

// SetBool sets key to value, overwriting any existing value.
func (s *Store) SetBool(key string, value bool) { s.set(key, value) }

// Has reports whether key is set in any layer.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.IsSet(key)
}

// lookup returns the raw value stored for key.
func (s *Store) lookup(key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.v.IsSet(key) {
		return nil, serrors.New(serrors.KindNotFound, key)
	}
	return s.v.Get(key), nil
}

// RawString returns the value of key without expanding ${...} references.
func (s *Store) RawString(key string) (string, error) {
	value, err := s.lookup(key)
	if err != nil {
		return "", err
	}
	str, err := cast.ToStringE(value)
	if err != nil {
		return "", serrors.Wrapf(serrors.KindMalformed, err, "%s is not a string", key)
	}
	return str, nil
}

// RawStringOr returns the raw value of key, or def if key is not set.
func (s *Store) RawStringOr(key, def string) (string, error) {
	str, err := s.RawString(key)
	if serrors.IsKind(err, serrors.KindNotFound) {
		return def, nil
	}
	return str, err
}

// String returns the value of key with ${...} references expanded.
func (s *Store) String(key string) (string, error) {
	raw, err := s.RawString(key)
	if err != nil {
		return "", err
	}
	return s.Expand(raw)
}

// StringOr returns the expanded value of key, or def if key is not set.
// Placeholders in def are expanded as well.
func (s *Store) StringOr(key, def string) (string, error) {
	str, err := s.String(key)
	if serrors.IsKind(err, serrors.KindNotFound) {
		return s.Expand(def)
	}
	return str, err
}

// scalar resolves key to either an expanded string or the typed value the
// file decoder produced.
func (s *Store) scalar(key string) (any, error) {
	value, err := s.lookup(key)
	if err != nil {
		return nil, err
	}
	if str, ok := value.(string); ok {
		return s.Expand(str)
	}
	return value, nil
}

// Int returns key as an int. Strings with a 0x prefix are parsed as hexadecimal.
func (s *Store) Int(key string) (int, error) {
	value, err := s.scalar(key)
	if err != nil {
		return 0, err
	}
	n, err := toInt(value)
	if err != nil {
		return 0, serrors.Wrapf(serrors.KindMalformed, err, "%s is not an int", key)
	}
	return n, nil
}

// IntOr returns key as an int, or def if key is not set. A value that is set
// but not an int is still an error.
func (s *Store) IntOr(key string, def int) (int, error) {
	n, err := s.Int(key)
	if serrors.IsKind(err, serrors.KindNotFound) {
		return def, nil
	}
	return n, err
}

// Float64 returns key as a float64.
func (s *Store) Float64(key string) (float64, error) {
	value, err := s.scalar(key)
	if err != nil {
		return 0, err
	}
	f, err := cast.ToFloat64E(trimString(value))
	if err != nil {
		return 0, serrors.Wrapf(serrors.KindMalformed, err, "%s is not a number", key)
	}
	return f, nil
}

// Float64Or returns key as a float64, or def if key is not set.
func (s *Store) Float64Or(key string, def float64) (float64, error) {
	f, err := s.Float64(key)
	if serrors.IsKind(err, serrors.KindNotFound) {
		return def, nil
	}
	return f, err
}

// Bool returns key as a bool. Accepted strings are true/false, yes/no,
// on/off (any case) and numbers, where non-zero is true.
func (s *Store) Bool(key string) (bool, error) {
	value, err := s.scalar(key)
	if err != nil {
		return false, err
	}
	b, err := toBool(value)
	if err != nil {
		return false, serrors.Wrapf(serrors.KindMalformed, err, "%s is not a bool", key)
	}
	return b, nil
}

// BoolOr returns key as a bool, or def if key is not set.
func (s *Store) BoolOr(key string, def bool) (bool, error) {
	b, err := s.Bool(key)
	if serrors.IsKind(err, serrors.KindNotFound) {
		return def, nil
	}
	return b, err
}

// Duration returns key as a time.Duration ("30s", "1m30s" or nanoseconds).
func (s *Store) Duration(key string) (time.Duration, error) {
	value, err := s.scalar(key)
	if err != nil {
		return 0, err
	}
	d, err := cast.ToDurationE(trimString(value))
	if err != nil {
		return 0, serrors.Wrapf(serrors.KindMalformed, err, "%s is not a duration", key)
	}
	return d, nil
}

// DurationOr returns key as a time.Duration, or def if key is not set.
func (s *Store) DurationOr(key string, def time.Duration) (time.Duration, error) {
	d, err := s.Duration(key)
	if serrors.IsKind(err, serrors.KindNotFound) {
		return def, nil
	}
	return d, err
}

// Keys returns the sorted immediate child segments below prefix. An empty
// prefix returns the root level keys.
func (s *Store) Keys(prefix string) []string {
	s.mu.RLock()
	all := s.v.AllKeys()
	s.mu.RUnlock()

	prefix = strings.ToLower(strings.Trim(prefix, "."))
	seen := make(map[string]struct{})
	for _, key := range all {
		rest := key
		if prefix != "" {
			if !strings.HasPrefix(key, prefix+".") {
				continue
			}
			rest = key[len(prefix)+1:]
		}
		if i := strings.IndexByte(rest, '.'); i >= 0 {
			rest = rest[:i]
		}
		if rest != "" {
			seen[rest] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Expand replaces ${key} references in value with the expanded value of key.
// References to unknown keys are left unchanged.
func (s *Store) Expand(value string) (string, error) {
	return s.expand(value, 0)
}

func (s *Store) expand(value string, depth int) (string, error) {
	if depth > maxExpandDepth {
		return "", serrors.Newf(serrors.KindMalformed, "circular reference while expanding %q", value)
	}
	if !strings.Contains(value, "${") {
		return value, nil
	}

	var b strings.Builder
	rest := value
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:start])

		ref := rest[start+2 : start+end]
		raw, err := s.RawString(ref)
		switch {
		case err == nil:
			expanded, err := s.expand(raw, depth+1)
			if err != nil {
				return "", err
			}
			b.WriteString(expanded)
		case serrors.IsKind(err, serrors.KindNotFound):
			b.WriteString(rest[start : start+end+1])
		default:
			return "", err
		}
		rest = rest[start+end+1:]
	}
	return b.String(), nil
}

func trimString(value any) any {
	if str, ok := value.(string); ok {
		return strings.TrimSpace(str)
	}
	return value
}

func toInt(value any) (int, error) {
	str, ok := value.(string)
	if !ok {
		return cast.ToIntE(value)
	}
	str = strings.TrimSpace(str)
	if strings.HasPrefix(str, "0x") || strings.HasPrefix(str, "0X") {
		n, err := strconv.ParseInt(str[2:], 16, 0)
		return int(n), err
	}
	n, err := strconv.ParseInt(str, 10, 0)
	return int(n), err
}

func toBool(value any) (bool, error) {
	str, ok := value.(string)
	if !ok {
		return cast.ToBoolE(value)
	}
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "true", "yes", "on":
		return true, nil
	case "false", "no", "off":
		return false, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", str)
	}
	return f != 0, nil
}
