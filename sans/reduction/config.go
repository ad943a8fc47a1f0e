// Package reduction holds the reduction configuration consumed by the
// transmission pipeline and the cache of previously computed transmissions.
package reduction

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// Configuration keys read by the transmission pipeline.
const (
	KeyInstrumentName              = "InstrumentName"
	KeyLoadAlgorithm               = "LoadAlgorithm"
	KeyDarkCurrentAlgorithm        = "DarkCurrentAlgorithm"
	KeyDefaultDarkCurrentAlgorithm = "DefaultDarkCurrentAlgorithm"
	KeyTransmissionNormalisation   = "TransmissionNormalisation"
	KeyNormaliseAlgorithm          = "NormaliseAlgorithm"
	KeyFitMethod                   = "TransmissionFitMethod"
	KeyPolynomialOrder             = "TransmissionPolynomialOrder"
	KeySmoothingCutoff             = "TransmissionSmoothingCutoff"
)

// Errors returned by configuration accessors.
var (
	ErrMissingKey = errors.New("reduction: missing key")
	ErrKeyType    = errors.New("reduction: value has the wrong type")
)

// Config is a string-keyed mapping of scalar and string settings plus the
// transmission cache. It is safe for concurrent use.
type Config struct {
	mu    sync.RWMutex
	props map[string]any
	cache *Cache
}

// NewConfig returns an empty configuration with an empty cache.
func NewConfig() *Config {
	return &Config{props: map[string]any{}, cache: NewCache()}
}

// Has reports whether key is set.
func (c *Config) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.props[key]

	return ok
}

// Get returns the raw value stored under key.
func (c *Config) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.props[key]

	return v, ok
}

// Set stores value under key. Only strings, bools, and numbers are accepted.
func (c *Config) Set(key string, value any) error {
	switch value.(type) {
	case string, bool, int, int64, float64:
	default:
		return fmt.Errorf("%w: %s is %T", ErrKeyType, key, value)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.props[key] = value

	return nil
}

// Keys returns the configured keys in sorted order.
func (c *Config) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.props))
	for k := range c.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// String returns key as a string. Numbers and bools are formatted.
func (c *Config) String(key string) (string, error) {
	v, ok := c.Get(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingKey, key)
	}

	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: %s is %T", ErrKeyType, key, v)
	}
}

// StringOr returns key as a string, or def when the key is absent.
func (c *Config) StringOr(key, def string) (string, error) {
	if !c.Has(key) {
		return def, nil
	}

	return c.String(key)
}

// Float returns key as a float64. Numeric strings are parsed.
func (c *Config) Float(key string) (float64, error) {
	v, ok := c.Get(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingKey, key)
	}

	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrKeyType, key, err)
		}

		return f, nil
	default:
		return 0, fmt.Errorf("%w: %s is %T", ErrKeyType, key, v)
	}
}

// FloatOr returns key as a float64, or def when the key is absent.
func (c *Config) FloatOr(key string, def float64) (float64, error) {
	if !c.Has(key) {
		return def, nil
	}

	return c.Float(key)
}

// Cache returns the transmission cache owned by this configuration.
func (c *Config) Cache() *Cache { return c.cache }

// document is the YAML layout of a configuration file.
type document struct {
	Properties map[string]any    `yaml:"properties"`
	Cache      map[string]string `yaml:"cache,omitempty"`
}

// Decode reads a YAML configuration.
func Decode(r io.Reader) (*Config, error) {
	var doc document

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reduction: decode config: %w", err)
	}

	cfg := NewConfig()
	for k, v := range doc.Properties {
		if err := cfg.Set(k, v); err != nil {
			return nil, err
		}
	}

	for k, v := range doc.Cache {
		cfg.cache.Store(k, v)
	}

	return cfg, nil
}

// Load reads a YAML configuration file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reduction: open config: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Encode writes c, including the cache, as YAML.
func (c *Config) Encode(w io.Writer) error {
	c.mu.RLock()
	doc := document{Properties: make(map[string]any, len(c.props))}
	for k, v := range c.props {
		doc.Properties[k] = v
	}
	c.mu.RUnlock()

	doc.Cache = c.cache.Entries()

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("reduction: encode config: %w", err)
	}

	return enc.Close()
}

// Save writes c to path.
func (c *Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("reduction: create config: %w", err)
	}

	if err := c.Encode(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
