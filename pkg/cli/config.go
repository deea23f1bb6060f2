package cli

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/bodyview/pkg/view"
)

const (
	// DefaultBaseDir is the base configuration directory name.
	DefaultBaseDir = ".giztoy"
	// DefaultConfigFile is the default configuration filename.
	DefaultConfigFile = "config.yaml"
	// AppName is the application directory under DefaultBaseDir.
	AppName = "bodyview"
)

// Setting keys stored in Context.Extra.
const (
	KeySensor             = "sensor"
	KeyFPS                = "fps"
	KeyInitialView        = "initial_view"
	KeyWebPort            = "web_port"
	KeyMQTTURL            = "mqtt_url"
	KeyMQTTNamespace      = "mqtt_namespace"
	KeyPrefsDir           = "prefs_dir"
	KeyBindingsFile       = "bindings_file"
	KeyVoiceMinConfidence = "voice_min_confidence"
)

// SettingKeys lists every recognized key.
var SettingKeys = []string{
	KeySensor,
	KeyFPS,
	KeyInitialView,
	KeyWebPort,
	KeyMQTTURL,
	KeyMQTTNamespace,
	KeyPrefsDir,
	KeyBindingsFile,
	KeyVoiceMinConfidence,
}

// Config is the bodyview configuration file with named contexts, one per
// sensor setup.
type Config struct {
	CurrentContext string              `yaml:"current_context,omitempty"`
	Contexts       map[string]*Context `yaml:"contexts,omitempty"`

	path string
}

// Context is a named group of settings.
type Context struct {
	Name  string            `yaml:"name"`
	Extra map[string]string `yaml:"extra,omitempty"`
}

// Settings are the typed values of a context. Zero values mean "not set".
type Settings struct {
	Sensor             string
	FPS                int
	InitialView        *view.Mode
	WebPort            int
	MQTTURL            string
	MQTTNamespace      string
	PrefsDir           string
	BindingsFile       string
	VoiceMinConfidence float64
}

// LoadConfig loads the config at path, or at ~/.giztoy/bodyview/config.yaml
// when path is empty. A missing file yields an empty config that is written
// on the first Save.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := NewPaths()
		if err != nil {
			return nil, err
		}
		path = p.ConfigFile()
	}
	cfg := &Config{
		Contexts: make(map[string]*Context),
		path:     path,
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	for name, ctx := range cfg.Contexts {
		ctx.Name = name
	}
	cfg.path = path
	return cfg, nil
}

// Save writes the config, creating its directory if needed.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path returns the config file path.
func (c *Config) Path() string {
	return c.path
}

// Context returns the named context, creating it when create is set.
func (c *Config) Context(name string, create bool) (*Context, error) {
	if ctx, ok := c.Contexts[name]; ok {
		return ctx, nil
	}
	if !create {
		return nil, fmt.Errorf("context %q not found", name)
	}
	ctx := &Context{Name: name}
	c.Contexts[name] = ctx
	return ctx, nil
}

// DeleteContext removes a context. Deleting the current context clears
// CurrentContext.
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext makes name the current context.
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// ResolveContext returns the named context, or the current one when name
// is empty. With no name and no current context it returns an empty
// context so that flags alone are enough to run.
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name == "" {
		name = c.CurrentContext
	}
	if name == "" {
		return &Context{}, nil
	}
	return c.Context(name, false)
}

// ContextNames returns the context names in sorted order.
func (c *Config) ContextNames() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Get returns a setting, or "" when unset.
func (ctx *Context) Get(key string) string {
	if ctx.Extra == nil {
		return ""
	}
	return ctx.Extra[key]
}

// Set validates and stores a setting. An empty value removes it.
func (ctx *Context) Set(key, value string) error {
	if !slices.Contains(SettingKeys, key) {
		return fmt.Errorf("unknown setting %q", key)
	}
	if value == "" {
		delete(ctx.Extra, key)
		return nil
	}
	if err := validateSetting(key, value); err != nil {
		return err
	}
	if ctx.Extra == nil {
		ctx.Extra = make(map[string]string)
	}
	ctx.Extra[key] = value
	return nil
}

func validateSetting(key, value string) error {
	switch key {
	case KeyFPS, KeyWebPort:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 || (key == KeyWebPort && n > 65535) {
			return fmt.Errorf("invalid %s %q", key, value)
		}
	case KeyVoiceMinConfidence:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("invalid %s %q: want a number in [0, 1]", key, value)
		}
	case KeyInitialView:
		if _, err := view.ParseMode(value); err != nil {
			return err
		}
	case KeyMQTTURL:
		if _, err := url.Parse(value); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return nil
}

// Settings returns the typed settings of the context.
func (ctx *Context) Settings() (Settings, error) {
	s := Settings{
		Sensor:        ctx.Get(KeySensor),
		MQTTURL:       ctx.Get(KeyMQTTURL),
		MQTTNamespace: ctx.Get(KeyMQTTNamespace),
		PrefsDir:      ctx.Get(KeyPrefsDir),
		BindingsFile:  ctx.Get(KeyBindingsFile),
	}
	for key, value := range ctx.Extra {
		if err := validateSetting(key, value); err != nil {
			return Settings{}, fmt.Errorf("context %q: %w", ctx.Name, err)
		}
	}
	if v := ctx.Get(KeyFPS); v != "" {
		s.FPS, _ = strconv.Atoi(v)
	}
	if v := ctx.Get(KeyWebPort); v != "" {
		s.WebPort, _ = strconv.Atoi(v)
	}
	if v := ctx.Get(KeyVoiceMinConfidence); v != "" {
		s.VoiceMinConfidence, _ = strconv.ParseFloat(v, 64)
	}
	if v := ctx.Get(KeyInitialView); v != "" {
		m, _ := view.ParseMode(v)
		s.InitialView = &m
	}
	return s, nil
}

// RedactURL hides the password of a URL for display.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}
