package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// TAMILBOT_GENERATION_API_KEY overrides generation.api_key.
const EnvPrefix = "TAMILBOT"

type ServerConfig struct {
	Host         string        `mapstructure:"host" json:"host"`
	Port         int           `mapstructure:"port" json:"port"`
	Subpath      string        `mapstructure:"subpath" json:"subpath"`
	JWTSecret    string        `mapstructure:"jwt_secret" json:"-"`
	SessionTTL   time.Duration `mapstructure:"session_ttl" json:"session_ttl"`
	ExposePrompt bool          `mapstructure:"expose_prompt" json:"expose_prompt"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled" json:"enabled"`
	Addr     string `mapstructure:"addr" json:"-"`
	Password string `mapstructure:"password" json:"-"`
	DB       int    `mapstructure:"db" json:"-"`
}

type LoggingConfig struct {
	Level       string `mapstructure:"level" json:"level"`
	Development bool   `mapstructure:"development" json:"development"`
}

// WikipediaConfig drives the encyclopedia lookup strategy.
type WikipediaConfig struct {
	APIURL            string        `mapstructure:"api_url" json:"api_url"` // "{lang}" is replaced by the language code
	UserAgent         string        `mapstructure:"user_agent" json:"-"`
	PrimaryLanguage   string        `mapstructure:"primary_language" json:"primary_language"`
	SecondaryLanguage string        `mapstructure:"secondary_language" json:"secondary_language"`
	FallbackEnabled   bool          `mapstructure:"fallback_enabled" json:"fallback_enabled"`
	DomainKeywords    []string      `mapstructure:"domain_keywords" json:"domain_keywords"`
	MinSummaryLength  int           `mapstructure:"min_summary_length" json:"min_summary_length"`
	PrimaryMaxChars   int           `mapstructure:"primary_max_chars" json:"primary_max_chars"`
	SecondaryMaxChars int           `mapstructure:"secondary_max_chars" json:"secondary_max_chars"`
	Timeout           time.Duration `mapstructure:"timeout" json:"timeout"` // zero means no client timeout
}

// SearchConfig selects and tunes the web search provider.
type SearchConfig struct {
	Provider         string        `mapstructure:"provider" json:"provider"` // "google" or "searxng"
	GoogleURL        string        `mapstructure:"google_url" json:"-"`
	GoogleAPIKey     string        `mapstructure:"google_api_key" json:"-"`
	GoogleCX         string        `mapstructure:"google_cx" json:"-"`
	SearxNGURL       string        `mapstructure:"searxng_url" json:"-"`
	LanguageBias     string        `mapstructure:"language_bias" json:"language_bias"`
	MaxResults       int           `mapstructure:"max_results" json:"max_results"`
	MaxChars         int           `mapstructure:"max_chars" json:"max_chars"`
	Timeout          time.Duration `mapstructure:"timeout" json:"timeout"`
	BreakerThreshold int           `mapstructure:"breaker_threshold" json:"breaker_threshold"`
	BreakerCooldown  time.Duration `mapstructure:"breaker_cooldown" json:"breaker_cooldown"`
}

type GroundingConfig struct {
	SufficiencyThreshold int `mapstructure:"sufficiency_threshold" json:"sufficiency_threshold"`
}

// GenerationConfig holds the fixed decoding parameters of a deployment.
type GenerationConfig struct {
	APIKey          string  `mapstructure:"api_key" json:"-"`
	Model           string  `mapstructure:"model" json:"model"`
	Temperature     float32 `mapstructure:"temperature" json:"temperature"`
	TopP            float32 `mapstructure:"top_p" json:"top_p"`
	TopK            float32 `mapstructure:"top_k" json:"top_k"`
	MaxOutputTokens int32   `mapstructure:"max_output_tokens" json:"max_output_tokens"`
	SafetyThreshold string  `mapstructure:"safety_threshold" json:"safety_threshold"`
	MaxConcurrent   int     `mapstructure:"max_concurrent" json:"max_concurrent"`
}

type Config struct {
	Server      ServerConfig     `mapstructure:"server" json:"server"`
	Redis       RedisConfig      `mapstructure:"redis" json:"redis"`
	Logging     LoggingConfig    `mapstructure:"logging" json:"logging"`
	Wikipedia   WikipediaConfig  `mapstructure:"wikipedia" json:"wikipedia"`
	Search      SearchConfig     `mapstructure:"search" json:"search"`
	Grounding   GroundingConfig  `mapstructure:"grounding" json:"grounding"`
	Generation  GenerationConfig `mapstructure:"generation" json:"generation"`
	QuickStarts []string         `mapstructure:"quick_starts" json:"quick_starts"`

	// GeneratedJWTSecret is set when no secret was configured and a
	// per-process one was created; tokens do not survive a restart.
	GeneratedJWTSecret bool `mapstructure:"-" json:"-"`
}

// Names reported by MissingCredentials.
const (
	CredentialGeminiAPIKey = "Gemini API Key"
	CredentialGoogleAPIKey = "Google API Key"
	CredentialGoogleCX     = "Google CX"
	CredentialSearxNGURL   = "SearxNG URL"
)

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.subpath", "")
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("server.session_ttl", 30*time.Minute)
	v.SetDefault("server.expose_prompt", false)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	v.SetDefault("wikipedia.api_url", "https://{lang}.wikipedia.org/w/api.php")
	v.SetDefault("wikipedia.user_agent", "TamilAIAssistant/1.0 (contact@tamilai.com)")
	v.SetDefault("wikipedia.primary_language", "ta")
	v.SetDefault("wikipedia.secondary_language", "en")
	v.SetDefault("wikipedia.fallback_enabled", true)
	v.SetDefault("wikipedia.domain_keywords", []string{"தமிழ்", "இலக்கியம்", "வரலாறு", "பண்பாடு", "கவிதை", "சங்க இலக்கியம்"})
	v.SetDefault("wikipedia.min_summary_length", 100)
	v.SetDefault("wikipedia.primary_max_chars", 1500)
	v.SetDefault("wikipedia.secondary_max_chars", 1000)
	v.SetDefault("wikipedia.timeout", time.Duration(0))

	v.SetDefault("search.provider", "google")
	v.SetDefault("search.google_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("search.google_api_key", "")
	v.SetDefault("search.google_cx", "")
	v.SetDefault("search.searxng_url", "")
	v.SetDefault("search.language_bias", "ta")
	v.SetDefault("search.max_results", 3)
	v.SetDefault("search.max_chars", 1500)
	v.SetDefault("search.timeout", 10*time.Second)
	v.SetDefault("search.breaker_threshold", 5)
	v.SetDefault("search.breaker_cooldown", time.Minute)

	v.SetDefault("grounding.sufficiency_threshold", 300)

	v.SetDefault("generation.api_key", "")
	v.SetDefault("generation.model", "gemini-2.0-flash")
	v.SetDefault("generation.temperature", 0.1)
	v.SetDefault("generation.top_p", 0.95)
	v.SetDefault("generation.top_k", 40)
	v.SetDefault("generation.max_output_tokens", 5600)
	v.SetDefault("generation.safety_threshold", "BLOCK_NONE")
	v.SetDefault("generation.max_concurrent", 4)

	v.SetDefault("quick_starts", []string{
		"திருக்குறள் பற்றிய தகவல்",
		"சங்க இலக்கிய காலம்",
		"தமிழ் மன்னர்கள் வரலாறு",
		"பல்லவர் காலத்து கட்டிடக்கலை",
	})
}

// Load reads a JSON config file through viper, applies defaults and
// TAMILBOT_* environment overrides. An empty path uses defaults and the
// environment only. It does not cache.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("invalid config format: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Server.JWTSecret == "" {
		c.Server.JWTSecret = uuid.NewString()
		c.GeneratedJWTSecret = true
	}
	return &c, nil
}

// LoadConfig reads the config file once per process (singleton)
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		cfg, cfgErr = Load(path)
	})
	return cfg, cfgErr
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}

// Validate rejects values the pipeline cannot work with. Missing secrets are
// not an error here; they degrade the matching component instead.
func (c *Config) Validate() error {
	switch c.Search.Provider {
	case "google", "searxng":
	default:
		return fmt.Errorf("unsupported search provider %q", c.Search.Provider)
	}
	if c.Grounding.SufficiencyThreshold < 0 {
		return errors.New("grounding.sufficiency_threshold must not be negative")
	}
	if c.Wikipedia.PrimaryMaxChars <= 0 || c.Wikipedia.SecondaryMaxChars <= 0 {
		return errors.New("wikipedia max chars must be positive")
	}
	if c.Search.MaxResults <= 0 || c.Search.MaxChars <= 0 {
		return errors.New("search.max_results and search.max_chars must be positive")
	}
	if strings.TrimSpace(c.Wikipedia.PrimaryLanguage) == "" {
		return errors.New("wikipedia.primary_language must be set")
	}
	return nil
}

// MissingCredentials lists the secrets that are unset, in the order the
// settings screen shows them.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.Generation.APIKey == "" {
		missing = append(missing, CredentialGeminiAPIKey)
	}
	switch c.Search.Provider {
	case "searxng":
		if c.Search.SearxNGURL == "" {
			missing = append(missing, CredentialSearxNGURL)
		}
	default:
		if c.Search.GoogleAPIKey == "" {
			missing = append(missing, CredentialGoogleAPIKey)
		}
		if c.Search.GoogleCX == "" {
			missing = append(missing, CredentialGoogleCX)
		}
	}
	return missing
}
