package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         App         `mapstructure:"app"`
	Logging     Logging     `mapstructure:"logging"`
	Search      Search      `mapstructure:"search"`
	LLM         LLM         `mapstructure:"llm"`
	Article     Article     `mapstructure:"article"`
	Image       Image       `mapstructure:"image"`
	Storage     Storage     `mapstructure:"storage"`
	ObjectStore ObjectStore `mapstructure:"object_store"`
	Retention   Retention   `mapstructure:"retention"`
	Health      Health      `mapstructure:"health"`
	Schedule    Schedule    `mapstructure:"schedule"`
	Server      Server      `mapstructure:"server"`
	TTS         TTS         `mapstructure:"tts"`
}

// App contains general application settings
type App struct {
	Name       string `mapstructure:"name"`
	Debug      bool   `mapstructure:"debug"`
	SourceName string `mapstructure:"source_name"`
}

// Logging contains logger settings
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// Search contains search provider and escalation settings
type Search struct {
	Providers    []SearchProvider `mapstructure:"providers"`
	Topics       []string         `mapstructure:"topics"`
	Fallbacks    []string         `mapstructure:"fallbacks"`
	Generic      string           `mapstructure:"generic"`
	TopicDays    int              `mapstructure:"topic_days"`
	FallbackDays int              `mapstructure:"fallback_days"`
	GenericDays  int              `mapstructure:"generic_days"`
	MinChars     int              `mapstructure:"min_chars"`
	MaxResults   int              `mapstructure:"max_results"`

	// Credentials picked up from the environment when Providers is empty
	TavilyAPIKey  string `mapstructure:"tavily_api_key"`
	TavilyAPIKey2 string `mapstructure:"tavily_api_key_2"`
	SerpAPIKey    string `mapstructure:"serpapi_api_key"`
}

// SearchProvider is one entry of the ordered credential list
type SearchProvider struct {
	Type     string `mapstructure:"type"` // tavily, serpapi, googlenews, duckduckgo, mock
	APIKey   string `mapstructure:"api_key"`
	Label    string `mapstructure:"label"`
	Endpoint string `mapstructure:"endpoint"`
}

// LLM contains text-generation backend settings
type LLM struct {
	Order    []string     `mapstructure:"order"` // backend names in priority order
	Gemini   GeminiConfig `mapstructure:"gemini"`
	Cerebras OpenAICompat `mapstructure:"cerebras"`
	OpenAI   OpenAICompat `mapstructure:"openai"`
}

// GeminiConfig contains Gemini settings
type GeminiConfig struct {
	APIKey  string   `mapstructure:"api_key"`
	APIKey2 string   `mapstructure:"api_key_2"`
	Models  []string `mapstructure:"models"`
}

// OpenAICompat configures an OpenAI-compatible chat completions backend
type OpenAICompat struct {
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	Endpoint string `mapstructure:"endpoint"`
}

// Article contains text generation limits
type Article struct {
	MinWords    int     `mapstructure:"min_words"`
	MaxWords    int     `mapstructure:"max_words"`
	Ceiling     int     `mapstructure:"ceiling"`
	Structure   string  `mapstructure:"structure"` // paragraphs or bullets
	BulletCount int     `mapstructure:"bullet_count"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int32   `mapstructure:"max_tokens"`
}

// Image contains the image cascade settings
type Image struct {
	Width          int             `mapstructure:"width"`
	Height         int             `mapstructure:"height"`
	PlaceholderURL string          `mapstructure:"placeholder_url"`
	HFToken        string          `mapstructure:"hf_token"`
	Providers      []ImageProvider `mapstructure:"providers"`
}

// ImageProvider is one stage of the cascade
type ImageProvider struct {
	Type           string `mapstructure:"type"` // flux, pollinations, gemini, openai
	Model          string `mapstructure:"model"`
	APIKey         string `mapstructure:"api_key"`
	Label          string `mapstructure:"label"`
	Endpoint       string `mapstructure:"endpoint"`
	Attempts       int    `mapstructure:"attempts"`
	Backoff        string `mapstructure:"backoff"` // fixed, linear, none
	Delay          string `mapstructure:"delay"`
	RateLimitDelay string `mapstructure:"rate_limit_delay"`
	MinBytes       int    `mapstructure:"min_bytes"`
	Enhance        bool   `mapstructure:"enhance"`
}

// DelayDuration parses Delay; invalid or empty values yield zero.
func (p ImageProvider) DelayDuration() time.Duration {
	return parseDuration(p.Delay)
}

// RateLimitDuration parses RateLimitDelay; invalid or empty values yield zero.
func (p ImageProvider) RateLimitDuration() time.Duration {
	return parseDuration(p.RateLimitDelay)
}

// Storage selects the primary document store
type Storage struct {
	Driver string `mapstructure:"driver"` // sqlite, postgres, memory
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

// ObjectStore selects where images are uploaded
type ObjectStore struct {
	Driver     string           `mapstructure:"driver"` // local, cloudinary, none
	Directory  string           `mapstructure:"directory"`
	BaseURL    string           `mapstructure:"base_url"`
	Cloudinary CloudinaryConfig `mapstructure:"cloudinary"`
}

// CloudinaryConfig contains Cloudinary credentials
type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Folder    string `mapstructure:"folder"`
}

// Retention contains capacity and TTL settings
type Retention struct {
	MinKeep        int     `mapstructure:"min_keep"`
	HistoryTTLDays int     `mapstructure:"history_ttl_days"`
	BatchSize      int     `mapstructure:"batch_size"`
	RecentTitles   int     `mapstructure:"recent_titles"`
	TitleThreshold float64 `mapstructure:"title_threshold"`
}

// Health contains health reporting settings
type Health struct {
	Runner        string `mapstructure:"runner"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisKey      string `mapstructure:"redis_key"`
	RedisTTL      string `mapstructure:"redis_ttl"`
}

// RedisTTLDuration parses RedisTTL; empty means no expiry.
func (h Health) RedisTTLDuration() time.Duration {
	return parseDuration(h.RedisTTL)
}

// Schedule contains cron expressions for recurring jobs
type Schedule struct {
	Run        string `mapstructure:"run"`
	Cleanup    string `mapstructure:"cleanup"`
	Timezone   string `mapstructure:"timezone"`
	RunOnStart bool   `mapstructure:"run_on_start"`
	RunTimeout string `mapstructure:"run_timeout"`
}

// Server contains HTTP status server settings
type Server struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// TTS contains read-aloud settings. An empty provider disables the audio route.
type TTS struct {
	Provider string  `mapstructure:"provider"` // openai, elevenlabs, mock
	APIKey   string  `mapstructure:"api_key"`
	Voice    string  `mapstructure:"voice"`
	Model    string  `mapstructure:"model"`
	Speed    float64 `mapstructure:"speed"`
	Endpoint string  `mapstructure:"endpoint"`
	MaxChars int     `mapstructure:"max_chars"`
	CacheTTL string  `mapstructure:"cache_ttl"`
}

// CacheTTLDuration parses CacheTTL; invalid or empty values yield zero.
func (t TTS) CacheTTLDuration() time.Duration {
	return parseDuration(t.CacheTTL)
}

// Addr returns host:port.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	// Configure viper
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".newscycle")
		viper.SetConfigType("yaml")
	}

	// Set defaults
	setDefaults()

	// Bind environment variables
	bindEnvironmentVariables()

	// Enable automatic environment variable reading
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal into struct
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Apply post-processing
	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "newscycle")
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.source_name", "NewsCycle")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	// Search defaults
	viper.SetDefault("search.generic", "latest technology AI news")
	viper.SetDefault("search.topic_days", 3)
	viper.SetDefault("search.fallback_days", 3)
	viper.SetDefault("search.generic_days", 7)
	viper.SetDefault("search.min_chars", 50)
	viper.SetDefault("search.max_results", 10)

	// LLM defaults
	viper.SetDefault("llm.order", []string{"gemini", "cerebras", "openai"})
	viper.SetDefault("llm.cerebras.model", "llama-3.3-70b")
	viper.SetDefault("llm.openai.model", "gpt-4o-mini")

	// Article defaults
	viper.SetDefault("article.min_words", 175)
	viper.SetDefault("article.max_words", 225)
	viper.SetDefault("article.ceiling", 260)
	viper.SetDefault("article.structure", "paragraphs")
	viper.SetDefault("article.bullet_count", 5)
	viper.SetDefault("article.temperature", 0.4)
	viper.SetDefault("article.max_tokens", 4096)

	// Image defaults
	viper.SetDefault("image.width", 1024)
	viper.SetDefault("image.height", 576)
	viper.SetDefault("image.providers", []map[string]any{
		{"type": "flux", "attempts": 3, "backoff": "fixed", "delay": "10s", "min_bytes": 1000, "enhance": true},
		{"type": "gemini", "attempts": 3, "backoff": "linear", "delay": "2s", "rate_limit_delay": "5s", "min_bytes": 1000},
		{"type": "pollinations", "attempts": 3, "backoff": "linear", "delay": "5s", "min_bytes": 5000},
		{"type": "openai", "attempts": 2, "backoff": "fixed", "delay": "5s", "min_bytes": 1000},
	})

	// Storage defaults
	viper.SetDefault("storage.driver", "sqlite")
	viper.SetDefault("storage.path", "~/.newscycle/newscycle.db")

	// Object store defaults
	viper.SetDefault("object_store.driver", "local")
	viper.SetDefault("object_store.directory", "~/.newscycle/images")
	viper.SetDefault("object_store.base_url", "/images")
	viper.SetDefault("object_store.cloudinary.folder", "newscycle")

	// Retention defaults
	viper.SetDefault("retention.min_keep", 50)
	viper.SetDefault("retention.history_ttl_days", 10)
	viper.SetDefault("retention.batch_size", 400)
	viper.SetDefault("retention.recent_titles", 50)
	viper.SetDefault("retention.title_threshold", 0.7)

	// Health defaults
	viper.SetDefault("health.redis_key", "newscycle:health:last_run")
	viper.SetDefault("health.redis_ttl", "168h")

	// Schedule defaults
	viper.SetDefault("schedule.run", "0 */6 * * *")
	viper.SetDefault("schedule.cleanup", "0 0 * * *")
	viper.SetDefault("schedule.timezone", "UTC")
	viper.SetDefault("schedule.run_on_start", false)
	viper.SetDefault("schedule.run_timeout", "15m")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.request_timeout", "30s")

	// TTS defaults
	viper.SetDefault("tts.provider", "")
	viper.SetDefault("tts.speed", 1.0)
	viper.SetDefault("tts.max_chars", 5000)
	viper.SetDefault("tts.cache_ttl", "24h")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	// Search credentials, tried in this order when no provider list is configured
	bindEnvKeys("search.tavily_api_key", []string{"TAVILY_API_KEY"})
	bindEnvKeys("search.tavily_api_key_2", []string{"TAVILY_API_KEY_2", "TAVILY_API_KEY_BACKUP"})
	bindEnvKeys("search.serpapi_api_key", []string{"SERPAPI_API_KEY", "SERPAPI_KEY"})

	// Gemini API keys - support multiple formats
	bindEnvKeys("llm.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})
	bindEnvKeys("llm.gemini.api_key_2", []string{"GEMINI_API_KEY_2", "GEMINI_API_KEY_BACKUP"})

	bindEnvKeys("llm.cerebras.api_key", []string{"CEREBRAS_API_KEY"})
	bindEnvKeys("llm.openai.api_key", []string{"OPENAI_API_KEY"})

	// Image providers
	bindEnvKeys("image.hf_token", []string{"HF_TOKEN", "HUGGINGFACE_TOKEN", "HUGGING_FACE_HUB_TOKEN"})

	// Storage
	bindEnvKeys("storage.driver", []string{"NEWSCYCLE_STORAGE_DRIVER"})
	bindEnvKeys("storage.dsn", []string{"DATABASE_URL", "POSTGRES_DSN"})

	// Object store
	bindEnvKeys("object_store.cloudinary.cloud_name", []string{"CLOUDINARY_CLOUD_NAME"})
	bindEnvKeys("object_store.cloudinary.api_key", []string{"CLOUDINARY_API_KEY"})
	bindEnvKeys("object_store.cloudinary.api_secret", []string{"CLOUDINARY_API_SECRET"})

	// Health
	bindEnvKeys("health.redis_addr", []string{"REDIS_ADDR", "REDIS_URL"})
	bindEnvKeys("health.redis_password", []string{"REDIS_PASSWORD"})
	bindEnvKeys("health.runner", []string{"NEWSCYCLE_RUNNER", "GITHUB_RUN_ID"})

	// Read-aloud
	bindEnvKeys("tts.provider", []string{"NEWSCYCLE_TTS_PROVIDER"})
	bindEnvKeys("tts.api_key", []string{"TTS_API_KEY", "ELEVENLABS_API_KEY"})

	// General settings
	bindEnvKeys("app.debug", []string{"DEBUG", "NEWSCYCLE_DEBUG"})
	bindEnvKeys("logging.level", []string{"LOG_LEVEL", "NEWSCYCLE_LOG_LEVEL"})
	bindEnvKeys("logging.format", []string{"LOG_FORMAT"})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	// Expand paths
	if config.Storage.Path != "" && config.Storage.Path != ":memory:" {
		config.Storage.Path = expandPath(config.Storage.Path)
	}
	if config.ObjectStore.Directory != "" {
		config.ObjectStore.Directory = expandPath(config.ObjectStore.Directory)
	}

	if config.App.Debug {
		config.Logging.Level = "debug"
	}

	if len(config.Search.Providers) == 0 {
		config.Search.Providers = defaultSearchProviders(config.Search)
	}
	fillImageCredentials(config)
	if config.TTS.Provider == "openai" && config.TTS.APIKey == "" {
		config.TTS.APIKey = config.LLM.OpenAI.APIKey
	}

	// Validate durations
	durations := map[string]string{
		"health.redis_ttl":     config.Health.RedisTTL,
		"schedule.run_timeout": config.Schedule.RunTimeout,
		"tts.cache_ttl":        config.TTS.CacheTTL,
	}
	for i, p := range config.Image.Providers {
		durations[fmt.Sprintf("image.providers[%d].delay", i)] = p.Delay
		durations[fmt.Sprintf("image.providers[%d].rate_limit_delay", i)] = p.RateLimitDelay
	}

	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// defaultSearchProviders builds the credential ladder from whatever keys are
// set. The keyless providers always close the list.
func defaultSearchProviders(s Search) []SearchProvider {
	var providers []SearchProvider
	if s.TavilyAPIKey != "" {
		providers = append(providers, SearchProvider{Type: "tavily", APIKey: s.TavilyAPIKey, Label: "primary"})
	}
	if s.TavilyAPIKey2 != "" {
		providers = append(providers, SearchProvider{Type: "tavily", APIKey: s.TavilyAPIKey2, Label: "fallback"})
	}
	if s.SerpAPIKey != "" {
		providers = append(providers, SearchProvider{Type: "serpapi", APIKey: s.SerpAPIKey})
	}
	return append(providers,
		SearchProvider{Type: "googlenews"},
		SearchProvider{Type: "duckduckgo"},
	)
}

// fillImageCredentials gives image providers without their own key the
// matching shared credential.
func fillImageCredentials(config *Config) {
	for i := range config.Image.Providers {
		p := &config.Image.Providers[i]
		if p.APIKey != "" {
			continue
		}
		switch p.Type {
		case "flux":
			p.APIKey = config.Image.HFToken
		case "gemini":
			p.APIKey = config.LLM.Gemini.APIKey
		case "openai":
			p.APIKey = config.LLM.OpenAI.APIKey
		}
	}
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// validateConfig ensures the configuration is structurally sound
func validateConfig(config *Config) error {
	var errors []string

	switch config.Storage.Driver {
	case "sqlite":
		if config.Storage.Path == "" {
			errors = append(errors, "storage.path is required for the sqlite driver")
		}
	case "postgres":
		if config.Storage.DSN == "" {
			errors = append(errors, "PostgreSQL requires a DSN. Set DATABASE_URL or storage.dsn")
		}
	case "memory":
	default:
		errors = append(errors, fmt.Sprintf("Unknown storage driver: %s. Supported: sqlite, postgres, memory", config.Storage.Driver))
	}

	switch config.ObjectStore.Driver {
	case "local":
		if config.ObjectStore.Directory == "" {
			errors = append(errors, "object_store.directory is required for the local driver")
		}
	case "cloudinary":
		c := config.ObjectStore.Cloudinary
		if c.CloudName == "" || c.APIKey == "" || c.APISecret == "" {
			errors = append(errors, "Cloudinary requires cloud name, API key and secret. Set CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
		}
	case "none":
	default:
		errors = append(errors, fmt.Sprintf("Unknown object store driver: %s. Supported: local, cloudinary, none", config.ObjectStore.Driver))
	}

	for i, p := range config.Search.Providers {
		switch p.Type {
		case "tavily", "serpapi":
			if p.APIKey == "" {
				errors = append(errors, fmt.Sprintf("search.providers[%d] (%s) requires an API key", i, p.Type))
			}
		case "googlenews", "duckduckgo", "mock":
		default:
			errors = append(errors, fmt.Sprintf("Unknown search provider: %s. Supported: tavily, serpapi, googlenews, duckduckgo, mock", p.Type))
		}
	}

	for i, p := range config.Image.Providers {
		switch p.Type {
		case "flux", "pollinations", "gemini", "openai":
		default:
			errors = append(errors, fmt.Sprintf("Unknown image provider at image.providers[%d]: %s. Supported: flux, pollinations, gemini, openai", i, p.Type))
		}
		switch p.Backoff {
		case "", "fixed", "linear", "none":
		default:
			errors = append(errors, fmt.Sprintf("Unknown backoff for image.providers[%d]: %s", i, p.Backoff))
		}
	}

	if config.Article.MinWords <= 0 || config.Article.MaxWords < config.Article.MinWords {
		errors = append(errors, fmt.Sprintf("article word band is invalid: %d-%d", config.Article.MinWords, config.Article.MaxWords))
	}
	if config.Article.Ceiling > 0 && config.Article.Ceiling < config.Article.MaxWords {
		errors = append(errors, "article.ceiling must not be below article.max_words")
	}
	switch config.Article.Structure {
	case "paragraphs", "bullets":
	default:
		errors = append(errors, fmt.Sprintf("Unknown article structure: %s. Supported: paragraphs, bullets", config.Article.Structure))
	}

	if config.Retention.MinKeep <= 0 {
		errors = append(errors, "retention.min_keep must be positive")
	}
	if config.Retention.HistoryTTLDays <= 0 {
		errors = append(errors, "retention.history_ttl_days must be positive")
	}
	if config.Retention.BatchSize <= 0 || config.Retention.BatchSize > 400 {
		errors = append(errors, "retention.batch_size must be between 1 and 400")
	}

	switch config.TTS.Provider {
	case "":
	case "openai", "elevenlabs":
		if config.TTS.APIKey == "" {
			errors = append(errors, fmt.Sprintf("tts provider %s requires an API key. Set TTS_API_KEY", config.TTS.Provider))
		}
	case "mock":
	default:
		errors = append(errors, fmt.Sprintf("Unknown tts provider: %s. Supported: openai, elevenlabs, mock", config.TTS.Provider))
	}
	if config.TTS.Provider != "" && (config.TTS.Speed < 0.5 || config.TTS.Speed > 2.0) {
		errors = append(errors, "tts.speed must be between 0.5 and 2.0")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// HasTextBackend reports whether at least one text-generation backend has credentials.
func (c *Config) HasTextBackend() bool {
	return c.LLM.Gemini.APIKey != "" || c.LLM.Gemini.APIKey2 != "" ||
		c.LLM.Cerebras.APIKey != "" || c.LLM.OpenAI.APIKey != ""
}

// ValidateForRun checks what a publishing run needs beyond structural validity.
func (c *Config) ValidateForRun() error {
	if !c.HasTextBackend() {
		return fmt.Errorf("no text-generation backend configured. Set GEMINI_API_KEY, CEREBRAS_API_KEY or OPENAI_API_KEY.\nGet a Gemini API key from: https://aistudio.google.com/app/apikey")
	}
	return nil
}

// Convenience getters for commonly used configuration values
func GetApp() App         { return Get().App }
func GetLogging() Logging { return Get().Logging }
func GetServer() Server   { return Get().Server }
func IsDebugMode() bool   { return Get().App.Debug }

// Reset clears the global configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viper.Reset()
}
