package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
	MetricsPath  string `yaml:"metrics_path"`
}

type HTTPConfig struct {
	Bind          string   `yaml:"bind"`
	Port          int      `yaml:"port"`
	CORSOrigins   []string `yaml:"cors_origins"`
	PublicBaseURL string   `yaml:"public_base_url"`
	MaxUploadMB   int      `yaml:"max_upload_mb"`
}

type Config struct {
	RuntimeName string          `yaml:"runtime_name"`
	Environment string          `yaml:"environment"`
	EnvFile     string          `yaml:"env_file"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Database    DatabaseConfig  `yaml:"database"`
	Auth        AuthConfig      `yaml:"auth"`
	Bus         BusConfig       `yaml:"bus"`
	STT         STTConfig       `yaml:"stt"`
	LLM         LLMConfig       `yaml:"llm"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // sqlite, postgres
	Path         string `yaml:"path"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type AuthConfig struct {
	JWTSecret           string `yaml:"jwt_secret"`
	TokenTTLMinutes     int    `yaml:"token_ttl_minutes"`
	BcryptCost          int    `yaml:"bcrypt_cost"`
	RequireLinkPassword bool   `yaml:"require_link_password"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	StoreDir       string   `yaml:"store_dir"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
	SubjectPrefix  string   `yaml:"subject_prefix"`
}

type STTConfig struct {
	Mode         string  `yaml:"mode"` // mock, openai, exec, whisper
	Endpoint     string  `yaml:"endpoint"`
	APIKey       string  `yaml:"api_key"`
	Model        string  `yaml:"model"`
	Command      string  `yaml:"command"`
	ModelPath    string  `yaml:"model_path"`
	Language     string  `yaml:"language"`
	SampleRate   int     `yaml:"sample_rate"`
	TimeoutMS    int     `yaml:"timeout_ms"`
	MinSilenceMS int     `yaml:"min_silence_ms"`
	MinSpeechMS  int     `yaml:"min_speech_ms"`
	VADThreshold float64 `yaml:"vad_threshold"`
}

type LLMConfig struct {
	Mode        string  `yaml:"mode"` // mock, ollama, exec, openai, gemini
	Endpoint    string  `yaml:"endpoint"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Command     string  `yaml:"command"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TimeoutMS   int     `yaml:"timeout_ms"`
}

// DefaultJWTSecret is only accepted when environment is development.
const DefaultJWTSecret = "change-me-in-production"

func Default() Config {
	return Config{
		RuntimeName: "interviewd",
		Environment: "development",
		EnvFile:     ".env",
		HTTP: HTTPConfig{
			Bind:          "0.0.0.0",
			Port:          8000,
			CORSOrigins:   []string{"http://localhost:5173"},
			PublicBaseURL: "http://localhost:5173",
			MaxUploadMB:   25,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
			MetricsPath:  "/metrics",
		},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			Path:         "./data/interview.db",
			MaxOpenConns: 8,
		},
		Auth: AuthConfig{
			JWTSecret:           DefaultJWTSecret,
			TokenTTLMinutes:     1440,
			BcryptCost:          10,
			RequireLinkPassword: false,
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			StoreDir:       "./data/nats",
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
			SubjectPrefix:  "interview",
		},
		STT: STTConfig{
			Mode:         "mock",
			Model:        "whisper-1",
			SampleRate:   16000,
			TimeoutMS:    60000,
			MinSilenceMS: 500,
			MinSpeechMS:  250,
			VADThreshold: 0.01,
		},
		LLM: LLMConfig{
			Mode:        "mock",
			MaxTokens:   256,
			Temperature: 0.3,
			TimeoutMS:   60000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := loadEnvFile(cfg.EnvFile); err != nil {
		return cfg, err
	}
	applyEnvOverrides(&cfg)
	applyEnvAliases(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadEnvFile populates the process environment from a dotenv file without
// replacing variables that are already set.
func loadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "INTERVIEW_RUNTIME_NAME")
	overrideString(&cfg.Environment, "INTERVIEW_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "INTERVIEW_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "INTERVIEW_HTTP_PORT")
	overrideStringSlice(&cfg.HTTP.CORSOrigins, "INTERVIEW_HTTP_CORS_ORIGINS")
	overrideString(&cfg.HTTP.PublicBaseURL, "INTERVIEW_HTTP_PUBLIC_BASE_URL")
	overrideInt(&cfg.HTTP.MaxUploadMB, "INTERVIEW_HTTP_MAX_UPLOAD_MB")
	overrideString(&cfg.Telemetry.LogLevel, "INTERVIEW_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "INTERVIEW_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "INTERVIEW_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.MetricsPath, "INTERVIEW_TELEMETRY_METRICS_PATH")
	overrideString(&cfg.Database.Driver, "INTERVIEW_DATABASE_DRIVER")
	overrideString(&cfg.Database.Path, "INTERVIEW_DATABASE_PATH")
	overrideString(&cfg.Database.DSN, "INTERVIEW_DATABASE_DSN")
	overrideInt(&cfg.Database.MaxOpenConns, "INTERVIEW_DATABASE_MAX_OPEN_CONNS")
	overrideString(&cfg.Auth.JWTSecret, "INTERVIEW_AUTH_JWT_SECRET")
	overrideInt(&cfg.Auth.TokenTTLMinutes, "INTERVIEW_AUTH_TOKEN_TTL_MINUTES")
	overrideInt(&cfg.Auth.BcryptCost, "INTERVIEW_AUTH_BCRYPT_COST")
	overrideBool(&cfg.Auth.RequireLinkPassword, "INTERVIEW_AUTH_REQUIRE_LINK_PASSWORD")
	overrideBool(&cfg.Bus.Enabled, "INTERVIEW_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "INTERVIEW_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "INTERVIEW_BUS_PORT")
	overrideString(&cfg.Bus.StoreDir, "INTERVIEW_BUS_STORE_DIR")
	overrideStringSlice(&cfg.Bus.Servers, "INTERVIEW_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "INTERVIEW_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "INTERVIEW_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "INTERVIEW_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "INTERVIEW_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "INTERVIEW_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Bus.SubjectPrefix, "INTERVIEW_BUS_SUBJECT_PREFIX")
	overrideString(&cfg.STT.Mode, "INTERVIEW_STT_MODE")
	overrideString(&cfg.STT.Endpoint, "INTERVIEW_STT_ENDPOINT")
	overrideString(&cfg.STT.APIKey, "INTERVIEW_STT_API_KEY")
	overrideString(&cfg.STT.Model, "INTERVIEW_STT_MODEL")
	overrideString(&cfg.STT.Command, "INTERVIEW_STT_COMMAND")
	overrideString(&cfg.STT.ModelPath, "INTERVIEW_STT_MODEL_PATH")
	overrideString(&cfg.STT.Language, "INTERVIEW_STT_LANGUAGE")
	overrideInt(&cfg.STT.SampleRate, "INTERVIEW_STT_SAMPLE_RATE")
	overrideInt(&cfg.STT.TimeoutMS, "INTERVIEW_STT_TIMEOUT_MS")
	overrideInt(&cfg.STT.MinSilenceMS, "INTERVIEW_STT_MIN_SILENCE_MS")
	overrideInt(&cfg.STT.MinSpeechMS, "INTERVIEW_STT_MIN_SPEECH_MS")
	overrideFloat(&cfg.STT.VADThreshold, "INTERVIEW_STT_VAD_THRESHOLD")
	overrideString(&cfg.LLM.Mode, "INTERVIEW_LLM_MODE")
	overrideString(&cfg.LLM.Endpoint, "INTERVIEW_LLM_ENDPOINT")
	overrideString(&cfg.LLM.APIKey, "INTERVIEW_LLM_API_KEY")
	overrideString(&cfg.LLM.Model, "INTERVIEW_LLM_MODEL")
	overrideString(&cfg.LLM.Command, "INTERVIEW_LLM_COMMAND")
	overrideInt(&cfg.LLM.MaxTokens, "INTERVIEW_LLM_MAX_TOKENS")
	overrideFloat(&cfg.LLM.Temperature, "INTERVIEW_LLM_TEMPERATURE")
	overrideInt(&cfg.LLM.TimeoutMS, "INTERVIEW_LLM_TIMEOUT_MS")
}

// applyEnvAliases honours the variable names used by existing deployments.
// Prefixed variables win when both are set.
func applyEnvAliases(cfg *Config) {
	if _, ok := os.LookupEnv("INTERVIEW_DATABASE_DSN"); !ok {
		if value, ok := os.LookupEnv("DATABASE_URL"); ok && strings.TrimSpace(value) != "" {
			applyDatabaseURL(&cfg.Database, value)
		}
	}
	aliasString(&cfg.Auth.JWTSecret, "JWT_SECRET", "INTERVIEW_AUTH_JWT_SECRET")
	aliasInt(&cfg.Auth.TokenTTLMinutes, "ACCESS_TOKEN_EXPIRE_MINUTES", "INTERVIEW_AUTH_TOKEN_TTL_MINUTES")
	aliasString(&cfg.STT.APIKey, "WHISPER_API_KEY", "INTERVIEW_STT_API_KEY")
	aliasString(&cfg.STT.APIKey, "OPENAI_API_KEY", "INTERVIEW_STT_API_KEY")
	if cfg.LLM.Mode == "gemini" {
		aliasString(&cfg.LLM.APIKey, "GEMINI_API_KEY", "INTERVIEW_LLM_API_KEY")
	}
	if cfg.LLM.Mode == "openai" {
		aliasString(&cfg.LLM.APIKey, "OPENAI_API_KEY", "INTERVIEW_LLM_API_KEY")
	}
	if _, ok := os.LookupEnv("INTERVIEW_HTTP_CORS_ORIGINS"); !ok {
		if value, ok := os.LookupEnv("CORS_ORIGINS"); ok {
			if origins := ParseOrigins(value); len(origins) > 0 {
				cfg.HTTP.CORSOrigins = origins
			}
		}
	}
}

func applyDatabaseURL(db *DatabaseConfig, value string) {
	switch {
	case strings.HasPrefix(value, "postgres://"), strings.HasPrefix(value, "postgresql://"):
		db.Driver = "postgres"
		db.DSN = value
	case strings.HasPrefix(value, "sqlite:///"):
		db.Driver = "sqlite"
		db.Path = strings.TrimPrefix(value, "sqlite:///")
		db.DSN = ""
	case strings.HasPrefix(value, "sqlite://"):
		db.Driver = "sqlite"
		db.Path = strings.TrimPrefix(value, "sqlite://")
		db.DSN = ""
	default:
		db.DSN = value
	}
}

// ParseOrigins accepts "*", a comma separated list or a JSON array.
func ParseOrigins(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if value == "*" {
		return []string{"*"}
	}
	if strings.HasPrefix(value, "[") {
		var parsed []string
		if err := json.Unmarshal([]byte(value), &parsed); err == nil {
			return trimAll(parsed)
		}
	}
	return trimAll(strings.Split(value, ","))
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func aliasString(target *string, aliasKey, primaryKey string) {
	if _, ok := os.LookupEnv(primaryKey); ok {
		return
	}
	overrideString(target, aliasKey)
}

func aliasInt(target *int, aliasKey, primaryKey string) {
	if _, ok := os.LookupEnv(primaryKey); ok {
		return
	}
	overrideInt(target, aliasKey)
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if trimmed := trimAll(strings.Split(value, ",")); len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.HTTP.MaxUploadMB <= 0 {
		return errors.New("http.max_upload_mb must be positive")
	}
	if cfg.Telemetry.MetricsPath == "" || !strings.HasPrefix(cfg.Telemetry.MetricsPath, "/") {
		return errors.New("telemetry.metrics_path must start with /")
	}
	switch cfg.Database.Driver {
	case "sqlite":
		if cfg.Database.Path == "" && cfg.Database.DSN == "" {
			return errors.New("database.path must not be empty when driver=sqlite")
		}
	case "postgres":
		if cfg.Database.DSN == "" {
			return errors.New("database.dsn must be set when driver=postgres")
		}
	default:
		return errors.New("database.driver must be one of sqlite|postgres")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret must not be empty")
	}
	if cfg.Environment != "development" && cfg.Auth.JWTSecret == DefaultJWTSecret {
		return fmt.Errorf("auth.jwt_secret must be changed from the default when environment=%s", cfg.Environment)
	}
	if cfg.Auth.TokenTTLMinutes <= 0 {
		return errors.New("auth.token_ttl_minutes must be positive")
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return errors.New("auth.bcrypt_cost must be between 4 and 31")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
		if cfg.Bus.SubjectPrefix == "" {
			return errors.New("bus.subject_prefix must not be empty")
		}
	}
	switch cfg.STT.Mode {
	case "mock", "openai", "exec", "whisper":
	default:
		return errors.New("stt.mode must be one of mock|openai|exec|whisper")
	}
	if cfg.STT.Mode == "openai" && cfg.STT.APIKey == "" {
		return errors.New("stt.api_key must be set when mode=openai")
	}
	if cfg.STT.Mode == "exec" && cfg.STT.Command == "" {
		return errors.New("stt.command must be set when mode=exec")
	}
	if cfg.STT.Mode == "whisper" && cfg.STT.ModelPath == "" {
		return errors.New("stt.model_path must be set when mode=whisper")
	}
	if cfg.STT.SampleRate <= 0 {
		return errors.New("stt.sample_rate must be positive")
	}
	if cfg.STT.TimeoutMS <= 0 {
		return errors.New("stt.timeout_ms must be positive")
	}
	if cfg.STT.MinSilenceMS < 0 || cfg.STT.MinSpeechMS < 0 {
		return errors.New("stt.min_silence_ms and stt.min_speech_ms must be >= 0")
	}
	switch cfg.LLM.Mode {
	case "mock", "ollama", "exec", "openai", "gemini":
	default:
		return errors.New("llm.mode must be one of mock|ollama|exec|openai|gemini")
	}
	if cfg.LLM.Mode == "exec" && cfg.LLM.Command == "" {
		return errors.New("llm.command must be set when mode=exec")
	}
	if (cfg.LLM.Mode == "openai" || cfg.LLM.Mode == "gemini") && cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key must be set when mode=%s", cfg.LLM.Mode)
	}
	if cfg.LLM.TimeoutMS <= 0 {
		return errors.New("llm.timeout_ms must be positive")
	}
	return nil
}
