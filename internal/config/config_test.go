package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Auth.TokenTTLMinutes != 1440 {
		t.Fatalf("expected default token ttl 1440, got %d", cfg.Auth.TokenTTLMinutes)
	}
	if cfg.Auth.RequireLinkPassword {
		t.Fatal("expected link password policy disabled by default")
	}
	if cfg.STT.MinSilenceMS != 500 {
		t.Fatalf("expected min silence 500ms, got %d", cfg.STT.MinSilenceMS)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected sqlite driver, got %s", cfg.Database.Driver)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interview.yaml")
	data := []byte(`
runtime_name: test-runtime
http:
  port: 9000
  public_base_url: https://interviews.example.com
auth:
  jwt_secret: yaml-secret
  require_link_password: true
stt:
  mode: exec
  command: "python3 transcribe.py --beam 5"
llm:
  mode: ollama
  model: mistral
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RuntimeName != "test-runtime" || cfg.HTTP.Port != 9000 {
		t.Fatalf("unexpected runtime config: %+v", cfg.HTTP)
	}
	if !cfg.Auth.RequireLinkPassword {
		t.Fatal("expected require_link_password from yaml")
	}
	if cfg.STT.Mode != "exec" || cfg.STT.Command == "" {
		t.Fatalf("unexpected stt config: %+v", cfg.STT)
	}
	if cfg.STT.SampleRate != 16000 {
		t.Fatalf("expected defaults retained for unset keys, got %d", cfg.STT.SampleRate)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("INTERVIEW_HTTP_PORT", "8181")
	t.Setenv("INTERVIEW_HTTP_CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("INTERVIEW_AUTH_JWT_SECRET", "env-secret")
	t.Setenv("INTERVIEW_AUTH_REQUIRE_LINK_PASSWORD", "true")
	t.Setenv("INTERVIEW_BUS_ENABLED", "true")
	t.Setenv("INTERVIEW_BUS_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("INTERVIEW_BUS_EMBEDDED", "false")
	t.Setenv("INTERVIEW_STT_TIMEOUT_MS", "1500")
	t.Setenv("INTERVIEW_STT_VAD_THRESHOLD", "0.05")
	t.Setenv("INTERVIEW_LLM_TEMPERATURE", "0.9")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 8181 {
		t.Fatalf("expected port override, got %d", cfg.HTTP.Port)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected cors origins %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Auth.JWTSecret != "env-secret" || !cfg.Auth.RequireLinkPassword {
		t.Fatalf("expected auth overrides, got %+v", cfg.Auth)
	}
	if len(cfg.Bus.Servers) != 2 || cfg.Bus.Embedded {
		t.Fatalf("expected bus overrides, got %+v", cfg.Bus)
	}
	if cfg.STT.TimeoutMS != 1500 || cfg.STT.VADThreshold != 0.05 {
		t.Fatalf("expected stt overrides, got %+v", cfg.STT)
	}
	if cfg.LLM.Temperature != 0.9 {
		t.Fatalf("expected llm temperature override, got %v", cfg.LLM.Temperature)
	}
}

func TestEnvAliases(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://user:pw@localhost:5432/interviews?sslmode=disable")
	t.Setenv("JWT_SECRET", "alias-secret")
	t.Setenv("CORS_ORIGINS", `["http://x.test", "http://y.test"]`)
	t.Setenv("INTERVIEW_LLM_MODE", "gemini")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.DSN == "" {
		t.Fatalf("expected postgres from DATABASE_URL, got %+v", cfg.Database)
	}
	if cfg.Auth.JWTSecret != "alias-secret" {
		t.Fatalf("expected JWT_SECRET alias, got %q", cfg.Auth.JWTSecret)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.CORSOrigins[0] != "http://x.test" {
		t.Fatalf("unexpected cors origins %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.LLM.APIKey != "gemini-key" {
		t.Fatalf("expected gemini key alias, got %q", cfg.LLM.APIKey)
	}
}

func TestPrefixedEnvWinsOverAlias(t *testing.T) {
	t.Setenv("JWT_SECRET", "alias-secret")
	t.Setenv("INTERVIEW_AUTH_JWT_SECRET", "primary-secret")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Auth.JWTSecret != "primary-secret" {
		t.Fatalf("expected prefixed variable to win, got %q", cfg.Auth.JWTSecret)
	}
}

func TestEnvFileLoaded(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envPath, []byte("INTERVIEW_STT_LANGUAGE=de\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	cfgPath := filepath.Join(dir, "interview.yaml")
	if err := os.WriteFile(cfgPath, []byte("env_file: "+envPath+"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("INTERVIEW_STT_LANGUAGE") })

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.STT.Language != "de" {
		t.Fatalf("expected language from env file, got %q", cfg.STT.Language)
	}
}

func TestValidateRejectsBadModes(t *testing.T) {
	cases := map[string]func(*Config){
		"stt mode":        func(c *Config) { c.STT.Mode = "carrier-pigeon" },
		"exec command":    func(c *Config) { c.STT.Mode = "exec"; c.STT.Command = "" },
		"llm mode":        func(c *Config) { c.LLM.Mode = "oracle" },
		"openai key":      func(c *Config) { c.LLM.Mode = "openai"; c.LLM.APIKey = "" },
		"db driver":       func(c *Config) { c.Database.Driver = "mysql" },
		"postgres dsn":    func(c *Config) { c.Database.Driver = "postgres"; c.Database.DSN = "" },
		"empty secret":    func(c *Config) { c.Auth.JWTSecret = " " },
		"bcrypt cost":     func(c *Config) { c.Auth.BcryptCost = 99 },
		"stt timeout":     func(c *Config) { c.STT.TimeoutMS = 0 },
		"bus subject":     func(c *Config) { c.Bus.Enabled = true; c.Bus.SubjectPrefix = "" },
		"metrics path":    func(c *Config) { c.Telemetry.MetricsPath = "metrics" },
		"whisper model":   func(c *Config) { c.STT.Mode = "whisper"; c.STT.ModelPath = "" },
		"upload limit":    func(c *Config) { c.HTTP.MaxUploadMB = 0 },
		"negative vad ms": func(c *Config) { c.STT.MinSilenceMS = -1 },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := validate(cfg); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestValidateDefaultSecretOutsideDevelopment(t *testing.T) {
	cfg := Default()
	if err := validate(cfg); err != nil {
		t.Fatalf("development defaults should validate: %v", err)
	}

	cfg.Environment = "production"
	if err := validate(cfg); err == nil {
		t.Fatal("expected default jwt secret to be rejected in production")
	}

	cfg.Auth.JWTSecret = "a-real-secret"
	if err := validate(cfg); err != nil {
		t.Fatalf("expected custom secret to validate: %v", err)
	}
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	for _, key := range []string{"INTERVIEW_AUTH_JWT_SECRET", "JWT_SECRET"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
	t.Setenv("INTERVIEW_RUNTIME_ENVIRONMENT", "production")
	if _, err := Load(""); err == nil {
		t.Fatal("expected load to fail without a jwt secret in production")
	}
	t.Setenv("JWT_SECRET", "rotated-secret")
	if _, err := Load(""); err != nil {
		t.Fatalf("expected alias secret to satisfy production: %v", err)
	}
}

func TestParseOrigins(t *testing.T) {
	if got := ParseOrigins("*"); len(got) != 1 || got[0] != "*" {
		t.Fatalf("unexpected wildcard parse %v", got)
	}
	if got := ParseOrigins("http://a.test,, http://b.test "); len(got) != 2 {
		t.Fatalf("unexpected list parse %v", got)
	}
	if got := ParseOrigins(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}
