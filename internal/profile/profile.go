package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/stridecoach/stride/internal/version"
)

// Profile is configuration to start main server.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol).
	// All providers (openai, deepseek, groq, ollama) use the same config.
	LLMProvider string // Provider identifier: openai, deepseek, groq, ollama
	LLMAPIKey   string // LLM API key
	LLMBaseURL  string // LLM base URL (optional, has default per provider)
	LLMModel    string // Model name: gpt-4o-mini, deepseek-chat, etc.
	LLMTimeout  int    // LLM request timeout in seconds (default: 30)

	// WhatsApp bridge configuration. The bridge is a sidecar process that
	// holds the WhatsApp session and exposes a small HTTP API.
	WhatsAppBridgeURL   string
	WhatsAppBridgeToken string

	// Telegram configuration (secondary channel).
	TelegramBotToken string

	// Backoffice auth.
	JWTSecret     string
	AdminEmail    string
	AdminPassword string

	// Other configurations
	Mode        string
	Addr        string
	Port        int
	Data        string
	Driver      string
	DSN         string
	InstanceURL string
	Version     string
	Timezone    string
	AIEnabled   bool
}

// Provider default configurations for LLM.
// Used when STRIDE_AI_LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"groq": {
		BaseURL: "https://api.groq.com/openai/v1",
		Model:   "llama-3.1-70b-versatile",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and an LLM API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && p.LLMAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	// Unified LLM configuration
	p.LLMProvider = getEnvOrDefault("STRIDE_AI_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("STRIDE_AI_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("STRIDE_AI_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("STRIDE_AI_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("STRIDE_AI_LLM_TIMEOUT_SECONDS", 30)

	// AI is enabled if API key is configured
	p.AIEnabled = p.LLMAPIKey != ""

	// Validate and apply provider defaults if not explicitly set
	if p.LLMProvider != "" {
		if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
			slog.Warn("unknown LLM provider, using default: openai", "provider", p.LLMProvider)
			p.LLMProvider = "openai"
		}
	}
	if p.LLMBaseURL == "" || p.LLMModel == "" {
		if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
			if p.LLMBaseURL == "" {
				p.LLMBaseURL = defaults.BaseURL
			}
			if p.LLMModel == "" {
				p.LLMModel = defaults.Model
			}
		}
	}

	// Channel configuration
	p.WhatsAppBridgeURL = getEnvOrDefault("STRIDE_WHATSAPP_BRIDGE_URL", "http://localhost:3001")
	p.WhatsAppBridgeToken = getEnvOrDefault("STRIDE_WHATSAPP_BRIDGE_TOKEN", "")
	p.TelegramBotToken = getEnvOrDefault("STRIDE_TELEGRAM_BOT_TOKEN", "")

	// Backoffice auth
	p.JWTSecret = getEnvOrDefault("STRIDE_JWT_SECRET", "")
	p.AdminEmail = getEnvOrDefault("STRIDE_ADMIN_EMAIL", "")
	p.AdminPassword = getEnvOrDefault("STRIDE_ADMIN_PASSWORD", "")

	p.Timezone = getEnvOrDefault("STRIDE_TIMEZONE", "America/Argentina/Buenos_Aires")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "stride")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/stride"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("stride_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.Mode == "prod" && p.JWTSecret == "" {
		return errors.New("jwt secret required in prod mode")
	}

	p.Version = version.GetCurrentVersion(p.Mode)
	return nil
}
