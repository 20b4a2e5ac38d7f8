package profile

import (
	"os"
	"testing"
)

func TestLLMProfileDefaults(t *testing.T) {
	clearEnvVars()

	profile := &Profile{}
	profile.FromEnv()

	tests := []struct {
		name     string
		expected string
		actual   string
	}{
		{"LLMProvider default", "openai", profile.LLMProvider},
		{"LLMBaseURL default", "https://api.openai.com/v1", profile.LLMBaseURL},
		{"LLMModel default", "gpt-4o-mini", profile.LLMModel},
		{"LLMAPIKey default", "", profile.LLMAPIKey},
		{"WhatsAppBridgeURL default", "http://localhost:3001", profile.WhatsAppBridgeURL},
		{"Timezone default", "America/Argentina/Buenos_Aires", profile.Timezone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, tt.actual)
			}
		})
	}

	if profile.AIEnabled {
		t.Error("AIEnabled should be false without an API key")
	}
	if profile.LLMTimeout != 30 {
		t.Errorf("LLMTimeout: expected 30, got %d", profile.LLMTimeout)
	}
}

func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		field    func(*Profile) string
		expected string
	}{
		{
			name:     "LLM API key",
			envVar:   "STRIDE_AI_LLM_API_KEY",
			envValue: "test-key",
			field:    func(p *Profile) string { return p.LLMAPIKey },
			expected: "test-key",
		},
		{
			name:     "LLM provider deepseek gets its base URL",
			envVar:   "STRIDE_AI_LLM_PROVIDER",
			envValue: "deepseek",
			field:    func(p *Profile) string { return p.LLMBaseURL },
			expected: "https://api.deepseek.com",
		},
		{
			name:     "unknown LLM provider falls back to openai",
			envVar:   "STRIDE_AI_LLM_PROVIDER",
			envValue: "acme",
			field:    func(p *Profile) string { return p.LLMProvider },
			expected: "openai",
		},
		{
			name:     "WhatsApp bridge token",
			envVar:   "STRIDE_WHATSAPP_BRIDGE_TOKEN",
			envValue: "bridge-secret",
			field:    func(p *Profile) string { return p.WhatsAppBridgeToken },
			expected: "bridge-secret",
		},
		{
			name:     "explicit base URL overrides provider default",
			envVar:   "STRIDE_AI_LLM_BASE_URL",
			envValue: "http://localhost:8080/v1",
			field:    func(p *Profile) string { return p.LLMBaseURL },
			expected: "http://localhost:8080/v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			os.Setenv(tt.envVar, tt.envValue)
			defer os.Unsetenv(tt.envVar)

			profile := &Profile{}
			profile.FromEnv()

			actual := tt.field(profile)
			if actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, actual)
			}
		})
	}
}

func TestIsAIEnabled(t *testing.T) {
	tests := []struct {
		name           string
		setupProfile   func(*Profile)
		expectedResult bool
	}{
		{
			name:           "no API key returns false",
			setupProfile:   func(p *Profile) {},
			expectedResult: false,
		},
		{
			name: "API key with AIEnabled returns true",
			setupProfile: func(p *Profile) {
				p.AIEnabled = true
				p.LLMAPIKey = "test-key"
			},
			expectedResult: true,
		},
		{
			name: "API key without AIEnabled returns false",
			setupProfile: func(p *Profile) {
				p.LLMAPIKey = "test-key"
			},
			expectedResult: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &Profile{}
			tt.setupProfile(profile)

			if result := profile.IsAIEnabled(); result != tt.expectedResult {
				t.Errorf("IsAIEnabled(): expected %v, got %v", tt.expectedResult, result)
			}
		})
	}
}

func clearEnvVars() {
	for _, key := range []string{
		"STRIDE_AI_LLM_PROVIDER",
		"STRIDE_AI_LLM_API_KEY",
		"STRIDE_AI_LLM_BASE_URL",
		"STRIDE_AI_LLM_MODEL",
		"STRIDE_AI_LLM_TIMEOUT_SECONDS",
		"STRIDE_WHATSAPP_BRIDGE_URL",
		"STRIDE_WHATSAPP_BRIDGE_TOKEN",
		"STRIDE_TELEGRAM_BOT_TOKEN",
		"STRIDE_JWT_SECRET",
		"STRIDE_ADMIN_EMAIL",
		"STRIDE_ADMIN_PASSWORD",
		"STRIDE_TIMEZONE",
	} {
		os.Unsetenv(key)
	}
}
