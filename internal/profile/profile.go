package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Profile is configuration to start the engine and its HTTP server.
type Profile struct {
	// Server
	Mode    string // demo, dev, prod
	Addr    string
	Port    int
	Version string

	// Logging
	LogLevel  string
	LogFormat string

	// Storage
	Data         string
	Driver       string // memory, sqlite, postgres
	DSN          string
	HistoryLimit int

	// Engine
	Strategy         string // rule, remote
	HistoryTimeout   time.Duration
	DirectoryTimeout time.Duration
	LearnQueueSize   int
	ConfigDir        string // base directory of the YAML overrides
	LexiconPath      string
	TemplatesPath    string
	GateRules        []string

	// Calls
	ConversationMode bool
	FollowUpInterval time.Duration
	MaxFollowUps     int
	DoNotDisturb     bool
	AutoAnswer       bool
	RingTimeout      time.Duration
	// CallWebhookURL receives every spoken call line when set.
	CallWebhookURL string

	// Remote model (OpenAI-compatible protocol)
	LLMProvider         string
	LLMAPIKey           string
	LLMBaseURL          string
	LLMModel            string
	LLMTimeout          time.Duration
	RemoteMaxConcurrent int
	RemoteRatePerSecond float64
}

// Default models per provider, used when CONTEXTSENSE_LLM_MODEL is unset.
var llmProviderModels = map[string]string{
	"zai":         "glm-4-flash",
	"deepseek":    "deepseek-chat",
	"openai":      "gpt-4o-mini",
	"siliconflow": "Qwen/Qwen2.5-7B-Instruct",
	"dashscope":   "qwen-turbo",
	"openrouter":  "deepseek/deepseek-chat",
	"ollama":      "llama3.1",
}

// Default returns the profile used when nothing is configured.
func Default() *Profile {
	return &Profile{
		Mode:                "demo",
		Addr:                "",
		Port:                8081,
		LogLevel:            "info",
		LogFormat:           "json",
		Driver:              DriverMemory,
		HistoryLimit:        100,
		Strategy:            "rule",
		HistoryTimeout:      200 * time.Millisecond,
		DirectoryTimeout:    200 * time.Millisecond,
		LearnQueueSize:      256,
		FollowUpInterval:    8 * time.Second,
		RingTimeout:         45 * time.Second,
		LLMProvider:         "deepseek",
		LLMTimeout:          10 * time.Second,
		RemoteMaxConcurrent: 4,
		RemoteRatePerSecond: 5,
	}
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsRemote reports whether replies come from the remote model.
func (p *Profile) IsRemote() bool {
	return p.Strategy == "remote"
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
		slog.Warn("ignoring invalid integer", "env", key, "value", value)
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		slog.Warn("ignoring invalid number", "env", key, "value", value)
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		slog.Warn("ignoring invalid boolean", "env", key, "value", value)
	}
	return defaultValue
}

func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		slog.Warn("ignoring invalid duration", "env", key, "value", value)
	}
	return defaultValue
}

// FromEnv overlays CONTEXTSENSE_* environment variables on p. Unset
// variables keep the current values.
func (p *Profile) FromEnv() {
	p.Mode = getEnvOrDefault("CONTEXTSENSE_MODE", p.Mode)
	p.Addr = getEnvOrDefault("CONTEXTSENSE_ADDR", p.Addr)
	p.Port = getEnvOrDefaultInt("CONTEXTSENSE_PORT", p.Port)
	p.LogLevel = getEnvOrDefault("CONTEXTSENSE_LOG_LEVEL", p.LogLevel)
	p.LogFormat = getEnvOrDefault("CONTEXTSENSE_LOG_FORMAT", p.LogFormat)

	p.Data = getEnvOrDefault("CONTEXTSENSE_DATA", p.Data)
	p.Driver = getEnvOrDefault("CONTEXTSENSE_DRIVER", p.Driver)
	p.DSN = getEnvOrDefault("CONTEXTSENSE_DSN", p.DSN)
	p.HistoryLimit = getEnvOrDefaultInt("CONTEXTSENSE_HISTORY_LIMIT", p.HistoryLimit)

	p.Strategy = getEnvOrDefault("CONTEXTSENSE_STRATEGY", p.Strategy)
	p.HistoryTimeout = getEnvOrDefaultDuration("CONTEXTSENSE_HISTORY_TIMEOUT", p.HistoryTimeout)
	p.DirectoryTimeout = getEnvOrDefaultDuration("CONTEXTSENSE_DIRECTORY_TIMEOUT", p.DirectoryTimeout)
	p.LearnQueueSize = getEnvOrDefaultInt("CONTEXTSENSE_LEARN_QUEUE_SIZE", p.LearnQueueSize)
	p.ConfigDir = getEnvOrDefault("CONTEXTSENSE_CONFIG_DIR", p.ConfigDir)
	p.LexiconPath = getEnvOrDefault("CONTEXTSENSE_LEXICON", p.LexiconPath)
	p.TemplatesPath = getEnvOrDefault("CONTEXTSENSE_TEMPLATES", p.TemplatesPath)
	if rules := os.Getenv("CONTEXTSENSE_GATE_RULES"); rules != "" {
		p.GateRules = splitRules(rules)
	}

	p.ConversationMode = getEnvOrDefaultBool("CONTEXTSENSE_CONVERSATION_MODE", p.ConversationMode)
	p.FollowUpInterval = getEnvOrDefaultDuration("CONTEXTSENSE_FOLLOW_UP_INTERVAL", p.FollowUpInterval)
	p.MaxFollowUps = getEnvOrDefaultInt("CONTEXTSENSE_MAX_FOLLOW_UPS", p.MaxFollowUps)
	p.DoNotDisturb = getEnvOrDefaultBool("CONTEXTSENSE_DO_NOT_DISTURB", p.DoNotDisturb)
	p.AutoAnswer = getEnvOrDefaultBool("CONTEXTSENSE_AUTO_ANSWER", p.AutoAnswer)
	p.RingTimeout = getEnvOrDefaultDuration("CONTEXTSENSE_RING_TIMEOUT", p.RingTimeout)
	p.CallWebhookURL = getEnvOrDefault("CONTEXTSENSE_CALL_WEBHOOK_URL", p.CallWebhookURL)

	p.LLMProvider = getEnvOrDefault("CONTEXTSENSE_LLM_PROVIDER", p.LLMProvider)
	p.LLMAPIKey = getEnvOrDefault("CONTEXTSENSE_LLM_API_KEY", p.LLMAPIKey)
	p.LLMBaseURL = getEnvOrDefault("CONTEXTSENSE_LLM_BASE_URL", p.LLMBaseURL)
	p.LLMModel = getEnvOrDefault("CONTEXTSENSE_LLM_MODEL", p.LLMModel)
	p.LLMTimeout = getEnvOrDefaultDuration("CONTEXTSENSE_LLM_TIMEOUT", p.LLMTimeout)
	p.RemoteMaxConcurrent = getEnvOrDefaultInt("CONTEXTSENSE_REMOTE_MAX_CONCURRENT", p.RemoteMaxConcurrent)
	p.RemoteRatePerSecond = getEnvOrDefaultFloat("CONTEXTSENSE_REMOTE_RATE", p.RemoteRatePerSecond)
}

// splitRules splits CEL rules separated by ";;". Rules themselves may contain ';'.
func splitRules(s string) []string {
	var rules []string
	for _, r := range strings.Split(s, ";;") {
		if r = strings.TrimSpace(r); r != "" {
			rules = append(rules, r)
		}
	}
	return rules
}

// Validate normalises the profile and rejects unusable combinations.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}

	switch p.Strategy {
	case "":
		p.Strategy = "rule"
	case "rule":
	case "remote":
		if p.LLMModel == "" {
			p.LLMModel = llmProviderModels[p.LLMProvider]
		}
		if p.LLMModel == "" {
			return errors.Errorf("remote strategy needs a model for provider %q", p.LLMProvider)
		}
		if p.LLMAPIKey == "" && p.LLMProvider != "ollama" {
			return errors.New("remote strategy needs CONTEXTSENSE_LLM_API_KEY")
		}
	default:
		return errors.Errorf("unknown strategy %q", p.Strategy)
	}

	if p.HistoryLimit <= 0 {
		p.HistoryLimit = 100
	}
	if p.FollowUpInterval <= 0 {
		p.FollowUpInterval = 8 * time.Second
	}
	if p.RingTimeout <= 0 {
		p.RingTimeout = 45 * time.Second
	}

	switch p.Driver {
	case "", DriverMemory:
		p.Driver = DriverMemory
	case DriverSQLite:
		if p.DSN == "" {
			if p.Data == "" {
				p.Data = "."
			}
			dataDir, err := checkDataDir(p.Data)
			if err != nil {
				return err
			}
			p.Data = dataDir
			p.DSN = filepath.Join(dataDir, fmt.Sprintf("contextsense_%s.db", p.Mode))
		}
	case DriverPostgres:
		if p.DSN == "" {
			return errors.New("postgres driver needs CONTEXTSENSE_DSN")
		}
	default:
		return errors.Errorf("unknown driver %q", p.Driver)
	}
	return nil
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
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
