package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	log "github.com/careexpand/jira-insights/internal/logging"
)

// Agent identity defaults.
const (
	AgentName          = "InsightsAgent"
	DefaultAgentPort   = "8080"
	DefaultHTTPTimeout = 30 * time.Second
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerPort int
	ServerHost string

	// Agent configuration
	AgentName    string
	AgentVersion string
	AgentURL     string

	// Jira configuration
	JiraBaseURL  string
	JiraEmail    string
	JiraAPIToken string

	// Confluence configuration. Empty base URL means the document
	// store is not configured and routing degrades to Jira only.
	ConfluenceBaseURL  string
	ConfluenceEmail    string
	ConfluenceAPIToken string

	// Fallback search term used to broaden an empty Confluence
	// search. Empty disables the broadening pass.
	ConfluenceFallbackTerm string

	// Authentication
	AuthType  string // "jwt" or "apikey"
	JWTSecret string
	APIKey    string

	// LLM configuration
	LLMEnabled     bool
	LLMProvider    string // "openai" or "azure"
	LLMModel       string
	LLMAPIKey      string
	LLMServiceURL  string
	LLMMaxTokens   int
	LLMTimeout     int // in seconds
	LLMTemperature float64

	// AssigneeAliases maps lowercase nicknames to canonical Jira
	// display names. Deployment data, overridable via config.
	AssigneeAliases map[string]string
}

var v *viper.Viper

func init() {
	v = viper.New()
	v.SetEnvPrefix("INSIGHTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Infof("No config file found, using environment variables and defaults")
	} else {
		log.Infof("Loaded configuration from %s", v.ConfigFileUsed())
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_port", 8080)
	v.SetDefault("server_host", "localhost")

	v.SetDefault("agent_name", AgentName)
	v.SetDefault("agent_version", "1.0.0")
	v.SetDefault("agent_url", "http://localhost:8080")

	v.SetDefault("jira_base_url", "")
	v.SetDefault("jira_email", "")
	v.SetDefault("jira_api_token", "")

	v.SetDefault("confluence_base_url", "")
	v.SetDefault("confluence_email", "")
	v.SetDefault("confluence_api_token", "")
	v.SetDefault("confluence_fallback_term", "")

	v.SetDefault("auth_type", "apikey")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("api_key", "")

	v.SetDefault("llm_enabled", true)
	v.SetDefault("llm_provider", "openai")
	v.SetDefault("llm_model", "gpt-4o-mini")
	v.SetDefault("llm_api_key", "")
	v.SetDefault("llm_service_url", "")
	v.SetDefault("llm_max_tokens", 1000)
	v.SetDefault("llm_timeout", 30)
	v.SetDefault("llm_temperature", 0.1)
}

// GetViper exposes the underlying viper instance so entrypoints can
// override values before building the config.
func GetViper() *viper.Viper {
	return v
}

// NewConfig creates a new configuration from the loaded viper state
func NewConfig() *Config {
	aliases := defaultAssigneeAliases()
	for nick, name := range v.GetStringMapString("assignee_aliases") {
		aliases[strings.ToLower(nick)] = name
	}

	return &Config{
		ServerPort: v.GetInt("server_port"),
		ServerHost: v.GetString("server_host"),

		AgentName:    v.GetString("agent_name"),
		AgentVersion: v.GetString("agent_version"),
		AgentURL:     v.GetString("agent_url"),

		JiraBaseURL:  strings.TrimRight(v.GetString("jira_base_url"), "/"),
		JiraEmail:    v.GetString("jira_email"),
		JiraAPIToken: v.GetString("jira_api_token"),

		ConfluenceBaseURL:      strings.TrimRight(v.GetString("confluence_base_url"), "/"),
		ConfluenceEmail:        v.GetString("confluence_email"),
		ConfluenceAPIToken:     v.GetString("confluence_api_token"),
		ConfluenceFallbackTerm: v.GetString("confluence_fallback_term"),

		AuthType:  v.GetString("auth_type"),
		JWTSecret: v.GetString("jwt_secret"),
		APIKey:    v.GetString("api_key"),

		LLMEnabled:     v.GetBool("llm_enabled"),
		LLMProvider:    v.GetString("llm_provider"),
		LLMModel:       v.GetString("llm_model"),
		LLMAPIKey:      v.GetString("llm_api_key"),
		LLMServiceURL:  v.GetString("llm_service_url"),
		LLMMaxTokens:   v.GetInt("llm_max_tokens"),
		LLMTimeout:     v.GetInt("llm_timeout"),
		LLMTemperature: v.GetFloat64("llm_temperature"),

		AssigneeAliases: aliases,
	}
}

// ConfluenceConfigured reports whether a document store is available.
func (c *Config) ConfluenceConfigured() bool {
	return c.ConfluenceBaseURL != ""
}

// defaultAssigneeAliases is the built-in nickname table. Deployments
// extend or replace it through the assignee_aliases config map.
func defaultAssigneeAliases() map[string]string {
	return map[string]string{
		"ashwin":      "Ashwin Thyagarajan",
		"thyagarajan": "Ashwin Thyagarajan",
		"saiteja":     "Sai Teja Miriyala",
		"sai teja":    "Sai Teja Miriyala",
		"srikanth":    "Srikanth Chitturi",
		"karthikeya":  "Karthikeya",
		"ajith":       "Ajith Kumar",
		"priya":       "Priya Sharma",
	}
}
