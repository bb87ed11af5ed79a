package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Gateway modes
const (
	ModeWebhook = "webhook"
	ModeProxy   = "proxy"
	ModeServer  = "server"
)

// Credential strategies
const (
	AuthBearer = "bearer"
	AuthBasic  = "basic"
	AuthStore  = "store"
)

// Default parameter store names holding the Jira credentials
const (
	DefaultURLParam      = "/jira_webhook_lambda/jira_url"
	DefaultUsernameParam = "/jira_webhook_lambda/jira_username"
	DefaultPasswordParam = "/jira_webhook_lambda/jira_password"
)

// Config holds the application configuration
type Config struct {
	// Gateway mode: webhook, proxy or server
	Mode string

	// Server configuration
	ServerPort     int
	ServerHost     string
	ServerBasePath string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	// Jira configuration
	JiraBaseURL string
	JiraTimeout time.Duration

	// Credentials
	AuthStrategy      string // "bearer", "basic" or "store"
	SSMRegion         string
	SSMWithDecryption bool
	SSMURLParam       string
	SSMUsernameParam  string
	SSMPasswordParam  string

	// Ticket defaults
	WebhookProjectKey string
	WebhookIssueType  string
	WebhookDryRun     bool
	ProxyIssueType    string

	// A2A agent configuration
	A2AEnabled   bool
	A2APort      int
	A2AAPIKey    string
	AgentName    string
	AgentVersion string
	AgentURL     string

	// Observability
	LogLevel     string
	OTelEndpoint string
	OTelHeaders  string
	OTelService  string
}

var v = viper.New()

// init loads environment variables from .env file
func init() {
	// Try to load from project root first
	err := godotenv.Load()
	if err != nil {
		// Try loading from parent directory (assuming we're in a subdirectory)
		err = godotenv.Load("../.env")
		if err != nil {
			// Try one more level up
			err = godotenv.Load("../../.env")
			if err != nil {
				log.Println("No .env file found or error loading it. Using environment variables or defaults.")
			} else {
				log.Println("Loaded configuration from ../../.env file")
			}
		} else {
			log.Println("Loaded configuration from ../.env file")
		}
	} else {
		log.Println("Loaded configuration from .env file")
	}

	setDefaults(v)
}

// GetViper exposes the viper instance backing the configuration so callers can override keys
func GetViper() *viper.Viper {
	return v
}

func setDefaults(v *viper.Viper) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("mode", ModeProxy)
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 8080)
	v.SetDefault("server_base_path", "")
	v.SetDefault("server_read_timeout", "30s")
	v.SetDefault("server_write_timeout", "30s")

	v.SetDefault("jira_base_url", "")
	v.SetDefault("jira_server_url", "")
	v.SetDefault("jira_timeout", "30s")

	v.SetDefault("auth_strategy", "")
	v.SetDefault("ssm_region", "us-east-1")
	v.SetDefault("ssm_with_decryption", true)
	v.SetDefault("ssm_url_param", DefaultURLParam)
	v.SetDefault("ssm_username_param", DefaultUsernameParam)
	v.SetDefault("ssm_password_param", DefaultPasswordParam)

	v.SetDefault("webhook_project_key", "SYS")
	v.SetDefault("webhook_issue_type", "Ticket")
	v.SetDefault("webhook_dry_run", false)
	v.SetDefault("proxy_issue_type", "Ticket")

	v.SetDefault("a2a_enabled", false)
	v.SetDefault("a2a_port", 8081)
	v.SetDefault("a2a_api_key", "")
	v.SetDefault("agent_name", "JiraGatewayAgent")
	v.SetDefault("agent_version", "1.0.0")
	v.SetDefault("agent_url", "http://localhost:8081")

	v.SetDefault("log_level", "info")
	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("otel_exporter_otlp_headers", "")
	v.SetDefault("otel_service_name", "jira-gateway")
}

// NewConfig creates a new configuration from the environment
func NewConfig() *Config {
	return FromViper(v)
}

// FromViper builds a configuration from an arbitrary viper instance
func FromViper(v *viper.Viper) *Config {
	mode := strings.ToLower(v.GetString("mode"))

	baseURL := v.GetString("jira_base_url")
	if baseURL == "" {
		baseURL = v.GetString("jira_server_url")
	}

	return &Config{
		Mode: mode,

		// Server configuration
		ServerHost:     v.GetString("server_host"),
		ServerPort:     v.GetInt("server_port"),
		ServerBasePath: v.GetString("server_base_path"),
		ReadTimeout:    v.GetDuration("server_read_timeout"),
		WriteTimeout:   v.GetDuration("server_write_timeout"),

		// Jira configuration
		JiraBaseURL: baseURL,
		JiraTimeout: v.GetDuration("jira_timeout"),

		// Credentials
		AuthStrategy:      authStrategy(mode, v.GetString("auth_strategy")),
		SSMRegion:         v.GetString("ssm_region"),
		SSMWithDecryption: v.GetBool("ssm_with_decryption"),
		SSMURLParam:       v.GetString("ssm_url_param"),
		SSMUsernameParam:  v.GetString("ssm_username_param"),
		SSMPasswordParam:  v.GetString("ssm_password_param"),

		WebhookProjectKey: v.GetString("webhook_project_key"),
		WebhookIssueType:  v.GetString("webhook_issue_type"),
		WebhookDryRun:     v.GetBool("webhook_dry_run"),
		ProxyIssueType:    v.GetString("proxy_issue_type"),

		A2AEnabled:   v.GetBool("a2a_enabled"),
		A2APort:      v.GetInt("a2a_port"),
		A2AAPIKey:    v.GetString("a2a_api_key"),
		AgentName:    v.GetString("agent_name"),
		AgentVersion: v.GetString("agent_version"),
		AgentURL:     v.GetString("agent_url"),

		LogLevel:     v.GetString("log_level"),
		OTelEndpoint: v.GetString("otel_exporter_otlp_endpoint"),
		OTelHeaders:  v.GetString("otel_exporter_otlp_headers"),
		OTelService:  v.GetString("otel_service_name"),
	}
}

// authStrategy picks the credential strategy each mode used historically when none is configured:
// webhook events carry no credentials, the structured server expects Basic auth.
func authStrategy(mode, configured string) string {
	if configured != "" {
		return strings.ToLower(configured)
	}
	switch mode {
	case ModeWebhook:
		return AuthStore
	case ModeServer:
		return AuthBasic
	default:
		return AuthBearer
	}
}

// Validate checks that the configuration describes a runnable gateway
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeWebhook, ModeProxy, ModeServer:
	default:
		return fmt.Errorf("unsupported mode %q", c.Mode)
	}

	switch c.AuthStrategy {
	case AuthStore:
	case AuthBearer, AuthBasic:
		if c.JiraBaseURL == "" {
			return fmt.Errorf("JIRA_BASE_URL is required for %s authentication", c.AuthStrategy)
		}
	default:
		return fmt.Errorf("unsupported auth strategy %q", c.AuthStrategy)
	}

	if c.Mode == ModeWebhook && c.AuthStrategy != AuthStore {
		return fmt.Errorf("webhook mode requires the store auth strategy")
	}

	if c.A2AEnabled && c.Mode != ModeWebhook {
		return fmt.Errorf("the A2A agent is only available in webhook mode")
	}

	return nil
}

// ParameterNames returns the parameter store names for url, username and password, in that order
func (c *Config) ParameterNames() []string {
	return []string{c.SSMURLParam, c.SSMUsernameParam, c.SSMPasswordParam}
}

// Address returns the host:port the HTTP server listens on
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
