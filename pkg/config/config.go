package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	applogger "SalesPulse/pkg/logger"
	"SalesPulse/pkg/queue"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development"`
	Logging     applogger.Config `yaml:"logging"`
	Server      struct {
		Port            int           `yaml:"port" default:"8000"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Forecast struct {
		SourceA           string  `yaml:"source_a" default:"prophet"`
		SourceB           string  `yaml:"source_b" default:"sarima"`
		WeightA           float64 `yaml:"weight_a" default:"0.4"`
		WeightB           float64 `yaml:"weight_b" default:"0.6"`
		CriticalThreshold float64 `yaml:"critical_threshold" default:"2000"`
		ModelVersion      string  `yaml:"model_version" default:"1.0.0"`
	} `yaml:"forecast"`
	Risk struct {
		// HistoricalCutoff is the last day covered by the persisted risk table.
		HistoricalCutoff string `yaml:"historical_cutoff" default:"2018-12-30"`
	} `yaml:"risk"`
	Analytics struct {
		ServiceURL      string        `yaml:"service_url"`
		Timeout         time.Duration `yaml:"timeout" default:"10s"`
		DealClassifier  bool          `yaml:"deal_classifier" default:"true"`
		AnomalyDetector bool          `yaml:"anomaly_detector" default:"true"`
	} `yaml:"analytics"`
	Storage struct {
		Backend    string `yaml:"backend" default:"clickhouse"`
		SeriesCSV  string `yaml:"series_csv" default:"models/historical_sales.csv"`
		RiskCSV    string `yaml:"risk_csv" default:"models/risk_analysis.csv"`
		SalesTable string `yaml:"sales_table" default:"daily_sales"`
		RiskTable  string `yaml:"risk_table" default:"risk_analysis"`
	} `yaml:"storage"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"salespulse"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled          bool     `yaml:"enabled"`
		Brokers          []string `yaml:"brokers"`
		AssessmentTopic  string   `yaml:"assessment_topic" default:"deal-risk-assessments"`
		OpportunityTopic string   `yaml:"opportunity_topic" default:"opportunities-to-score"`
		RequiredAcks     int      `yaml:"required_acks" default:"-1"`
		Compression      string   `yaml:"compression" default:"gzip"`
		Producer         struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			Linger       time.Duration `yaml:"linger" default:"200ms"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"salespulse"`
			Workers    int           `yaml:"workers" default:"1"`
			BufferSize int           `yaml:"buffer_size" default:"16"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"10s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"opportunities-to-score.dlq"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr" default:"localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		CacheTTL time.Duration `yaml:"cache_ttl" default:"10m"`
		Queue    queue.Config  `yaml:"queue"`
	} `yaml:"redis"`
	RateLimit struct {
		Capacity     float64 `yaml:"capacity" default:"10"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"0.2"`
	} `yaml:"rate_limit"`
	Automation struct {
		LockTTL time.Duration `yaml:"lock_ttl" default:"15m"`
	} `yaml:"automation"`
	Salesforce struct {
		Username      string        `yaml:"username"`
		Password      string        `yaml:"password"`
		SecurityToken string        `yaml:"security_token"`
		ClientID      string        `yaml:"client_id"`
		ClientSecret  string        `yaml:"client_secret"`
		Domain        string        `yaml:"domain" default:"login"`
		APIVersion    string        `yaml:"api_version" default:"v59.0"`
		Timeout       time.Duration `yaml:"timeout" default:"30s"`
	} `yaml:"salesforce"`
	LLM struct {
		AnthropicAPIKey    string        `yaml:"anthropic_api_key"`
		AnthropicModel     string        `yaml:"anthropic_model" default:"claude-3-sonnet-20240229"`
		AnthropicMaxTokens int           `yaml:"anthropic_max_tokens" default:"1000"`
		OpenAIAPIKey       string        `yaml:"openai_api_key"`
		OpenAIModel        string        `yaml:"openai_model" default:"gpt-3.5-turbo"`
		OpenAIMaxTokens    int           `yaml:"openai_max_tokens" default:"500"`
		Timeout            time.Duration `yaml:"timeout" default:"60s"`
	} `yaml:"llm"`
	Slack struct {
		BotToken string `yaml:"bot_token"`
		Channel  string `yaml:"channel" default:"#sales-alerts"`
	} `yaml:"slack"`
	Email struct {
		Host             string `yaml:"host" default:"smtp.gmail.com"`
		Port             int    `yaml:"port" default:"465"`
		Address          string `yaml:"address"`
		AppPassword      string `yaml:"app_password"`
		DefaultRecipient string `yaml:"default_recipient"`
	} `yaml:"email"`
}

// Load reads and parses a YAML configuration file. Missing keys take their
// struct tag defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, applies defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides secrets and endpoints
// from environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Environment, "ENVIRONMENT")
	set(&c.Logging.Level, "LOG_LEVEL")
	set(&c.Analytics.ServiceURL, "ANALYTICS_SERVICE_URL")
	set(&c.Storage.Backend, "STORAGE_BACKEND")
	set(&c.ClickHouse.Host, "CLICKHOUSE_HOST")
	set(&c.ClickHouse.User, "CLICKHOUSE_USER")
	set(&c.ClickHouse.Password, "CLICKHOUSE_PASSWORD")
	set(&c.Redis.Addr, "REDIS_ADDR")
	set(&c.Salesforce.Username, "SF_USERNAME")
	set(&c.Salesforce.Password, "SF_PASSWORD")
	set(&c.Salesforce.SecurityToken, "SF_SECURITY_TOKEN")
	set(&c.Salesforce.ClientID, "SF_CLIENT_ID")
	set(&c.Salesforce.ClientSecret, "SF_CLIENT_SECRET")
	set(&c.Salesforce.Domain, "SF_DOMAIN")
	set(&c.LLM.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	set(&c.LLM.OpenAIAPIKey, "OPENAI_API_KEY")
	set(&c.Slack.BotToken, "SLACK_BOT_TOKEN")
	set(&c.Slack.Channel, "SLACK_CHANNEL")
	set(&c.Email.Address, "GMAIL_ADDRESS")
	set(&c.Email.AppPassword, "GMAIL_APP_PASSWORD")

	if v := getenv("API_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	w := c.Forecast
	if w.WeightA < 0 || w.WeightA > 1 || w.WeightB < 0 || w.WeightB > 1 {
		return fmt.Errorf("forecast weights must be within [0,1]")
	}
	if math.Abs(w.WeightA+w.WeightB-1) > 1e-6 {
		return fmt.Errorf("forecast weights must sum to 1, got %.4f", w.WeightA+w.WeightB)
	}
	if _, err := time.Parse("2006-01-02", c.Risk.HistoricalCutoff); err != nil {
		return fmt.Errorf("risk.historical_cutoff must be YYYY-MM-DD: %w", err)
	}
	if c.Analytics.ServiceURL == "" {
		return fmt.Errorf("analytics.service_url is required")
	}
	switch c.Storage.Backend {
	case "clickhouse", "csv":
	default:
		return fmt.Errorf("storage.backend must be 'clickhouse' or 'csv', got '%s'", c.Storage.Backend)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}

// Cutoff returns the parsed historical cutoff date.
func (c *Config) Cutoff() time.Time {
	t, _ := time.Parse("2006-01-02", c.Risk.HistoricalCutoff)
	return t
}

// SalesforceConfigured reports whether CRM credentials are present.
func (c *Config) SalesforceConfigured() bool {
	s := c.Salesforce
	return s.Username != "" && s.Password != "" && s.ClientID != "" && s.ClientSecret != ""
}
