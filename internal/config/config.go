package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/banking/aml-compliance/internal/domain"
)

// Config holds all configuration for the AML/BSA compliance service
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Elasticsearch ElasticsearchConfig
	Kafka         KafkaConfig
	S3            S3Config
	Encryption    EncryptionConfig
	Auth          AuthConfig
	Logging       LoggingConfig
	Compliance    ComplianceConfig
	Detection     DetectionConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Enabled         bool          `mapstructure:"enabled"` // memory store when false
}

// DSN returns the database connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// ElasticsearchConfig holds Elasticsearch configuration
type ElasticsearchConfig struct {
	Addresses      []string `mapstructure:"addresses"`
	Username       string   `mapstructure:"username"`
	Password       string   `mapstructure:"password"`
	SARIndex       string   `mapstructure:"sar_index"`
	ScreeningIndex string   `mapstructure:"screening_index"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers          []string `mapstructure:"brokers"`
	ConsumerGroup    string   `mapstructure:"consumer_group"`
	TransactionTopic string   `mapstructure:"transaction_topic"`
	CustomerTopic    string   `mapstructure:"customer_topic"`
}

// S3Config holds AWS S3 configuration for report archival
type S3Config struct {
	Region        string `mapstructure:"region"`
	ReportsBucket string `mapstructure:"reports_bucket"`
	Endpoint      string `mapstructure:"endpoint"` // For local testing with MinIO
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	UseSSL        bool   `mapstructure:"use_ssl"`
}

// EncryptionConfig holds field encryption and record signing settings
type EncryptionConfig struct {
	EncryptionKeysBase64 []string `mapstructure:"keys"`
	CurrentKeyVersion    int      `mapstructure:"current_key_version"`
	RecordHMACSecret     string   `mapstructure:"record_hmac_secret"`
}

// AuthConfig holds authentication settings
type AuthConfig struct {
	JWTPublicKeyPath string `mapstructure:"jwt_public_key_path"`
	JWTIssuer        string `mapstructure:"jwt_issuer"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// ComplianceConfig holds AML/BSA thresholds and deadlines. Amounts are in
// reporting-currency units (dollars), not cents.
type ComplianceConfig struct {
	CTRThreshold                   float64  `mapstructure:"ctr_threshold"`
	SARThreshold                   float64  `mapstructure:"sar_threshold"`
	MultipleTransactionWindowHours int      `mapstructure:"multiple_transaction_window_hours"`
	EnhancedDueDiligenceThreshold  float64  `mapstructure:"enhanced_due_diligence_threshold"`
	BeneficialOwnershipThreshold   float64  `mapstructure:"beneficial_ownership_threshold"`
	SARFilingDeadlineDays          int      `mapstructure:"sar_filing_deadline_days"`
	CTRFilingDeadlineDays          int      `mapstructure:"ctr_filing_deadline_days"`
	RecordRetentionYears           int      `mapstructure:"record_retention_years"`
	HighRiskCountries              []string `mapstructure:"high_risk_countries"`
}

// AggregationWindow returns the CTR rolling window as a duration.
func (c ComplianceConfig) AggregationWindow() time.Duration {
	return time.Duration(c.MultipleTransactionWindowHours) * time.Hour
}

// DetectionConfig holds external adapter settings
type DetectionConfig struct {
	AdapterTimeout  time.Duration `mapstructure:"adapter_timeout"`
	OFACAPIEndpoint string        `mapstructure:"ofac_api_endpoint"`
	PEPAPIEndpoint  string        `mapstructure:"pep_api_endpoint"`
}

// Load loads configuration from environment and config files
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("AML")
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8086)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "aml_compliance_db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.conn_max_idle_time", "5m")
	v.SetDefault("database.enabled", false)

	// Elasticsearch
	v.SetDefault("elasticsearch.addresses", []string{"http://localhost:9200"})
	v.SetDefault("elasticsearch.username", "elastic")
	v.SetDefault("elasticsearch.password", "changeme")
	v.SetDefault("elasticsearch.sar_index", "sar-reports")
	v.SetDefault("elasticsearch.screening_index", "sanctions-screenings")

	// Kafka
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.consumer_group", "aml-compliance-service")
	v.SetDefault("kafka.transaction_topic", "banking.transactions")
	v.SetDefault("kafka.customer_topic", "banking.customers")

	// S3
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.reports_bucket", "banking-aml-reports")
	v.SetDefault("s3.use_ssl", true)

	// Encryption
	v.SetDefault("encryption.current_key_version", 1)

	// Auth
	v.SetDefault("auth.jwt_public_key_path", "./keys/jwt_public.pem")
	v.SetDefault("auth.jwt_issuer", "banking-auth-service")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "stdout")

	// Compliance (31 CFR thresholds)
	v.SetDefault("compliance.ctr_threshold", 10000.0)
	v.SetDefault("compliance.sar_threshold", 5000.0)
	v.SetDefault("compliance.multiple_transaction_window_hours", 24)
	v.SetDefault("compliance.enhanced_due_diligence_threshold", 25000.0)
	v.SetDefault("compliance.beneficial_ownership_threshold", 0.25)
	v.SetDefault("compliance.sar_filing_deadline_days", int(domain.FilingDeadlines["SAR"].Hours()/24))
	v.SetDefault("compliance.ctr_filing_deadline_days", int(domain.FilingDeadlines["CTR"].Hours()/24))
	v.SetDefault("compliance.record_retention_years", 5)
	v.SetDefault("compliance.high_risk_countries", []string{"IR", "KP", "SY", "CU"})

	// Detection
	v.SetDefault("detection.adapter_timeout", "5s")
	v.SetDefault("detection.ofac_api_endpoint", "")
	v.SetDefault("detection.pep_api_endpoint", "")
}
