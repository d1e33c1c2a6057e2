package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type DatabaseConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	Database          string `yaml:"database"`
	Username          string `yaml:"user"`
	Password          string `yaml:"password,omitempty"`
	SSLMode           string `yaml:"sslmode,omitempty"`
	AuthMethod        string `yaml:"auth_method,omitempty"`
	ConnectTimeout    string `yaml:"connect_timeout,omitempty"`
	AWSRegion         string `yaml:"aws_region,omitempty"`
	GoogleInstance    string `yaml:"google_instance,omitempty"`
	AzureTenantID     string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID     string `yaml:"azure_client_id,omitempty"`
	AzureClientSecret string `yaml:"azure_client_secret,omitempty"`
}

type SMTPConfig struct {
	SenderEmail     string   `yaml:"sender_email"`
	Username        string   `yaml:"smtp_username"`
	Password        string   `yaml:"smtp_password"`
	Server          string   `yaml:"smtp_server"`
	Port            int      `yaml:"smtp_port"`
	RecipientEmails []string `yaml:"recipient_emails"`
	TLSMode         string   `yaml:"tls_mode,omitempty"`
}

type S3Config struct {
	BucketName      string `yaml:"bucket_name"`
	FolderPath      string `yaml:"folder_path"`
	AccessKeyID     string `yaml:"aws_access_key_id"`
	SecretAccessKey string `yaml:"aws_secret_access_key"`
	Region          string `yaml:"region_name"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	DisableSSL      bool   `yaml:"disable_ssl,omitempty"`

	// Key presence, independent of value. An empty value is allowed.
	hasAccessKey bool
	hasSecretKey bool
}

// UnmarshalYAML records which credential keys are written in the file.
func (s *S3Config) UnmarshalYAML(value *yaml.Node) error {
	type plain S3Config
	if err := value.Decode((*plain)(s)); err != nil {
		return err
	}
	if value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		switch value.Content[i].Value {
		case "aws_access_key_id":
			s.hasAccessKey = true
		case "aws_secret_access_key":
			s.hasSecretKey = true
		}
	}
	return nil
}

type ReportConfig struct {
	WorkDir string `yaml:"work_dir,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// RunConfig is the whole static configuration of a run.
// It is loaded once and handed to every component explicitly.
type RunConfig struct {
	Database DatabaseConfig `yaml:"database"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	S3       S3Config       `yaml:"s3"`
	Report   ReportConfig   `yaml:"report"`
}

const (
	TLSModeImplicit = "implicit"
	TLSModeSTARTTLS = "starttls"
)

// Load reads the YAML config at path, resolves ${VAR} references against the
// environment (after loading .env if present), applies defaults and validates.
func Load(path string) (*RunConfig, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrConfigNotFound)
		}
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes, resolves, defaults and validates raw YAML.
func Parse(data []byte) (*RunConfig, error) {
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w: %w", err, perfdigest.ErrInvalidConfig)
	}

	cfg.resolveEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *RunConfig) applyDefaults() {
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "prefer"
	}
	if c.SMTP.TLSMode == "" {
		c.SMTP.TLSMode = TLSModeImplicit
	}
	if c.S3.Endpoint == "" {
		c.S3.Endpoint = perfdigest.DefaultS3Endpoint
	}
	if c.Report.WorkDir == "" {
		c.Report.WorkDir = perfdigest.DefaultWorkDir
	}
	if c.Report.Subject == "" {
		c.Report.Subject = perfdigest.DefaultSubject
	}
}

// Validate reports every missing required key at once.
func (c *RunConfig) Validate() error {
	var errs []error
	require := func(ok bool, key string) {
		if !ok {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}

	method, err := perfdigest.ParseAuthMethod(c.Database.AuthMethod)
	if err != nil {
		errs = append(errs, err)
	}

	if method != perfdigest.AuthMethodGoogleIAM {
		require(c.Database.Host != "", "database.host")
		require(c.Database.Port > 0, "database.port")
	} else {
		require(c.Database.GoogleInstance != "", "database.google_instance")
	}
	require(c.Database.Database != "", "database.database")
	require(c.Database.Username != "", "database.user")
	if method == perfdigest.AuthMethodStandard {
		require(c.Database.Password != "", "database.password")
	}
	if method == perfdigest.AuthMethodAWSIAM {
		require(c.Database.AWSRegion != "", "database.aws_region")
	}
	if c.Database.ConnectTimeout != "" {
		if _, err := time.ParseDuration(c.Database.ConnectTimeout); err != nil {
			errs = append(errs, fmt.Errorf("database.connect_timeout: %w", err))
		}
	}

	require(c.SMTP.SenderEmail != "", "smtp.sender_email")
	require(c.SMTP.Username != "", "smtp.smtp_username")
	require(c.SMTP.Password != "", "smtp.smtp_password")
	require(c.SMTP.Server != "", "smtp.smtp_server")
	require(c.SMTP.Port > 0, "smtp.smtp_port")
	require(len(c.SMTP.RecipientEmails) > 0, "smtp.recipient_emails")
	if c.SMTP.TLSMode != TLSModeImplicit && c.SMTP.TLSMode != TLSModeSTARTTLS {
		errs = append(errs, fmt.Errorf("smtp.tls_mode must be %q or %q, got %q", TLSModeImplicit, TLSModeSTARTTLS, c.SMTP.TLSMode))
	}

	require(c.S3.BucketName != "", "s3.bucket_name")
	require(c.S3.FolderPath != "", "s3.folder_path")
	// Both keys must be written; empty values fail each download instead.
	require(c.S3.hasAccessKey, "s3.aws_access_key_id")
	require(c.S3.hasSecretKey, "s3.aws_secret_access_key")
	require(c.S3.Region != "", "s3.region_name")

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", perfdigest.ErrInvalidConfig, errors.Join(errs...))
}

// ConnectionConfig converts the database section for the connectors.
func (c *RunConfig) ConnectionConfig() *perfdigest.ConnectionConfig {
	method, _ := perfdigest.ParseAuthMethod(c.Database.AuthMethod)

	timeout := perfdigest.DefaultConnectTimeout
	if c.Database.ConnectTimeout != "" {
		if d, err := time.ParseDuration(c.Database.ConnectTimeout); err == nil {
			timeout = d
		}
	}

	return &perfdigest.ConnectionConfig{
		Host:              c.Database.Host,
		Port:              c.Database.Port,
		Database:          c.Database.Database,
		Username:          c.Database.Username,
		Password:          c.Database.Password,
		SSLMode:           c.Database.SSLMode,
		AuthMethod:        method,
		AppName:           "perfdigest",
		ConnectTimeout:    timeout,
		AWSRegion:         c.Database.AWSRegion,
		GoogleInstance:    c.Database.GoogleInstance,
		AzureTenantID:     c.Database.AzureTenantID,
		AzureClientID:     c.Database.AzureClientID,
		AzureClientSecret: c.Database.AzureClientSecret,
	}
}

// WorkPath joins name onto the configured work directory.
func (c *RunConfig) WorkPath(name string) string {
	return filepath.Join(c.Report.WorkDir, name)
}

var envRef = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// expandRef replaces a value written exactly as ${NAME}. Anything else,
// including secrets that happen to contain '$', is returned unchanged.
func expandRef(v string) string {
	m := envRef.FindStringSubmatch(v)
	if m == nil {
		return v
	}
	return os.Getenv(m[1])
}

func (c *RunConfig) resolveEnv() {
	for _, p := range []*string{
		&c.Database.Host,
		&c.Database.Database,
		&c.Database.Username,
		&c.Database.Password,
		&c.Database.AzureClientSecret,
		&c.SMTP.SenderEmail,
		&c.SMTP.Username,
		&c.SMTP.Password,
		&c.SMTP.Server,
		&c.S3.BucketName,
		&c.S3.AccessKeyID,
		&c.S3.SecretAccessKey,
	} {
		*p = expandRef(*p)
	}
	for i, r := range c.SMTP.RecipientEmails {
		c.SMTP.RecipientEmails[i] = expandRef(r)
	}
}
