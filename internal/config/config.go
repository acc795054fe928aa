package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Service holds general service settings
type Service struct {
	Environment string `envconfig:"SERVICE_ENVIRONMENT" required:"true"`
	APIPort     string `envconfig:"SERVICE_API_PORT" default:"8080"`
	Host        string `envconfig:"SERVICE_HOST" default:"localhost:8080"`
	BaseURL     string `envconfig:"SERVICE_BASE_URL" default:"http://localhost:8080"`
}

// MySQL holds database connection settings
type MySQL struct {
	Host            string `envconfig:"MYSQL_HOST" required:"true"`
	Port            string `envconfig:"MYSQL_PORT" default:"3306"`
	User            string `envconfig:"MYSQL_USER" required:"true"`
	Password        string `envconfig:"MYSQL_PASSWORD" default:""`
	Database        string `envconfig:"MYSQL_DB" required:"true"`
	MaxOpenConns    int    `envconfig:"MYSQL_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int    `envconfig:"MYSQL_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime int    `envconfig:"MYSQL_CONN_MAX_LIFETIME_SEC" default:"3600"`
}

// WhatsApp holds settings for the outbound WhatsApp link
type WhatsApp struct {
	BaseURL string `envconfig:"WHATSAPP_BASE_URL" default:"https://wa.me"`
}

// Kommo holds CRM client settings. Custom field IDs map UTM parameters to
// Kommo lead custom fields; a zero ID disables that field.
type Kommo struct {
	Domain           string `envconfig:"KOMMO_DOMAIN"`
	AccessToken      string `envconfig:"KOMMO_ACCESS_TOKEN"`
	TimeoutSec       int    `envconfig:"KOMMO_TIMEOUT_SEC" default:"10"`
	MaxRetries       int    `envconfig:"KOMMO_MAX_RETRIES" default:"3"`
	RetryDelayMs     int    `envconfig:"KOMMO_RETRY_DELAY_MS" default:"1000"`
	FieldUTMSource   int    `envconfig:"KOMMO_FIELD_UTM_SOURCE"`
	FieldUTMMedium   int    `envconfig:"KOMMO_FIELD_UTM_MEDIUM"`
	FieldUTMCampaign int    `envconfig:"KOMMO_FIELD_UTM_CAMPAIGN"`
	FieldUTMContent  int    `envconfig:"KOMMO_FIELD_UTM_CONTENT"`
	FieldUTMTerm     int    `envconfig:"KOMMO_FIELD_UTM_TERM"`
	FieldFBClid      int    `envconfig:"KOMMO_FIELD_FBCLID"`
}

// Dedup holds the deduplication policy. A zero window disables that strategy.
type Dedup struct {
	SameSubjectWindowSec   int  `envconfig:"DEDUP_SAME_SUBJECT_WINDOW_SEC" default:"60"`
	SameCallerWindowSec    int  `envconfig:"DEDUP_SAME_CALLER_WINDOW_SEC" default:"300"`
	ClickTokenUnique       bool `envconfig:"DEDUP_CLICK_TOKEN_UNIQUE" default:"true"`
	RecentSuccessWindowSec int  `envconfig:"DEDUP_RECENT_SUCCESS_WINDOW_SEC" default:"86400"`
	RecordDuplicates       bool `envconfig:"DEDUP_RECORD_DUPLICATES" default:"false"`
}

// Webhook holds reconciliation settings for inbound Kommo webhooks
type Webhook struct {
	LookbackWindowSec int `envconfig:"WEBHOOK_LOOKBACK_WINDOW_SEC" default:"900"`
}

// Probe holds automated-traffic classification settings
type Probe struct {
	MetaIPPrefixes []string `envconfig:"META_IP_PREFIXES" default:"173.252.,69.171.,31.13.,66.220.,157.240.,204.15.,69.63."`
}

// Config is the full service configuration loaded from the environment
type Config struct {
	Service  Service
	MySQL    MySQL
	WhatsApp WhatsApp
	Kommo    Kommo
	Dedup    Dedup
	Webhook  Webhook
	Probe    Probe
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

// SameSubjectWindow returns the same-subject dedup window as a duration
func (d Dedup) SameSubjectWindow() time.Duration {
	return time.Duration(d.SameSubjectWindowSec) * time.Second
}

// SameCallerWindow returns the same-caller dedup window as a duration
func (d Dedup) SameCallerWindow() time.Duration {
	return time.Duration(d.SameCallerWindowSec) * time.Second
}

// RecentSuccessWindow returns the recent-success window as a duration
func (d Dedup) RecentSuccessWindow() time.Duration {
	return time.Duration(d.RecentSuccessWindowSec) * time.Second
}

// LookbackWindow returns the webhook reconciliation lookback as a duration
func (w Webhook) LookbackWindow() time.Duration {
	return time.Duration(w.LookbackWindowSec) * time.Second
}
