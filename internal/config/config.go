package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath     string
	RawMailDir string
	LogLevel   string
	HTTPAddr   string

	DataBucket        string
	MarkerBucket      string
	AWSRegion         string
	AWSAccessKeyID    string
	AWSSecretKey      string
	AWSSessionToken   string
	S3Endpoint        string
	S3ForcePathStyle  bool
	S3PutRateLimitRPS int
	S3TimeoutMs       int

	AppUsername   string
	AppPassword   string
	SessionSecret string
	SessionTTLMin int

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	MailListenerProvider    string
	MailListenerLabel       string
	MailListenerIntervalSec int
	MailListenerFetchMax    int
	MailListenerBatchSize   int
	MailSubjectKeyword      string

	IntakeMasterDataDACSheet  string
	IntakeMasterDataDBDASheet string
	IntakePlacementDACSheet   string
	IntakePlacementDBDASheet  string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "ledger.db")),
		RawMailDir: getEnv("MAIL_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		HTTPAddr:   getEnv("HTTP_ADDR", ":8501"),

		DataBucket:        getEnv("S3_BUCKET", "placement-trends-data"),
		MarkerBucket:      getEnv("S3_MARKER_BUCKET", "markers-for-batches"),
		AWSRegion:         getEnv("AWS_REGION", ""),
		AWSAccessKeyID:    getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSSessionToken:   getEnv("AWS_SESSION_TOKEN", ""),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3ForcePathStyle:  getEnvBool("S3_FORCE_PATH_STYLE", false),
		S3PutRateLimitRPS: getEnvInt("S3_PUT_RPS", 10),
		S3TimeoutMs:       getEnvInt("S3_TIMEOUT_MS", 30000),

		AppUsername:   getEnv("APP_USERNAME", ""),
		AppPassword:   getEnv("APP_PASSWORD", ""),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTLMin: getEnvInt("SESSION_TTL_MIN", 480),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		MailListenerProvider:    getEnv("MAIL_LISTENER_PROVIDER", "imap"),
		MailListenerLabel:       getEnv("MAIL_LISTENER_LABEL", "INBOX"),
		MailListenerIntervalSec: getEnvInt("MAIL_LISTENER_INTERVAL_SEC", 300),
		MailListenerFetchMax:    getEnvInt("MAIL_LISTENER_FETCH_MAX", 20),
		MailListenerBatchSize:   getEnvInt("MAIL_LISTENER_PROCESS_BATCH", 20),
		MailSubjectKeyword:      getEnv("MAIL_SUBJECT_KEYWORD", ""),

		IntakeMasterDataDACSheet:  getEnv("MASTERDATA_DAC_SHEET", ""),
		IntakeMasterDataDBDASheet: getEnv("MASTERDATA_DBDA_SHEET", ""),
		IntakePlacementDACSheet:   getEnv("PLACEMENT_DAC_SHEET", ""),
		IntakePlacementDBDASheet:  getEnv("PLACEMENT_DBDA_SHEET", ""),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
