package config

import (
	"os"
	"strconv"
	"strings"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	ApplicationName    string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Blob backends.
const (
	BlobBackendSite  = "site"
	BlobBackendMinIO = "minio"
)

// ExtractConfig controls where uploaded files live and how content is extracted from them.
type ExtractConfig struct {
	// SiteRoot is the site directory holding public/files and private/files.
	SiteRoot string
	// BlobBackend selects the blob store: "site" (local disk) or "minio".
	BlobBackend string
	// DocTextTool is an optional external command for legacy .doc files (e.g. "antiword").
	// Empty means the built-in OLE2 reader.
	DocTextTool string
	// PDFTextTool is an optional external command for PDF files (e.g. "pdftotext").
	PDFTextTool string
	// DeleteOrphanImages opts into deleting image blobs superseded by a new extraction pass.
	DeleteOrphanImages bool
	// TempDir receives downloaded copies of object-store files during extraction.
	TempDir          string
	PresignExpirySec int
	// ServePrivateFiles mounts GET /private/files/*. Off by default since downloads are not permission checked.
	ServePrivateFiles bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	LogLevel string
	TimeZone string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Extract  ExtractConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		TimeZone: getEnv("TZ", "UTC"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			ApplicationName:    getEnv("DB_APPLICATION_NAME", "doceditor"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Extract: ExtractConfig{
			SiteRoot:           getEnv("SITE_ROOT", "./site"),
			BlobBackend:        strings.ToLower(getEnv("BLOB_BACKEND", BlobBackendSite)),
			DocTextTool:        getEnv("DOC_TEXT_TOOL", ""),
			PDFTextTool:        getEnv("PDF_TEXT_TOOL", ""),
			DeleteOrphanImages: getEnvBool("DELETE_ORPHAN_IMAGES", false),
			TempDir:            getEnv("EXTRACT_TEMP_DIR", os.TempDir()),
			PresignExpirySec:   getEnvInt("PRESIGN_EXPIRY_SEC", 900),
			ServePrivateFiles:  getEnvBool("SERVE_PRIVATE_FILES", false),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
