package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const (
	BackendAirtable   = "airtable"
	BackendSQLite     = "sqlite"
	BackendCloudinary = "cloudinary"
	BackendLocal      = "local"
)

type Config struct {
	ListenAddr   string
	LogLevel     string
	LogFile      string
	StoreBackend string
	DBPath       string
	PhotoBackend string
	PhotoPath    string
	LogoPath     string
	Airtable     AirtableConfig
	Cloudinary   CloudinaryConfig
}

type AirtableConfig struct {
	APIURL           string
	APIKey           string
	BaseID           string
	TableReports     string
	TableSupervisors string
	TableProjects    string
}

type CloudinaryConfig struct {
	APIURL       string
	DeliveryURL  string
	CloudName    string
	UploadPreset string
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory if one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr:   getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFile:      getEnv("LOG_FILE", ""),
		StoreBackend: getEnv("STORE_BACKEND", BackendAirtable),
		DBPath:       getEnv("DB_PATH", "/data/bitacora.db"),
		PhotoBackend: getEnv("PHOTO_BACKEND", BackendCloudinary),
		PhotoPath:    getEnv("PHOTO_LOCAL_PATH", "/data/fotos"),
		LogoPath:     getEnv("LOGO_PATH", ""),
		Airtable: AirtableConfig{
			APIURL:           getEnv("AIRTABLE_API_URL", "https://api.airtable.com/v0"),
			APIKey:           getEnv("AIRTABLE_API_KEY", ""),
			BaseID:           getEnv("AIRTABLE_BASE_ID", ""),
			TableReports:     getEnv("AIRTABLE_TABLE_REPORTES", "Reportes Diarios"),
			TableSupervisors: getEnv("AIRTABLE_TABLE_SUPERVISORES", "Supervisores"),
			TableProjects:    getEnv("AIRTABLE_TABLE_PROYECTOS", "Proyectos"),
		},
		Cloudinary: CloudinaryConfig{
			APIURL:       getEnv("CLOUDINARY_API_URL", "https://api.cloudinary.com/v1_1"),
			DeliveryURL:  getEnv("CLOUDINARY_DELIVERY_URL", "https://res.cloudinary.com"),
			CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
			UploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", ""),
		},
	}
}

// Validate reports every required setting that is missing for the selected
// backends.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case BackendAirtable:
		if c.Airtable.APIKey == "" {
			errs = append(errs, errors.New("AIRTABLE_API_KEY is required"))
		}
		if c.Airtable.BaseID == "" {
			errs = append(errs, errors.New("AIRTABLE_BASE_ID is required"))
		}
	case BackendSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	switch c.PhotoBackend {
	case BackendCloudinary:
		if c.Cloudinary.CloudName == "" {
			errs = append(errs, errors.New("CLOUDINARY_CLOUD_NAME is required"))
		}
		if c.Cloudinary.UploadPreset == "" {
			errs = append(errs, errors.New("CLOUDINARY_UPLOAD_PRESET is required"))
		}
	case BackendLocal:
		if c.PhotoPath == "" {
			errs = append(errs, errors.New("PHOTO_LOCAL_PATH is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PHOTO_BACKEND %q", c.PhotoBackend))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
