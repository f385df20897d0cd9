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
	OpenDataBaseURL            string
	OpenDataPackageID          string
	OpenDataUserAgent          string
	OpenDataMetadataTimeoutSec int
	OpenDataDownloadTimeoutSec int

	HighSchoolOutput     string
	CourseProviderOutput string
	XLSXOutput           string
	DBPath               string

	LogLevel string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		OpenDataBaseURL:            getEnv("OPENDATA_BASE_URL", "https://data.ontario.ca"),
		OpenDataPackageID:          getEnv("OPENDATA_PACKAGE_ID", "ontario-public-school-contact-information"),
		OpenDataUserAgent:          getEnv("OPENDATA_USER_AGENT", "student-management-platform/1.0"),
		OpenDataMetadataTimeoutSec: getEnvInt("OPENDATA_METADATA_TIMEOUT_SEC", 60),
		OpenDataDownloadTimeoutSec: getEnvInt("OPENDATA_DOWNLOAD_TIMEOUT_SEC", 120),

		HighSchoolOutput:     getEnv("HIGH_SCHOOL_OUTPUT", filepath.Join("src", "main", "resources", "canadian-high-schools.seed.csv")),
		CourseProviderOutput: getEnv("COURSE_PROVIDER_OUTPUT", filepath.Join("src", "main", "resources", "ontario-course-providers.seed.csv")),
		XLSXOutput:           getEnv("SEED_XLSX_OUTPUT", ""),
		DBPath:               getEnv("SEED_DB_PATH", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.OpenDataMetadataTimeoutSec <= 0 || cfg.OpenDataDownloadTimeoutSec <= 0 {
		return Config{}, fmt.Errorf("opendata timeouts must be positive")
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
