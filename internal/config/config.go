package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ConfigName is the file Load looks for in the config directory.
const ConfigName = "combatlog.cfg.json"

// ParserConfig holds line decoding settings
type ParserConfig struct {
	Year                   int     `json:"year" mapstructure:"year"`
	DecodeFailureThreshold float64 `json:"decodeFailureThreshold" mapstructure:"decodeFailureThreshold"`
	MaxDiagnostics         int     `json:"maxDiagnostics" mapstructure:"maxDiagnostics"`
	NamesFile              string  `json:"namesFile" mapstructure:"namesFile"`
}

// FightConfig holds fight segmentation settings
type FightConfig struct {
	ImplicitOpen bool          `json:"implicitOpen" mapstructure:"implicitOpen"`
	IdleGap      time.Duration `json:"idleGap" mapstructure:"idleGap"`
	IdleTimeout  time.Duration `json:"idleTimeout" mapstructure:"idleTimeout"`
}

// MemoryConfig holds file output settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
	Format         string `json:"format" mapstructure:"format"`
}

// SQLiteConfig holds sqlite storage settings
type SQLiteConfig struct {
	Path     string `json:"path" mapstructure:"path"`
	DumpPath string `json:"dumpPath" mapstructure:"dumpPath"`
}

// PostgresConfig holds postgres connection settings
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// StorageConfig selects and configures the snapshot backend
type StorageConfig struct {
	Type     string         `json:"type" mapstructure:"type"`
	Memory   MemoryConfig   `json:"memory" mapstructure:"memory"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
}

// InfluxConfig holds InfluxDB settings
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// APIConfig holds web frontend upload settings
type APIConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	ServerURL string `json:"serverUrl" mapstructure:"serverUrl"`
	APIKey    string `json:"apiKey" mapstructure:"apiKey"`
	Tag       string `json:"tag" mapstructure:"tag"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. With an empty
// configDir a missing file is not an error and defaults apply.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./combatlogs")

	viper.SetDefault("parser.year", 0)
	viper.SetDefault("parser.decodeFailureThreshold", 0.3)
	viper.SetDefault("parser.maxDiagnostics", 100)

	viper.SetDefault("fight.implicitOpen", false)
	viper.SetDefault("fight.idleGap", "5s")
	viper.SetDefault("fight.idleTimeout", "60s")

	viper.SetDefault("names.file", "")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./snapshots")
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.memory.format", "json")
	viper.SetDefault("storage.sqlite.path", "combatlog.db")
	viper.SetDefault("storage.sqlite.dumpPath", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "combatlog")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "combatlog")
	viper.SetDefault("influx.bucket", "combatlog")

	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")
	viper.SetDefault("api.tag", "")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "combatlog")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName(ConfigName)
	viper.SetConfigType("json")
	if configDir == "" {
		viper.AddConfigPath(".")
	} else {
		viper.AddConfigPath(configDir)
	}

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configDir == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetParserConfig returns the parser settings.
func GetParserConfig() ParserConfig {
	return ParserConfig{
		Year:                   viper.GetInt("parser.year"),
		DecodeFailureThreshold: viper.GetFloat64("parser.decodeFailureThreshold"),
		MaxDiagnostics:         viper.GetInt("parser.maxDiagnostics"),
		NamesFile:              viper.GetString("names.file"),
	}
}

// GetFightConfig returns the fight segmentation settings.
func GetFightConfig() FightConfig {
	return FightConfig{
		ImplicitOpen: viper.GetBool("fight.implicitOpen"),
		IdleGap:      viper.GetDuration("fight.idleGap"),
		IdleTimeout:  viper.GetDuration("fight.idleTimeout"),
	}
}

// GetStorageConfig returns the snapshot backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
			Format:         viper.GetString("storage.memory.format"),
		},
		SQLite: SQLiteConfig{
			Path:     viper.GetString("storage.sqlite.path"),
			DumpPath: viper.GetString("storage.sqlite.dumpPath"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetAPIConfig returns the upload settings.
func GetAPIConfig() APIConfig {
	return APIConfig{
		Enabled:   viper.GetBool("api.enabled"),
		ServerURL: viper.GetString("api.serverUrl"),
		APIKey:    viper.GetString("api.apiKey"),
		Tag:       viper.GetString("api.tag"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
