package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/SuttArt/Dateiwiederherstellung/internal/fsutil"
)

const (
	// AppName is the application name used for config files and directories
	AppName = "ext2recover"

	// EnvPrefix is the prefix for environment variables
	EnvPrefix = "EXT2RECOVER"
)

// AppConfig holds the application configuration
type AppConfig struct {
	// Core settings
	Debug     bool   `mapstructure:"debug"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	// Recovery settings
	Recovery struct {
		Image          string `mapstructure:"image"`           // Image to carve
		OutputDir      string `mapstructure:"output_dir"`      // Where recovered files land
		ManifestFormat string `mapstructure:"manifest_format"` // json, plist or none
		KeyFile        string `mapstructure:"key_file"`        // Raw AES-XTS key for encrypted images
		SectorSize     int    `mapstructure:"sector_size"`     // XTS sector size in bytes
	} `mapstructure:"recovery"`

	// Scan settings
	Scan struct {
		VirusTotalAPIKey string `mapstructure:"virustotal_api_key"`
	} `mapstructure:"scan"`
}

// Global variables
var (
	// Global configuration instance
	Instance AppConfig

	// Status indicators
	ConfigLoaded bool
	ConfigFile   string

	// Viper instance
	v *viper.Viper

	// Ensure thread safety
	initOnce sync.Once
)

// Initialize sets up the configuration system
func Initialize(cfgFile string) error {
	var err error

	initOnce.Do(func() {
		// Create a new viper instance
		v = viper.New()

		// Set default values
		setDefaults(v)

		// Load configuration from file if specified
		if cfgFile != "" {
			v.SetConfigFile(cfgFile)
		} else {
			// Set config name and type
			v.SetConfigName(AppName)
			v.SetConfigType("yaml")

			// Add default search paths
			addSearchPaths(v)
		}

		// Set up environment variables
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		v.AutomaticEnv()

		// Read configuration file
		if readErr := v.ReadInConfig(); readErr != nil {
			if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
				// Only capture error if the config file was found but couldn't be read
				err = fmt.Errorf("error reading config file: %w", readErr)
			}
			// Config file not found, using defaults and environment variables
			ConfigLoaded = false
			ConfigFile = ""
		} else {
			ConfigLoaded = true
			ConfigFile = v.ConfigFileUsed()
		}

		// Unmarshal config into struct
		if unmarshalErr := v.Unmarshal(&Instance); unmarshalErr != nil {
			err = fmt.Errorf("error parsing config: %w", unmarshalErr)
			return
		}

		// Ensure required directories exist
		ensureDirectories()
	})

	return err
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Core settings
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "human")

	// Set default log file based on OS
	logDir, err := fsutil.GetLogDir(AppName)
	if err == nil {
		v.SetDefault("log_file", filepath.Join(logDir, "ext2recover.log"))
	} else {
		v.SetDefault("log_file", "logs/ext2recover.log")
	}

	// Recovery defaults
	v.SetDefault("recovery.image", "examples/small.img")
	v.SetDefault("recovery.output_dir", "restored")
	v.SetDefault("recovery.manifest_format", "json")
	v.SetDefault("recovery.key_file", "")
	v.SetDefault("recovery.sector_size", 512)

	// Scan defaults
	v.SetDefault("scan.virustotal_api_key", "")
}

// addSearchPaths adds config search paths
func addSearchPaths(v *viper.Viper) {
	// Always check current directory first
	v.AddConfigPath(".")

	// Check for CI/Pipeline environment
	if isRunningInPipeline() {
		// In CI/Pipeline, only use current directory and explicit CI directories
		v.AddConfigPath("/etc/" + AppName)
		return
	}

	// Standard operation - add user config directory
	configDir, err := fsutil.GetConfigDir(AppName)
	if err == nil {
		v.AddConfigPath(configDir)
	}

	// Add system-wide config directory
	v.AddConfigPath("/etc/" + AppName)
}

// ensureDirectories creates necessary directories based on configuration
func ensureDirectories() {
	// Don't create directories in a pipeline environment unless explicitly requested
	if isRunningInPipeline() && os.Getenv("CREATE_DIRS") != "true" {
		return
	}

	// Create log directory
	if Instance.LogFile != "" {
		logDir := filepath.Dir(Instance.LogFile)
		_ = fsutil.CreateDirIfNotExists(logDir)
	}
}

// isRunningInPipeline returns true if running in a CI/CD pipeline environment
func isRunningInPipeline() bool {
	return os.Getenv("CI") == "true" ||
		os.Getenv("PIPELINE") == "true" ||
		os.Getenv("GITHUB_ACTIONS") == "true" ||
		os.Getenv("JENKINS_URL") != ""
}
