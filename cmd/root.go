package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SuttArt/Dateiwiederherstellung/internal/config"
	"github.com/SuttArt/Dateiwiederherstellung/internal/logger"
)

var cfgFile string

// rootCmd represents the base CLI command. Invoked without a subcommand
// it behaves like the classic call: recover from the given (or default)
// image into the given (or default) output directory.
var rootCmd = &cobra.Command{
	Use:   "ext2recover [image] [output-dir]",
	Short: "Recover deleted JPEG files from ext2 images",
	Long: `ext2recover reads the metadata of an ext2 filesystem image
(superblock, block group descriptors, inode tables, block bitmaps),
derives which blocks are unallocated and carves JPEG files out of them.

Recovery never follows directory entries or inode block pointers, so it
also finds pictures whose inodes were cleared by deletion.`,
	Args: cobra.MaximumNArgs(2),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// CLI flags can override config settings
		debug, _ := cmd.Flags().GetBool("debug")
		logFormat, _ := cmd.Flags().GetString("log-format")

		// If CLI flags were explicitly provided, update the global config
		if cmd.Flags().Changed("debug") {
			config.Instance.Debug = debug
		}

		if cmd.Flags().Changed("log-format") {
			config.Instance.LogFormat = logFormat
		}

		// If config file was explicitly specified via flag, reinitialize
		if cmd.Flags().Changed("config") && cfgFile != "" {
			// Only log an error, don't exit, as the config may still be usable
			if err := config.Initialize(cfgFile); err != nil {
				logger.LogError("Error loading config file", err, map[string]interface{}{
					"config_file": cfgFile,
				})
			}
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		runRecover(args)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.LogError("Command execution failed", err, nil)
		// Let Cobra handle the exit
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is search in standard locations)")

	// Debug flag
	rootCmd.PersistentFlags().Bool("debug", config.Instance.Debug, "Enable debug logging")

	// Log format flag
	rootCmd.PersistentFlags().String("log-format", config.Instance.LogFormat, "Log format: json or human")

	// Bind flags to viper settings
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Add version command
	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows the application version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ext2recover v0.1.0")
	},
}
