package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phaseq/mwtest/internal/appconfig"
)

var (
	buildRoot         string
	testcasesRoot     string
	outputDir         string
	configDir         string
	configFallbackDir string
	propertiesName    string
	layoutName        string
	presetName        string
	localOverridePath string
	verboseLogging    bool

	logger *zap.SugaredLogger
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:           "testrunner",
	Short:         "Discovers and runs tests for a multi-application native codebase",
	Version:       Version,
	SilenceErrors: false,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var zapConfig zap.Config
		if verboseLogging {
			zapConfig = zap.NewDevelopmentConfig()
		} else {
			zapConfig = zap.NewProductionConfig()
			zapConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		}
		l, err := zapConfig.Build()
		if err != nil {
			return errors.Wrap(err, "unable to initialize logger")
		}
		logger = l.Sugar()

		if buildRoot == "" {
			return errors.New("--build-root is required")
		}
		if testcasesRoot == "" {
			return errors.New("--testcases-root is required")
		}
		if configDir == "" {
			configDir = filepath.Join(buildRoot, "config")
		}
		if outputDir == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return errors.Wrap(err, "unable to determine working directory")
			}
			outputDir = filepath.Join(cwd, "test_output")
		}
		if localOverridePath == "" {
			localOverridePath = filepath.Join(configDir, "local.yaml")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&buildRoot, "build-root", "", "root of the built application tree (exe/dll paths resolve against this)")
	rootCmd.PersistentFlags().StringVar(&testcasesRoot, "testcases-root", "", "root directory test cases are discovered under")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "directory results and scratch directories are written to (default: ./test_output)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "primary directory holding apps/layout/preset JSON files (default: <build-root>/config)")
	rootCmd.PersistentFlags().StringVar(&configFallbackDir, "config-fallback-dir", "", "fallback directory searched if a config file isn't found in --config-dir")
	rootCmd.PersistentFlags().StringVar(&propertiesName, "properties", "apps", "name of the app-properties config file (without .json)")
	rootCmd.PersistentFlags().StringVar(&layoutName, "layout", "layout", "name of the build-layout config file (without .json)")
	rootCmd.PersistentFlags().StringVar(&presetName, "preset", "ci", "name of the test-selection preset config file (without .json)")
	rootCmd.PersistentFlags().StringVar(&localOverridePath, "local-override", "", "path to an optional developer-local override file (default: <config-dir>/local.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verboseLogging, "debug", false, "enable debug-level internal logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(appsCmd)
}

// configRoot builds the primary+fallback resolver every subcommand uses to
// locate its three JSON config files.
func configRoot() appconfig.Root {
	return appconfig.Root{Primary: configDir, Fallback: configFallbackDir}
}
