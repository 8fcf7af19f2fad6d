package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/phaseq/mwtest/internal/appconfig"
	"github.com/phaseq/mwtest/internal/report"
	"github.com/phaseq/mwtest/internal/runner"
	"github.com/phaseq/mwtest/internal/scheduler"
)

var (
	runFilter        []string
	runID            string
	runVerbose       bool
	runParallel      bool
	runXGE           bool
	runRepeat        int
	runRerunIfFailed int
	runHelperPath    string
)

var runCmd = &cobra.Command{
	Use:   "run [apps...]",
	Short: "Run tests for one or more registered applications",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		apps, preset, err := loadConfig()
		if err != nil {
			return err
		}

		appNames, err := resolveAppNames(apps, args)
		if err != nil {
			return err
		}

		override, err := appconfig.LoadLocalOverride(localOverridePath)
		if err != nil {
			return err
		}
		rerunOverrides := override.Apply(preset)
		rerunIfFailed := runRerunIfFailed
		if len(appNames) == 1 {
			if override, ok := rerunOverrides[appNames[0]]; ok {
				rerunIfFailed = override
			}
		}

		selected, err := selectTests(apps, preset, appNames, idFilter(runFilter, runID))
		if err != nil {
			return err
		}
		if len(selected) == 0 {
			logger.Warnw("no tests selected", "apps", appNames)
			return nil
		}

		if err := prepareOutputDir(outputDir); err != nil {
			return err
		}
		tmpRoot := filepath.Join(outputDir, "tmp")
		if err := os.MkdirAll(tmpRoot, 0o755); err != nil {
			return errors.Wrap(err, "could not create scratch directory root")
		}

		creators, err := buildCreators(apps, selected, tmpRoot)
		if err != nil {
			return err
		}

		sink := runner.FanOutSink{
			report.NewXMLSink(filepath.Join(outputDir, "results.xml"), testcasesRoot),
			report.NewStdoutSink(os.Stdout, runVerbose),
		}

		config := scheduler.Config{
			Verbose:       runVerbose,
			Parallel:      runParallel,
			XGE:           runXGE,
			Repeat:        runRepeat,
			RerunIfFailed: rerunIfFailed,
			HelperPath:    runHelperPath,
		}

		success := scheduler.Run(context.Background(), creators, sink, config, logger)
		if !success {
			return errors.New("one or more tests failed")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringSliceVarP(&runFilter, "filter", "f", nil, "select ids that contain one of the given substrings")
	runCmd.Flags().StringVar(&runID, "id", "", "select exactly one test id")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "print every test's output, not just failing ones")
	runCmd.Flags().BoolVarP(&runParallel, "parallel", "p", false, "run using the local worker pool only (workers = number of CPUs)")
	runCmd.Flags().BoolVar(&runXGE, "xge", false, "dispatch allow_xge tests through the remote execution bridge")
	runCmd.Flags().IntVar(&runRepeat, "repeat", 1, "number of times to run every selected test")
	runCmd.Flags().IntVar(&runRerunIfFailed, "repeat-if-failed", 0, "number of additional attempts for a test that fails")
	runCmd.Flags().StringVar(&runHelperPath, "xge-helper", "", "path to the remote execution helper binary (required with --xge)")
}

// prepareOutputDir resets or refuses an output directory: an existing
// output directory is only ever wiped if it looks like one this tool
// created (it contains results.xml), so a careless --output-dir never
// destroys an unrelated directory.
func prepareOutputDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "could not stat output directory %q", dir)
	}
	if !info.IsDir() {
		return errors.Errorf("output directory %q exists and is not a directory", dir)
	}
	if _, err := os.Stat(filepath.Join(dir, "results.xml")); err != nil {
		return errors.Errorf("can't reset output directory %q: it doesn't look like it was created by this tool; pick another one or delete it manually", dir)
	}
	return os.RemoveAll(dir)
}
