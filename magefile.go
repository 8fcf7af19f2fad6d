//go:build mage
// +build mage

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default is the default build target.
var Default = Build

// All cleans output, builds, tests, and lints.
func All(ctx context.Context) error {
	type target func(context.Context) error

	targets := []target{
		Clean,
		Build,
		Test,
		Lint,
		LintFix,
	}

	for _, t := range targets {
		if err := t(ctx); err != nil {
			return err
		}
	}

	return nil
}

// Build builds the test runner and its remote-execution helper.
func Build(ctx context.Context) error {
	ldflags, err := getLdflags()
	if err != nil {
		return err
	}

	cgoDisabled := os.Getenv("CGO_ENABLED") == "0"

	for _, pkg := range []string{"./cmd/testrunner", "./cmd/bridgehelper"} {
		args := []string{"build", "-ldflags", ldflags}
		if cgoDisabled {
			args = append(args, "-a")
		}
		args = append(args, pkg)

		if err := sh.RunV("go", args...); err != nil {
			return err
		}
	}

	return nil
}

// Clean removes any generated artifacts from the repository.
func Clean(ctx context.Context) error {
	if err := sh.Rm("./testrunner"); err != nil {
		return err
	}
	return sh.Rm("./bridgehelper")
}

// Lint runs the linter & performs static-analysis checks.
func Lint(ctx context.Context) error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Applies lint checks and fixes any issues.
func LintFix(ctx context.Context) error {
	if err := sh.RunV("golangci-lint", "run", "--fix", "./..."); err != nil {
		return err
	}

	if err := sh.RunV("go", "mod", "tidy"); err != nil {
		return err
	}

	return nil
}

func UnitTest(ctx context.Context) error {
	return (makeTestTask("./internal/...", "./cmd/..."))(ctx)
}

func Test(ctx context.Context) error {
	mg.Deps(UnitTest)
	return nil
}

func makeTestTask(args ...string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ldflags, err := getLdflags()
		if err != nil {
			return err
		}

		testArgs := []string{"test", "-ldflags", ldflags}

		testArgs = append(testArgs, "-parallel", "4")

		if report := os.Getenv("REPORT"); report != "" {
			testArgs = append(testArgs, "-v")
		}

		testArgs = append(testArgs, args...)

		return sh.RunV("go", testArgs...)
	}
}

func getLdflags() (string, error) {
	if ldflags := os.Getenv("LDFLAGS"); ldflags != "" {
		return ldflags, nil
	}

	sha, err := exec.Command("git", "rev-parse", "HEAD").Output()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("-X main.Version=git-%v", string(sha)), nil
}
