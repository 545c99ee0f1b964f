package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/talentcheck/internal/common"
)

// TestSuite is one go test invocation
type TestSuite struct {
	Name    string
	Command []string
}

// TestResult is the outcome of running a suite
type TestResult struct {
	Suite    string
	Success  bool
	Output   string
	Duration time.Duration
}

// GoTestCommand builds the go test command line. Harness flags follow -args
// so they reach the test binary rather than go test.
func GoTestCommand(pkg, run, configPath string, config *common.Config) []string {
	cmd := []string{"go", "test", "-v", "-count=1", "-tags", "e2e", "-timeout", "30m"}
	if run != "" {
		cmd = append(cmd, "-run", run)
	}
	cmd = append(cmd, pkg, "-args",
		"-config", configPath,
		"-video", string(config.VideoPolicy()),
	)
	if config.Artifacts.ReportDir != "" {
		cmd = append(cmd, "-reportdir", config.Artifacts.ReportDir)
	}
	return cmd
}

// writeEffectiveConfig saves the merged configuration so the test binary
// sees exactly what the runner resolved. go test runs inside the package
// directory, so relative paths are made absolute first.
func writeEffectiveConfig(outputDir string, config *common.Config) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	effective, err := absolutePaths(*config)
	if err != nil {
		return "", err
	}
	data, err := toml.Marshal(effective)
	if err != nil {
		return "", fmt.Errorf("failed to encode effective config: %w", err)
	}
	path, err := filepath.Abs(filepath.Join(outputDir, "talentcheck.effective.toml"))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write effective config: %w", err)
	}
	return path, nil
}

func absolutePaths(config common.Config) (common.Config, error) {
	paths := []*string{
		&config.Artifacts.ScreenshotsDir,
		&config.Artifacts.VideosDir,
		&config.Artifacts.SnapshotsDir,
		&config.Artifacts.ReportDir,
		&config.Logging.Dir,
		&config.Fixtures.JobFile,
		&config.CredentialsFile,
	}
	for _, p := range paths {
		if *p == "" || filepath.IsAbs(*p) {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return config, fmt.Errorf("failed to resolve %s: %w", *p, err)
		}
		*p = abs
	}
	return config, nil
}

func runTestSuite(ctx context.Context, suite TestSuite, outputDir string) TestResult {
	startTime := time.Now()
	timestamp := startTime.Format("2006-01-02_15-04-05")

	suiteDir := filepath.Join(outputDir, fmt.Sprintf("%s-%s", sanitizeFilename(suite.Name), timestamp))
	if err := os.MkdirAll(suiteDir, 0755); err != nil {
		fmt.Printf("ERROR: Failed to create suite directory: %v\n", err)
	}

	cmd := exec.CommandContext(ctx, suite.Command[0], suite.Command[1:]...)
	cmd.Dir = "."
	output, err := cmd.CombinedOutput()
	duration := time.Since(startTime)

	if werr := os.WriteFile(filepath.Join(suiteDir, "test.log"), output, 0644); werr != nil {
		fmt.Printf("WARNING: Failed to save test output: %v\n", werr)
	}

	return TestResult{
		Suite:    suite.Name,
		Success:  err == nil,
		Output:   string(output),
		Duration: duration,
	}
}

func printSummary(results []TestResult, allPassed bool) {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("TEST SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	totalDuration := time.Duration(0)
	passed := 0
	failed := 0

	for _, result := range results {
		status := "PASS"
		if !result.Success {
			status = "FAIL"
			failed++
		} else {
			passed++
		}

		fmt.Printf("%-30s %s (%.2fs)\n", result.Suite, status, result.Duration.Seconds())
		totalDuration += result.Duration
	}

	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("Total: %d passed, %d failed (%.2fs)\n", passed, failed, totalDuration.Seconds())

	if allPassed {
		fmt.Println("\n✓ ALL TESTS PASSED")
	} else {
		fmt.Println("\n✗ SOME TESTS FAILED")
	}
}

func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		" ", "_",
		"/", "_",
		"\\", "_",
		":", "_",
	)
	return strings.ToLower(replacer.Replace(name))
}
