package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/talentcheck/internal/common"
	"github.com/ternarybob/talentcheck/internal/fixtures"
	"github.com/ternarybob/talentcheck/internal/harness"
	"github.com/ternarybob/talentcheck/internal/httpclient"
)

func main() {
	flags := harness.RegisterFlags(flag.CommandLine)
	outputDir := flag.String("output", filepath.Join("test", "results"), "directory for per-run logs")
	pkg := flag.String("pkg", "./test/ui", "package holding the end-to-end suite")
	run := flag.String("run", "", "only run tests matching this pattern")
	skipReachability := flag.Bool("skip-reachability", false, "do not check the application is reachable before running")
	flag.Parse()

	common.PrintBanner(common.GetVersion())

	config, err := flags.LoadConfig()
	if err != nil {
		fmt.Printf("ERROR: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	defer common.RecoverWithCrashFile(config.Logging.Dir)

	logs := common.NewLoggerFactory(config.Logging)
	logger := logs.For("Runner")

	fmt.Printf("Configuration:\n")
	fmt.Printf("  Base URL:      %s\n", config.App.BaseURL)
	fmt.Printf("  Video policy:  %s\n", config.VideoPolicy())
	fmt.Printf("  Report dir:    %s\n", valueOr(config.Artifacts.ReportDir, "(none)"))
	fmt.Printf("  Job document:  %s\n", config.Fixtures.JobFile)
	fmt.Printf("  Log file:      %s\n\n", valueOr(logs.LogFilePath(), "(console only)"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Step 1: fixtures
	fmt.Println("STEP 1: Preparing fixtures...")
	fmt.Println(strings.Repeat("-", 80))
	info, err := fixtures.EnsureJobFile(config.Fixtures.JobFile, fixtures.SampleJob(), logs.For("Fixtures"))
	if err != nil {
		logger.Error().Err(err).Str("path", config.Fixtures.JobFile).Msg("Job document unusable")
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Job document ready (%d page(s), %d bytes)\n\n", info.Pages, info.Size)

	// Step 2: reachability
	fmt.Println("STEP 2: Checking application...")
	fmt.Println(strings.Repeat("-", 80))
	if *skipReachability {
		fmt.Print("✓ Skipped\n\n")
	} else if err := httpclient.WaitForLogin(ctx, config.App.BaseURL, 15*time.Second); err != nil {
		logger.Warn().Err(err).Str("base_url", config.App.BaseURL).Msg("Application not reachable")
		fmt.Printf("WARNING: %v\n", err)
		fmt.Print("Continuing; tests will fail at login\n\n")
	} else {
		fmt.Printf("✓ %s reachable\n\n", config.App.BaseURL)
	}

	// Step 3: tests
	fmt.Println("STEP 3: Running tests...")
	fmt.Println(strings.Repeat("-", 80))

	effective, err := absolutePaths(*config)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
	configPath, err := writeEffectiveConfig(*outputDir, &effective)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}

	suites := []TestSuite{{
		Name:    "UI Tests",
		Command: GoTestCommand(*pkg, *run, configPath, &effective),
	}}

	results := make([]TestResult, 0, len(suites))
	allPassed := true
	for _, suite := range suites {
		fmt.Printf("Running %s...\n", suite.Name)
		fmt.Printf("  %s\n", strings.Join(suite.Command, " "))

		result := runTestSuite(ctx, suite, *outputDir)
		results = append(results, result)
		logger.Info().
			Str("suite", suite.Name).
			Bool("success", result.Success).
			Str("duration", result.Duration.Round(time.Millisecond).String()).
			Msg("Suite finished")

		if result.Success {
			fmt.Printf("✓ %s PASSED (%.2fs)\n\n", suite.Name, result.Duration.Seconds())
		} else {
			fmt.Printf("✗ %s FAILED (%.2fs)\n\n", suite.Name, result.Duration.Seconds())
			allPassed = false
		}
	}

	printSummary(results, allPassed)
	if dir := effective.Artifacts.ReportDir; dir != "" {
		fmt.Printf("Report: %s\n", filepath.Join(dir, "index.html"))
	}

	if !allPassed {
		os.Exit(1)
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
