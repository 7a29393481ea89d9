package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hdrlab/headstone/internal/analyzer"
	"github.com/hdrlab/headstone/internal/headers"
	"github.com/hdrlab/headstone/internal/models"
	"github.com/hdrlab/headstone/internal/reporter"
	"github.com/hdrlab/headstone/internal/scanner"
	"github.com/hdrlab/headstone/internal/store"
)

const (
	AppName    = "headstone"
	AppVersion = "1.0.0"
	AppRepo    = "https://github.com/hdrlab/headstone"
)

var (
	config  *models.Config
	rootCmd *cobra.Command

	green   = color.New(color.FgGreen).SprintFunc()
	red     = color.New(color.FgRed).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	blue    = color.New(color.FgBlue).SprintFunc()
	magenta = color.New(color.FgMagenta).SprintFunc()

	logo = `
 _                    _     _
| |__   ___  __ _  __| |___| |_ ___  _ __   ___
| '_ \ / _ \/ _` + "`" + ` |/ _` + "`" + ` / __| __/ _ \| '_ \ / _ \
| | | |  __/ (_| | (_| \__ \ || (_) | | | |  __/
|_| |_|\___|\__,_|\__,_|___/\__\___/|_| |_|\___|
`
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "headstone",
		Short: "Security header measurement for live sites and archive snapshots",
		Long: logo + `
Headstone collects browser-enforced security headers from live sites and from
web archive snapshots, classifies each mechanism on an ordered security scale,
and tracks how deployments change over time.

Examples:
  headstone crawl targets.csv
  headstone archive --days 30 targets.csv
  headstone single https://example.com
  headstone classify --source archive
  headstone stability
  headstone consistency`,
		Version: AppVersion,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to YAML config file")
	flags.DurationP("timeout", "t", 10*time.Second, "Timeout for HTTP requests")
	flags.IntP("retries", "r", 2, "Number of retries for failed requests")
	flags.IntP("workers", "c", 8, "Maximum number of concurrent fetches")
	flags.BoolP("verify-tls", "T", true, "Verify TLS certificates")
	flags.StringP("user-agent", "u", "", "User agent string")
	flags.String("url-prefix", "http://www.", "Prefix expanding a domain into a crawl URL")
	flags.StringP("output-dir", "o", "results", "Directory for report files")
	flags.String("database", "results/headstone.db", "Path to the observation database")
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.BoolP("no-color", "n", false, "Disable colorized output")
	flags.BoolP("quiet", "q", false, "Quiet mode - only output to files")
	flags.Bool("no-progress", false, "Disable progress bar")
	flags.Bool("skip-dns", false, "Skip DNS resolution check")
	flags.Bool("browser", false, "Capture headers through a headless browser")
	flags.Duration("browser-timeout", 20*time.Second, "Timeout for browser-based fetches")
	flags.Int("max-redirects", 10, "Maximum number of redirects to follow")
	flags.IntP("limit", "l", 0, "Only process the first N targets (0 = all)")
	flags.String("archive-endpoint", "", "Snapshot URL template with {timestamp} and {url}")
	flags.String("nominal", "", "Nominal capture time (RFC 3339)")
	flags.Duration("tolerance", 24*time.Hour, "Accepted capture drift around the nominal time")

	crawlCmd := &cobra.Command{
		Use:   "crawl [flags] TARGET_FILE",
		Short: "Fetch live security headers for ranked targets",
		Long:  `Fetch each target's live response headers and record today's observation.`,
		Args:  cobra.ExactArgs(1),
		Run:   runCrawl,
	}
	rootCmd.AddCommand(crawlCmd)

	archiveCmd := &cobra.Command{
		Use:   "archive [flags] TARGET_FILE",
		Short: "Fetch archived security headers for ranked targets",
		Long:  `Query the web archive for one snapshot per target per day and record the replayed headers.`,
		Args:  cobra.ExactArgs(1),
		Run:   runArchive,
	}
	archiveCmd.Flags().IntP("days", "d", 30, "Number of days to query")
	archiveCmd.Flags().String("start", "", "First day to query (YYYY-MM-DD, default: days ago from today)")
	rootCmd.AddCommand(archiveCmd)

	singleCmd := &cobra.Command{
		Use:   "single [flags] URL",
		Short: "Classify the security headers of a single URL",
		Long:  `Fetch one URL and print its canonical header forms and classification.`,
		Args:  cobra.ExactArgs(1),
		Run:   runSingle,
	}
	rootCmd.AddCommand(singleCmd)

	classifyCmd := &cobra.Command{
		Use:   "classify [flags]",
		Short: "Classify stored observations",
		Long:  `Classify every stored observation's headers and write classification reports.`,
		Run:   runClassify,
	}
	classifyCmd.Flags().StringP("source", "s", "live", "Observation source (live, archive)")
	rootCmd.AddCommand(classifyCmd)

	stabilityCmd := &cobra.Command{
		Use:   "stability [flags]",
		Short: "Compute snapshot stability timelines",
		Long:  `Fold stored archive observations into per-target stability timelines and daily change totals.`,
		Run:   runStability,
	}
	rootCmd.AddCommand(stabilityCmd)

	consistencyCmd := &cobra.Command{
		Use:   "consistency [flags]",
		Short: "Compute per-mechanism consistency verdicts",
		Long:  `Check whether each target's canonical header values stayed identical across its live observations.`,
		Run:   runConsistency,
	}
	rootCmd.AddCommand(consistencyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		loaded, err := models.LoadConfig(configPath)
		if err != nil {
			fatal(err)
		}
		config = loaded
	} else {
		config = models.DefaultConfig()
	}

	flags := cmd.Flags()
	if flags.Changed("timeout") {
		config.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("retries") {
		config.RetryCount, _ = flags.GetInt("retries")
	}
	if flags.Changed("workers") {
		config.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("verify-tls") {
		config.VerifyTLS, _ = flags.GetBool("verify-tls")
	}
	if flags.Changed("user-agent") {
		config.UserAgent, _ = flags.GetString("user-agent")
	}
	if flags.Changed("url-prefix") {
		config.URLPrefix, _ = flags.GetString("url-prefix")
	}
	if flags.Changed("output-dir") {
		config.OutputDir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("database") {
		config.DatabasePath, _ = flags.GetString("database")
	}
	if flags.Changed("max-redirects") {
		config.MaxRedirects, _ = flags.GetInt("max-redirects")
	}
	if flags.Changed("limit") {
		config.TargetLimit, _ = flags.GetInt("limit")
	}
	if flags.Changed("archive-endpoint") {
		config.ArchiveEndpoint, _ = flags.GetString("archive-endpoint")
	}
	if flags.Changed("nominal") {
		raw, _ := flags.GetString("nominal")
		nominal, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			fatal(fmt.Errorf("invalid nominal time %q: %w", raw, err))
		}
		config.Nominal = nominal
	}
	if flags.Changed("tolerance") {
		config.Tolerance, _ = flags.GetDuration("tolerance")
	}
	if flags.Changed("browser-timeout") {
		config.BrowserTimeout, _ = flags.GetDuration("browser-timeout")
	}
	config.LogVerbose, _ = flags.GetBool("verbose")
	config.NoColor, _ = flags.GetBool("no-color")
	config.Quiet, _ = flags.GetBool("quiet")
	config.NoProgress, _ = flags.GetBool("no-progress")
	config.SkipDNS, _ = flags.GetBool("skip-dns")
	config.UseBrowser, _ = flags.GetBool("browser")

	if envTimeout := os.Getenv("HEADSTONE_TIMEOUT"); envTimeout != "" {
		if duration, err := time.ParseDuration(envTimeout); err == nil {
			config.Timeout = duration
		}
	}
	if envWorkers := os.Getenv("HEADSTONE_WORKERS"); envWorkers != "" {
		if workers, err := strconv.Atoi(envWorkers); err == nil {
			config.Workers = workers
		}
	}
	if envUserAgent := os.Getenv("HEADSTONE_USER_AGENT"); envUserAgent != "" {
		config.UserAgent = envUserAgent
	}

	if config.NoColor {
		color.NoColor = true
	}

	if err := config.Validate(); err != nil {
		fatal(fmt.Errorf("invalid configuration: %w", err))
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", red("ERROR:"), err)
	os.Exit(1)
}

// crawlContext returns a context cancelled by SIGINT/SIGTERM.
func crawlContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		if !config.Quiet {
			fmt.Println("\nReceived termination signal. Shutting down gracefully...")
		}
		cancel()

		time.Sleep(2 * time.Second)
		os.Exit(1)
	}()

	return ctx, cancel
}

func openStore() *store.Store {
	db, err := store.Open(config.DatabasePath)
	if err != nil {
		fatal(err)
	}
	return db
}

func readTargets(path string) []models.Target {
	targets, err := models.ReadTargets(path, config.URLPrefix, config.TargetLimit)
	if err != nil {
		fatal(err)
	}
	return targets
}

func runCrawl(cmd *cobra.Command, args []string) {
	loadConfig(cmd)

	ctx, cancel := crawlContext()
	defer cancel()

	if !config.Quiet {
		fmt.Println(logo)
	}

	targets := readTargets(args[0])
	if !config.Quiet {
		fmt.Printf("%s Crawling %s targets\n", blue("INFO:"), magenta(len(targets)))
	}

	s, err := scanner.New(config)
	if err != nil {
		fatal(err)
	}

	observations, err := s.CrawlLive(ctx, targets)
	if err != nil {
		fatal(err)
	}

	db := openStore()
	defer db.Close()

	stored, failed := 0, 0
	for _, obs := range observations {
		if err := db.InsertLive(obs); err != nil {
			fatal(err)
		}
		if obs.Error != "" {
			failed++
		} else {
			stored++
		}
	}

	if !config.Quiet {
		fmt.Printf("\n%s Stored %s observations, %s failed fetches\n",
			blue("SUMMARY:"), green(stored), red(failed))
	}
}

func runArchive(cmd *cobra.Command, args []string) {
	loadConfig(cmd)

	ctx, cancel := crawlContext()
	defer cancel()

	dayCount, _ := cmd.Flags().GetInt("days")
	if dayCount < 1 {
		fatal(fmt.Errorf("days must be at least 1, got %d", dayCount))
	}

	start := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -dayCount)
	if raw, _ := cmd.Flags().GetString("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			fatal(fmt.Errorf("invalid start day %q: %w", raw, err))
		}
		start = parsed
	}

	days := make([]time.Time, dayCount)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}

	if !config.Quiet {
		fmt.Println(logo)
	}

	targets := readTargets(args[0])
	if !config.Quiet {
		fmt.Printf("%s Querying %s days of snapshots for %s targets\n",
			blue("INFO:"), magenta(dayCount), magenta(len(targets)))
	}

	s, err := scanner.New(config)
	if err != nil {
		fatal(err)
	}

	observations, err := s.CrawlArchive(ctx, targets, days)
	if err != nil {
		fatal(err)
	}

	db := openStore()
	defer db.Close()

	hits, misses := 0, 0
	for _, obs := range observations {
		if err := db.InsertArchive(obs); err != nil {
			fatal(err)
		}
		if obs.StatusCode == 200 {
			hits++
		} else {
			misses++
		}
	}

	if !config.Quiet {
		fmt.Printf("\n%s Stored %s snapshot hits, %s misses\n",
			blue("SUMMARY:"), green(hits), yellow(misses))
	}
}

func runSingle(cmd *cobra.Command, args []string) {
	loadConfig(cmd)

	url := args[0]
	client := scanner.NewClient(config)
	resp, err := scanner.FetchHeaders(client, url, config)
	if err != nil {
		fatal(err)
	}

	var origin *headers.Origin
	if parsed, err := headers.ParseOrigin(resp.FinalURL); err == nil && parsed.Host != "" {
		origin = &parsed
	}

	normalized := headers.NormalizeAll(resp.Headers)
	tags := headers.ClassifyAll(resp.Headers, origin).Tags()

	fmt.Printf("%s %s (%d)\n\n", blue("URL:"), resp.FinalURL, resp.StatusCode)
	for _, mechanism := range headers.Mechanisms {
		value := normalized.Get(mechanism)
		tag, classified := tags[mechanism]
		if !classified {
			continue
		}
		if value == headers.Missing {
			fmt.Printf("  %-35s %s\n", mechanism, yellow(tag))
		} else {
			fmt.Printf("  %-35s %s  %s\n", mechanism, green(tag), value)
		}
	}
}

func runClassify(cmd *cobra.Command, args []string) {
	loadConfig(cmd)

	source, _ := cmd.Flags().GetString("source")

	db := openStore()
	defer db.Close()

	a := analyzer.New(config)
	var results []models.ClassificationResult

	switch source {
	case "live":
		ranks, err := db.LiveTargets()
		if err != nil {
			fatal(err)
		}
		for _, rank := range ranks {
			observations, err := db.LiveObservations(rank)
			if err != nil {
				fatal(err)
			}
			for _, obs := range observations {
				if obs.Error != "" {
					continue
				}
				results = append(results, a.ClassifyLive(obs))
			}
		}
	case "archive":
		ranks, err := db.ArchiveTargets()
		if err != nil {
			fatal(err)
		}
		for _, rank := range ranks {
			observations, err := db.ArchiveObservations(rank)
			if err != nil {
				fatal(err)
			}
			for _, obs := range observations {
				if obs.StatusCode != 200 {
					continue
				}
				results = append(results, a.ClassifyArchive(obs))
			}
		}
	default:
		fatal(fmt.Errorf("unknown source %q (want live or archive)", source))
	}

	r, err := reporter.New(config.OutputDir)
	if err != nil {
		fatal(err)
	}
	if err := r.WriteClassifications(results); err != nil {
		fatal(err)
	}

	if !config.Quiet {
		fmt.Printf("%s Classified %s observations from %s data\n",
			blue("SUMMARY:"), green(len(results)), magenta(source))
	}
}

func runStability(cmd *cobra.Command, args []string) {
	loadConfig(cmd)

	db := openStore()
	defer db.Close()

	ranks, err := db.ArchiveTargets()
	if err != nil {
		fatal(err)
	}

	byTarget := make(map[int][]models.ArchiveObservation, len(ranks))
	for _, rank := range ranks {
		observations, err := db.ArchiveObservations(rank)
		if err != nil {
			fatal(err)
		}
		byTarget[rank] = observations
	}

	a := analyzer.New(config)
	timelines, daily := a.Timelines(byTarget)

	r, err := reporter.New(config.OutputDir)
	if err != nil {
		fatal(err)
	}
	if err := r.WriteTimelines(timelines, daily); err != nil {
		fatal(err)
	}

	if !config.Quiet {
		fmt.Printf("%s Computed %s stability timelines over %s days\n",
			blue("SUMMARY:"), green(len(timelines)), magenta(len(daily)))
	}
}

func runConsistency(cmd *cobra.Command, args []string) {
	loadConfig(cmd)

	db := openStore()
	defer db.Close()

	ranks, err := db.LiveTargets()
	if err != nil {
		fatal(err)
	}

	a := analyzer.New(config)
	var results []models.ConsistencyResult
	inconsistent := 0
	for _, rank := range ranks {
		observations, err := db.LiveObservations(rank)
		if err != nil {
			fatal(err)
		}
		result := a.Consistency(observations)
		for _, mechanism := range headers.Mechanisms {
			if result.Deployed[mechanism] && !result.Consistent[mechanism] {
				inconsistent++
				break
			}
		}
		results = append(results, result)
	}

	r, err := reporter.New(config.OutputDir)
	if err != nil {
		fatal(err)
	}
	if err := r.WriteConsistency(results); err != nil {
		fatal(err)
	}

	if !config.Quiet {
		fmt.Printf("%s Checked %s targets, %s with at least one inconsistent mechanism\n",
			blue("SUMMARY:"), green(len(results)), red(inconsistent))
	}
}
