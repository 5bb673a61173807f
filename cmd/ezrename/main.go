package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Nomadcxx/ezrename/internal/config"
	"github.com/Nomadcxx/ezrename/internal/engine"
	"github.com/Nomadcxx/ezrename/internal/lookup"
	"github.com/Nomadcxx/ezrename/internal/renamer"
	"github.com/Nomadcxx/ezrename/internal/restore"
	"github.com/Nomadcxx/ezrename/internal/scanner"
	"github.com/Nomadcxx/ezrename/internal/ui"
)

var (
	cfgFile string
	quiet   bool
	verbose bool

	recursive      bool
	formatOnly     bool
	folderFallback bool
	showOverride   string
	interactive    bool
	showSkipped    bool
	fullPaths      bool
	showDetails    bool
	picks          []string

	dryRun     bool
	assumeYes  bool
	exportPath string
	fromTSV    string

	// Version information (set via -ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:           "ezrename",
	Short:         "Rename TV episode files from an online episode database",
	Long:          getLongDescription(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var scanCmd = &cobra.Command{
	Use:   "scan [folder]",
	Short: "Identify episodes and preview the rename plan",
	Args:  cobra.MaximumNArgs(1),
	Run:   runScan,
}

var applyCmd = &cobra.Command{
	Use:   "apply [folder]",
	Short: "Scan, then rename every planned file",
	Args:  cobra.MaximumNArgs(1),
	Run:   runApply,
}

var restoreCmd = &cobra.Command{
	Use:   "restore <batch-id> | --from-tsv <file>",
	Short: "Undo a rename batch or an exported TSV backup",
	Args:  restoreArgs,
	Run:   runRestore,
}

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "Inspect recorded rename batches",
}

var batchesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rename batches, newest first",
	Args:  cobra.NoArgs,
	Run:   runBatchesList,
}

var batchesShowCmd = &cobra.Command{
	Use:   "show <batch-id>",
	Short: "Show the current state of each file in a batch",
	Args:  cobra.ExactArgs(1),
	Run:   runBatchesShow,
}

var batchesExportCmd = &cobra.Command{
	Use:   "export <batch-id>",
	Short: "Write a batch as a TYPE/OLD_PATH/NEW_PATH table",
	Args:  cobra.ExactArgs(1),
	Run:   runBatchesExport,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration file location and contents",
	Args:  cobra.NoArgs,
	Run:   runConfig,
}

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Manage custom noise tokens",
}

var tokensAddCmd = &cobra.Command{
	Use:   "add <tokens>",
	Short: "Add noise tokens (comma or space separated)",
	Args:  cobra.MinimumNArgs(1),
	Run:   runTokensAdd,
}

var tokensRemoveCmd = &cobra.Command{
	Use:   "remove <token>",
	Short: "Remove a custom noise token",
	Args:  cobra.ExactArgs(1),
	Run:   runTokensRemove,
}

var importLegacyCmd = &cobra.Command{
	Use:   "import-legacy [file]",
	Short: "Import settings from " + config.LegacyOptionsFile,
	Args:  cobra.MaximumNArgs(1),
	Run:   runImportLegacy,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ezrename %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
	},
}

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", true, "include subfolders (default from config)")
	cmd.Flags().BoolVar(&formatOnly, "format-only", false, "reformat names without online lookups")
	cmd.Flags().BoolVar(&folderFallback, "folder-fallback", false, "use the parent folder name when the filename has no show name")
	cmd.Flags().StringVar(&showOverride, "show", "", "treat every file as this show")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "show progress and pick ambiguous shows in the TUI")
	cmd.Flags().BoolVar(&showSkipped, "show-skipped", false, "list skipped files in the preview")
	cmd.Flags().BoolVar(&fullPaths, "full-paths", false, "print full paths in the preview")
	cmd.Flags().BoolVar(&showDetails, "details", false, "print airdates and episode summaries in the preview")
	cmd.Flags().StringArrayVar(&picks, "pick", nil, "answer an ambiguous show as \"guess=show-id\" (repeatable)")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/ezrename/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")

	addScanFlags(scanCmd)
	addScanFlags(applyCmd)
	applyCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be renamed without renaming")
	applyCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	batchesExportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "write to file instead of stdout")
	restoreCmd.Flags().StringVar(&fromTSV, "from-tsv", "", "restore the moves listed in an exported TSV backup")

	batchesCmd.AddCommand(batchesListCmd, batchesShowCmd, batchesExportCmd)
	tokensCmd.AddCommand(tokensAddCmd, tokensRemoveCmd)
	configCmd.AddCommand(tokensCmd, importLegacyCmd)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(batchesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// resolveLogLevel picks the level from the flags, falling back to config
func resolveLogLevel(quiet, verbose bool, configured string) (scanner.LogLevel, error) {
	if quiet && verbose {
		return scanner.LogLevelNormal, fmt.Errorf("--quiet and --verbose cannot be used together")
	}
	switch {
	case quiet:
		return scanner.LogLevelQuiet, nil
	case verbose:
		return scanner.LogLevelVerbose, nil
	}
	return scanner.ParseLogLevel(configured)
}

func setupLogging(level scanner.LogLevel) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	scanner.SetDefaultLogLevel(level)
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFrom(cfgFile)
	}
	return config.Load()
}

func saveConfig(cfg *config.Config) error {
	if cfgFile != "" {
		return config.SaveTo(cfg, cfgFile)
	}
	return config.Save(cfg)
}

// setup loads and validates config, then configures logging and theme
func setup() *config.Config {
	cfg, err := loadConfig()
	if err != nil {
		fatal("Error loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("Invalid config: %v", err)
	}

	level, err := resolveLogLevel(quiet, verbose, cfg.Log.Level)
	if err != nil {
		fatal("Error: %v", err)
	}
	setupLogging(level)

	if err := ui.ApplyTheme(cfg.UI.Theme); err != nil {
		fatal("Error: %v", err)
	}
	return cfg
}

// interruptContext is cancelled on Ctrl+C or SIGTERM
func interruptContext(what string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintf(os.Stderr, "\nCancelling %s...\n", what)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

func exitIfCancelled(err error, what string) {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "%s cancelled by user\n", what)
		os.Exit(130) // Exit code 130 for SIGINT
	}
}

// engineOptions merges scan flags over config
func engineOptions(cmd *cobra.Command, cfg *config.Config) engine.Options {
	opts := engine.Options{
		CustomNoise:    append([]string(nil), cfg.Naming.CustomNoiseTokens...),
		FormatOnly:     cfg.Naming.FormatOnly,
		FolderFallback: cfg.Naming.FolderFallback,
		ShowOverride:   strings.TrimSpace(showOverride),
	}
	if cmd.Flags().Changed("format-only") {
		opts.FormatOnly = formatOnly
	}
	if cmd.Flags().Changed("folder-fallback") {
		opts.FolderFallback = folderFallback
	}
	return opts
}

func scanRecursive(cmd *cobra.Command, cfg *config.Config) bool {
	if cmd.Flags().Changed("recursive") {
		return recursive
	}
	return cfg.Library.Recursive
}

func scanRoot(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Library.RootFolder != "" {
		return cfg.Library.RootFolder, nil
	}
	return "", fmt.Errorf("no folder given and library.root_folder is not set")
}

func newProvider(cfg *config.Config) (lookup.Provider, error) {
	delay, err := cfg.RequestDelay()
	if err != nil {
		return nil, err
	}
	client := lookup.NewTVMaze(cfg.Lookup.BaseURL, "ezrename/"+version)
	return lookup.NewThrottled(client, delay, cfg.Lookup.Retries), nil
}

// parsePicks turns "guess=id" flags into decisions
func parsePicks(values []string) (engine.Decisions, error) {
	decisions := engine.Decisions{}
	for _, v := range values {
		guess, id, ok := strings.Cut(v, "=")
		guess, id = strings.TrimSpace(guess), strings.TrimSpace(id)
		if !ok || guess == "" || id == "" {
			return nil, fmt.Errorf("invalid --pick %q (want \"guess=show-id\")", v)
		}
		decisions.Set(guess, id)
	}
	return decisions, nil
}

// scanFolder runs the engine over root. In interactive mode the scan runs
// behind the progress screen, and ambiguous shows are offered in the picker
// before a rescan with the user's decisions.
func scanFolder(ctx context.Context, cmd *cobra.Command, cfg *config.Config, root string, forRename bool) (*engine.Result, error) {
	validated, warnings, err := scanner.ValidateScanRoot(root, forRename)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.Warn().Str("folder", validated.Path).Msg(w)
	}

	files, err := scanner.FindVideoFiles(validated.Path, scanRecursive(cmd, cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to list video files: %w", err)
	}
	log.Info().Str("folder", validated.Path).Int("files", len(files)).Msg("scanning")

	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	eng := engine.New(provider, engineOptions(cmd, cfg), nil)

	decisions, err := parsePicks(picks)
	if err != nil {
		return nil, err
	}

	if !interactive {
		return eng.Scan(ctx, files, decisions, scanner.NewProgressReporter(nil, "scan"))
	}

	result, err := ui.RunScan(ctx, func(ctx context.Context, ch chan<- scanner.ScanProgress) (*engine.Result, error) {
		return eng.Scan(ctx, files, decisions, scanner.NewProgressReporter(ch, "scan"))
	}, tea.WithAltScreen())
	if err != nil || len(result.Ambiguous) == 0 {
		return result, err
	}

	picked, err := ui.PickShows(result.Ambiguous, tea.WithAltScreen())
	if errors.Is(err, ui.ErrPickerAborted) {
		log.Warn().Int("answered", len(picked)).Msg("show selection aborted, keeping answers so far")
	} else if err != nil {
		return nil, err
	}
	if len(picked) == 0 {
		return result, nil
	}
	for guess, id := range picked {
		decisions[guess] = id
	}

	// matches and catalogs are cached on the engine, so only new picks hit the network
	return eng.Scan(ctx, files, decisions, scanner.NewProgressReporter(nil, "scan"))
}

func printResult(result *engine.Result) {
	fmt.Print(ui.RenderPlan(result.Plan, ui.PreviewOptions{ShowSkipped: showSkipped, FullPaths: fullPaths, Details: showDetails}))
	fmt.Println()
	fmt.Print(ui.RenderScanSummary(result.Stats))
	if !interactive && len(result.Ambiguous) > 0 {
		fmt.Println()
		fmt.Print(ui.RenderAmbiguous(result.Ambiguous))
	}
	for _, f := range result.Failures {
		log.Debug().Str("file", f.Path).Str("guess", f.Guess).Err(f.Err).Msg("lookup failed")
	}
}

func runScan(cmd *cobra.Command, args []string) {
	cfg := setup()

	root, err := scanRoot(args, cfg)
	if err != nil {
		fatal("Error: %v", err)
	}

	ctx, cancel := interruptContext("scan")
	defer cancel()

	result, err := scanFolder(ctx, cmd, cfg, root, false)
	if err != nil {
		exitIfCancelled(err, "Scan")
		fatal("Scan failed: %v", err)
	}

	printResult(result)
	if result.Plan.CanProceed() {
		fmt.Printf("\nApply with: ezrename apply %s\n", root)
	}
}

func openStore(cfg *config.Config) (*restore.Store, error) {
	path := cfg.Restore.DBPath
	if path == "" {
		var err error
		if path, err = restore.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return restore.Open(path)
}

func confirm(prompt string) bool {
	fmt.Print(prompt + " (yes/no): ")
	response, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "yes" || response == "y"
}

func runApply(cmd *cobra.Command, args []string) {
	cfg := setup()

	root, err := scanRoot(args, cfg)
	if err != nil {
		fatal("Error: %v", err)
	}

	ctx, cancel := interruptContext("rename")
	defer cancel()

	result, err := scanFolder(ctx, cmd, cfg, root, !dryRun)
	if err != nil {
		exitIfCancelled(err, "Scan")
		fatal("Scan failed: %v", err)
	}
	printResult(result)

	if !result.Plan.CanProceed() {
		fmt.Println("\nNothing to rename.")
		return
	}

	if dryRun {
		results, _, err := renamer.Apply(ctx, result.Plan, nil, renamer.Options{DryRun: true})
		if err != nil {
			fatal("Dry run failed: %v", err)
		}
		fmt.Printf("\nDry run, %d renames would be made.\n", len(results))
		return
	}

	planned, _, _ := result.Plan.Counts()
	if !assumeYes && !confirm(fmt.Sprintf("\nRename %d files?", planned)) {
		fmt.Println("Rename cancelled.")
		return
	}

	store, err := openStore(cfg)
	if err != nil {
		fatal("Error opening restore log: %v", err)
	}
	defer store.Close()

	results, batchID, err := renamer.Apply(ctx, result.Plan, store, renamer.Options{
		Progress: scanner.NewProgressReporter(nil, "apply"),
	})
	if len(results) > 0 {
		fmt.Println()
		fmt.Print(ui.RenderResults(results))
	}
	if batchID != "" {
		fmt.Printf("\n%d/%d renamed. Undo with: ezrename restore %s\n", renamer.Succeeded(results), len(results), batchID)
	}
	if err != nil {
		store.Close()
		exitIfCancelled(err, "Rename")
		fatal("Rename failed: %v", err)
	}
}

func runRestore(cmd *cobra.Command, args []string) {
	cfg := setup()

	store, err := openStore(cfg)
	if err != nil {
		fatal("Error opening restore log: %v", err)
	}
	defer store.Close()

	batchID, err := restoreTarget(store, args)
	if err != nil {
		store.Close()
		fatal("Error reading backup: %v", err)
	}

	ctx, cancel := interruptContext("restore")
	defer cancel()

	report, err := store.Restore(ctx, batchID)
	fmt.Print(ui.RenderRestoreReport(report))
	if err != nil {
		store.Close()
		exitIfCancelled(err, "Restore")
		fatal("Restore failed: %v", err)
	}
}

// restoreArgs takes a batch id, or nothing when --from-tsv names a backup
func restoreArgs(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("from-tsv") {
		return cobra.NoArgs(cmd, args)
	}
	return cobra.ExactArgs(1)(cmd, args)
}

// restoreTarget returns the batch to restore, importing the --from-tsv
// backup as a new batch first.
func restoreTarget(store *restore.Store, args []string) (string, error) {
	if fromTSV == "" {
		return args[0], nil
	}

	f, err := os.Open(fromTSV)
	if err != nil {
		return "", err
	}
	defer f.Close()

	mappings, err := restore.ReadTSV(f)
	if err != nil {
		return "", err
	}
	if len(mappings) == 0 {
		return "", fmt.Errorf("no video or subtitle rows in %s", fromTSV)
	}

	batch, err := store.ImportBatch(mappings)
	if err != nil {
		return "", err
	}
	log.Info().Str("batch", batch.ID).Str("file", fromTSV).Int("entries", batch.Entries).Msg("imported backup")
	return batch.ID, nil
}

func runBatchesList(cmd *cobra.Command, args []string) {
	cfg := setup()

	store, err := openStore(cfg)
	if err != nil {
		fatal("Error opening restore log: %v", err)
	}
	defer store.Close()

	batches, err := store.Batches()
	if err != nil {
		store.Close()
		fatal("Error reading batches: %v", err)
	}
	fmt.Print(ui.RenderBatches(batches))
}

func runBatchesShow(cmd *cobra.Command, args []string) {
	cfg := setup()

	store, err := openStore(cfg)
	if err != nil {
		fatal("Error opening restore log: %v", err)
	}
	defer store.Close()

	batch, err := store.Batch(args[0])
	if err != nil {
		store.Close()
		fatal("Error: %v", err)
	}
	entries, err := store.Entries(batch.ID)
	if err != nil {
		store.Close()
		fatal("Error reading batch: %v", err)
	}

	fmt.Println(ui.FormatHeader(fmt.Sprintf("BATCH %s", batch.ID)))
	fmt.Printf("Created: %s\n\n", batch.CreatedAt.Local().Format(time.DateTime))
	fmt.Print(ui.RenderEntries(entries))
}

func runBatchesExport(cmd *cobra.Command, args []string) {
	cfg := setup()

	store, err := openStore(cfg)
	if err != nil {
		fatal("Error opening restore log: %v", err)
	}
	defer store.Close()

	out := os.Stdout
	if exportPath != "" {
		f, err := os.Create(exportPath)
		if err != nil {
			store.Close()
			fatal("Error creating %s: %v", exportPath, err)
		}
		defer f.Close()
		out = f
	}

	if err := store.ExportTSV(args[0], out); err != nil {
		store.Close()
		fatal("Export failed: %v", err)
	}
	if exportPath != "" {
		log.Info().Str("batch", args[0]).Str("file", exportPath).Msg("batch exported")
	}
}

func runConfig(cmd *cobra.Command, args []string) {
	cfg := setup()

	path := cfgFile
	if path == "" {
		path, _ = config.ConfigPath()
	}
	fmt.Printf("Configuration file: %s\n\n", path)

	fmt.Println("Library:")
	fmt.Printf("  Root folder:      %s\n", orUnset(cfg.Library.RootFolder))
	fmt.Printf("  Recursive:        %t\n", cfg.Library.Recursive)

	fmt.Println("\nNaming:")
	fmt.Printf("  Format only:      %t\n", cfg.Naming.FormatOnly)
	fmt.Printf("  Folder fallback:  %t\n", cfg.Naming.FolderFallback)
	fmt.Printf("  Noise tokens (%d): %s\n", len(cfg.Naming.CustomNoiseTokens), strings.Join(cfg.Naming.CustomNoiseTokens, ", "))

	fmt.Println("\nLookup:")
	fmt.Printf("  Provider:         %s\n", cfg.Lookup.Provider)
	fmt.Printf("  Base URL:         %s\n", cfg.Lookup.BaseURL)
	fmt.Printf("  Request delay:    %s\n", cfg.Lookup.RequestDelay)
	fmt.Printf("  Retries:          %d\n", cfg.Lookup.Retries)

	fmt.Println("\nMetadata:")
	fmt.Printf("  Title tags:       %t\n", cfg.Metadata.WriteTitleTags)
	fmt.Printf("  NFO files:        %t\n", cfg.Metadata.WriteNFO)

	fmt.Println("\nUI:")
	fmt.Printf("  Theme:            %s\n", cfg.UI.Theme)
	fmt.Printf("  Log level:        %s\n", cfg.Log.Level)

	dbPath := cfg.Restore.DBPath
	if dbPath == "" {
		dbPath, _ = restore.DefaultPath()
	}
	fmt.Printf("\nRestore log:        %s\n", dbPath)
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func runTokensAdd(cmd *cobra.Command, args []string) {
	cfg := setup()

	added, err := cfg.AddNoiseTokens(strings.Join(args, " "))
	if err != nil {
		fatal("Error: %v", err)
	}
	if err := saveConfig(cfg); err != nil {
		fatal("Error saving config: %v", err)
	}
	fmt.Println(ui.FormatStatusOK(fmt.Sprintf("Added %d noise tokens (%d total)", added, len(cfg.Naming.CustomNoiseTokens))))
}

func runTokensRemove(cmd *cobra.Command, args []string) {
	cfg := setup()

	if err := cfg.RemoveNoiseToken(args[0]); err != nil {
		fatal("Error: %v", err)
	}
	if err := saveConfig(cfg); err != nil {
		fatal("Error saving config: %v", err)
	}
	fmt.Println(ui.FormatStatusOK(fmt.Sprintf("Removed noise token %q", args[0])))
}

func runImportLegacy(cmd *cobra.Command, args []string) {
	cfg := setup()

	var path string
	if len(args) > 0 {
		path = args[0]
	} else {
		var err error
		if path, err = config.LegacyPath(); err != nil {
			fatal("Error: %v", err)
		}
	}

	warnings, err := cfg.ImportLegacy(path)
	if err != nil {
		fatal("Import failed: %v", err)
	}
	for _, w := range warnings {
		fmt.Println(ui.FormatStatusWarn(w))
	}

	if err := cfg.Validate(); err != nil {
		fatal("Imported settings are invalid: %v", err)
	}
	if err := saveConfig(cfg); err != nil {
		fatal("Error saving config: %v", err)
	}
	fmt.Println(ui.FormatStatusOK(fmt.Sprintf("Imported settings from %s", path)))
}

func getLongDescription() string {
	return ui.FormatASCIIHeader() + "\n\n" +
		"ezrename identifies TV episode files, looks up their titles, and renames\n" +
		"them to \"Show - S01E02 - Title\". Every rename batch can be restored."
}
