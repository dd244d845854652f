package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/sleroq/logseq-to-notion/internal/app/converter"
	"github.com/sleroq/logseq-to-notion/internal/config"
	"github.com/sleroq/logseq-to-notion/internal/infra/logseqfs"
	pkgconfig "github.com/sleroq/logseq-to-notion/pkg/config"
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to an optional YAML config file",
			Sources: cli.EnvVars("LOGSEQ2NOTION_CONFIG"),
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Directory the converted collections are written to",
		},
		&cli.BoolFlag{
			Name:  "with-uuid",
			Usage: "Append a random 8 character token to every note file name",
		},
		&cli.StringFlag{
			Name:  "report-format",
			Usage: "Conversion report format: json or yaml",
		},
		&cli.BoolFlag{
			Name:  "index-csv",
			Usage: "Also write index.csv for the Notion team database template",
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "logseq-to-notion",
		Usage: "Convert Logseq exports into Markdown trees ready for Notion import",
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     "Convert one Logseq export, or several found under a directory",
				ArgsUsage: "<source>",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:  "collection",
						Usage: "Convert only this export under <source>",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Convert every export under <source>",
					},
					&cli.BoolFlag{
						Name:  "no-zip",
						Usage: "Skip packaging the converted tree into a ZIP archive",
					},
					&cli.BoolFlag{
						Name:  "no-timestamp",
						Usage: "Write into <output>/<collection> instead of a timestamped folder",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "How many exports to convert at the same time",
					},
				),
				Action: runConvert,
			},
			{
				Name:      "list",
				Usage:     "List the Logseq exports found under a directory",
				ArgsUsage: "<source>",
				Action:    runList,
			},
			{
				Name:      "watch",
				Usage:     "Convert one export and convert it again whenever it changes",
				ArgsUsage: "<collection-dir>",
				Flags:     commonFlags(),
				Action:    runWatch,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

func runConvert(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dirs, err := logseqfs.ResolveCollections(cfg.Source.Path, cfg.Source.Collection, cfg.Source.All)
	if err != nil {
		return err
	}

	batch := converter.Batch{Config: cfg, Logger: logger}
	results, err := batch.Run(ctx, dirs)
	printResults(os.Stdout, results)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	return nil
}

func runList(_ context.Context, cmd *cli.Command) error {
	root := cmd.Args().First()
	if root == "" {
		root = config.NewDefaultConfig().Source.Path
	}
	if logseqfs.IsCollection(root) {
		fmt.Println(root)
		return nil
	}
	names, err := logseqfs.ListCollections(root)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("%w in %s", logseqfs.ErrNoCollections, root)
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !logseqfs.IsCollection(cfg.Source.Path) {
		return fmt.Errorf("%w: %s has no pages/ or journals/", logseqfs.ErrNoCollections, cfg.Source.Path)
	}

	coll, err := logseqfs.ReadCollection(cfg.Source.Path)
	if err != nil {
		return err
	}
	cfg.Output.Timestamped = false
	_, notesDir := converter.RunDirs(cfg.Output, coll.Name, "")

	w := converter.Watcher{
		Batch:    converter.Batch{Config: cfg, Logger: logger},
		Dir:      cfg.Source.Path,
		NotesDir: notesDir,
		OnConvert: func(r converter.Report, err error) {
			if err == nil {
				printReport(os.Stdout, coll.Name, r)
			}
		},
	}
	return w.Watch(ctx)
}

// loadConfig reads the optional config file, applies command line
// overrides and sets up the default logger.
func loadConfig(cmd *cli.Command) (*config.Config, *slog.Logger, error) {
	cfg := config.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if src := cmd.Args().First(); src != "" {
		cfg.Source.Path = src
	}
	if cmd.IsSet("log-level") {
		if err := cfg.App.LogLevel.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
			return nil, nil, fmt.Errorf("invalid log level: %w", err)
		}
	}
	if cmd.IsSet("output") {
		cfg.Output.Path = cmd.String("output")
	}
	if cmd.IsSet("with-uuid") {
		cfg.Convert.Unique = cmd.Bool("with-uuid")
	}
	if cmd.IsSet("report-format") {
		cfg.Output.ReportFormat = cmd.String("report-format")
	}
	if cmd.IsSet("index-csv") {
		cfg.Output.IndexCSV = cmd.Bool("index-csv")
	}
	if cmd.IsSet("collection") {
		cfg.Source.Collection = cmd.String("collection")
	}
	if cmd.IsSet("all") {
		cfg.Source.All = cmd.Bool("all")
	}
	if cmd.IsSet("no-zip") {
		cfg.Output.Zip = !cmd.Bool("no-zip")
	}
	if cmd.IsSet("no-timestamp") {
		cfg.Output.Timestamped = !cmd.Bool("no-timestamp")
	}
	if cmd.IsSet("workers") {
		cfg.App.Workers = int(cmd.Int("workers"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}
