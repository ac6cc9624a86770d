package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/colinfo/colinfo/internal/config"
	"github.com/colinfo/colinfo/internal/ingest"
	"github.com/colinfo/colinfo/internal/lock"
	"github.com/colinfo/colinfo/internal/report"
	"github.com/colinfo/colinfo/internal/source"
	"github.com/colinfo/colinfo/internal/target"
)

var (
	ingestStrict     bool
	ingestPreview    int
	ingestPostgres   bool
	ingestCollection string
	ingestReplace    bool
	ingestReport     string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [data.csv]",
	Short: "Import a table and apply the column schema",
	Long: `Read a CSV file (or a PostgreSQL query with --postgres), convert flag columns
to booleans, cast typed columns, and optionally write the result to MongoDB.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if ingestPostgres {
			cfg.Source.Type = config.SourcePostgreSQL
		}
		if ingestCollection != "" {
			cfg.Target.Collection = ingestCollection
		}
		if problems := cfg.Validate(); len(problems) > 0 {
			return fmt.Errorf("invalid config: %s", problems[0])
		}

		logger, closer, err := setupLogger(cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		csvOpts := csvOptions(cfg)
		in := ingest.New(reg,
			ingest.WithStrict(cfg.Schema.Strict || ingestStrict),
			ingest.WithDateLayouts(cfg.Source.DateLayouts),
			ingest.WithCSVOptions(csvOpts...),
			ingest.WithLogger(logger),
		)

		var (
			rd      source.Reader
			srcName string
		)
		switch cfg.Source.Type {
		case config.SourcePostgreSQL:
			pg := source.NewPostgresReader(cfg.Source.Postgres.ConnectionString, postgresQuery(cfg))
			if err := pg.Connect(ctx); err != nil {
				return err
			}
			defer pg.Close()
			rd, srcName = pg, postgresQuery(cfg)
		default:
			if len(args) == 0 {
				return fmt.Errorf("a data file is required for csv sources")
			}
			rd, srcName = source.NewCSVReader(args[0], csvOpts...), args[0]
		}

		var w target.Writer
		if cfg.Target.Collection != "" {
			l, err := lock.Acquire("")
			if err != nil {
				return err
			}
			defer l.Release()

			mw, err := target.NewMongoWriter(ctx, cfg.Target.ConnectionString, cfg.Target.Database, cfg.Target.BatchSize)
			if err != nil {
				return err
			}
			defer mw.Close(context.Background())
			w = mw
		}

		rep, err := runIngest(ctx, logger, in, rd, w, cfg, srcName)
		if err != nil {
			return err
		}
		if ingestReport != "" {
			if err := report.WriteJSON(rep, ingestReport); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			logger.Info("report written", "path", ingestReport)
		}
		return nil
	},
}

// runIngest imports from rd, prints the preview and report, and writes to w
// when a target collection is configured.
func runIngest(ctx context.Context, logger *slog.Logger, in *ingest.Ingestor, rd source.Reader, w target.Writer, cfg *config.Config, srcName string) (*report.IngestReport, error) {
	res, err := in.Import(ctx, rd)
	if err != nil {
		return nil, err
	}

	if ingestPreview > 0 {
		fmt.Println(renderPreview(res.Table, ingestPreview))
		fmt.Println()
	}

	rep := report.New(srcName, cfg.Schema.Path, res)

	if w != nil && cfg.Target.Collection != "" {
		if ingestReplace {
			if err := w.Drop(ctx, cfg.Target.Collection); err != nil {
				return nil, err
			}
			logger.Info("dropped collection", "collection", cfg.Target.Collection)
		}
		n, err := w.Write(ctx, cfg.Target.Collection, res.Table)
		if err != nil {
			return nil, err
		}
		logger.Info("wrote documents", "collection", cfg.Target.Collection, "count", n)
		rep.Target = &report.TargetSummary{
			Database:   cfg.Target.Database,
			Collection: cfg.Target.Collection,
			Documents:  n,
		}
	}

	fmt.Print(report.FormatText(rep))
	return rep, nil
}

func postgresQuery(cfg *config.Config) string {
	if cfg.Source.Postgres.Query != "" {
		return cfg.Source.Postgres.Query
	}
	return source.TableQuery(cfg.Source.Postgres.Schema, cfg.Source.Postgres.Table)
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestStrict, "strict", false, "fail when a typed schema column is missing from the data")
	ingestCmd.Flags().IntVar(&ingestPreview, "preview", 0, "print the first n rows of the coerced table")
	ingestCmd.Flags().BoolVar(&ingestPostgres, "postgres", false, "read from the configured PostgreSQL source")
	ingestCmd.Flags().StringVar(&ingestCollection, "collection", "", "write the coerced table to this MongoDB collection")
	ingestCmd.Flags().BoolVar(&ingestReplace, "replace", false, "drop the collection before writing")
	ingestCmd.Flags().StringVar(&ingestReport, "report", "", "write a JSON ingestion report to this path")
	rootCmd.AddCommand(ingestCmd)
}
