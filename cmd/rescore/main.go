// Command rescore recomputes sparkling scores from the command line, using
// the same store and ranking pass as the API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/adapters/observability"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/app"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/authz"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/ranking"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/shared"
	mysqlrepo "github.com/aquasofttraining/hotel-sparkling-awards-system/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type options struct {
	review   float64
	metadata float64
	workers  int
}

func (o *options) override(cmd *cobra.Command) *domain.WeightsOverride {
	var w domain.WeightsOverride
	if cmd.Flags().Changed("weight-review") {
		w.Review = &o.review
	}
	if cmd.Flags().Changed("weight-metadata") {
		w.Metadata = &o.metadata
	}
	if w.Review == nil && w.Metadata == nil {
		return nil
	}
	return &w
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "rescore",
		Short:        "Recompute hotel sparkling scores and the leaderboard ranking",
		SilenceUsage: true,
	}
	root.PersistentFlags().Float64Var(&opts.review, "weight-review", 0, "review component weight (>= 0)")
	root.PersistentFlags().Float64Var(&opts.metadata, "weight-metadata", 0, "metadata component weight (>= 0)")
	root.PersistentFlags().IntVar(&opts.workers, "workers", 0, "concurrent hotel computations (default SCORING_WORKERS)")

	root.AddCommand(
		&cobra.Command{
			Use:   "all",
			Short: "Recompute every hotel and re-rank once",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				svc, done, err := setup(cmd.Context(), opts)
				if err != nil {
					return err
				}
				defer done()
				res, err := svc.RecalculateAll(cmd.Context(), domain.SystemCaller, opts.override(cmd))
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			},
		},
		&cobra.Command{
			Use:   "hotel <id>",
			Short: "Recompute one hotel and re-rank",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid hotel id %q", args[0])
				}
				svc, done, err := setup(cmd.Context(), opts)
				if err != nil {
					return err
				}
				defer done()
				res, err := svc.CalculateHotelScore(cmd.Context(), domain.SystemCaller, id, opts.override(cmd))
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			},
		},
	)
	return root
}

func setup(ctx context.Context, opts *options) (*app.ScoringService, func(), error) {
	cfg, err := shared.Load()
	if err != nil {
		return nil, nil, err
	}
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if cfg.Storage != "mysql" {
		return nil, nil, fmt.Errorf("rescore needs STORAGE=mysql, got %q", cfg.Storage)
	}
	if opts.workers > 0 {
		cfg.ScoringWorkers = opts.workers
	}

	db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
	if err != nil {
		return nil, nil, err
	}
	repo := mysqlrepo.New(db)
	az, err := authz.New(authz.Config{}, repo)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	svc := app.NewScoringService(repo, ranking.New(repo, cfg.RankRetries), az, nil, app.Options{
		Weights: cfg.Weights(),
		Workers: cfg.ScoringWorkers,
	})
	return svc, func() { _ = db.Close() }, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
