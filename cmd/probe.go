package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/storefront-insights/internal/app"
	"github.com/JakeFAU/storefront-insights/internal/archive"
	"github.com/JakeFAU/storefront-insights/internal/fetch"
	"github.com/JakeFAU/storefront-insights/internal/profiler"
	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

type probeOptions struct {
	parallel int
	save     bool
	archive  bool
	compact  bool
}

type probeResult struct {
	URL      string                   `json:"url"`
	Profile  *storefront.BrandProfile `json:"profile,omitempty"`
	BrandID  *int64                   `json:"brand_id,omitempty"`
	Snapshot string                   `json:"snapshot,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

func newProbeCmd() *cobra.Command {
	opts := probeOptions{}
	cmd := &cobra.Command{
		Use:   "probe <url>...",
		Short: "Profile one or more storefronts and print the results as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if opts.parallel <= 0 {
				opts.parallel = a.Config().Profiler.Parallel
			}
			return runProbe(cmd, a, args, opts)
		},
	}
	cmd.Flags().IntVar(&opts.parallel, "parallel", 0, "storefronts profiled at once (default profiler.parallel)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "persist each profile to the database")
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "archive each profile snapshot to blob storage")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "print compact JSON")
	return cmd
}

func runProbe(cmd *cobra.Command, a *app.App, urls []string, opts probeOptions) error {
	if opts.save && a.Brands() == nil {
		return errors.New("--save requires db.dsn")
	}
	if opts.archive && a.Archiver() == nil {
		return errors.New("--archive requires storage.backend")
	}
	rn := runner{profiler: a.Profiler(), logger: a.Logger().Named("probe")}
	if opts.save {
		rn.brands = a.Brands()
	}
	if opts.archive {
		rn.archiver = a.Archiver()
	}

	results := make([]probeResult, len(urls))
	ctx := cmd.Context()
	var g errgroup.Group
	g.SetLimit(max(opts.parallel, 1))
	for i, target := range urls {
		g.Go(func() error {
			results[i] = rn.run(ctx, target)
			return nil
		})
	}
	_ = g.Wait()

	enc := json.NewEncoder(cmd.OutOrStdout())
	if !opts.compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d probes failed", failed, len(urls))
	}
	return nil
}

// runner profiles one storefront, then saves and archives it when a store or archiver is set.
type runner struct {
	profiler *profiler.Profiler
	brands   storefront.BrandStore
	archiver *archive.Archiver
	logger   *zap.Logger
}

func (rn runner) run(ctx context.Context, raw string) probeResult {
	res := probeResult{URL: raw}
	target, err := fetch.NormalizeURL(raw)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	profile, err := rn.profiler.Profile(ctx, target)
	if err != nil {
		rn.logger.Warn("profile failed", zap.String("url", target), zap.Error(err))
		res.Error = err.Error()
		return res
	}
	res.Profile = profile

	if rn.brands != nil {
		id, err := rn.brands.SaveProfile(ctx, target, profile)
		if err != nil {
			res.Error = fmt.Sprintf("save profile: %v", err)
			return res
		}
		res.BrandID = &id
	}
	if rn.archiver != nil {
		out, err := rn.archiver.Archive(ctx, profile)
		res.Snapshot = out.URI
		if err != nil {
			res.Error = fmt.Sprintf("archive profile: %v", err)
		}
	}
	return res
}
