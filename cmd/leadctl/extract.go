package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/octobees/leads-extractor/internal/app"
	"github.com/octobees/leads-extractor/internal/dto"
	"github.com/octobees/leads-extractor/internal/handler"
	"github.com/octobees/leads-extractor/internal/scraper"
	"github.com/octobees/leads-extractor/internal/service"
)

type extractFlags struct {
	category string
	area     string
	city     string
	state    string
	country  string
	skip     []string
	skipFile string
	resume   bool
	out      string
	progress bool
}

func newExtractCmd() *cobra.Command {
	var f extractFlags
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run one extraction session and write the leads as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, zl, err := loadEnv()
			if err != nil {
				return err
			}
			defer zl.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			stack, err := app.Build(ctx, cfg, zl)
			if err != nil {
				return err
			}
			defer stack.Close()

			out := cmd.OutOrStdout()
			if f.out != "" && f.out != "-" {
				file, err := os.Create(f.out)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer file.Close()
				out = file
			}

			return runExtract(ctx, stack.Service, f, out, cmd.ErrOrStderr(), zl)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.category, "category", "", "business category to search for")
	flags.StringVar(&f.area, "area", "", "area or district")
	flags.StringVar(&f.city, "city", "", "city")
	flags.StringVar(&f.state, "state", "", "state or province")
	flags.StringVar(&f.country, "country", "", "country")
	flags.StringSliceVar(&f.skip, "skip", nil, "card ids already delivered")
	flags.StringVar(&f.skipFile, "skip-file", "", "earlier output whose lead ids are skipped")
	flags.BoolVar(&f.resume, "resume", false, "also skip ids already stored in the database")
	flags.StringVarP(&f.out, "out", "o", "-", "output file, - for stdout")
	flags.BoolVar(&f.progress, "progress", false, "print progress events to stderr")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func runExtract(ctx context.Context, searcher handler.Searcher, f extractFlags, out, errOut io.Writer, log *zap.Logger) error {
	skip := append([]string{}, f.skip...)
	if f.skipFile != "" {
		ids, err := readSkipFile(f.skipFile)
		if err != nil {
			return err
		}
		skip = append(skip, ids...)
	}

	in := service.SearchInput{
		Keyword:  f.category,
		Location: service.BuildLocation(f.area, f.city, f.state, f.country),
		SkipIDs:  skip,
		Resume:   f.resume,
	}
	if f.progress {
		enc := json.NewEncoder(errOut)
		in.OnProgress = func(ev scraper.Event) {
			_ = enc.Encode(ev)
		}
	}

	res, runErr := searcher.Search(ctx, in)
	if service.IsValidation(runErr) {
		return runErr
	}

	resp := dto.SearchResponse{Success: runErr == nil, Data: []scraper.Lead{}}
	if res != nil && res.Result != nil {
		resp.RunID = res.RunID.String()
		resp.Data = res.Result.Leads
		resp.Count = len(res.Result.Leads)
		resp.Meta = res.Result.Meta
	}
	if runErr != nil {
		resp.Error = runErr.Error()
		log.Error("leadctl: session aborted", zap.Int("leads", resp.Count), zap.Error(runErr))
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return runErr
}

// readSkipFile accepts either an earlier extract output or a plain JSON array of ids.
func readSkipFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skip file: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err == nil {
		return ids, nil
	}

	var prev dto.SearchResponse
	if err := json.Unmarshal(data, &prev); err != nil {
		return nil, errors.New("skip file is neither an id list nor an extract output")
	}
	res := scraper.Result{Leads: prev.Data}
	return res.IDs(), nil
}
