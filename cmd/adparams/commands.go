package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ducminhle1904/ad-params/cmd/common"
	"github.com/ducminhle1904/ad-params/internal/ad"
	"github.com/ducminhle1904/ad-params/internal/api"
	"github.com/ducminhle1904/ad-params/internal/buildmode"
	"github.com/ducminhle1904/ad-params/internal/config"
	"github.com/ducminhle1904/ad-params/internal/monitoring"
	"github.com/ducminhle1904/ad-params/internal/report"
	"github.com/ducminhle1904/ad-params/internal/source"
	"github.com/ducminhle1904/ad-params/pkg/params"
)

const shutdownTimeout = 5 * time.Second

func runFields(_ context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	c := newCommandFlags("fields", stdout)
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	a, err := c.setup(stdin, stdout)
	if err != nil {
		return err
	}
	defer a.log.Close()

	reg, err := ad.NewRegistry()
	if err != nil {
		return err
	}
	report.Fields(stdout, reg)
	return nil
}

func runShow(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	c := newCommandFlags("show", stdout).withModeFlags()
	symbol := c.fs.String("symbol", "", "Symbol, empty for the timeframe-wide set")
	tfName := c.fs.String("tf", "H1", "Timeframe (M1..MN1, or 1m/4h/1d)")
	showLayers := c.fs.Bool("layers", false, "Also print the layers behind each scope")
	asJSON := c.fs.Bool("json", false, "Print the typed parameters as JSON")
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	tf, err := params.ParseTimeframe(*tfName)
	if err != nil {
		return err
	}
	if *asJSON && *showLayers {
		return common.NewFlagValidator().AddError("layers cannot be combined with json output").GetError()
	}

	a, err := c.setup(stdin, stdout)
	if err != nil {
		return err
	}
	defer a.log.Close()

	r, err := a.newResolver(ctx, c)
	if err != nil {
		return err
	}
	p, err := r.Resolve(ctx, *symbol, tf)
	if err != nil {
		return err
	}

	if *asJSON {
		indi, stg, err := p.Bind()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Indicator ad.IndicatorParams `json:"indicator"`
			Strategy  ad.StrategyParams  `json:"strategy"`
		}{indi, stg})
	}

	report.Params(stdout, p)
	if *showLayers {
		for _, s := range ad.Scopes() {
			layers, err := r.Layers(ctx, s, *symbol, tf)
			if err != nil {
				return err
			}
			report.Layers(stdout, s, layers)
		}
	}
	return nil
}

func runSweep(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	c := newCommandFlags("sweep", stdout).withModeFlags()
	symbol := c.fs.String("symbol", "", "Symbol, empty for the timeframe-wide set")
	tfName := c.fs.String("tf", "H1", "Timeframe (M1..MN1, or 1m/4h/1d)")
	xlsxPath := c.fs.String("xlsx", "", "Write every point to this workbook")
	workers := c.fs.Int("workers", -1, "Validation workers, 0 for one per CPU (default from "+config.EnvWorkers+")")
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	tf, err := params.ParseTimeframe(*tfName)
	if err != nil {
		return err
	}
	validator := common.NewFlagValidator().ValidateSuffix("xlsx", *xlsxPath, ".xlsx")
	if *workers >= 0 {
		validator.ValidateInt("workers", *workers, 0, 256)
	}
	if validator.HasErrors() {
		return validator.GetError()
	}

	a, err := c.setup(stdin, stdout)
	if err != nil {
		return err
	}
	defer a.log.Close()
	if *workers < 0 {
		*workers = a.settings.Workers
	}

	r, err := a.newResolver(ctx, c)
	if err != nil {
		return err
	}
	s, err := r.Sweep(ctx, *symbol, tf)
	if err != nil {
		return err
	}
	report.SweepSummary(stdout, s)

	run := report.SweepRun{ID: uuid.NewString(), Symbol: params.NormalizeSymbol(*symbol), Timeframe: tf, Started: time.Now()}
	log := a.log.With().Str("run_id", run.ID).Str("symbol", run.Symbol).Str("timeframe", tf.String()).Logger()

	if *xlsxPath != "" {
		valid, err := report.WriteSweepXLSX(*xlsxPath, run, s)
		if err != nil {
			return fmt.Errorf("failed to write sweep workbook: %w", err)
		}
		log.Info().Str("file", *xlsxPath).Int("points", s.Len()).Int("valid", valid).Msg("Sweep exported")
		fmt.Fprintf(stdout, "✅ %d/%d valid points written to %s\n", valid, s.Len(), *xlsxPath)
		return nil
	}

	var valid atomic.Int64
	err = s.Run(ctx, *workers, func(_ context.Context, _ int, p ad.Params) error {
		if _, _, err := p.Bind(); err != nil {
			return err
		}
		valid.Add(1)
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().Int("points", s.Len()).Int64("valid", valid.Load()).Dur("elapsed", time.Since(run.Started)).Msg("Sweep validated")
	fmt.Fprintf(stdout, "✅ %d/%d valid points\n", valid.Load(), s.Len())
	return nil
}

func runServe(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	c := newCommandFlags("serve", stdout).withModeFlags()
	addr := c.fs.String("addr", "", "Listen address, overrides ADPARAMS_HTTP_ADDR")
	if err := c.fs.Parse(args); err != nil {
		return err
	}

	a, err := c.setup(stdin, stdout)
	if err != nil {
		return err
	}
	defer a.log.Close()
	if *addr == "" {
		*addr = a.settings.HTTPAddr
	}

	health := monitoring.NewHealthChecker(buildmode.Mode().String(), a.sourcePath(c))
	r, err := a.newResolver(ctx, c)
	health.RecordLoad(err)
	if err != nil {
		return err
	}

	srv := api.NewServer(r, health, a.log.Logger)
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", *addr).Str("mode", r.Mode().String()).Msg("API server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	a.log.Info().Msg("API server stopped")
	return nil
}

func runImport(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	c := newCommandFlags("import", stdout)
	from := c.fs.String("from", "", "Override file (.yaml, .yml, .json)")
	to := c.fs.String("to", "", "SQLite store (.db, .sqlite, .sqlite3)")
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	validator := common.NewFlagValidator().
		ValidateFile("from", *from, true).
		ValidateSuffix("from", *from, ".yaml", ".yml", ".json").
		ValidateRequired("to", *to).
		ValidateSuffix("to", *to, ".db", ".sqlite", ".sqlite3")
	if validator.HasErrors() {
		return validator.GetError()
	}

	a, err := c.setup(stdin, stdout)
	if err != nil {
		return err
	}
	defer a.log.Close()

	reg, err := ad.NewRegistry()
	if err != nil {
		return err
	}
	n, err := source.ImportFile(ctx, reg, *from, *to, a.log.Logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "✅ Imported %d override values into %s\n", n, *to)
	return nil
}

func runExport(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	c := newCommandFlags("export", stdout)
	from := c.fs.String("from", "", "Override file or SQLite store")
	to := c.fs.String("to", "", "Output YAML file")
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	validator := common.NewFlagValidator().
		ValidateFile("from", *from, true).
		ValidateRequired("to", *to).
		ValidateSuffix("to", *to, ".yaml", ".yml")
	if validator.HasErrors() {
		return validator.GetError()
	}

	a, err := c.setup(stdin, stdout)
	if err != nil {
		return err
	}
	defer a.log.Close()

	reg, err := ad.NewRegistry()
	if err != nil {
		return err
	}
	snap, err := source.Open(ctx, *from, reg, a.log.Logger)
	if err != nil {
		return err
	}
	if err := source.WriteFile(*to, snap.Document()); err != nil {
		return fmt.Errorf("failed to write %s: %w", *to, err)
	}
	fmt.Fprintf(stdout, "✅ Exported %d entries from %s to %s\n", snap.Len(), *from, *to)
	return nil
}
