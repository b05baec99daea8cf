package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ducminhle1904/ad-params/cmd/common"
)

const appName = "adparams"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func usage() *common.UsageFormatter {
	return common.NewUsageFormatter(appName, "AD strategy parameter resolver").
		AddCommand("fields", "List every parameter with its default and constraints").
		AddCommand("show", "Resolve the indicator and strategy sets for a symbol and timeframe").
		AddCommand("sweep", "Expand the optimization ranges (optimize builds)").
		AddCommand("serve", "Serve the inspection API and Prometheus metrics").
		AddCommand("import", "Validate an override file and sync it into a SQLite store").
		AddCommand("export", "Write an override file or store back out as YAML").
		AddCommand("version", "Show version and compiled feature mode").
		AddExample(appName+" show -symbol EURUSD -tf H1 -layers", "Resolved values with the layers behind them").
		AddExample(appName+" show -symbol EURUSD -tf M5 -set signal_open_level=60", "Try a value (input builds)").
		AddExample(appName+" sweep -symbol EURUSD -tf H1 -range signal_open_level=20:80:10 -xlsx sweep.xlsx",
			"Export an optimization grid (optimize builds)")
}

// run dispatches one subcommand
func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		usage().PrintUsage(stdout)
		return errors.New("no command given")
	}

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "fields":
		err = runFields(ctx, rest, stdin, stdout)
	case "show":
		err = runShow(ctx, rest, stdin, stdout)
	case "sweep":
		err = runSweep(ctx, rest, stdin, stdout)
	case "serve":
		err = runServe(ctx, rest, stdin, stdout)
	case "import":
		err = runImport(ctx, rest, stdin, stdout)
	case "export":
		err = runExport(ctx, rest, stdin, stdout)
	case "version", "-version", "--version":
		common.PrintVersion(stdout, appName)
	case "help", "-h", "-help", "--help":
		usage().PrintUsage(stdout)
	default:
		usage().PrintUsage(stdout)
		return fmt.Errorf("unknown command %q", cmd)
	}
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}
