// Command analyze runs the pipeline once from the command line: NLP
// enrichment, network analysis, or both.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/signalwatch/propagraph/internal/bootstrap"
	"github.com/signalwatch/propagraph/internal/config"
	"github.com/signalwatch/propagraph/internal/logging"
)

func main() {
	var (
		nlpOnly     = flag.Bool("nlp-only", false, "run only NLP enrichment")
		networkOnly = flag.Bool("network-only", false, "run only network analysis")
		limit       = flag.Int("limit", 0, "items per batch (default: configured batch size)")
		days        = flag.Int("days", 0, "network lookback window in days (default: configured)")
		configPath  = flag.String("config", "", "path to config file")
	)
	flag.Parse()

	if *nlpOnly && *networkOnly {
		fmt.Fprintln(os.Stderr, "--nlp-only and --network-only are mutually exclusive")
		os.Exit(2)
	}

	path := *configPath
	if path == "" {
		path = config.GetConfigPath("config.yml")
	}

	app, err := bootstrap.New(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batchLimit := *limit
	if batchLimit <= 0 {
		batchLimit = app.Config.Pipeline.BatchSize
	}

	if err := run(ctx, app, *nlpOnly, *networkOnly, batchLimit, *days); err != nil {
		app.Logger.Error("Run failed", logging.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, app *bootstrap.App, nlpOnly, networkOnly bool, limit, days int) error {
	switch {
	case nlpOnly:
		report, err := app.Runner.RunNLP(ctx, limit)
		if report != nil {
			printNLP(report.Claimed, report.Committed, report.Skipped, report.Failed, report.EdgesCreated)
		}
		return err
	case networkOnly:
		report, err := app.Runner.RunNetwork(ctx, days)
		if report != nil {
			printNetwork(report.Nodes, report.Edges, report.Communities, len(report.Events), report.ExportPath)
		}
		return err
	default:
		nlpReport, netReport, err := app.Runner.RunFull(ctx, limit, days)
		if nlpReport != nil {
			printNLP(nlpReport.Claimed, nlpReport.Committed, nlpReport.Skipped, nlpReport.Failed, nlpReport.EdgesCreated)
		}
		if netReport != nil {
			printNetwork(netReport.Nodes, netReport.Edges, netReport.Communities, len(netReport.Events), netReport.ExportPath)
		}
		return err
	}
}

func printNLP(claimed, committed, skipped, failed, edges int) {
	fmt.Printf("nlp: claimed=%d committed=%d skipped=%d failed=%d edges=%d\n",
		claimed, committed, skipped, failed, edges)
}

func printNetwork(nodes, edges, communities, events int, exportPath string) {
	fmt.Printf("network: nodes=%d edges=%d communities=%d coordinated_events=%d export=%s\n",
		nodes, edges, communities, events, exportPath)
}
