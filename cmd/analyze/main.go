package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"retailpulse/internal/analytics"
	"retailpulse/internal/config"
	"retailpulse/internal/exporter"
	"retailpulse/internal/files"
	"retailpulse/internal/infrastructure"
	"retailpulse/internal/services"
	"retailpulse/internal/validation"
	"retailpulse/pkg/contracts"
	api "retailpulse/pkg/contracts/api/v1"
	"retailpulse/pkg/contracts/domain"
)

// options are the parsed command line flags.
type options struct {
	in         string
	latest     bool
	sample     int
	sheet      string
	sheetRange string

	filter      api.FilterRequest
	sellingArea *float64
	traffic     *float64

	out        string
	format     string
	configPath string
	verbose    bool
	version    bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "analyze:", err)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	var opts options
	var categories, products string
	var area, traffic float64

	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.in, "in", "", "dataset file (.csv, .xlsx or .xlsm)")
	fs.BoolVar(&opts.latest, "latest", false, "load the newest dataset in the data directory")
	fs.IntVar(&opts.sample, "sample", 0, "generate a synthetic dataset of `N` rows")
	fs.StringVar(&opts.sheet, "sheet", "", "Google Sheets spreadsheet id or URL")
	fs.StringVar(&opts.sheetRange, "range", "", "Google Sheets range (default from config)")
	fs.StringVar(&opts.filter.StartDate, "start", "", "first day to include, YYYY-MM-DD")
	fs.StringVar(&opts.filter.EndDate, "end", "", "last day to include, YYYY-MM-DD")
	fs.StringVar(&categories, "categories", "", "comma separated categories to include")
	fs.StringVar(&products, "products", "", "comma separated products to include")
	fs.Float64Var(&area, "area", 0, "selling area in square feet")
	fs.Float64Var(&traffic, "traffic", 0, "store traffic (visitors)")
	fs.StringVar(&opts.out, "out", "", "export directory (default from config)")
	fs.StringVar(&opts.format, "format", "json", "json, csv or xlsx")
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.BoolVar(&opts.verbose, "v", false, "log progress to stderr")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "area":
			opts.sellingArea = &area
		case "traffic":
			opts.traffic = &traffic
		}
	})
	opts.filter.Categories = splitList(categories)
	opts.filter.Products = splitList(products)
	if opts.version {
		return &opts, nil
	}

	sources := 0
	for _, set := range []bool{opts.in != "", opts.latest, opts.sample > 0, opts.sheet != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return nil, errors.New("exactly one of -in, -latest, -sample or -sheet is required")
	}
	switch opts.format {
	case "json", string(exporter.FormatCSV), string(exporter.FormatXLSX):
	default:
		return nil, fmt.Errorf("unsupported format %q", opts.format)
	}
	return &opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return nil
	}
	criteria, err := opts.filter.Criteria()
	if err != nil {
		return err
	}

	cfg, err := config.LoadFrom(opts.configPath)
	if err != nil {
		return err
	}
	if opts.out != "" {
		cfg.Paths.ExportDir = opts.out
	}

	level := "warn"
	if opts.verbose {
		level = "info"
	}
	logger := infrastructure.NewLogger(stderr, config.LoggingConfig{Level: level, Format: "text"})

	pipelineOpts := []analytics.Option{}
	if opts.verbose {
		pipelineOpts = append(pipelineOpts, analytics.WithObserver(progressPrinter(stderr)))
	}
	fm := files.NewManager(cfg.Paths, validation.NewFileValidator(logger, cfg.Analysis.MaxUploadBytes), logger)
	svc := services.NewAnalysisService(services.AnalysisDeps{
		Pipeline:  analytics.NewPipeline(logger, pipelineOpts...),
		Files:     fm,
		Discovery: files.NewDiscovery(cfg.Paths.DataDir),
		Exporter:  exporter.New(fm, logger, nil),
		Analysis:  cfg.Analysis,
		SheetsCfg: cfg.Sheets,
		Logger:    logger,
	})

	result, err := load(ctx, svc, fm, opts)
	if err != nil {
		return err
	}
	if !criteria.IsEmpty() || opts.sellingArea != nil || opts.traffic != nil {
		result, err = svc.Analyze(ctx, services.AnalyzeInput{
			Filter:      criteria,
			SellingArea: opts.sellingArea,
			Traffic:     opts.traffic,
		})
		if err != nil {
			return err
		}
	}

	if opts.format == "json" {
		return writeJSON(stdout, svc, result)
	}

	if err := fm.CheckExportDir(); err != nil {
		return err
	}
	format, err := exporter.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	paths, err := svc.ExportAll(ctx, format)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(stdout, p)
	}
	return nil
}

func load(ctx context.Context, svc *services.AnalysisService, fm *files.Manager, opts *options) (*domain.AnalysisResult, error) {
	switch {
	case opts.in != "":
		rows, err := fm.ReadDataset(opts.in)
		if err != nil {
			return nil, err
		}
		return svc.LoadRows(ctx, services.SourceFile, filepath.Base(opts.in), rows)
	case opts.latest:
		return svc.LoadLatest(ctx)
	case opts.sheet != "":
		return svc.LoadSheet(ctx, opts.sheet, opts.sheetRange)
	default:
		return svc.LoadSample(ctx, opts.sample)
	}
}

func writeJSON(w io.Writer, svc *services.AnalysisService, result *domain.AnalysisResult) error {
	summary, err := svc.Dataset()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"dataset": summary,
		"result":  result,
	})
}

// progressPrinter writes one line per finished stage.
func progressPrinter(w io.Writer) analytics.Observer {
	return analytics.ObserverFunc(func(_ context.Context, ev analytics.StageEvent) {
		if ev.Status == analytics.StageStarted {
			return
		}
		fmt.Fprintf(w, "[%d/%d] %s: %s (%s)\n", ev.Index, ev.Total, ev.Stage, ev.Status, ev.Duration)
	})
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}
