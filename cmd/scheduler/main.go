package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/pc-discussion-scheduler/internal/dto"
	"github.com/noah-isme/pc-discussion-scheduler/internal/ingest"
	"github.com/noah-isme/pc-discussion-scheduler/internal/models"
	"github.com/noah-isme/pc-discussion-scheduler/internal/service"
	"github.com/noah-isme/pc-discussion-scheduler/pkg/config"
	"github.com/noah-isme/pc-discussion-scheduler/pkg/logger"
)

type options struct {
	availability string
	assignments  string
	conflicts    string
	papers       string
	out          string
	detailOut    string
	format       string
	label        string
	capacity     int
	floor        optionalInt
	issueToken   string
}

// optionalInt distinguishes an explicit 0 from an absent flag.
type optionalInt struct {
	value int
	set   bool
}

func (o *optionalInt) String() string {
	if !o.set {
		return ""
	}
	return strconv.Itoa(o.value)
}

func (o *optionalInt) Set(raw string) error {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	o.value = v
	o.set = true
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(context.Background(), os.Args[1:], cfg, logr, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "scheduler: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("scheduler", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.availability, "availability", "", "Availability poll CSV (email column plus one column per slot)")
	fs.StringVar(&opts.assignments, "assignments", "", "Review assignment CSV (paper, email[, action])")
	fs.StringVar(&opts.conflicts, "conflicts", "", "Optional conflict CSV (paper, email)")
	fs.StringVar(&opts.papers, "papers", "", "Optional paper metadata CSV (ID, Title)")
	fs.StringVar(&opts.out, "out", "schedule.csv", "Output path for the slot grid, '-' for stdout")
	fs.StringVar(&opts.detailOut, "detail-out", "", "Optional output path for the per-paper listing")
	fs.StringVar(&opts.format, "format", string(models.ExportFormatCSV), "Output format: csv, pdf or yaml")
	fs.StringVar(&opts.label, "label", "", "Label printed in rendered outputs")
	fs.IntVar(&opts.capacity, "capacity", 0, "Slot capacity C, papers per slot is C-1 (default from config)")
	fs.Var(&opts.floor, "floor", "Pin the lowest threshold visited instead of deriving it")
	fs.StringVar(&opts.issueToken, "issue-token", "", "Print an API token for the named operator and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.format = strings.ToLower(strings.TrimSpace(opts.format))
	return opts, nil
}

func run(ctx context.Context, args []string, cfg *config.Config, logr *zap.Logger, stdout io.Writer) error {
	opts, err := parseFlags(args, stdout)
	if err != nil {
		return err
	}

	if opts.issueToken != "" {
		return issueToken(cfg, logr, opts.issueToken, stdout)
	}

	if opts.availability == "" || opts.assignments == "" {
		return errors.New("-availability and -assignments are required")
	}
	format := models.ExportFormat(opts.format)
	if !format.Valid() {
		return fmt.Errorf("unsupported format %q", opts.format)
	}

	tables, err := readTables(opts, cfg.Scheduler)
	if err != nil {
		return err
	}

	scheduleCfg := service.ScheduleServiceConfig{
		SlotCount:       cfg.Scheduler.SlotCount,
		Capacity:        cfg.Scheduler.Capacity,
		ThresholdFloor:  cfg.Scheduler.ThresholdFloor,
		DeriveFloor:     cfg.Scheduler.DeriveFloor,
		EnforceCapacity: cfg.Scheduler.EnforceCapacity,
	}
	if opts.floor.set {
		scheduleCfg.ThresholdFloor = opts.floor.value
		scheduleCfg.DeriveFloor = false
	}
	var capacity *int
	if opts.capacity > 0 {
		capacity = &opts.capacity
	}

	exporter := service.NewExportService(nil, nil, nil, service.ExportConfig{}, logr)
	svc := service.NewScheduleService(nil, nil, nil, nil, nil, exporter, nil, logr, scheduleCfg)

	result, err := svc.RunTables(ctx, tables, opts.label, "cli", capacity)
	if err != nil {
		return err
	}

	if err := writeArtifact(exporter, result, format, false, opts.out, stdout); err != nil {
		return err
	}
	if opts.detailOut != "" {
		if err := writeArtifact(exporter, result, format, true, opts.detailOut, stdout); err != nil {
			return err
		}
	}

	if len(result.Unscheduled) > 0 {
		logr.Warn("papers left unscheduled", zap.Int("count", len(result.Unscheduled)))
	}
	if opts.out != "-" {
		fmt.Fprintln(stdout, renderSummary(result))
	}
	return nil
}

func readTables(opts options, sched config.SchedulerConfig) (ingest.Tables, error) {
	var tables ingest.Tables
	err := withFile(opts.availability, func(r io.Reader) error {
		rows, err := ingest.ReadAvailability(r, sched.EmailColumn, sched.SlotCount)
		tables.Availability = rows
		return err
	})
	if err != nil {
		return tables, err
	}
	err = withFile(opts.assignments, func(r io.Reader) error {
		rows, err := ingest.ReadAssignments(r)
		tables.Assignments = rows
		return err
	})
	if err != nil {
		return tables, err
	}
	if opts.conflicts != "" {
		err = withFile(opts.conflicts, func(r io.Reader) error {
			rows, err := ingest.ReadConflicts(r)
			tables.Conflicts = rows
			return err
		})
		if err != nil {
			return tables, err
		}
	}
	if opts.papers != "" {
		err = withFile(opts.papers, func(r io.Reader) error {
			rows, err := ingest.ReadPapers(r)
			tables.Papers = rows
			return err
		})
		if err != nil {
			return tables, err
		}
	}
	return tables, nil
}

func withFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func writeArtifact(exporter *service.ExportService, run *dto.ScheduleRunResponse, format models.ExportFormat, detail bool, path string, stdout io.Writer) error {
	artifact, err := exporter.Render(run, format, detail)
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = stdout.Write(artifact.Data)
		return err
	}
	return os.WriteFile(path, artifact.Data, 0o644)
}

func issueToken(cfg *config.Config, logr *zap.Logger, operator string, stdout io.Writer) error {
	auth := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	token, expiresAt, err := auth.IssueToken(operator)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, token)
	logr.Sugar().Infow("token issued", "operator", operator, "expires_at", expiresAt)
	return nil
}
