package main

import (
	"context"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rangescan/internal/archive"
	"rangescan/internal/config"
	"rangescan/internal/dbx"
	"rangescan/internal/exporter"
	"rangescan/internal/metrics"
	"rangescan/internal/progress"
	"rangescan/internal/util"
)

func export(args []string) {
	cfg := config.ParseExportConfig(args)
	log.SetOutput(os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 2)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() { <-sig; cancel() }()

	db := dbx.MustOpen(cfg.DSN, cfg.Workers)
	defer db.Close()

	minPK, maxPK, err := dbx.PKRange(ctx, db, cfg.Table, cfg.PK, cfg.Where)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	if minPK == nil || maxPK == nil {
		log.Println("[INFO] No rows.")
		return
	}
	log.Printf("[INFO] PK range: [%d..%d]", *minPK, *maxPK)

	part, err := cfg.Partition(*minPK, *maxPK, int64(cfg.Workers))
	if err != nil {
		log.Fatalf("[FATAL] partition: %v", err)
	}
	batches, err := part.Batches()
	if err != nil {
		log.Fatalf("[FATAL] partition: %v (use a larger -batch-size or a smaller -batch-count)", err)
	}
	log.Printf("[INFO] %s batches over %d workers", util.FormatNumber(part.NumBatches()), cfg.Workers)

	var collector metrics.Collector = metrics.Nop{}
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		collector = metrics.NewPrometheus(reg, "")
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, reg); err != nil {
				log.Printf("[WARN] metrics server: %v", err)
			}
		}()
	}
	collector.SetPlanned(part.NumBatches())

	stats := exporter.NewStats(part.NumBatches())
	start := time.Now()

	progCtx, stopProgress := context.WithCancel(ctx)
	var prog *progress.Reporter
	if cfg.ProgressEvery > 0 {
		prog = progress.New(stats, part.Interval().Span(), cfg.ProgressEvery, cfg.ProgressInline, start)
		prog.Start(progCtx)
	}

	err = exporter.Run(ctx, db, cfg, batches, stats, collector)

	stopProgress()
	if prog != nil {
		prog.WaitAndFinish()
	}

	if err != nil {
		printFinalStat(start, stats, true)
		log.Fatalf("[FATAL] export: %v", err)
	}

	printFinalStat(start, stats, false)

	if cfg.Archive {
		archiveAndSafeRemove(cfg.OutDir)
	}
}

func printFinalStat(start time.Time, stats *exporter.Stats, failed bool) {
	elapsed := time.Since(start)
	rows := stats.Rows.Load()
	files := stats.Files.Load()
	rps := float64(rows) / math.Max(elapsed.Seconds(), 0.0001)

	avg := uint64(0)
	if files > 0 {
		avg = rows / files
	}

	title := "[EXPORT SUCCESS]"
	if failed {
		title = "[EXPORT FAILED]"
	}

	log.Println("------------------------------------------------------------")
	log.Println(title)
	log.Printf("[STATS] batches: %s/%s (retries: %s)",
		util.FormatNumber(stats.Done.Load()), util.FormatNumber(stats.Planned()), util.FormatNumber(stats.Retries.Load()))
	log.Printf("[STATS] rows: %s", util.FormatNumber(rows))
	log.Printf("[STATS] chunks(files): %s", util.FormatNumber(files))
	log.Printf("[STATS] avg rows/chunk: %s", util.FormatNumber(avg))
	log.Printf("[STATS] elapsed: %s", elapsed.Truncate(time.Second))
	log.Printf("[STATS] speed: %.0f rows/s", rps)
	log.Println("------------------------------------------------------------")
}

func archiveAndSafeRemove(outDir string) {
	if _, err := os.Stat(outDir); os.IsNotExist(err) {
		log.Printf("[INFO] nothing to archive in %s", outDir)
		return
	}

	archivePath := outDir + ".tar.gz"
	startZip := time.Now()

	n, err := archive.TarGzDir(outDir, archivePath)
	if err != nil {
		log.Printf("[WARN] cannot archive export dir: %v", err)
		return
	}

	log.Printf("[INFO] archive created: %s (%d files in %s)", archivePath, n, time.Since(startZip).Truncate(time.Second))

	if err := util.SafeRemoveDir(outDir); err != nil {
		log.Printf("[WARN] export dir not removed: %v", err)
	} else {
		log.Printf("[INFO] removed export dir: %s", outDir)
	}
}
