package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"rangescan/internal/config"
	"rangescan/internal/ranger"
	"rangescan/internal/util"
)

type planBatch struct {
	From int64  `yaml:"from"`
	To   int64  `yaml:"to"`
	Size uint64 `yaml:"size"`
}

func plan(args []string) {
	cfg := config.ParsePlanConfig(args)

	p, err := cfg.Partition(cfg.Min, cfg.Max, 1)
	if err != nil {
		log.Fatalf("[FATAL] plan: %v", err)
	}

	log.Printf("[INFO] range [%d..%d]: %s values in %s batches",
		cfg.Min, cfg.Max, util.FormatNumber(p.Interval().Span()), util.FormatNumber(p.NumBatches()))

	out := bufio.NewWriter(os.Stdout)
	if err := writePlan(out, p, cfg.Format); err != nil {
		log.Fatalf("[FATAL] plan: %v", err)
	}
	if err := out.Flush(); err != nil {
		log.Fatalf("[FATAL] plan: %v", err)
	}
}

func writePlan(w io.Writer, p ranger.Partitioner, format string) error {
	switch format {
	case "yaml":
		return writePlanYAML(w, p)

	case "text", "":
		return writePlanText(w, p)

	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// writePlanText prints a right-aligned table. Column widths are known up front
// (the first batch is the widest), so rows are written as they are produced.
func writePlanText(w io.Writer, p ranger.Partitioner) error {
	iv := p.Interval()
	idxW := len(strconv.FormatUint(p.NumBatches(), 10))
	keyW := max(len(strconv.FormatInt(iv.Min(), 10)), len(strconv.FormatInt(iv.Max(), 10)), len("from"))

	var sizeW int
	p.Each(func(r ranger.Range) bool {
		sizeW = len(util.FormatNumber(r.Len()))
		return false
	})
	sizeW = max(sizeW, len("size"))

	if _, err := fmt.Fprintf(w, "%*s  %*s  %*s  %*s\n", idxW, "#", keyW, "from", keyW, "to", sizeW, "size"); err != nil {
		return err
	}

	var i uint64
	var werr error
	p.Each(func(r ranger.Range) bool {
		i++
		_, werr = fmt.Fprintf(w, "%*d  %*d  %*d  %*s\n", idxW, i, keyW, r.From, keyW, r.To, sizeW, util.FormatNumber(r.Len()))
		return werr == nil
	})

	return werr
}

// writePlanYAML streams the document `batches: [{from, to, size}, ...]` one
// batch at a time, so the batch count is never materialized.
func writePlanYAML(w io.Writer, p ranger.Partitioner) error {
	if p.NumBatches() == 0 {
		_, err := io.WriteString(w, "batches: []\n")
		return err
	}

	if _, err := io.WriteString(w, "batches:\n"); err != nil {
		return err
	}

	var werr error
	p.Each(func(r ranger.Range) bool {
		var raw []byte
		raw, werr = yaml.Marshal(planBatch{From: r.From, To: r.To, Size: r.Len()})
		if werr != nil {
			return false
		}

		lines := strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
		for i, line := range lines {
			prefix := "    "
			if i == 0 {
				prefix = "  - "
			}
			if _, werr = io.WriteString(w, prefix+line+"\n"); werr != nil {
				return false
			}
		}
		return true
	})

	return werr
}
