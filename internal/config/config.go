package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"rangescan/internal/ranger"
)

var errSizingConflict = errors.New("batch-size and batch-count are mutually exclusive")

// Sizing selects how an interval is cut into batches. At most one field may be set.
type Sizing struct {
	BatchSize  int64 `yaml:"batch_size"`
	BatchCount int64 `yaml:"batch_count"`
}

func (s Sizing) Validate() error {
	if s.BatchSize != 0 && s.BatchCount != 0 {
		return errSizingConflict
	}
	if s.BatchSize < 0 {
		return &ranger.ArgumentError{Name: "batch size", Value: s.BatchSize}
	}
	if s.BatchCount < 0 {
		return &ranger.ArgumentError{Name: "batch count", Value: s.BatchCount}
	}
	return nil
}

func (s Sizing) IsSet() bool {
	return s.BatchSize != 0 || s.BatchCount != 0
}

// Partition builds the partitioner for [min, max]. With neither field set the
// interval is cut into fallbackCount batches.
func (s Sizing) Partition(min, max int64, fallbackCount int64) (ranger.Partitioner, error) {
	if err := s.Validate(); err != nil {
		return ranger.Partitioner{}, err
	}

	iv, err := ranger.New(min, max)
	if err != nil {
		return ranger.Partitioner{}, err
	}

	switch {
	case s.BatchSize > 0:
		return iv.WithBatchSize(s.BatchSize)
	case s.BatchCount > 0:
		return iv.WithBatchCount(s.BatchCount)
	default:
		return iv.WithBatchCount(fallbackCount)
	}
}

func (s *Sizing) register(fs *flag.FlagSet) {
	fs.Int64Var(&s.BatchSize, "batch-size", s.BatchSize, "Target number of key values per batch (exclusive with -batch-count)")
	fs.Int64Var(&s.BatchCount, "batch-count", s.BatchCount, "Target number of batches (exclusive with -batch-size)")
}

// keepFlagMode drops the sizing mode loaded from a config file when exactly one
// sizing flag was given on the command line. Both flags still conflict.
func (s *Sizing) keepFlagMode(fs *flag.FlagSet) {
	var size, count bool
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "batch-size":
			size = true
		case "batch-count":
			count = true
		}
	})

	switch {
	case size && !count:
		s.BatchCount = 0
	case count && !size:
		s.BatchSize = 0
	}
}

// parseWithFile parses args into the flags of fs. When *path is set after the
// first pass the YAML file is decoded into dst and args are parsed again, so
// flags given on the command line win over file values.
func parseWithFile(fs *flag.FlagSet, args []string, path *string, dst any) error {
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *path == "" {
		return nil
	}

	if err := loadYAML(*path, dst); err != nil {
		return err
	}

	return fs.Parse(args)
}

func loadYAML(path string, dst any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	return nil
}
