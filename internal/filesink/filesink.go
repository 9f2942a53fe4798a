// Package filesink writes CSV rows into gzip chunk files of a fixed row count.
package filesink

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink is owned by a single worker and is not safe for concurrent use.
type FileSink struct {
	dir         string
	prefix      string
	rotateEvery int
	header      []string

	chunk  int
	rowsIn int
	paths  []string

	f   *os.File
	bw  *bufio.Writer
	gz  *gzip.Writer
	csv *csv.Writer
}

// New returns a sink writing <dir>/<prefix>_NNNNNN.csv.gz files of at most
// rotateEvery rows each. Files are created lazily on the first row.
func New(dir, prefix string, rotateEvery int) *FileSink {
	if rotateEvery < 1 {
		rotateEvery = 1
	}

	return &FileSink{
		dir:         dir,
		prefix:      prefix,
		rotateEvery: rotateEvery,
	}
}

// SetHeader makes every chunk opened from now on start with cols.
func (s *FileSink) SetHeader(cols []string) {
	s.header = append([]string(nil), cols...)
}

// Write appends one row. When the row fills the current chunk the chunk is
// closed and rotated reports its row count.
func (s *FileSink) Write(rec []string) (rotated int, err error) {
	if s.csv == nil {
		if err := s.open(); err != nil {
			return 0, err
		}
	}

	if err := s.csv.Write(rec); err != nil {
		return 0, err
	}

	s.rowsIn++

	if s.rowsIn >= s.rotateEvery {
		return s.Close()
	}

	return 0, nil
}

// Close finishes the open chunk, if any, and returns how many rows it holds.
// The sink stays usable; the next Write opens a new chunk.
func (s *FileSink) Close() (int, error) {
	rows := s.rowsIn

	var err error
	keep := func(e error) {
		if e != nil && err == nil {
			err = e
		}
	}

	if s.csv != nil {
		s.csv.Flush()
		keep(s.csv.Error())
	}
	if s.gz != nil {
		keep(s.gz.Close())
	}
	if s.bw != nil {
		keep(s.bw.Flush())
	}
	if s.f != nil {
		keep(s.f.Close())
	}

	s.f, s.bw, s.gz, s.csv = nil, nil, nil, nil
	s.rowsIn = 0

	if err != nil {
		return 0, err
	}

	return rows, nil
}

func (s *FileSink) RowsInChunk() int {
	return s.rowsIn
}

// Paths lists every chunk file opened so far.
func (s *FileSink) Paths() []string {
	return append([]string(nil), s.paths...)
}

func (s *FileSink) open() error {
	s.chunk++
	path := filepath.Join(s.dir, fmt.Sprintf("%s_%06d.csv.gz", s.prefix, s.chunk))

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(f, 1<<20)
	gz, err := gzip.NewWriterLevel(bw, gzip.BestSpeed)
	if err != nil {
		_ = f.Close()
		return err
	}

	s.f, s.bw, s.gz = f, bw, gz
	s.csv = csv.NewWriter(gz)
	s.rowsIn = 0
	s.paths = append(s.paths, path)

	if len(s.header) > 0 {
		if err := s.csv.Write(s.header); err != nil {
			return err
		}
	}

	return nil
}
