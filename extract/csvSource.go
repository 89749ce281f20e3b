package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// CSVDirSource reads customers.csv, products.csv, orders.csv and order_items.csv from Dir.
type CSVDirSource struct {
	Dir string
	// GenerateIfMissing writes a synthetic data set into Dir when any file is absent.
	GenerateIfMissing bool
	Generator         *Generator
	Logger            *logrus.Logger
}

func NewCSVDirSource(dir string, generateIfMissing bool, logger *logrus.Logger) *CSVDirSource {
	if logger == nil {
		logger = logrus.New()
	}
	return &CSVDirSource{
		Dir:               dir,
		GenerateIfMissing: generateIfMissing,
		Logger:            logger,
	}
}

func (s *CSVDirSource) Extract(ctx context.Context) (*RawData, error) {
	if err := s.ensureFiles(); err != nil {
		return nil, err
	}

	data := &RawData{}
	for _, kind := range Kinds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(s.Dir, kind+".csv")
		t, err := readCSVFile(path, kind)
		if err != nil {
			return nil, err
		}
		if err := data.set(kind, t); err != nil {
			return nil, err
		}
		s.Logger.WithFields(logrus.Fields{
			"field": "CSVDirSource.Extract",
			"table": kind,
			"rows":  t.Len(),
		}).Info("extracted raw table")
	}
	return data, nil
}

func (s *CSVDirSource) ensureFiles() error {
	var missing []string
	for _, kind := range Kinds {
		_, err := os.Stat(filepath.Join(s.Dir, kind+".csv"))
		if errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, kind+".csv")
		} else if err != nil {
			return err
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if !s.GenerateIfMissing {
		return fmt.Errorf("raw files missing in %s: %v: %w", s.Dir, missing, fs.ErrNotExist)
	}

	s.Logger.WithFields(logrus.Fields{
		"field":   "CSVDirSource.ensureFiles",
		"missing": missing,
	}).Warn("raw files not found, generating synthetic data")

	gen := s.Generator
	if gen == nil {
		gen = NewGenerator(DefaultSeed, time.Now().UTC())
	}
	return WriteCSVDir(s.Dir, gen.Generate())
}

func readCSVFile(path, kind string) (RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return RawTable{}, err
	}
	defer f.Close()
	return ReadCSV(f, kind)
}

// WriteCSVDir writes every collection of data as <kind>.csv into dir.
func WriteCSVDir(dir string, data *RawData) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, kind := range Kinds {
		t, err := data.Table(kind)
		if err != nil {
			return err
		}
		if err := writeCSVFile(filepath.Join(dir, kind+".csv"), t); err != nil {
			return fmt.Errorf("write %s: %w", kind, err)
		}
	}
	return nil
}

func writeCSVFile(path string, t RawTable) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
