package series

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"PricePulse/internal/model"
)

// ErrSourceUnavailable is returned when the record log cannot be opened or read.
var ErrSourceUnavailable = errors.New("series source unavailable")

// Result is the outcome of one full read of the record log.
type Result struct {
	Samples []model.Sample
	Rows    int // records seen, including dropped ones
	Dropped int // malformed records excluded from Samples
}

// Source loads the canonical sample sequence.
type Source interface {
	Load(ctx context.Context) (*Result, error)
}

// FileStore reads an append-only "timestamp,price" CSV log.
type FileStore struct {
	Path     string
	Location *time.Location
	Log      zerolog.Logger
}

// NewFileStore creates a store over the log at path. Zone-less timestamps are read in loc.
func NewFileStore(path string, loc *time.Location, log zerolog.Logger) *FileStore {
	if loc == nil {
		loc = time.Local
	}
	return &FileStore{Path: path, Location: loc, Log: log}
}

// Stat returns file info used to key memoized reads.
func (s *FileStore) Stat() (os.FileInfo, error) {
	fi, err := os.Stat(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return fi, nil
}

// Load re-reads the whole log. Rows that fail to parse are dropped. The order
// of the log is preserved and duplicate timestamps are kept.
func (s *FileStore) Load(ctx context.Context) (*Result, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return s.parse(ctx, data)
}

func (s *FileStore) parse(ctx context.Context, data []byte) (*Result, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	res := &Result{}
	for {
		if res.Rows%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
			}
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				res.Rows++
				res.Dropped++
				continue
			}
			return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		res.Rows++
		sample, ok := parseRecord(rec, s.Location)
		if !ok {
			res.Dropped++
			continue
		}
		res.Samples = append(res.Samples, sample)
	}

	if res.Dropped > 0 {
		s.Log.Debug().Str("path", s.Path).Int("dropped", res.Dropped).Int("rows", res.Rows).Msg("malformed rows skipped")
	}
	return res, nil
}
