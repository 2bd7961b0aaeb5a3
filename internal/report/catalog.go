package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"PricePulse/internal/model"
)

// ErrReportUnavailable is returned when an artifact exists but cannot be read
// right now. Callers retry on their next refresh.
var ErrReportUnavailable = errors.New("report unavailable")

// Catalog looks up report artifacts in a directory.
type Catalog struct {
	Dir string
}

// NewCatalog creates a catalog over dir.
func NewCatalog(dir string) *Catalog {
	return &Catalog{Dir: dir}
}

// List returns the dates of all report artifacts, oldest first. A missing
// directory means no reports yet.
func (c *Catalog) List() ([]string, error) {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: list %s: %w", ErrReportUnavailable, c.Dir, err)
	}
	dates := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := artifactName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if date, ok := ParseID(m[1]); ok {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates, nil
}

// Get loads the report for id (a date or artifact file name). found is false,
// with a nil error, when no artifact resolves from id.
func (c *Catalog) Get(id string) (r *model.DailyReport, found bool, err error) {
	date, ok := ParseID(id)
	if !ok {
		return nil, false, nil
	}
	data, err := os.ReadFile(filepath.Join(c.Dir, FileName(date)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %s: %w", ErrReportUnavailable, date, err)
	}
	r, err = decode(date, data)
	if err != nil {
		return nil, false, fmt.Errorf("%w: decode %s: %w", ErrReportUnavailable, date, err)
	}
	return r, true, nil
}
