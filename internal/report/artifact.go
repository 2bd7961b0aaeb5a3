package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"PricePulse/internal/model"
)

var artifactName = regexp.MustCompile(`^report-(\d{4}-\d{2}-\d{2})\.json$`)

// FileName returns the artifact file name for a report date (YYYY-MM-DD).
func FileName(date string) string {
	return "report-" + date + ".json"
}

// ParseID accepts a bare date or an artifact file name and returns the date.
// ok is false when id does not name a valid calendar date.
func ParseID(id string) (date string, ok bool) {
	if m := artifactName.FindStringSubmatch(id); m != nil {
		id = m[1]
	}
	if _, err := time.Parse(model.DateLayout, id); err != nil {
		return "", false
	}
	return id, true
}

// artifact is the on-disk layout. Older files may omit keys; absent keys
// decode to nil.
type artifact struct {
	Count     *json.Number `json:"count,omitempty"`
	Min       *json.Number `json:"min,omitempty"`
	Max       *json.Number `json:"max,omitempty"`
	Avg       *json.Number `json:"avg,omitempty"`
	First     *json.Number `json:"first,omitempty"`
	Last      *json.Number `json:"last,omitempty"`
	StartTime *string      `json:"start_time,omitempty"`
	EndTime   *string      `json:"end_time,omitempty"`
}

func number(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := json.Number(d.String())
	return &n
}

func encode(r *model.DailyReport) ([]byte, error) {
	a := artifact{
		Min:       number(r.Min),
		Max:       number(r.Max),
		Avg:       number(r.Average),
		First:     number(r.First),
		Last:      number(r.Last),
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
	if r.Count != nil {
		n := json.Number(fmt.Sprint(*r.Count))
		a.Count = &n
	}
	b, err := json.MarshalIndent(a, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func decimalOf(n *json.Number) (*decimal.Decimal, error) {
	if n == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decode(date string, b []byte) (*model.DailyReport, error) {
	var a artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, err
	}
	r := &model.DailyReport{Date: date, StartTime: a.StartTime, EndTime: a.EndTime}
	if a.Count != nil {
		d, err := decimal.NewFromString(a.Count.String())
		if err != nil || !d.IsInteger() {
			return nil, fmt.Errorf("count %q is not an integer", a.Count.String())
		}
		c := int(d.IntPart())
		r.Count = &c
	}
	var err error
	for _, f := range []struct {
		src *json.Number
		dst **decimal.Decimal
	}{
		{a.Min, &r.Min}, {a.Max, &r.Max}, {a.Avg, &r.Average}, {a.First, &r.First}, {a.Last, &r.Last},
	} {
		if *f.dst, err = decimalOf(f.src); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// writeAtomic replaces path with data so readers never see a partial file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
