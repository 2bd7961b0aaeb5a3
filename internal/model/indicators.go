package model

import (
	"strconv"
)

// NullFloat is a float64 that may be undefined. It encodes as JSON null when not valid.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float returns a valid NullFloat holding v.
func Float(v float64) NullFloat { return NullFloat{Float64: v, Valid: true} }

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, n.Float64, 'f', -1, 64), nil
}

func (n *NullFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullFloat{}
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*n = Float(v)
	return nil
}

// SeriesSnapshot holds samples and their derived signals. Smoothed and Trend
// always have the same length as Samples.
type SeriesSnapshot struct {
	Samples  []Sample
	Smoothed []NullFloat
	Trend    []float64
}

// Len returns the number of samples in the snapshot.
func (s *SeriesSnapshot) Len() int { return len(s.Samples) }

// Empty reports whether the snapshot holds no samples.
func (s *SeriesSnapshot) Empty() bool { return len(s.Samples) == 0 }

// Last returns the last sample in log order.
func (s *SeriesSnapshot) Last() (Sample, bool) {
	if len(s.Samples) == 0 {
		return Sample{}, false
	}
	return s.Samples[len(s.Samples)-1], true
}
