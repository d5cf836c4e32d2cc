package model

import "time"

// TimeRange - полуоткрытый интервал [Start, End)
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps: касающиеся интервалы не пересекаются
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Shift сдвигает интервал, сохраняя длительность
func (r TimeRange) Shift(d time.Duration) TimeRange {
	return TimeRange{Start: r.Start.Add(d), End: r.End.Add(d)}
}

func (r TimeRange) Valid() bool {
	return r.Start.Before(r.End)
}
