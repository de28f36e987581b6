package models

import (
	"errors"
	"math"
	"sort"
	"time"
)

// ErrEmptySeries is returned when no historical sales data is available.
var ErrEmptySeries = errors.New("historical sales series is empty")

// SalesPoint is one observed day of sales.
type SalesPoint struct {
	Date  time.Time `json:"date"`
	Sales float64   `json:"sales"`
}

// SalesSeries is an ordered, read-only daily sales history. Summary
// statistics are computed once at construction.
type SalesSeries struct {
	points []SalesPoint
	index  map[int64]int
	mean   float64
	std    float64
}

// NewSalesSeries sorts points by date and indexes them by calendar day.
// Later duplicates of the same day win.
func NewSalesSeries(points []SalesPoint) (*SalesSeries, error) {
	if len(points) == 0 {
		return nil, ErrEmptySeries
	}

	sorted := make([]SalesPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	s := &SalesSeries{index: make(map[int64]int, len(sorted))}
	for _, p := range sorted {
		p.Date = dayOf(p.Date)
		key := p.Date.Unix()
		if i, ok := s.index[key]; ok {
			s.points[i] = p
			continue
		}
		s.index[key] = len(s.points)
		s.points = append(s.points, p)
	}

	var sum float64
	for _, p := range s.points {
		sum += p.Sales
	}
	s.mean = sum / float64(len(s.points))

	if n := len(s.points); n > 1 {
		var sq float64
		for _, p := range s.points {
			d := p.Sales - s.mean
			sq += d * d
		}
		s.std = math.Sqrt(sq / float64(n-1))
	}
	return s, nil
}

// Len returns the number of observed days.
func (s *SalesSeries) Len() int { return len(s.points) }

// Mean returns the arithmetic mean of all observations.
func (s *SalesSeries) Mean() float64 { return s.mean }

// Std returns the sample standard deviation (n-1 denominator).
func (s *SalesSeries) Std() float64 { return s.std }

// TrailingMean returns the mean of the last n observations, or of the
// whole series when it is shorter than n.
func (s *SalesSeries) TrailingMean(n int) float64 {
	if n <= 0 || n > len(s.points) {
		n = len(s.points)
	}
	var sum float64
	for _, p := range s.points[len(s.points)-n:] {
		sum += p.Sales
	}
	return sum / float64(n)
}

// Actual returns the observed sales for the calendar day of date.
func (s *SalesSeries) Actual(date time.Time) (float64, bool) {
	i, ok := s.index[dayOf(date).Unix()]
	if !ok {
		return 0, false
	}
	return s.points[i].Sales, true
}

func (s *SalesSeries) FirstDate() time.Time { return s.points[0].Date }

func (s *SalesSeries) LastDate() time.Time { return s.points[len(s.points)-1].Date }

// Points returns a copy of the observations.
func (s *SalesSeries) Points() []SalesPoint {
	out := make([]SalesPoint, len(s.points))
	copy(out, s.points)
	return out
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
