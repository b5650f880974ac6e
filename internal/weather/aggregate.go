package weather

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/i474232898/weather-dashboard/internal/common"
)

// Granularity is the period forecast samples are bucketed by.
type Granularity string

const (
	Hourly  Granularity = "hourly"
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

// ErrUnknownGranularity is returned by ParseGranularity for unsupported values.
var ErrUnknownGranularity = errors.New("unknown granularity")

// Granularities lists the supported values in display order.
var Granularities = []Granularity{Hourly, Daily, Weekly, Monthly, Yearly}

// ParseGranularity accepts a granularity name case-insensitively.
// An empty string means Hourly.
func ParseGranularity(s string) (Granularity, error) {
	if s == "" {
		return Hourly, nil
	}
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
	}
	return g, nil
}

// Valid reports whether g is one of the supported granularities.
func (g Granularity) Valid() bool {
	for _, v := range Granularities {
		if g == v {
			return true
		}
	}
	return false
}

// AggregatedPoint is one charted point: a single sample for Hourly, the mean
// of a bucket otherwise.
type AggregatedPoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Label       string    `json:"label"`
	Temperature int       `json:"temperatureC"`
	FeelsLike   int       `json:"feelsLikeC"`
	Humidity    int       `json:"humidityPercent"`
	Pressure    int       `json:"pressureHpa"`
	PrecipProb  int       `json:"precipProbabilityPercent"`
	RainMm      float64   `json:"rainMm"`
	WindSpeed   float64   `json:"windSpeed"`
	Condition   string    `json:"condition"`
	Samples     int       `json:"samples"`
}

// Aggregate turns a time-ordered sample list into chart points for g.
// Buckets keep the order in which their first member appears. Unknown
// granularities are treated as Hourly. An empty input yields an empty slice.
func Aggregate(samples []Sample, g Granularity) []AggregatedPoint {
	points := make([]AggregatedPoint, 0, len(samples))
	if len(samples) == 0 {
		return points
	}

	if g == Hourly || !g.Valid() {
		for _, s := range samples {
			points = append(points, hourlyPoint(s))
		}
		return points
	}

	for _, b := range groupSamples(samples, g) {
		points = append(points, averageBucket(b, g))
	}
	return points
}

type bucket struct {
	key     string
	samples []Sample
}

// groupSamples partitions samples by bucketKey, preserving first-seen order.
func groupSamples(samples []Sample, g Granularity) []bucket {
	index := make(map[string]int)
	var buckets []bucket
	for _, s := range samples {
		k := bucketKey(s.Timestamp, g)
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, bucket{key: k})
		}
		buckets[i].samples = append(buckets[i].samples, s)
	}
	return buckets
}

// bucketKey is built from numeric calendar fields of t in its own zone,
// so membership never depends on locale formatting.
func bucketKey(t time.Time, g Granularity) string {
	switch g {
	case Daily:
		y, m, d := t.Date()
		return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
	case Weekly:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	case Monthly:
		return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
	case Yearly:
		return fmt.Sprintf("%04d", t.Year())
	default:
		return t.Format(time.RFC3339)
	}
}

// periodLabel is the display text for a bucket whose first sample is at t.
func periodLabel(t time.Time, g Granularity) string {
	switch g {
	case Daily:
		return t.Format("Mon, Jan 2")
	case Weekly:
		_, w := t.ISOWeek()
		return fmt.Sprintf("Week %d (%s)", w, t.Format("Jan 2"))
	case Monthly:
		return t.Format("Jan 2006")
	case Yearly:
		return t.Format("2006")
	default:
		return t.Format("15:04")
	}
}

func hourlyPoint(s Sample) AggregatedPoint {
	return AggregatedPoint{
		Timestamp:   s.Timestamp,
		Label:       periodLabel(s.Timestamp, Hourly),
		Temperature: roundInt(s.Temperature),
		FeelsLike:   roundInt(s.FeelsLike),
		Humidity:    roundInt(s.Humidity),
		Pressure:    roundInt(s.Pressure),
		PrecipProb:  roundInt(s.PrecipProb * 100),
		RainMm:      rainOf(s),
		WindSpeed:   s.WindSpeed,
		Condition:   conditionOf(s),
		Samples:     1,
	}
}

func averageBucket(b bucket, g Granularity) AggregatedPoint {
	var temp, feels, hum, pres, pop, rain, wind float64
	for _, s := range b.samples {
		temp += s.Temperature
		feels += s.FeelsLike
		hum += s.Humidity
		pres += s.Pressure
		pop += s.PrecipProb * 100
		rain += rainOf(s)
		wind += s.WindSpeed
	}

	n := float64(len(b.samples))
	first := b.samples[0]

	return AggregatedPoint{
		Timestamp:   first.Timestamp,
		Label:       periodLabel(first.Timestamp, g),
		Temperature: roundInt(temp / n),
		FeelsLike:   roundInt(feels / n),
		Humidity:    roundInt(hum / n),
		Pressure:    roundInt(pres / n),
		PrecipProb:  roundInt(pop / n),
		RainMm:      common.RoundTo(rain/n, 1),
		WindSpeed:   common.RoundTo(wind/n, 1),
		Condition:   conditionOf(first),
		Samples:     len(b.samples),
	}
}

func roundInt(v float64) int {
	return int(common.RoundHalfUp(v))
}

func rainOf(s Sample) float64 {
	if s.Rain3h == nil {
		return 0
	}
	return *s.Rain3h
}

func conditionOf(s Sample) string {
	if s.Condition == "" {
		return ConditionOther
	}
	return s.Condition
}
