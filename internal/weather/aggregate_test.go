package weather

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

var helsinki = time.FixedZone("Helsinki", 3*3600)

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, helsinki)
}

func ptr(v float64) *float64 { return &v }

func TestAggregateEmptyInput(t *testing.T) {
	for _, g := range Granularities {
		points := Aggregate(nil, g)
		if points == nil || len(points) != 0 {
			t.Fatalf("%s: expected empty non-nil slice, got %#v", g, points)
		}
		if st := ComputeStats(points); st != (Stats{}) {
			t.Fatalf("%s: expected zero stats, got %+v", g, st)
		}
	}
	if h := ConditionHistogram(nil); h == nil || len(h) != 0 {
		t.Fatalf("expected empty histogram, got %#v", h)
	}
}

func TestAggregateHourlyPreservesOrderAndRounds(t *testing.T) {
	samples := []Sample{
		{Timestamp: at(2024, 1, 29, 0), Temperature: 10.5, FeelsLike: -2.5, Humidity: 80.4, Pressure: 1012.6, PrecipProb: 0.5, WindSpeed: 3.27, Condition: "Rain", Rain3h: ptr(0.42)},
		{Timestamp: at(2024, 1, 29, 3), Temperature: -0.4, FeelsLike: -3.6, Humidity: 90, Pressure: 1010, PrecipProb: 0.07, WindSpeed: 1},
		{Timestamp: at(2024, 1, 29, 6), Temperature: 2, Condition: "Clear"},
	}

	points := Aggregate(samples, Hourly)
	if len(points) != len(samples) {
		t.Fatalf("expected %d points, got %d", len(samples), len(points))
	}

	first := points[0]
	if first.Temperature != 11 || first.FeelsLike != -2 {
		t.Fatalf("unexpected rounding: temp=%d feels=%d", first.Temperature, first.FeelsLike)
	}
	if first.Humidity != 80 || first.Pressure != 1013 || first.PrecipProb != 50 {
		t.Fatalf("unexpected values: %+v", first)
	}
	if first.RainMm != 0.42 || first.WindSpeed != 3.27 {
		t.Fatalf("rain and wind should pass through, got rain=%v wind=%v", first.RainMm, first.WindSpeed)
	}
	if first.Label != "00:00" {
		t.Fatalf("expected label 00:00, got %q", first.Label)
	}

	second := points[1]
	if second.Temperature != 0 || second.PrecipProb != 7 || second.RainMm != 0 {
		t.Fatalf("unexpected second point: %+v", second)
	}
	if second.Condition != ConditionOther {
		t.Fatalf("expected %q for missing condition, got %q", ConditionOther, second.Condition)
	}

	for i, p := range points {
		if !p.Timestamp.Equal(samples[i].Timestamp) {
			t.Fatalf("point %d out of order", i)
		}
	}
}

func TestAggregateHourlyIsIdempotent(t *testing.T) {
	samples := []Sample{
		{Timestamp: at(2024, 3, 1, 0), Temperature: 4.6, FeelsLike: 1.2, Humidity: 70.5, Pressure: 1001.49, PrecipProb: 0.31, WindSpeed: 2.5, Condition: "Clouds"},
		{Timestamp: at(2024, 3, 1, 3), Temperature: 5.5, FeelsLike: 2, Humidity: 66, Pressure: 1002, PrecipProb: 0, WindSpeed: 4, Rain3h: ptr(1.5), Condition: "Rain"},
	}

	once := Aggregate(samples, Hourly)

	back := make([]Sample, 0, len(once))
	for _, p := range once {
		back = append(back, Sample{
			Timestamp:   p.Timestamp,
			Temperature: float64(p.Temperature),
			FeelsLike:   float64(p.FeelsLike),
			Humidity:    float64(p.Humidity),
			Pressure:    float64(p.Pressure),
			PrecipProb:  float64(p.PrecipProb) / 100,
			Rain3h:      ptr(p.RainMm),
			WindSpeed:   p.WindSpeed,
			Condition:   p.Condition,
		})
	}
	twice := Aggregate(back, Hourly)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("hourly aggregation is not idempotent:\n%+v\n%+v", once, twice)
	}
}

func TestAggregateDailyMean(t *testing.T) {
	samples := []Sample{
		{Timestamp: at(2024, 1, 29, 0), Temperature: 10, Condition: "Clouds"},
		{Timestamp: at(2024, 1, 29, 3), Temperature: 20, Condition: "Rain"},
	}

	points := Aggregate(samples, Daily)
	if len(points) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(points))
	}
	p := points[0]
	if p.Temperature != 15 {
		t.Fatalf("expected mean temperature 15, got %d", p.Temperature)
	}
	if p.Condition != "Clouds" {
		t.Fatalf("expected first sample's condition, got %q", p.Condition)
	}
	if p.Label != "Mon, Jan 29" {
		t.Fatalf("unexpected label %q", p.Label)
	}
	if !p.Timestamp.Equal(samples[0].Timestamp) || p.Samples != 2 {
		t.Fatalf("unexpected bucket metadata: %+v", p)
	}
}

func TestAggregateDailyUsesSampleZone(t *testing.T) {
	// 23:00 and 02:00 local are different days even though both fall on the
	// same UTC day.
	samples := []Sample{
		{Timestamp: time.Date(2024, 5, 1, 23, 0, 0, 0, helsinki), Temperature: 10},
		{Timestamp: time.Date(2024, 5, 2, 2, 0, 0, 0, helsinki), Temperature: 20},
	}
	if got := len(Aggregate(samples, Daily)); got != 2 {
		t.Fatalf("expected 2 local days, got %d", got)
	}

	utc := []Sample{
		{Timestamp: samples[0].Timestamp.UTC(), Temperature: 10},
		{Timestamp: samples[1].Timestamp.UTC(), Temperature: 20},
	}
	if got := len(Aggregate(utc, Daily)); got != 1 {
		t.Fatalf("expected 1 UTC day, got %d", got)
	}
}

func TestAggregateBucketsKeepFirstSeenOrder(t *testing.T) {
	samples := []Sample{
		{Timestamp: at(2024, 2, 2, 0), Temperature: 1},
		{Timestamp: at(2024, 2, 1, 0), Temperature: 2},
		{Timestamp: at(2024, 2, 2, 6), Temperature: 3},
		{Timestamp: at(2024, 2, 3, 0), Temperature: 4},
	}

	points := Aggregate(samples, Daily)
	wantLabels := []string{"Fri, Feb 2", "Thu, Feb 1", "Sat, Feb 3"}
	if len(points) != len(wantLabels) {
		t.Fatalf("expected %d buckets, got %d", len(wantLabels), len(points))
	}

	total := 0
	for i, p := range points {
		if p.Label != wantLabels[i] {
			t.Fatalf("bucket %d: expected %q, got %q", i, wantLabels[i], p.Label)
		}
		total += p.Samples
	}
	if total != len(samples) {
		t.Fatalf("bucket sizes sum to %d, want %d", total, len(samples))
	}
	if points[0].Temperature != 2 {
		t.Fatalf("expected mean 2 for first bucket, got %d", points[0].Temperature)
	}
}

func TestAggregateWeeklyAcrossMonths(t *testing.T) {
	// Mon Jan 29 and Fri Feb 2 2024 are both in ISO week 5.
	samples := []Sample{
		{Timestamp: at(2024, 1, 29, 12), Temperature: 0},
		{Timestamp: at(2024, 2, 2, 12), Temperature: 4},
		{Timestamp: at(2024, 2, 5, 12), Temperature: 8},
	}

	points := Aggregate(samples, Weekly)
	if len(points) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(points))
	}
	if points[0].Label != "Week 5 (Jan 29)" {
		t.Fatalf("unexpected label %q", points[0].Label)
	}
	if points[0].Samples != 2 || points[0].Temperature != 2 {
		t.Fatalf("unexpected week 5 bucket: %+v", points[0])
	}
	if points[1].Label != "Week 6 (Feb 5)" {
		t.Fatalf("unexpected label %q", points[1].Label)
	}
}

func TestAggregateMonthlyAndYearlyLabels(t *testing.T) {
	samples := []Sample{
		{Timestamp: at(2024, 12, 30, 0)},
		{Timestamp: at(2024, 12, 31, 0)},
		{Timestamp: at(2025, 1, 1, 0)},
	}

	monthly := Aggregate(samples, Monthly)
	if len(monthly) != 2 || monthly[0].Label != "Dec 2024" || monthly[1].Label != "Jan 2025" {
		t.Fatalf("unexpected monthly buckets: %+v", monthly)
	}

	yearly := Aggregate(samples, Yearly)
	if len(yearly) != 2 || yearly[0].Label != "2024" || yearly[1].Label != "2025" {
		t.Fatalf("unexpected yearly buckets: %+v", yearly)
	}
}

func TestAggregateMissingRainCountsAsZero(t *testing.T) {
	samples := []Sample{
		{Timestamp: at(2024, 1, 29, 0), Rain3h: nil, WindSpeed: 1},
		{Timestamp: at(2024, 1, 29, 3), Rain3h: ptr(3), WindSpeed: 1.3},
		{Timestamp: at(2024, 1, 29, 6), Rain3h: ptr(0), WindSpeed: 1.3},
	}

	p := Aggregate(samples, Daily)[0]
	if p.RainMm != 1 {
		t.Fatalf("expected rain mean 1, got %v", p.RainMm)
	}
	if p.WindSpeed != 1.2 {
		t.Fatalf("expected wind mean 1.2, got %v", p.WindSpeed)
	}
}

func TestAggregatePrecipProbabilityMean(t *testing.T) {
	samples := []Sample{
		{Timestamp: at(2024, 1, 29, 0), PrecipProb: 0.2},
		{Timestamp: at(2024, 1, 29, 3), PrecipProb: 0.5},
	}
	if got := Aggregate(samples, Daily)[0].PrecipProb; got != 35 {
		t.Fatalf("expected 35%%, got %d", got)
	}
}

func TestAggregateUnknownGranularityFallsBackToHourly(t *testing.T) {
	samples := []Sample{
		{Timestamp: at(2024, 1, 29, 0)},
		{Timestamp: at(2024, 1, 29, 3)},
	}
	if got := len(Aggregate(samples, Granularity("fortnightly"))); got != 2 {
		t.Fatalf("expected 2 points, got %d", got)
	}
}

func TestParseGranularity(t *testing.T) {
	cases := map[string]Granularity{
		"":         Hourly,
		"daily":    Daily,
		"WEEKLY":   Weekly,
		" monthly": Monthly,
		"yearly":   Yearly,
	}
	for in, want := range cases {
		got, err := ParseGranularity(in)
		if err != nil || got != want {
			t.Fatalf("ParseGranularity(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := ParseGranularity("minutely"); !errors.Is(err, ErrUnknownGranularity) {
		t.Fatalf("expected ErrUnknownGranularity, got %v", err)
	}
}
