package weather

import (
	"reflect"
	"testing"
)

func TestComputeStats(t *testing.T) {
	points := []AggregatedPoint{
		{Temperature: 3, PrecipProb: 10, Humidity: 60},
		{Temperature: -4, PrecipProb: 80, Humidity: 55},
		{Temperature: 12, PrecipProb: 0, Humidity: 97},
	}

	got := ComputeStats(points)
	want := Stats{MinTemperature: -4, MaxTemperature: 12, MaxPrecipProb: 80, MaxHumidity: 97}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestConditionHistogram(t *testing.T) {
	samples := []Sample{
		{Condition: "Rain"},
		{Condition: "Rain"},
		{Condition: "Clear"},
	}

	got := ConditionHistogram(samples)
	want := []ConditionCount{{Condition: "Rain", Count: 2}, {Condition: "Clear", Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestConditionHistogramDefaultsToOther(t *testing.T) {
	samples := []Sample{{Condition: ""}, {Condition: "Snow"}, {}}

	got := ConditionHistogram(samples)
	want := []ConditionCount{{Condition: ConditionOther, Count: 2}, {Condition: "Snow", Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
