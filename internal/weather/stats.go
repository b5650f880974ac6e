package weather

// Stats are the headline figures shown above the charts.
type Stats struct {
	MinTemperature int `json:"minTemperatureC"`
	MaxTemperature int `json:"maxTemperatureC"`
	MaxPrecipProb  int `json:"maxPrecipProbabilityPercent"`
	MaxHumidity    int `json:"maxHumidityPercent"`
}

// ComputeStats scans an aggregated series. An empty series yields zero Stats.
func ComputeStats(points []AggregatedPoint) Stats {
	if len(points) == 0 {
		return Stats{}
	}

	st := Stats{
		MinTemperature: points[0].Temperature,
		MaxTemperature: points[0].Temperature,
		MaxPrecipProb:  points[0].PrecipProb,
		MaxHumidity:    points[0].Humidity,
	}
	for _, p := range points[1:] {
		if p.Temperature < st.MinTemperature {
			st.MinTemperature = p.Temperature
		}
		if p.Temperature > st.MaxTemperature {
			st.MaxTemperature = p.Temperature
		}
		if p.PrecipProb > st.MaxPrecipProb {
			st.MaxPrecipProb = p.PrecipProb
		}
		if p.Humidity > st.MaxHumidity {
			st.MaxHumidity = p.Humidity
		}
	}
	return st
}

// ConditionCount is one slice of the weather-type frequency chart.
type ConditionCount struct {
	Condition string `json:"condition"`
	Count     int    `json:"count"`
}

// ConditionHistogram counts raw samples per condition label in order of first
// occurrence. Samples without a label are counted as ConditionOther.
func ConditionHistogram(samples []Sample) []ConditionCount {
	out := make([]ConditionCount, 0)
	index := make(map[string]int)
	for _, s := range samples {
		c := conditionOf(s)
		if i, ok := index[c]; ok {
			out[i].Count++
			continue
		}
		index[c] = len(out)
		out = append(out, ConditionCount{Condition: c, Count: 1})
	}
	return out
}
