package models

import (
	"encoding/json"
	"testing"
)

func TestNewStatementTablePeriodOrdering(t *testing.T) {
	table := NewStatementTable(map[string]map[string]float64{
		"Revenues": {"2021-12-31": 1, "2023-12-31": 3, "2022-12-31": 2},
	})
	want := []string{"2023-12-31", "2022-12-31", "2021-12-31"}
	for i, p := range want {
		if table.Periods[i] != p {
			t.Errorf("period %d: expected %s, got %s", i, p, table.Periods[i])
		}
	}
}

func TestSeriesSkipsAbsentPeriods(t *testing.T) {
	table := NewStatementTable(map[string]map[string]float64{
		"Revenues": {"2023-12-31": 300, "2022-12-31": 200, "2021-12-31": 100},
		"Sparse":   {"2022-12-31": 5},
	})
	s, ok := table.Series("Sparse")
	if !ok || s.Len() != 1 || s.Latest() != 5 {
		t.Errorf("sparse series wrong: %v %v", ok, s)
	}
	if _, ok := table.Series("Absent"); ok {
		t.Error("absent label should not resolve")
	}
}

func TestAlignInnerJoin(t *testing.T) {
	a := Series{Periods: []string{"2023", "2022", "2021"}, Values: []float64{3, 2, 1}}
	b := Series{Periods: []string{"2023", "2021"}, Values: []float64{30, 10}}

	outA, outB := Align(a, b)
	if outA.Len() != 2 || outB.Len() != 2 {
		t.Fatalf("expected 2 aligned periods, got %d/%d", outA.Len(), outB.Len())
	}
	// 2022 drops; order stays newest-first.
	if outA.Values[0] != 3 || outB.Values[0] != 30 || outA.Values[1] != 1 || outB.Values[1] != 10 {
		t.Errorf("aligned values wrong: %v %v", outA.Values, outB.Values)
	}
}

func TestAddFillZero(t *testing.T) {
	op := Series{Periods: []string{"2023", "2022"}, Values: []float64{85, 80}}
	da := Series{Periods: []string{"2023", "2021"}, Values: []float64{15, 12}}

	sum := AddFillZero(op, da)
	// Union of periods: 2023 = 85+15, 2022 = 80+0, 2021 = 0+12.
	want := map[string]float64{"2023": 100, "2022": 80, "2021": 12}
	if sum.Len() != 3 {
		t.Fatalf("expected 3 periods, got %d", sum.Len())
	}
	for i, p := range sum.Periods {
		if sum.Values[i] != want[p] {
			t.Errorf("%s: expected %f, got %f", p, want[p], sum.Values[i])
		}
	}
}

func TestMetricJSONNullRoundTrip(t *testing.T) {
	rec := MetricsRecord{
		Ticker: "X",
		Values: map[string]Metric{
			MetricLTMEBITDA: Metric(100),
			MetricEVEBITDA:  MissingMetric(),
		},
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// NaN cannot survive plain JSON; missing must encode as null.
	var decoded MetricsRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Get(MetricLTMEBITDA).Float() != 100 {
		t.Errorf("present metric lost in round trip")
	}
	if !decoded.Get(MetricEVEBITDA).Missing() {
		t.Errorf("missing metric should come back missing, got %f", decoded.Get(MetricEVEBITDA).Float())
	}
}
