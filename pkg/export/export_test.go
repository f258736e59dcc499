package export

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/kilianp07/gridchronics/core/model"
)

func sampleChronic() *model.Chronic {
	return &model.Chronic{
		Steps: []model.CommittedStep{
			{
				Index:  0,
				Status: model.StatusOptimal,
				Output: map[string]float64{"g1": 40},
				Flows:  map[string]float64{"l1": 0},
				Cost:   400,
			},
			{
				Index:      1,
				Status:     model.StatusRelaxed,
				Output:     map[string]float64{"g1": 60},
				Flows:      map[string]float64{"l1": 0},
				Cost:       600,
				UnservedMW: 30,
			},
		},
		Profile: []model.ProfileStep{
			{"d1": -40},
			{"d1": -90},
		},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := sampleChronic()
	if err := WriteJSON(&buf, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip diverged:\n%+v\n%+v", in, out)
	}
}

func TestReadJSON_Invalid(t *testing.T) {
	if _, err := ReadJSON(strings.NewReader("{not json")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestWriteCSV(t *testing.T) {
	net := &model.NetworkModel{
		Buses: []model.Bus{{ID: "b1"}},
		Generators: []model.Generator{
			{ID: "g1", Bus: "b1", PMaxMW: 100, MarginalCost: 10},
		},
		Injections: []model.Injection{{ID: "d1", Bus: "b1"}},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, net, sampleChronic()); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "step,status,cost,unserved_mw,g1\n" +
		"0,optimal,400,0,40\n" +
		"1,relaxed,600,30,60\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected CSV:\n%s\nwant:\n%s", got, want)
	}
}
