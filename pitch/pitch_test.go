package pitch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zeu5/mdp-policy/dataset"
	"github.com/zeu5/mdp-policy/types"
)

func TestBaseCode(t *testing.T) {
	tests := []struct {
		first, second, third bool
		want                 int
	}{
		{false, false, false, 0},
		{true, false, false, 1},
		{false, true, false, 2},
		{false, false, true, 3},
		{true, true, false, 4},
		{true, false, true, 5},
		{false, true, true, 6},
		{true, true, true, 7},
	}
	for _, tt := range tests {
		p := Pitch{OnFirst: tt.first, OnSecond: tt.second, OnThird: tt.third}
		if got := p.BaseCode(); got != tt.want {
			t.Errorf("bases %v/%v/%v: got %d, want %d", tt.first, tt.second, tt.third, got, tt.want)
		}
	}
}

func TestEncoding(t *testing.T) {
	p := Pitch{Outs: 2, Balls: 3, Strikes: 2, OnFirst: true, OnThird: true, PitchType: "FC", PX: 0.1, PZ: 3, Runs: 1}
	if s := p.State(); s != 96*2+24*3+8*2+5 {
		t.Errorf("unexpected state %d", s)
	}
	if s := p.State(); s >= States {
		t.Errorf("state %d collides with the terminal sentinel", s)
	}
	if a := p.Action(); a != 9*3+3*1+2 {
		t.Errorf("unexpected action %d", a)
	}
	if p.Reward() != -1 {
		t.Errorf("unexpected reward %v", p.Reward())
	}
	low := Pitch{PitchType: "KN", PX: -1, PZ: 1}
	if a := low.Action(); a != 9*OtherPitchType {
		t.Errorf("unexpected action %d for unknown type", a)
	}
	if a := (Pitch{PitchType: "SI", PX: 0.44, PZ: 2.65}).Action(); a != 9*5+3*2+2 {
		t.Errorf("zone bounds are exclusive below, got %d", a)
	}
}

// row builds a raw pitch row with the encoding columns set
func row(outsBefore, outs, balls, strikes int, pitchType string, outsOnPlay int, runs, px, pz string, bases [3]string) string {
	fields := make([]string, MinColumns+2)
	for i := range fields {
		fields[i] = "0"
	}
	fields[ColOutsBefore] = itoa(outsBefore)
	fields[ColOuts] = itoa(outs)
	fields[ColBalls] = itoa(balls)
	fields[ColStrikes] = itoa(strikes)
	fields[ColPitchType] = pitchType
	fields[ColOutsOnPlay] = itoa(outsOnPlay)
	fields[ColRuns] = runs
	fields[ColPX] = px
	fields[ColPZ] = pz
	fields[ColOnFirst], fields[ColOnSecond], fields[ColOnThird] = bases[0], bases[1], bases[2]
	return strings.Join(fields, ",")
}

func itoa(v int) string {
	return string(rune('0' + v))
}

func header() string {
	cols := make([]string, MinColumns+2)
	for i := range cols {
		cols[i] = "c" + itoa(i%10)
	}
	return strings.Join(cols, ",")
}

func TestTransform(t *testing.T) {
	in := strings.Join([]string{
		header(),
		row(2, 2, 0, 0, "FA", 0, "0", "0", "2", [3]string{"", "", ""}),
		row(2, 2, 1, 0, "CH", 1, "1", "-0.5", "1.5", [3]string{"543", "", "NaN"}),
		row(0, 0, 0, 0, "CU", 0, "0", "1", "3", [3]string{"", "", ""}),
		row(0, 0, 0, 1, "SL", 0, "0", "1", "3", [3]string{"", "", ""}),
	}, "\n") + "\n"

	trace, err := Transform(strings.NewReader(in))
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if trace.Len() != 3 {
		t.Fatalf("expected one record per pitch but the last, got %d", trace.Len())
	}
	expected := []types.Transition{
		{State: 192, Action: 9*2 + 3*1 + 1, Reward: 0, NextState: 216 + 1},
		{State: 216 + 1, Action: 0, Reward: -1, NextState: TerminalState},
		{State: 0, Action: 9*1 + 3*2 + 2, Reward: 0, NextState: 8},
	}
	for i, want := range expected {
		got, _ := trace.Get(i)
		if got != want {
			t.Errorf("record %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestParseRowMissingValues(t *testing.T) {
	p, err := ParseRow(strings.Split(row(0, 0, 0, 0, "FA", 0, "", "", "", [3]string{"", "", ""}), ","))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a := p.Action(); a != 9*2+3*2+2 {
		t.Errorf("missing location should fall in the upper zones, got action %d", a)
	}
	if p.Reward() != 0 {
		t.Errorf("missing runs should score 0, got %v", p.Reward())
	}
	if _, err := ParseRow(strings.Split(row(0, 0, 0, 0, "FA", 0, "Inf", "0", "0", [3]string{"", "", ""}), ",")); !errors.Is(err, ErrMalformedPitch) {
		t.Errorf("expected malformed pitch for infinite runs, got %v", err)
	}
}

func TestTransformRejectsShortRows(t *testing.T) {
	in := header() + "\n1,2,3\n"
	if _, err := Transform(strings.NewReader(in)); !errors.Is(err, ErrMalformedPitch) {
		t.Errorf("expected malformed pitch, got %v", err)
	}
}

func TestTransformFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "pitches.csv")
	out := filepath.Join(dir, "obs.csv")
	content := strings.Join([]string{
		header(),
		row(0, 0, 0, 0, "FA", 0, "0", "0", "2", [3]string{"", "", ""}),
		row(0, 0, 0, 1, "FA", 0, "0", "0", "2", [3]string{"", "", ""}),
	}, "\n")
	if err := os.WriteFile(in, []byte(content), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	if _, err := TransformFile(in, out); err != nil {
		t.Fatalf("transform file: %v", err)
	}
	trace, err := dataset.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if tr, ok := trace.Get(0); !ok || trace.Len() != 1 || tr.NextState != 8 {
		t.Errorf("unexpected output %+v", tr)
	}
}
