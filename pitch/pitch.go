// Package pitch turns raw pitch-by-pitch baseball logs into transition datasets.
//
// A state packs the count, the outs and the occupied bases:
//
//	state = 96*outs + 24*balls + 8*strikes + bases
//
// which yields states 0..287; the end of a half-inning maps to TerminalState.
// An action packs the pitch type and a 3x3 location zone:
//
//	action = 9*pitchType + 3*zoneX + zoneZ
//
// The reward of a pitch is minus the runs it scored.
package pitch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/zeu5/mdp-policy/dataset"
	"github.com/zeu5/mdp-policy/types"
)

// Column positions of the raw pitch schema
const (
	ColOutsBefore = 6
	ColOuts       = 7
	ColBalls      = 8
	ColStrikes    = 9
	ColPitchType  = 10
	ColOutsOnPlay = 13
	ColRuns       = 15
	ColPX         = 16
	ColPZ         = 17
	ColOnFirst    = 20
	ColOnSecond   = 21
	ColOnThird    = 22

	// MinColumns is the narrowest row the encoder accepts
	MinColumns = ColOnThird + 1
)

const (
	// TerminalState follows the last pitch of a half-inning
	TerminalState = 288
	// States is the number of non-terminal states
	States = 288
	// Actions is the number of pitch type and zone combinations
	Actions = 63
)

var ErrMalformedPitch = errors.New("malformed pitch row")

// Zone boundaries of the strike-zone grid
var (
	ZoneX = [2]float64{-0.33, 0.44}
	ZoneZ = [2]float64{1.88, 2.65}
)

var pitchTypes = map[string]int{
	"CH": 0,
	"CU": 1,
	"FA": 2,
	"FC": 3,
	"FS": 4,
	"SI": 5,
}

// OtherPitchType is the code for pitch types missing from the table
const OtherPitchType = 6

// Pitch is the slice of a raw row that the encoding depends on
type Pitch struct {
	OutsBefore int
	Outs       int
	Balls      int
	Strikes    int
	PitchType  string
	OutsOnPlay int
	Runs       float64
	PX         float64
	PZ         float64
	OnFirst    bool
	OnSecond   bool
	OnThird    bool
}

// BaseCode numbers the 8 base occupancy situations
func (p Pitch) BaseCode() int {
	first, second, third := p.OnFirst, p.OnSecond, p.OnThird
	switch {
	case first && second && third:
		return 7
	case second && third:
		return 6
	case first && third:
		return 5
	case first && second:
		return 4
	case third:
		return 3
	case second:
		return 2
	case first:
		return 1
	}
	return 0
}

func (p Pitch) State() int {
	return 96*p.Outs + 24*p.Balls + 8*p.Strikes + p.BaseCode()
}

func zone(v float64, bounds [2]float64) int {
	switch {
	case v < bounds[0]:
		return 0
	case v < bounds[1]:
		return 1
	}
	return 2
}

// TypeCode maps a pitch type abbreviation to its action code
func TypeCode(pitchType string) int {
	if c, ok := pitchTypes[strings.ToUpper(strings.TrimSpace(pitchType))]; ok {
		return c
	}
	return OtherPitchType
}

func (p Pitch) Action() int {
	return 9*TypeCode(p.PitchType) + 3*zone(p.PX, ZoneX) + zone(p.PZ, ZoneZ)
}

func (p Pitch) Reward() float64 {
	return -p.Runs
}

// EndsHalfInning reports whether the third out was made on this pitch
func (p Pitch) EndsHalfInning() bool {
	return p.OutsBefore+p.OutsOnPlay == 3
}

// ParseRow reads the encoding fields out of a raw row
func ParseRow(record []string) (Pitch, error) {
	if len(record) < MinColumns {
		return Pitch{}, fmt.Errorf("expected at least %d fields, got %d: %w", MinColumns, len(record), ErrMalformedPitch)
	}
	var p Pitch
	var err error
	ints := []struct {
		col int
		dst *int
	}{
		{ColOutsBefore, &p.OutsBefore},
		{ColOuts, &p.Outs},
		{ColBalls, &p.Balls},
		{ColStrikes, &p.Strikes},
		{ColOutsOnPlay, &p.OutsOnPlay},
	}
	for _, f := range ints {
		if *f.dst, err = dataset.ParseID(record[f.col]); err != nil {
			return Pitch{}, fmt.Errorf("column %d: %v: %w", f.col, err, ErrMalformedPitch)
		}
	}
	reals := []struct {
		col int
		dst *float64
	}{
		{ColRuns, &p.Runs},
		{ColPX, &p.PX},
		{ColPZ, &p.PZ},
	}
	for _, f := range reals {
		if *f.dst, err = parseFloat(record[f.col]); err != nil {
			return Pitch{}, fmt.Errorf("column %d: %w", f.col, err)
		}
	}
	// no runs recorded means none scored
	if math.IsNaN(p.Runs) {
		p.Runs = 0
	}
	if math.IsInf(p.Runs, 0) {
		return Pitch{}, fmt.Errorf("column %d: runs %v: %w", ColRuns, p.Runs, ErrMalformedPitch)
	}
	p.PitchType = record[ColPitchType]
	p.OnFirst = occupied(record[ColOnFirst])
	p.OnSecond = occupied(record[ColOnSecond])
	p.OnThird = occupied(record[ColOnThird])
	return p, nil
}

// parseFloat reads a missing value as NaN, which zone places in the upper band
func parseFloat(field string) (float64, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", field, ErrMalformedPitch)
	}
	return v, nil
}

// occupied treats any positive runner field as an occupied base; empty and NaN are empty
func occupied(field string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil || math.IsNaN(v) {
		return false
	}
	return v > 0
}

// Transform reads a header-led raw pitch CSV and emits one transition per pitch
// except the last. The next state is the following pitch's state, or TerminalState
// when the pitch ended the half-inning.
func Transform(in io.Reader) (*types.Trace, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return types.NewTrace(), nil
		}
		return nil, fmt.Errorf("read pitch csv header: %w", err)
	}

	pitches := make([]Pitch, 0, 1024)
	rowIndex := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowIndex++
		if err != nil {
			return nil, fmt.Errorf("read pitch csv row %d: %w", rowIndex, err)
		}
		p, err := ParseRow(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowIndex, err)
		}
		pitches = append(pitches, p)
	}
	return Encode(pitches), nil
}

// Encode converts consecutive pitches to transitions
func Encode(pitches []Pitch) *types.Trace {
	trace := types.NewTrace()
	for i := 0; i+1 < len(pitches); i++ {
		p := pitches[i]
		next := TerminalState
		if !p.EndsHalfInning() {
			next = pitches[i+1].State()
		}
		trace.Append(p.State(), p.Action(), p.Reward(), next)
	}
	return trace
}

// TransformFile preprocesses the raw pitch file at in and writes the transition CSV to out
func TransformFile(in, out string) (*types.Trace, error) {
	f, err := os.Open(in)
	if err != nil {
		return nil, fmt.Errorf("open pitches: %w", err)
	}
	defer f.Close()

	trace, err := Transform(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in, err)
	}
	if err := dataset.WriteFile(out, trace); err != nil {
		return nil, err
	}
	return trace, nil
}
