package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/zeu5/mdp-policy/types"
)

var (
	// ErrMissingColumn is returned when the header lacks one of s, a, r, sp
	ErrMissingColumn = errors.New("missing required column")
	// ErrMalformedRow is returned for rows whose values do not parse
	ErrMalformedRow = errors.New("malformed row")
)

// Columns is the header of a transition dataset
var Columns = []string{"s", "a", "r", "sp"}

// ReadFile opens path and reads the transition log from it
func ReadFile(path string) (*types.Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	trace, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return trace, nil
}

// Read parses a header-led CSV with at least the columns s, a, r and sp, in any order.
// Other columns are ignored. Blank lines are skipped.
func Read(in io.Reader) (*types.Trace, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return types.NewTrace(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset csv header: %w", err)
	}
	cols, err := columnPositions(header)
	if err != nil {
		return nil, err
	}

	trace := types.NewTrace()
	rowIndex := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowIndex++
		if err != nil {
			return nil, fmt.Errorf("read dataset csv row %d: %w", rowIndex, err)
		}
		if blankRecord(record) {
			continue
		}
		tr, err := parseRecord(record, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowIndex, err)
		}
		trace.Append(tr.State, tr.Action, tr.Reward, tr.NextState)
	}
	return trace, nil
}

func columnPositions(header []string) ([4]int, error) {
	var cols [4]int
	for i, name := range Columns {
		cols[i] = -1
		for j, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				cols[i] = j
				break
			}
		}
		if cols[i] == -1 {
			return cols, fmt.Errorf("column %q: %w", name, ErrMissingColumn)
		}
	}
	return cols, nil
}

func parseRecord(record []string, cols [4]int) (types.Transition, error) {
	for _, c := range cols {
		if c >= len(record) {
			return types.Transition{}, fmt.Errorf("expected at least %d fields, got %d: %w", c+1, len(record), ErrMalformedRow)
		}
	}
	s, err := ParseID(record[cols[0]])
	if err != nil {
		return types.Transition{}, fmt.Errorf("s: %w", err)
	}
	a, err := ParseID(record[cols[1]])
	if err != nil {
		return types.Transition{}, fmt.Errorf("a: %w", err)
	}
	r, err := strconv.ParseFloat(strings.TrimSpace(record[cols[2]]), 64)
	if err != nil || math.IsNaN(r) || math.IsInf(r, 0) {
		return types.Transition{}, fmt.Errorf("r %q: %w", record[cols[2]], ErrMalformedRow)
	}
	sp, err := ParseID(record[cols[3]])
	if err != nil {
		return types.Transition{}, fmt.Errorf("sp: %w", err)
	}
	return types.Transition{State: s, Action: a, Reward: r, NextState: sp}, nil
}

// ParseID accepts integers and integral floats such as "3.0" or "3.000000e+00"
func ParseID(field string) (int, error) {
	field = strings.TrimSpace(field)
	if v, err := strconv.Atoi(field); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(field, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("identifier %q: %w", field, ErrMalformedRow)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("identifier %q too large: %w", field, ErrMalformedRow)
	}
	return int(f), nil
}

func blankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Write emits the trace as a CSV with the s,a,r,sp header
func Write(out io.Writer, trace *types.Trace) error {
	writer := csv.NewWriter(out)
	if err := writer.Write(Columns); err != nil {
		return err
	}
	for i := 0; i < trace.Len(); i++ {
		tr, _ := trace.Get(i)
		err := writer.Write([]string{
			strconv.Itoa(tr.State),
			strconv.Itoa(tr.Action),
			strconv.FormatFloat(tr.Reward, 'g', -1, 64),
			strconv.Itoa(tr.NextState),
		})
		if err != nil {
			return fmt.Errorf("write dataset csv row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile creates path and writes the trace to it
func WriteFile(path string, trace *types.Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	if err := Write(f, trace); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
