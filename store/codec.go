package store

import (
	"encoding/json"
	"fmt"
)

func EncodeRun(run Run) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRun(payload []byte) (Run, error) {
	var run Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return Run{}, err
	}
	if len(run.States) != len(run.Policy) {
		return Run{}, fmt.Errorf("run %s: %d states but %d actions", run.ID, len(run.States), len(run.Policy))
	}
	return run, nil
}
