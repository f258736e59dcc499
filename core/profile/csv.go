package profile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/kilianp07/gridchronics/core/model"
)

// ReadCSV decodes a profile sequence from CSV. The header row names the
// injection points; every following row is one time step of signed MW
// values (loads negative, renewable production positive).
func ReadCSV(r io.Reader) (SliceSource, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("profile: read header: %w", err)
	}
	var steps SliceSource
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("profile: row %d: %w", row, err)
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("profile: row %d: %d values for %d injection points", row, len(rec), len(header))
		}
		step := make(model.ProfileStep, len(header))
		for i, id := range header {
			v, err := strconv.ParseFloat(rec[i], 64)
			if err != nil {
				return nil, fmt.Errorf("profile: row %d, column %s: %w", row, id, err)
			}
			step[id] = v
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// LoadCSV reads a profile sequence from a file.
func LoadCSV(path string) (SliceSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}
