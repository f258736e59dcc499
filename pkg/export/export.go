// Package export serializes finalized chronics for downstream consumers.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/gridchronics/core/model"
)

// WriteJSON writes the chronic to w in JSON format.
func WriteJSON(w io.Writer, chronic *model.Chronic) error {
	enc := json.NewEncoder(w)
	return enc.Encode(chronic)
}

// ReadJSON decodes a chronic previously written with WriteJSON.
func ReadJSON(r io.Reader) (*model.Chronic, error) {
	var chronic model.Chronic
	if err := json.NewDecoder(r).Decode(&chronic); err != nil {
		return nil, err
	}
	return &chronic, nil
}

// WriteCSV writes the chronic to w in CSV format: one row per step with
// the per-generator outputs in the network's generator order.
func WriteCSV(w io.Writer, net *model.NetworkModel, chronic *model.Chronic) error {
	cw := csv.NewWriter(w)
	header := []string{"step", "status", "cost", "unserved_mw"}
	for _, g := range net.Generators {
		header = append(header, g.ID)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range chronic.Steps {
		rec := []string{
			strconv.Itoa(s.Index),
			s.Status.String(),
			strconv.FormatFloat(s.Cost, 'f', -1, 64),
			strconv.FormatFloat(s.UnservedMW, 'f', -1, 64),
		}
		for _, g := range net.Generators {
			rec = append(rec, strconv.FormatFloat(s.Output[g.ID], 'f', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
