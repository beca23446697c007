package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Run     RunMetadata `json:"run"`
	Times   []float64   `json:"times"`
	Samples []float64   `json:"samples"`
}

// ExportJSON writes a run and its signal as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, times, err := s.LoadSignal(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: *meta, Times: times, Samples: samples})
}
