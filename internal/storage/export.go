package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Run   RunMetadata `json:"run"`
	Steps int         `json:"steps"`
	Ticks []Tick      `json:"ticks"`
}

// ExportJSON writes a stored run, metadata and ticks, as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	ticks, err := s.LoadTicks(runID)
	if err != nil {
		return err
	}
	return WriteJSON(w, *meta, ticks)
}

func (s *Store) ExportJSONFile(path, runID string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.ExportJSON(file, runID)
}

func WriteJSON(w io.Writer, meta RunMetadata, ticks []Tick) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: meta, Steps: len(ticks), Ticks: ticks})
}
