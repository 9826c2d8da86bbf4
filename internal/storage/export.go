package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/linebot/internal/loop"
)

type ExportData struct {
	Meta     RunMetadata `json:"meta"`
	Cycles   []int       `json:"cycles"`
	Readings [][]int     `json:"readings"`
	Position []float64   `json:"position"`
	Control  []float64   `json:"control"`
	Left     []float64   `json:"left"`
	Right    []float64   `json:"right"`
}

// ExportJSON writes a run as column arrays.
func ExportJSON(w io.Writer, meta RunMetadata, trace []loop.Cycle) error {
	data := ExportData{
		Meta:     meta,
		Cycles:   make([]int, len(trace)),
		Readings: make([][]int, len(trace)),
		Position: make([]float64, len(trace)),
		Control:  make([]float64, len(trace)),
		Left:     make([]float64, len(trace)),
		Right:    make([]float64, len(trace)),
	}

	for i, c := range trace {
		data.Cycles[i] = c.Index
		data.Readings[i] = c.Reading[:]
		data.Position[i] = c.Position
		data.Control[i] = c.Terms.Output
		data.Left[i] = c.Command.Left
		data.Right[i] = c.Command.Right
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
