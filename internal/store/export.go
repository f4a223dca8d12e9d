package store

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/mlviz/internal/experiment"
	"github.com/san-kum/mlviz/internal/metrics"
)

type ExportData struct {
	RunMetadata
	Steps int             `json:"steps"`
	Trace []metrics.Point `json:"trace"`
}

func exportData(res *experiment.Result) ExportData {
	return ExportData{
		RunMetadata: Metadata(res),
		Steps:       len(res.Trace),
		Trace:       res.Trace,
	}
}

func ExportJSON(path string, res *experiment.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, res)
}

func WriteJSON(w io.Writer, res *experiment.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exportData(res))
}
