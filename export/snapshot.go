package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/siherrmann/kgraph/core/pipeline"
	"github.com/siherrmann/kgraph/helper"
)

// WriteSnapshot writes a build result so it can be reloaded for querying.
func WriteSnapshot(w io.Writer, result *pipeline.Result) error {
	return writeJSON(w, "write snapshot", result)
}

// ReadSnapshot reads a build result written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*pipeline.Result, error) {
	result := &pipeline.Result{}
	if err := json.NewDecoder(r).Decode(result); err != nil {
		return nil, helper.NewError("read snapshot", err)
	}
	return result, nil
}

// SaveSnapshot writes the snapshot file at path.
func SaveSnapshot(path string, result *pipeline.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return helper.NewError("save snapshot", err)
	}
	defer file.Close()

	if err := WriteSnapshot(file, result); err != nil {
		return err
	}
	return file.Close()
}

// LoadSnapshot reads the snapshot file at path.
func LoadSnapshot(path string) (*pipeline.Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, helper.NewError("load snapshot", err)
	}
	defer file.Close()

	return ReadSnapshot(file)
}
