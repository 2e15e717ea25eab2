package importer

import (
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/odaworks/delivery-cli/internal/model"
)

// WriteAssignmentsCSV writes mapping assignments as CSV.
func WriteAssignmentsCSV(w io.Writer, assignments []model.Assignment) error {
	data, err := csvutil.Marshal(assignments)
	if err != nil {
		return eris.Wrap(err, "importer: marshal assignments")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "importer: write assignments")
	}
	return nil
}

// WriteAssignmentsFile writes mapping assignments to a CSV file.
func WriteAssignmentsFile(path string, assignments []model.Assignment) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "importer: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	return WriteAssignmentsCSV(f, assignments)
}
