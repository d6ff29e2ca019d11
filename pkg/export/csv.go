package export

import (
	"encoding/csv"
	"io"

	"github.com/arnavshah/staff-planner-api/pkg/models"
)

// Header is the first CSV row
var Header = []string{"facility", "position", "employee", "label", "tag"}

// WriteCSV writes the plan in catalog order. Facilities missing from the
// plan (closed ones) are skipped.
func WriteCSV(w io.Writer, facilities []models.Facility, plan models.Plan) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}

	for _, f := range facilities {
		row, ok := plan[f.Name]
		if !ok {
			continue
		}
		for _, pos := range f.Positions {
			c := row[pos.Name]
			if err := writer.Write([]string{f.Name, pos.Name, c.Employee, c.Label(), string(c.Tag)}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}
