package roster

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arnavshah/staff-planner-api/pkg/models"
	"gopkg.in/yaml.v3"
)

var (
	// ErrDuplicateEmployee is returned when a roster names someone twice
	ErrDuplicateEmployee = errors.New("duplicate employee")
	// ErrDuplicateFacility is returned when a catalog names a facility twice
	ErrDuplicateFacility = errors.New("duplicate facility")
	// ErrUnsupportedFormat is returned for files that are neither JSON nor YAML
	ErrUnsupportedFormat = errors.New("unsupported roster file format")
)

// Snapshot is a consistent view of roster and catalog handed to the planner
type Snapshot struct {
	Employees  []models.Employee `json:"employees"`
	Facilities []models.Facility `json:"facilities"`
}

// Validate rejects duplicate employee or facility names and facility names
// that cannot be stored in a qualification column.
func (s *Snapshot) Validate() error {
	seen := make(map[string]bool, len(s.Employees))
	for _, e := range s.Employees {
		if e.Name == "" {
			return errors.New("employee without a name")
		}
		if seen[e.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateEmployee, e.Name)
		}
		if err := checkQualifications(e); err != nil {
			return err
		}
		seen[e.Name] = true
	}
	seen = make(map[string]bool, len(s.Facilities))
	for _, f := range s.Facilities {
		if f.Name == "" {
			return errors.New("facility without a name")
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateFacility, f.Name)
		}
		if err := CheckFacilityName(f.Name); err != nil {
			return err
		}
		seen[f.Name] = true
	}
	return nil
}

// Field aliases: German spreadsheet keys first, English second
var (
	keyEmployees      = []string{"mitarbeiter", "employees", "roster"}
	keyFacilities     = []string{"fahrgeschaefte", "facilities"}
	keyName           = []string{"Name", "name"}
	keyArea           = []string{"Bereich", "area"}
	keyPrimary        = []string{"Einweisungen", "qualifications"}
	keySecondary      = []string{"Sekundaer_Einweisungen", "secondary_qualifications"}
	keyTrainer        = []string{"Trainer", "trainer_for"}
	keyPositions      = []string{"Positionen", "positions"}
	keyRequiresQualif = []string{"Einweisung_erforderlich", "requires_qualification"}
)

// LoadFile reads a roster/catalog document from a .json, .yaml or .yml file
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	snap, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// Parse decodes document bytes; ext is the file extension such as ".yaml"
func Parse(data []byte, ext string) (*Snapshot, error) {
	var doc any
	var err error
	switch strings.ToLower(ext) {
	case ".json":
		err = json.Unmarshal(data, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return Decode(doc)
}

// Decode converts a generic document into a Snapshot. The document may be a
// map holding both lists, or a bare list of employees.
func Decode(doc any) (*Snapshot, error) {
	snap := &Snapshot{}

	var employees, facilities []any
	switch v := doc.(type) {
	case map[string]any:
		employees, _ = pick(v, keyEmployees).([]any)
		facilities, _ = pick(v, keyFacilities).([]any)
		// legacy catalog files nest the list one level deeper
		if inner, ok := pick(v, keyFacilities).(map[string]any); ok {
			facilities, _ = pick(inner, keyFacilities).([]any)
		}
	case []any:
		employees = v
	default:
		return nil, fmt.Errorf("%w: unexpected top-level %T", ErrUnsupportedFormat, doc)
	}

	for i, raw := range employees {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("employee #%d: expected an object", i+1)
		}
		snap.Employees = append(snap.Employees, NormalizeEmployee(models.Employee{
			Name:      toString(pick(m, keyName)),
			Area:      toString(pick(m, keyArea)),
			Primary:   models.NewSet(toList(pick(m, keyPrimary))...),
			Secondary: models.NewSet(toList(pick(m, keySecondary))...),
			Trainer:   models.NewSet(toList(pick(m, keyTrainer))...),
		}))
	}

	for i, raw := range facilities {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("facility #%d: expected an object", i+1)
		}
		f := models.Facility{
			Name: strings.TrimSpace(toString(pick(m, keyName))),
			Area: strings.TrimSpace(toString(pick(m, keyArea))),
		}
		positions, _ := pick(m, keyPositions).([]any)
		for j, rawPos := range positions {
			switch p := rawPos.(type) {
			case string:
				f.Positions = append(f.Positions, models.Position{Name: strings.TrimSpace(p)})
			case map[string]any:
				f.Positions = append(f.Positions, models.Position{
					Name:                  strings.TrimSpace(toString(pick(p, keyName))),
					RequiresQualification: toBool(pick(p, keyRequiresQualif)),
				})
			default:
				return nil, fmt.Errorf("facility %s position #%d: unexpected %T", f.Name, j+1, rawPos)
			}
		}
		snap.Facilities = append(snap.Facilities, f)
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

func pick(m map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// toList accepts both list values and comma-joined strings
func toList(v any) []string {
	switch l := v.(type) {
	case string:
		return SplitList(l)
	case []any:
		var out []string
		for _, item := range l {
			out = append(out, SplitList(toString(item))...)
		}
		return out
	}
	return nil
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int:
		return b != 0
	case float64:
		return b != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "ja", "j", "x", "yes", "y":
			return true
		}
		parsed, _ := strconv.ParseBool(strings.TrimSpace(b))
		return parsed
	}
	return false
}
