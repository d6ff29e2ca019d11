package roster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arnavshah/staff-planner-api/pkg/models"
)

// listDelimiters separate entries in a stored qualification column
const listDelimiters = ",;"

// ErrDelimiterInName is returned for facility names that could not survive a
// round trip through a comma-joined qualification column.
var ErrDelimiterInName = errors.New("name must not contain ',' or ';'")

// CheckFacilityName rejects names containing a list delimiter
func CheckFacilityName(name string) error {
	if strings.ContainsAny(name, listDelimiters) {
		return fmt.Errorf("facility %q: %w", name, ErrDelimiterInName)
	}
	return nil
}

// checkQualifications applies CheckFacilityName to every set of an employee
func checkQualifications(e models.Employee) error {
	for _, set := range []models.Set{e.Primary, e.Secondary, e.Trainer} {
		for name := range set {
			if err := CheckFacilityName(name); err != nil {
				return fmt.Errorf("employee %s: %w", e.Name, err)
			}
		}
	}
	return nil
}

// SplitList turns a delimiter-joined cell such as "PX, NTR;Technoschleuder"
// into its trimmed, de-duplicated entries in first-seen order.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(listDelimiters, r)
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// JoinSet is the inverse of SplitList for storage
func JoinSet(s models.Set) string {
	return strings.Join(s.Sorted(), ", ")
}

// ParseSet normalizes a delimiter-joined cell into a set
func ParseSet(s string) models.Set {
	return models.NewSet(SplitList(s)...)
}

// NormalizeEmployee trims the name and makes sure every set is non-nil
func NormalizeEmployee(e models.Employee) models.Employee {
	e.Name = strings.TrimSpace(e.Name)
	e.Area = strings.TrimSpace(e.Area)
	if e.Primary == nil {
		e.Primary = models.NewSet()
	}
	if e.Secondary == nil {
		e.Secondary = models.NewSet()
	}
	if e.Trainer == nil {
		e.Trainer = models.NewSet()
	}
	return e
}
