package roster

import (
	"context"
	"errors"
	"fmt"

	"github.com/arnavshah/staff-planner-api/pkg/database"
	"github.com/arnavshah/staff-planner-api/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a named employee or facility does not exist
var ErrNotFound = errors.New("not found")

// Store keeps roster and catalog in the database
type Store struct {
	DB *gorm.DB
}

// NewStore wraps an open database
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Snapshot reads roster and catalog in one transaction so the planner sees a
// consistent view.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var employees []database.EmployeeRecord
		if err := tx.Order("id").Find(&employees).Error; err != nil {
			return fmt.Errorf("load employees: %w", err)
		}
		var facilities []database.FacilityRecord
		if err := tx.Preload("Positions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order, id")
		}).Order("sort_order, id").Find(&facilities).Error; err != nil {
			return fmt.Errorf("load facilities: %w", err)
		}

		for _, rec := range employees {
			snap.Employees = append(snap.Employees, fromEmployeeRecord(rec))
		}
		for _, rec := range facilities {
			snap.Facilities = append(snap.Facilities, fromFacilityRecord(rec))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// UpsertEmployee creates or replaces an employee by name
func (s *Store) UpsertEmployee(ctx context.Context, e models.Employee) error {
	rec := toEmployeeRecord(NormalizeEmployee(e))
	if rec.Name == "" {
		return errors.New("employee name is required")
	}
	if err := checkQualifications(e); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"area", "qualifications", "secondary_qualifications", "trainer_for", "updated_at",
		}),
	}).Create(&rec).Error
}

// DeleteEmployee removes an employee by name
func (s *Store) DeleteEmployee(ctx context.Context, name string) error {
	res := s.DB.WithContext(ctx).Where("name = ?", name).Delete(&database.EmployeeRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("employee %s: %w", name, ErrNotFound)
	}
	return nil
}

// UpsertFacility creates a facility or replaces its area and positions. New
// facilities go to the end of the catalog.
func (s *Store) UpsertFacility(ctx context.Context, f models.Facility) error {
	if f.Name == "" {
		return errors.New("facility name is required")
	}
	if err := CheckFacilityName(f.Name); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec database.FacilityRecord
		err := tx.Where("name = ?", f.Name).First(&rec).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			var maxOrder int
			if err := tx.Model(&database.FacilityRecord{}).Select("COALESCE(MAX(sort_order), 0)").Scan(&maxOrder).Error; err != nil {
				return err
			}
			rec = database.FacilityRecord{Name: f.Name, Area: f.Area, SortOrder: maxOrder + 1}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := tx.Model(&rec).Update("area", f.Area).Error; err != nil {
				return err
			}
			if err := tx.Where("facility_id = ?", rec.ID).Delete(&database.PositionRecord{}).Error; err != nil {
				return err
			}
		}
		return createPositions(tx, rec.ID, f.Positions)
	})
}

// DeleteFacility removes a facility together with its positions
func (s *Store) DeleteFacility(ctx context.Context, name string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec database.FacilityRecord
		if err := tx.Where("name = ?", name).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("facility %s: %w", name, ErrNotFound)
			}
			return err
		}
		if err := tx.Where("facility_id = ?", rec.ID).Delete(&database.PositionRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&rec).Error
	})
}

// Import replaces the whole roster and catalog with the snapshot
func (s *Store) Import(ctx context.Context, snap *Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []any{&database.PositionRecord{}, &database.FacilityRecord{}, &database.EmployeeRecord{}} {
			if err := all.Delete(model).Error; err != nil {
				return fmt.Errorf("clear roster: %w", err)
			}
		}
		for _, e := range snap.Employees {
			rec := toEmployeeRecord(NormalizeEmployee(e))
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("import employee %s: %w", e.Name, err)
			}
		}
		for i, f := range snap.Facilities {
			rec := database.FacilityRecord{Name: f.Name, Area: f.Area, SortOrder: i + 1}
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("import facility %s: %w", f.Name, err)
			}
			if err := createPositions(tx, rec.ID, f.Positions); err != nil {
				return err
			}
		}
		return nil
	})
}

// SavePlanRun records one planning call
func (s *Store) SavePlanRun(ctx context.Context, run *database.PlanRun) error {
	return s.DB.WithContext(ctx).Create(run).Error
}

// ListPlanRuns returns the most recent runs of an API key
func (s *Store) ListPlanRuns(ctx context.Context, keyID uint, limit int) ([]database.PlanRun, error) {
	var runs []database.PlanRun
	err := s.DB.WithContext(ctx).Where("key_id = ?", keyID).Order("created_at desc").Limit(limit).Find(&runs).Error
	return runs, err
}

func createPositions(tx *gorm.DB, facilityID uint, positions []models.Position) error {
	if len(positions) == 0 {
		return nil
	}
	recs := make([]database.PositionRecord, 0, len(positions))
	for i, p := range positions {
		recs = append(recs, database.PositionRecord{
			FacilityID:            facilityID,
			Name:                  p.Name,
			SortOrder:             i + 1,
			RequiresQualification: p.RequiresQualification,
		})
	}
	return tx.Create(&recs).Error
}

func toEmployeeRecord(e models.Employee) database.EmployeeRecord {
	return database.EmployeeRecord{
		Name:                    e.Name,
		Area:                    e.Area,
		Qualifications:          JoinSet(e.Primary),
		SecondaryQualifications: JoinSet(e.Secondary),
		TrainerFor:              JoinSet(e.Trainer),
	}
}

func fromEmployeeRecord(rec database.EmployeeRecord) models.Employee {
	return models.Employee{
		Name:      rec.Name,
		Area:      rec.Area,
		Primary:   ParseSet(rec.Qualifications),
		Secondary: ParseSet(rec.SecondaryQualifications),
		Trainer:   ParseSet(rec.TrainerFor),
	}
}

func fromFacilityRecord(rec database.FacilityRecord) models.Facility {
	f := models.Facility{Name: rec.Name, Area: rec.Area}
	for _, p := range rec.Positions {
		f.Positions = append(f.Positions, models.Position{
			Name:                  p.Name,
			RequiresQualification: p.RequiresQualification,
		})
	}
	return f
}
