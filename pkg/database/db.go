package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	KeyPreview string     `json:"key_preview"`
	Name       string     `gorm:"not null" json:"name"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
	// DeletedAt marks a revoked key; the row stays so the key cannot come back
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	KeyID          uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date           string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount   int    `gorm:"default:0" json:"request_count"`
	TotalPositions int    `gorm:"default:0" json:"total_positions"`
	TotalEmployees int    `gorm:"default:0" json:"total_employees"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// EmployeeRecord is one roster row. Qualification columns are comma-joined
// facility names, the way the roster spreadsheet keeps them.
type EmployeeRecord struct {
	ID                      uint   `gorm:"primaryKey"`
	Name                    string `gorm:"unique;not null"`
	Area                    string
	Qualifications          string
	SecondaryQualifications string
	TrainerFor              string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// FacilityRecord is one catalog row
type FacilityRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"unique;not null"`
	Area      string
	SortOrder int              `gorm:"not null;default:0"`
	Positions []PositionRecord `gorm:"foreignKey:FacilityID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PositionRecord belongs to a facility; SortOrder keeps declaration order
type PositionRecord struct {
	ID                    uint   `gorm:"primaryKey"`
	FacilityID            uint   `gorm:"index;not null"`
	Name                  string `gorm:"not null"`
	SortOrder             int    `gorm:"not null;default:0"`
	RequiresQualification bool   `gorm:"not null;default:false"`
}

// PlanRun is the history of planning calls
type PlanRun struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	KeyID          uint      `gorm:"index" json:"key_id"`
	Seed           int64     `json:"seed"`
	Present        int       `json:"present"`
	Positions      int       `json:"positions"`
	Unfilled       int       `json:"unfilled"`
	MissingTrainer int       `json:"missing_trainer"`
	Swaps          int       `json:"swaps"`
	Result         string    `gorm:"type:text" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// Options selects the backing database
type Options struct {
	// DatabaseURL selects Postgres when set
	DatabaseURL string
	// DataPath is the SQLite file used otherwise
	DataPath string
	Silent   bool
}

// Open connects to the database and migrates the schema
func Open(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	cfg := &gorm.Config{}
	if opts.Silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	if opts.DatabaseURL != "" {
		dialector = postgres.New(postgres.Config{
			DSN:                  opts.DatabaseURL,
			PreferSimpleProtocol: true,
		})
		cfg.PrepareStmt = false
	} else {
		path := opts.DataPath
		if path == "" {
			path = "planner.db"
		}
		dialector = sqlite.Open(path)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.AutoMigrate(
		&APIKey{}, &APIUsage{}, &MasterUser{},
		&EmployeeRecord{}, &FacilityRecord{}, &PositionRecord{}, &PlanRun{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return db, nil
}
