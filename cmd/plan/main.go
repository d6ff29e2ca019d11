package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/arnavshah/staff-planner-api/pkg/config"
	"github.com/arnavshah/staff-planner-api/pkg/export"
	"github.com/arnavshah/staff-planner-api/pkg/logging"
	"github.com/arnavshah/staff-planner-api/pkg/models"
	"github.com/arnavshah/staff-planner-api/pkg/planner"
	"github.com/arnavshah/staff-planner-api/pkg/roster"
	"go.uber.org/zap"
)

// listFlag collects a repeatable or comma separated flag
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, roster.SplitList(v)...)
	return nil
}

// manualFlag collects "Employee=Facility/Position" pins
type manualFlag map[string]models.Slot

func (m manualFlag) String() string { return fmt.Sprint(map[string]models.Slot(m)) }

func (m manualFlag) Set(v string) error {
	name, target, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("expected Employee=Facility/Position, got %q", v)
	}
	facility, position, ok := strings.Cut(target, "/")
	if !ok {
		return fmt.Errorf("expected Facility/Position, got %q", target)
	}
	m[strings.TrimSpace(name)] = models.Slot{
		Facility: strings.TrimSpace(facility),
		Position: strings.TrimSpace(position),
	}
	return nil
}

func main() {
	dataFile := flag.String("data", "", "roster and catalog file (.json, .yaml, .yml)")
	seed := flag.Int64("seed", 0, "shuffle seed (default: PLAN_SEED or current time)")
	out := flag.String("out", "", "write the plan as CSV to this file")
	asJSON := flag.Bool("json", false, "print the full result as JSON")
	var present, closed, trainer listFlag
	manual := manualFlag{}
	flag.Var(&present, "present", "present employees (repeatable, comma separated; default everyone)")
	flag.Var(&closed, "closed", "closed facilities (repeatable, comma separated)")
	flag.Var(&trainer, "trainer", "facilities that need a trainer (repeatable, comma separated)")
	flag.Var(manual, "manual", "pin an employee, Employee=Facility/Position (repeatable)")
	flag.Parse()

	cfg := config.Load()
	log, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		die("build logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	if strings.TrimSpace(*dataFile) == "" {
		die("--data is required")
	}
	snap, err := roster.LoadFile(*dataFile)
	if err != nil {
		die("load %s: %v", *dataFile, err)
	}

	if len(present) == 0 {
		for _, e := range snap.Employees {
			present = append(present, e.Name)
		}
	}

	s := time.Now().UnixNano()
	switch {
	case isSet("seed"):
		s = *seed
	case cfg.PlanSeed != nil:
		s = *cfg.PlanSeed
	}

	res, err := planner.Plan(planner.Input{
		Roster:          snap.Employees,
		Facilities:      snap.Facilities,
		Present:         present,
		Closed:          closed,
		Manual:          manual,
		TrainerRequired: trainer,
		Seed:            s,
	})
	if err != nil {
		var cfgErr *planner.ConfigurationError
		if errors.As(err, &cfgErr) {
			die("configuration error: %v", err)
		}
		die("plan: %v", err)
	}
	log.Debug("plan finished",
		zap.Int64("seed", s),
		zap.Int("repair_rounds", res.RepairRounds),
		zap.Int("swaps", res.Swaps),
	)

	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			die("create %s: %v", *out, err)
		}
		if err := export.WriteCSV(f, snap.Facilities, res.Plan); err != nil {
			f.Close()
			die("write %s: %v", *out, err)
		}
		if err := f.Close(); err != nil {
			die("close %s: %v", *out, err)
		}
		log.Info("plan written", zap.String("file", *out))
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(models.PlanResponse{
			Seed:               s,
			Plan:               res.Plan,
			Labels:             res.Plan.Labels(),
			Placed:             res.Placed,
			Unfilled:           res.Unfilled,
			MissingTrainer:     res.MissingTrainer,
			Unplaced:           res.Unplaced,
			BreakerSuggestions: res.BreakerSuggestions,
			TrainerDisplaced:   res.TrainerDisplaced,
			RepairRounds:       res.RepairRounds,
			Swaps:              res.Swaps,
		}); err != nil {
			die("encode result: %v", err)
		}
		return
	}
	printPlan(snap.Facilities, res, s)
}

func printPlan(facilities []models.Facility, res *planner.Result, seed int64) {
	fmt.Printf("Seed: %d\n\n", seed)
	for _, f := range facilities {
		row, ok := res.Plan[f.Name]
		if !ok {
			continue
		}
		fmt.Println(f.Name)
		for _, pos := range f.Positions {
			fmt.Printf("  %-20s %s\n", pos.Name, row[pos.Name].Label())
		}
	}

	fmt.Println()
	printList("Unplaced", res.Unplaced)
	printList("Breaker suggestions", res.BreakerSuggestions)
	printList("Missing trainer", res.MissingTrainer)
	if len(res.TrainerDisplaced) > 0 {
		printList("Trainer moved away by repair", res.TrainerDisplaced)
	}
}

func printList(title string, items []string) {
	if len(items) == 0 {
		fmt.Printf("%s: none\n", title)
		return
	}
	fmt.Printf("%s: %s\n", title, strings.Join(items, ", "))
}

func isSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
