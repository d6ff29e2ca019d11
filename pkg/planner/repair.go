package planner

import (
	"github.com/arnavshah/staff-planner-api/pkg/models"
)

// donor is a placement that may be moved to rescue an unfilled position
type donor struct {
	slot     models.Slot
	employee *models.Employee
}

// repair runs swap rounds until one makes no change or the cap is reached
func (p *Planner) repair() {
	for p.rounds < MaxRepairRounds {
		p.rounds++
		if p.repairRound() == 0 {
			return
		}
	}
}

// repairRound works through a queue of unfilled positions. Each position is
// handled at most once per round; a slot vacated by a swap joins the queue
// unless it was already handled.
func (p *Planner) repairRound() int {
	queue := p.unfilledSlots()
	visited := make(map[models.Slot]bool, len(queue))
	for _, s := range queue {
		visited[s] = true
	}
	p.indexDonors()

	changes := 0
	for len(queue) > 0 {
		slot := queue[0]
		queue = queue[1:]
		if p.plan.Cell(slot).Filled() {
			continue
		}
		pos := p.position(slot)

		if p.fillFromPool(slot, pos) {
			changes++
			p.indexDonors()
			continue
		}

		d, ok := p.findDonor(slot, pos)
		if !ok {
			continue
		}
		p.move(d, slot)
		changes++
		p.indexDonors()
		if !visited[d.slot] {
			visited[d.slot] = true
			queue = append(queue, d.slot)
		}
	}
	return changes
}

// indexDonors rebuilds the donor list in catalog order. Manual and secondary
// placements are never donors.
func (p *Planner) indexDonors() {
	p.donors = p.donors[:0]
	for _, f := range p.open {
		for _, pos := range f.Positions {
			slot := models.Slot{Facility: f.Name, Position: pos.Name}
			c := p.plan.Cell(slot)
			if !c.Filled() || c.Tag == models.TagManual || c.Tag == models.TagSecondary {
				continue
			}
			p.donors = append(p.donors, donor{slot: slot, employee: p.employees[c.Employee]})
		}
	}
}

func (p *Planner) findDonor(target models.Slot, pos models.Position) (donor, bool) {
	for _, d := range p.donors {
		if p.left[d.employee.Name][target] {
			continue
		}
		if pos.RequiresQualification && !d.employee.Qualified(target.Facility) {
			continue
		}
		return d, true
	}
	return donor{}, false
}

// move shifts a donor into target and vacates the donor's slot
func (p *Planner) move(d donor, target models.Slot) {
	e := d.employee
	p.plan.Set(target, models.Cell{Employee: e.Name, Tag: tagFor(e, target.Facility)})
	p.plan.Set(d.slot, models.Cell{})

	if p.left[e.Name] == nil {
		p.left[e.Name] = make(map[models.Slot]bool)
	}
	p.left[e.Name][d.slot] = true

	from := d.slot.Facility
	if from != target.Facility && p.trainerRequired.Has(from) && e.Trainer.Has(from) {
		p.trainerMoved[from] = struct{}{}
	}
	p.swaps++
}

func tagFor(e *models.Employee, facility string) models.Tag {
	switch {
	case e.Primary.Has(facility):
		return models.TagPrimary
	case e.Secondary.Has(facility):
		return models.TagSecondary
	default:
		return models.TagUnqualifiedOK
	}
}
