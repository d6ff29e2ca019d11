package planner

// missingTrainers lists, in catalog order, trainer-required facilities where
// none of the assigned employees is certified to train. Advisory only.
func (p *Planner) missingTrainers() []string {
	var missing []string
	for _, f := range p.open {
		if !p.trainerRequired.Has(f.Name) {
			continue
		}
		found := false
		for _, c := range p.plan[f.Name] {
			if !c.Filled() {
				continue
			}
			if e, ok := p.employees[c.Employee]; ok && e.Trainer.Has(f.Name) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, f.Name)
		}
	}
	return missing
}
