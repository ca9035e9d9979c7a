package orchestrator

import (
	"sort"

	"grafema/internal/grafemaerr"
)

// schedulePhase topologically sorts plugins within one phase by
// Dependencies, breaking ties by descending Priority then stable name order
// (spec §4.4 "Scheduling algorithm"). Dependencies naming a plugin outside
// this phase are assumed already satisfied — cross-phase ordering is
// enforced by Phases running strictly in order, not by this function.
func schedulePhase(plugins []Plugin) ([]Plugin, error) {
	byName := make(map[string]Plugin, len(plugins))
	for _, p := range plugins {
		byName[p.Metadata().Name] = p
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(plugins))
	var order []Plugin
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		p, ok := byName[name]
		if !ok {
			return nil // dependency outside this phase; assumed satisfied
		}
		switch color[name] {
		case black:
			return nil
		case gray:
			cycle := append(append([]string(nil), stack...), name)
			return grafemaerr.New(grafemaerr.KindCyclicDependency, "plugin dependency cycle: %v", cycle)
		}
		color[name] = gray
		stack = append(stack, name)
		deps := append([]string(nil), p.Metadata().Dependencies...)
		sort.Strings(deps)
		for _, dep := range deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		order = append(order, p)
		return nil
	}

	names := make([]string, 0, len(plugins))
	for _, p := range plugins {
		names = append(names, p.Metadata().Name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := byName[names[i]].Metadata(), byName[names[j]].Metadata()
		if pi.Priority != pj.Priority {
			return pi.Priority > pj.Priority
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}
