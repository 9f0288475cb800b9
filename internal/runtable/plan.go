package runtable

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// Factor declares one independent variable and its discrete levels.
type Factor struct {
	Name   string
	Levels []string
}

// Variation assigns exactly one level to each declared factor.
type Variation map[string]string

// PlannedRun is one scheduled execution of a variation. Index is the
// 1-based, contiguous position in execution order, assigned after any
// shuffle. Repetition identifies which pass through the cross product the
// run belongs to.
type PlannedRun struct {
	Index      int
	Repetition int
	Variation  Variation
}

// String renders a planned run for progress logs, e.g.
// "run 3 (rep 1: compiler=cython)".
func (p PlannedRun) String() string {
	pairs := make([]string, 0, len(p.Variation))
	for factor, level := range p.Variation {
		pairs = append(pairs, factor+"="+level)
	}
	sort.Strings(pairs)
	return fmt.Sprintf("run %d (rep %d: %s)", p.Index, p.Repetition, strings.Join(pairs, " "))
}

// GeneratePlan computes the full combinatorial design: the cross product of
// all factor levels (first declared factor varies slowest), replicated
// repetitions times as whole blocks, then optionally permuted as a single
// sequence. The random source is injected so tests can reproduce a shuffle.
func GeneratePlan(factors []Factor, repetitions int, shuffle bool, rng *rand.Rand) []PlannedRun {
	block := crossProduct(factors)

	plan := make([]PlannedRun, 0, len(block)*repetitions)
	for rep := 1; rep <= repetitions; rep++ {
		for _, variation := range block {
			plan = append(plan, PlannedRun{Repetition: rep, Variation: variation})
		}
	}

	if shuffle {
		rng.Shuffle(len(plan), func(i, j int) {
			plan[i], plan[j] = plan[j], plan[i]
		})
	}

	// Indices follow execution order, so they are assigned after the shuffle.
	for i := range plan {
		plan[i].Index = i + 1
	}
	return plan
}

// crossProduct enumerates every variation, with the last factor cycling
// fastest. An empty factor list yields a single empty variation.
func crossProduct(factors []Factor) []Variation {
	total := 1
	for _, f := range factors {
		total *= len(f.Levels)
	}

	variations := make([]Variation, 0, total)
	counters := make([]int, len(factors))
	for i := 0; i < total; i++ {
		v := make(Variation, len(factors))
		for fi, f := range factors {
			v[f.Name] = f.Levels[counters[fi]]
		}
		variations = append(variations, v)

		for fi := len(factors) - 1; fi >= 0; fi-- {
			counters[fi]++
			if counters[fi] < len(factors[fi].Levels) {
				break
			}
			counters[fi] = 0
		}
	}
	return variations
}
