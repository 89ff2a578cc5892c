// Package aggregate computes display statistics over the occurrences of problems.
//
// Input is a flat list of facts, one per (pattern, error) occurrence, already
// joined with the error's scenario, run and execution. No object graph is
// traversed: grouping is done on ids and values only.
package aggregate

import "time"

// Fact is one problem occurrence with its denormalized dimensions.
// Empty strings are treated as missing values and never counted.
type Fact struct {
	ProblemID    int64
	PatternID    int64
	ErrorID      int64
	ScenarioName string
	Branch       string
	Release      string
	Version      string
	Country      string
	Type         string
	Platform     string
	TestDateTime time.Time
}

// Dimension holds the distinct count and the smallest value of one dimension.
// First is a representative display value, not the earliest occurrence.
type Dimension struct {
	Count int
	First string
}

// Aggregate is the per-problem statistics record.
type Aggregate struct {
	PatternCount int
	ErrorCount   int

	Scenarios Dimension
	Branches  Dimension
	Releases  Dimension
	Versions  Dimension
	Countries Dimension
	Types     Dimension
	Platforms Dimension

	FirstSeen *time.Time
	LastSeen  *time.Time
}

// SeenRange holds the first and last test date time of a problem's occurrences.
type SeenRange struct {
	FirstSeen time.Time
	LastSeen  time.Time
}

type accumulator struct {
	patterns  map[int64]struct{}
	errors    map[int64]struct{}
	scenarios stringSet
	branches  stringSet
	releases  stringSet
	versions  stringSet
	countries stringSet
	types     stringSet
	platforms stringSet
	first     time.Time
	last      time.Time
	hasSeen   bool
}

func newAccumulator() *accumulator {
	return &accumulator{
		patterns:  make(map[int64]struct{}),
		errors:    make(map[int64]struct{}),
		scenarios: stringSet{},
		branches:  stringSet{},
		releases:  stringSet{},
		versions:  stringSet{},
		countries: stringSet{},
		types:     stringSet{},
		platforms: stringSet{},
	}
}

func (a *accumulator) add(f Fact) {
	a.patterns[f.PatternID] = struct{}{}
	a.errors[f.ErrorID] = struct{}{}
	a.scenarios.add(f.ScenarioName)
	a.branches.add(f.Branch)
	a.releases.add(f.Release)
	a.versions.add(f.Version)
	a.countries.add(f.Country)
	a.types.add(f.Type)
	a.platforms.add(f.Platform)

	if f.TestDateTime.IsZero() {
		return
	}
	if !a.hasSeen || f.TestDateTime.Before(a.first) {
		a.first = f.TestDateTime
	}
	if !a.hasSeen || f.TestDateTime.After(a.last) {
		a.last = f.TestDateTime
	}
	a.hasSeen = true
}

func (a *accumulator) aggregate() Aggregate {
	agg := Aggregate{
		PatternCount: len(a.patterns),
		ErrorCount:   len(a.errors),
		Scenarios:    a.scenarios.dimension(),
		Branches:     a.branches.dimension(),
		Releases:     a.releases.dimension(),
		Versions:     a.versions.dimension(),
		Countries:    a.countries.dimension(),
		Types:        a.types.dimension(),
		Platforms:    a.platforms.dimension(),
	}
	if a.hasSeen {
		first, last := a.first, a.last
		agg.FirstSeen = &first
		agg.LastSeen = &last
	}
	return agg
}

// Build groups facts by problem. Problems without any fact are absent from the
// result; callers treat them as the zero Aggregate.
func Build(facts []Fact) map[int64]Aggregate {
	accs := make(map[int64]*accumulator)
	for _, f := range facts {
		acc, ok := accs[f.ProblemID]
		if !ok {
			acc = newAccumulator()
			accs[f.ProblemID] = acc
		}
		acc.add(f)
	}

	result := make(map[int64]Aggregate, len(accs))
	for id, acc := range accs {
		result[id] = acc.aggregate()
	}
	return result
}

// Seen computes first/last seen per problem from facts.
func Seen(facts []Fact) map[int64]SeenRange {
	result := make(map[int64]SeenRange)
	for _, f := range facts {
		if f.TestDateTime.IsZero() {
			continue
		}
		r, ok := result[f.ProblemID]
		if !ok {
			result[f.ProblemID] = SeenRange{FirstSeen: f.TestDateTime, LastSeen: f.TestDateTime}
			continue
		}
		if f.TestDateTime.Before(r.FirstSeen) {
			r.FirstSeen = f.TestDateTime
		}
		if f.TestDateTime.After(r.LastSeen) {
			r.LastSeen = f.TestDateTime
		}
		result[f.ProblemID] = r
	}
	return result
}

type stringSet map[string]struct{}

func (s stringSet) add(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}

// dimension returns the distinct count and the minimum under natural (byte-wise)
// ordering, the same order a SQL MIN() uses with a binary collation.
func (s stringSet) dimension() Dimension {
	d := Dimension{Count: len(s)}
	for v := range s {
		if d.First == "" || v < d.First {
			d.First = v
		}
	}
	return d
}
