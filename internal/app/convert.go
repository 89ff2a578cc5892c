package app

import (
	"github.com/example/ara/internal/core/aggregate"
	"github.com/example/ara/internal/core/indexing"
	"github.com/example/ara/internal/core/pattern"
	"github.com/example/ara/internal/core/problem"
	"github.com/example/ara/internal/ports/primary"
	"github.com/example/ara/internal/ports/secondary"
)

func criteriaFromPort(c primary.Criteria) pattern.Criteria {
	return pattern.Criteria{
		FeatureFile:              c.FeatureFile,
		FeatureName:              c.FeatureName,
		ScenarioName:             c.ScenarioName,
		ScenarioNameStartsWith:   c.ScenarioNameStartsWith,
		Step:                     c.Step,
		StepStartsWith:           c.StepStartsWith,
		StepDefinition:           c.StepDefinition,
		StepDefinitionStartsWith: c.StepDefinitionStartsWith,
		Exception:                c.Exception,
		Release:                  c.Release,
		Country:                  c.Country,
		Type:                     c.Type,
		Platform:                 c.Platform,
		TypeIsBrowser:            c.TypeIsBrowser,
		TypeIsMobile:             c.TypeIsMobile,
	}
}

func criteriaToPort(c pattern.Criteria) primary.Criteria {
	return primary.Criteria{
		FeatureFile:              c.FeatureFile,
		FeatureName:              c.FeatureName,
		ScenarioName:             c.ScenarioName,
		ScenarioNameStartsWith:   c.ScenarioNameStartsWith,
		Step:                     c.Step,
		StepStartsWith:           c.StepStartsWith,
		StepDefinition:           c.StepDefinition,
		StepDefinitionStartsWith: c.StepDefinitionStartsWith,
		Exception:                c.Exception,
		Release:                  c.Release,
		Country:                  c.Country,
		Type:                     c.Type,
		Platform:                 c.Platform,
		TypeIsBrowser:            c.TypeIsBrowser,
		TypeIsMobile:             c.TypeIsMobile,
	}
}

func patternToPort(r *secondary.PatternRecord) *primary.Pattern {
	return &primary.Pattern{
		ID:               r.ID,
		ProblemID:        r.ProblemID,
		Criteria:         criteriaToPort(r.Criteria),
		CatchAll:         r.Criteria.IsCatchAll(),
		CreationDateTime: r.CreationDateTime,
	}
}

func problemToPort(r *secondary.ProblemRecord) *primary.Problem {
	return &primary.Problem{
		ID:               r.ID,
		ProjectID:        r.ProjectID,
		Name:             r.Name,
		Comment:          r.Comment,
		Status:           string(problem.ParseStatus(r.Status)),
		EffectiveStatus:  string(problem.Effective(stateOf(r))),
		ClosingDateTime:  r.ClosingDateTime,
		DefectID:         r.DefectID,
		DefectExistence:  string(problem.ParseDefectExistence(r.DefectExistence)),
		CreationDateTime: r.CreationDateTime,
		FirstSeen:        r.FirstSeen,
		LastSeen:         r.LastSeen,
	}
}

func aggregateToPort(a aggregate.Aggregate) *primary.ProblemAggregate {
	return &primary.ProblemAggregate{
		PatternCount:  a.PatternCount,
		ErrorCount:    a.ErrorCount,
		ScenarioCount: a.Scenarios.Count,
		FirstScenario: a.Scenarios.First,
		BranchCount:   a.Branches.Count,
		FirstBranch:   a.Branches.First,
		ReleaseCount:  a.Releases.Count,
		FirstRelease:  a.Releases.First,
		VersionCount:  a.Versions.Count,
		FirstVersion:  a.Versions.First,
		CountryCount:  a.Countries.Count,
		FirstCountry:  a.Countries.First,
		TypeCount:     a.Types.Count,
		FirstType:     a.Types.First,
		PlatformCount: a.Platforms.Count,
		FirstPlatform: a.Platforms.First,
	}
}

func assignmentToPort(a *Assignment) *primary.AssignmentResult {
	return &primary.AssignmentResult{
		ProblemIDs:      a.ProblemIDs,
		MatchedErrorIDs: a.MatchedErrorIDs,
		InsertedCount:   a.InsertedCount,
		CatchAllIDs:     a.CatchAllIDs,
	}
}

// graphFromInput maps the parsed execution document to the store graph.
func graphFromInput(projectID int64, in primary.ExecutionInput, status indexing.JobStatus) *secondary.ExecutionGraph {
	graph := &secondary.ExecutionGraph{
		Execution: secondary.ExecutionRecord{
			ProjectID:    projectID,
			JobURL:       in.JobURL,
			JobLink:      in.JobLink,
			Name:         in.Name,
			Branch:       in.Branch,
			Release:      in.Release,
			Version:      in.Version,
			Status:       string(status),
			TestDateTime: in.TestDateTime.UTC(),
		},
	}
	for _, run := range in.Runs {
		rg := secondary.RunGraph{
			Country:       run.Country,
			Type:          run.Type,
			TypeIsBrowser: run.TypeIsBrowser,
			TypeIsMobile:  run.TypeIsMobile,
			Platform:      run.Platform,
		}
		for _, sc := range run.Scenarios {
			sg := secondary.ScenarioGraph{
				FeatureFile: sc.FeatureFile,
				FeatureName: sc.FeatureName,
				Name:        sc.Name,
				Line:        sc.Line,
			}
			for _, e := range sc.Errors {
				sg.Errors = append(sg.Errors, secondary.ErrorGraph{
					Step:           e.Step,
					StepDefinition: e.StepDefinition,
					StepLine:       e.StepLine,
					Exception:      e.Exception,
				})
			}
			rg.Scenarios = append(rg.Scenarios, sg)
		}
		graph.Runs = append(graph.Runs, rg)
	}
	return graph
}

// errorKeys lists the natural keys of every error of the graph.
func errorKeys(graph *secondary.ExecutionGraph) []indexing.ErrorKey {
	var keys []indexing.ErrorKey
	for _, run := range graph.Runs {
		for _, sc := range run.Scenarios {
			for _, e := range sc.Errors {
				keys = append(keys, indexing.ErrorKey{
					Country:     run.Country,
					Type:        run.Type,
					Platform:    run.Platform,
					FeatureFile: sc.FeatureFile,
					Scenario:    sc.Name,
					Line:        sc.Line,
					StepLine:    e.StepLine,
				})
			}
		}
	}
	return keys
}
