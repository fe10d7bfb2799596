// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/mortgage-forecast/internal/projection"
	"github.com/iwvelando/mortgage-forecast/pkg/amortization"
)

// FindProjection finds a projection by scenario name in the results slice.
// Returns a pointer to the projection if found, nil otherwise.
func FindProjection(results []projection.Projection, name string) *projection.Projection {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// FindMilestone returns the first milestone of the given type, nil if absent.
func FindMilestone(milestones []amortization.Milestone, milestoneType amortization.MilestoneType) *amortization.Milestone {
	for i := range milestones {
		if milestones[i].Type == milestoneType {
			return &milestones[i]
		}
	}
	return nil
}

// CountWarnings counts warnings of the given type.
func CountWarnings(warnings []amortization.Warning, warningType amortization.WarningType) int {
	count := 0
	for _, warning := range warnings {
		if warning.Type == warningType {
			count++
		}
	}
	return count
}
