package testutil

import "testing"

// Given, When and Then name nested subtests after the step they describe,
// so `go test -run 'Scenario/Given_a_seeded_catalog'` selects one step.
func Given(t *testing.T, desc string, fn func(t *testing.T)) { step(t, "Given", desc, fn) }

func When(t *testing.T, desc string, fn func(t *testing.T)) { step(t, "When", desc, fn) }

func Then(t *testing.T, desc string, fn func(t *testing.T)) { step(t, "Then", desc, fn) }

// step stops the enclosing scenario when a step fails; later steps depend
// on state built by earlier ones.
func step(t *testing.T, keyword, desc string, fn func(t *testing.T)) {
	t.Helper()
	if !t.Run(keyword+" "+desc, fn) {
		t.FailNow()
	}
}
