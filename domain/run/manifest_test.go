package run

import (
	"testing"

	"goreplicate/domain/core"
)

func TestRunFingerprint_Deterministic(t *testing.T) {
	// Same inputs produce identical fingerprints
	model := core.ModelName("social")
	dataHash := core.DataHash("data")
	cohortHash := core.CohortHash("cohort")
	start := []float64{0, 0, 0, 0, -4}

	fp1 := NewRunFingerprint(model, dataHash, cohortHash, start, 42, "bfgs", "1.0.0")
	fp2 := NewRunFingerprint(model, dataHash, cohortHash, start, 42, "bfgs", "1.0.0")

	if fp1.Fingerprint != fp2.Fingerprint {
		t.Errorf("Fingerprints not identical: %s vs %s", fp1.Fingerprint, fp2.Fingerprint)
	}

	start[0] = 99
	if fp1.Start[0] != 0 {
		t.Error("fingerprint aliases the caller's start vector")
	}
}

func TestRunFingerprint_Unique(t *testing.T) {
	base := NewRunFingerprint("social", "data", "cohort", []float64{1, 2}, 42, "bfgs", "1.0.0")

	testCases := []struct {
		name string
		fp   RunFingerprint
	}{
		{"different model", NewRunFingerprint("effort", "data", "cohort", []float64{1, 2}, 42, "bfgs", "1.0.0")},
		{"different data", NewRunFingerprint("social", "other", "cohort", []float64{1, 2}, 42, "bfgs", "1.0.0")},
		{"different cohort", NewRunFingerprint("social", "data", "other", []float64{1, 2}, 42, "bfgs", "1.0.0")},
		{"different start", NewRunFingerprint("social", "data", "cohort", []float64{1, 3}, 42, "bfgs", "1.0.0")},
		{"different seed", NewRunFingerprint("social", "data", "cohort", []float64{1, 2}, 43, "bfgs", "1.0.0")},
		{"different method", NewRunFingerprint("social", "data", "cohort", []float64{1, 2}, 42, "nelder-mead", "1.0.0")},
		{"different code", NewRunFingerprint("social", "data", "cohort", []float64{1, 2}, 42, "bfgs", "1.0.1")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.fp.Fingerprint == base.Fingerprint {
				t.Errorf("Fingerprint should differ for %s", tc.name)
			}
		})
	}
}

func TestRunManifest_Validate(t *testing.T) {
	m := NewRunManifest(core.RunID(core.NewID()), "social", "data.csv", "abc", "", 42, "bfgs", "1.0.0")
	if err := m.Validate(); err == nil {
		t.Error("manifest without samples should not validate")
	}

	m.Samples = append(m.Samples, SampleRecord{Sample: "all", Observations: 10, Subjects: 2})
	if err := m.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}

	m.RunID = ""
	if err := m.Validate(); err == nil {
		t.Error("manifest without run id should not validate")
	}
}
