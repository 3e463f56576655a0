package run

import (
	"goreplicate/domain/core"
)

// SampleRecord is the manifest entry for one estimation sample.
type SampleRecord struct {
	Sample       core.SampleID   `json:"sample"`
	CohortHash   core.CohortHash `json:"cohort_hash"`
	Observations int             `json:"observations"`
	Subjects     int             `json:"subjects"`
	Status       string          `json:"status"`
	Converged    bool            `json:"converged"`
	LogLik       float64         `json:"log_lik"`
	Fingerprint  RunFingerprint  `json:"fingerprint"`
}

// RunManifest records everything needed to replay one estimation run.
// It is written next to the result table.
type RunManifest struct {
	RunID       core.RunID     `json:"run_id"`
	Model       core.ModelName `json:"model"`
	DataPath    string         `json:"data_path"`
	DataHash    core.DataHash  `json:"data_hash"`
	Exclusions  string         `json:"exclusions,omitempty"`
	Seed        int64          `json:"seed"`
	Method      string         `json:"method"`
	CodeVersion string         `json:"code_version"`
	Samples     []SampleRecord `json:"samples"`
	Outputs     []string       `json:"outputs"`
	StartedAt   core.Timestamp `json:"started_at"`
	CompletedAt core.Timestamp `json:"completed_at"`
}

// NewRunManifest starts a manifest for a run.
func NewRunManifest(runID core.RunID, model core.ModelName, dataPath string, dataHash core.DataHash,
	exclusions string, seed int64, method, codeVersion string) *RunManifest {
	return &RunManifest{
		RunID:       runID,
		Model:       model,
		DataPath:    dataPath,
		DataHash:    dataHash,
		Exclusions:  exclusions,
		Seed:        seed,
		Method:      method,
		CodeVersion: codeVersion,
		StartedAt:   core.Now(),
	}
}

// Validate checks if the manifest is complete
func (r *RunManifest) Validate() error {
	if core.ID(r.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if r.Model == "" {
		return core.NewValidationError("run_manifest", "model cannot be empty")
	}
	if r.DataHash == "" {
		return core.NewValidationError("run_manifest", "data_hash cannot be empty")
	}
	if r.CodeVersion == "" {
		return core.NewValidationError("run_manifest", "code_version cannot be empty")
	}
	if len(r.Samples) == 0 {
		return core.NewValidationError("run_manifest", "no samples recorded")
	}
	return nil
}
