package run

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"goreplicate/domain/core"
)

// RunFingerprint ensures deterministic replay
type RunFingerprint struct {
	Model       core.ModelName  `json:"model"`
	DataHash    core.DataHash   `json:"data_hash"`
	CohortHash  core.CohortHash `json:"cohort_hash"`
	Start       []float64       `json:"start"`
	Seed        int64           `json:"seed"`
	Method      string          `json:"method"`
	CodeVersion string          `json:"code_version"`
	Fingerprint core.Hash       `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters
func NewRunFingerprint(model core.ModelName, dataHash core.DataHash, cohortHash core.CohortHash,
	start []float64, seed int64, method, codeVersion string) RunFingerprint {

	return RunFingerprint{
		Model:       model,
		DataHash:    dataHash,
		CohortHash:  cohortHash,
		Start:       append([]float64(nil), start...),
		Seed:        seed,
		Method:      method,
		CodeVersion: codeVersion,
		Fingerprint: computeRunFingerprint(model, dataHash, cohortHash, start, seed, method, codeVersion),
	}
}

func computeRunFingerprint(model core.ModelName, dataHash core.DataHash, cohortHash core.CohortHash,
	start []float64, seed int64, method, codeVersion string) core.Hash {

	starts := make([]string, len(start))
	for i, v := range start {
		starts[i] = fmt.Sprintf("%.17g", v)
	}

	data := fmt.Sprintf("model:%s|data:%s|cohort:%s|start:%s|seed:%d|method:%s|code:%s",
		model, dataHash, cohortHash, strings.Join(starts, ","), seed, method, codeVersion)

	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}
