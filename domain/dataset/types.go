// Package dataset holds the observation records the estimators consume.
// Records are immutable once loaded; filtering produces new slices.
package dataset

import (
	"goreplicate/domain/core"
)

// RawRow is one data row keyed by column header.
type RawRow map[string]string

// RawFrame is a loaded tabular file before typed decoding.
type RawFrame struct {
	Source  string   // path or logical name, used in error messages
	Headers []string // column headers in file order
	Rows    []RawRow
	Hash    core.DataHash // fingerprint of the raw bytes
}

// HasColumn reports whether the frame carries the named column.
func (f *RawFrame) HasColumn(name string) bool {
	for _, h := range f.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// SocialChoice is one binary allocation decision between X and Y.
type SocialChoice struct {
	Subject core.SubjectID
	Session int

	BehindX float64 // s_x: decider behind the other under X
	AheadX  float64 // r_x: decider ahead of the other under X
	BehindY float64 // s_y
	AheadY  float64 // r_y

	PosRecip float64 // q: other was kind before this game
	NegRecip float64 // v: other was unkind before this game

	SelfX  float64
	OtherX float64
	SelfY  float64
	OtherY float64

	ChoseX bool
}

// EffortChoice is one effort allocation (or a prediction of one) in the
// real-effort task.
type EffortChoice struct {
	Subject      core.SubjectID
	Effort       float64 // tasks chosen, censored to [EffortLowerBound, EffortUpperBound]
	Wage         float64
	NetDistance  float64 // days between decision and payment, net of work date
	Today        bool    // work happens on the decision date
	Prediction   bool    // row is a prediction of a future decision
	BonusOffered bool
}

// Observable bounds of the effort choice; values at a bound are censored.
const (
	EffortLowerBound = 10.0
	EffortUpperBound = 110.0
)

// Clusters maps every observation to the subject it belongs to.
type Clusters struct {
	Index []int            // Index[i] is the cluster of observation i
	IDs   []core.SubjectID // IDs[j] is the subject of cluster j, first-seen order
}

// NewClusters builds the cluster index from per-observation subject ids.
func NewClusters(subjects []core.SubjectID) Clusters {
	c := Clusters{Index: make([]int, len(subjects))}
	seen := make(map[core.SubjectID]int)
	for i, s := range subjects {
		j, ok := seen[s]
		if !ok {
			j = len(c.IDs)
			seen[s] = j
			c.IDs = append(c.IDs, s)
		}
		c.Index[i] = j
	}
	return c
}

// Count returns the number of distinct clusters.
func (c Clusters) Count() int {
	return len(c.IDs)
}

// Sizes returns the observation count per cluster.
func (c Clusters) Sizes() []int {
	sizes := make([]int, len(c.IDs))
	for _, j := range c.Index {
		sizes[j]++
	}
	return sizes
}

// Summary describes an estimation sample for the console report.
type Summary struct {
	Observations     int     `json:"observations"`
	Subjects         int     `json:"subjects"`
	ObsPerSubjectAvg float64 `json:"obs_per_subject_avg"`
	ObsPerSubjectMin float64 `json:"obs_per_subject_min"`
	ObsPerSubjectMax float64 `json:"obs_per_subject_max"`
	OutcomeMean      float64 `json:"outcome_mean"`
	OutcomeStdDev    float64 `json:"outcome_std_dev"`
	Excluded         int     `json:"excluded_subjects"`
}
