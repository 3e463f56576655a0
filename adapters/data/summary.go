package data

import (
	"fmt"

	"goreplicate/domain/core"
	"goreplicate/domain/dataset"

	"github.com/montanaflynn/stats"
)

// Summarize describes an estimation sample: size, cluster sizes and the
// outcome distribution.
func Summarize(clusters dataset.Clusters, outcomes []float64, excluded int) (dataset.Summary, error) {
	if len(outcomes) == 0 {
		return dataset.Summary{}, core.ErrEmptyDataset
	}

	sizes := clusters.Sizes()
	perSubject := make(stats.Float64Data, len(sizes))
	for i, s := range sizes {
		perSubject[i] = float64(s)
	}

	avg, err := perSubject.Mean()
	if err != nil {
		return dataset.Summary{}, fmt.Errorf("cluster sizes: %w", err)
	}
	minSize, _ := perSubject.Min()
	maxSize, _ := perSubject.Max()

	outcomeMean, err := stats.Mean(outcomes)
	if err != nil {
		return dataset.Summary{}, fmt.Errorf("outcome mean: %w", err)
	}
	outcomeSD, _ := stats.StandardDeviationSample(outcomes)

	return dataset.Summary{
		Observations:     len(outcomes),
		Subjects:         clusters.Count(),
		ObsPerSubjectAvg: avg,
		ObsPerSubjectMin: minSize,
		ObsPerSubjectMax: maxSize,
		OutcomeMean:      outcomeMean,
		OutcomeStdDev:    outcomeSD,
		Excluded:         excluded,
	}, nil
}

// SocialOutcomes is the share-of-X outcome vector.
func SocialOutcomes(obs []dataset.SocialChoice) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		if o.ChoseX {
			out[i] = 1
		}
	}
	return out
}

// EffortOutcomes is the chosen-effort outcome vector.
func EffortOutcomes(obs []dataset.EffortChoice) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.Effort
	}
	return out
}
