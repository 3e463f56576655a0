// Package social implements the discrete-choice social preference model:
// U = (1 - w) self + w other with w = alpha s + beta r + gamma q + delta v,
// and a logistic choice between two allocations X and Y.
package social

import (
	"goreplicate/domain/dataset"

	"gonum.org/v1/gonum/mat"
)

// Number of preference weights in front of the sensitivity parameter.
const numWeights = 4

// Features is the design of the utility difference
// U_X - U_Y = Base + Z * (alpha, beta, gamma, delta).
type Features struct {
	Base   []float64  // self_x - self_y
	Z      *mat.Dense // N x 4 indicator-weighted payoff gaps
	ChoseX []float64  // 1 when X was chosen
}

// BuildFeatures derives the design from a non-empty set of decisions. With
// gap = other - self for each allocation, the columns are
//
//	s_x gap_X - s_y gap_Y
//	r_x gap_X - r_y gap_Y
//	q (gap_X - gap_Y)
//	v (gap_X - gap_Y)
func BuildFeatures(obs []dataset.SocialChoice) *Features {
	n := len(obs)
	f := &Features{
		Base:   make([]float64, n),
		Z:      mat.NewDense(n, numWeights, nil),
		ChoseX: make([]float64, n),
	}
	for i, o := range obs {
		gapX := o.OtherX - o.SelfX
		gapY := o.OtherY - o.SelfY
		f.Base[i] = o.SelfX - o.SelfY
		row := f.Z.RawRowView(i)
		row[0] = o.BehindX*gapX - o.BehindY*gapY
		row[1] = o.AheadX*gapX - o.AheadY*gapY
		row[2] = o.PosRecip * (gapX - gapY)
		row[3] = o.NegRecip * (gapX - gapY)
		if o.ChoseX {
			f.ChoseX[i] = 1
		}
	}
	return f
}

// Len is the number of decisions
func (f *Features) Len() int {
	return len(f.Base)
}
