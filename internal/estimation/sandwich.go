package estimation

import (
	"fmt"
	"math"

	"goreplicate/domain/core"
	"goreplicate/domain/dataset"

	"gonum.org/v1/gonum/mat"
)

// DefaultSymmetryTolerance is the relative tolerance of symmetry checks.
const DefaultSymmetryTolerance = 1e-6

// ClusterOuterProduct sums the score rows within each cluster and
// accumulates the outer product of every cluster sum: G = sum_j s_j s_j'.
// G is symmetric by construction.
func ClusterOuterProduct(scores mat.Matrix, clusters dataset.Clusters) (*mat.SymDense, error) {
	n, k := scores.Dims()
	if len(clusters.Index) != n {
		return nil, core.NewDimensionError("cluster index length", n, len(clusters.Index))
	}
	j := clusters.Count()
	if j == 0 {
		return nil, core.ErrEmptyDataset
	}

	sums := mat.NewDense(j, k, nil)
	for i := 0; i < n; i++ {
		c := clusters.Index[i]
		row := sums.RawRowView(c)
		for p := 0; p < k; p++ {
			row[p] += scores.At(i, p)
		}
	}

	g := mat.NewSymDense(k, nil)
	g.SymOuterK(1, sums.T())
	return g, nil
}

// DFAdjustment is the small-sample factor (N-1)/(N-K) * J/(J-1). It tends
// to J/(J-1) as N grows and is undefined for a single cluster.
func DFAdjustment(n, k, j int) (float64, error) {
	if j < 2 {
		return 0, fmt.Errorf("%w: got %d", core.ErrSingleCluster, j)
	}
	if n <= k {
		return 0, fmt.Errorf("%w: N=%d K=%d", core.ErrDegreesOfFreedom, n, k)
	}
	return float64(n-1) / float64(n-k) * float64(j) / float64(j-1), nil
}

// Sandwich holds the cluster-robust covariance and its ingredients.
type Sandwich struct {
	Covariance *mat.SymDense // Adj * H^-1 G H^-1
	HInv       *mat.SymDense
	G          *mat.SymDense
	Adjustment float64
}

// NewSandwich computes Adj * H^-1 G H^-1. H^-1 and the result are checked
// for symmetry within tol before being stored as symmetric matrices.
func NewSandwich(h, g mat.Symmetric, adj, tol float64) (*Sandwich, error) {
	k := h.SymmetricDim()
	if g.SymmetricDim() != k {
		return nil, core.NewDimensionError("outer-product matrix", k, g.SymmetricDim())
	}
	if tol <= 0 {
		tol = DefaultSymmetryTolerance
	}

	var inv mat.Dense
	if err := inv.Inverse(h); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSingularHessian, err)
	}
	hInv, err := checkedSymmetric("inverse hessian", &inv, tol)
	if err != nil {
		return nil, err
	}

	var left, v mat.Dense
	left.Mul(hInv, g)
	v.Mul(&left, hInv)
	v.Scale(adj, &v)

	cov, err := checkedSymmetric("sandwich covariance", &v, tol)
	if err != nil {
		return nil, err
	}
	return &Sandwich{
		Covariance: cov,
		HInv:       hInv,
		G:          mat.NewSymDense(k, symData(g)),
		Adjustment: adj,
	}, nil
}

// StandardErrors returns sqrt(diag(v)); a negative diagonal entry is an error.
func StandardErrors(v mat.Symmetric) ([]float64, error) {
	k := v.SymmetricDim()
	se := make([]float64, k)
	for i := 0; i < k; i++ {
		d := v.At(i, i)
		if d < 0 || math.IsNaN(d) {
			return nil, fmt.Errorf("%w: entry %d is %g", core.ErrNegativeVariance, i, d)
		}
		se[i] = math.Sqrt(d)
	}
	return se, nil
}

// IsSymmetric reports whether |a_ij - a_ji| <= tol * max(1, max|a|).
func IsSymmetric(a mat.Matrix, tol float64) bool {
	r, c := a.Dims()
	if r != c {
		return false
	}
	scale := 1.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			scale = math.Max(scale, math.Abs(a.At(i, j)))
		}
	}
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			if math.Abs(a.At(i, j)-a.At(j, i)) > tol*scale {
				return false
			}
		}
	}
	return true
}

func checkedSymmetric(what string, a mat.Matrix, tol float64) (*mat.SymDense, error) {
	if !IsSymmetric(a, tol) {
		return nil, fmt.Errorf("%w: %s", core.ErrNotSymmetric, what)
	}
	return symmetrize(a)
}

func symData(s mat.Symmetric) []float64 {
	k := s.SymmetricDim()
	data := make([]float64, k*k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			data[i*k+j] = s.At(i, j)
		}
	}
	return data
}
