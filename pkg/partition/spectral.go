package partition

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// spectralLabels partitions the graph by embedding nodes with the k
// smallest eigenvectors of the normalized Laplacian and clustering the
// embedded rows with k-means.
func spectralLabels(adj [][]int, k int, seed int64, maxIterations int) ([]int, error) {
	n := len(adj)
	if k < 1 {
		return nil, fmt.Errorf("invalid partition count %d", k)
	}
	if k > n {
		return nil, fmt.Errorf("partition count %d exceeds node count %d", k, n)
	}
	if k == n {
		labels := make([]int, n)
		for i := range labels {
			labels[i] = i
		}
		return labels, nil
	}

	laplacian := normalizedLaplacian(adj)

	var es mat.EigenSym
	if !es.Factorize(laplacian, true) {
		return nil, fmt.Errorf("failed to factorize laplacian")
	}
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	// Eigenvalues come back in ascending order, so the first k columns
	// span the flattest directions of the graph.
	points := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, k)
		var norm float64
		for j := 0; j < k; j++ {
			row[j] = vecs.At(i, j)
			norm += row[j] * row[j]
		}
		norm = math.Sqrt(norm)
		if norm > 0 {
			for j := range row {
				row[j] /= norm
			}
		}
		points[i] = row
	}

	return kmeansLabels(points, k, seed, maxIterations)
}

// normalizedLaplacian builds I - D^(-1/2) A D^(-1/2) for the unweighted
// adjacency. Isolated nodes keep a unit diagonal.
func normalizedLaplacian(adj [][]int) *mat.SymDense {
	n := len(adj)
	degrees := make([]float64, n)
	for u, neighbors := range adj {
		degrees[u] = float64(len(neighbors))
	}

	l := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		l.SetSym(i, i, 1)
	}
	for u, neighbors := range adj {
		for _, v := range neighbors {
			if v <= u || degrees[u] == 0 || degrees[v] == 0 {
				continue
			}
			l.SetSym(u, v, -1/math.Sqrt(degrees[u]*degrees[v]))
		}
	}
	return l
}
