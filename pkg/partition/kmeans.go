package partition

import (
	"fmt"
	"math/rand"
)

// kmeansLabels clusters the embedded points into k groups using Lloyd's
// algorithm with k-means++ seeding. The seed makes runs reproducible.
func kmeansLabels(points [][]float64, k int, seed int64, maxIterations int) ([]int, error) {
	n := len(points)
	if k > n {
		return nil, fmt.Errorf("cannot form %d clusters from %d points", k, n)
	}
	if maxIterations < 1 {
		maxIterations = 1
	}

	rng := rand.New(rand.NewSource(seed))
	dim := len(points[0])
	centers := seedCenters(points, k, rng)
	labels := make([]int, n)

	for iter := 0; iter < maxIterations; iter++ {
		changed := 0
		for i, p := range points {
			best := 0
			bestDist := squaredDistance(p, centers[0])
			for c := 1; c < k; c++ {
				if d := squaredDistance(p, centers[c]); d < bestDist {
					best, bestDist = c, d
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed++
			}
		}
		if changed == 0 && iter > 0 {
			break
		}

		counts := make([]int, k)
		for c := range centers {
			centers[c] = make([]float64, dim)
		}
		for i, p := range points {
			counts[labels[i]]++
			for j, v := range p {
				centers[labels[i]][j] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// Reseat an empty cluster on the point farthest from its
				// current center.
				centers[c] = append([]float64(nil), points[farthestPoint(points, centers, labels)]...)
				continue
			}
			for j := range centers[c] {
				centers[c][j] /= float64(counts[c])
			}
		}
	}
	return labels, nil
}

// seedCenters picks k initial centers with the k-means++ rule: each new
// center is drawn with probability proportional to its squared distance
// from the nearest already-chosen center.
func seedCenters(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centers := make([][]float64, 0, k)
	centers = append(centers, append([]float64(nil), points[rng.Intn(n)]...))

	dists := make([]float64, n)
	for len(centers) < k {
		var total float64
		for i, p := range points {
			d := squaredDistance(p, centers[0])
			for _, c := range centers[1:] {
				if dc := squaredDistance(p, c); dc < d {
					d = dc
				}
			}
			dists[i] = d
			total += d
		}

		next := 0
		if total > 0 {
			target := rng.Float64() * total
			var cum float64
			for i, d := range dists {
				cum += d
				if cum >= target {
					next = i
					break
				}
			}
		} else {
			next = rng.Intn(n)
		}
		centers = append(centers, append([]float64(nil), points[next]...))
	}
	return centers
}

func farthestPoint(points [][]float64, centers [][]float64, labels []int) int {
	best, bestDist := 0, -1.0
	for i, p := range points {
		if d := squaredDistance(p, centers[labels[i]]); d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
