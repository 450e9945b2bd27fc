package partition

import (
	"sort"
)

// louvainGraph is the working graph for one aggregation level. Edge
// weights appear under both endpoints, and a self entry carries twice the
// internal weight of the community it condenses.
type louvainGraph struct {
	adj []map[int]float64
}

func (g *louvainGraph) degrees() ([]float64, float64) {
	k := make([]float64, len(g.adj))
	var total float64
	for u, neighbors := range g.adj {
		for _, w := range neighbors {
			k[u] += w
		}
		total += k[u]
	}
	return k, total / 2
}

// louvainLabels partitions the graph by greedy modularity optimization.
// The partition count is discovered, not requested. Node and community
// visits run in sorted order so repeated runs give identical labels.
func louvainLabels(adj [][]int, maxPasses int) []int {
	n := len(adj)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i
	}
	if maxPasses < 1 {
		maxPasses = 1
	}

	g := &louvainGraph{adj: make([]map[int]float64, n)}
	for u, neighbors := range adj {
		g.adj[u] = make(map[int]float64, len(neighbors))
		for _, v := range neighbors {
			if v != u {
				g.adj[u][v]++
			}
		}
	}

	for pass := 0; pass < maxPasses; pass++ {
		moved, nodeToComm := oneLevel(g)
		if !moved {
			break
		}
		compact := compactCommunities(nodeToComm)
		for i := range labels {
			labels[i] = compact[nodeToComm[labels[i]]]
		}
		next := aggregate(g, nodeToComm, compact)
		if len(next.adj) == len(g.adj) {
			break
		}
		g = next
	}
	return compactLabels(labels)
}

// oneLevel runs local moving to convergence on the current graph and
// reports the final community of each node.
func oneLevel(g *louvainGraph) (bool, []int) {
	n := len(g.adj)
	k, m := g.degrees()
	if m == 0 {
		identity := make([]int, n)
		for i := range identity {
			identity[i] = i
		}
		return false, identity
	}

	nodeToComm := make([]int, n)
	tot := make([]float64, n)
	for i := range nodeToComm {
		nodeToComm[i] = i
		tot[i] = k[i]
	}

	improved := false
	for {
		moves := 0
		for u := 0; u < n; u++ {
			current := nodeToComm[u]

			links := make(map[int]float64)
			for _, v := range sortedKeys(g.adj[u]) {
				if v != u {
					links[nodeToComm[v]] += g.adj[u][v]
				}
			}

			tot[current] -= k[u]
			best := current
			bestGain := links[current] - tot[current]*k[u]/(2*m)
			for _, c := range sortedKeys(links) {
				if c == current {
					continue
				}
				gain := links[c] - tot[c]*k[u]/(2*m)
				if gain > bestGain+1e-12 {
					best, bestGain = c, gain
				}
			}
			tot[best] += k[u]
			nodeToComm[u] = best
			if best != current {
				moves++
				improved = true
			}
		}
		if moves == 0 {
			break
		}
	}
	return improved, nodeToComm
}

// aggregate condenses each community into a single node of the next
// level. Internal weight survives as a self entry so later levels see the
// full degree of the condensed community.
func aggregate(g *louvainGraph, nodeToComm []int, compact map[int]int) *louvainGraph {
	next := &louvainGraph{adj: make([]map[int]float64, len(compact))}
	for i := range next.adj {
		next.adj[i] = make(map[int]float64)
	}
	for u, neighbors := range g.adj {
		cu := compact[nodeToComm[u]]
		for v, w := range neighbors {
			next.adj[cu][compact[nodeToComm[v]]] += w
		}
	}
	return next
}

// compactCommunities maps surviving community ids to 0..K-1 in node
// order.
func compactCommunities(nodeToComm []int) map[int]int {
	compact := make(map[int]int)
	for _, c := range nodeToComm {
		if _, seen := compact[c]; !seen {
			compact[c] = len(compact)
		}
	}
	return compact
}

// compactLabels renumbers labels to 0..K-1 in first-seen order.
func compactLabels(labels []int) []int {
	compact := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		c, seen := compact[l]
		if !seen {
			c = len(compact)
			compact[l] = c
		}
		out[i] = c
	}
	return out
}

func sortedKeys(m map[int]float64) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
