package partition

import (
	"fmt"
	"os"

	"github.com/gilchrisn/graph-fragmentation-service/pkg/encoding"
	"github.com/gilchrisn/graph-fragmentation-service/pkg/models"
)

// WriteClusterFile emits the labeled graph in the cluster encoding. For
// every node it writes a locator comment followed by that node's
// adjacency row, so each undirected edge appears once per orientation.
func WriteClusterFile(path, source string, labels []int, adj [][]int, partitions int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cluster file %s: %w", path, err)
	}
	defer f.Close()

	w := encoding.NewWriter(f)
	if err := w.WriteComment(fmt.Sprintf("source: %s", source)); err != nil {
		return err
	}
	if err := w.WritePartitionCount(partitions); err != nil {
		return err
	}
	if err := w.WriteComment(fmt.Sprintf("cluster: %v", labels)); err != nil {
		return err
	}

	for u, neighbors := range adj {
		comment := fmt.Sprintf("node #%d : cluster[%d]=%d", u+1, u, labels[u])
		if err := w.WriteComment(comment); err != nil {
			return err
		}
		for _, v := range neighbors {
			edge := models.Edge{
				X: models.Node{Partition: labels[u], Index: u + 1},
				Y: models.Node{Partition: labels[v], Index: v + 1},
			}
			if err := w.WriteEdge(edge); err != nil {
				return err
			}
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close cluster file %s: %w", path, err)
	}
	return nil
}
