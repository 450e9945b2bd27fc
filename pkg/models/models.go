package models

import (
	"fmt"
)

// Node represents one endpoint of an edge in a partitioned graph. Partition
// ids are 0-based labels assigned by the partitioning step; node indexes are
// 1-based positions in the source graph.
type Node struct {
	Partition int `json:"partition"`
	Index     int `json:"index"`
}

// String renders the node in cluster encoding form, e.g. "(0.5)".
func (n Node) String() string {
	return fmt.Sprintf("(%d.%d)", n.Partition, n.Index)
}

// Validate checks the data model bounds for a node.
func (n Node) Validate() error {
	if n.Partition < 0 {
		return ValidationError{Field: "partition", Message: "must not be negative", Value: fmt.Sprintf("%d", n.Partition)}
	}
	if n.Index < 1 {
		return ValidationError{Field: "index", Message: "must be at least 1", Value: fmt.Sprintf("%d", n.Index)}
	}
	return nil
}

// Edge represents an undirected edge between two nodes, kept in the
// orientation it was encountered in.
type Edge struct {
	X Node `json:"x"`
	Y Node `json:"y"`
}

// String renders the edge in cluster encoding form, e.g. "(0.5):(1.3)".
func (e Edge) String() string {
	return fmt.Sprintf("%s:%s", e.X, e.Y)
}

// IsCross reports whether the endpoints live in different partitions.
func (e Edge) IsCross() bool {
	return e.X.Partition != e.Y.Partition
}

// Validate checks both endpoints.
func (e Edge) Validate() error {
	if err := e.X.Validate(); err != nil {
		return err
	}
	return e.Y.Validate()
}

// WeightedEdge represents an edge between two plain node indexes with an
// integer weight, as written to traversal graph files.
type WeightedEdge struct {
	U      int `json:"u"`
	V      int `json:"v"`
	Weight int `json:"weight"`
}

// ValidationError represents structured validation errors
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (ve ValidationError) Error() string {
	if ve.Value != "" {
		return fmt.Sprintf("validation error in field '%s': %s (value: %s)", ve.Field, ve.Message, ve.Value)
	}
	return fmt.Sprintf("validation error in field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	return fmt.Sprintf("%d validation errors: %s (and %d more)", len(ve), ve[0].Error(), len(ve)-1)
}
