package id

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator issues time-ordered int64 ids for persisted rows.
type Generator interface {
	Next() int64
}

type snowflakeGenerator struct {
	node *snowflake.Node
}

// NewGenerator returns a Snowflake generator for the given node. Node ids must
// be unique across running processes that share a database.
func NewGenerator(nodeID int64) (Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("creating snowflake node %d: %w", nodeID, err)
	}
	return &snowflakeGenerator{node: node}, nil
}

func (g *snowflakeGenerator) Next() int64 {
	return g.node.Generate().Int64()
}
