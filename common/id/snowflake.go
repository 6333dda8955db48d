package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a new time-ordered report ID.
// Uses node 0 when Init was never called, so CLI runs and tests need no setup.
func New() int64 {
	_ = Init(0)
	return node.Generate().Int64()
}

// String renders an ID the way it is exposed over the API.
func String(v int64) string {
	return snowflake.ID(v).String()
}
