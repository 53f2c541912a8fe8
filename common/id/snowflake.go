// Package id hands out the snowflake IDs used for every Cerium row: users,
// sessions, organizations, invitations, conversations and messages.
package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init sets up the process-wide node. The server and the worker run with
// distinct node IDs so their IDs never collide.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a time-ordered int64 ID unique across all Cerium processes.
func New() int64 {
	return node.Generate().Int64()
}
