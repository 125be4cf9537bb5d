package docstore

import (
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// concernsFor maps a consistency level onto wire-level write and read
// concerns. Stronger levels acknowledge against a majority and read
// linearizably; weaker levels acknowledge a single node.
func concernsFor(level ConsistencyLevel) (*writeconcern.WriteConcern, *readconcern.ReadConcern) {
	switch level {
	case ConsistencyStrong:
		return writeconcern.Majority(), readconcern.Linearizable()
	case ConsistencyBoundedStaleness:
		return writeconcern.Majority(), readconcern.Majority()
	case ConsistencySession:
		return writeconcern.Majority(), readconcern.Local()
	case ConsistencyConsistentPrefix:
		return &writeconcern.WriteConcern{W: 1}, readconcern.Available()
	case ConsistencyEventual:
		return &writeconcern.WriteConcern{W: 1}, readconcern.Local()
	default:
		return writeconcern.Majority(), readconcern.Local()
	}
}
