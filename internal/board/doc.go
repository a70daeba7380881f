// Package board is the workflow board engine.
//
// It decides which status transitions are legal, tracks how long tasks stay
// in each status, partitions tasks into swimlanes, computes the filtered and
// sorted task list of every board cell, and derives column and swimlane
// metrics. Everything here is computation over values supplied by the
// caller: the engine performs no I/O and holds no global state. Callers
// thread explicit state (task snapshots, a History, ColumnViews) through it
// and own persistence.
package board
