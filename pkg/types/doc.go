// Package types provides shared type definitions for the trading workflow
// engine.
//
// # Overview
//
// This package contains the core data structures shared across the engine:
// graphs (nodes and edges), workflows, execution records, and settings. It
// has no dependency on any other internal package, which keeps it safe to
// import from every layer without creating import cycles.
//
// # Node model
//
// A Node carries a Kind (start/action/query/streaming/control/conditional/
// logic_gate/group), which the traverser uses for start, group and branch
// handling, a Type that names the specific operation and selects its
// handler, and
// an untyped Data bag. Handlers pull the fields they recognize out of Data
// by name rather than the package eagerly typing every node kind — this
// keeps the graph forward compatible with fields a workflow editor adds
// later, at the cost of handlers needing to validate their own inputs.
//
// # Thread safety
//
// Types in this package are plain data and are not safe for concurrent
// mutation; callers coordinate access with their own synchronization.
package types
