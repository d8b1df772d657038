// Package observer provides an event-driven observer pattern for workflow
// execution monitoring.
//
// # Overview
//
// Observers receive a single Event for every workflow- and node-level
// lifecycle transition (start, success, failure, completion). This lets
// consumers track execution behavior — logging, metrics, a live
// execution feed over a websocket — without coupling to the
// orchestrator or traverser packages.
//
// # Observer interface
//
//	type Observer interface {
//	    OnEvent(ctx context.Context, event Event)
//	}
//
// # Basic usage
//
//	import "github.com/openalgoflow/engine/pkg/observer"
//
//	mgr := observer.NewManager()
//	mgr.Register(observer.NewConsoleObserver())
//	mgr.Register(myMetricsObserver)
//
//	mgr.Notify(ctx, observer.Event{
//	    Type:        observer.EventNodeSuccess,
//	    Status:      observer.StatusSuccess,
//	    ExecutionID: execution.ID,
//	    NodeID:      node.ID,
//	})
//
// Manager.Notify fans an event out to every registered Observer in its
// own goroutine, recovering from any panic so one misbehaving observer
// never affects another or the caller.
//
// # Wiring into the orchestrator
//
// ProgressBroadcaster adapts a Manager to the orchestrator's
// ProgressObserver shape, so every execution lifecycle callback the
// orchestrator fires becomes an Event:
//
//	broadcaster := observer.NewProgressBroadcaster(mgr)
//	orch := orchestrator.New(traverser, store, cfg, logger, gw, stream, broadcaster)
//
// # Built-in observers
//
// NoOpObserver discards every event. ConsoleObserver prints events
// through a Logger (NewDefaultLogger by default, or a custom one via
// NewConsoleObserverWithLogger) — useful for local development.
//
// # Thread safety
//
// Manager.Notify and the built-in observers are safe for concurrent use.
// Manager.Register takes no lock, so observers are registered before
// the first Notify. Custom Observer implementations must be safe for concurrent OnEvent
// calls since Notify invokes every observer from its own goroutine.
package observer
