// Package logging provides structured logging capabilities for the workflow engine.
//
// # Overview
//
// The logging package wraps the standard library's log/slog in a small
// Logger type that carries workflow-specific fields (workflow, execution
// and node ids) and can travel through a context.Context.
//
// # Features
//
//   - Structured logging: JSON (default) or slog text format
//   - Log levels: debug, info, warn, error
//   - Context fields: workflow_id, execution_id, node_id, node_type
//   - Thread-safe: Safe for concurrent use
//   - Flexible output: Write to any io.Writer
//
// # Log Levels
//
// Config.Level takes "debug", "info", "warn" (or "warning") or "error";
// any other value selects info. Fatal and Fatalf log at error level and
// then exit the process with status 1.
//
// # Basic Usage
//
//	import "github.com/openalgoflow/engine/pkg/logging"
//
//	// Create logger
//	logger := logging.New(logging.Config{
//	    Level:  "info",
//	    Output: os.Stdout,
//	})
//
//	// Log messages
//	logger.WithWorkflowID("wf-123").
//	    WithField("node_count", 42).
//	    Info("Workflow started")
//
//	logger.WithNodeID("node-5").WithError(err).Error("Execution failed")
//
// # Context Integration
//
// WithContext stores the logger in a context.Context and FromContext reads
// it back; FromContext returns a logger built from DefaultConfig when the
// context holds none:
//
//	ctx = logger.WithExecutionID("exec-456").WithContext(ctx)
//	logging.FromContext(ctx).WithNodeType(node.Type).Info("Node executing")
//
// # Structured Fields
//
// Fields are attached with WithField, WithFields, WithError and the id
// helpers. Each returns a new Logger and leaves the receiver unchanged:
//
//	logger.WithFields(map[string]interface{}{
//	    "method":      "GET",
//	    "url":         "https://api.example.com",
//	    "status":      200,
//	    "duration_ms": 145,
//	}).Info("HTTP request completed")
//
// Debugf, Infof, Warnf and Errorf format the message with fmt.Sprintf.
//
// # Output Formats
//
// JSON format (the default, slog.JSONHandler):
//
//	{"time":"2024-01-15T10:30:00Z","level":"INFO","msg":"Workflow started","workflow_id":"wf-123","execution_id":"exec-456"}
//
// Text format (Config.Pretty, slog.TextHandler):
//
//	time=2024-01-15T10:30:00.000Z level=INFO msg="Workflow started" workflow_id=wf-123 execution_id=exec-456
//
// # Configuration
//
// Logger configuration options:
//
//	config := logging.Config{
//	    Level:         "debug",   // Minimum level to log
//	    Output:        os.Stdout, // Where to write logs (nil means os.Stdout)
//	    Pretty:        true,      // Text format instead of JSON
//	    IncludeCaller: true,      // Include source file:line
//	}
//
// DefaultConfig returns info level, JSON format, os.Stdout and no caller.
//
// # Performance Considerations
//
// Messages below the configured level are dropped by the slog handler.
// The formatted variants (Infof and the others) build their message with
// fmt.Sprintf before that level check. Output goes to the configured
// writer without extra buffering.
//
// # Common Logging Patterns
//
// Workflow execution:
//
//	logger.WithWorkflowID(workflow.ID).
//	    WithField("node_count", len(workflow.Nodes)).
//	    Info("Workflow execution started")
//
// Node execution:
//
//	logger.WithNodeID(node.ID).WithNodeType(node.Type).Debug("Node executing")
//
// Error logging:
//
//	logger.WithNodeID(node.ID).WithError(err).Error("Node execution failed")
//
// Performance metrics:
//
//	logger.WithWorkflowID(workflow.ID).WithFields(map[string]interface{}{
//	    "duration_ms":    elapsed.Milliseconds(),
//	    "nodes_executed": count,
//	}).Info("Workflow completed")
//
// # Integration with Observability
//
// The package does not subscribe to execution events itself; components
// such as the orchestrator log through a *Logger handed to them.
//
// # Best Practices
//
//   - Use structured fields instead of string formatting
//   - Include execution context (workflow_id, node_id, etc.)
//   - Log at appropriate levels (avoid debug in production)
//   - Add timing information for performance analysis
//   - Include error context (not just error message)
//   - Use consistent field names across the codebase
//
// # Thread Safety
//
// All logger operations are thread-safe and can be used concurrently
// from multiple goroutines without additional synchronization.
//
// # Testing
//
// For testing, use a logger with a buffer:
//
//	buf := &bytes.Buffer{}
//	logger := logging.New(logging.Config{
//	    Level:  "debug",
//	    Output: buf,
//	})
//
//	// Execute code, then verify log output
//	if !strings.Contains(buf.String(), "expected message") {
//	    t.Fatalf("missing log line: %s", buf.String())
//	}
package logging
