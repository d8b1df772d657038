package middleware

import (
	"time"

	"github.com/openalgoflow/engine/pkg/handlers"
	"github.com/openalgoflow/engine/pkg/logging"
	"github.com/openalgoflow/engine/pkg/types"
)

// LoggingMiddleware logs node execution start and completion, recording
// elapsed time and surfacing errors.
type LoggingMiddleware struct {
	logger *logging.Logger
}

// NewLoggingMiddleware creates a logging middleware bound to logger.
func NewLoggingMiddleware(logger *logging.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

func (m *LoggingMiddleware) Process(ec *handlers.ExecContext, node types.Node, next Handler) (interface{}, error) {
	nodeLogger := m.logger.WithNodeID(node.ID).WithNodeType(node.Type)

	nodeLogger.Debug("node execution started")
	start := time.Now()

	result, err := next(ec, node)

	duration := time.Since(start)
	if err != nil {
		nodeLogger.WithError(err).WithField("duration_ms", duration.Milliseconds()).Error("node execution failed")
	} else {
		nodeLogger.WithField("duration_ms", duration.Milliseconds()).Debug("node execution completed")
	}

	return result, err
}

func (m *LoggingMiddleware) Name() string {
	return "Logging"
}
