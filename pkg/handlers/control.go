package handlers

import (
	"fmt"
	"time"

	"github.com/openalgoflow/engine/pkg/types"
)

// StartHandler implements the start control node: the traverser's single
// entry point into a graph. It performs no gateway work of its own, only
// seeds the variable store with whatever trigger payload (webhook body,
// schedule metadata) the orchestrator attached to the node's data.
type StartHandler struct{}

func (StartHandler) Type() types.NodeType { return types.TypeStartTrigger }

func (StartHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	for k, v := range d {
		ec.Vars.Set(k, v)
	}
	return map[string]interface{}{"started": true}, nil
}

// LogHandler implements the log action node: writes a message to the
// execution's activity log at a configured level without touching the
// gateway.
type LogHandler struct{}

func (LogHandler) Type() types.NodeType { return types.TypeLog }

func (LogHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	message := strField(d, "message", "")
	level := strField(d, "level", "info")
	logger := ec.Logger.WithNodeID(node.ID)
	switch level {
	case "warn", "warning":
		logger.Warnf("[LOG] %s", message)
	case "error":
		logger.Errorf("[LOG] %s", message)
	case "debug":
		logger.Debugf("[LOG] %s", message)
	default:
		logger.Infof("[LOG] %s", message)
	}
	return map[string]interface{}{"status": "success", "message": message}, nil
}

// WaitUntilHandler implements the waitUntil control node: blocks until a
// target wall-clock time of day, waking periodically to recheck rather
// than sleeping the whole remaining interval in one shot so ctx
// cancellation is noticed promptly.
type WaitUntilHandler struct{}

func (WaitUntilHandler) Type() types.NodeType { return types.TypeWaitUntil }

func (WaitUntilHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	targetStr := strField(d, "targetTime", "09:30")
	checkIntervalMs := intField(d, "checkIntervalMs", 1000)
	if checkIntervalMs <= 0 {
		checkIntervalMs = 1000
	}
	checkInterval := time.Duration(checkIntervalMs) * time.Millisecond

	targetH, targetM, targetS := parseTimeString(targetStr, 9, 30)
	targetSeconds := secondsSinceMidnight(targetH, targetM, targetS)

	now := time.Now()
	nowH, nowM, nowS := now.Clock()
	if secondsSinceMidnight(nowH, nowM, nowS) >= targetSeconds {
		return map[string]interface{}{
			"status":       "success",
			"message":      fmt.Sprintf("Target time %s already passed", targetStr),
			"target_time":  targetStr,
			"current_time": now.Format("15:04:05"),
			"waited":       false,
		}, nil
	}

	for {
		now = time.Now()
		nowH, nowM, nowS = now.Clock()
		remaining := targetSeconds - secondsSinceMidnight(nowH, nowM, nowS)
		if remaining <= 0 {
			return map[string]interface{}{
				"status":       "success",
				"message":      fmt.Sprintf("Waited until %s", targetStr),
				"target_time":  targetStr,
				"current_time": now.Format("15:04:05"),
				"waited":       true,
			}, nil
		}

		wait := checkInterval
		if remainingDur := time.Duration(remaining) * time.Second; remainingDur < wait {
			wait = remainingDur
		}
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ec.Ctx.Done():
			timer.Stop()
			return nil, ec.Ctx.Err()
		}
		timer.Stop()
	}
}
