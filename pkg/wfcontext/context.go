// Package wfcontext implements the per-execution variable store shared by
// every node in one workflow run: named variables set by earlier nodes,
// named condition results set by conditional/logic-gate nodes, and a small
// set of builtins derived from wall clock time.
package wfcontext

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Context holds the mutable state of a single workflow execution. It is
// safe for concurrent use; handlers running in parallel branches share one
// instance.
type Context struct {
	mu               sync.RWMutex
	variables        map[string]interface{}
	conditionResults map[string]bool
	now              time.Time // execution start, used for the fixed builtin clock
}

// New creates an empty Context. now is the instant used for timestamp/date
// builtins — fixed at execution start so every node in one run sees the
// same clock.
func New(now time.Time) *Context {
	return &Context{
		variables:        make(map[string]interface{}),
		conditionResults: make(map[string]bool),
		now:              now,
	}
}

// Now returns the fixed clock instant this execution started at, used by
// handlers that need "today" for expiry resolution without each one
// reading wall-clock time independently.
func (c *Context) Now() time.Time {
	return c.now
}

// Set stores a variable value.
func (c *Context) Set(name string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.variables[name] = value
}

// Get retrieves a variable value.
func (c *Context) Get(name string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.variables[name]
	return v, ok
}

// GetString retrieves a variable as a string, converting numeric/bool
// values with fmt, same as the interpolation builtins do.
func (c *Context) GetString(name string) (string, bool) {
	v, ok := c.Get(name)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%v", v), true
}

// GetFloat retrieves a variable as float64.
func (c *Context) GetFloat(name string) (float64, bool) {
	v, ok := c.Get(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// SetConditionResult records the outcome of a conditional or logic-gate
// node, keyed by node id, so downstream edge selection and the logicGate
// node can read it back.
func (c *Context) SetConditionResult(nodeID string, result bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conditionResults[nodeID] = result
}

// ConditionResult returns the recorded outcome of a prior conditional node.
func (c *Context) ConditionResult(nodeID string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.conditionResults[nodeID]
	return r, ok
}

// Snapshot returns a shallow copy of the variable map, for persisting with
// an execution record.
func (c *Context) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]interface{}, len(c.variables))
	for k, v := range c.variables {
		out[k] = v
	}
	return out
}

// builtin resolves one of the fixed clock-derived names recognized by
// template interpolation: timestamp, date, time, year, month, day, hour,
// minute, second, weekday, iso_timestamp.
func (c *Context) builtin(name string) (string, bool) {
	switch name {
	case "timestamp":
		return strconv.FormatInt(c.now.Unix(), 10), true
	case "date":
		return c.now.Format("2006-01-02"), true
	case "time":
		return c.now.Format("15:04:05"), true
	case "year":
		return strconv.Itoa(c.now.Year()), true
	case "month":
		return fmt.Sprintf("%02d", int(c.now.Month())), true
	case "day":
		return fmt.Sprintf("%02d", c.now.Day()), true
	case "hour":
		return fmt.Sprintf("%02d", c.now.Hour()), true
	case "minute":
		return fmt.Sprintf("%02d", c.now.Minute()), true
	case "second":
		return fmt.Sprintf("%02d", c.now.Second()), true
	case "weekday":
		return c.now.Weekday().String(), true
	case "iso_timestamp":
		return c.now.Format(time.RFC3339), true
	default:
		return "", false
	}
}

// Resolve descends a dotted path ("order.symbol", "timestamp") against
// builtins first, then nested variables. It never errors: a path that
// cannot be resolved returns ok=false, and callers (the interpolator) are
// expected to leave the original placeholder text unchanged.
func (c *Context) Resolve(path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	if len(parts) == 1 {
		if s, ok := c.builtin(parts[0]); ok {
			return s, true
		}
	}
	v, ok := c.Get(parts[0])
	if !ok {
		return nil, false
	}
	for _, key := range parts[1:] {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return v, true
}
