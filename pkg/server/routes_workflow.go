package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/openalgoflow/engine/pkg/middleware"
	"github.com/openalgoflow/engine/pkg/orchestrator"
	"github.com/openalgoflow/engine/pkg/scheduler"
	"github.com/openalgoflow/engine/pkg/types"
)

// weekdayCaser folds a weekday name to lower case before lookup, so
// "Mon", "MON", and "mon" all resolve the same way — a defensive parse
// for an editor field callers will inevitably send with inconsistent
// case.
var weekdayCaser = cases.Lower(language.Und)

type saveWorkflowRequest struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Graph       types.Graph `json:"graph"`
}

// activateRequest describes when an activated workflow should run. Kind
// selects which of the remaining fields apply: daily, weekly, interval,
// or once.
type activateRequest struct {
	Kind string `json:"kind"` // "daily" | "weekly" | "interval" | "once"

	// daily / weekly
	Hour     int      `json:"hour"`
	Minute   int      `json:"minute"`
	Weekdays []string `json:"weekdays,omitempty"` // "sun".."sat", weekly only

	// interval
	Every string `json:"every,omitempty"` // Go duration string, e.g. "5m"

	// once
	At string `json:"at,omitempty"` // RFC3339 timestamp
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
	"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func (s *Server) validateGraph(wf types.Workflow) error {
	if wf.Name == "" {
		return fmt.Errorf("workflow name is required")
	}
	if err := middleware.ValidateWorkflowSize(wf.Graph.Nodes, wf.Graph.Edges, middleware.DefaultSizeLimitConfig()); err != nil {
		return err
	}
	if s.deps.Registry != nil {
		for _, node := range wf.Graph.Nodes {
			if err := s.deps.Registry.Validate(node); err != nil {
				return fmt.Errorf("node %q: %w", node.ID, err)
			}
		}
	}
	return nil
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.deps.Store.ListWorkflows(r.Context())
	if err != nil {
		s.writeErrorResponse(w, "failed to list workflows", http.StatusInternalServerError, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"workflows": summaries})
}

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestBodySize)
	var req saveWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, "invalid request body", http.StatusBadRequest, err)
		return
	}

	wf := types.Workflow{Name: req.Name, Description: req.Description, Graph: req.Graph}
	if err := s.validateGraph(wf); err != nil {
		s.writeErrorResponse(w, "invalid workflow", http.StatusBadRequest, err)
		return
	}

	saved, err := s.deps.Store.SaveWorkflow(r.Context(), wf)
	if err != nil {
		s.writeErrorResponse(w, "failed to save workflow", http.StatusInternalServerError, err)
		return
	}
	s.writeJSONResponse(w, http.StatusCreated, saved)
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := s.deps.Store.GetWorkflow(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErrorResponse(w, "workflow not found", http.StatusNotFound, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, wf)
}

func (s *Server) handleUpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestBodySize)
	var req saveWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, "invalid request body", http.StatusBadRequest, err)
		return
	}

	existing, err := s.deps.Store.GetWorkflow(r.Context(), id)
	if err != nil {
		s.writeErrorResponse(w, "workflow not found", http.StatusNotFound, err)
		return
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.Graph = req.Graph
	if err := s.validateGraph(existing); err != nil {
		s.writeErrorResponse(w, "invalid workflow", http.StatusBadRequest, err)
		return
	}

	if err := s.deps.Store.UpdateWorkflow(r.Context(), existing); err != nil {
		s.writeErrorResponse(w, "failed to update workflow", http.StatusInternalServerError, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, existing)
}

func (s *Server) handleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if s.deps.Scheduler != nil {
		s.deps.Scheduler.Deactivate(id)
	}
	if err := s.deps.Store.DeleteWorkflow(r.Context(), id); err != nil {
		s.writeErrorResponse(w, "failed to delete workflow", http.StatusInternalServerError, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"success": true})
}

// handleActivateWorkflow schedules recurring or one-shot execution of a
// workflow, per the shape described in activateRequest.
func (s *Server) handleActivateWorkflow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	wf, err := s.deps.Store.GetWorkflow(r.Context(), id)
	if err != nil {
		s.writeErrorResponse(w, "workflow not found", http.StatusNotFound, err)
		return
	}

	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, "invalid request body", http.StatusBadRequest, err)
		return
	}

	sched, err := s.buildSchedule(id, req)
	if err != nil {
		s.writeErrorResponse(w, "invalid schedule", http.StatusBadRequest, err)
		return
	}

	jobID, err := s.deps.Scheduler.Activate(sched)
	if err != nil {
		s.writeErrorResponse(w, "failed to activate workflow", http.StatusBadRequest, err)
		return
	}

	wf.IsActive = true
	wf.ScheduleJobID = jobID
	if err := s.deps.Store.UpdateWorkflow(r.Context(), wf); err != nil {
		s.writeErrorResponse(w, "failed to persist activation", http.StatusInternalServerError, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, wf)
}

func (s *Server) buildSchedule(workflowID string, req activateRequest) (scheduler.Schedule, error) {
	switch req.Kind {
	case "daily":
		expr, err := scheduler.CronExprForFrequency("daily", req.Hour, req.Minute, time.Sunday)
		if err != nil {
			return scheduler.Schedule{}, err
		}
		return scheduler.Schedule{Kind: scheduler.KindCron, CronExpr: expr, WorkflowID: workflowID}, nil

	case "weekly":
		if len(req.Weekdays) == 0 {
			return scheduler.Schedule{}, fmt.Errorf("weekly schedule requires at least one weekday")
		}
		days := make([]time.Weekday, 0, len(req.Weekdays))
		for _, name := range req.Weekdays {
			folded := weekdayCaser.String(name)
			if len(folded) > 3 {
				folded = folded[:3]
			}
			wd, ok := weekdayNames[folded]
			if !ok {
				return scheduler.Schedule{}, fmt.Errorf("unknown weekday %q", name)
			}
			days = append(days, wd)
		}
		expr, err := scheduler.CronExprForWeekdays(req.Hour, req.Minute, days)
		if err != nil {
			return scheduler.Schedule{}, err
		}
		return scheduler.Schedule{Kind: scheduler.KindCron, CronExpr: expr, WorkflowID: workflowID}, nil

	case "interval":
		every, err := time.ParseDuration(req.Every)
		if err != nil {
			return scheduler.Schedule{}, fmt.Errorf("invalid interval: %w", err)
		}
		return scheduler.Schedule{Kind: scheduler.KindInterval, Every: every, WorkflowID: workflowID}, nil

	case "once":
		at, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			return scheduler.Schedule{}, fmt.Errorf("invalid timestamp: %w", err)
		}
		return scheduler.Schedule{Kind: scheduler.KindOnce, At: at, WorkflowID: workflowID}, nil

	default:
		return scheduler.Schedule{}, fmt.Errorf("unknown schedule kind %q", req.Kind)
	}
}

func (s *Server) handleDeactivateWorkflow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	wf, err := s.deps.Store.GetWorkflow(r.Context(), id)
	if err != nil {
		s.writeErrorResponse(w, "workflow not found", http.StatusNotFound, err)
		return
	}

	if s.deps.Scheduler != nil {
		s.deps.Scheduler.Deactivate(id)
	}
	wf.IsActive = false
	wf.ScheduleJobID = ""
	if err := s.deps.Store.UpdateWorkflow(r.Context(), wf); err != nil {
		s.writeErrorResponse(w, "failed to persist deactivation", http.StatusInternalServerError, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, wf)
}

// handleExecuteWorkflow runs a workflow on demand. If another execution of
// the same workflow is already in flight, it returns the already_running
// envelope instead of blocking or queuing the caller.
func (s *Server) handleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	wf, err := s.deps.Store.GetWorkflow(r.Context(), id)
	if err != nil {
		s.writeErrorResponse(w, "workflow not found", http.StatusNotFound, err)
		return
	}

	execution, err := s.deps.Orchestrator.Execute(r.Context(), wf, nil)
	if err == orchestrator.ErrAlreadyRunning {
		s.writeJSONResponse(w, http.StatusConflict, map[string]interface{}{
			"status":  "already_running",
			"message": fmt.Sprintf("workflow %q is already running", id),
		})
		return
	}

	s.writeJSONResponse(w, http.StatusOK, execution)
}

// handleWebhookTrigger lets an external caller invoke a workflow by id
// with an arbitrary JSON body, forwarded into the execution's variable
// context under the "webhook" key. Unauthenticated by design, but
// rate-limited like any other execution endpoint.
func (s *Server) handleWebhookTrigger(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	wf, err := s.deps.Store.GetWorkflow(r.Context(), id)
	if err != nil {
		s.writeErrorResponse(w, "workflow not found", http.StatusNotFound, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeErrorResponse(w, "failed to read request body", http.StatusBadRequest, err)
		return
	}
	var payload interface{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			s.writeErrorResponse(w, "invalid JSON body", http.StatusBadRequest, err)
			return
		}
	}

	trigger := map[string]interface{}{"webhook": payload}
	execution, err := s.deps.Orchestrator.Execute(r.Context(), wf, trigger)
	if err == orchestrator.ErrAlreadyRunning {
		s.writeJSONResponse(w, http.StatusConflict, map[string]interface{}{
			"status":  "already_running",
			"message": fmt.Sprintf("workflow %q is already running", id),
		})
		return
	}

	s.writeJSONResponse(w, http.StatusOK, execution)
}

func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeErrorResponse(w, "invalid limit", http.StatusBadRequest, err)
			return
		}
		limit = parsed
	}

	executions, err := s.deps.Store.ListExecutions(r.Context(), id, limit)
	if err != nil {
		s.writeErrorResponse(w, "failed to list executions", http.StatusInternalServerError, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"executions": executions})
}
