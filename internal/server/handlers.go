package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/stewardhq/steward/internal/agent"
	"github.com/stewardhq/steward/internal/review"
	"github.com/stewardhq/steward/internal/store"
)

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
	Turn           int    `json:"turn,omitempty"`
}

type chatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
	NeedsApproval  bool   `json:"needs_approval"`
	Iterations     int    `json:"iterations"`
	TokensUsed     int    `json:"tokens_used"`
}

// handleChat runs one interactive agentic turn for the token's user. The
// caller always gets a response object; the worst case is the loop's
// apologetic fallback.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	userID := requestUser(r)
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = store.NewID()
	}

	system := chatSystemPrompt
	if hint := s.recorder.GoldenHint(userID, req.Message, nil); hint != "" {
		system += "\n\n" + hint
	}

	res, err := s.loop.Run(r.Context(), agent.Input{
		UserID:         userID,
		ConversationID: req.ConversationID,
		System:         system,
		Goal:           req.Message,
		Model:          s.router.Pick(req.Message, req.Turn),
	})
	if err != nil {
		s.log.Error("chat turn failed", "user", userID, "error", err)
		writeError(w, http.StatusBadGateway, "the assistant is temporarily unavailable, please retry")
		return
	}

	s.recorder.Record(userID, req.ConversationID, req.Turn, req.Message, "chat", res)
	if res.NeedsApproval {
		s.notifyPending(r, userID)
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:       res.Response,
		ConversationID: req.ConversationID,
		NeedsApproval:  res.NeedsApproval,
		Iterations:     res.Iterations,
		TokensUsed:     res.TokensUsed,
	})
}

type orchestrateRequest struct {
	Mode       string `json:"mode"`
	UserID     string `json:"user_id,omitempty"`
	PropertyID string `json:"property_id,omitempty"`
}

type orchestrateResponse struct {
	Processed         bool     `json:"processed"`
	EventsProcessed   int      `json:"events_processed"`
	WorkflowsAdvanced int      `json:"workflows_advanced"`
	ActionsTaken      int      `json:"actions_taken"`
	NotificationsSent int      `json:"notifications_sent"`
	Errors            []string `json:"errors,omitempty"`
	DurationMs        int64    `json:"duration_ms"`
	TotalTokens       int      `json:"total_tokens"`
}

// handleOrchestrate is the cron entry point. Mode instant drains the event
// queue and advances due workflows; daily/weekly/monthly additionally run
// the matching review pass first.
func (s *Server) handleOrchestrate(w http.ResponseWriter, r *http.Request) {
	var req orchestrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Mode == "" {
		req.Mode = "instant"
	}
	start := time.Now()
	out := orchestrateResponse{Processed: true}

	switch req.Mode {
	case "instant":
	case review.ModeDaily, review.ModeWeekly, review.ModeMonthly:
		stats := s.reviews.Run(r.Context(), req.Mode, req.UserID, req.PropertyID)
		out.ActionsTaken += stats.ActionsTaken
		out.TotalTokens += stats.TotalTokens
		out.Errors = append(out.Errors, stats.Errors...)
	default:
		writeError(w, http.StatusBadRequest, "unknown mode "+req.Mode)
		return
	}

	summary := s.processor.ProcessAll(r.Context())
	out.EventsProcessed = summary.EventsProcessed
	out.ActionsTaken += summary.ActionsTaken
	out.TotalTokens += summary.TotalTokens
	out.Errors = append(out.Errors, summary.Errors...)

	advanced, wfErrs := s.advancer.Advance(r.Context(), time.Now(), 50)
	out.WorkflowsAdvanced = advanced
	out.Errors = append(out.Errors, wfErrs...)

	out.DurationMs = time.Since(start).Milliseconds()
	if s.notifier != nil {
		s.notifier.RunSummary(r.Context(), out.EventsProcessed, out.WorkflowsAdvanced, out.ActionsTaken, len(out.Errors))
		out.NotificationsSent = 1
	}
	writeJSON(w, http.StatusOK, out)
}

type resolveRequest struct {
	Approve    bool   `json:"approve"`
	ResolvedBy string `json:"resolved_by"`
}

type resolveResponse struct {
	Status   string          `json:"status"`
	Executed bool            `json:"executed"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// handleResolve settles a pending action by id. The action must belong to
// the token's user.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	userID := requestUser(r)
	actionID := r.PathValue("id")
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ResolvedBy == "" {
		req.ResolvedBy = userID
	}

	action, err := s.st.GetPendingAction(actionID)
	if err != nil || action == nil || action.UserID != userID {
		writeError(w, http.StatusNotFound, "pending action not found")
		return
	}

	res, err := s.gate.Resolve(r.Context(), actionID, req.Approve, req.ResolvedBy)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	status := store.ActionRejected
	if req.Approve {
		status = store.ActionApproved
	}
	writeJSON(w, http.StatusOK, resolveResponse{
		Status:   status,
		Executed: req.Approve && res.Success,
		Result:   res.Data,
		Error:    res.Error,
	})
}

// handleListActions returns the token's user's pending approvals.
func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	actions, err := s.st.ListPendingActions(requestUser(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": actions})
}

// notifyPending pushes an approval notification for the newest pending
// action created during a chat turn.
func (s *Server) notifyPending(r *http.Request, userID string) {
	if s.notifier == nil {
		return
	}
	actions, err := s.st.ListPendingActions(userID)
	if err != nil || len(actions) == 0 {
		return
	}
	latest := actions[len(actions)-1]
	s.notifier.ApprovalNeeded(r.Context(), userID, latest.ToolName, latest.Recommendation, latest.ID)
}
