package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/jonlwowski012/agentfactory/internal/registry"
	"github.com/jonlwowski012/agentfactory/internal/store"
	"github.com/jonlwowski012/agentfactory/internal/workflow"
)

func (s *Server) registerAPI(mux *http.ServeMux) {
	// Agents (definitions from descriptors, mirrored in DB)
	mux.HandleFunc("GET /api/agents", s.listAgents)
	mux.HandleFunc("GET /api/agents/eligible", s.eligibleAgents)
	mux.HandleFunc("GET /api/agents/{name}", s.getAgent)
	mux.HandleFunc("GET /api/agents/{name}/instructions", s.getAgentInstructions)

	// Workflows
	mux.HandleFunc("GET /api/workflows", s.listWorkflows)
	mux.HandleFunc("POST /api/workflows", s.startWorkflow)
	mux.HandleFunc("GET /api/workflows/{id}", s.getWorkflow)
	mux.HandleFunc("POST /api/workflows/{id}/activate", s.activatePhase)
	mux.HandleFunc("POST /api/workflows/{id}/approval-request", s.requestApproval)
	mux.HandleFunc("POST /api/workflows/{id}/command", s.handleCommand)
	mux.HandleFunc("POST /api/workflows/{id}/complete", s.completeAgentTurn)
	mux.HandleFunc("GET /api/workflows/{id}/handoffs", s.listHandoffs)

	// Handoffs
	mux.HandleFunc("POST /api/handoffs/{id}/accept", s.acceptHandoff)

	// Model credentials (vault-sealed)
	mux.HandleFunc("GET /api/models/{name}/credential", s.getModelCredential)
	mux.HandleFunc("PUT /api/models/{name}/credential", s.setModelCredential)
	mux.HandleFunc("DELETE /api/models/{name}/credential", s.deleteModelCredential)

	// System
	mux.HandleFunc("GET /api/status", s.getStatus)
}

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	out := make([]map[string]any, 0)
	for _, name := range s.registry.Names() {
		def, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		out = append(out, map[string]any{
			"name":        def.Name,
			"description": def.Description,
			"model":       s.registry.ResolveModel(name),
			"triggers":    def.Triggers,
			"handoffs":    def.Handoffs,
			"file_path":   def.FilePath,
		})
	}
	jsonResponse(w, out)
}

func (s *Server) getAgent(w http.ResponseWriter, r *http.Request) {
	def, err := s.registry.Get(r.PathValue("name"))
	if err != nil {
		jsonError(w, err.Error(), statusForError(err))
		return
	}
	jsonResponse(w, map[string]any{
		"name":        def.Name,
		"description": def.Description,
		"model":       s.registry.ResolveModel(def.Name),
		"triggers":    def.Triggers,
		"handoffs":    def.Handoffs,
		"boundaries":  def.Boundaries,
		"file_path":   def.FilePath,
	})
}

func (s *Server) getAgentInstructions(w http.ResponseWriter, r *http.Request) {
	def, err := s.registry.Get(r.PathValue("name"))
	if err != nil {
		jsonError(w, err.Error(), statusForError(err))
		return
	}
	jsonResponse(w, map[string]string{
		"name":         def.Name,
		"instructions": def.Instructions,
	})
}

func (s *Server) eligibleAgents(w http.ResponseWriter, r *http.Request) {
	if s.snapshot == nil {
		jsonError(w, "no workspace configured", http.StatusServiceUnavailable)
		return
	}

	if cmd := r.URL.Query().Get("command"); cmd != "" {
		s.snapshot.SetLastCommand(cmd)
	}
	s.snapshot.Refresh()

	eligible := s.matcher.EligibleAgents(s.registry, s.snapshot)

	names := make([]string, 0, len(eligible))
	for name := range eligible {
		names = append(names, name)
	}
	sort.Strings(names)
	jsonResponse(w, map[string]any{"eligible": names})
}

func (s *Server) listWorkflows(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, s.tracker.List())
}

func (s *Server) startWorkflow(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phases []string `json:"phases"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			jsonError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	if len(body.Phases) == 0 {
		body.Phases = s.phases
	}

	inst, err := s.tracker.Start(body.Phases)
	if err != nil {
		jsonError(w, err.Error(), statusForError(err))
		return
	}
	jsonResponse(w, inst)
}

func (s *Server) getWorkflow(w http.ResponseWriter, r *http.Request) {
	inst, err := s.tracker.Get(r.PathValue("id"))
	if err != nil {
		jsonError(w, err.Error(), statusForError(err))
		return
	}
	jsonResponse(w, inst)
}

func (s *Server) activatePhase(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Agent string `json:"agent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Agent == "" {
		jsonError(w, "agent is required", http.StatusBadRequest)
		return
	}
	if !s.registry.Has(body.Agent) {
		jsonError(w, fmt.Sprintf("unknown agent: %s", body.Agent), http.StatusNotFound)
		return
	}

	id := r.PathValue("id")
	if err := s.tracker.Activate(id, body.Agent); err != nil {
		jsonError(w, err.Error(), statusForError(err))
		return
	}
	jsonResponse(w, map[string]string{"status": "activated"})
}

func (s *Server) requestApproval(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.RequestApproval(r.PathValue("id")); err != nil {
		jsonError(w, err.Error(), statusForError(err))
		return
	}
	jsonResponse(w, map[string]string{"status": "awaiting_approval"})
}

// handleCommand takes a raw user message for a run. Slash commands
// resolve the current phase; anything else is forwarded to the active
// agent untouched.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(body.Text)
	if text == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")

	if decision, feedback, ok := workflow.ParseCommand(text); ok {
		if s.snapshot != nil {
			s.snapshot.SetLastCommand(text)
		}
		if err := s.tracker.Resolve(id, decision, feedback); err != nil {
			jsonError(w, err.Error(), statusForError(err))
			return
		}
		jsonResponse(w, map[string]string{"status": "resolved", "decision": string(decision)})
		return
	}

	inst, err := s.tracker.Get(id)
	if err != nil {
		jsonError(w, err.Error(), statusForError(err))
		return
	}
	phase := inst.CurrentPhase()
	if phase == nil || phase.ActiveAgent == "" {
		jsonError(w, "no active agent for this workflow", http.StatusConflict)
		return
	}

	if err := s.router.Forward(phase.ActiveAgent, text); err != nil {
		jsonError(w, err.Error(), statusForError(err))
		return
	}
	jsonResponse(w, map[string]string{"status": "forwarded", "agent": phase.ActiveAgent})
}

// completeAgentTurn records the end of an agent's turn: every handoff
// the agent declares is dispatched, in declaration order. send=true
// options go straight to the target's input topic; the rest become
// pending suggestions awaiting accept.
func (s *Server) completeAgentTurn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Agent string `json:"agent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Agent == "" {
		jsonError(w, "agent is required", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	if _, err := s.tracker.Get(id); err != nil {
		jsonError(w, err.Error(), statusForError(err))
		return
	}

	resolved, err := s.router.ResolveHandoffs(body.Agent)
	if err != nil {
		jsonError(w, err.Error(), statusForError(err))
		return
	}

	handoffs := make([]*store.Handoff, 0, len(resolved))
	for _, rh := range resolved {
		h, err := s.router.Dispatch(id, body.Agent, rh.Option)
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		handoffs = append(handoffs, h)
	}
	jsonResponse(w, handoffs)
}

func (s *Server) listHandoffs(w http.ResponseWriter, r *http.Request) {
	pending, err := s.router.PendingSuggestions(r.PathValue("id"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, pending)
}

func (s *Server) acceptHandoff(w http.ResponseWriter, r *http.Request) {
	h, err := s.router.Accept(r.PathValue("id"))
	if err != nil {
		code := http.StatusConflict
		if strings.Contains(err.Error(), "not found") {
			code = http.StatusNotFound
		}
		jsonError(w, err.Error(), code)
		return
	}
	jsonResponse(w, h)
}

func (s *Server) getModelCredential(w http.ResponseWriter, r *http.Request) {
	if !s.vault.Enabled() {
		jsonError(w, "vault not configured", http.StatusPreconditionFailed)
		return
	}

	model := r.PathValue("name")
	sealed, err := s.store.GetModelCredential(model)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if sealed == nil {
		jsonError(w, "credential not found", http.StatusNotFound)
		return
	}

	credential, err := s.vault.Open(sealed)
	if err != nil {
		jsonError(w, "unseal failed", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"model": model, "credential": string(credential)})
}

func (s *Server) setModelCredential(w http.ResponseWriter, r *http.Request) {
	if !s.vault.Enabled() {
		jsonError(w, "vault not configured", http.StatusPreconditionFailed)
		return
	}

	var body struct {
		Credential string `json:"credential"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Credential == "" {
		jsonError(w, "credential is required", http.StatusBadRequest)
		return
	}

	sealed, err := s.vault.Seal([]byte(body.Credential))
	if err != nil {
		jsonError(w, "seal failed", http.StatusInternalServerError)
		return
	}

	model := r.PathValue("name")
	if err := s.store.SetModelCredential(model, sealed); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"model": model, "status": "sealed"})
}

func (s *Server) deleteModelCredential(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteModelCredential(r.PathValue("name")); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"status": "deleted"})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	runs := s.tracker.List()
	running := 0
	for _, inst := range runs {
		if !inst.Completed() {
			running++
		}
	}

	status := map[string]any{
		"version":           s.version,
		"uptime":            formatUptime(time.Since(s.startedAt)),
		"agents":            len(s.registry.Names()),
		"workflows":         len(runs),
		"workflows_running": running,
	}
	if s.bus != nil {
		status["nats_port"] = s.bus.Port()
	}
	jsonResponse(w, status)
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	var unknownAgent *registry.UnknownAgentError
	var unknownWorkflow *workflow.UnknownWorkflowError
	var resolved *workflow.AlreadyResolvedError
	var transition *workflow.InvalidTransitionError
	var notPending *workflow.PhaseNotPendingError

	switch {
	case errors.As(err, &unknownAgent), errors.As(err, &unknownWorkflow):
		return http.StatusNotFound
	case errors.As(err, &resolved), errors.As(err, &transition), errors.As(err, &notPending):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrEmptyWorkflow):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

func jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
