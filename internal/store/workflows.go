package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type WorkflowRun struct {
	ID           string    `json:"id"`
	Phases       []string  `json:"phases"`
	CurrentIndex int       `json:"current_index"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type WorkflowPhaseRow struct {
	RunID       string    `json:"run_id"`
	Index       int       `json:"index"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	ActiveAgent string    `json:"active_agent,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *Store) SaveWorkflowRun(run *WorkflowRun) error {
	phasesJSON, err := json.Marshal(run.Phases)
	if err != nil {
		return fmt.Errorf("marshal phases: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO workflow_runs (id, phases, current_index, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			current_index = excluded.current_index,
			status = excluded.status,
			updated_at = CURRENT_TIMESTAMP`,
		run.ID, string(phasesJSON), run.CurrentIndex, run.Status)
	if err != nil {
		return fmt.Errorf("save workflow run: %w", err)
	}
	return nil
}

func (s *Store) GetWorkflowRun(id string) (*WorkflowRun, error) {
	run := &WorkflowRun{}
	var phasesJSON string
	err := s.db.QueryRow(`SELECT id, phases, current_index, status, created_at, updated_at FROM workflow_runs WHERE id = ?`, id).
		Scan(&run.ID, &phasesJSON, &run.CurrentIndex, &run.Status, &run.CreatedAt, &run.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow run: %w", err)
	}
	if err := json.Unmarshal([]byte(phasesJSON), &run.Phases); err != nil {
		return nil, fmt.Errorf("unmarshal phases: %w", err)
	}
	return run, nil
}

func (s *Store) ListWorkflowRuns() ([]WorkflowRun, error) {
	rows, err := s.db.Query(`SELECT id, phases, current_index, status, created_at, updated_at FROM workflow_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list workflow runs: %w", err)
	}
	defer rows.Close()

	var runs []WorkflowRun
	for rows.Next() {
		var run WorkflowRun
		var phasesJSON string
		if err := rows.Scan(&run.ID, &phasesJSON, &run.CurrentIndex, &run.Status, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan workflow run: %w", err)
		}
		if err := json.Unmarshal([]byte(phasesJSON), &run.Phases); err != nil {
			return nil, fmt.Errorf("unmarshal phases: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListStalledRuns returns running workflows whose last transition is
// older than the cutoff and whose current phase is awaiting approval.
func (s *Store) ListStalledRuns(cutoff time.Time) ([]WorkflowRun, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.phases, r.current_index, r.status, r.created_at, r.updated_at
		FROM workflow_runs r
		JOIN workflow_phases p ON p.run_id = r.id AND p.idx = r.current_index
		WHERE r.status = 'running' AND p.status = 'awaiting_approval' AND p.updated_at < ?
		ORDER BY r.created_at`, cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, fmt.Errorf("list stalled runs: %w", err)
	}
	defer rows.Close()

	var runs []WorkflowRun
	for rows.Next() {
		var run WorkflowRun
		var phasesJSON string
		if err := rows.Scan(&run.ID, &phasesJSON, &run.CurrentIndex, &run.Status, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stalled run: %w", err)
		}
		if err := json.Unmarshal([]byte(phasesJSON), &run.Phases); err != nil {
			return nil, fmt.Errorf("unmarshal phases: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) SaveWorkflowPhase(p *WorkflowPhaseRow) error {
	_, err := s.db.Exec(`
		INSERT INTO workflow_phases (run_id, idx, name, status, active_agent, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(run_id, idx) DO UPDATE SET
			status = excluded.status,
			active_agent = excluded.active_agent,
			updated_at = CURRENT_TIMESTAMP`,
		p.RunID, p.Index, p.Name, p.Status, p.ActiveAgent)
	if err != nil {
		return fmt.Errorf("save workflow phase: %w", err)
	}
	return nil
}

func (s *Store) ListWorkflowPhases(runID string) ([]WorkflowPhaseRow, error) {
	rows, err := s.db.Query(`SELECT run_id, idx, name, status, active_agent, updated_at FROM workflow_phases WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("list workflow phases: %w", err)
	}
	defer rows.Close()

	var phases []WorkflowPhaseRow
	for rows.Next() {
		var p WorkflowPhaseRow
		var agent sql.NullString
		if err := rows.Scan(&p.RunID, &p.Index, &p.Name, &p.Status, &agent, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan workflow phase: %w", err)
		}
		p.ActiveAgent = agent.String
		phases = append(phases, p)
	}
	return phases, rows.Err()
}
