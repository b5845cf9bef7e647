package store

import (
	"database/sql"
	"fmt"
	"time"
)

const (
	HandoffPending    = "pending"
	HandoffDispatched = "dispatched"
)

type Handoff struct {
	ID           string     `json:"id"`
	RunID        string     `json:"run_id,omitempty"`
	SourceAgent  string     `json:"source_agent"`
	TargetAgent  string     `json:"target_agent"`
	Label        string     `json:"label,omitempty"`
	Prompt       string     `json:"prompt,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
}

func (s *Store) SaveHandoff(h *Handoff) error {
	if h.Status == "" {
		h.Status = HandoffPending
	}
	// A handoff saved as already dispatched (send=true) gets its
	// dispatch time at insert; pending ones get it via MarkHandoffDispatched.
	var dispatchedAt any
	if h.Status == HandoffDispatched {
		dispatchedAt = time.Now().UTC().Format("2006-01-02 15:04:05")
	}
	_, err := s.db.Exec(`
		INSERT INTO handoffs (id, run_id, source_agent, target_agent, label, prompt, status, created_at, dispatched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, ?)`,
		h.ID, h.RunID, h.SourceAgent, h.TargetAgent, h.Label, h.Prompt, h.Status, dispatchedAt)
	if err != nil {
		return fmt.Errorf("save handoff: %w", err)
	}
	return nil
}

func (s *Store) GetHandoff(id string) (*Handoff, error) {
	h := &Handoff{}
	var runID, label, prompt sql.NullString
	var dispatchedAt sql.NullTime
	err := s.db.QueryRow(`SELECT id, run_id, source_agent, target_agent, label, prompt, status, created_at, dispatched_at FROM handoffs WHERE id = ?`, id).
		Scan(&h.ID, &runID, &h.SourceAgent, &h.TargetAgent, &label, &prompt, &h.Status, &h.CreatedAt, &dispatchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get handoff: %w", err)
	}
	h.RunID = runID.String
	h.Label = label.String
	h.Prompt = prompt.String
	if dispatchedAt.Valid {
		h.DispatchedAt = &dispatchedAt.Time
	}
	return h, nil
}

func (s *Store) ListPendingHandoffs(runID string) ([]Handoff, error) {
	rows, err := s.db.Query(`SELECT id, run_id, source_agent, target_agent, label, prompt, status, created_at, dispatched_at FROM handoffs WHERE run_id = ? AND status = ? ORDER BY created_at`, runID, HandoffPending)
	if err != nil {
		return nil, fmt.Errorf("list pending handoffs: %w", err)
	}
	defer rows.Close()

	var handoffs []Handoff
	for rows.Next() {
		var h Handoff
		var rID, label, prompt sql.NullString
		var dispatchedAt sql.NullTime
		if err := rows.Scan(&h.ID, &rID, &h.SourceAgent, &h.TargetAgent, &label, &prompt, &h.Status, &h.CreatedAt, &dispatchedAt); err != nil {
			return nil, fmt.Errorf("scan handoff: %w", err)
		}
		h.RunID = rID.String
		h.Label = label.String
		h.Prompt = prompt.String
		if dispatchedAt.Valid {
			h.DispatchedAt = &dispatchedAt.Time
		}
		handoffs = append(handoffs, h)
	}
	return handoffs, rows.Err()
}

func (s *Store) MarkHandoffDispatched(id string) error {
	res, err := s.db.Exec(`UPDATE handoffs SET status = ?, dispatched_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		HandoffDispatched, id, HandoffPending)
	if err != nil {
		return fmt.Errorf("mark handoff dispatched: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("handoff %s is not pending", id)
	}
	return nil
}
