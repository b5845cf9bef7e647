package store

import (
	"database/sql"
	"fmt"
)

// SetModelCredential stores a vault-sealed credential blob for a model
// profile. The store never sees plaintext.
func (s *Store) SetModelCredential(model string, sealed []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO model_credentials (model, sealed, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(model) DO UPDATE SET
			sealed = excluded.sealed,
			updated_at = CURRENT_TIMESTAMP`,
		model, sealed)
	if err != nil {
		return fmt.Errorf("set model credential: %w", err)
	}
	return nil
}

func (s *Store) GetModelCredential(model string) ([]byte, error) {
	var sealed []byte
	err := s.db.QueryRow(`SELECT sealed FROM model_credentials WHERE model = ?`, model).Scan(&sealed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get model credential: %w", err)
	}
	return sealed, nil
}

func (s *Store) DeleteModelCredential(model string) error {
	_, err := s.db.Exec(`DELETE FROM model_credentials WHERE model = ?`, model)
	return err
}
