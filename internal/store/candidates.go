package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CreateCandidate registers a candidate under an interview. When passwordHash
// is set a candidate_auth row is written in the same transaction.
func (s *Store) CreateCandidate(ctx context.Context, interviewID, name, email, passwordHash string) (Candidate, error) {
	c := Candidate{
		ID:          newID(),
		InterviewID: interviewID,
		Name:        strings.TrimSpace(name),
		Email:       strings.ToLower(strings.TrimSpace(email)),
		CreatedAt:   s.now(),
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx,
			`INSERT INTO candidates(id, interview_id, name, email, created_at) VALUES(?, ?, ?, ?, ?)`,
			c.ID, c.InterviewID, c.Name, c.Email, c.CreatedAt); err != nil {
			return fmt.Errorf("insert candidate: %w", err)
		}
		if passwordHash == "" {
			return nil
		}
		if _, err := s.exec(ctx, tx,
			`INSERT INTO candidate_auth(candidate_id, password_hash, created_at) VALUES(?, ?, ?)`,
			c.ID, passwordHash, c.CreatedAt); err != nil {
			return fmt.Errorf("insert candidate auth: %w", err)
		}
		return nil
	})
	if err != nil {
		return Candidate{}, err
	}
	return c, nil
}

func (s *Store) CandidateByID(ctx context.Context, id string) (Candidate, error) {
	return s.scanCandidate(s.queryRow(ctx, s.db,
		`SELECT id, interview_id, name, email, created_at FROM candidates WHERE id = ?`, id))
}

// LatestCandidateByEmail returns the most recent registration for email under
// an interview.
func (s *Store) LatestCandidateByEmail(ctx context.Context, interviewID, email string) (Candidate, error) {
	return s.scanCandidate(s.queryRow(ctx, s.db,
		`SELECT id, interview_id, name, email, created_at FROM candidates
		 WHERE interview_id = ? AND email = ? ORDER BY created_at DESC LIMIT 1`,
		interviewID, strings.ToLower(strings.TrimSpace(email))))
}

// CandidatePasswordHash returns the stored per-candidate hash.
func (s *Store) CandidatePasswordHash(ctx context.Context, candidateID string) (string, error) {
	var hash string
	err := s.queryRow(ctx, s.db,
		`SELECT password_hash FROM candidate_auth WHERE candidate_id = ?`, candidateID).Scan(&hash)
	if err != nil {
		return "", notFound(err)
	}
	return hash, nil
}

// ListCandidates returns the candidates of an interview in registration order.
func (s *Store) ListCandidates(ctx context.Context, interviewID string) ([]Candidate, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT id, interview_id, name, email, created_at FROM candidates
		 WHERE interview_id = ? ORDER BY created_at ASC, id ASC`, interviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		c, err := s.scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) scanCandidate(row rowScanner) (Candidate, error) {
	var c Candidate
	var created timestamp
	if err := row.Scan(&c.ID, &c.InterviewID, &c.Name, &c.Email, &created); err != nil {
		return Candidate{}, notFound(err)
	}
	c.CreatedAt = created.Time
	return c, nil
}
