package store

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateInterview inserts an interview together with its shareable link in one
// transaction.
func (s *Store) CreateInterview(ctx context.Context, adminID, title, description, code, linkPasswordHash string) (Interview, Link, error) {
	now := s.now()
	iv := Interview{ID: newID(), AdminID: adminID, Title: title, Description: description, CreatedAt: now}
	link := Link{ID: newID(), InterviewID: iv.ID, Code: code, PasswordHash: linkPasswordHash, CreatedAt: now}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx,
			`INSERT INTO interviews(id, admin_id, title, description, created_at) VALUES(?, ?, ?, ?, ?)`,
			iv.ID, nullIfEmpty(adminID), iv.Title, iv.Description, iv.CreatedAt); err != nil {
			return fmt.Errorf("insert interview: %w", err)
		}
		if _, err := s.exec(ctx, tx,
			`INSERT INTO links(id, interview_id, code, password_hash, created_at) VALUES(?, ?, ?, ?, ?)`,
			link.ID, link.InterviewID, link.Code, nullIfEmpty(linkPasswordHash), link.CreatedAt); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert link: %w", err)
		}
		return nil
	})
	if err != nil {
		return Interview{}, Link{}, err
	}
	return iv, link, nil
}

func (s *Store) InterviewByID(ctx context.Context, id string) (Interview, error) {
	var iv Interview
	var adminID sql.NullString
	var created timestamp
	err := s.queryRow(ctx, s.db,
		`SELECT id, admin_id, title, description, created_at FROM interviews WHERE id = ?`, id).
		Scan(&iv.ID, &adminID, &iv.Title, &iv.Description, &created)
	if err != nil {
		return Interview{}, notFound(err)
	}
	iv.AdminID = adminID.String
	iv.CreatedAt = created.Time
	return iv, nil
}

// ListInterviews returns the interviews owned by adminID, newest first.
func (s *Store) ListInterviews(ctx context.Context, adminID string) ([]InterviewListing, error) {
	rows, err := s.query(ctx, s.db, `
SELECT i.id, i.admin_id, i.title, i.description, i.created_at, l.code,
       (SELECT COUNT(*) FROM questions q WHERE q.interview_id = i.id),
       (SELECT COUNT(*) FROM candidates c WHERE c.interview_id = i.id)
FROM interviews i
LEFT JOIN links l ON l.interview_id = i.id
WHERE i.admin_id = ?
ORDER BY i.created_at DESC, i.id`, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InterviewListing
	for rows.Next() {
		var item InterviewListing
		var owner, code sql.NullString
		var created timestamp
		if err := rows.Scan(&item.ID, &owner, &item.Title, &item.Description, &created, &code, &item.QuestionCount, &item.CandidateCount); err != nil {
			return nil, err
		}
		item.AdminID = owner.String
		item.CreatedAt = created.Time
		item.LinkCode = code.String
		out = append(out, item)
	}
	return out, rows.Err()
}

// DeleteInterview removes an interview; links, questions, candidates and
// answers cascade.
func (s *Store) DeleteInterview(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.db, `DELETE FROM interviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete interview: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) LinkByCode(ctx context.Context, code string) (Link, error) {
	return s.scanLink(s.queryRow(ctx, s.db,
		`SELECT id, interview_id, code, password_hash, created_at FROM links WHERE code = ?`, code))
}

func (s *Store) LinkForInterview(ctx context.Context, interviewID string) (Link, error) {
	return s.scanLink(s.queryRow(ctx, s.db,
		`SELECT id, interview_id, code, password_hash, created_at FROM links WHERE interview_id = ?`, interviewID))
}

func (s *Store) scanLink(row rowScanner) (Link, error) {
	var l Link
	var hash sql.NullString
	var created timestamp
	if err := row.Scan(&l.ID, &l.InterviewID, &l.Code, &hash, &created); err != nil {
		return Link{}, notFound(err)
	}
	l.PasswordHash = hash.String
	l.CreatedAt = created.Time
	return l, nil
}

// AddQuestion appends a question to an interview.
func (s *Store) AddQuestion(ctx context.Context, interviewID, text string) (Question, error) {
	q := Question{ID: newID(), InterviewID: interviewID, Text: text, CreatedAt: s.now()}
	if _, err := s.exec(ctx, s.db,
		`INSERT INTO questions(id, interview_id, question_text, created_at) VALUES(?, ?, ?, ?)`,
		q.ID, q.InterviewID, q.Text, q.CreatedAt); err != nil {
		return Question{}, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

func (s *Store) QuestionByID(ctx context.Context, id string) (Question, error) {
	var q Question
	var created timestamp
	err := s.queryRow(ctx, s.db,
		`SELECT id, interview_id, question_text, created_at FROM questions WHERE id = ?`, id).
		Scan(&q.ID, &q.InterviewID, &q.Text, &created)
	if err != nil {
		return Question{}, notFound(err)
	}
	q.CreatedAt = created.Time
	return q, nil
}

// ListQuestions returns the questions of an interview in creation order.
func (s *Store) ListQuestions(ctx context.Context, interviewID string) ([]Question, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT id, interview_id, question_text, created_at FROM questions
		 WHERE interview_id = ? ORDER BY created_at ASC, id ASC`, interviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		var created timestamp
		if err := rows.Scan(&q.ID, &q.InterviewID, &q.Text, &created); err != nil {
			return nil, err
		}
		q.CreatedAt = created.Time
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) CountQuestions(ctx context.Context, interviewID string) (int, error) {
	var n int
	err := s.queryRow(ctx, s.db, `SELECT COUNT(*) FROM questions WHERE interview_id = ?`, interviewID).Scan(&n)
	return n, err
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
