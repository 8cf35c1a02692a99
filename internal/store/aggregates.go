package store

import (
	"context"
	"database/sql"
)

// CandidateTallies returns answer counts and score sums for every candidate of
// an interview, in registration order.
func (s *Store) CandidateTallies(ctx context.Context, interviewID string) ([]CandidateTally, error) {
	rows, err := s.query(ctx, s.db, `
SELECT c.id, c.interview_id, c.name, c.email, c.created_at,
       COUNT(a.id), COUNT(a.score), COALESCE(SUM(a.score), 0)
FROM candidates c
LEFT JOIN answers a ON a.candidate_id = c.id
WHERE c.interview_id = ?
GROUP BY c.id, c.interview_id, c.name, c.email, c.created_at
ORDER BY c.created_at ASC, c.id ASC`, interviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CandidateTally
	for rows.Next() {
		var t CandidateTally
		var created timestamp
		if err := rows.Scan(&t.ID, &t.InterviewID, &t.Name, &t.Email, &created,
			&t.AnswerCount, &t.ScoredCount, &t.ScoreSum); err != nil {
			return nil, err
		}
		t.CreatedAt = created.Time
		out = append(out, t)
	}
	return out, rows.Err()
}

// CandidateAnswers returns a candidate's answers joined with question text, in
// question order.
func (s *Store) CandidateAnswers(ctx context.Context, candidateID string) ([]AnswerDetail, error) {
	return s.answerDetails(ctx, `
SELECT a.id, a.candidate_id, a.question_id, a.transcript, a.score, a.feedback, a.created_at, q.question_text
FROM answers a
LEFT JOIN questions q ON q.id = a.question_id
WHERE a.candidate_id = ?
ORDER BY q.created_at ASC, a.created_at ASC, a.id ASC`, candidateID)
}

// InterviewAnswers returns every answer recorded under an interview.
func (s *Store) InterviewAnswers(ctx context.Context, interviewID string) ([]AnswerDetail, error) {
	return s.answerDetails(ctx, `
SELECT a.id, a.candidate_id, a.question_id, a.transcript, a.score, a.feedback, a.created_at, q.question_text
FROM answers a
JOIN candidates c ON c.id = a.candidate_id
LEFT JOIN questions q ON q.id = a.question_id
WHERE c.interview_id = ?
ORDER BY c.created_at ASC, q.created_at ASC, a.id ASC`, interviewID)
}

func (s *Store) answerDetails(ctx context.Context, query string, arg string) ([]AnswerDetail, error) {
	rows, err := s.query(ctx, s.db, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AnswerDetail
	for rows.Next() {
		var d AnswerDetail
		var transcript, feedback, questionText sql.NullString
		var score sql.NullInt64
		var created timestamp
		if err := rows.Scan(&d.ID, &d.CandidateID, &d.QuestionID, &transcript, &score, &feedback, &created, &questionText); err != nil {
			return nil, err
		}
		d.Transcript = stringPtr(transcript)
		d.Score = intPtr(score)
		d.Feedback = stringPtr(feedback)
		d.CreatedAt = created.Time
		d.QuestionText = stringPtr(questionText)
		out = append(out, d)
	}
	return out, rows.Err()
}
