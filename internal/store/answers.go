package store

import (
	"context"
	"database/sql"
	"fmt"
)

// UpsertAnswer creates or overwrites the answer for (candidate, question) in a
// single statement. An existing row keeps its id and created_at.
func (s *Store) UpsertAnswer(ctx context.Context, in AnswerInput) (Answer, error) {
	ans := Answer{
		CandidateID: in.CandidateID,
		QuestionID:  in.QuestionID,
		Transcript:  &in.Transcript,
		Score:       &in.Score,
		Feedback:    &in.Feedback,
	}
	var created timestamp
	err := s.queryRow(ctx, s.db, `
INSERT INTO answers(id, candidate_id, question_id, transcript, score, feedback, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(candidate_id, question_id) DO UPDATE SET
    transcript = excluded.transcript,
    score = excluded.score,
    feedback = excluded.feedback
RETURNING id, created_at`,
		newID(), in.CandidateID, in.QuestionID, in.Transcript, in.Score, in.Feedback, s.now()).
		Scan(&ans.ID, &created)
	if err != nil {
		return Answer{}, fmt.Errorf("upsert answer: %w", err)
	}
	ans.CreatedAt = created.Time
	return ans, nil
}

// AnswerFor returns the stored answer for a (candidate, question) pair.
func (s *Store) AnswerFor(ctx context.Context, candidateID, questionID string) (Answer, error) {
	var a Answer
	var transcript, feedback sql.NullString
	var score sql.NullInt64
	var created timestamp
	err := s.queryRow(ctx, s.db,
		`SELECT id, candidate_id, question_id, transcript, score, feedback, created_at
		 FROM answers WHERE candidate_id = ? AND question_id = ?`, candidateID, questionID).
		Scan(&a.ID, &a.CandidateID, &a.QuestionID, &transcript, &score, &feedback, &created)
	if err != nil {
		return Answer{}, notFound(err)
	}
	a.Transcript = stringPtr(transcript)
	a.Score = intPtr(score)
	a.Feedback = stringPtr(feedback)
	a.CreatedAt = created.Time
	return a, nil
}

// CountAnswers returns how many answer rows exist for a candidate.
func (s *Store) CountAnswers(ctx context.Context, candidateID string) (int, error) {
	var n int
	err := s.queryRow(ctx, s.db, `SELECT COUNT(*) FROM answers WHERE candidate_id = ?`, candidateID).Scan(&n)
	return n, err
}
