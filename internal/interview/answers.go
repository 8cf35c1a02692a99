package interview

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sowri347/bot-interview/internal/store"
)

// AnswerView is the stored answer as returned to the candidate.
type AnswerView struct {
	ID          string    `json:"id"`
	CandidateID string    `json:"candidate_id"`
	QuestionID  string    `json:"question_id"`
	Transcript  *string   `json:"transcript"`
	Score       *int      `json:"score"`
	Feedback    *string   `json:"feedback"`
	CreatedAt   time.Time `json:"created_at"`
}

// SaveAnswer records the candidate's latest attempt at a question. A repeat
// submission overwrites transcript, score and feedback and keeps the original
// id and creation time.
func (s *Service) SaveAnswer(ctx context.Context, candidateID, questionID, transcript string, score int, feedback string) (AnswerView, error) {
	if score < 1 || score > 10 {
		return AnswerView{}, invalid("Score must be between 1 and 10")
	}
	c, err := s.candidate(ctx, candidateID)
	if err != nil {
		return AnswerView{}, err
	}
	q, err := s.store.QuestionByID(ctx, questionID)
	if errors.Is(err, store.ErrNotFound) {
		return AnswerView{}, notFound("question")
	}
	if err != nil {
		return AnswerView{}, err
	}
	if q.InterviewID != c.InterviewID {
		return AnswerView{}, notFound("question")
	}

	a, err := s.store.UpsertAnswer(ctx, store.AnswerInput{
		CandidateID: c.ID,
		QuestionID:  q.ID,
		Transcript:  transcript,
		Score:       score,
		Feedback:    feedback,
	})
	if err != nil {
		return AnswerView{}, err
	}
	if s.answersSaved != nil {
		s.answersSaved.Add(ctx, 1)
	}
	s.logger.Info("answer saved",
		slog.String("answer_id", a.ID),
		slog.String("candidate_id", a.CandidateID),
		slog.String("question_id", a.QuestionID),
		slog.Int("score", score))
	s.publish(ctx, protocolAnswerSaved(a, c.InterviewID, s.clock()))

	return AnswerView{
		ID:          a.ID,
		CandidateID: a.CandidateID,
		QuestionID:  a.QuestionID,
		Transcript:  a.Transcript,
		Score:       a.Score,
		Feedback:    a.Feedback,
		CreatedAt:   a.CreatedAt,
	}, nil
}
