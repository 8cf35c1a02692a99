package interview

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sowri347/bot-interview/internal/report"
)

const (
	unknownQuestion    = "Unknown question"
	noFeedbackExported = "No feedback available"
)

// Dashboard summarises an interview and each registered candidate.
type Dashboard struct {
	InterviewID     string             `json:"interview_id"`
	InterviewTitle  string             `json:"interview_title"`
	TotalCandidates int                `json:"total_candidates"`
	TotalQuestions  int                `json:"total_questions"`
	Candidates      []CandidateSummary `json:"candidates"`
}

// CandidateSummary is one dashboard line. AverageScore is nil until at least
// one answer carries a score.
type CandidateSummary struct {
	CandidateID  string    `json:"candidate_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
	TotalAnswers int       `json:"total_answers"`
	AverageScore *float64  `json:"average_score"`
}

// Report details every answer of one candidate.
type Report struct {
	CandidateID        string         `json:"candidate_id"`
	CandidateName      string         `json:"candidate_name"`
	CandidateEmail     string         `json:"candidate_email"`
	InterviewID        string         `json:"interview_id"`
	InterviewTitle     string         `json:"interview_title"`
	Answers            []ReportAnswer `json:"answers"`
	AverageScore       *float64       `json:"average_score"`
	TotalQuestions     int            `json:"total_questions"`
	CompletedQuestions int            `json:"completed_questions"`
}

type ReportAnswer struct {
	AnswerID     string    `json:"answer_id"`
	QuestionID   string    `json:"question_id"`
	QuestionText string    `json:"question_text"`
	Transcript   *string   `json:"transcript"`
	Score        *int      `json:"score"`
	Feedback     *string   `json:"feedback"`
	CreatedAt    time.Time `json:"created_at"`
}

// Dashboard builds the per-candidate overview of an interview.
func (s *Service) Dashboard(ctx context.Context, interviewID string) (Dashboard, error) {
	iv, err := s.interview(ctx, interviewID)
	if err != nil {
		return Dashboard{}, err
	}
	tallies, err := s.store.CandidateTallies(ctx, interviewID)
	if err != nil {
		return Dashboard{}, err
	}
	questions, err := s.store.CountQuestions(ctx, interviewID)
	if err != nil {
		return Dashboard{}, err
	}

	out := Dashboard{
		InterviewID:     iv.ID,
		InterviewTitle:  iv.Title,
		TotalCandidates: len(tallies),
		TotalQuestions:  questions,
		Candidates:      make([]CandidateSummary, 0, len(tallies)),
	}
	for _, t := range tallies {
		out.Candidates = append(out.Candidates, CandidateSummary{
			CandidateID:  t.ID,
			Name:         t.Name,
			Email:        t.Email,
			CreatedAt:    t.CreatedAt,
			TotalAnswers: t.AnswerCount,
			AverageScore: average(t.ScoreSum, t.ScoredCount),
		})
	}
	return out, nil
}

// Report builds the detailed answer sheet of one candidate.
func (s *Service) Report(ctx context.Context, candidateID string) (Report, error) {
	c, err := s.candidate(ctx, candidateID)
	if err != nil {
		return Report{}, err
	}
	iv, err := s.interview(ctx, c.InterviewID)
	if err != nil {
		return Report{}, err
	}
	details, err := s.store.CandidateAnswers(ctx, c.ID)
	if err != nil {
		return Report{}, err
	}
	questions, err := s.store.CountQuestions(ctx, c.InterviewID)
	if err != nil {
		return Report{}, err
	}

	out := Report{
		CandidateID:        c.ID,
		CandidateName:      c.Name,
		CandidateEmail:     c.Email,
		InterviewID:        iv.ID,
		InterviewTitle:     iv.Title,
		Answers:            make([]ReportAnswer, 0, len(details)),
		TotalQuestions:     questions,
		CompletedQuestions: len(details),
	}
	var sum, scored int
	for _, d := range details {
		text := unknownQuestion
		if d.QuestionText != nil {
			text = *d.QuestionText
		}
		if d.Score != nil {
			sum += *d.Score
			scored++
		}
		out.Answers = append(out.Answers, ReportAnswer{
			AnswerID:     d.ID,
			QuestionID:   d.QuestionID,
			QuestionText: text,
			Transcript:   d.Transcript,
			Score:        d.Score,
			Feedback:     d.Feedback,
			CreatedAt:    d.CreatedAt,
		})
	}
	out.AverageScore = average(sum, scored)
	return out, nil
}

// Export ranks the candidates of an interview by average score for the
// spreadsheet download. Unscored candidates rank as 0.0; ties keep
// registration order.
func (s *Service) Export(ctx context.Context, interviewID string) ([]report.Row, error) {
	if _, err := s.interview(ctx, interviewID); err != nil {
		return nil, err
	}
	tallies, err := s.store.CandidateTallies(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	answers, err := s.store.InterviewAnswers(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	feedback := make(map[string][]string, len(tallies))
	for _, a := range answers {
		if a.Feedback == nil || *a.Feedback == "" || a.QuestionText == nil {
			continue
		}
		feedback[a.CandidateID] = append(feedback[a.CandidateID], "Q: "+*a.QuestionText+"\nA: "+*a.Feedback)
	}

	rows := make([]report.Row, 0, len(tallies))
	for _, t := range tallies {
		var score float64
		if avg := average(t.ScoreSum, t.ScoredCount); avg != nil {
			score = *avg
		}
		text := noFeedbackExported
		if entries := feedback[t.ID]; len(entries) > 0 {
			text = strings.Join(entries, "\n\n")
		}
		rows = append(rows, report.Row{Name: t.Name, Email: t.Email, Score: score, Feedback: text})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Score > rows[j].Score })
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

func average(sum, count int) *float64 {
	if count == 0 {
		return nil
	}
	avg := float64(sum) / float64(count)
	return &avg
}
