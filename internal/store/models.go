package store

import "time"

type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type Interview struct {
	ID          string
	AdminID     string
	Title       string
	Description string
	CreatedAt   time.Time
}

// Link maps a shareable code to one interview. PasswordHash is empty when
// registration is not password gated.
type Link struct {
	ID           string
	InterviewID  string
	Code         string
	PasswordHash string
	CreatedAt    time.Time
}

// InterviewListing is an interview row joined with its link code and counts.
type InterviewListing struct {
	Interview
	LinkCode       string
	QuestionCount  int
	CandidateCount int
}

type Question struct {
	ID          string
	InterviewID string
	Text        string
	CreatedAt   time.Time
}

type Candidate struct {
	ID          string
	InterviewID string
	Name        string
	Email       string
	CreatedAt   time.Time
}

// Answer is the single stored attempt for a (candidate, question) pair.
type Answer struct {
	ID          string
	CandidateID string
	QuestionID  string
	Transcript  *string
	Score       *int
	Feedback    *string
	CreatedAt   time.Time
}

// AnswerInput carries already validated values for an upsert.
type AnswerInput struct {
	CandidateID string
	QuestionID  string
	Transcript  string
	Score       int
	Feedback    string
}

// AnswerDetail is an answer joined with the text of its question.
type AnswerDetail struct {
	Answer
	QuestionText *string
}

// CandidateTally holds per-candidate answer counts for aggregation.
type CandidateTally struct {
	Candidate
	AnswerCount int
	ScoredCount int
	ScoreSum    int
}
