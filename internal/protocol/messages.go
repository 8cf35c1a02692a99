package protocol

import "time"

// Domain event subjects. The bus prepends its configured prefix.
const (
	SubjectInterviewCreated    = "interview.created"
	SubjectInterviewDeleted    = "interview.deleted"
	SubjectCandidateRegistered = "candidate.registered"
	SubjectAnswerSaved         = "answer.saved"
)

// InterviewCreated is published once an interview and its link exist.
type InterviewCreated struct {
	InterviewID string    `json:"interview_id"`
	AdminID     string    `json:"admin_id,omitempty"`
	Title       string    `json:"title"`
	LinkCode    string    `json:"link_code"`
	Timestamp   time.Time `json:"timestamp"`
}

// InterviewDeleted is published after the cascade delete commits.
type InterviewDeleted struct {
	InterviewID string    `json:"interview_id"`
	Timestamp   time.Time `json:"timestamp"`
}

// CandidateRegistered is published when a candidate joins through a link.
type CandidateRegistered struct {
	CandidateID string    `json:"candidate_id"`
	InterviewID string    `json:"interview_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Timestamp   time.Time `json:"timestamp"`
}

// AnswerSaved is published after every successful answer upsert.
type AnswerSaved struct {
	AnswerID    string    `json:"answer_id"`
	CandidateID string    `json:"candidate_id"`
	InterviewID string    `json:"interview_id"`
	QuestionID  string    `json:"question_id"`
	Score       int       `json:"score"`
	Timestamp   time.Time `json:"timestamp"`
}
