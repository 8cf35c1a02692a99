package interview

import (
	"time"

	"github.com/sowri347/bot-interview/internal/protocol"
	"github.com/sowri347/bot-interview/internal/store"
)

func protocolInterviewCreated(iv store.Interview, link store.Link, now time.Time) event {
	return event{subject: protocol.SubjectInterviewCreated, payload: protocol.InterviewCreated{
		InterviewID: iv.ID,
		AdminID:     iv.AdminID,
		Title:       iv.Title,
		LinkCode:    link.Code,
		Timestamp:   now.UTC(),
	}}
}

func protocolInterviewDeleted(interviewID string, now time.Time) event {
	return event{subject: protocol.SubjectInterviewDeleted, payload: protocol.InterviewDeleted{
		InterviewID: interviewID,
		Timestamp:   now.UTC(),
	}}
}

func protocolCandidateRegistered(c store.Candidate) event {
	return event{subject: protocol.SubjectCandidateRegistered, payload: protocol.CandidateRegistered{
		CandidateID: c.ID,
		InterviewID: c.InterviewID,
		Name:        c.Name,
		Email:       c.Email,
		Timestamp:   c.CreatedAt.UTC(),
	}}
}

func protocolAnswerSaved(a store.Answer, interviewID string, now time.Time) event {
	score := 0
	if a.Score != nil {
		score = *a.Score
	}
	return event{subject: protocol.SubjectAnswerSaved, payload: protocol.AnswerSaved{
		AnswerID:    a.ID,
		CandidateID: a.CandidateID,
		InterviewID: interviewID,
		QuestionID:  a.QuestionID,
		Score:       score,
		Timestamp:   now.UTC(),
	}}
}
