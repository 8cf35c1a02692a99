package interview

import (
	"context"
	"errors"
	"testing"
)

func TestDashboardBackendRoundScenario(t *testing.T) {
	h := newHarness(t, false)
	sc := h.backendRound(t)
	ctx := context.Background()

	asha, err := h.svc.RegisterCandidate(ctx, sc.code, "Asha", "asha@example.com", "")
	if err != nil {
		t.Fatalf("register asha: %v", err)
	}
	ravi, err := h.svc.RegisterCandidate(ctx, sc.code, "Ravi", "ravi@example.com", "")
	if err != nil {
		t.Fatalf("register ravi: %v", err)
	}
	if _, err := h.svc.SaveAnswer(ctx, asha.CandidateID, sc.questions[0].ID, "channels pass values", 8, "Good"); err != nil {
		t.Fatalf("save q1: %v", err)
	}
	if _, err := h.svc.SaveAnswer(ctx, asha.CandidateID, sc.questions[1].ID, "ctx cancels work", 6, "Fine"); err != nil {
		t.Fatalf("save q2: %v", err)
	}

	dash, err := h.svc.Dashboard(ctx, sc.interview.ID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.InterviewTitle != "Backend Round" || dash.TotalQuestions != 3 || dash.TotalCandidates != 2 {
		t.Fatalf("unexpected dashboard header %+v", dash)
	}
	if len(dash.Candidates) != 2 || dash.Candidates[0].CandidateID != asha.CandidateID {
		t.Fatalf("expected candidates in registration order, got %+v", dash.Candidates)
	}
	a := dash.Candidates[0]
	if a.TotalAnswers != 2 || a.AverageScore == nil || *a.AverageScore != 7.0 {
		t.Fatalf("unexpected asha summary %+v", a)
	}
	r := dash.Candidates[1]
	if r.CandidateID != ravi.CandidateID || r.TotalAnswers != 0 || r.AverageScore != nil {
		t.Fatalf("unscored candidate must have null average, got %+v", r)
	}
}

func TestReportListsAnswersInQuestionOrder(t *testing.T) {
	h := newHarness(t, false)
	sc := h.backendRound(t)
	ctx := context.Background()
	asha, err := h.svc.RegisterCandidate(ctx, sc.code, "Asha", "asha@example.com", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := h.svc.SaveAnswer(ctx, asha.CandidateID, sc.questions[1].ID, "second", 6, "Fine"); err != nil {
		t.Fatalf("save q2: %v", err)
	}
	if _, err := h.svc.SaveAnswer(ctx, asha.CandidateID, sc.questions[0].ID, "first", 8, "Good"); err != nil {
		t.Fatalf("save q1: %v", err)
	}

	rep, err := h.svc.Report(ctx, asha.CandidateID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if rep.CandidateName != "Asha" || rep.InterviewTitle != "Backend Round" {
		t.Fatalf("unexpected identity %+v", rep)
	}
	if rep.TotalQuestions != 3 || rep.CompletedQuestions != 2 || rep.AverageScore == nil || *rep.AverageScore != 7.0 {
		t.Fatalf("unexpected totals %+v", rep)
	}
	if rep.Answers[0].QuestionText != "Explain channels" || rep.Answers[1].QuestionText != "Describe context cancellation" {
		t.Fatalf("answers not in question order: %+v", rep.Answers)
	}

	empty, err := h.svc.RegisterCandidate(ctx, sc.code, "Ravi", "ravi@example.com", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	rep, err = h.svc.Report(ctx, empty.CandidateID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if rep.AverageScore != nil || rep.CompletedQuestions != 0 || len(rep.Answers) != 0 {
		t.Fatalf("unexpected empty report %+v", rep)
	}
}

func TestExportRanksCandidates(t *testing.T) {
	h := newHarness(t, false)
	sc := h.backendRound(t)
	ctx := context.Background()

	register := func(name string) string {
		t.Helper()
		s, err := h.svc.RegisterCandidate(ctx, sc.code, name, name+"@example.com", "")
		if err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
		return s.CandidateID
	}
	idle := register("idle")
	mid := register("mid")
	top := register("top")
	tied := register("tied")

	save := func(candidate string, q int, score int, feedback string) {
		t.Helper()
		if _, err := h.svc.SaveAnswer(ctx, candidate, sc.questions[q].ID, "t", score, feedback); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	save(mid, 0, 6, "Okay")
	save(top, 0, 9, "Sharp")
	save(top, 1, 9, "Precise")
	save(tied, 0, 6, "")

	rows, err := h.svc.Export(ctx, sc.interview.ID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	wantOrder := []string{"top", "mid", "tied", "idle"}
	if len(rows) != len(wantOrder) {
		t.Fatalf("expected %d rows, got %d", len(wantOrder), len(rows))
	}
	for i, name := range wantOrder {
		if rows[i].Name != name || rows[i].Rank != i+1 {
			t.Fatalf("row %d: expected %s rank %d, got %+v", i, name, i+1, rows[i])
		}
	}
	if rows[0].Score != 9 || rows[3].Score != 0 {
		t.Fatalf("unexpected scores %+v", rows)
	}
	if rows[0].Feedback != "Q: Explain channels\nA: Sharp\n\nQ: Describe context cancellation\nA: Precise" {
		t.Fatalf("unexpected feedback %q", rows[0].Feedback)
	}
	if rows[2].Feedback != "No feedback available" || rows[3].Feedback != "No feedback available" {
		t.Fatalf("expected placeholder feedback, got %q / %q", rows[2].Feedback, rows[3].Feedback)
	}

	dash, err := h.svc.Dashboard(ctx, sc.interview.ID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	for _, c := range dash.Candidates {
		if c.CandidateID == idle && c.AverageScore != nil {
			t.Fatalf("export ranking must not leak 0.0 into the dashboard")
		}
	}
}

func TestExportUnknownInterview(t *testing.T) {
	h := newHarness(t, false)
	var nf *NotFoundError
	if _, err := h.svc.Export(context.Background(), "missing"); !errors.As(err, &nf) {
		t.Fatalf("expected not found, got %v", err)
	}
}
