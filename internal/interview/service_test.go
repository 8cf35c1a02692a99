package interview

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sowri347/bot-interview/internal/auth"
	"github.com/sowri347/bot-interview/internal/config"
	"github.com/sowri347/bot-interview/internal/protocol"
	"github.com/sowri347/bot-interview/internal/store"
	"golang.org/x/crypto/bcrypt"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads []any
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, payload)
	return p.err
}

func (p *recordingPublisher) count(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.subjects {
		if s == subject {
			n++
		}
	}
	return n
}

type harness struct {
	svc    *Service
	store  *store.Store
	issuer *auth.Issuer
	events *recordingPublisher
}

func newHarness(t *testing.T, requirePassword bool) harness {
	t.Helper()
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "interview.db"), MaxOpenConns: 4}
	st, err := store.Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	st.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})

	issuer := auth.NewIssuer("test-secret", time.Hour)
	events := &recordingPublisher{}
	svc := NewService(st, auth.NewHasher(bcrypt.MinCost), issuer, events, Options{
		RequireLinkPassword: requirePassword,
		PublicBaseURL:       "https://interviews.example.com/",
	}, newLogger())
	return harness{svc: svc, store: st, issuer: issuer, events: events}
}

type scenario struct {
	admin     AdminSession
	interview InterviewView
	code      string
	questions []QuestionView
}

func (h harness) backendRound(t *testing.T) scenario {
	t.Helper()
	ctx := context.Background()
	admin, err := h.svc.SignupAdmin(ctx, "lead@example.com", "s3cret")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	iv, err := h.svc.CreateInterview(ctx, admin.AdminID, "Backend Round", "Go services", "")
	if err != nil {
		t.Fatalf("create interview: %v", err)
	}
	var questions []QuestionView
	for _, text := range []string{"Explain channels", "Describe context cancellation", "How does the GC work?"} {
		q, err := h.svc.AddQuestion(ctx, iv.ID, text)
		if err != nil {
			t.Fatalf("add question: %v", err)
		}
		questions = append(questions, q)
	}
	code := (*iv.ShareableLink)[strings.LastIndex(*iv.ShareableLink, "/")+1:]
	return scenario{admin: admin, interview: iv, code: code, questions: questions}
}

func TestSignupAndLoginAdmin(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	session, err := h.svc.SignupAdmin(ctx, "Lead@Example.com", "s3cret")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if session.TokenType != "bearer" || session.Email != "lead@example.com" {
		t.Fatalf("unexpected session %+v", session)
	}
	p, err := h.issuer.Verify(session.AccessToken, auth.RoleAdmin)
	if err != nil || p.SubjectID != session.AdminID {
		t.Fatalf("token does not identify admin: %+v, %v", p, err)
	}

	_, err = h.svc.SignupAdmin(ctx, "lead@example.com", "other")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Reason != "Email already registered" {
		t.Fatalf("expected duplicate email validation error, got %v", err)
	}

	if _, err := h.svc.LoginAdmin(ctx, "lead@example.com", "s3cret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := h.svc.LoginAdmin(ctx, "lead@example.com", "wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for bad password, got %v", err)
	}
	if _, err := h.svc.LoginAdmin(ctx, "nobody@example.com", "s3cret"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for unknown admin, got %v", err)
	}
}

func TestCreateInterviewBuildsShareableLink(t *testing.T) {
	h := newHarness(t, false)
	sc := h.backendRound(t)

	if !strings.HasPrefix(*sc.interview.ShareableLink, "https://interviews.example.com/interview/") {
		t.Fatalf("unexpected link %q", *sc.interview.ShareableLink)
	}
	if len(sc.code) != 16 {
		t.Fatalf("expected 16 character link code, got %q", sc.code)
	}
	if sc.interview.CandidatePassword != nil {
		t.Fatalf("no password expected when link passwords are off")
	}
	if h.events.count(protocol.SubjectInterviewCreated) != 1 {
		t.Fatalf("expected interview.created event")
	}

	public, err := h.svc.InterviewByLink(context.Background(), sc.code)
	if err != nil {
		t.Fatalf("interview by link: %v", err)
	}
	if public.Title != "Backend Round" || len(public.Questions) != 3 || public.Questions[0].QuestionText != "Explain channels" {
		t.Fatalf("unexpected public interview %+v", public)
	}

	list, err := h.svc.ListInterviews(context.Background(), sc.admin.AdminID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 1 || *list.Interviews[0].QuestionCount != 3 || *list.Interviews[0].ShareableLink != *sc.interview.ShareableLink {
		t.Fatalf("unexpected listing %+v", list)
	}
}

func TestUnknownEntitiesAreNotFound(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	var nf *NotFoundError

	_, err := h.svc.InterviewByLink(ctx, "missing")
	if !errors.As(err, &nf) || nf.Error() != "Invalid interview link" {
		t.Fatalf("expected invalid link, got %v", err)
	}
	_, err = h.svc.AddQuestion(ctx, "missing", "text")
	if !errors.As(err, &nf) || nf.Error() != "Interview not found" {
		t.Fatalf("expected interview not found, got %v", err)
	}
	_, err = h.svc.Report(ctx, "missing")
	if !errors.As(err, &nf) || nf.Entity != "candidate" {
		t.Fatalf("expected candidate not found, got %v", err)
	}
	if err := h.svc.DeleteInterview(ctx, "missing"); !errors.As(err, &nf) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
	if _, err := h.svc.RegisterCandidate(ctx, "missing", "Asha", "asha@example.com", ""); !errors.As(err, &nf) {
		t.Fatalf("expected not found on register, got %v", err)
	}
}

func TestRegisterCandidateWithoutLinkPassword(t *testing.T) {
	h := newHarness(t, false)
	sc := h.backendRound(t)
	ctx := context.Background()

	session, err := h.svc.RegisterCandidate(ctx, sc.code, "Asha", "asha@example.com", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if session.InterviewID != sc.interview.ID || session.Name != "Asha" {
		t.Fatalf("unexpected session %+v", session)
	}
	p, err := h.issuer.Verify(session.AccessToken, auth.RoleCandidate)
	if err != nil || p.InterviewID != sc.interview.ID {
		t.Fatalf("candidate token invalid: %+v, %v", p, err)
	}
	if _, err := h.store.CandidatePasswordHash(ctx, session.CandidateID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected no candidate auth row, got %v", err)
	}
	if h.events.count(protocol.SubjectCandidateRegistered) != 1 {
		t.Fatalf("expected candidate.registered event")
	}

	var verr *ValidationError
	if _, err := h.svc.LoginCandidate(ctx, sc.code, "asha@example.com", "x"); !errors.As(err, &verr) {
		t.Fatalf("expected candidate login disabled, got %v", err)
	}

	started, err := h.svc.StartInterview(ctx, session.CandidateID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(started.Questions) != 3 || started.Questions[2].ID != sc.questions[2].ID {
		t.Fatalf("unexpected questions %+v", started.Questions)
	}
}

func TestRegisterCandidateWithLinkPassword(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	admin, err := h.svc.SignupAdmin(ctx, "lead@example.com", "s3cret")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	generated, err := h.svc.CreateInterview(ctx, admin.AdminID, "Generated", "", "")
	if err != nil {
		t.Fatalf("create interview: %v", err)
	}
	if generated.CandidatePassword == nil || *generated.CandidatePassword == "" {
		t.Fatalf("expected a generated candidate password")
	}

	iv, err := h.svc.CreateInterview(ctx, admin.AdminID, "Backend Round", "", "open-sesame")
	if err != nil {
		t.Fatalf("create interview: %v", err)
	}
	code := (*iv.ShareableLink)[strings.LastIndex(*iv.ShareableLink, "/")+1:]

	public, err := h.svc.InterviewByLink(ctx, code)
	if err != nil || !public.RequiresPassword {
		t.Fatalf("expected password gated link, got %+v, %v", public, err)
	}

	var verr *ValidationError
	_, err = h.svc.RegisterCandidate(ctx, code, "Asha", "asha@example.com", "wrong")
	if !errors.As(err, &verr) || verr.Reason != "Invalid interview password" {
		t.Fatalf("expected invalid password, got %v", err)
	}

	session, err := h.svc.RegisterCandidate(ctx, code, "Asha", "asha@example.com", "open-sesame")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := h.store.CandidatePasswordHash(ctx, session.CandidateID); err != nil {
		t.Fatalf("expected candidate auth row: %v", err)
	}

	again, err := h.svc.LoginCandidate(ctx, code, "ASHA@example.com", "open-sesame")
	if err != nil {
		t.Fatalf("candidate login: %v", err)
	}
	if again.CandidateID != session.CandidateID {
		t.Fatalf("login resolved a different candidate")
	}
	if _, err := h.svc.LoginCandidate(ctx, code, "asha@example.com", "nope"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestSaveAnswerUpsertsSingleRow(t *testing.T) {
	h := newHarness(t, false)
	sc := h.backendRound(t)
	ctx := context.Background()
	cand, err := h.svc.RegisterCandidate(ctx, sc.code, "Asha", "asha@example.com", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	first, err := h.svc.SaveAnswer(ctx, cand.CandidateID, sc.questions[0].ID, "first try", 4, "weak")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := h.svc.SaveAnswer(ctx, cand.CandidateID, sc.questions[0].ID, "second try", 9, "strong")
	if err != nil {
		t.Fatalf("resave: %v", err)
	}
	if first.ID != second.ID || !first.CreatedAt.Equal(second.CreatedAt) {
		t.Fatalf("resubmission changed identity: %+v vs %+v", first, second)
	}
	if *second.Transcript != "second try" || *second.Score != 9 || *second.Feedback != "strong" {
		t.Fatalf("unexpected values %+v", second)
	}
	n, err := h.store.CountAnswers(ctx, cand.CandidateID)
	if err != nil || n != 1 {
		t.Fatalf("expected one stored answer, got %d (%v)", n, err)
	}
	if h.events.count(protocol.SubjectAnswerSaved) != 2 {
		t.Fatalf("expected an answer.saved event per save")
	}
}

func TestSaveAnswerValidation(t *testing.T) {
	h := newHarness(t, false)
	sc := h.backendRound(t)
	ctx := context.Background()
	cand, err := h.svc.RegisterCandidate(ctx, sc.code, "Asha", "asha@example.com", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	other, err := h.svc.CreateInterview(ctx, sc.admin.AdminID, "Other", "", "")
	if err != nil {
		t.Fatalf("create other: %v", err)
	}
	foreign, err := h.svc.AddQuestion(ctx, other.ID, "Unrelated")
	if err != nil {
		t.Fatalf("add foreign question: %v", err)
	}

	var nf *NotFoundError
	if _, err := h.svc.SaveAnswer(ctx, "ghost", sc.questions[0].ID, "t", 5, "f"); !errors.As(err, &nf) || nf.Entity != "candidate" {
		t.Fatalf("expected candidate not found, got %v", err)
	}
	if _, err := h.svc.SaveAnswer(ctx, cand.CandidateID, "ghost", "t", 5, "f"); !errors.As(err, &nf) || nf.Entity != "question" {
		t.Fatalf("expected question not found, got %v", err)
	}
	if _, err := h.svc.SaveAnswer(ctx, cand.CandidateID, foreign.ID, "t", 5, "f"); !errors.As(err, &nf) || nf.Entity != "question" {
		t.Fatalf("expected foreign question rejected, got %v", err)
	}
	var verr *ValidationError
	for _, score := range []int{0, 11, -1} {
		if _, err := h.svc.SaveAnswer(ctx, cand.CandidateID, sc.questions[0].ID, "t", score, "f"); !errors.As(err, &verr) {
			t.Fatalf("expected validation error for score %d, got %v", score, err)
		}
	}
}

func TestQuestionTextScopedToCandidateInterview(t *testing.T) {
	h := newHarness(t, false)
	sc := h.backendRound(t)
	ctx := context.Background()
	cand, err := h.svc.RegisterCandidate(ctx, sc.code, "Asha", "asha@example.com", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	other, err := h.svc.CreateInterview(ctx, sc.admin.AdminID, "Other", "", "")
	if err != nil {
		t.Fatalf("create other: %v", err)
	}
	foreign, err := h.svc.AddQuestion(ctx, other.ID, "Confidential question")
	if err != nil {
		t.Fatalf("add foreign question: %v", err)
	}

	text, err := h.svc.QuestionText(ctx, cand.CandidateID, sc.questions[1].ID)
	if err != nil || text != "Describe context cancellation" {
		t.Fatalf("expected own question text, got %q, %v", text, err)
	}
	var nf *NotFoundError
	if text, err := h.svc.QuestionText(ctx, cand.CandidateID, foreign.ID); !errors.As(err, &nf) || nf.Entity != "question" || text != "" {
		t.Fatalf("expected foreign question hidden, got %q, %v", text, err)
	}
	if _, err := h.svc.QuestionText(ctx, "ghost", sc.questions[0].ID); !errors.As(err, &nf) || nf.Entity != "candidate" {
		t.Fatalf("expected candidate not found, got %v", err)
	}
}

func TestSaveAnswerSurvivesPublishFailure(t *testing.T) {
	h := newHarness(t, false)
	sc := h.backendRound(t)
	ctx := context.Background()
	cand, err := h.svc.RegisterCandidate(ctx, sc.code, "Asha", "asha@example.com", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	h.events.err = errors.New("bus down")
	if _, err := h.svc.SaveAnswer(ctx, cand.CandidateID, sc.questions[0].ID, "t", 6, "f"); err != nil {
		t.Fatalf("save must not fail on publish error: %v", err)
	}
}

func TestDeleteInterviewCascades(t *testing.T) {
	h := newHarness(t, false)
	sc := h.backendRound(t)
	ctx := context.Background()
	cand, err := h.svc.RegisterCandidate(ctx, sc.code, "Asha", "asha@example.com", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := h.svc.SaveAnswer(ctx, cand.CandidateID, sc.questions[0].ID, "t", 6, "f"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := h.svc.DeleteInterview(ctx, sc.interview.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var nf *NotFoundError
	if _, err := h.svc.Report(ctx, cand.CandidateID); !errors.As(err, &nf) {
		t.Fatalf("expected candidate gone after delete, got %v", err)
	}
	if _, err := h.svc.InterviewByLink(ctx, sc.code); !errors.As(err, &nf) {
		t.Fatalf("expected link gone after delete, got %v", err)
	}
	if h.events.count(protocol.SubjectInterviewDeleted) != 1 {
		t.Fatalf("expected interview.deleted event")
	}
}
