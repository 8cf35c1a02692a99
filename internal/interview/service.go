package interview

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sowri347/bot-interview/internal/auth"
	"github.com/sowri347/bot-interview/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Publisher emits domain events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Options holds the registration policy and link rendering settings.
type Options struct {
	RequireLinkPassword bool
	PublicBaseURL       string
}

// Service implements interview management, answer submission and the
// aggregate views on top of the store.
type Service struct {
	store     *store.Store
	hasher    *auth.Hasher
	issuer    *auth.Issuer
	publisher Publisher
	opts      Options
	logger    *slog.Logger
	clock     func() time.Time

	answersSaved metric.Int64Counter
}

func NewService(st *store.Store, hasher *auth.Hasher, issuer *auth.Issuer, publisher Publisher, opts Options, logger *slog.Logger) *Service {
	s := &Service{
		store:     st,
		hasher:    hasher,
		issuer:    issuer,
		publisher: publisher,
		opts:      opts,
		logger:    logger.With(slog.String("component", "interview-service")),
		clock:     time.Now,
	}
	meter := otel.Meter("github.com/sowri347/bot-interview/interview")
	var err error
	if s.answersSaved, err = meter.Int64Counter("interview.answers.saved",
		metric.WithDescription("Answer upserts committed")); err != nil {
		s.logger.Warn("failed to create answers counter", slogError(err))
	}
	return s
}

// AdminSession is returned by signup and login.
type AdminSession struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	AdminID     string `json:"admin_id"`
	Email       string `json:"email"`
}

// CandidateSession is returned by registration and candidate login.
type CandidateSession struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	CandidateID string `json:"candidate_id"`
	InterviewID string `json:"interview_id"`
	Name        string `json:"name"`
}

// InterviewView is the admin facing representation of an interview.
type InterviewView struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       *string   `json:"description"`
	CreatedAt         time.Time `json:"created_at"`
	ShareableLink     *string   `json:"shareable_link"`
	CandidatePassword *string   `json:"candidate_password,omitempty"`
	QuestionCount     *int      `json:"question_count,omitempty"`
	CandidateCount    *int      `json:"candidate_count,omitempty"`
}

// InterviewList wraps a listing with its size.
type InterviewList struct {
	Interviews []InterviewView `json:"interviews"`
	Total      int             `json:"total"`
}

type QuestionView struct {
	ID           string    `json:"id"`
	InterviewID  string    `json:"interview_id"`
	QuestionText string    `json:"question_text"`
	CreatedAt    time.Time `json:"created_at"`
}

// QuestionBrief is the candidate facing question shape.
type QuestionBrief struct {
	ID           string `json:"id"`
	QuestionText string `json:"question_text"`
}

// PublicInterview is what a candidate sees before and after registering.
type PublicInterview struct {
	InterviewID      string          `json:"interview_id"`
	Title            string          `json:"title"`
	Description      *string         `json:"description"`
	RequiresPassword bool            `json:"requires_password"`
	Questions        []QuestionBrief `json:"questions"`
}

type CandidateView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SignupAdmin creates an admin account and signs it in.
func (s *Service) SignupAdmin(ctx context.Context, email, password string) (AdminSession, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return AdminSession{}, invalid("Email and password are required")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return AdminSession{}, fmt.Errorf("hash admin password: %w", err)
	}
	admin, err := s.store.CreateAdmin(ctx, email, hash)
	if errors.Is(err, store.ErrDuplicate) {
		return AdminSession{}, invalid("Email already registered")
	}
	if err != nil {
		return AdminSession{}, err
	}
	s.logger.Info("admin registered", slog.String("admin_id", admin.ID))
	return s.adminSession(admin)
}

// LoginAdmin verifies admin credentials.
func (s *Service) LoginAdmin(ctx context.Context, email, password string) (AdminSession, error) {
	admin, err := s.store.AdminByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return AdminSession{}, unauthorized("Invalid email or password")
	}
	if err != nil {
		return AdminSession{}, err
	}
	if !s.hasher.Verify(admin.PasswordHash, password) {
		return AdminSession{}, unauthorized("Invalid email or password")
	}
	return s.adminSession(admin)
}

func (s *Service) adminSession(admin store.Admin) (AdminSession, error) {
	token, err := s.issuer.Issue(auth.Principal{SubjectID: admin.ID, Role: auth.RoleAdmin, Email: admin.Email})
	if err != nil {
		return AdminSession{}, err
	}
	return AdminSession{AccessToken: token, TokenType: "bearer", AdminID: admin.ID, Email: admin.Email}, nil
}

// AdminExists backs the admin auth middleware.
func (s *Service) AdminExists(ctx context.Context, adminID string) error {
	_, err := s.store.AdminByID(ctx, adminID)
	return err
}

// CandidateExists backs the candidate auth middleware.
func (s *Service) CandidateExists(ctx context.Context, candidateID string) error {
	_, err := s.store.CandidateByID(ctx, candidateID)
	return err
}

// CreateInterview stores an interview together with its shareable link. When
// link passwords are required and candidatePassword is empty, one is
// generated and returned once in the view.
func (s *Service) CreateInterview(ctx context.Context, adminID, title, description, candidatePassword string) (InterviewView, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return InterviewView{}, invalid("Title is required")
	}
	code, err := randomToken(12)
	if err != nil {
		return InterviewView{}, fmt.Errorf("generate link code: %w", err)
	}

	var linkHash string
	var issuedPassword *string
	if s.opts.RequireLinkPassword {
		if candidatePassword == "" {
			if candidatePassword, err = randomToken(9); err != nil {
				return InterviewView{}, fmt.Errorf("generate link password: %w", err)
			}
		}
		if linkHash, err = s.hasher.Hash(candidatePassword); err != nil {
			return InterviewView{}, fmt.Errorf("hash link password: %w", err)
		}
		issuedPassword = &candidatePassword
	}

	iv, link, err := s.store.CreateInterview(ctx, adminID, title, strings.TrimSpace(description), code, linkHash)
	if err != nil {
		return InterviewView{}, err
	}
	s.logger.Info("interview created",
		slog.String("interview_id", iv.ID),
		slog.String("link", s.shareableLink(link.Code)))
	s.publish(ctx, protocolInterviewCreated(iv, link, s.clock()))

	view := interviewView(iv)
	shareable := s.shareableLink(link.Code)
	view.ShareableLink = &shareable
	view.CandidatePassword = issuedPassword
	return view, nil
}

// AddQuestion appends a question to an interview.
func (s *Service) AddQuestion(ctx context.Context, interviewID, text string) (QuestionView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return QuestionView{}, invalid("Question text is required")
	}
	if _, err := s.interview(ctx, interviewID); err != nil {
		return QuestionView{}, err
	}
	q, err := s.store.AddQuestion(ctx, interviewID, text)
	if err != nil {
		return QuestionView{}, err
	}
	return QuestionView{ID: q.ID, InterviewID: q.InterviewID, QuestionText: q.Text, CreatedAt: q.CreatedAt}, nil
}

// ListInterviews returns the interviews created by adminID, newest first.
func (s *Service) ListInterviews(ctx context.Context, adminID string) (InterviewList, error) {
	items, err := s.store.ListInterviews(ctx, adminID)
	if err != nil {
		return InterviewList{}, err
	}
	out := InterviewList{Interviews: make([]InterviewView, 0, len(items))}
	for _, item := range items {
		view := interviewView(item.Interview)
		if item.LinkCode != "" {
			link := s.shareableLink(item.LinkCode)
			view.ShareableLink = &link
		}
		questions, candidates := item.QuestionCount, item.CandidateCount
		view.QuestionCount = &questions
		view.CandidateCount = &candidates
		out.Interviews = append(out.Interviews, view)
	}
	out.Total = len(out.Interviews)
	return out, nil
}

// DeleteInterview removes an interview and everything under it.
func (s *Service) DeleteInterview(ctx context.Context, interviewID string) error {
	err := s.store.DeleteInterview(ctx, interviewID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("interview")
	}
	if err != nil {
		return err
	}
	s.logger.Info("interview deleted", slog.String("interview_id", interviewID))
	s.publish(ctx, protocolInterviewDeleted(interviewID, s.clock()))
	return nil
}

// ListCandidates returns the candidates registered for an interview.
func (s *Service) ListCandidates(ctx context.Context, interviewID string) ([]CandidateView, error) {
	if _, err := s.interview(ctx, interviewID); err != nil {
		return nil, err
	}
	candidates, err := s.store.ListCandidates(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	out := make([]CandidateView, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, CandidateView{ID: c.ID, Name: c.Name, Email: c.Email, CreatedAt: c.CreatedAt})
	}
	return out, nil
}

// InterviewByLink resolves a shareable link code for the public landing page.
func (s *Service) InterviewByLink(ctx context.Context, code string) (PublicInterview, error) {
	link, err := s.link(ctx, code)
	if err != nil {
		return PublicInterview{}, err
	}
	return s.publicInterview(ctx, link.InterviewID, link.PasswordHash != "")
}

// RegisterCandidate creates a candidate through a link and signs them in.
func (s *Service) RegisterCandidate(ctx context.Context, code, name, email, password string) (CandidateSession, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" {
		return CandidateSession{}, invalid("Name and email are required")
	}
	link, err := s.link(ctx, code)
	if err != nil {
		return CandidateSession{}, err
	}

	var candidateHash string
	if s.opts.RequireLinkPassword {
		if link.PasswordHash == "" || !s.hasher.Verify(link.PasswordHash, password) {
			return CandidateSession{}, invalid("Invalid interview password")
		}
		if candidateHash, err = s.hasher.Hash(password); err != nil {
			return CandidateSession{}, fmt.Errorf("hash candidate password: %w", err)
		}
	}

	c, err := s.store.CreateCandidate(ctx, link.InterviewID, name, email, candidateHash)
	if err != nil {
		return CandidateSession{}, err
	}
	s.logger.Info("candidate registered",
		slog.String("candidate_id", c.ID),
		slog.String("interview_id", c.InterviewID))
	s.publish(ctx, protocolCandidateRegistered(c))
	return s.candidateSession(c)
}

// LoginCandidate re-issues a token for a password registered candidate. It is
// only available when link passwords are required.
func (s *Service) LoginCandidate(ctx context.Context, code, email, password string) (CandidateSession, error) {
	if !s.opts.RequireLinkPassword {
		return CandidateSession{}, invalid("Candidate login is disabled; register through the interview link")
	}
	link, err := s.link(ctx, code)
	if err != nil {
		return CandidateSession{}, err
	}
	c, err := s.store.LatestCandidateByEmail(ctx, link.InterviewID, email)
	if errors.Is(err, store.ErrNotFound) {
		return CandidateSession{}, unauthorized("Invalid email or password")
	}
	if err != nil {
		return CandidateSession{}, err
	}
	hash, err := s.store.CandidatePasswordHash(ctx, c.ID)
	if errors.Is(err, store.ErrNotFound) {
		return CandidateSession{}, unauthorized("Invalid email or password")
	}
	if err != nil {
		return CandidateSession{}, err
	}
	if !s.hasher.Verify(hash, password) {
		return CandidateSession{}, unauthorized("Invalid email or password")
	}
	return s.candidateSession(c)
}

func (s *Service) candidateSession(c store.Candidate) (CandidateSession, error) {
	token, err := s.issuer.Issue(auth.Principal{
		SubjectID:   c.ID,
		Role:        auth.RoleCandidate,
		Email:       c.Email,
		InterviewID: c.InterviewID,
	})
	if err != nil {
		return CandidateSession{}, err
	}
	return CandidateSession{
		AccessToken: token,
		TokenType:   "bearer",
		CandidateID: c.ID,
		InterviewID: c.InterviewID,
		Name:        c.Name,
	}, nil
}

// StartInterview returns the ordered questions for the candidate's interview.
func (s *Service) StartInterview(ctx context.Context, candidateID string) (PublicInterview, error) {
	c, err := s.candidate(ctx, candidateID)
	if err != nil {
		return PublicInterview{}, err
	}
	return s.publicInterview(ctx, c.InterviewID, false)
}

// QuestionText returns the text of a question in the candidate's interview,
// for evaluation context. Questions of other interviews are not found.
func (s *Service) QuestionText(ctx context.Context, candidateID, questionID string) (string, error) {
	c, err := s.candidate(ctx, candidateID)
	if err != nil {
		return "", err
	}
	q, err := s.store.QuestionByID(ctx, questionID)
	if errors.Is(err, store.ErrNotFound) {
		return "", notFound("question")
	}
	if err != nil {
		return "", err
	}
	if q.InterviewID != c.InterviewID {
		return "", notFound("question")
	}
	return q.Text, nil
}

func (s *Service) publicInterview(ctx context.Context, interviewID string, requiresPassword bool) (PublicInterview, error) {
	iv, err := s.interview(ctx, interviewID)
	if err != nil {
		return PublicInterview{}, err
	}
	questions, err := s.store.ListQuestions(ctx, interviewID)
	if err != nil {
		return PublicInterview{}, err
	}
	out := PublicInterview{
		InterviewID:      iv.ID,
		Title:            iv.Title,
		Description:      optional(iv.Description),
		RequiresPassword: requiresPassword,
		Questions:        make([]QuestionBrief, 0, len(questions)),
	}
	for _, q := range questions {
		out.Questions = append(out.Questions, QuestionBrief{ID: q.ID, QuestionText: q.Text})
	}
	return out, nil
}

func (s *Service) interview(ctx context.Context, id string) (store.Interview, error) {
	iv, err := s.store.InterviewByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Interview{}, notFound("interview")
	}
	return iv, err
}

func (s *Service) candidate(ctx context.Context, id string) (store.Candidate, error) {
	c, err := s.store.CandidateByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Candidate{}, notFound("candidate")
	}
	return c, err
}

func (s *Service) link(ctx context.Context, code string) (store.Link, error) {
	link, err := s.store.LinkByCode(ctx, strings.TrimSpace(code))
	if errors.Is(err, store.ErrNotFound) {
		return store.Link{}, &NotFoundError{Entity: "interview link", Message: "Invalid interview link"}
	}
	return link, err
}

func (s *Service) shareableLink(code string) string {
	return strings.TrimRight(s.opts.PublicBaseURL, "/") + "/interview/" + code
}

type event struct {
	subject string
	payload any
}

func (s *Service) publish(ctx context.Context, ev event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev.subject, ev.payload); err != nil {
		s.logger.Warn("failed to publish event", slog.String("subject", ev.subject), slogError(err))
	}
}

func interviewView(iv store.Interview) InterviewView {
	return InterviewView{
		ID:          iv.ID,
		Title:       iv.Title,
		Description: optional(iv.Description),
		CreatedAt:   iv.CreatedAt,
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// randomToken returns n random bytes as unpadded URL safe base64.
func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
