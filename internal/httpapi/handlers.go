package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sowri347/bot-interview/internal/auth"
	"github.com/sowri347/bot-interview/internal/report"
)

type credentialsRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type createInterviewRequest struct {
	Title             string `json:"title" form:"title" binding:"required"`
	Description       string `json:"description" form:"description"`
	CandidatePassword string `json:"candidate_password" form:"candidate_password"`
}

type addQuestionRequest struct {
	InterviewID  string `json:"interview_id" form:"interview_id" binding:"required"`
	QuestionText string `json:"question_text" form:"question_text" binding:"required"`
}

type registerRequest struct {
	Name              string `json:"name" form:"name" binding:"required"`
	Email             string `json:"email" form:"email" binding:"required,email"`
	LinkCode          string `json:"link_code" form:"link_code" binding:"required"`
	InterviewPassword string `json:"interview_password" form:"interview_password"`
}

type candidateLoginRequest struct {
	LinkCode string `json:"link_code" form:"link_code" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "AI Interview Platform API", "status": "running"})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleAdminSignup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}
	session, err := s.interviews.SignupAdmin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) handleAdminLogin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}
	session, err := s.interviews.LoginAdmin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) handleCreateInterview(c *gin.Context) {
	var req createInterviewRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "title is required")
		return
	}
	p, _ := auth.PrincipalFrom(c)
	view, err := s.interviews.CreateInterview(c.Request.Context(), p.SubjectID, req.Title, req.Description, req.CandidatePassword)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleAddQuestion(c *gin.Context) {
	var req addQuestionRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "interview_id and question_text are required")
		return
	}
	q, err := s.interviews.AddQuestion(c.Request.Context(), req.InterviewID, req.QuestionText)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (s *Server) handleListInterviews(c *gin.Context) {
	p, _ := auth.PrincipalFrom(c)
	list, err := s.interviews.ListInterviews(c.Request.Context(), p.SubjectID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleDashboard(c *gin.Context) {
	dash, err := s.interviews.Dashboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (s *Server) handleCandidates(c *gin.Context) {
	candidates, err := s.interviews.ListCandidates(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidates)
}

func (s *Server) handleDownloadExcel(c *gin.Context) {
	id := c.Param("id")
	rows, err := s.interviews.Export(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := report.Write(&buf, rows); err != nil {
		s.writeError(c, fmt.Errorf("render workbook: %w", err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=interview_report_%s.xlsx", id))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (s *Server) handleDeleteInterview(c *gin.Context) {
	if err := s.interviews.DeleteInterview(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Interview deleted"})
}

func (s *Server) handleReport(c *gin.Context) {
	rep, err := s.interviews.Report(c.Request.Context(), c.Param("candidate_id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleInterviewByLink(c *gin.Context) {
	view, err := s.interviews.InterviewByLink(c.Request.Context(), c.Param("link_code"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "name, a valid email and link_code are required")
		return
	}
	session, err := s.interviews.RegisterCandidate(c.Request.Context(), req.LinkCode, req.Name, req.Email, req.InterviewPassword)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) handleCandidateLogin(c *gin.Context) {
	var req candidateLoginRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "link_code, email and password are required")
		return
	}
	session, err := s.interviews.LoginCandidate(c.Request.Context(), req.LinkCode, req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) handleStart(c *gin.Context) {
	p, _ := auth.PrincipalFrom(c)
	view, err := s.interviews.StartInterview(c.Request.Context(), p.SubjectID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleSaveAnswer(c *gin.Context) {
	questionID := c.PostForm("question_id")
	transcript, hasTranscript := c.GetPostForm("transcript")
	rawScore := c.PostForm("score")
	feedback, hasFeedback := c.GetPostForm("feedback")
	if questionID == "" || !hasTranscript || rawScore == "" || !hasFeedback {
		badRequest(c, "question_id, transcript, score and feedback are required")
		return
	}
	score, err := strconv.Atoi(rawScore)
	if err != nil {
		badRequest(c, "score must be an integer")
		return
	}
	p, _ := auth.PrincipalFrom(c)
	answer, err := s.interviews.SaveAnswer(c.Request.Context(), p.SubjectID, questionID, transcript, score, feedback)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (s *Server) handleTranscribe(c *gin.Context) {
	if s.cfg.MaxUploadMB > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(s.cfg.MaxUploadMB)<<20)
	}
	fh, err := c.FormFile("audio_file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeError(c, err)
			return
		}
		badRequest(c, "audio_file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.writeError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()
	audio, err := io.ReadAll(f)
	if err != nil {
		s.writeError(c, fmt.Errorf("read upload: %w", err))
		return
	}

	transcript, err := s.transcriber.Transcribe(c.Request.Context(), audio, c.PostForm("language"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transcript": transcript})
}

func (s *Server) handleEvaluate(c *gin.Context) {
	transcript, ok := c.GetPostForm("transcript")
	if !ok {
		badRequest(c, "transcript is required")
		return
	}
	questionText := c.PostForm("question_text")
	if questionText == "" {
		if id := c.PostForm("question_id"); id != "" {
			p, _ := auth.PrincipalFrom(c)
			text, err := s.interviews.QuestionText(c.Request.Context(), p.SubjectID, id)
			if err != nil {
				s.writeError(c, err)
				return
			}
			questionText = text
		}
	}
	result := s.evaluator.Evaluate(c.Request.Context(), transcript, questionText)
	c.JSON(http.StatusOK, result)
}
