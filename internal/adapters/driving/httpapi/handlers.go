package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/logger"
)

const (
	defaultK       = domain.DefaultTopK
	maxK           = 50
	defaultLeadCap = 100

	// leadSource labels leads posted without a source.
	leadSource = "web"
)

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	K     int    `json:"k,omitempty"`
}

// AnswerRequest is the body of POST /api/answer.
type AnswerRequest struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id,omitempty"`
}

// AnswerResponse is an answer plus the session it advanced.
type AnswerResponse struct {
	SessionID string `json:"session_id"`
	domain.Answer
}

// LeadRequest is the body of POST /api/leads.
type LeadRequest struct {
	Name    string `json:"name" binding:"required"`
	Contact string `json:"contact" binding:"required"`
	Notes   string `json:"notes,omitempty"`
	Source  string `json:"source,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"kb":     s.ports.Retriever.Manifest(),
	})
}

func (s *Server) handleSearch(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	k := req.K
	if k <= 0 {
		k = defaultK
	}
	if k > maxK {
		k = maxK
	}

	hits, err := s.ports.Retriever.Search(c.Request.Context(), req.Query, k)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": hits,
		"count":   len(hits),
	})
}

// handleAnswer always answers 200 once the request is well formed;
// generation failures come back as error-labelled answers.
func (s *Server) handleAnswer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var answer domain.Answer
	sessionID := req.SessionID
	if s.ports.Sessions != nil {
		if sessionID == "" {
			sessionID = s.ports.Sessions.NewSession()
		}
		s.ports.Sessions.Turn(sessionID, func(state *domain.SessionState) {
			answer = s.ports.Answer.Answer(c.Request.Context(), req.Question, state)
		})
	} else {
		sessionID = ""
		answer = s.ports.Answer.Answer(c.Request.Context(), req.Question, &domain.SessionState{})
	}

	c.JSON(http.StatusOK, AnswerResponse{SessionID: sessionID, Answer: answer})
}

func (s *Server) handleDropSession(c *gin.Context) {
	s.ports.Sessions.Drop(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCaptureLead(c *gin.Context) {
	var req LeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = leadSource
	}

	lead, err := s.ports.Leads.Capture(c.Request.Context(), domain.Lead{
		Name:    req.Name,
		Contact: req.Contact,
		Notes:   req.Notes,
		Source:  source,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lead)
}

func (s *Server) handleListLeads(c *gin.Context) {
	limit := defaultLeadCap
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	leads, err := s.ports.Leads.List(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leads": leads,
		"count": len(leads),
	})
}

func (s *Server) handleRefresh(c *gin.Context) {
	report, err := s.ports.Refresh.Refresh(c.Request.Context())
	if err != nil {
		if report != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error(), "report": report})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// writeError maps domain errors to status codes.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRefreshInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoManifest), errors.Is(err, domain.ErrEmptyBuild):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrKBUnavailable), errors.Is(err, domain.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
