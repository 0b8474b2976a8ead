package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/poiesic/resolvit/core"
	"github.com/poiesic/resolvit/knowledge"
	"github.com/poiesic/resolvit/resolve"
)

type chatRequest struct {
	Query          string `json:"query"`
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type turnResponse struct {
	ID         core.ID   `json:"id"`
	Query      string    `json:"query"`
	Response   string    `json:"response"`
	Strategy   string    `json:"search_strategy_used"`
	Composer   string    `json:"composer,omitempty"`
	Confidence float32   `json:"confidence_score"`
	Success    bool      `json:"success"`
	Timestamp  time.Time `json:"timestamp"`
}

type healthResponse struct {
	Status            string   `json:"status"`
	Uptime            string   `json:"uptime"`
	FAQCount          int      `json:"faq_count"`
	DocumentCount     int      `json:"document_count"`
	EmbeddedFAQs      int      `json:"embedded_faqs"`
	EmbeddedDocuments int      `json:"embedded_documents"`
	Categories        []string `json:"categories"`
	Error             string   `json:"error,omitempty"`
}

type faqResponse struct {
	ID       core.ID `json:"id"`
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Category string  `json:"category"`
}

func newConversationID() string {
	return uuid.NewString()
}

func (s *Server) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid json"})
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "query is required"})
	}
	if req.ConversationID == "" {
		req.ConversationID = s.newID()
	}

	ctx := c.Request().Context()
	query := core.Query{
		Text:           req.Query,
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		History:        s.history(c, req.ConversationID),
	}

	resp, err := s.resolver.Resolve(ctx, query)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, resp)
	case errors.Is(err, knowledge.ErrStoreUnavailable) && resp != nil:
		return c.JSON(http.StatusServiceUnavailable, resp)
	case errors.Is(err, resolve.ErrInvalidQuery):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case ctx.Err() != nil:
		s.logger.Info("client went away", "conversation", req.ConversationID)
		return c.NoContent(http.StatusRequestTimeout)
	default:
		s.logger.Error("resolve failed", "conversation", req.ConversationID, "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// history loads the most recent turns of a conversation, oldest first.
// Failures are logged and yield no history.
func (s *Server) history(c echo.Context, conversationID string) []core.HistoryTurn {
	if s.turns == nil || s.historyTurns == 0 {
		return nil
	}
	turns, err := s.turns.GetRecentTurns(c.Request().Context(), conversationID, s.historyTurns)
	if err != nil {
		s.logger.Warn("failed to load conversation history", "conversation", conversationID, "err", err)
		return nil
	}
	out := make([]core.HistoryTurn, 0, len(turns))
	for _, t := range turns {
		out = append(out, core.HistoryTurn{Query: t.Query, Response: t.Response})
	}
	return out
}

func (s *Server) conversation(c echo.Context) error {
	if s.turns == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "conversation history is disabled"})
	}
	id := c.Param("id")
	turns, err := s.turns.GetTurns(c.Request().Context(), id)
	if err != nil {
		s.logger.Error("failed to read conversation", "conversation", id, "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
	if len(turns) == 0 {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "conversation not found"})
	}

	out := make([]turnResponse, len(turns))
	for i, t := range turns {
		out[i] = turnResponse{
			ID:         t.Id,
			Query:      t.Query,
			Response:   t.Response,
			Strategy:   t.Strategy,
			Composer:   t.Composer,
			Confidence: t.Confidence,
			Success:    t.Success,
			Timestamp:  t.Timestamp,
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"conversation_id": id, "turns": out})
}

func (s *Server) health(c echo.Context) error {
	resp := healthResponse{
		Status:     "ok",
		Uptime:     time.Since(s.started).Round(time.Second).String(),
		Categories: []string{},
	}
	stats, err := s.knowledge.Stats(c.Request().Context())
	if err != nil {
		resp.Status = "unavailable"
		resp.Error = err.Error()
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	resp.FAQCount = stats.FAQCount
	resp.DocumentCount = stats.DocumentCount
	resp.EmbeddedFAQs = stats.EmbeddedFAQs
	resp.EmbeddedDocuments = stats.EmbeddedDocuments
	if stats.Categories != nil {
		resp.Categories = stats.Categories
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) faqs(c echo.Context) error {
	entries, err := s.knowledge.ListFAQs(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		s.logger.Error("failed to list faqs", "err", err)
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "knowledge store unavailable"})
	}
	out := make([]faqResponse, len(entries))
	for i, e := range entries {
		out[i] = faqResponse{ID: e.Id, Question: e.Question, Answer: e.Answer, Category: e.Category}
	}
	return c.JSON(http.StatusOK, out)
}
