package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag"

	"github.com/dotcommander/awsknow/internal/errs"
	"github.com/dotcommander/awsknow/internal/log"
)

const (
	noPrompt            = "No prompt provided"
	modelNotInitialized = "Bedrock model not initialized"
)

// PromptRequest is the body of POST /knowledge.
type PromptRequest struct {
	Prompt string `json:"prompt"`
}

// Problem is the body of every error response.
type Problem struct {
	Detail string `json:"detail"`
}

// Health is the body of a healthy GET /health.
type Health struct {
	Status       string `json:"status"`
	BedrockModel string `json:"bedrock_model"`
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, s.rt.Info())
}

func (s *Server) health(c *gin.Context) {
	if !s.rt.ModelReady() {
		c.JSON(http.StatusServiceUnavailable, Problem{Detail: modelNotInitialized})
		return
	}
	c.JSON(http.StatusOK, Health{Status: "healthy", BedrockModel: "initialized"})
}

func (s *Server) knowledge(c *gin.Context) {
	var req PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Prompt == "" {
		c.JSON(http.StatusBadRequest, Problem{Detail: noPrompt})
		return
	}
	if !s.rt.ModelReady() {
		c.JSON(http.StatusInternalServerError, Problem{Detail: modelNotInitialized})
		return
	}

	answer, err := s.rt.agents().Run(c.Request.Context(), req.Prompt)
	if err != nil {
		log.Errorf("request %s: %s error: %v", c.GetString(requestIDKey), errs.KindOf(err), err)
		c.JSON(http.StatusInternalServerError, Problem{Detail: err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(answer))
}

func (s *Server) openAPI(c *gin.Context) {
	doc, err := swag.ReadDoc()
	if err != nil {
		c.JSON(http.StatusInternalServerError, Problem{Detail: err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}
