// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the search agent over HTTP for the local UI.
// It is a thin boundary: request binding, status mapping, and JSON
// rendering. All matching logic stays in the agent package.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ewbaxter/ClinicalTrialAgent/internal/agent"
	"github.com/ewbaxter/ClinicalTrialAgent/pkg/types"
)

// SearchRunner runs one end-to-end search session. *agent.Runner
// implements it; tests supply a stub.
type SearchRunner interface {
	Search(ctx context.Context, patient types.PatientCriteria) (agent.Outcome, error)
}

// Server holds the handlers for the HTTP boundary.
type Server struct {
	runner SearchRunner
}

// New builds a Server around a runner.
func New(runner SearchRunner) *Server {
	return &Server{runner: runner}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.healthz)
	r.POST("/api/search", s.search)

	return r
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// searchResponse is the wire shape for a completed (or partially
// completed) session.
type searchResponse struct {
	State         agent.State         `json:"state"`
	FinalText     string              `json:"final_text,omitempty"`
	Results       []types.MatchResult `json:"results"`
	Steps         []types.AgentStep   `json:"steps"`
	StepsUsed     int                 `json:"steps_used"`
	FailureReason string              `json:"failure_reason,omitempty"`
}

func (s *Server) search(c *gin.Context) {
	var patient types.PatientCriteria
	if err := c.ShouldBindJSON(&patient); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if patient.Gender == "" {
		patient.Gender = types.GenderUnspecified
	}
	if err := patient.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	out, err := s.runner.Search(c.Request.Context(), patient)
	resp := searchResponse{
		State:         out.State,
		FinalText:     out.FinalText,
		Results:       out.Results,
		Steps:         out.Steps,
		StepsUsed:     out.StepsUsed,
		FailureReason: out.FailureReason,
	}
	if resp.Results == nil {
		resp.Results = []types.MatchResult{}
	}
	if resp.Steps == nil {
		resp.Steps = []types.AgentStep{}
	}

	if err != nil {
		// A failed session still carries the partial results and step
		// trace so the UI can show how far the agent got.
		c.JSON(statusFor(err), gin.H{
			"error":   err.Error(),
			"session": resp,
		})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// statusFor maps session failures to HTTP statuses: upstream provider
// trouble is a bad gateway, a spent step budget and everything else is an
// internal error.
func statusFor(err error) int {
	var provider *types.ProviderError
	var network *types.NetworkError
	var timeout *types.TimeoutError
	switch {
	case errors.As(err, &provider), errors.As(err, &network), errors.As(err, &timeout):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
