// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/teradata-labs/insight/pkg/reports"
)

const readinessTimeout = 5 * time.Second

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// handleReady reports ready once the warehouse answers a ping.
func (s *Server) handleReady(c *gin.Context) {
	if s.backend == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()
	if err := s.backend.Ping(ctx); err != nil {
		abortWithError(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "warehouse": s.backend.Name()})
}

func (s *Server) handleTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tools":          s.agent.Tools(),
		"max_iterations": s.agent.MaxIterations(),
	})
}

func (s *Server) handleReportKinds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reports": reports.Kinds()})
}

func (s *Server) handleReport(c *gin.Context) {
	if s.reports == nil {
		abortWithError(c, http.StatusServiceUnavailable, errors.New("reports are not configured"))
		return
	}
	kind := reports.Kind(c.Param("kind"))
	if !slices.Contains(reports.Kinds(), kind) {
		abortWithError(c, http.StatusNotFound, reports.ErrUnknownReport)
		return
	}
	params, err := reports.ParseParams(c.Request.URL.Query())
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	rep, err := s.reports.Run(c.Request.Context(), kind, params)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, rep)
	case errors.Is(err, reports.ErrInvalidParams):
		abortWithError(c, http.StatusBadRequest, err)
	case errors.Is(err, reports.ErrUnknownReport):
		abortWithError(c, http.StatusNotFound, err)
	default:
		abortWithError(c, http.StatusBadGateway, err)
	}
}
