package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nas11ai/tugas-akhir-sub000/internal/domain"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	report := s.health.Check(c.Request.Context())
	status := http.StatusOK
	if !report.OK {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

func (s *Server) handleGetPhoto(c *gin.Context) {
	if s.blobs == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Code: "unavailable", Message: "blob store not configured"})
		return
	}
	s.serveBlob(c, s.blobs.GetPhoto)
}

func (s *Server) handleGetSignature(c *gin.Context) {
	if s.blobs == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Code: "unavailable", Message: "blob store not configured"})
		return
	}
	s.serveBlob(c, s.blobs.GetSignature)
}

func (s *Server) serveBlob(c *gin.Context, get func(ref string) ([]byte, error)) {
	data, err := get(c.Param("filename"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse{Code: "not_found", Message: "file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse{Code: "internal", Message: err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

func (s *Server) handleListPins(c *gin.Context) {
	if s.cluster == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Code: "unavailable", Message: "cluster client not configured"})
		return
	}
	pins, err := s.cluster.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, errorResponse{Code: "cluster_error", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, pins)
}

func (s *Server) handlePinStatus(c *gin.Context) {
	if s.cluster == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Code: "unavailable", Message: "cluster client not configured"})
		return
	}
	status, err := s.cluster.Status(c.Request.Context(), c.Param("cid"))
	if err != nil {
		c.JSON(http.StatusBadGateway, errorResponse{Code: "cluster_error", Message: err.Error()})
		return
	}
	if status == nil {
		c.JSON(http.StatusNotFound, errorResponse{Code: "not_found", Message: "pin not found"})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleRecoverPin(c *gin.Context) {
	if s.cluster == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Code: "unavailable", Message: "cluster client not configured"})
		return
	}
	recovered := s.cluster.Recover(c.Request.Context(), c.Param("cid"))
	c.JSON(http.StatusOK, gin.H{"cid": c.Param("cid"), "recovered": recovered})
}

func (s *Server) handleAllocations(c *gin.Context) {
	if s.cluster == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Code: "unavailable", Message: "cluster client not configured"})
		return
	}
	allocations, err := s.cluster.Allocations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, errorResponse{Code: "cluster_error", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, allocations)
}

func (s *Server) handlePeers(c *gin.Context) {
	if s.cluster == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Code: "unavailable", Message: "cluster client not configured"})
		return
	}
	peers, err := s.cluster.Peers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, errorResponse{Code: "cluster_error", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, peers)
}

func (s *Server) handleAlerts(c *gin.Context) {
	if s.cluster == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Code: "unavailable", Message: "cluster client not configured"})
		return
	}
	alerts, err := s.cluster.HealthAlerts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, errorResponse{Code: "cluster_error", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (s *Server) handleListOrphans(c *gin.Context) {
	if s.orphans == nil {
		c.JSON(http.StatusOK, []domain.OrphanedArtifact{})
		return
	}
	artifacts, err := s.orphans.ListUnresolved(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Code: "internal", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, artifacts)
}

func (s *Server) handleListCertificates(c *gin.Context) {
	if s.certificates == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Code: "unavailable", Message: "certificate service not configured"})
		return
	}
	records, err := s.certificates.GetAll(c.Request.Context(), s.cfg.IssuerOrg, callerToken(c))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleGetCertificate(c *gin.Context) {
	if s.certificates == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Code: "unavailable", Message: "certificate service not configured"})
		return
	}
	record, err := s.certificates.Get(c.Request.Context(), s.cfg.IssuerOrg, callerToken(c), c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) handleActiveSignature(c *gin.Context) {
	if s.signatures == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Code: "unavailable", Message: "signature service not configured"})
		return
	}
	sig, err := s.signatures.GetActive(c.Request.Context(), s.cfg.SignerOrg, callerToken(c))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, sig)
}

func (s *Server) handleFindByNIM(c *gin.Context) {
	if s.certificates == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Code: "unavailable", Message: "certificate service not configured"})
		return
	}
	entry, err := s.certificates.FindByNIM(c.Request.Context(), c.Param("nim"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Code: "not_found", Message: err.Error()})
	case errors.Is(err, domain.ErrAccessDenied):
		c.JSON(http.StatusForbidden, errorResponse{Code: "access_denied", Message: err.Error()})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, errorResponse{Code: "validation_failure", Message: err.Error()})
	case errors.Is(err, domain.ErrAdminTokenUnavailable):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Code: "token_unavailable", Message: err.Error()})
	default:
		c.JSON(http.StatusBadGateway, errorResponse{Code: "ledger_error", Message: err.Error()})
	}
}

func callerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}

func (s *Server) handleNoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, errorResponse{Code: "not_found", Message: "route not found"})
}
