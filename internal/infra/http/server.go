// Package http hosts the operational surface of the orchestrator:
// health aggregation, locally stored images, cluster introspection,
// and the orphaned-artifact journal. The certificate and signature
// write paths are driven programmatically through the usecase layer,
// not through routes here.
package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/nas11ai/tugas-akhir-sub000/internal/config"
	"github.com/nas11ai/tugas-akhir-sub000/internal/domain"
	"github.com/nas11ai/tugas-akhir-sub000/internal/infra/ipfscluster"
	"github.com/nas11ai/tugas-akhir-sub000/internal/usecase"
)

type Server struct {
	cfg config.Config
	r   *gin.Engine

	health       *usecase.HealthService
	blobs        usecase.BlobStore
	cluster      *ipfscluster.Client
	orphans      domain.OrphanRepository
	certificates *usecase.CertificateService
	signatures   *usecase.SignatureService
	logger       *slog.Logger
}

type ServerDeps struct {
	Health       *usecase.HealthService
	Blobs        usecase.BlobStore
	Cluster      *ipfscluster.Client
	Orphans      domain.OrphanRepository
	Certificates *usecase.CertificateService
	Signatures   *usecase.SignatureService
	Logger       *slog.Logger
}

func NewServer(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:          cfg,
		r:            r,
		health:       deps.Health,
		blobs:        deps.Blobs,
		cluster:      deps.Cluster,
		orphans:      deps.Orphans,
		certificates: deps.Certificates,
		signatures:   deps.Signatures,
		logger:       deps.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.r.GET("/healthz", s.handleHealth)

	files := s.r.Group("/api/files")
	{
		files.GET("/photos/:filename", s.handleGetPhoto)
		files.GET("/signatures/:filename", s.handleGetSignature)
	}

	// Read-only lookups. Write paths are driven through the usecase
	// layer by the embedding application.
	api := s.r.Group("/api")
	{
		api.GET("/ijazah", s.handleListCertificates)
		api.GET("/ijazah/:id", s.handleGetCertificate)
		api.GET("/signatures/active", s.handleActiveSignature)
		api.GET("/mahasiswa/:nim", s.handleFindByNIM)
	}

	ops := s.r.Group("/ops")
	{
		ops.GET("/cluster/pins", s.handleListPins)
		ops.GET("/cluster/pins/:cid", s.handlePinStatus)
		ops.POST("/cluster/pins/:cid/recover", s.handleRecoverPin)
		ops.GET("/cluster/allocations", s.handleAllocations)
		ops.GET("/cluster/peers", s.handlePeers)
		ops.GET("/cluster/alerts", s.handleAlerts)
		ops.GET("/orphans", s.handleListOrphans)
	}

	s.r.NoRoute(s.handleNoRoute)
}

func (s *Server) Run() error {
	return s.r.Run(s.cfg.HTTPAddr)
}
