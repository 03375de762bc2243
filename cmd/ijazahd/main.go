package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/nas11ai/tugas-akhir-sub000/internal/config"
	"github.com/nas11ai/tugas-akhir-sub000/internal/domain"
	"github.com/nas11ai/tugas-akhir-sub000/internal/infra/blobstore"
	"github.com/nas11ai/tugas-akhir-sub000/internal/infra/db"
	"github.com/nas11ai/tugas-akhir-sub000/internal/infra/fabric"
	httpinfra "github.com/nas11ai/tugas-akhir-sub000/internal/infra/http"
	"github.com/nas11ai/tugas-akhir-sub000/internal/infra/ipfscluster"
	"github.com/nas11ai/tugas-akhir-sub000/internal/infra/pdf"
	"github.com/nas11ai/tugas-akhir-sub000/internal/infra/policy"
	"github.com/nas11ai/tugas-akhir-sub000/internal/infra/roster"
	"github.com/nas11ai/tugas-akhir-sub000/internal/infra/tokenstore"
	"github.com/nas11ai/tugas-akhir-sub000/internal/usecase"
)

func main() {
	cfg := config.FromEnv()
	logger := newLogger(cfg.LogLevel)
	ctx := context.Background()

	store, err := db.NewStore(cfg, logger)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	var orphans domain.OrphanRepository
	if store.DB != nil {
		orphans = db.NewOrphanRepository(store.DB)
	}

	tokens := tokenstore.NewMemoryStore()
	if cfg.RedisAddr != "" {
		redisTokens, err := tokenstore.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, using in-memory token store", "err", err)
		} else {
			tokens = redisTokens
		}
	}

	ledger := fabric.New(cfg.FabricOrganizations(), tokens, cfg.TokenTTL(), logger)
	ledger.EnrollAdmins(ctx)

	cluster := ipfscluster.New(ipfscluster.Options{
		PrimaryURL:  cfg.ClusterAPIURL,
		FallbackURL: cfg.ClusterFallbackAPIURL,
		GatewayURL:  cfg.IPFSGatewayURL,
		Username:    cfg.ClusterUsername,
		Password:    cfg.ClusterPassword,
		Logger:      logger,
	})
	content := &ipfscluster.ContentAdapter{Client: cluster}

	blobs, err := blobstore.New(cfg.UploadsRoot, logger)
	if err != nil {
		log.Fatalf("failed to init blob store: %v", err)
	}

	access, err := policy.NewEngine(ctx, cfg.IssuerOrg, cfg.SignerOrg)
	if err != nil {
		log.Fatalf("failed to init policy engine: %v", err)
	}

	var holders domain.RosterSource
	if cfg.RosterPath != "" {
		fileRoster, err := roster.LoadFile(cfg.RosterPath)
		if err != nil {
			logger.Warn("roster unavailable", "path", cfg.RosterPath, "err", err)
		} else {
			holders = fileRoster
		}
	}

	certificates := &usecase.CertificateService{
		Ledger:    ledger,
		Admin:     ledger,
		Content:   content,
		Blobs:     blobs,
		Renderer:  pdf.NewRenderer(),
		Access:    access,
		Orphans:   orphans,
		Roster:    holders,
		Channel:   cfg.FabricChannel,
		Chaincode: cfg.FabricChaincode,
		Logger:    logger,
	}
	signatures := &usecase.SignatureService{
		Ledger:    ledger,
		Admin:     ledger,
		Blobs:     blobs,
		Access:    access,
		Channel:   cfg.FabricChannel,
		Chaincode: cfg.FabricChaincode,
		Logger:    logger,
	}
	health := &usecase.HealthService{
		Ledger:  ledger,
		Content: content,
		Blobs:   blobs,
		Logger:  logger,
	}

	srv := httpinfra.NewServer(cfg, httpinfra.ServerDeps{
		Health:       health,
		Blobs:        blobs,
		Cluster:      cluster,
		Orphans:      orphans,
		Certificates: certificates,
		Signatures:   signatures,
		Logger:       logger,
	})
	if err := srv.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
