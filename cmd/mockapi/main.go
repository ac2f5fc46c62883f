package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"wordcheck.org/internal/auth"
	"wordcheck.org/internal/blobs"
	"wordcheck.org/internal/config"
	"wordcheck.org/internal/health"
	"wordcheck.org/internal/httpapi"
	"wordcheck.org/internal/obs"
	"wordcheck.org/internal/records"
	"wordcheck.org/internal/store/pg"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Register metrics and build info.
	obs.Init()
	obs.InitBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openRecords(ctx, cfg.Records)
	if err != nil {
		log.Fatalf("records: %v", err)
	}
	defer closeStore()

	blobStore, err := openBlobs(ctx, cfg.Blobs)
	if err != nil {
		log.Fatalf("blobs: %v", err)
	}

	seeded, err := httpapi.SeedAdmin(ctx, store, cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.Email)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if seeded {
		obs.Info("admin user seeded", map[string]any{"username": cfg.Admin.Username})
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret)
	if err != nil {
		log.Fatalf("issuer: %v", err)
	}

	api := httpapi.New(store, blobStore, issuer,
		httpapi.WithVersion(version),
		httpapi.WithTokenTTL(cfg.TokenTTL),
		httpapi.WithMaxUploadBytes(cfg.MaxUploadBytes),
		httpapi.WithCORSOrigins(cfg.CORSOrigins),
		httpapi.WithLoginRate(cfg.LoginRatePerMin),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	hs := health.NewServer(api)
	grpcSrv := grpc.NewServer()
	hs.Register(grpcSrv)
	go hs.Run(ctx, cfg.ReadinessInterval)

	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		go func() {
			if err := grpcSrv.Serve(lis); err != nil {
				obs.Error("grpc serve", err, nil)
			}
		}()
	}

	obs.Info("mockapi starting", map[string]any{
		"version": version, "addr": cfg.Addr, "grpc_addr": cfg.GRPCAddr,
		"records": cfg.Records.Backend, "blobs": cfg.Blobs.Backend,
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	obs.Info("shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hs.Shutdown()
	_ = srv.Shutdown(shutdownCtx)
	grpcSrv.GracefulStop()
	obs.Info("stopped", nil)
}

func openRecords(ctx context.Context, cfg config.RecordStore) (records.Store, func(), error) {
	if cfg.Backend != "postgres" {
		fs, err := records.NewFileStore(cfg.Path)
		return fs, func() {}, err
	}
	s, err := pg.Open(cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		applied, err := s.Migrate(ctx)
		if err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		obs.Info("migrations applied", map[string]any{"count": len(applied), "names": applied})
	}
	return s, func() { _ = s.Close() }, nil
}

func openBlobs(ctx context.Context, cfg config.BlobStore) (blobs.Store, error) {
	if cfg.Backend == "minio" {
		return blobs.NewMinioStore(ctx, blobs.MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			UseSSL:    cfg.UseSSL,
		})
	}
	return blobs.NewDirStore(cfg.Dir)
}
