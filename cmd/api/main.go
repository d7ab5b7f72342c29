package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sjw787/HovverAdminDashboard/internal/config"
	"github.com/sjw787/HovverAdminDashboard/internal/customer"
	"github.com/sjw787/HovverAdminDashboard/internal/identity"
	"github.com/sjw787/HovverAdminDashboard/internal/image"
	"github.com/sjw787/HovverAdminDashboard/internal/logger"
	"github.com/sjw787/HovverAdminDashboard/internal/notify"
	"github.com/sjw787/HovverAdminDashboard/internal/server"
	"github.com/sjw787/HovverAdminDashboard/internal/storage"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.Init()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Cognito.Region))
	if err != nil {
		return err
	}
	cognitoClient := cognitoidentityprovider.NewFromConfig(awsCfg)
	sesClient := sesv2.NewFromConfig(awsCfg)

	storeClient, err := storage.NewMinIOClient(cfg.Storage)
	if err != nil {
		return err
	}
	bootCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := storage.EnsureBucket(bootCtx, storeClient, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
		return err
	}

	verifier, err := identity.NewVerifier(ctx, cfg.Cognito, log)
	if err != nil {
		return err
	}

	mailer, err := notify.NewMailer(sesClient, cfg.Email, log)
	if err != nil {
		return err
	}

	identityService := identity.NewService(cognitoClient, cfg.Cognito.ClientID)
	customerService := customer.NewService(cognitoClient, mailer, cfg.Cognito.UserPoolID, cfg.Cognito.CustomerGroup, log)
	imageService := image.NewService(
		image.NewMinIOStore(storeClient, cfg.Storage.Bucket),
		cfg.Storage.Bucket,
		cfg.Upload,
		cfg.Storage.PresignExpiry,
		log,
	)

	router := server.NewRouter(server.Deps{
		Config:      cfg,
		Verifier:    verifier,
		Identity:    identityService,
		Customers:   customerService,
		Images:      imageService,
		StoreClient: storeClient,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("address", srv.Addr),
			zap.String("environment", cfg.App.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}
