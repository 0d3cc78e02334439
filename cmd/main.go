package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dtroode/gophchat-server/internal/api/grpc/health"
	grpcRouter "github.com/dtroode/gophchat-server/internal/api/grpc/router"
	grpcServer "github.com/dtroode/gophchat-server/internal/api/grpc/server"
	httpctx "github.com/dtroode/gophchat-server/internal/api/http/context"
	httpRouter "github.com/dtroode/gophchat-server/internal/api/http/router"
	httpServer "github.com/dtroode/gophchat-server/internal/api/http/server"
	"github.com/dtroode/gophchat-server/internal/cache"
	"github.com/dtroode/gophchat-server/internal/config"
	"github.com/dtroode/gophchat-server/internal/logger"
	"github.com/dtroode/gophchat-server/internal/model"
	"github.com/dtroode/gophchat-server/internal/notify"
	"github.com/dtroode/gophchat-server/internal/password"
	"github.com/dtroode/gophchat-server/internal/repository/memory"
	"github.com/dtroode/gophchat-server/internal/repository/postgres"
	"github.com/dtroode/gophchat-server/internal/server"
	"github.com/dtroode/gophchat-server/internal/service"
	storage "github.com/dtroode/gophchat-server/internal/storage/minio"
	"github.com/dtroode/gophchat-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

type stores struct {
	accounts model.AccountStore
	sessions model.SessionStore
	health   model.HealthChecker
	close    func() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	st, err := openStores(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize credential store", "error", err, "driver", cfg.Database.Driver)
	}
	defer st.close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	passcodes := cache.NewPasscodeCache(redisClient, cfg.OTP.TTL, cfg.OTP.MaxAttempts)

	var notifier model.Notifier
	if cfg.Mail.Host != "" {
		notifier = notify.NewSMTP(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From, cfg.OTP.TTL)
	} else {
		logger.Warn("MAIL_HOST is not set, passcodes are written to the log")
		notifier = notify.NewLog(logger)
	}

	hasher, err := password.NewBcrypt(cfg.Auth.PasswordCost)
	if err != nil {
		logger.Fatal("failed to initialize password hasher", "error", err)
	}
	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.Auth.TokenTTL)

	storageClient, err := storage.Dial(ctx, cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Bucket, cfg.Storage.UseSSL)
	if err != nil {
		logger.Warn("object storage unreachable, avatar routes fail until it recovers", "error", err)
		storageClient, err = storage.Open(cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Bucket, cfg.Storage.UseSSL)
		if err != nil {
			logger.Fatal("failed to initialize storage client", "error", err)
		}
	}

	sessionService := service.NewSessions(st.sessions, tokenManager, logger)
	services := httpRouter.Services{
		Registration: service.NewRegistration(st.accounts, passcodes, notifier, hasher, logger),
		Login:        service.NewLogin(st.accounts, st.sessions, tokenManager, hasher, cfg.Auth.SessionTTL, logger),
		Sessions:     sessionService,
		Profile:      service.NewProfile(st.accounts, storageClient, cfg.Avatar.MaxBytes, logger),
	}

	api := httpRouter.New(services, httpctx.NewManager(), cfg.HTTP.RequestTimeout, cfg.Avatar.MaxBytes, logger)
	apiServer := httpServer.NewHTTPServer(api.Register(), cfg.HTTP.Address)

	reporter := health.NewReporter(map[string]model.HealthChecker{
		"credential-store": st.health,
		"passcode-cache":   passcodes,
		"object-storage":   storageClient,
	}, cfg.GRPC.HealthInterval, logger)
	opsServer := grpcServer.NewGRPCServer(grpcRouter.New(reporter.Server(), logger).Register(), fmt.Sprintf(":%s", cfg.GRPC.Port))

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		service.NewSweeper(st.sessions, cfg.Auth.SessionSweepInterval, logger).Run(ctx)
	}()
	go func() {
		defer wg.Done()
		reporter.Run(ctx)
	}()

	start := func(s model.Server, sl model.SecurityLayer) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}()
	}
	start(apiServer, server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName))
	start(opsServer, server.NewPlainListener())

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, s := range []model.Server{apiServer, opsServer} {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func openStores(ctx context.Context, cfg config.Database) (*stores, error) {
	if cfg.Driver == "memory" {
		db := memory.New()
		return &stores{
			accounts: db.NewAccountRepo(),
			sessions: db.NewSessionRepo(),
			health:   db,
			close:    func() error { return nil },
		}, nil
	}

	conn, err := postgres.NewConnection(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return &stores{
		accounts: postgres.NewAccountRepository(conn.DB),
		sessions: postgres.NewSessionRepository(conn.DB),
		health:   conn,
		close:    conn.Close,
	}, nil
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
