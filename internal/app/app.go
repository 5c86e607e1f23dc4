package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pairhabit/nudged/internal/config"
	"github.com/pairhabit/nudged/internal/db"
	internalapi "github.com/pairhabit/nudged/internal/http/api"
	"github.com/pairhabit/nudged/internal/nudge"
	"github.com/pairhabit/nudged/internal/pairing"
	"github.com/pairhabit/nudged/internal/push"
	"github.com/pairhabit/nudged/internal/ratelimit"

	log "github.com/sirupsen/logrus"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	_ = ctx
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the nudge dispatch server with database-backed components.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	jwtConfig, _ := config.LoadJWTConfig(configPath)
	pushConfig := config.LoadPushConfig(configPath)

	limiter := ratelimit.NewManager(
		ratelimit.NewStore(conn),
		redisSettingsProvider(configPath),
		nil,
		nil,
	)

	gateway := push.NewClient(pushConfig.Endpoint, nil)
	svc := nudge.NewService(
		conn,
		pairing.NewResolver(conn),
		limiter,
		push.NewDispatcher(gateway, conn),
		nil,
	)

	engine := gin.New()
	engine.Use(gin.Recovery())
	internalapi.RegisterRoutes(engine, conn, jwtConfig, svc)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("nudge dispatch server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			log.WithError(errShutdown).Warn("server shutdown failed")
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}

// redisSettingsProvider re-reads the redis section on each checkpoint so an
// operator can enable or move the guard without a restart.
func redisSettingsProvider(configPath string) ratelimit.SettingsProvider {
	return func() ratelimit.RedisSettings {
		cfg := config.LoadRedisConfig(configPath)
		return ratelimit.RedisSettings{
			Enabled:  cfg.Enabled,
			Addr:     cfg.Addr,
			Password: cfg.Password,
			Prefix:   cfg.Prefix,
			DB:       cfg.DB,
		}
	}
}
