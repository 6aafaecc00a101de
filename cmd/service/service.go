// @title        Lab Equipment Inventory API
// @version      1.0
// @description  實驗室設備管理系統的後端 API 文件
// @host         localhost:3000
// @BasePath     /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lab-inventory/internal/api"
	"lab-inventory/internal/cache"
	"lab-inventory/internal/config"
	"lab-inventory/internal/database"
	"lab-inventory/internal/handler/users"
	"lab-inventory/internal/logger"
	"lab-inventory/internal/middleware"
	"lab-inventory/internal/router"
	"lab-inventory/internal/service"
	"lab-inventory/internal/uploads"
	"lab-inventory/internal/worker"
	"lab-inventory/web"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "lab-inventory/docs" // 引入 swag 產出的 docs

	echoSwagger "github.com/swaggo/echo-swagger"
)

const shutdownTimeout = 10 * time.Second

var (
	loadConfig      = config.Load
	newLogger       = logger.New
	openDB          = database.NewSQLite
	runMigrationsFn = database.RunMigrations
	ensureAdmin     = service.EnsureAdmin
	newCache        = cache.New
	newUploads      = uploads.New
	newWorkerPool   = worker.NewPool
	webFS           = web.FS
	notifyContext   = signal.NotifyContext
	startServer     = func(e *echo.Echo, addr string) error { return e.Start(addr) }
	exitFunc        = os.Exit
)

func newEcho(log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	return e
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("設定載入失敗: %w", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	logg, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logg.Sync()
	if cfg.BaseURL == "" {
		logg.Warn("BASE_URL not set; setup links fall back to the request Host header")
	}

	ctx, stop := notifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("DB 連線失敗: %w", err)
	}
	defer db.Close()

	if err := runMigrationsFn(db); err != nil {
		return fmt.Errorf("Migration 執行失敗: %w", err)
	}
	if _, err := ensureAdmin(ctx, db, cfg.AdminEmail, cfg.AdminPassword, logg); err != nil {
		return fmt.Errorf("建立預設管理員失敗: %w", err)
	}

	revoked, err := newCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("Redis 連線失敗: %w", err)
	}
	defer revoked.Close()

	tokens, err := service.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	images, err := newUploads(cfg.UploadsDir)
	if err != nil {
		return fmt.Errorf("uploads 目錄無法使用: %w", err)
	}
	webFiles, err := webFS(cfg.WebDir)
	if err != nil {
		return fmt.Errorf("前端頁面載入失敗: %w", err)
	}

	wp := newWorkerPool(cfg.WorkerCount, logg)
	defer wp.Stop()

	mailer := service.NewMailer(service.MailConfig{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		Username:    cfg.SMTPUser,
		Password:    cfg.SMTPPass,
		From:        cfg.FromEmail,
		SystemName:  cfg.EmailSystemName,
		CompanyName: cfg.EmailCompanyName,
	}, logg)

	e := newEcho(logg)
	router.Setup(e, router.Deps{
		DB:     db,
		Cache:  revoked,
		Tokens: tokens,
		Images: images,
		Invites: &users.Invites{
			Pool:    wp,
			Mailer:  mailer,
			TTL:     cfg.SetupTokenTTL,
			BaseURL: cfg.PublicBaseURL,
			Log:     logg,
		},
		BackupDir: cfg.BackupDir,
		Web:       webFiles,
		Log:       logg,
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// 伺服器結束或收到訊號時都會觸發關閉
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		logg.Info("server starting", zap.String("addr", cfg.ServerAddr))
		if err := startServer(e, cfg.ServerAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()
		logg.Info("server shutting down")
		return e.Shutdown(sctx)
	})
	return g.Wait()
}

func main() {
	if err := run(); err != nil {
		log.Print(err)
		exitFunc(1)
	}
}
