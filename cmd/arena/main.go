package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZJUSCT/arena/internal/api/admin"
	"github.com/ZJUSCT/arena/internal/api/user"
	"github.com/ZJUSCT/arena/internal/catalog"
	"github.com/ZJUSCT/arena/internal/config"
	"github.com/ZJUSCT/arena/internal/database"
	"github.com/ZJUSCT/arena/internal/engine"
	"github.com/ZJUSCT/arena/internal/judger"
	"github.com/ZJUSCT/arena/internal/ledger"
	"github.com/ZJUSCT/arena/internal/metrics"

	"go.uber.org/zap"
)

var Version = "dev-build"

func newLogger(cfg config.Logger) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Level == "debug" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	if cfg.File != "" {
		zc.OutputPaths = append(zc.OutputPaths, cfg.File)
		zc.ErrorOutputPaths = append(zc.ErrorOutputPaths, cfg.File)
	}
	return zc.Build()
}

func serve(name string, srv *http.Server) {
	zap.S().Infof("starting %s server at %s", name, srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.S().Fatalf("failed to start %s server: %v", name, err)
	}
}

func main() {

	fmt.Fprintf(os.Stderr, "ZJUSCT Arena %s - Timed Coding Contests\n\n", Version)

	// config
	var configPath string
	flag.StringVar(&configPath, "c", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// logger
	logger, err := newLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if cfg.Auth.JWT.Secret == "" {
		zap.S().Fatal("auth.jwt.secret is not set (config or ARENA_JWT_SECRET)")
	}

	// database
	db, err := database.Init(cfg.Storage)
	if err != nil {
		zap.S().Fatalf("failed to initialize database: %v", err)
	}
	zap.S().Infof("database initialized successfully (%s)", cfg.Storage.Driver)

	// problems
	problems, err := catalog.Load(cfg.ProblemsRoot)
	if err != nil {
		zap.S().Fatalf("failed to load problems: %v", err)
	}
	zap.S().Infof("loaded %d problems from '%s'", problems.Len(), cfg.ProblemsRoot)

	// judge
	judge, err := judger.NewDockerJudge(cfg.Judge, problems)
	if err != nil {
		zap.S().Fatalf("failed to initialize docker judge: %v", err)
	}
	if err := judge.Recover(context.Background()); err != nil {
		zap.S().Errorf("failed to clean up stale judge containers: %v", err)
	}

	metrics.Register()

	wallets := ledger.New()
	svc := engine.New(db, problems, judge, wallets, engine.WithWriteRetries(cfg.Arena.WriteRetries))
	scheduler := engine.NewScheduler(svc, cfg.Arena.SchedulerInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go scheduler.Run(ctx)

	// API routers
	userServer := &http.Server{Addr: cfg.Listen, Handler: user.NewUserRouter(cfg, db, svc, wallets)}
	go serve("user", userServer)

	var adminServer *http.Server
	if cfg.Admin.Enabled {
		adminServer = &http.Server{Addr: cfg.Admin.Listen, Handler: admin.NewAdminRouter(cfg, db, svc, scheduler, problems, wallets)}
		go serve("admin", adminServer)
	}

	// graceful shutdown
	<-ctx.Done()
	zap.S().Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := userServer.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorf("user server shutdown: %v", err)
	}
	if adminServer != nil {
		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			zap.S().Errorf("admin server shutdown: %v", err)
		}
	}
}
