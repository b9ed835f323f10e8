package main

import (
	"context"
	stderrors "errors"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dashkit/adapters/postgres"
	"dashkit/internal/config"
	"dashkit/internal/dashboard"
	"dashkit/internal/dispatch"
	"dashkit/internal/errors"
	"dashkit/internal/migration"
	"dashkit/ports"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

// initDatabase connects to the fault log database and migrates it
func initDatabase(ctx context.Context, appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to connect to database"))
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}
	log.Printf("[Main] Fault log schema %s ready", migrator.Version())
	return db, nil
}

// pruneFaults deletes expired faults now and then once a day
func pruneFaults(ctx context.Context, repo ports.FaultRepository, days int) error {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		n, err := repo.DeleteOlderThan(ctx, days)
		if err != nil {
			log.Printf("[Main] Fault cleanup failed: %v", err)
		} else if n > 0 {
			log.Printf("[Main] Deleted %d faults older than %d days", n, days)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.Wrapf(err, "server on %s failed", srv.Addr)
	}
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink ports.FaultSink = dispatch.LogSink{}
	var faults ports.FaultRepository
	if appConfig.Database.Enabled() {
		db, err := initDatabase(ctx, appConfig)
		if err != nil {
			log.Fatal("Failed to initialize database:", err)
		}
		defer db.Close()

		repo := postgres.NewFaultRepository(db)
		faults = repo
		sink = dispatch.MultiSink{dispatch.LogSink{}, repo}
	} else {
		log.Println("No DATABASE_URL set, faults are only logged")
	}

	app := dashboard.New(appConfig.Dashboard, dashboard.WithFaultSink(sink))
	if err := app.Download(appConfig.Dashboard.DownloadDir); err != nil {
		log.Fatalf("Failed to set up downloads: %v", err)
	}
	if err := setupDemo(app, appConfig.Dashboard, faults); err != nil {
		log.Fatalf("Failed to set up dashboard: %v", err)
	}

	servers := []*http.Server{{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if appConfig.Profiling.Enabled {
		log.Printf("[Main] Profiling server starting on :%s", appConfig.Profiling.Port)
		servers = append(servers, &http.Server{
			Addr:              ":" + appConfig.Profiling.Port,
			Handler:           http.DefaultServeMux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error { return serve(srv) })
	}
	if faults != nil {
		g.Go(func() error { return pruneFaults(gctx, faults, appConfig.Database.RetentionDays) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		return stderrors.Join(errs...)
	})

	if host, err := dashboardHost(); err == nil {
		log.Printf("[Main] Dashboard %q on http://%s:%s", appConfig.Dashboard.Title, host, appConfig.Server.Port)
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("Dashboard stopped: %v", err)
	}
	log.Println("[Main] Shutdown complete")
}
