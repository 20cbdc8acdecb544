package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	api "github.com/cs-hub/cshub/internal/api/http"
	"github.com/cs-hub/cshub/internal/audit"
	auth "github.com/cs-hub/cshub/internal/auth/middleware"
	"github.com/cs-hub/cshub/internal/config"
	"github.com/cs-hub/cshub/internal/db"
	"github.com/cs-hub/cshub/internal/progress"
	"github.com/cs-hub/cshub/internal/rbac"
	"github.com/cs-hub/cshub/internal/storage"
	"github.com/cs-hub/cshub/internal/worksheet"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}

	wsStore := worksheet.NewSQLStore(dbh, cfg.DBDriver)
	progStore := progress.NewSQLStore(dbh, cfg.DBDriver)
	legacyStore := progress.NewLegacySQLStore(dbh)
	events := audit.NewEventRepo(dbh, "local")

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	provisionCfg := api.ProvisionConfig{
		MaxBatchSize:  cfg.MaxBatchSize,
		StudentDomain: cfg.StudentDomain,
		BcryptCost:    cfg.BcryptCost,
	}
	progressAPI := api.NewProgressAPI(wsStore, progStore, legacyStore, events, logger, cfg.AutosaveInterval)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	if cfg.Mode == config.ModeOnline {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOriginsOnline,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOriginsOffline,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Public surfaces: login and the route-guard decision endpoint
	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))
	r.Get("/session/route", api.SessionRouteHandler(authSvc, dbh))

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		logger.Fatal("blob store", zap.Error(err))
	}
	// assets routes (protected)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, cfg.Mode == config.ModeOffline))
		pr.Route("/assets", func(ar chi.Router) {
			api.MountAssets(ar, bs)
		})
	})

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, cfg.Mode == config.ModeOffline))

		// Classes and rosters (teachers)
		pr.With(rbac.Require(rbac.PermClassCreate)).
			Post("/classes", api.CreateClassHandler(dbh))
		pr.With(rbac.RequireAny(rbac.PermClassView, rbac.PermAssignmentView)).
			Get("/classes", api.ListClassesHandler(dbh))
		pr.With(rbac.RequireAny(rbac.PermClassView, rbac.PermAssignmentView)).
			Get("/classes/{classID}", api.GetClassHandler(dbh))
		pr.With(rbac.Require(rbac.PermStudentsProvision)).
			Post("/classes/{classID}/students:bulk", api.ProvisionStudentsHandler(dbh, events, logger, provisionCfg))
		pr.With(rbac.Require(rbac.PermStudentsRemove)).
			Delete("/classes/{classID}/students/{studentID}", api.RemoveStudentHandler(dbh, events))
		pr.With(rbac.Require(rbac.PermPasswordReset)).
			Post("/classes/{classID}/students/{studentID}/reset-password", api.ResetStudentPasswordHandler(dbh, events, provisionCfg))
		pr.With(rbac.Require(rbac.PermExportCSV)).
			Post("/classes/{classID}/credentials.csv", api.ExportCredentialsCSVHandler(dbh))
		pr.With(rbac.Require(rbac.PermExportCSV)).
			Get("/classes/{classID}/roster.csv", api.ExportRosterCSVHandler(dbh))

		// Worksheets
		pr.With(rbac.Require(rbac.PermWorksheetCreate)).
			Post("/worksheets", api.UploadWorksheetHandler(wsStore))
		pr.With(rbac.Require(rbac.PermWorksheetCreate)).
			Post("/worksheets/legacy", api.UploadLegacyWorksheetHandler(wsStore))
		pr.With(rbac.Require(rbac.PermWorksheetView)).
			Get("/worksheets", api.ListWorksheetsHandler(wsStore))
		pr.With(rbac.Require(rbac.PermWorksheetView)).
			Get("/worksheets/{worksheetID}", api.GetWorksheetHandler(wsStore))

		// Assignments
		pr.With(rbac.Require(rbac.PermAssignmentCreate)).
			Post("/assignments", api.CreateAssignmentHandler(dbh, wsStore, events))
		pr.With(rbac.RequireAny(rbac.PermClassView, rbac.PermAssignmentView)).
			Get("/classes/{classID}/assignments", api.ListClassAssignmentsHandler(dbh, wsStore))
		pr.With(rbac.Require(rbac.PermAssignmentView)).
			Get("/assignments/mine", api.ListMyAssignmentsHandler(wsStore))

		// Worksheet player progress
		pr.With(rbac.RequireAny(rbac.PermProgressViewOwn, rbac.PermProgressViewAll)).
			Get("/worksheets/{worksheetID}/progress", progressAPI.Get)
		pr.With(rbac.Require(rbac.PermProgressSaveOwn)).
			Post("/worksheets/{worksheetID}/progress/answer", progressAPI.Answer)
		pr.With(rbac.Require(rbac.PermProgressSaveOwn)).
			Post("/worksheets/{worksheetID}/progress/read", progressAPI.Read)
		pr.With(rbac.Require(rbac.PermProgressSaveOwn)).
			Post("/worksheets/{worksheetID}/progress/reset", progressAPI.Reset)
		pr.With(rbac.Require(rbac.PermProgressSaveOwn)).
			Post("/worksheets/{worksheetID}/progress/advance", progressAPI.Advance)
		pr.With(rbac.RequireAny(rbac.PermProgressViewOwn, rbac.PermProgressViewAll)).
			Get("/worksheets/{worksheetID}/progress/summary", progressAPI.Summary)
		pr.With(rbac.Require(rbac.PermProgressSaveOwn)).
			Post("/worksheets/{worksheetID}/progress/flush", progressAPI.Flush)

		// Legacy flat worksheets
		pr.With(rbac.Require(rbac.PermProgressSaveOwn)).
			Post("/worksheets/{worksheetID}/legacy", progressAPI.LegacySave)
		pr.With(rbac.Require(rbac.PermProgressSaveOwn)).
			Post("/worksheets/{worksheetID}/legacy/submit", progressAPI.LegacySubmit)

		// Account
		pr.With(rbac.Require(rbac.PermPasswordChange)).
			Post("/users/change-password", api.ChangePasswordHandler(dbh, cfg.BcryptCost))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("mode", string(cfg.Mode)),
			zap.String("db", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	progressAPI.Shutdown(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}
