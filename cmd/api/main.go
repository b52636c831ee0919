package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/property-registry/internal/api/handlers"
	"github.com/dvloznov/property-registry/internal/api/middleware"
	"github.com/dvloznov/property-registry/internal/config"
	"github.com/dvloznov/property-registry/internal/jobs"
	"github.com/dvloznov/property-registry/internal/jobs/inmemory"
	"github.com/dvloznov/property-registry/internal/localstore"
	"github.com/dvloznov/property-registry/internal/logger"
	"github.com/dvloznov/property-registry/internal/mirror"
	"github.com/dvloznov/property-registry/internal/pipeline"
	"github.com/dvloznov/property-registry/internal/registry"
)

func main() {
	log := logger.New()
	cfg := config.Load()

	port := flag.String("port", cfg.Port, "HTTP server port")
	flag.Parse()
	cfg.Port = *port

	ctx := context.Background()

	local, err := localstore.Open(cfg.DBPath, cfg.Scope)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to open local store")
	}
	defer local.Close()

	var remote *mirror.Mirror
	if cfg.MirrorEnabled() {
		remote, err = mirror.New(ctx, cfg.BQProject, cfg.BQDataset)
		if err != nil {
			log.Warn().Err(err).Msg("Remote mirror unavailable, continuing local-only")
			remote = nil
		} else {
			defer remote.Close()
		}
	} else {
		log.Info().Msg("No BigQuery project configured, running local-only")
	}

	reg := registry.New(local, remote, log)
	reg.Bootstrap(ctx)

	// Job infrastructure. One worker: ingestion mutates the registry
	// and mutations must not overlap.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job *jobs.IngestJob) error {
		log.Info().
			Str("job_id", job.JobID).
			Str("source", job.Source).
			Str("mode", job.Mode).
			Msg("Processing ingest job")

		batch, err := pipeline.Normalize(job.Raw, time.Now())
		if err != nil {
			return err
		}
		return reg.ImportBatch(ctx, batch, registry.ParseMode(job.Mode))
	}

	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Initialize handlers
	ownersHandler := handlers.NewOwnersHandler(reg, log)
	filesHandler := handlers.NewFilesHandler(reg, log)
	noticesHandler := handlers.NewNoticesHandler(reg, log)
	messagesHandler := handlers.NewMessagesHandler(reg, log)
	importsHandler := handlers.NewImportsHandler(reg, jobQueue, cfg.GCSBucket, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/owners", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			ownersHandler.ListOwners(w, r)
		case http.MethodPost:
			ownersHandler.RegisterOwner(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/owners/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		rest := strings.TrimPrefix(r.URL.Path, "/api/owners/")
		if ownerID, ok := strings.CutSuffix(rest, "/status"); ok {
			ownersHandler.SetStatus(w, r, ownerID)
			return
		}
		if rest == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Owner ID is required")
			return
		}
		ownersHandler.UpdateProfile(w, r, rest)
	})

	mux.HandleFunc("/api/files", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			filesHandler.ListFiles(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/notices", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			noticesHandler.ListNotices(w, r)
		case http.MethodPost:
			noticesHandler.CreateNotice(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/messages", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			messagesHandler.ListMessages(w, r)
		case http.MethodPost:
			messagesHandler.SendMessage(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ownersHandler.Login(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ownersHandler.Logout(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/session", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			ownersHandler.CurrentSession(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/imports", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			importsHandler.CreateImport(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			importsHandler.FactoryReset(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		jobsHandler.GetJob(w, r, jobID)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
