package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskflow-app/taskflow-sync/config"
	"github.com/taskflow-app/taskflow-sync/internal/auth"
	"github.com/taskflow-app/taskflow-sync/internal/bootstrap"
	"github.com/taskflow-app/taskflow-sync/internal/cache"
	"github.com/taskflow-app/taskflow-sync/internal/notify"
	projrepo "github.com/taskflow-app/taskflow-sync/internal/projects/repository"
	projservice "github.com/taskflow-app/taskflow-sync/internal/projects/service"
	taskrepo "github.com/taskflow-app/taskflow-sync/internal/tasks/repository"
	taskservice "github.com/taskflow-app/taskflow-sync/internal/tasks/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	clients, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
	if err != nil {
		log.Fatalf("initialize firebase: %v", err)
	}
	defer clients.Close()

	redisClient, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("open redis: %v", err)
	}
	defer redisClient.Close()

	projectCache := cache.NewProjectCache(redisClient)
	projects := projservice.New(ctx, projrepo.NewProjectRepository(clients.Firestore), projectCache)
	tasks := taskservice.New(taskrepo.NewTaskRepository(clients.Firestore))

	// Initial load (degrades to the cache when the store is unreachable),
	// then the live subscription takes over as the source of truth.
	projects.Load(ctx)
	stopProjects := projects.Subscribe(ctx)
	defer stopProjects()

	toasts := notify.NewToastCenter()
	sink := notify.NewWebhookSink(cfg.Notify.WebhookURL, redisClient)
	notifier := notify.NewNotifier(tasks, notify.NewDedupeStore(redisClient), sink, toasts)
	tasks.OnChange(notifier.TasksChanged)
	if err := notifier.Start(ctx); err != nil {
		log.Fatalf("start notifier: %v", err)
	}
	defer notifier.Stop()

	router, taskHandler := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "taskflow-sync",
		Version:     cfg.App.Version,
		CORSOrigins: cfg.Server.CORSOrigins,
		AuthClient:  clients.Auth,
		Redis:       redisClient,
		Firestore:   clients.Firestore,
		Projects:    projects,
		Tasks:       tasks,
		Toasts:      toasts,
	})
	defer taskHandler.Close()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
