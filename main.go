package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"k8s.io/klog/v2"

	"github.com/grad-lab/capstone-backend/dao"
	"github.com/grad-lab/capstone-backend/internal"
	"github.com/grad-lab/capstone-backend/internal/handler"
	"github.com/grad-lab/capstone-backend/pkg/alert"
	"github.com/grad-lab/capstone-backend/pkg/config"
	"github.com/grad-lab/capstone-backend/pkg/cronjob"
	"github.com/grad-lab/capstone-backend/pkg/filestore"
)

// @title Capstone Platform API
// @version 1.0.0
// @description This is the API server for the capstone project management platform.
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Log in via /v1/auth/login and fill in 'Bearer ${TOKEN}' to access protected routes
func main() {
	// set global timezone
	time.Local = time.UTC
	// load backend config from file
	backendConfig := config.GetConfig()
	// variable changes in local development
	if gin.Mode() == gin.DebugMode {
		err := godotenv.Load(".debug.env")
		if err != nil {
			panic(err.Error())
		}
		be := os.Getenv("CAPSTONE_BE_PORT")
		if be == "" {
			panic("CAPSTONE_BE_PORT is not set")
		}
		backendConfig.ServerAddr = ":" + be
	}

	// 1. init db and run migrations
	db := dao.GetDB()
	if err := dao.Migrate(db); err != nil {
		klog.Fatalf("unable to migrate database: %v", err)
	}

	// 2. shared dependencies for the handlers
	mailer := alert.NewMailer()
	store := filestore.NewClient(backendConfig.FileStorage.BaseURL, backendConfig.FileStorage.Token)
	registerConfig := &handler.RegisterConfig{
		DB:        db,
		Mailer:    mailer,
		FileStore: store,
	}

	// 3. start the deadline reminder sweeper
	sweeper := cronjob.NewManager(db, mailer)
	if err := sweeper.Start(backendConfig.Workflow.TopicLockSpec); err != nil {
		klog.Fatalf("unable to start deadline sweeper: %v", err)
	}

	// 4. start server
	klog.Info("starting server")
	backend := internal.Register(registerConfig)
	srv := &http.Server{
		Addr:              backendConfig.ServerAddr,
		Handler:           backend.R,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Fatalf("problem running server: %v", err)
		}
	}()

	// 5. wait for shutdown signal, then drain
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	klog.Info("shutting down")
	sweeper.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		klog.Errorf("forced shutdown: %v", err)
	}
}
