package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"postcircle/internal/config"
	"postcircle/internal/database"
	"postcircle/internal/handler"
	"postcircle/internal/queue"
	"postcircle/internal/redis"
	"postcircle/internal/repository"
	"postcircle/internal/service"
	"postcircle/internal/worker"
)

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 3. Connect to Redis (notification stream)
	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer redisClient.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = redisClient.Ping(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	// 4. Repositories
	txManager := repository.NewTxManager(db)
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	postRepo := repository.NewPostRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	// 5. Queue
	publisher := queue.NewPublisher(redisClient.Client)
	consumer := queue.NewConsumer(redisClient.Client)

	// 6. Services
	userService := service.NewUserService(userRepo, txManager)
	authService := service.NewAuthService(refreshTokenRepo, cfg)
	followService := service.NewFollowService(followRepo, txManager, publisher)
	groupService := service.NewGroupService(groupRepo, userRepo, txManager)
	postService := service.NewPostService(postRepo, groupRepo, followRepo, userRepo)
	mailer := service.NewMailClient(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom)

	// 7. Notification workers
	workerHandler := worker.NewHandler(userService, mailer)
	workerCfg := worker.DefaultManagerConfig()
	workerCfg.WorkerCount = cfg.MailWorkers
	manager := worker.NewManager(consumer, workerHandler, workerCfg)
	if err := manager.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start notification workers: %w", err)
	}
	defer manager.Stop()

	// 8. Handlers and router
	router := NewRouter(RouterConfig{
		AuthHandler:   handler.NewAuthHandler(userService, authService),
		UserHandler:   handler.NewUserHandler(userService, followService, groupService),
		FollowHandler: handler.NewFollowHandler(userService, followService),
		GroupHandler:  handler.NewGroupHandler(userService, groupService),
		PostHandler:   handler.NewPostHandler(userService, postService),
		JWTSecret:     cfg.JWTSecret,
	})

	server := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	// 9. Serve until interrupted, then drain
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Printf("Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
