package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/kevinbrinsly07/projectmanager/internal/config"
	"github.com/kevinbrinsly07/projectmanager/internal/database"
	"github.com/kevinbrinsly07/projectmanager/internal/handlers"
	"github.com/kevinbrinsly07/projectmanager/internal/middleware"
	"github.com/kevinbrinsly07/projectmanager/internal/models"
	"github.com/kevinbrinsly07/projectmanager/internal/monitoring"
	"github.com/kevinbrinsly07/projectmanager/internal/repositories"
	"github.com/kevinbrinsly07/projectmanager/internal/services"
	"github.com/kevinbrinsly07/projectmanager/internal/storage"
	"github.com/kevinbrinsly07/projectmanager/internal/worker"
)

// Application holds all application dependencies and state
type Application struct {
	Config *config.Config
	DB     *database.DatabasePool
	Redis  *redis.Client
	Worker *worker.Worker
	Router *gin.Engine
	Server *http.Server

	// Services
	AuthService         services.AuthService
	RegisterService     services.RegisterService
	UserService         services.UserService
	AuthzService        services.AuthorizationService
	NotificationService services.NotificationService
	ProjectService      services.ProjectService
	ListService         services.ListService
	TaskService         services.TaskService
	CommentService      services.CommentService
	AttachmentService   services.AttachmentService
	TimeLogService      services.TimeLogService
	StatsService        services.StatsService
	SearchService       services.SearchService
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize application: %v", err)
	}

	app.setupRoutes()
	app.startServer()
}

func initializeApplication(cfg *config.Config) (*Application, error) {
	app := &Application{Config: cfg}

	log.Println("🚀 Initializing Project Manager Backend...")
	log.Printf("📋 Environment: %s", cfg.Server.Environment)

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	app.DB = pool

	migrationConfig := &repositories.MigrationConfig{
		MigrationsPath: "file://migrations",
		DBName:         cfg.Database.Name,
		MaxRetries:     3,
		RetryDelay:     2 * time.Second,
	}
	if err := repositories.RunMigrations(pool.DB, migrationConfig); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("⚠️  Redis unavailable: %v (notifications stay database-only)", err)
		} else {
			app.Redis = redisClient
			log.Println("✅ Redis connected")
		}
	}

	// Email mirroring runs as a background worker when redis is available.
	// Notifications themselves always land in the database.
	var jobQueue *worker.JobQueue
	if app.Redis != nil {
		jobQueue = worker.NewJobQueue(app.Redis)

		app.Worker = worker.NewWorker(worker.WorkerConfig{
			RedisClient:  app.Redis,
			Concurrency:  2,
			PollInterval: time.Second,
			Queues:       []string{services.EmailQueue, worker.RetryQueue},
		})
		app.Worker.RegisterHandler(worker.JobTypeEmailNotification, handleEmailNotification)
		app.Worker.Start(2)
		log.Println("✅ Notification worker started")
	}

	blobs, err := storage.NewDiskStore(cfg.Uploads.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare uploads directory: %w", err)
	}

	app.AuthzService = services.NewAuthorizationService(pool.DB)
	app.AuthService = services.NewAuthService(cfg.JWT)
	app.RegisterService = services.NewRegisterService()
	app.UserService = services.NewUserService()
	app.NotificationService = services.NewNotificationService(jobQueue)
	app.ProjectService = services.NewProjectService(app.AuthzService, app.NotificationService)
	app.ListService = services.NewListService(app.AuthzService)
	app.TaskService = services.NewTaskService(app.AuthzService, app.NotificationService)
	app.CommentService = services.NewCommentService(app.AuthzService)
	app.AttachmentService = services.NewAttachmentService(app.AuthzService, blobs)
	app.TimeLogService = services.NewTimeLogService(app.AuthzService)
	app.StatsService = services.NewStatsService(app.AuthzService)
	app.SearchService = services.NewSearchService(app.AuthzService)

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if _, err := services.SeedAdmin(pool.DB, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return nil, fmt.Errorf("failed to seed admin account: %w", err)
		}
		log.Printf("✅ Admin account ensured for %s", cfg.Admin.Email)
	}

	monitoring.RegisterHealthCheck("database", func(ctx context.Context) error {
		return pool.Health()
	})
	if app.Redis != nil {
		monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		})
	}

	log.Println("✅ All services initialized")

	return app, nil
}

// handleEmailNotification is the worker-side mirror of a persisted
// notification. There is no SMTP hookup yet, so delivery is a log line.
func handleEmailNotification(ctx context.Context, job *worker.Job) error {
	log.Printf("📧 email notification for user %v: %v", job.Payload["user_id"], job.Payload["message"])
	return nil
}

func (app *Application) setupRoutes() {
	r := gin.New()

	// Global middleware stack (order matters!)
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(monitoring.MetricsMiddleware())
	r.Use(middleware.RecoveryWithLog())
	r.Use(middleware.SecureHeader())

	rateLimit := rate.Limit(float64(app.Config.RateLimit.RequestsPerMin) / 60.0)
	r.Use(middleware.RateLimiter(rateLimit, app.Config.RateLimit.BurstSize))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://host.docker.internal"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health and monitoring endpoints (no auth required)
	r.GET("/health", monitoring.HealthHandler())
	r.GET("/ready", monitoring.ReadinessHandler())
	r.GET("/live", monitoring.LivenessHandler())
	r.GET("/metrics", monitoring.MetricsHandler())

	db := app.DB.DB

	authHandler := handlers.NewAuthHandler(db, app.AuthService)
	registerHandler := handlers.NewRegisterHandler(db, app.RegisterService)
	userHandler := handlers.NewUserHandler(db, app.UserService)
	projectHandler := handlers.NewProjectHandler(db, app.ProjectService, app.StatsService)
	listHandler := handlers.NewListHandler(db, app.ListService)
	taskHandler := handlers.NewTaskHandler(db, app.TaskService)
	commentHandler := handlers.NewCommentHandler(db, app.CommentService)
	attachmentHandler := handlers.NewAttachmentHandler(db, app.AttachmentService, app.Config.Uploads.MaxFileSize)
	timeLogHandler := handlers.NewTimeLogHandler(db, app.TimeLogService)
	notificationHandler := handlers.NewNotificationHandler(db, app.NotificationService)
	searchHandler := handlers.NewSearchHandler(db, app.SearchService)
	adminHandler := handlers.NewAdminHandler(db, app.UserService, app.ProjectService)

	v1 := r.Group("/api/v1")

	// Public authentication routes (no auth required)
	authRoutes := v1.Group("/auth")
	if app.Redis != nil {
		limiter := middleware.NewDistributedRateLimiter(app.Redis)
		authRoutes.Use(limiter.CreateMiddleware("auth", &middleware.RateLimit{
			Rate:    app.Config.RateLimit.AuthPerMinute,
			Window:  time.Minute,
			KeyFunc: middleware.IPKeyFunc,
		}))
	}
	{
		authRoutes.POST("/register", registerHandler.Registration)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.Refresh)
		authRoutes.POST("/logout", authHandler.Logout)
	}

	// Protected routes (require authentication)
	protected := v1.Group("")
	protected.Use(middleware.Authenticate(db, app.AuthService))
	{
		userRoutes := protected.Group("/users")
		{
			userRoutes.GET("", userHandler.GetUsers)
			userRoutes.GET("/profile", userHandler.GetProfile)
			userRoutes.PUT("/profile", userHandler.UpdateProfile)
			userRoutes.GET("/:user_id/tasks", taskHandler.GetTasksByUser)
		}

		projectRoutes := protected.Group("/projects")
		{
			projectRoutes.GET("", projectHandler.GetProjects)
			projectRoutes.POST("", projectHandler.CreateProject)
			projectRoutes.GET("/:id", projectHandler.GetProjectByID)
			projectRoutes.PUT("/:id", projectHandler.UpdateProject)
			projectRoutes.DELETE("/:id", projectHandler.DeleteProject)
		}

		listRoutes := protected.Group("/lists")
		{
			listRoutes.GET("/project/:projectId", listHandler.GetListsByProject)
			listRoutes.POST("", listHandler.CreateList)
			listRoutes.PUT("/:id", listHandler.UpdateList)
			listRoutes.DELETE("/:id", listHandler.DeleteList)
		}

		taskRoutes := protected.Group("/tasks")
		{
			taskRoutes.GET("/project/:projectId", taskHandler.GetTasksByProject)
			taskRoutes.POST("", taskHandler.CreateTask)
			taskRoutes.GET("/:id", taskHandler.GetTaskByID)
			taskRoutes.PUT("/:id", taskHandler.UpdateTask)
			taskRoutes.DELETE("/:id", taskHandler.DeleteTask)
		}

		commentRoutes := protected.Group("/comments")
		{
			commentRoutes.GET("/task/:taskId", commentHandler.GetCommentsByTask)
			commentRoutes.POST("", commentHandler.CreateComment)
			commentRoutes.DELETE("/:id", commentHandler.DeleteComment)
		}

		attachmentRoutes := protected.Group("/attachments")
		{
			attachmentRoutes.GET("/task/:taskId", attachmentHandler.GetAttachmentsByTask)
			attachmentRoutes.POST("", attachmentHandler.UploadAttachment)
			attachmentRoutes.GET("/:id/download", attachmentHandler.DownloadAttachment)
			attachmentRoutes.DELETE("/:id", attachmentHandler.DeleteAttachment)
		}

		timeLogRoutes := protected.Group("/timelogs")
		{
			timeLogRoutes.GET("/task/:taskId", timeLogHandler.GetLogsByTask)
			timeLogRoutes.POST("/start", timeLogHandler.StartLog)
			timeLogRoutes.PUT("/stop/:id", timeLogHandler.StopLog)
		}

		protected.GET("/notifications", notificationHandler.GetMyNotifications)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		protected.GET("/stats/project/:projectId", projectHandler.GetProjectStats)
		protected.GET("/search", searchHandler.Search)

		adminRoutes := protected.Group("/admin")
		adminRoutes.Use(middleware.RequireRoles(models.RoleAdmin))
		{
			adminRoutes.GET("/users", adminHandler.GetUsers)
			adminRoutes.PUT("/users/:id/role", adminHandler.UpdateUserRole)
			adminRoutes.DELETE("/users/:id", adminHandler.DeleteUser)
			adminRoutes.GET("/projects", adminHandler.GetProjects)
			adminRoutes.DELETE("/projects/:id", adminHandler.DeleteProject)
			adminRoutes.PUT("/projects/:id/members", adminHandler.ReplaceProjectMembers)
		}
	}

	app.Router = r
}

func (app *Application) startServer() {
	addr := app.Config.GetServerAddr()

	app.Server = &http.Server{
		Addr:         addr,
		Handler:      app.Router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("🛑 Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.Server.Shutdown(ctx); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}

		app.cleanup()
		log.Println("✅ Server stopped gracefully")
	}()

	log.Printf("🚀 Server starting on %s", addr)
	log.Printf("📊 Metrics available at http://%s/metrics", addr)
	log.Printf("💚 Health check at http://%s/health", addr)

	if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}

func (app *Application) cleanup() {
	log.Println("🧹 Cleaning up resources...")

	if app.Worker != nil {
		app.Worker.Stop()
	}

	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			log.Printf("⚠️  Error closing Redis: %v", err)
		}
	}

	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			log.Printf("⚠️  Error closing database: %v", err)
		}
	}

	log.Println("✅ Cleanup complete")
}
