package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/classquiz-api/internal/config"
	"github.com/yourusername/classquiz-api/internal/handler"
	"github.com/yourusername/classquiz-api/internal/middleware"
	pgRepo "github.com/yourusername/classquiz-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/classquiz-api/internal/repository/redis"
	"github.com/yourusername/classquiz-api/internal/service"
	"github.com/yourusername/classquiz-api/internal/service/gamegen"
	ws "github.com/yourusername/classquiz-api/internal/websocket"
	"github.com/yourusername/classquiz-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	accountRepo := pgRepo.NewAccountRepo(db)
	classroomRepo := pgRepo.NewClassroomRepo(db)
	bankRepo := pgRepo.NewQuizBankRepo(db)
	gameRepo := pgRepo.NewGameRepo(db)
	gameQuizRepo := pgRepo.NewGameQuizRepo(db)
	recordRepo := pgRepo.NewGameRecordRepo(db)
	historyRepo := pgRepo.NewAnswerHistoryRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Рассыльщик анонсов: почта по конфигурации, иначе заглушка
	var notifier service.Notifier = &service.NoopNotifier{}
	if cfg.Email.Enabled {
		emailNotifier, err := service.NewEmailNotifier(
			cfg.Email.ResendAPIKey,
			cfg.Email.FromAddress,
			accountRepo,
			classroomRepo,
			cacheRepo,
		)
		if err != nil {
			log.Printf("Failed to initialize EmailNotifier: %v", err)
			os.Exit(1)
		}
		notifier = emailNotifier
		log.Println("Почтовые анонсы игр включены")
	}

	// Инициализация WebSocket
	wsHub := ws.NewHub()
	wsManager := ws.NewManager(wsHub)

	// Инициализируем сервисы
	accessPolicy := service.NewAccessPolicy(bankRepo, classroomRepo)
	sampler := gamegen.NewSampler(gamegen.DefaultConfig())
	gameService := service.NewGameService(
		gameRepo, gameQuizRepo, recordRepo, historyRepo, bankRepo,
		accessPolicy, sampler, notifier, wsManager, db,
	)
	bankService := service.NewQuizBankService(bankRepo, accessPolicy)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Инициализируем обработчики
	gameHandler := handler.NewGameHandler(gameService)
	bankHandler := handler.NewQuizBankHandler(bankService)
	wsHandler := handler.NewWSHandler(wsManager, gameService, authMiddleware, cfg.CORS.AllowedOrigins)

	// Инициализируем роутер Gin
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		// Production: не доверять прокси-заголовкам
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		// Development: доверяем localhost
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Проверка живости сервиса
	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := database.GetSQLDB(db)
		if err != nil || sqlDB.Ping() != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"websocket": wsManager.GetMetrics(),
		})
	})

	// Настраиваем маршруты API
	api := router.Group("/api")
	api.Use(authMiddleware.RequireAuth())
	{
		// Банки вопросов
		banks := api.Group("/quiz-banks")
		{
			banks.POST("", bankHandler.CreateBank)
			banks.GET("", bankHandler.ListBanks)
			banks.GET("/mine", bankHandler.ListOwnBanks)

			bankWithID := banks.Group("/:id")
			bankWithID.Use(middleware.ExtractUintParam("id", "bankID"))
			{
				bankWithID.GET("", bankHandler.GetBank)
				bankWithID.PUT("", bankHandler.UpdateBank)
				bankWithID.DELETE("", bankHandler.DeleteBank)
				bankWithID.POST("/quizzes", bankHandler.AddQuizzes)
			}
		}

		// Игры
		games := api.Group("/games")
		{
			games.POST("", gameHandler.CreateGame)
			games.GET("", gameHandler.ListGames)
			games.GET("/history", gameHandler.GetGameHistory)

			gameWithID := games.Group("/:id")
			gameWithID.Use(middleware.ExtractUintParam("id", "gameID"))
			{
				gameWithID.GET("", gameHandler.GetGame)
				gameWithID.DELETE("", gameHandler.DeleteGame)
				gameWithID.POST("/start", gameHandler.StartGame)
				gameWithID.POST("/end", gameHandler.EndGame)
				gameWithID.POST("/join", gameHandler.JoinGame)
				gameWithID.GET("/next-quiz", gameHandler.NextQuiz)
				gameWithID.GET("/quizzes", gameHandler.GetQuizzes)
				gameWithID.POST("/answers", gameHandler.AddAnswer)
				gameWithID.POST("/submit", gameHandler.SubmitTest)
				gameWithID.GET("/records", gameHandler.GetRecords)
				gameWithID.GET("/records/me", gameHandler.GetOwnRecord)
				gameWithID.GET("/records/export", gameHandler.ExportRecords)
				gameWithID.GET("/history", gameHandler.GetAnswerHistory)
			}
		}
	}

	// WebSocket маршрут
	router.GET("/ws", wsHandler.HandleConnection)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown с таймаутом
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}
