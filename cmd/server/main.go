package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/futureaiitofficial/travelconnect-sub000/internal/cache"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/handlers"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/handlers/ws"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/middleware"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/repository"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/service"
	"github.com/futureaiitofficial/travelconnect-sub000/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	app := fiber.New(fiber.Config{
		AppName:   "TravelConnect Messaging",
		BodyLimit: 1 * 1024 * 1024, // message payloads only; media goes straight to object storage
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Initialize database connection
	db, err := repository.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis cache
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}

	redisCache := cache.NewRedisCache(redisAddr, redisPassword, redisDB)
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected successfully")
	}

	unreadCache := cache.NewUnreadCache(redisCache)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Live delivery hub; services publish through it as a pure observer
	hub := ws.NewHub()

	// Initialize services
	userService := service.NewUserService(userRepo)
	conversationService := service.NewConversationService(conversationRepo, messageRepo, userRepo)
	messageService := service.NewMessageService(messageRepo, conversationRepo, hub, unreadCache)
	unreadService := service.NewUnreadService(messageRepo, conversationRepo, unreadCache)

	// Initialize media presigning (best-effort; endpoint returns 503 if missing)
	var media *storage.MediaStorage
	if cfg, err := storage.LoadS3ConfigFromEnv(); err != nil {
		log.Printf("WARNING: media storage not configured: %v", err)
	} else if st, err := storage.NewMediaStorage(cfg); err != nil {
		log.Printf("WARNING: failed to initialize media storage: %v", err)
	} else {
		media = st
		log.Printf("Media storage initialized successfully (bucket=%s)", cfg.Bucket)
	}

	// Initialize handlers
	wsHandler := handlers.NewWebSocketHandler(hub, conversationService, messageService, userService)
	conversationHandler := handlers.NewConversationHandler(conversationService, messageService, unreadCache)
	messageHandler := handlers.NewMessageHandler(messageService, unreadService)
	userHandler := handlers.NewUserHandler(userService)
	mediaHandler := handlers.NewMediaHandler(media)

	// Protected routes
	api := app.Group("/api", middleware.AuthRequired())
	api.Get("/users/search", userHandler.SearchUsers)
	api.Get("/users/:id", userHandler.GetUser)

	api.Get("/conversations", conversationHandler.GetConversations)
	api.Post("/conversations", conversationHandler.CreateConversation)
	api.Get("/conversations/:id", conversationHandler.GetConversation)
	api.Post("/conversations/:id/members", conversationHandler.AddMember)
	api.Delete("/conversations/:id/members/:user_id", conversationHandler.RemoveMember)
	api.Post("/conversations/:id/read", messageHandler.MarkConversationRead)
	api.Post(
		"/conversations/:id/messages",
		limiter.New(limiter.Config{
			Max:        60,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
		}),
		messageHandler.SendMessage,
	)

	api.Put("/messages/:id/read", messageHandler.MarkOneRead)
	api.Delete("/messages/:id", messageHandler.DeleteMessage)
	api.Post("/messages/:id/reactions", messageHandler.AddReaction)
	api.Delete("/messages/:id/reactions", messageHandler.RemoveReaction)

	api.Get("/unread-count", messageHandler.GetUnreadCount)
	api.Post("/media/presign", mediaHandler.PresignUpload)

	// WebSocket route (websocket upgrade needs special handling)
	app.Use(
		"/ws",
		middleware.AuthRequired(),
		func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"sessions": hub.SessionCount(),
		})
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
