package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"

	"craftmarket/internal/adapter/api"
	"craftmarket/internal/adapter/api/handler"
	apimiddleware "craftmarket/internal/adapter/api/middleware"
	"craftmarket/internal/adapter/api/router"
	"craftmarket/internal/adapter/repository"
	"craftmarket/internal/infrastructure/firebase"
	"craftmarket/internal/infrastructure/ratelimit"
	"craftmarket/internal/infrastructure/websocket"
	"craftmarket/internal/usecase"
	"craftmarket/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if cfg.ServiceAccountPath != "" {
		if _, err := os.Stat(cfg.ServiceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", cfg.ServiceAccountPath)
		}
		log.Printf("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
		opts = append(opts, option.WithCredentialsFile(cfg.ServiceAccountPath))
	} else if !cfg.IsDevelopment() {
		log.Fatalf("No Firebase credentials configured")
	}

	var fbAuthClient *fbauth.Client
	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		if !cfg.IsDevelopment() {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		log.Printf("Firebase unavailable, dev tokens only: %v", err)
	} else {
		fbAuthClient, err = firebaseApp.Auth(ctx)
		if err != nil {
			if !cfg.IsDevelopment() {
				log.Fatalf("Failed to initialize Firebase Auth: %v", err)
			}
			log.Printf("Firebase Auth unavailable, dev tokens only: %v", err)
		}
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	roomRepo := repository.NewFirestoreRoomRepository(firestoreClient)
	messageRepo := repository.NewFirestoreMessageRepository(firestoreClient)
	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	productRepo := repository.NewFirestoreProductRepository(firestoreClient)

	authClient := firebase.NewAuthClient(fbAuthClient, cfg.DevTokenSecret, cfg.IsDevelopment())

	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanup(ctx)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	roomUseCase := usecase.NewRoomUseCase(roomRepo, productRepo, userRepo, rateLimiter)
	messageUseCase := usecase.NewMessageUseCase(messageRepo, roomRepo, userRepo, roomUseCase, wsManager, rateLimiter)
	wsManager.BindService(messageUseCase)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)

	roomHandler := handler.NewRoomHandler(roomUseCase)
	messageHandler := handler.NewMessageHandler(messageUseCase, cfg.HistoryPageSize)
	wsHandler := handler.NewWebSocketHandler(wsManager, authClient)
	healthHandler := handler.NewHealthHandler()

	router.Setup(e, authMiddleware, roomHandler, messageHandler, wsHandler, healthHandler)

	if cfg.IsDevelopment() {
		router.SetupDevRouter(e, handler.NewDevTokenHandler(authClient))
	}

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
