package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/civicworks/civicconnect/internal/config"
	"github.com/civicworks/civicconnect/internal/database"
	postgresrepo "github.com/civicworks/civicconnect/internal/repository/postgres"
	"github.com/civicworks/civicconnect/internal/service"
	"github.com/civicworks/civicconnect/internal/storage"
	"github.com/civicworks/civicconnect/internal/transport/http/handlers"
)

func main() {
	cfg := config.Load()

	// Database
	if err := database.ApplyMigrations(cfg.MigrationsPath, database.DSN(cfg)); err != nil {
		log.Fatal(err)
	}
	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	// Blob store
	blobs, err := storage.NewDiskStore(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		log.Fatal(err)
	}

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	postRepo := postgresrepo.NewPostRepo(pool)
	tokenRepo := postgresrepo.NewRevokedTokenRepo(pool)

	// Services
	authService := service.NewAuthService(userRepo, tokenRepo, cfg.JWTSecret)
	postService := service.NewPostService(postRepo, blobs)

	// Routes
	router := handlers.NewRouter(cfg, authService, postService)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Starting server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, router))
}
