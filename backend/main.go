package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"pharmapos/m/internal/ai"
	"pharmapos/m/internal/api"
	"pharmapos/m/internal/auth"
	"pharmapos/m/internal/config"
	"pharmapos/m/internal/database"
	"pharmapos/m/internal/kv"
	"pharmapos/m/internal/migrations"
	"pharmapos/m/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseDSN)
	defer db.Close()

	migrations.Run(db)

	store := kv.New(db)
	inventory := storage.NewInventory(store)
	ledger := storage.NewLedger(store)
	engine := storage.NewEngine(store)
	authSvc := auth.New(store, cfg.Secret)
	assistant := ai.New(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiEndpoint)

	handler := api.New(inventory, ledger, engine, authSvc, assistant)

	log.Printf("PharmaPOS server starting on :%s", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
