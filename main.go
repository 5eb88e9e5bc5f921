package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/stationlab/weatherapi/config"
	"github.com/stationlab/weatherapi/database"
	"github.com/stationlab/weatherapi/routes"
	"github.com/stationlab/weatherapi/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBTimeout)
	db, err := database.Connect(ctx, cfg.MongoURI, cfg.DatabaseName)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.Println("mongo disconnect:", err)
		}
	}()

	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Fatal(err)
	}
	if cfg.SeedTeacherEmail != "" {
		if err := utils.SeedTeacherUser(ctx, db.OpenCollection(database.UsersCollection), cfg.SeedTeacherEmail, cfg.SeedTeacherPassword); err != nil {
			log.Fatal(err)
		}
	}
	cancel()

	r := routes.NewRouter(routes.Dependencies{
		Users:          database.NewMongoUserStore(db),
		Readings:       database.NewMongoReadingStore(db),
		Changelog:      database.NewMongoChangelog(db),
		AuthHeader:     cfg.AuthHeader,
		AllowedOrigins: cfg.AllowedOrigins,
		Limits:         utils.QueryLimits{Max: cfg.MaxQueryLimit, Default: cfg.DefaultQueryLimit},
	})

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
