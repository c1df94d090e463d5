package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	config "github.com/muchiri/planvote-go/config"
	routes "github.com/muchiri/planvote-go/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	r := gin.Default()
	r.Use(cors.Default())

	wf := routes.SetupRoutes(r, cfg)
	defer wf.Wait()

	log.Printf("listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
