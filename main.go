package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"greenhouseauto/config"
	"greenhouseauto/controllers"
	"greenhouseauto/middleware"
	"greenhouseauto/models"
	"greenhouseauto/services"
	"greenhouseauto/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	cfg := config.GetAppConfig()
	automation := services.NewAutomationService(cfg)

	if path := os.Getenv("FIELD_MAPPING_FILE"); path != "" {
		mapping, err := config.LoadFieldMapping(path)
		if err != nil {
			log.Fatalf("Bad field mapping override: %v", err)
		}
		log.Printf("Using field mapping override from %s", path)
		automation.UseFieldMapping(mapping)
	}

	if len(os.Args) > 1 && os.Args[1] == "serve" {
		runServer(cfg, automation)
		return
	}
	runCLI(automation)
}

// runCLI runs one application from a JSON file argument or stdin and prints
// the result. Exit code 0 only for a submitted application.
func runCLI(automation *services.AutomationService) {
	var input *models.ApplicationInput
	var err error

	if len(os.Args) > 1 {
		f, openErr := os.Open(os.Args[1])
		if openErr != nil {
			log.Fatalf("Could not open input file: %v", openErr)
		}
		defer f.Close()
		input, err = models.ParseApplicationInput(f)
	} else {
		fmt.Fprintln(os.Stderr, "Usage: greenhouseauto <input.json> | greenhouseauto serve")
		fmt.Fprintln(os.Stderr, "Reading application input from stdin...")
		input, err = models.ParseApplicationInput(os.Stdin)
	}
	if err != nil {
		log.Fatalf("Could not parse input: %v", err)
	}

	result := automation.Run(input)

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))

	if !result.Succeeded() {
		os.Exit(1)
	}
}

// runServer exposes the automation over HTTP.
func runServer(cfg config.AppConfig, automation *services.AutomationService) {
	r := gin.Default()
	r.Use(cors.Default())

	// One application run holds a browser for minutes; keep the limit tight.
	rl := middleware.NewRateLimiter(2, 5*time.Minute)

	applyController := controllers.NewApplyController(automation)
	r.POST("/api/applications/apply", rl.Limit(), applyController.Apply)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	utils.LogInfo("Starting server", map[string]string{"port": cfg.Port})
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
