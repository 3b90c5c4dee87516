// Command importd serves the AI-layout importer over HTTP, so layout
// conversion can run headlessly without the desktop shell.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/chazu/atrium/pkg/importer"
	"github.com/chazu/atrium/pkg/plan"
	"github.com/chazu/atrium/pkg/rooms"
	"github.com/chazu/atrium/pkg/topo"
)

type config struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

func loadConfig() config {
	return config{
		Port:         getEnv("ATRIUM_IMPORTD_PORT", "8090"),
		ReadTimeout:  getEnvAsInt("ATRIUM_IMPORTD_READ_TIMEOUT", 30),
		WriteTimeout: getEnvAsInt("ATRIUM_IMPORTD_WRITE_TIMEOUT", 30),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// importRequest is the POST /import body: the raw AI layout plus the
// real-world site dimensions used for scale calibration.
type importRequest struct {
	Site   importer.Site   `json:"site"`
	Layout json.RawMessage `json:"layout"`
}

// roomsRequest is the POST /rooms body.
type roomsRequest struct {
	Walls     []plan.Wall `json:"walls"`
	Normalize bool        `json:"normalize"`
}

func main() {
	cfg := loadConfig()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "atrium importd",
	})

	app.Use(recover.New())

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready"})
	})

	imp := importer.New(plan.DefaultCatalog())

	app.Post("/import", func(c fiber.Ctx) error {
		var req importRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			log.Printf("[IMPORTD] bad request body: %v", err)
			return c.Status(400).JSON(fiber.Map{"error": "request body must be JSON"})
		}
		if len(req.Layout) == 0 {
			// Allow posting the bare layout without an envelope.
			req.Layout = c.Body()
		}

		layout, err := importer.DecodeLayout(req.Layout)
		if err != nil {
			log.Printf("[IMPORTD] layout rejected: %v", err)
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}

		res, err := imp.Import(layout, req.Site)
		if err != nil {
			log.Printf("[IMPORTD] import failed: %v", err)
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}

		log.Printf("[IMPORTD] imported %d walls, %d rooms, %d warnings",
			len(res.Plan.Walls), len(res.Rooms), len(res.Report.Warnings))
		return c.JSON(res)
	})

	app.Post("/rooms", func(c fiber.Ctx) error {
		var req roomsRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "request body must be JSON"})
		}

		walls := req.Walls
		if req.Normalize {
			walls = topo.Normalize(walls, topo.InteractiveOptions())
		}
		detected := rooms.Detect(walls)

		return c.JSON(fiber.Map{
			"walls": walls,
			"rooms": detected,
		})
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting atrium importd on %s", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
