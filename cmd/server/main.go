package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"

	"github.com/captionclash/server/internal/config"
	"github.com/captionclash/server/internal/deck"
	"github.com/captionclash/server/internal/game"
	"github.com/captionclash/server/internal/registry"
	"github.com/captionclash/server/internal/ws"
)

const version = "v1.0.0"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`Caption Clash - multiplayer caption party-game server

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  PORT            Port to listen on (default: 8080)
  ROUNDS          Full judge cycles per game (default: 2)
  EXPORT_ENABLED  Export finished game transcripts to file (default: true)
  EXPORT_FILE     Path for game transcripts (default: ./captionclash-results.txt)

Examples:
  %s              Start server with default settings
  %s --port 3000  Start server on port 3000
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Caption Clash %s\n", version)
		return
	}

	// best-effort local .env
	_ = godotenv.Load()

	cfg := config.FromEnv()

	port := *portFlag
	if port == "" {
		port = cfg.Port
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		zerologlog.Info().Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
	})

	reg := registry.New(
		game.SessionConfig{Rounds: cfg.Rounds},
		func() (game.Deck, error) { return deck.New() },
		zerologlog.Logger,
	)

	// Healthcheck
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC(), "sessions": reg.Count()})
	})

	// Lets a lobby screen check a join code before opening a socket
	r.GET("/api/session/:code", func(c *gin.Context) {
		sess, err := reg.Get(c.Param("code"))
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessionCode": sess.Code, "state": sess.State(), "players": len(sess.Players())})
	})

	sock := ws.New(reg, cfg)
	io := sock.Mount(r)
	defer io.Close()

	log.Printf("listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
