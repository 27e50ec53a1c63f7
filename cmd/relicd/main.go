// Command relicd is a small demonstration server exercising the core
// pieces of Relic together: config loading, the logger and metrics
// middleware, request IDs, panic recovery, a JSON handler, and a static
// file mount.
package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/relic-http/relic"
	"github.com/relic-http/relic/config"
	"github.com/relic-http/relic/middlewares/metrics"
	"github.com/relic-http/relic/middlewares/recover"
	"github.com/relic-http/relic/middlewares/requestid"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	configPath := flag.String("config", "", "path to a relic.yaml config file")
	staticDir := flag.String("static", "", "directory to serve at /static")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", slog.Any("error", err))
			os.Exit(1)
		}
		cfg = loaded
	}

	app := relic.New(relic.WithConfig(cfg))

	app.Use(relic.Logger(relic.LoggerOptions{Mode: relic.Auto}))
	app.Use(recover.New())
	app.Use(requestid.New())

	m := metrics.NewMetrics(metrics.Options{Namespace: "relicd"})
	app.Use(m.Middleware())
	m.RegisterEndpoint(app.Router)

	app.Get("/healthz", func(c *relic.Ctx) error {
		return c.Text(http.StatusOK, "ok")
	})

	app.Get("/echo", func(c *relic.Ctx) error {
		return c.JSON(http.StatusOK, map[string]string{
			"request_id": requestid.Get(c),
			"path":       c.Request().URL.Path,
		})
	})

	app.Post("/upload", func(c *relic.Ctx) error {
		b := c.Body(app.MaxRequestBodyBytes())
		data, err := b.Read()
		if err != nil {
			return c.Text(http.StatusBadRequest, err.Error())
		}
		mime, _ := b.Type()
		return c.JSON(http.StatusOK, map[string]any{
			"bytes": len(data),
			"type":  mime.MIME,
		})
	})

	if *staticDir != "" {
		app.Static("/static", http.Dir(*staticDir))
	}

	app.Logger().Info("relicd listening", slog.String("addr", *addr))
	if err := app.Listen(*addr); err != nil {
		app.Logger().Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}
