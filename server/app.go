package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"backend/metrics"
	"backend/middleware"
	"backend/utils"
)

// IndexHTML is the body served on GET /.
const IndexHTML = "<h1>Backend is running!</h1>"

// defaultContentSecurityPolicy mirrors the helmet default policy.
const defaultContentSecurityPolicy = "default-src 'self';" +
	"base-uri 'self';" +
	"font-src 'self' https: data:;" +
	"form-action 'self';" +
	"frame-ancestors 'self';" +
	"img-src 'self' data:;" +
	"object-src 'none';" +
	"script-src 'self';" +
	"script-src-attr 'none';" +
	"style-src 'self' https: 'unsafe-inline';" +
	"upgrade-insecure-requests"

// CreateFiberApp builds the request pipeline: recovery, request ID, access
// log, optional metrics, CORS, security headers, body limits, compression,
// then routes.
func CreateFiberApp(readyState *ReadyState) *fiber.App {
	cfg := readyState.GetConfig()

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		BodyLimit:               cfg.MaxRequestBody,
		EnableTrustedProxyCheck: cfg.TrustProxyHeaders,
		ProxyHeader: func() string {
			if cfg.TrustProxyHeaders {
				return fiber.HeaderXForwardedFor
			}
			return ""
		}(),
		TrustedProxies: []string{
			"10.0.0.0/8",
			"172.16.0.0/12",
			"192.168.0.0/16",
			"fd00::/8",
			"::1",
			"127.0.0.1",
		},
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			utils.LogRequestError(c, "PANIC RECOVERED", fmt.Errorf("%v", e),
				"user_agent", c.Get(fiber.HeaderUserAgent),
			)
		},
	}))

	// Request ID middleware for error correlation
	app.Use(func(c *fiber.Ctx) error {
		requestID := uuid.New().String()
		c.Locals("request_id", requestID)
		c.Set(fiber.HeaderXRequestID, requestID)
		return c.Next()
	})

	// Writer is backed by a pipe and goroutine; release it with the app.
	accessLog := utils.InfoLogger.Writer()
	app.Hooks().OnShutdown(accessLog.Close)
	app.Use(logger.New(logger.Config{
		Output: accessLog,
		Format: "${locals:request_id} ${status} - ${method} ${path} - ${ip} - ${latency}\n",
	}))

	if cfg.EnableMetrics {
		app.Use(metrics.PrometheusMiddleware())
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigin,
		AllowCredentials: cfg.AllowCredentials,
	}))

	app.Use(helmet.New(helmet.Config{
		ContentSecurityPolicy: defaultContentSecurityPolicy,
		HSTSMaxAge:            15552000, // 180 days, applied on TLS requests only
	}))

	app.Use(middleware.BodyParser(middleware.BodyParserConfig{
		Limit: cfg.BodyLimit,
	}))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.SendString(IndexHTML)
	})

	api := app.Group("/api/v1")

	// Live endpoint - just checks if server is running
	api.Get("/health/live", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "live",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    readyState.Uptime().String(),
		})
	})

	// Ready endpoint - the data store must answer a ping
	api.Get("/health/ready", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		health := fiber.Map{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    readyState.Uptime().String(),
			"database":  readyState.StoreKind(),
		}

		if !readyState.IsServing() {
			health["status"] = "draining"
			return c.Status(fiber.StatusServiceUnavailable).JSON(health)
		}
		if err := readyState.CheckStore(ctx); err != nil {
			utils.LogRequestError(c, "readiness check failed", err)
			health["status"] = "unhealthy"
			health["error"] = "database check failed"
			return c.Status(fiber.StatusServiceUnavailable).JSON(health)
		}

		health["status"] = "ready"
		return c.JSON(health)
	})

	if cfg.EnableMetrics {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
		app.Use(metrics.MarkUnmatched())
	}

	return app
}

// errorHandler renders every error as {"error": message}. Messages of
// non-Fiber errors are logged but never sent to the client.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		utils.LogRequestError(c, "HTTP_ERROR", err)
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}
