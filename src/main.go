package main

import (
	"context"
	"errors"
	"eventpass/src/boot"
	"eventpass/src/common"
	"eventpass/src/config"
	"eventpass/src/lib/gateway"
	"eventpass/src/lib/qrtoken"
	"eventpass/src/middlewares"
	"eventpass/src/types"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"regexp"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	apiPrefix string = "/api/v1"
)

// server carries the services the route groups call into.
type server struct {
	cfg        config.App
	gateway    gateway.Gateway
	reconciler *common.Reconciler
	verifier   *common.Verifier
	bookings   *common.BookingService
	tickets    ticketFinder
	assets     assetLinker
}

var qrTokenValidator validator.Func = func(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	return ok && qrtoken.WellFormed(value)
}

func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("qrtoken", qrTokenValidator)
	}
}

// setupRouter applies middleware before any route is registered so every
// route, health check included, runs through it.
func setupRouter(middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.Use(middleware...)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	return router
}

func maintenanceMode(enabled bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if enabled {
			err := errors.New("server is under maintenance")
			log.Println(err.Error())
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, err.Error())
			return
		}
	}
}

func maintenanceModeMiddleware(g *gin.Engine, enabled bool) *gin.Engine {
	g.Use(maintenanceMode(enabled))
	return g
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

func registerRoutes(router *gin.Engine, s *server) {
	router.GET("/metrics", middlewares.StaticToken(s.cfg.MetricsToken), gin.WrapH(promhttp.Handler()))
	publicRoutes(router, s)

	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.StaffAuth([]byte(s.cfg.JWTSecret)))
	{
		attendanceHandlers(authorized, s)
		resourceHandlers(authorized, s)
	}
}

func publicRoutes(g *gin.Engine, s *server) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	paymentHandlers(apiv1, s)
	ticketHandlers(apiv1, s)
	return apiv1
}

// abortWithError answers with the error taxonomy. 5xx responses carry only
// the generic message of the sentinel.
func abortWithError(ctx *gin.Context, err error) {
	code := types.CodeOf(err)
	status := types.HTTPStatus(code)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		var e *types.Error
		if errors.As(err, &e) {
			msg = e.Message
		} else {
			msg = "internal server error"
		}
	}
	ctx.AbortWithStatusJSON(status, gin.H{"status": "error", "code": code, "error": msg})
}

func abortWithBindError(ctx *gin.Context, err error) {
	log.Printf("Error validating request: %s\n", err.Error())
	ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"status": "error", "code": types.CodeValidation, "error": err.Error()})
}

func initLogger(logDir string) {
	cwd, _ := os.Getwd()
	dir := path.Join(cwd, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("Could not create log directory %s: %s\n", dir, err.Error())
		return
	}
	serverLogs := path.Join(dir, "server.log")
	apiLogs := path.Join(dir, "api.log")
	gin.ForceConsoleColor()

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func corsMiddleware(cfg config.App) gin.HandlerFunc {
	if cfg.Env == string(types.Local) {
		return cors.Default()
	}
	cc := cors.DefaultConfig()
	cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "HEAD")
	cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization", "X-Signature", "Stripe-Signature")
	cc.AllowOriginFunc = func(origin string) bool {
		if cfg.AppHost == "" {
			return false
		}
		match, _ := regexp.MatchString(regexp.QuoteMeta(cfg.AppHost), origin)
		return match
	}
	cc.AllowCredentials = true
	cc.AllowAllOrigins = false
	return cors.New(cc)
}

func main() {
	if os.Getenv("API_ENV") == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	cfg := config.Load()
	initLogger(cfg.LogDir)

	ctx := context.Background()
	gdb := boot.InitDb()
	services, err := boot.NewServices(ctx, cfg, gdb)
	if err != nil {
		log.Fatalf("Error initializing services: %s\n", err.Error())
	}
	boot.InitScheduler(services.Sweep, cfg.SweepInterval)
	defer boot.StopScheduler()
	boot.InitEmailWorker(ctx, cfg)

	s := &server{
		cfg:        cfg,
		gateway:    services.Gateway,
		reconciler: services.Reconciler,
		verifier:   services.Verifier,
		bookings:   services.Bookings,
		tickets:    services.Store,
		assets:     newAssetLinker(cfg, services.Redis),
	}

	registerValidations()
	router := setupRouter(corsMiddleware(cfg), maintenanceMode(cfg.MaintenanceMode))
	registerRoutes(router, s)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Error starting server: %s\n", err.Error())
	}
}
