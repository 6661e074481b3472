package main

import (
	"context"
	"cowork/src/boot"
	"cowork/src/config"
	"cowork/src/controllers"
	"cowork/src/db"
	"cowork/src/lib"
	"cowork/src/middlewares"
	"cowork/src/types"
	"cowork/src/utils"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	API_PREFIX     string = "/api"
	SHUTDOWN_GRACE        = 10 * time.Second
)

// App holds the long-lived clients and the controllers built on them.
type App struct {
	cfg      *config.Config
	redis    *redis.Client
	checkout *controllers.CheckoutController
	bookings *controllers.BookingController
	hours    *controllers.MemberHoursController
	calendar *controllers.CalendarBridge
	webhooks *controllers.WebhookController
}

// newApp wires controllers to their stores and providers. calendarService and
// rdb may be nil.
func newApp(
	cfg *config.Config,
	gdb *gorm.DB,
	payments lib.PaymentProvider,
	calendarService lib.CalendarService,
	mailer lib.Mailer,
	rdb *redis.Client,
) *App {
	bookingRepo := db.NewBookingRepo(gdb)
	hours := controllers.NewMemberHoursController(cfg, db.NewMemberRepo(gdb), bookingRepo)
	bridge := controllers.NewCalendarBridge(cfg, calendarService)
	return &App{
		cfg:      cfg,
		redis:    rdb,
		checkout: controllers.NewCheckoutController(cfg, payments, rdb),
		bookings: controllers.NewBookingController(cfg, bookingRepo, db.NewRoomRepo(gdb), hours, payments, bridge),
		hours:    hours,
		calendar: bridge,
		webhooks: controllers.NewWebhookController(cfg, bookingRepo, bridge, mailer, rdb),
	}
}

func bookingDateValidator(cfg *config.Config) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		date, err := utils.ParseDate(value, time.UTC)
		if err != nil {
			return false
		}
		now := time.Now().In(cfg.Location())
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return !date.Before(today)
	}
}

var dateStringValidator validator.Func = func(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := utils.ParseDate(value, time.UTC)
	return err == nil
}

var clockTimeValidator validator.Func = func(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := utils.ParseClock(value)
	return err == nil
}

// afterTimeValidator checks HH:MM against the sibling field named by the param.
var afterTimeValidator validator.Func = func(fl validator.FieldLevel) bool {
	end, err := utils.ParseClock(fl.Field().String())
	if err != nil {
		return false
	}
	field := fl.Parent().FieldByName(fl.Param())
	if !field.IsValid() {
		return false
	}
	start, err := utils.ParseClock(field.String())
	if err != nil {
		return false
	}
	return end.After(start)
}

func registerValidators(cfg *config.Config) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bookingdate", bookingDateValidator(cfg))
		v.RegisterValidation("datestring", dateStringValidator)
		v.RegisterValidation("clocktime", clockTimeValidator)
		v.RegisterValidation("aftertime", afterTimeValidator)
	}
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	if cfg.APIEnv == "local" {
		return cors.Default()
	}
	cc := cors.DefaultConfig()
	cc.AllowOrigins = []string{cfg.BaseURL}
	cc.AllowHeaders = append(cc.AllowHeaders, middlewares.DEBUG_SECRET_HEADER)
	return cors.New(cc)
}

// abortWithError maps an error to its status. Internal causes are logged and
// replaced by a generic message.
func abortWithError(ctx *gin.Context, tag string, err error) {
	appErr := types.AsAppError(err)
	if appErr.Kind.Internal() {
		log.Printf("[%s] Error: %s\n", tag, appErr.Error())
	}
	ctx.AbortWithStatusJSON(appErr.Kind.HTTPStatus(), gin.H{"error": appErr.Message(), "code": appErr.Code})
}

func setupRouter(app *App) *gin.Engine {
	registerValidators(app.cfg)

	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.Use(corsMiddleware(app.cfg))
	router.Use(middlewares.MaintenanceMode(app.cfg.MaintenanceMode))
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})

	api := router.Group(API_PREFIX)
	checkoutHandlers(api, app)
	bookingHandlers(api, app)
	memberHandlers(api, app)
	calendarHandlers(api, app)
	stripeHandlers(api, app)
	return router
}

func initLogger() {
	cwd, _ := os.Getwd()
	logDir := path.Join(cwd, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Printf("Error creating log dir: %s\n", err.Error())
		return
	}
	serverLogs := path.Join(logDir, "server.log")
	apiLogs := path.Join(logDir, "api.log")

	f, err := os.Create(apiLogs)
	if err != nil {
		log.Printf("Error creating api log: %s\n", err.Error())
	} else {
		gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	}))
}

func newCalendarService(cfg *config.Config) lib.CalendarService {
	if !cfg.CalendarConfigured() {
		log.Println("[Calendar] Not configured, events will be skipped")
		return nil
	}
	// The token source keeps this context for its lifetime.
	svc, err := lib.NewGoogleCalendar(context.Background(), cfg.GoogleServiceAccountEmail, cfg.GooglePrivateKey)
	if err != nil {
		log.Printf("[Calendar] Error creating service: %s\n", err.Error())
		return nil
	}
	return svc
}

func newRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	rdb, err := lib.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Printf("[Redis] Error connecting, continuing without cache: %s\n", err.Error())
		return nil
	}
	return rdb
}

func newMailer(cfg *config.Config) lib.Mailer {
	if cfg.SMTPConfigured() {
		return lib.NewSMTPMailer(cfg)
	}
	return lib.LogMailer{}
}

func main() {
	if config.LocalEnv() {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			log.Printf("No .env loaded: %s\n", err.Error())
		}
	}
	initLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %s", err.Error())
	}
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("Error connecting to database: %s", err.Error())
	}
	if err := boot.InitDb(gdb); err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	rdb := newRedis(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	app := newApp(cfg, gdb, lib.NewStripeProvider(cfg.StripeSecretKey), newCalendarService(cfg), newMailer(cfg), rdb)

	sched, err := boot.InitScheduler(cfg, app.bookings)
	if err != nil {
		log.Printf("Error starting scheduler: %s\n", err.Error())
	}
	defer boot.StopScheduler(sched)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: setupRouter(app),
	}
	go func() {
		log.Printf("Listening on %s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %s", err)
		}
	}()

	quit, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-quit.Done()

	ctx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_GRACE)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down server: %s\n", err.Error())
	}
}
