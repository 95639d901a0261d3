package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guesthouse/internal/api"
	"guesthouse/internal/bot"
	"guesthouse/internal/config"
	"guesthouse/internal/database"
	"guesthouse/internal/domain"
	"guesthouse/internal/events"
	"guesthouse/internal/google"
	"guesthouse/internal/logging"
	"guesthouse/internal/metrics"
	"guesthouse/internal/models"
	"guesthouse/internal/notify"
	"guesthouse/internal/report"
	"guesthouse/internal/repository"
	"guesthouse/internal/service"
	"guesthouse/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	rooms, err := loadRooms(cfg, &logger)
	if err != nil {
		return err
	}

	db, err := initDatabase(cfg, rooms, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, &logger)

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	store, roomsCache := initStore(cfg, db, redisClient, rooms, &logger)

	eventBus := events.NewEventBus()
	eventBus.OnError(func(event *events.Event, err error) {
		logger.Error().Err(err).Str("event_type", event.Type).Msg("event handler failed")
	})
	if forwarder := initAMQP(cfg, eventBus, &logger); forwarder != nil {
		defer forwarder.Close()
	}
	botAPI := initTelegram(cfg, eventBus, &logger)

	var sheetsWorker domain.SyncWorker
	if sw := initSheetsWorker(ctx, cfg, db, redisClient, &logger); sw != nil {
		go sw.Start(ctx)
		sheetsWorker = sw
	}

	bookingService := service.NewBookingService(store, eventBus, sheetsWorker, cfg.Booking, logging.Component(&logger, "booking"))
	paymentService := service.NewPaymentService(store, eventBus, sheetsWorker, logging.Component(&logger, "payment"))
	go bookingService.RunPurgeLoop(ctx, cfg.Booking.PurgeInterval)

	if staffBot := initStaffBot(cfg, botAPI, bookingService, paymentService, db, redisClient, &logger); staffBot != nil {
		go staffBot.Start(ctx)
		defer staffBot.Stop()
	}

	backupService := database.NewBackupService(db, cfg.Backup, logging.Component(&logger, "backup"))
	go backupService.Start(ctx)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(&cfg.API, bookingService, store, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
		go grpcServer.WatchHealth(ctx, 5*time.Second)
	}

	httpServer := api.NewHTTPServer(&cfg.API, api.HTTPDeps{
		Bookings: bookingService,
		Payments: paymentService,
		Contact:  service.NewContactService(cfg.Contact),
		Reports:  db,
		Exporter: report.NewExcelExporter(db, cfg.Exports.Path, logging.Component(&logger, "export")),
		Rooms:    service.NewRoomService(db, roomsCache, logging.Component(&logger, "rooms")),
		Mode:     store,
	}, &logger)

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// loadRooms reads the catalog from ROOMS_PATH (default configs/rooms.yaml),
// then from the rooms section of the config, then the built-in catalog.
func loadRooms(cfg *config.Config, logger *zerolog.Logger) ([]models.Room, error) {
	roomsPath := os.Getenv("ROOMS_PATH")
	if roomsPath == "" {
		roomsPath = "configs/rooms.yaml"
	}

	rooms := cfg.Rooms
	data, err := os.ReadFile(roomsPath)
	switch {
	case err == nil:
		var roomsConfig struct {
			Rooms []models.Room `yaml:"rooms"`
		}
		if err := yaml.Unmarshal(data, &roomsConfig); err != nil {
			logger.Error().Err(err).Str("rooms_path", roomsPath).Msg("parse rooms")
			return nil, err
		}
		if len(roomsConfig.Rooms) > 0 {
			rooms = roomsConfig.Rooms
		}
	case errors.Is(err, os.ErrNotExist):
		logger.Warn().Str("rooms_path", roomsPath).Msg("rooms file not found, using configured catalog")
	default:
		logger.Error().Err(err).Str("rooms_path", roomsPath).Msg("read rooms")
		return nil, err
	}

	if len(rooms) == 0 {
		for _, r := range models.FallbackRooms() {
			rooms = append(rooms, *r)
		}
	}
	if err := config.ValidateRooms(rooms); err != nil {
		return nil, fmt.Errorf("rooms: %w", err)
	}
	return rooms, nil
}

func initDatabase(cfg *config.Config, rooms []models.Room, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.SyncRooms(ctx, rooms); err != nil {
		// rooms are still served from the fallback catalog
		logger.Warn().Err(err).Msg("sync rooms failed")
	}
	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initStore layers the room cache over SQLite and puts the result behind the
// live/fallback switch. The cache is returned as nil when Redis is off.
func initStore(
	cfg *config.Config, db *database.DB, redisClient *redis.Client, rooms []models.Room, logger *zerolog.Logger,
) (*repository.FailoverStore, domain.RoomCacheInvalidator) {
	var primary domain.LedgerStore = db
	var cache domain.RoomCacheInvalidator
	if redisClient != nil {
		roomCache := repository.NewRedisRoomCache(db, redisClient, cfg.Redis.KeyPrefix, cfg.Store.RoomsCacheTTL,
			logging.Component(logger, "rooms-cache"))
		primary, cache = roomCache, roomCache
	}

	catalog := make([]*models.Room, 0, len(rooms))
	for i := range rooms {
		catalog = append(catalog, &rooms[i])
	}
	fallback := repository.NewMemoryStore(catalog...)

	store := repository.NewFailoverStore(primary, fallback, cfg.Store.RecoveryInterval, logging.Component(logger, "store"))
	return store, cache
}

func initAMQP(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) *events.AMQPForwarder {
	if !cfg.AMQP.Enabled {
		return nil
	}

	forwarder, err := events.DialAMQP(cfg.AMQP.URL, cfg.AMQP.QueuePrefix, logging.Component(logger, "amqp"))
	if err != nil {
		logger.Warn().Err(err).Msg("amqp connection failed, continuing without event forwarding")
		return nil
	}
	forwarder.Attach(bus)
	logger.Info().Msg("amqp forwarder attached")
	return forwarder
}

func initTelegram(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) *tgbotapi.BotAPI {
	tg := cfg.Notifications.Telegram
	if !tg.Enabled {
		return nil
	}

	botAPI, err := notify.NewBotAPI(tg.BotToken, tg.Debug)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without staff notifications")
		return nil
	}
	notify.NewTelegramNotifier(botAPI, tg.ChatIDs, logging.Component(logger, "telegram")).Attach(bus)
	logger.Info().Int("chats", len(tg.ChatIDs)).Msg("telegram notifier attached")
	return botAPI
}

func initStaffBot(
	cfg *config.Config,
	botAPI *tgbotapi.BotAPI,
	bookings *service.BookingService,
	payments *service.PaymentService,
	db *database.DB,
	redisClient *redis.Client,
	logger *zerolog.Logger,
) *bot.Bot {
	tg := cfg.Notifications.Telegram
	if botAPI == nil || !tg.Commands {
		return nil
	}

	var limiter bot.RateLimiter = repository.NewMemoryRateLimiter()
	if redisClient != nil {
		limiter = repository.NewRedisRateLimiter(redisClient, cfg.Redis.KeyPrefix)
	}
	reports := func(ctx context.Context, name string) (interface{}, error) {
		return report.Run(ctx, db, name)
	}

	logger.Info().Int("managers", len(tg.ManagerIDs)).Msg("staff command bot enabled")
	return bot.NewBot(bot.FromBotAPI(botAPI), tg, bookings, payments, reports, limiter,
		bot.NewMetrics(prometheus.DefaultRegisterer), logging.Component(logger, "staff-bot"))
}

func initSheetsWorker(
	ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zerolog.Logger,
) *worker.SheetsWorker {
	if !cfg.Google.Enabled {
		return nil
	}

	sheetsService, err := google.NewSheetsService(ctx,
		cfg.Google.GoogleCredentialsFile,
		cfg.Google.BookingSpreadSheetID,
		cfg.Google.SheetName,
	)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheetsService.WarmUpCache(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets cache warm-up failed")
	}
	go sheetsService.RunCacheRefresh(ctx, 10*time.Minute)

	if n, err := db.RequeueFailedSyncTasks(ctx); err != nil {
		logger.Warn().Err(err).Msg("requeue failed sync tasks")
	} else if n > 0 {
		logger.Info().Int64("tasks", n).Msg("failed sync tasks requeued")
	}

	logger.Info().Msg("google sheets connected")
	return worker.NewSheetsWorker(db, sheetsService, redisClient, cfg.Redis.KeyPrefix, worker.DefaultRetryPolicy(),
		logging.Component(logger, "sheets-worker"))
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
		logger.Info().Str("grpc_addr", grpcServer.Addr()).Msg("grpc server started")
	}

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Str("mode", "api").Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
