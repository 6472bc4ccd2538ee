package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"tavern.local/internal/app/campaign"
	"tavern.local/internal/app/campaign/events"
	campaignhttpapi "tavern.local/internal/app/campaign/httpapi"
	campaignrepo "tavern.local/internal/app/campaign/repo"
	"tavern.local/internal/app/rules"
	ruleshttpapi "tavern.local/internal/app/rules/httpapi"
	rulesrepo "tavern.local/internal/app/rules/repo"
	"tavern.local/internal/platform/auth"
	platformcache "tavern.local/internal/platform/cache"
	"tavern.local/internal/platform/config"
	"tavern.local/internal/platform/db"
	"tavern.local/internal/platform/httpmiddleware"
	"tavern.local/internal/platform/httpserver"
	"tavern.local/internal/platform/metrics"
	"tavern.local/internal/platform/ratelimit"
	"tavern.local/internal/platform/store"
	"tavern.local/internal/platform/trace"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cfg := config.Load()

	var h slog.Handler
	if cfg.LogFormat == "text" {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})
	} else {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})
	}
	slog.SetDefault(slog.New(h))

	//DB
	dbCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	database, disconnect, errDB := db.New(dbCtx, cfg.MongoURI, cfg.MongoDB)
	if errDB != nil {
		log.Fatal(errDB)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := disconnect(ctx); err != nil {
			slog.Error(err.Error())
		}
	}()
	slog.Info("数据库连接成功", "db", cfg.MongoDB)

	db.EnsureIndexes(dbCtx, database, db.IndexOptions{TextIndex: cfg.TextIndexEnabled})

	//Redis
	redisClient, errRedis := platformcache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if errRedis != nil {
		log.Fatal(errRedis)
	}
	defer redisClient.Close()
	//限流器
	var limiter *ratelimit.Limiter
	if cfg.RateLimitEnabled {
		limiter = ratelimit.NewLimiter(redisClient)
	} else {
		slog.Warn("RateLimit disabled by config", "RATELIMIT_ENABLED", false)
	}

	//实体缓存（全部仓储共享一个 keystore）
	keys := store.NewKeyStore()
	entityCache, errCache := store.NewEntityCache(store.CacheConfig{
		Enabled:  cfg.CacheEnabled,
		Sliding:  cfg.CacheSliding,
		Absolute: cfg.CacheAbsolute,
		MaxItems: cfg.CacheMaxItems,
	}, keys)
	if errCache != nil {
		log.Fatal(errCache)
	}
	defer entityCache.Close()

	//规则域
	//预期 100 万 slug，1% 误判率
	slugFilter := rulesrepo.NewSlugFilter(1_000_000, 0.01)
	rulesRepo := rulesrepo.NewRulesRepo(
		store.NewRepository[*rules.Rule](database.Collection("rules"), entityCache),
		slugFilter,
	)
	rulesRepo.SeedSlugs(dbCtx)
	categoriesRepo := rulesrepo.NewCategoriesRepo(
		store.NewRepository[*rules.RuleCategory](database.Collection("rule_categories"), entityCache),
	)
	ruleSvc := rules.NewService(rulesRepo, categoriesRepo)

	//战役域
	usersRepo := campaignrepo.NewUsersRepo(database)
	campaignsRepo := campaignrepo.NewCampaignsRepo(
		store.NewRepository[*campaign.Campaign](database.Collection("campaigns"), entityCache))
	charactersRepo := campaignrepo.NewCharactersRepo(
		store.NewRepository[*campaign.Character](database.Collection("characters"), entityCache))
	monstersRepo := campaignrepo.NewMonstersRepo(
		store.NewRepository[*campaign.Monster](database.Collection("monsters"), entityCache))
	spellsRepo := campaignrepo.NewSpellsRepo(
		store.NewRepository[*campaign.Spell](database.Collection("spells"), entityCache))
	notesRepo := campaignrepo.NewNotesRepo(
		store.NewRepository[*campaign.Note](database.Collection("notes"), entityCache))
	sessionsRepo := campaignrepo.NewSessionsRepo(
		store.NewRepository[*campaign.Session](database.Collection("sessions"), entityCache))
	inventoriesRepo := campaignrepo.NewInventoriesRepo(
		store.NewRepository[*campaign.Inventory](database.Collection("inventories"), entityCache))
	notificationsRepo := campaignrepo.NewNotificationsRepo(database)
	counters := campaignrepo.NewCounters(database)

	//初始化事件收集器（根据配置选择 Channel 或 Kafka）
	var collector events.Collector
	var kafkaConsumer *events.KafkaConsumer
	var channelConsumer *events.Consumer
	if cfg.KafkaEnabled {
		slog.Info("使用 Kafka 收集团内事件", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		collector = events.NewKafkaCollector(cfg.KafkaBrokers, cfg.KafkaTopic)
		kafkaConsumer = events.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, database)
	} else {
		slog.Info("使用 Channel 收集团内事件")
		channelCollector := events.NewChannelCollector(10000)
		collector = channelCollector
		channelConsumer = events.NewConsumer(database, channelCollector)
	}

	campaignSvc := campaign.NewService(campaignsRepo, charactersRepo, inventoriesRepo, counters, collector)

	// JWT
	ts, jwtErr := auth.NewHS256Service(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if jwtErr != nil {
		log.Fatal(jwtErr)
	}

	metrics.Init()

	var shutdown func(context.Context) error
	if cfg.TracingEnabled {
		shutdown = trace.InitTrace(cfg.OtlpGrpcEndpoint, cfg.OtlpServiceName)
		if shutdown == nil {
			slog.Error("Trace init failed")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					slog.Error(err.Error())
				}
			}()
		}
	} else {
		slog.Warn("Tracing disabled by config", "TRACING_ENABLED", false)
	}

	// 对外业务
	mux := http.NewServeMux()

	// App routes (can mount multiple apps).
	ruleshttpapi.RegisterAPIRoutes(mux, ruleSvc, ts, limiter)
	campaignhttpapi.RegisterAPIRoutes(mux, campaignhttpapi.Deps{
		Service:       campaignSvc,
		Users:         usersRepo,
		Campaigns:     campaignsRepo,
		Characters:    charactersRepo,
		Monsters:      monstersRepo,
		Spells:        spellsRepo,
		Notes:         notesRepo,
		Sessions:      sessionsRepo,
		Inventories:   inventoriesRepo,
		Notifications: notificationsRepo,
		Collector:     collector,
		Tokens:        ts,
		Limiter:       limiter,
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	publicHandler := httpmiddleware.Chain(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.ReqID(),
		httpmiddleware.AccessLog(),
		httpmiddleware.Metrics(mux),
		httpmiddleware.TraceName(mux),
	)
	if cfg.TracingEnabled {
		publicHandler = otelhttp.NewHandler(publicHandler, "http")
	}
	publicSrv := httpserver.New(cfg, publicHandler)

	// 仅本机/内网
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	// 数据库连接状态检测
	adminMux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := database.Client().Ping(pingCtx, readpref.Primary()); err != nil {
			w.WriteHeader(500)
			w.Write([]byte("DB Ping Err"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("DB ready"))
	})

	adminMux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"service_name": cfg.ServiceName,
			"version":      version,
			"commit":       commit,
			"build_time":   buildTime,
			"go_version":   runtime.Version(),
		})
	})

	// 缓存运维入口：看 key、一键清空
	adminMux.HandleFunc("GET /cache/keys", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"keys": entityCache.Keys()})
	})
	adminMux.HandleFunc("DELETE /cache", func(w http.ResponseWriter, r *http.Request) {
		n := entityCache.Clear()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"cleared": n})
	})

	if cfg.PprofEnabled {
		adminMux.HandleFunc("/debug/pprof/", pprof.Index)
		adminMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		adminMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		adminMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		adminMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	adminSrv := httpserver.NewAdmin(cfg, adminMux) // 推荐：127.0.0.1:6060

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errch := make(chan error, 2)

	go func() {
		errch <- httpserver.RunWithGracefulShutdownContext(publicSrv, cfg.ShutdownTimeout, stopCtx)
	}()
	go func() {
		errch <- httpserver.RunWithGracefulShutdownContext(adminSrv, cfg.ShutdownTimeout, stopCtx)
	}()

	// 启动 Kafka consumer（如果启用）
	if kafkaConsumer != nil {
		go kafkaConsumer.Run(stopCtx)
		defer kafkaConsumer.Close()
	}
	// 启动 Channel consumer（如果启用）
	if channelConsumer != nil {
		go channelConsumer.Run(stopCtx)
	}
	defer collector.Close()

	err := <-errch
	if err != nil {
		stop()
		select {
		case <-errch:
		case <-time.After(cfg.ShutdownTimeout + time.Second):
		}
		log.Fatal(err)
	}

	stop()
	<-errch
}
