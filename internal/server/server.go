package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ZyrusXD/BMA-Voice/internal/civic"
	"github.com/ZyrusXD/BMA-Voice/internal/config"
	"github.com/ZyrusXD/BMA-Voice/internal/database"
	"github.com/ZyrusXD/BMA-Voice/internal/events"
	"github.com/ZyrusXD/BMA-Voice/internal/geo"
	"github.com/ZyrusXD/BMA-Voice/internal/handler"
	"github.com/ZyrusXD/BMA-Voice/internal/leaderboard"
	"github.com/ZyrusXD/BMA-Voice/internal/ledger"
	"github.com/ZyrusXD/BMA-Voice/internal/middleware"
	"github.com/ZyrusXD/BMA-Voice/internal/mission"
	"github.com/ZyrusXD/BMA-Voice/internal/poll"
	"github.com/ZyrusXD/BMA-Voice/internal/scheduler"
	"github.com/ZyrusXD/BMA-Voice/internal/sentiment"
	"github.com/ZyrusXD/BMA-Voice/internal/store"
	ws "github.com/ZyrusXD/BMA-Voice/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	districts     *geo.Router
	ledger        *ledger.Ledger
	missions      *mission.Engine
	dispatcher    *events.Dispatcher
	scheduler     *scheduler.Scheduler
	board         *leaderboard.Cache
	gamificationH *handler.GamificationHandler
	civicH        *handler.CivicHandler
	districtH     *handler.DistrictHandler
	cronH         *handler.CronHandler
	rateLimiter   *middleware.RateLimiter
	tokenHash     []byte
	logger        *slog.Logger
}

// New wires the stores, the gamification core and the HTTP handlers over db.
// The district file is loaded once here.
func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	ledgerCfg, err := cfg.LedgerSettings()
	if err != nil {
		return nil, fmt.Errorf("ledger settings: %w", err)
	}
	weekday, err := cfg.Weekday()
	if err != nil {
		return nil, fmt.Errorf("scheduler settings: %w", err)
	}

	userStore := store.NewUserStore(db)
	ledgerStore := store.NewLedgerStore(db)
	missionStore := store.NewMissionStore(db)
	postStore := store.NewPostStore(db)
	commentStore := store.NewCommentStore(db)
	pollStore := store.NewPollStore(db)
	reactionStore := store.NewReactionStore(db)

	hub := ws.NewHub(logger.With("component", "websocket"))
	board := leaderboard.NewCache(userStore, cfg.Leaderboard.Size, cfg.Leaderboard.TTL)

	districts := geo.NewRouter(logger.With("component", "geo"))
	districts.Load(cfg.Geo.DistrictsPath)

	l := ledger.New(ledgerStore, ledgerCfg, logger)
	l.SetNotifier(ledger.Notifiers{board, hub})

	engine := mission.NewEngine(missionStore, userStore, l, logger)
	engine.SetNotifier(hub)

	dispatcher := events.NewDispatcher(l, engine, districts, postStore, commentStore, sentiment.DefaultLexicon(), logger)
	civicSvc := civic.NewService(userStore, postStore, commentStore, pollStore, reactionStore, dispatcher, logger)

	generator := poll.NewGenerator(postStore, pollStore, userStore, ledgerCfg.Location, logger)
	sched := scheduler.New(engine, generator, scheduler.Config{
		Interval:    cfg.Scheduler.Interval,
		Location:    ledgerCfg.Location,
		PollWeekday: weekday,
	}, logger)

	var tokenHash []byte
	if cfg.Cron.TokenHash != "" {
		tokenHash = []byte(cfg.Cron.TokenHash)
	}

	return &Server{
		db:            db,
		hub:           hub,
		districts:     districts,
		ledger:        l,
		missions:      engine,
		dispatcher:    dispatcher,
		scheduler:     sched,
		board:         board,
		gamificationH: handler.NewGamificationHandler(userStore, ledgerStore, l, engine, board, logger.With("component", "gamification")),
		civicH:        handler.NewCivicHandler(civicSvc, pollStore, logger.With("component", "civic_handler")),
		districtH:     handler.NewDistrictHandler(districts, postStore, logger.With("component", "district")),
		cronH:         handler.NewCronHandler(sched, dispatcher, cfg.Cron.BackfillBatch, logger.With("component", "cron")),
		rateLimiter:   middleware.NewRateLimiter(cfg.Cron.RequestsPerMin, time.Minute),
		tokenHash:     tokenHash,
		logger:        logger,
	}, nil
}

// Scheduler returns the background job runner.
func (s *Server) Scheduler() *scheduler.Scheduler {
	return s.scheduler
}

// Missions returns the mission engine for catalog seeding.
func (s *Server) Missions() *mission.Engine {
	return s.missions
}

// Dispatcher returns the event dispatcher for backfill runs.
func (s *Server) Dispatcher() *events.Dispatcher {
	return s.dispatcher
}

// Districts returns the geo router.
func (s *Server) Districts() *geo.Router {
	return s.districts
}

// Leaderboard returns the cached ranking.
func (s *Server) Leaderboard() *leaderboard.Cache {
	return s.board
}

// RateLimiter returns the cron rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	// Gamification reads
	mux.HandleFunc("GET /leaderboard", s.gamificationH.Leaderboard)
	mux.HandleFunc("POST /users", s.gamificationH.CreateUser)
	mux.HandleFunc("GET /users/{id}", s.gamificationH.GetUser)
	mux.HandleFunc("GET /users/{id}/activity", s.gamificationH.Activity)
	mux.HandleFunc("GET /users/{id}/missions", s.gamificationH.Missions)

	// Districts
	mux.HandleFunc("GET /districts/resolve", s.districtH.Resolve)
	mux.HandleFunc("GET /districts/ranking", s.districtH.Ranking)
	mux.HandleFunc("GET /districts/{name}/posts", s.districtH.Posts)

	// Civic writes
	mux.HandleFunc("POST /posts", s.civicH.CreatePost)
	mux.HandleFunc("GET /posts/{id}", s.civicH.GetPost)
	mux.HandleFunc("DELETE /posts/{id}", s.civicH.DeletePost)
	mux.HandleFunc("PUT /posts/{id}/status", s.civicH.ChangeStatus)
	mux.HandleFunc("POST /posts/{id}/reactions", s.civicH.React)
	mux.HandleFunc("POST /comments", s.civicH.CreateComment)
	mux.HandleFunc("DELETE /comments/{id}", s.civicH.DeleteComment)
	mux.HandleFunc("GET /polls/{id}", s.civicH.GetPoll)
	mux.HandleFunc("POST /polls/{id}/votes", s.civicH.Vote)

	// External cron triggers
	cron := middleware.RequireToken(s.tokenHash, s.logger.With("component", "cron_auth"))(http.HandlerFunc(s.cronH.Run))
	mux.Handle("POST /cron/{task}", middleware.RateLimit(s.rateLimiter)(cron))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "degraded", http.StatusServiceUnavailable
	}
	schema, err := database.SchemaVersion(s.db)
	if err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "degraded", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"schema":    schema,
		"districts": s.districts.Count(),
		"clients":   s.hub.ClientCount(),
	})
}
