package server

import (
	"net/http"
	"time"

	"github.com/MarkusShepherd/diris-server/internal/config"
	"github.com/MarkusShepherd/diris-server/internal/game"

	"gorm.io/gorm"
)

type Server struct {
	store    *Store
	db       *gorm.DB
	ws       *wsHub
	cfg      config.Config
	notifier game.Notifier
}

// New builds a server. A nil database keeps everything in memory, which is
// how the tests run.
func New(conn *gorm.DB, cfg config.Config, notifier game.Notifier) *Server {
	return &Server{
		store:    NewStore(),
		db:       conn,
		ws:       newWSHub(),
		cfg:      cfg,
		notifier: notifier,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/players", s.handleRegisterPlayer)
	mux.HandleFunc("GET /api/players/", s.handlePlayerSubroutes)
	mux.HandleFunc("POST /api/players/", s.handlePlayerSubroutes)
	mux.HandleFunc("POST /api/images", s.handleUploadImage)
	mux.HandleFunc("GET /api/images/", s.handleGetImage)
	mux.HandleFunc("POST /api/matches", s.handleCreateMatch)
	mux.HandleFunc("GET /api/matches", s.handleListMatches)
	mux.HandleFunc("GET /api/matches/", s.handleMatchSubroutes)
	mux.HandleFunc("POST /api/matches/", s.handleMatchSubroutes)
	mux.HandleFunc("POST /api/checks", s.handleChecks)
	mux.HandleFunc("GET /ws/matches/", s.handleWebsocket)
	return mux
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
