package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/time/rate"

	"github.com/dhruvprajapati002/PassGuard/internal/audit"
	"github.com/dhruvprajapati002/PassGuard/internal/auth"
	"github.com/dhruvprajapati002/PassGuard/internal/crypto"
	"github.com/dhruvprajapati002/PassGuard/internal/vault"
)

type Server struct {
	cfg Config

	mux     *http.ServeMux
	signer  *auth.JWTSigner
	users   auth.UserStore
	pending auth.PendingStore
	vault   *vault.Service
	trail   *audit.Log
	mail    mailer
	logger  *log.Logger

	mongoClient *mongo.Client

	rlRegisterIP *keyedLimiter
	rlLoginIP    *keyedLimiter
	rlLoginEmail *keyedLimiter
	rlVerifyIP   *keyedLimiter
}

// New connects to Mongo, derives the vault encryption key and wires the full
// server. It fails fast on a missing or empty ENCRYPTION_KEY so the process
// never serves with an unusable cipher.
func New(ctx context.Context, cfg Config) (*Server, error) {
	cfg.setDefaults()
	if cfg.MongoURI == "" {
		return nil, errors.New("server: MongoURI required")
	}
	if cfg.MongoDB == "" {
		return nil, errors.New("server: MongoDB required")
	}

	key, err := crypto.DeriveKey(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	cipher, err := crypto.NewCipher(key)
	if err != nil {
		return nil, err
	}

	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := cli.Ping(pingCtx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	users, err := auth.NewMongoUserStore(ctx, cli, cfg.MongoDB, cfg.UsersCollection)
	if err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	pending, err := auth.NewMongoPendingStore(ctx, cli, cfg.MongoDB, cfg.PendingCollection)
	if err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	store, err := vault.NewMongoStore(ctx, cli, cfg.MongoDB, cfg.VaultCollection, logger)
	if err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}

	s, err := newServer(cfg, cipher, users, pending, store)
	if err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	s.mongoClient = cli
	return s, nil
}

// newServer wires everything above the database. Tests call it directly with
// memory stores.
func newServer(cfg Config, cipher *crypto.Cipher, users auth.UserStore, pending auth.PendingStore, store vault.Store) (*Server, error) {
	cfg.setDefaults()

	priv, _, err := auth.GenerateEd25519()
	if err != nil {
		return nil, err
	}
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		signer:  auth.NewJWTSigner(priv, cfg.JWTIssuer, cfg.TokenTTL),
		users:   users,
		pending: pending,
		vault:   vault.NewService(cipher, store, logger),
		trail:   audit.New(),
		logger:  logger,
	}
	s.mail = newSMTPMailer(cfg.SMTP, s.logger)

	perWindow := func(n int, window time.Duration) float64 { return float64(n) / window.Seconds() }

	s.rlRegisterIP = newKeyedLimiter(rate.Limit(perWindow(5, time.Minute)), 5, 1*time.Hour)
	s.rlLoginIP = newKeyedLimiter(rate.Limit(perWindow(10, time.Minute)), 10, 1*time.Hour)
	s.rlLoginEmail = newKeyedLimiter(rate.Limit(perWindow(5, time.Minute)), 5, 1*time.Hour)
	s.rlVerifyIP = newKeyedLimiter(rate.Limit(perWindow(10, time.Minute)), 10, 10*time.Minute)

	s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Printf("panic: %v", rec)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}()

	rid := uuid.NewString()
	w.Header().Set("X-Request-Id", rid)

	s.addDefaultHeaders(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	path := r.URL.Path
	if strings.HasPrefix(path, "/api/") && !s.isPublic(path) {
		handler := auth.AuthRequired(s.signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		}))
		handler.ServeHTTP(w, r)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s
}

func (s *Server) Addr() string {
	return s.cfg.Addr
}

func (s *Server) isPublic(path string) bool {
	switch path {
	case "/health", "/api/health",
		"/api/auth/register", "/api/auth/resend-otp", "/api/auth/verify-otp", "/api/auth/login":
		return true
	default:
		return false
	}
}

func (s *Server) addDefaultHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
}

// Close releases the Mongo client. Safe on a test server that never had one.
func (s *Server) Close(ctx context.Context) error {
	if s.mongoClient == nil {
		return nil
	}
	return s.mongoClient.Disconnect(ctx)
}
