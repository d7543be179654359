package server

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"skincare-gateway/internal/analysis"
	"skincare-gateway/internal/forward"
	"skincare-gateway/internal/inference"
	"skincare-gateway/internal/session"
	"skincare-gateway/internal/shared/config"
	"skincare-gateway/internal/shared/metrics"
	"skincare-gateway/internal/shared/server/middleware"
	"skincare-gateway/internal/shared/server/respond"
	"skincare-gateway/internal/shared/storage/db"
	"skincare-gateway/internal/shared/storage/object"
	localstore "skincare-gateway/internal/shared/storage/object/local"
	s3store "skincare-gateway/internal/shared/storage/object/s3"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Dependencies
	store := newObjectStore(cfg)

	var sqlDB *sql.DB
	if cfg.DatabaseURL != "" {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		dbConn, err := db.Connect(context.Background(), cfg.DatabaseURL, opts)
		if err != nil {
			log.Printf("failed to connect database, falling back to memory: %v", err)
		} else {
			if err := db.RunMigrations(context.Background(), dbConn); err != nil {
				log.Printf("failed to run migrations, falling back to memory: %v", err)
				dbConn = nil
			}
		}
		sqlDB = dbConn
	}

	var analysisRepo analysis.Repo
	if sqlDB != nil {
		analysisRepo = &analysis.PGRepo{DB: sqlDB}
	} else {
		analysisRepo = analysis.NewMemoryRepo()
	}

	inferenceClient, err := inference.NewHTTPClient(cfg.InferenceURL, cfg.InferencePath)
	if err != nil {
		log.Fatalf("inference client: %v", err)
	}

	forwarder := &forward.Forwarder{BaseURL: cfg.BackendBaseURL}

	var sessionStore session.Store
	if cfg.SessionDir != "" {
		sessionStore = session.NewFileStore(cfg.SessionDir)
	} else {
		sessionStore = session.NewMemoryStore()
	}

	var strategy session.Strategy
	if cfg.SessionStrategy == config.StrategyDelegated {
		strategy = session.NewDelegated(
			cfg.AuthClientID,
			cfg.AuthClientSecret,
			cfg.AuthTokenURL,
			cfg.AuthSignupURL,
			cfg.AuthUserinfoURL,
		)
	} else {
		strategy = &session.Owned{Exchange: forwarder, Store: sessionStore}
	}

	orch := &analysis.Orchestrator{
		Inference:   inferenceClient,
		Images:      store,
		Repo:        analysisRepo,
		ResultsPath: cfg.ResultsPath,
		Dwell:       cfg.HandoffDwell,
	}
	analysisHandler := analysis.NewHandler(orch, analysisRepo)
	sessionHandler := session.NewHandler(strategy)

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Identity(strategy),
	)

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"status": "Backend running"})
	})
	api.GET("/metrics", metrics.Handler())

	limiter := middleware.NewRateLimiter(nil)
	analysisHandler.RegisterRoutes(api,
		middleware.RateLimit(limiter, middleware.RateLimitRule{Rate: 0.5, Burst: 3}),
	)
	sessionHandler.RegisterRoutes(api)
	sessionHandler.RegisterCredentialRoutes(api)

	return r
}

func newObjectStore(cfg config.Config) object.ObjectStore {
	if cfg.ObjectStoreType == "s3" {
		store, err := s3store.New(context.Background(), cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			log.Printf("failed to init s3 store, falling back to local: %v", err)
		} else {
			return store
		}
	}
	return localstore.New(cfg.LocalStoreDir)
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
