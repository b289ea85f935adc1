package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gin-gonic/gin"
	"github.com/goatnetwork/solver-vault/internal/config"
	"github.com/goatnetwork/solver-vault/internal/db"
	"github.com/goatnetwork/solver-vault/internal/vault"
)

// EventSource lists persisted vault events, newest first
type EventSource interface {
	EventLogs(ctx context.Context, eventType string, limit int) ([]db.EventLog, error)
}

type HTTPServer struct {
	vault  *vault.Vault
	events EventSource
	secret []byte
}

func NewHTTPServer(v *vault.Vault, events EventSource, jwtSecret string) *HTTPServer {
	return &HTTPServer{vault: v, events: events, secret: []byte(jwtSecret)}
}

// Router builds the gin engine with every vault route
func (hs *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID())

	api := r.Group("/api/v1")
	api.GET("/health", hs.handleHealth)
	api.GET("/vault", hs.handleVault)
	api.GET("/withdraw", hs.handleListWithdrawRequests)
	api.GET("/withdraw/:id", hs.handleGetWithdrawRequest)
	api.GET("/roles/:role", hs.handleRoleMembers)
	api.GET("/roles/:role/:address", hs.handleHasRole)
	api.GET("/events", hs.handleEvents)

	auth := api.Group("", hs.bearerAuth())
	auth.POST("/deposit", hs.handleDeposit)
	auth.POST("/symmio/deposit", hs.handleDepositToSymmio)
	auth.POST("/withdraw/request", hs.handleRequestWithdraw)
	auth.POST("/withdraw/accept", hs.handleAcceptWithdraw)
	auth.POST("/withdraw/:id/claim", hs.handleClaimWithdraw)

	admin := auth.Group("/admin")
	admin.POST("/deposit-limit", hs.handleSetDepositLimit)
	admin.POST("/payback-ratio", hs.handleSetMinimumPaybackRatio)
	admin.POST("/vault-token", hs.handleSetVaultToken)
	admin.POST("/solver", hs.handleSetSolver)
	admin.POST("/symmio", hs.handleSetSymmio)
	admin.POST("/pause", hs.handlePause)
	admin.POST("/unpause", hs.handleUnpause)
	admin.POST("/roles/grant", hs.handleGrantRole)
	admin.POST("/roles/revoke", hs.handleRevokeRole)
	return r
}

// Start serves on HTTP_PORT until ctx is done
func (hs *HTTPServer) Start(ctx context.Context) {
	if len(hs.secret) == 0 {
		log.Warn("API_JWT_SECRET is empty, authenticated routes will reject every request")
	}
	srv := &http.Server{
		Addr:              ":" + config.AppConfig.HTTPPort,
		Handler:           hs.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("HTTP server stopping...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("HTTP server shutdown: %v", err)
		}
	}()

	log.Infof("HTTP server is running on port %s", config.AppConfig.HTTPPort)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start HTTP server: %v", err)
	}
}
