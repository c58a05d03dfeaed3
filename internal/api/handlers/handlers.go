package handlers

import (
	"database/sql"

	"github.com/redis/go-redis/v9"

	"github.com/easymo/marketplace-core/internal/service/entitlement"
	"github.com/easymo/marketplace-core/internal/service/idempotency"
	"github.com/easymo/marketplace-core/internal/service/ranking"
	"github.com/easymo/marketplace-core/pkg/logger"
	"github.com/easymo/marketplace-core/pkg/monitoring"
	"github.com/easymo/marketplace-core/pkg/websocket"
)

// Handlers holds all handler dependencies
type Handlers struct {
	DB          *sql.DB
	Redis       *redis.Client
	Logger      *logger.Logger
	Hub         *websocket.Hub
	Monitor     *monitoring.NewRelicApp
	Ranking     *ranking.Service
	Entitlement *entitlement.Service
	Idempotency *idempotency.Store

	// MaxCandidates caps the ranking request size; 0 disables the cap
	MaxCandidates int
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	db *sql.DB,
	redisClient *redis.Client,
	log *logger.Logger,
	hub *websocket.Hub,
	monitor *monitoring.NewRelicApp,
	rankingSvc *ranking.Service,
	entitlementSvc *entitlement.Service,
	idempotencyStore *idempotency.Store,
) *Handlers {
	return &Handlers{
		DB:          db,
		Redis:       redisClient,
		Logger:      log,
		Hub:         hub,
		Monitor:     monitor,
		Ranking:     rankingSvc,
		Entitlement: entitlementSvc,
		Idempotency: idempotencyStore,
	}
}
