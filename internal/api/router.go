package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	auditHttp "github.com/nekogravitycat/room-reservation-engine/internal/audit/http"
	"github.com/nekogravitycat/room-reservation-engine/internal/auth"
	"github.com/nekogravitycat/room-reservation-engine/internal/booking"
	bookingHttp "github.com/nekogravitycat/room-reservation-engine/internal/booking/http"
	"github.com/nekogravitycat/room-reservation-engine/internal/equipment"
	equipmentHttp "github.com/nekogravitycat/room-reservation-engine/internal/equipment/http"
	"github.com/nekogravitycat/room-reservation-engine/internal/logging"
	notificationHttp "github.com/nekogravitycat/room-reservation-engine/internal/notification/http"
	"github.com/nekogravitycat/room-reservation-engine/internal/policy"
	policyHttp "github.com/nekogravitycat/room-reservation-engine/internal/policy/http"
	"github.com/nekogravitycat/room-reservation-engine/internal/resource"
	resourceHttp "github.com/nekogravitycat/room-reservation-engine/internal/resource/http"
	"github.com/nekogravitycat/room-reservation-engine/internal/series"
	seriesHttp "github.com/nekogravitycat/room-reservation-engine/internal/series/http"
	"github.com/nekogravitycat/room-reservation-engine/internal/user"
	userHttp "github.com/nekogravitycat/room-reservation-engine/internal/user/http"
	"github.com/nekogravitycat/room-reservation-engine/internal/waitlist"
	waitlistHttp "github.com/nekogravitycat/room-reservation-engine/internal/waitlist/http"
)

// Config holds everything the router needs.
type Config struct {
	IsProduction bool
	ProdOrigins  []string
	Logger       *zap.Logger

	UserService      user.Service
	ResourceService  resource.Service
	BookingService   booking.Service
	EquipmentService equipment.Service
	SeriesService    series.Service
	WaitlistService  waitlist.Service
	PolicyReader     policy.Reader
	PolicyStore      policyHttp.Store
	AuditHistory     auditHttp.History
	Outbox           notificationHttp.Outbox
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Identity) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	// Global Middleware:
	// - RequestLogger: one zap line per request, including hidden internal errors.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(RequestLogger(logging.OrNop(cfg.Logger)), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = cfg.ProdOrigins
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:8081", // Swagger
			"http://localhost:5173", // Frontend dev server
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", auth.HeaderUserID}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	r.Use(cors.New(corsConfig))

	// identityMiddleware: Requires the caller identity asserted by the gateway.
	identityMiddleware := auth.IdentityRequired()
	// adminMiddleware: Further checks that the caller is an active administrator.
	adminMiddleware := RequireAdmin(cfg.UserService)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	userHandler := userHttp.NewUserHandler(cfg.UserService)
	resourceHandler := resourceHttp.NewHandler(cfg.ResourceService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	equipmentHandler := equipmentHttp.NewHandler(cfg.EquipmentService)
	seriesHandler := seriesHttp.NewHandler(cfg.SeriesService)
	waitlistHandler := waitlistHttp.NewHandler(cfg.WaitlistService)
	policyHandler := policyHttp.NewHandler(cfg.PolicyReader, cfg.PolicyStore)
	auditHandler := auditHttp.NewHandler(cfg.AuditHistory)
	outboxHandler := notificationHttp.NewHandler(cfg.Outbox)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, identityMiddleware, adminMiddleware)
		resourceHttp.RegisterRoutes(v1, resourceHandler, identityMiddleware, adminMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, identityMiddleware, adminMiddleware)
		equipmentHttp.RegisterRoutes(v1, equipmentHandler, identityMiddleware, adminMiddleware)
		seriesHttp.RegisterRoutes(v1, seriesHandler, identityMiddleware, adminMiddleware)
		waitlistHttp.RegisterRoutes(v1, waitlistHandler, identityMiddleware)
		policyHttp.RegisterRoutes(v1, policyHandler, identityMiddleware, adminMiddleware)
		auditHttp.RegisterRoutes(v1, auditHandler, identityMiddleware, adminMiddleware)
		notificationHttp.RegisterRoutes(v1, outboxHandler, identityMiddleware, adminMiddleware)
	}

	return r
}
