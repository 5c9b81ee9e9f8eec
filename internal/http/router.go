package api

import (
	"log"
	stdhttp "net/http"
	"os"
	"strings"
	"time"

	intconfig "andaman/internal/config"
	"andaman/internal/domain/models"
	h "andaman/internal/http/handlers"
	"andaman/internal/http/middleware"
	"andaman/internal/operators"
	"andaman/internal/repositories"
	"andaman/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env, sessions services.SessionStore) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), corsMiddleware())

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	// One breaker-wrapped adapter per operator, shared by every request.
	breakers := map[models.Operator]*operators.Breaker{
		models.OperatorSealink:    operators.WithBreaker(operators.NewSealink(env.Sealink)),
		models.OperatorMakruzz:    operators.WithBreaker(operators.NewMakruzz(env.Makruzz)),
		models.OperatorGreenOcean: operators.WithBreaker(operators.NewGreenOcean(env.GreenOcean)),
	}
	adapters := make([]operators.Adapter, 0, len(breakers))
	adapterMap := make(map[models.Operator]operators.Adapter, len(breakers))
	for _, op := range models.AllOperators {
		b := breakers[op]
		adapters = append(adapters, b)
		adapterMap[op] = b
	}

	bookingRepo := repositories.BookingRepository{}
	ferry := &h.FerryHandler{
		Adapters: adapters,
		Breakers: breakers,
		Sessions: sessions,
	}
	bookings := &h.BookingHandler{
		Service: services.BookingService{
			BookingRepo: bookingRepo,
			Tickets:     services.TicketService{BookingRepo: bookingRepo},
			Adapters:    adapterMap,
			TicketDir:   env.TicketDir,
		},
	}
	payments := &h.PaymentHandler{
		Client:   services.NewPhonePeClient(env.PhonePe),
		Repo:     bookingRepo,
		Sessions: sessions,
	}
	auth := &h.AuthHandler{Secret: []byte(env.JWTSecret)}

	searchLimit := middleware.NewRateLimiter(100, time.Minute)
	healthLimit := middleware.NewRateLimiter(10, 30*time.Second)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/metrics", h.Metrics())

		// Auth
		authGroup := api.Group("/auth")
		authGroup.POST("/login", auth.Login)
		authGroup.POST("/register", auth.Register)

		// Ferry aggregation
		ferryGroup := api.Group("/ferry")
		ferryGroup.POST("/search", searchLimit.Middleware(), ferry.Search)
		ferryGroup.GET("/health", healthLimit.Middleware(), ferry.FerryHealth)
		ferryGroup.POST("/seat-layout", ferry.SeatLayout)
		ferryGroup.POST("/booking/create-session", ferry.CreateSession)
		ferryGroup.GET("/booking/create-session", ferry.GetSession)
		ferryGroup.GET("/tickets/:pnr/download", bookings.DownloadTicket)
		ferryGroup.POST("/tickets/:pnr/download", bookings.DownloadTicket)

		// Bookings
		bookingGroup := api.Group("/bookings")
		bookingGroup.GET("/lookup-pnr", bookings.LookupPNR)
		bookingGroup.GET("", middleware.RequireAuth([]byte(env.JWTSecret), "admin"), bookings.ListBookings)

		// Payments (PhonePe v2)
		payGroup := api.Group("/payments/phonepe")
		payGroup.POST("/create-order", payments.CreateOrder)
		payGroup.POST("/callback", payments.Callback)
		payGroup.GET("/status/:merchantOrderId", payments.Status)
	}

	return r
}

func corsMiddleware() gin.HandlerFunc {
	origins := []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"http://localhost:5173",
		"http://127.0.0.1:5173",
	}
	if env := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); env != "" {
		origins = origins[:0]
		for _, o := range strings.Split(env, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept", "Origin", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	})
}
