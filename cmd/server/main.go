package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/omnivet/vetpms/internal/auth"
	"github.com/omnivet/vetpms/internal/cache"
	"github.com/omnivet/vetpms/internal/config"
	"github.com/omnivet/vetpms/internal/database"
	"github.com/omnivet/vetpms/internal/handlers"
	"github.com/omnivet/vetpms/internal/middleware"
	"github.com/omnivet/vetpms/internal/notify"
	"github.com/omnivet/vetpms/internal/rbac"
	"github.com/omnivet/vetpms/internal/repository"
	"github.com/omnivet/vetpms/internal/services"
	"github.com/omnivet/vetpms/internal/tenant"
	"github.com/omnivet/vetpms/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize logger
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting VetPMS")

	// Connect to the owner (platform) database
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ownerDB, err := database.Open(ctx, cfg.Owner.URL, cfg.Owner.LogLevel)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to owner database")
	}
	defer func() { _ = database.Close(ownerDB) }()

	if err := database.MigrateOwner(ownerDB); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate owner database")
	}

	// Initialize cache
	var cacheImpl cache.Cache
	if cfg.Cache.Enabled && cfg.Cache.Type == "redis" {
		addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		cacheImpl, err = cache.NewRedisCache(addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		log.Info().Msg("Redis cache initialized")
	} else {
		cacheImpl = cache.NewMemoryCache()
		log.Info().Msg("Memory cache initialized")
	}

	// Tenant resolution and per-tenant connections
	tenantRepo := repository.NewTenantRepository(ownerDB)
	resolver := tenant.NewResolver(tenantRepo, cacheImpl, cfg.Tenant.RegistryTTL, cfg.Tenant.DefaultSubdomain)
	manager := tenant.NewManager(tenant.GormOpener(cfg.Owner.LogLevel), tenant.ManagerOptions{
		DefaultDSN:   cfg.Tenant.DefaultDatabaseURL,
		StaleAfter:   cfg.Tenant.ConnStaleAfter,
		OpenTimeout:  cfg.Tenant.OpenTimeout,
		RetryBackoff: cfg.Tenant.RetryBackoff,
	})
	defer func() { _ = manager.CloseAll() }()

	// Tenant-scoped repositories
	userRepo := repository.NewUserRepository()
	rbacRepo := repository.NewRBACRepository()
	auditRepo := repository.NewAuditRepository()
	patientRepo := repository.NewPatientRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	medicalRepo := repository.NewMedicalRepository()
	billingRepo := repository.NewBillingRepository()
	inventoryRepo := repository.NewInventoryRepository()

	// Auth, permissions and notifications
	evaluator := rbac.NewEvaluator(rbacRepo)
	sessions := auth.NewSessions(cfg.Auth.SessionTTL)
	ownerTokens := auth.NewOwnerTokens(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	hub := notify.NewHub()

	// Services
	provisioningService := services.NewProvisioningService(tenantRepo, resolver, manager)
	appointmentService := services.NewAppointmentService(appointmentRepo, auditRepo, hub)
	medicalService := services.NewMedicalService(medicalRepo, auditRepo)
	billingService := services.NewBillingService(billingRepo, auditRepo, hub)
	inventoryService := services.NewInventoryService(inventoryRepo, auditRepo)

	// Handlers
	healthHandler := handlers.NewHealthHandler(ownerDB)
	authHandler := handlers.NewAuthHandler(userRepo, sessions, evaluator)
	adminHandler := handlers.NewAdminHandler(tenantRepo, provisioningService, ownerTokens)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentService, evaluator)
	medicalHandler := handlers.NewMedicalHandler(medicalService)
	billingHandler := handlers.NewBillingHandler(billingService, evaluator)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, evaluator)
	patientHandler := handlers.NewPatientHandler(patientRepo)
	rbacHandler := handlers.NewRBACHandler(rbacRepo)
	auditHandler := handlers.NewAuditHandler(auditRepo, evaluator)
	wsHandler := handlers.NewWSHandler(hub)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no authentication required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Owner portal: platform accounts manage the tenant registry
	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", adminHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.OwnerAuth(ownerTokens))
			r.Get("/tenants", adminHandler.ListTenants)
			r.Post("/tenants", adminHandler.CreateTenant)
			r.Patch("/tenants/{id}/status", adminHandler.SetTenantStatus)
		})
	})

	// Tenant API: every route below resolves the tenant first
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Tenant(resolver, manager))

		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(sessions))

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)
			r.Get("/ws", wsHandler.Connect)

			r.Route("/appointments", func(r chi.Router) {
				r.With(middleware.RequirePermission(evaluator, rbac.ResourceAppointments, rbac.ActionCreate)).
					Post("/", appointmentHandler.Create)
				r.With(middleware.RequirePermission(evaluator, rbac.ResourceAppointments, rbac.ActionRead)).
					Get("/", appointmentHandler.List)
				r.With(middleware.RequirePermission(evaluator, rbac.ResourceAppointments, rbac.ActionUpdate)).
					Patch("/{id}/status", appointmentHandler.UpdateStatus)
			})

			r.Route("/medical-records", func(r chi.Router) {
				r.With(middleware.RequirePermission(evaluator, rbac.ResourceMedicalRecords, rbac.ActionCreate)).
					Post("/", medicalHandler.CreateNote)
				r.With(middleware.RequirePermission(evaluator, rbac.ResourceMedicalRecords, rbac.ActionRead)).
					Get("/patient/{patientID}", medicalHandler.ListByPatient)
				r.With(middleware.RequirePermission(evaluator, rbac.ResourceMedicalRecords, rbac.ActionUpdate)).
					Put("/{id}", medicalHandler.UpdateNote)
				r.With(middleware.RequirePermission(evaluator, rbac.ResourceMedicalRecords, rbac.ActionUpdate)).
					Post("/{id}/sign", medicalHandler.SignNote)
			})

			r.Route("/invoices", func(r chi.Router) {
				r.With(middleware.RequirePermission(evaluator, rbac.ResourceBilling, rbac.ActionCreate)).
					Post("/", billingHandler.CreateInvoice)
				r.With(middleware.RequirePermission(evaluator, rbac.ResourceBilling, rbac.ActionRead)).
					Get("/", billingHandler.List)
				r.With(middleware.RequirePermission(evaluator, rbac.ResourceBilling, rbac.ActionRead)).
					Get("/{id}", billingHandler.GetInvoice)
				r.With(middleware.RequirePermission(evaluator, rbac.ResourceBilling, rbac.ActionUpdate)).
					Post("/{id}/payments", billingHandler.RecordPayment)
			})

			r.Route("/inventory", func(r chi.Router) {
				r.With(middleware.RequirePermission(evaluator, rbac.ResourceInventory, rbac.ActionCreate)).
					Post("/", inventoryHandler.CreateItem)
				r.With(middleware.RequirePermission(evaluator, rbac.ResourceInventory, rbac.ActionRead)).
					Get("/", inventoryHandler.List)
				r.With(middleware.RequirePermission(evaluator, rbac.ResourceInventory, rbac.ActionRead)).
					Get("/low-stock", inventoryHandler.ListLowStock)
				r.With(middleware.RequirePermission(evaluator, rbac.ResourceInventory, rbac.ActionUpdate)).
					Post("/{id}/adjust", inventoryHandler.Adjust)
			})

			r.Route("/clients", func(r chi.Router) {
				r.With(middleware.RequirePermission(evaluator, rbac.ResourcePatients, rbac.ActionCreate)).
					Post("/", patientHandler.CreateClient)
				r.With(middleware.RequirePermission(evaluator, rbac.ResourcePatients, rbac.ActionRead)).
					Get("/{id}", patientHandler.GetClient)
				r.With(middleware.RequirePermission(evaluator, rbac.ResourcePatients, rbac.ActionRead)).
					Get("/{id}/patients", patientHandler.ListPatientsByClient)
			})

			r.Route("/patients", func(r chi.Router) {
				r.With(middleware.RequirePermission(evaluator, rbac.ResourcePatients, rbac.ActionCreate)).
					Post("/", patientHandler.CreatePatient)
				r.With(middleware.RequirePermission(evaluator, rbac.ResourcePatients, rbac.ActionRead)).
					Get("/{id}", patientHandler.GetPatient)
			})

			r.Route("/roles", func(r chi.Router) {
				r.Use(middleware.RequirePermission(evaluator, rbac.ResourceRoles, rbac.ActionManage))
				r.Post("/", rbacHandler.CreateRole)
				r.Get("/", rbacHandler.ListRoles)
				r.Put("/{id}", rbacHandler.UpdateRole)
				r.Delete("/{id}", rbacHandler.DeleteRole)

				r.Post("/categories", rbacHandler.CreateCategory)
				r.Get("/categories", rbacHandler.ListCategories)
				r.Patch("/categories/{id}/active", rbacHandler.SetCategoryActive)

				r.Post("/overrides", rbacHandler.CreateOverride)
				r.Delete("/overrides/{id}", rbacHandler.RevokeOverride)
				r.Get("/overrides/user/{userID}", rbacHandler.ListOverrides)
			})

			r.With(middleware.RequirePermission(evaluator, rbac.ResourceReports, rbac.ActionRead)).
				Get("/audit", auditHandler.List)
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
