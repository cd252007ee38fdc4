package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/mind-engage/gradecalc/internal/api/http"
	auth "github.com/mind-engage/gradecalc/internal/auth/middleware"
	"github.com/mind-engage/gradecalc/internal/config"
	"github.com/mind-engage/gradecalc/internal/db"
	"github.com/mind-engage/gradecalc/internal/rbac"
	"github.com/mind-engage/gradecalc/internal/store"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	src := store.NewSQLStore(dbh, cfg.DBDriver)
	reg := api.NewEngineRegistry(src, cfg.Calc)
	whatIf := api.NewWhatIfManager(reg)

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require("score:edit")).
			Post("/classes/{classID}/scores", api.SetScoreHandler(reg))
		pr.With(rbac.Require("mark:lock")).
			Post("/classes/{classID}/marks/lock", api.LockMarkHandler(reg))
		pr.With(rbac.Require("class:reload")).
			Post("/classes/{classID}/reload", api.ReloadClassHandler(reg))

		pr.With(rbac.RequireAny("grades:view-own", "grades:view-all")).
			Get("/classes/{classID}/students/{studentID}/grades", api.GetGradeCardHandler(reg))
		pr.With(rbac.RequireAny("grades:view-own", "grades:view-all")).
			Get("/classes/{classID}/students/{studentID}/periods/{periodID}/grade", api.GetPeriodGradeHandler(reg))

		// What-if projections
		pr.With(rbac.Require("whatif:create")).
			Post("/classes/{classID}/whatif", api.CreateWhatIfHandler(whatIf))
		pr.With(rbac.Require("whatif:edit")).
			Post("/whatif/{sessionID}/scores", api.WhatIfScoreHandler(whatIf))
		pr.With(rbac.Require("whatif:view")).
			Get("/whatif/{sessionID}/students/{studentID}/grades", api.WhatIfGradeHandler(whatIf))
		pr.With(rbac.Require("whatif:delete")).
			Delete("/whatif/{sessionID}", api.DeleteWhatIfHandler(whatIf))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
