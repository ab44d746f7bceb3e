package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	adapthttp "mathtutor/internal/adapter/http"
	"mathtutor/internal/adapter/memory"
	"mathtutor/internal/adapter/openai"
	"mathtutor/internal/adapter/postgres"
	"mathtutor/internal/adapter/tesseract"
	"mathtutor/internal/app"
	"mathtutor/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Sessions and their transcripts are process-local; only credentials
	// survive a restart.
	sessions := memory.NewSessionStore()

	ai := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if cfg.OpenAIBaseURL != "" {
		ai = ai.WithBaseURL(cfg.OpenAIBaseURL)
	}
	ocr := tesseract.New(cfg.OCRLanguage)

	authSvc := app.NewAuthService(db, sessions)
	tutorSvc := app.NewTutorService(ai, ocr, ai, sessions)

	oidcCfg, err := adapthttp.LoadOIDC(context.Background(), cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.OIDCRedirectURL)
	if err != nil {
		log.Fatalf("oidc: %v", err)
	}

	h := adapthttp.New(authSvc, tutorSvc, oidcCfg, cfg.WebDir).Handler()
	log.Printf("listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
