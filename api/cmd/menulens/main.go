package main

import (
	"context"
	"log"
	"net/http"

	"menu-lens/api/internal/app"
	"menu-lens/api/internal/config"
	"menu-lens/api/internal/handle"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := a.Healthz(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	handle.New(a.Scanner, a.Ingest, a.Sessions).Register(mux)

	addr := ":" + cfg.Port
	log.Printf("menulens listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}
