package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wastewatch/wastewatch-api/src/api/config"
	"github.com/wastewatch/wastewatch-api/src/api/data"
	"github.com/wastewatch/wastewatch-api/src/api/types"
	"github.com/wastewatch/wastewatch-api/src/api/webserver"
	"gorm.io/gorm"
)

var allModels = []interface{}{
	&types.User{}, &types.Report{},
	&types.Verification{}, &types.PhotoFingerprint{},
	&types.ReputationScore{}, &types.ReputationAward{},
}

func migrate(db *gorm.DB) {
	if err := db.AutoMigrate(allModels...); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}

func main() {
	cfg := config.Load()

	db := data.MustMySQL(cfg.MySQLDSN)
	migrate(db)

	rdb := data.MustRedis(cfg.RedisURL)

	router := webserver.New(cfg, db, rdb)
	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	serve := func() error { return httpSrv.ListenAndServe() }
	if cfg.TLSCert != "" && cfg.TLSKey != "" {
		reloader, err := webserver.NewTLSReloader(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			log.Fatalf("tls: %v", err)
		}
		httpSrv.TLSConfig = reloader.Config()
		serve = func() error { return httpSrv.ListenAndServeTLS("", "") }
	}

	go func() {
		if err := serve(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()
	log.Printf("WasteWatch API listening on %s", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
