package main

import (
	"fmt"
	"net/http"

	"WooWithSupplier/internal/config"
	"WooWithSupplier/internal/database"
	"WooWithSupplier/internal/handlers/httphandler"
	"WooWithSupplier/internal/mapping"
	"WooWithSupplier/internal/supplierapi"
	"WooWithSupplier/internal/sync"
	"WooWithSupplier/internal/translate"
	"WooWithSupplier/internal/version"
	"WooWithSupplier/internal/wooapi"
	"WooWithSupplier/pkg/logging"

	"github.com/jmoiron/sqlx"
)

func main() {
	logger := logging.GetLogger()
	logger.Infof("WooWithSupplier, версия %s", version.GetVersion().String())

	cfg := config.GetConfig()
	logging.SetDebug(cfg.LOG.Debug == 1)

	if !database.Exists(cfg.DBSQLITE.DB) {
		logger.Infof("База %s не найдена, создаем", cfg.DBSQLITE.DB)
		if err := database.CreateDB(cfg.DBSQLITE.DB); err != nil {
			logger.Fatal(err)
		}
	}
	db, err := sqlx.Open("sqlite3", cfg.DBSQLITE.DB)
	if err != nil {
		logger.Fatal(err)
	}
	defer db.Close()

	supplier := supplierapi.NewAPI(cfg.SUPPLIER.URL, cfg.SUPPLIER.Key, cfg.SUPPLIER.PageSize)
	woo := wooapi.NewAPI(cfg.WOOCOMMERCE.URL, cfg.WOOCOMMERCE.Key, cfg.WOOCOMMERCE.Secret, cfg.WOOCOMMERCE.RPS)

	backend, err := translate.NewBackendFromConfig(cfg)
	if err != nil {
		logger.Fatal(err)
	}
	translator, err := translate.NewTranslator(db, backend, cfg.TRANSLATE.TargetLang)
	if err != nil {
		logger.Fatal(err)
	}
	mapper := mapping.NewMapper(db)

	orchestrator := sync.NewOrchestrator(db, cfg, supplier, woo, translator, mapper)
	scheduler := sync.NewScheduler(orchestrator)
	if err := scheduler.Reload(); err != nil {
		logger.Fatal(err)
	}

	go func() {
		for {
			orchestrator.ServiceWithRecovered()
		}
	}()

	handler := httphandler.NewHandler(db, orchestrator, scheduler, mapper)
	addr := fmt.Sprintf(":%d", cfg.SERVICE.Port)
	logger.Infof("HTTP-сервис слушает %s", addr)
	logger.Fatal(http.ListenAndServe(addr, handler.Router()))
}
