// cmd/reconciliation/main.go
package main

import (
	"flag"
	"log"

	"reconciliation-service/internal/api"
	"reconciliation-service/internal/api/responses"
	"reconciliation-service/internal/config"
	"reconciliation-service/internal/core/auth"
	"reconciliation-service/internal/core/importer"
	"reconciliation-service/internal/core/reconciliation"
	"reconciliation-service/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "caminho do arquivo de configuração (vazio = só variáveis de ambiente)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Falha ao carregar a configuração: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuração inválida: ", err)
	}

	logger, err := responses.InitLogger(cfg.App.LogLevel)
	if err != nil {
		log.Fatal("Falha ao iniciar o logger: ", err)
	}
	defer logger.Sync() //nolint:errcheck

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("fuso horário inválido", zap.Error(err))
	}

	db, err := storage.Open(storage.MySQLConfig{
		DSN:             cfg.MySQL.DSN,
		MaxOpenConns:    cfg.MySQL.MaxOpenConns,
		MaxIdleConns:    cfg.MySQL.MaxIdleConns,
		ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
		AutoMigrate:     cfg.MySQL.AutoMigrate,
	})
	if err != nil {
		logger.Fatal("falha ao conectar ao MySQL", zap.Error(err))
	}
	defer storage.Close(db) //nolint:errcheck
	repo := storage.NewRepository(db)

	// Sem redis o import roda sem lock e sem notificação.
	var (
		locker   importer.Locker
		notifier importer.Notifier
	)
	if cfg.Redis.Addr != "" {
		rdb, err := storage.NewRedis(storage.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
			LockTTL:  cfg.Redis.LockTTL,
		})
		if err != nil {
			logger.Fatal("falha ao conectar ao redis", zap.Error(err))
		}
		defer rdb.Close() //nolint:errcheck
		locker, notifier = rdb, rdb
	} else {
		logger.Warn("redis desabilitado: importações sem lock e sem notificação")
	}

	authService := auth.NewService(repo, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL, logger.Named("auth"))
	importService := importer.NewService(repo, locker, notifier, importer.Options{
		HeaderRow:           cfg.Import.HeaderRow,
		SampleRows:          cfg.Import.SampleRows,
		SkippedNumbersLimit: cfg.Import.SkippedNumbersLimit,
		Location:            loc,
	}, logger.Named("importer"))
	anchor, err := reconciliation.ParseAgeAnchor(cfg.Reconciliation.AgeAnchor)
	if err != nil {
		logger.Fatal("reconciliation.age_anchor inválido", zap.Error(err))
	}
	engine := reconciliation.NewEngine(repo, nil, loc, reconciliation.Settings{
		DashboardCutoffDays: cfg.Reconciliation.DashboardCutoffDays,
		ReportCutoffDays:    cfg.Reconciliation.ReportCutoffDays,
		TopLimit:            cfg.Reconciliation.TopLimit,
		AgeAnchor:           anchor,
	}, logger.Named("reconciliation"))

	if cfg.App.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(api.Dependencies{
		Auth:       authService,
		Importer:   importService,
		Engine:     engine,
		CSVCharset: cfg.Export.CSVCharset,
	})

	port := cfg.HTTP.Port
	log.Printf("🚀 Reconciliation Service (Go) iniciado e escutando na porta %s", port)
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("Falha ao iniciar o servidor de conciliação", zap.Error(err))
	}
}
