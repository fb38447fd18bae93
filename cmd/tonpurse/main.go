package main

import (
	"context"
	"log"

	bolt "go.etcd.io/bbolt"

	"tonpurse/internal/config"
	"tonpurse/internal/entrypoint/telegram"
	"tonpurse/internal/ton"
	"tonpurse/internal/usecase"
	"tonpurse/internal/usecase/repository/idempotence"
	"tonpurse/internal/usecase/repository/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := bolt.Open(cfg.DBPath, 0600, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	idempotenceRepository, err := idempotence.NewBoltDB(db)
	if err != nil {
		log.Fatal(err)
	}
	idempotenceUsecase := usecase.NewIdempotence(idempotenceRepository)

	sessionRepository, err := session.NewBoltDB(db)
	if err != nil {
		log.Fatal(err)
	}
	sessions := usecase.NewSessions(sessionRepository)

	provider := ton.NewClient(cfg.ToncenterBaseURL, cfg.ToncenterAPIKey)
	transfers := usecase.NewTransferEngine()
	escrow := usecase.NewChequeEscrow()

	bot, err := telegram.New(
		cfg.TelegramToken, provider,
		sessions, transfers, escrow, idempotenceUsecase,
	)
	if err != nil {
		log.Fatal(err)
	}

	bot.Start(context.Background())

	select {}
}
