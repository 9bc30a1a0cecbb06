package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/splitpay/split_wallet_service/api"
	"github.com/splitpay/split_wallet_service/chain"
	"github.com/splitpay/split_wallet_service/config"
	"github.com/splitpay/split_wallet_service/db"
	"github.com/splitpay/split_wallet_service/domain"
	"github.com/splitpay/split_wallet_service/logging"
	"github.com/splitpay/split_wallet_service/repository"
	"github.com/splitpay/split_wallet_service/service"
)

func main() {
	logging.Setup()

	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		log.Fatal(err)
	}

	if err := db.InitMongo(context.Background(), cfg.MongoURI, cfg.DBName); err != nil {
		log.Fatalf("mongo init failed: %v", err)
	}

	walletRepo := repository.NewSplitWalletRepo()
	splitRepo := repository.NewSplitRepo()
	userRepo := repository.NewUserRepo()

	keystore := chain.NewStaticKeystore(cfg.Custody.Keys)
	ledger := chain.NewETHChain(cfg.Eth, keystore)
	sealer := domain.NewSealer(cfg.Custody.MasterKey)
	provisioner := domain.NewProvisioner()
	var notifier service.Notifier = service.NopNotifier{}
	if cfg.Notify.WebhookURL != "" {
		notifier = service.NewWebhookNotifier(cfg.Notify.WebhookURL)
	}

	walletService := service.NewSplitWalletService(
		walletRepo, ledger, provisioner, sealer, notifier, cfg.Wallet,
	)
	joinCoordinator := service.NewParticipantJoinCoordinator(
		splitRepo, walletRepo, userRepo, notifier,
	)
	repairService := service.NewMigrationRepairService(walletRepo)

	r := gin.Default()

	walletHandler := api.NewSplitWalletHandler(walletService, joinCoordinator, repairService)

	r.POST("/split-wallets", walletHandler.CreateSplitWallet)
	r.GET("/split-wallets/:walletID", walletHandler.GetSplitWallet)
	r.GET("/bills/:billID/wallet", walletHandler.GetByBillID)
	r.GET("/split-wallets/:walletID/completion", walletHandler.Completion)
	r.GET("/split-wallets/:walletID/secret-key", walletHandler.RevealSecretKey)

	r.POST("/split-wallets/:walletID/lock-amount", walletHandler.LockAmount)
	r.POST("/split-wallets/:walletID/lock", walletHandler.LockWallet)
	r.POST("/split-wallets/:walletID/pay", walletHandler.PayShare)
	r.POST("/split-wallets/:walletID/settle", walletHandler.Settle)
	r.POST("/split-wallets/:walletID/cancel", walletHandler.Cancel)
	r.POST("/split-wallets/:walletID/join", walletHandler.Join)

	r.POST("/split-wallets/:walletID/repair", walletHandler.Repair)
	r.POST("/split-wallets/:walletID/migrate-total", walletHandler.MigrateTotal)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server start failed: %v", err)
	}
}
