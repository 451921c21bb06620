package main

import (
	"time"

	"github.com/dayproof/dayproof/config"
	"github.com/dayproof/dayproof/engine"
	"github.com/dayproof/dayproof/models"
	"github.com/dayproof/dayproof/queue"
	"github.com/dayproof/dayproof/routes"
	"github.com/dayproof/dayproof/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Upload{},
		&models.RestDay{},
		&models.Streak{},
		&models.WeeklyChallenge{},
		&models.TrophyTransaction{},
		&models.RollupRun{},
	)

	// Event publishing is optional; accounting never depends on it.
	var pub engine.Publisher
	if cfg.AMQPURL != "" {
		p, err := queue.NewPublisher(cfg.AMQPURL, cfg.EventQueueName)
		if err != nil {
			utils.Sugar.Warnf("event publisher unavailable, continuing without: %v", err)
		} else {
			pub = p
		}
	}

	eng := engine.New(db, pub, utils.Sugar)
	eng.EnableDashboardCache()

	r := routes.SetupRouter(db, eng)

	// Fallback for deployments without an external cron; the rollup is
	// idempotent per calendar day.
	utils.StartRollupTimer(15*time.Minute, func() error {
		_, err := eng.RunNightlyRollup()
		return err
	})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
