package app

import (
	"fmt"
	"log"
	"os"

	"github.com/okeyenglish/okey-learn-connect-sub016/api"
	"github.com/okeyenglish/okey-learn-connect-sub016/config"
	"github.com/okeyenglish/okey-learn-connect-sub016/database"
	"github.com/okeyenglish/okey-learn-connect-sub016/ledger"
	"github.com/okeyenglish/okey-learn-connect-sub016/router"
	"github.com/okeyenglish/okey-learn-connect-sub016/services"
	"github.com/okeyenglish/okey-learn-connect-sub016/services/cron"
	"github.com/okeyenglish/okey-learn-connect-sub016/services/spaces"
	"github.com/okeyenglish/okey-learn-connect-sub016/utils/cache"
	"gorm.io/gorm"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		return err
	}

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		store.Close()
		return fmt.Errorf("failed to get GORM DB instance")
	}

	// Redis is optional: without it the ledger is recomputed on every read
	// and cross-process invalidation is off
	var redisCache *cache.RedisCache
	if getEnv.REDIS_URL != "" {
		redisCache, err = cache.NewRedisCache(getEnv.REDIS_URL)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis: %v. Ledger caching disabled.", err)
			redisCache = nil
		}
	}

	notifier := ledger.NewNotifier()
	ledgerSvc := services.NewLedgerService(db, redisCache, notifier)

	// Pick up invalidations published by other API processes
	stopSubscriber := ledgerSvc.StartInvalidationSubscriber()

	// Postgres LISTEN/NOTIFY catches writes that bypass this API
	// (imports, manual SQL fixes)
	changeListener, err := database.StartChangeListener(ledgerSvc.HandleChangeEvent)
	if err != nil {
		log.Printf("Warning: change listener unavailable: %v", err)
	}

	// Spaces export is optional; without credentials the snapshot job is
	// simply not registered
	var exportSvc *services.ExportService
	if getEnv.SPACES_ACCESS_KEY != "" && getEnv.SPACES_BUCKET != "" {
		spacesClient, err := spaces.NewClient(spaces.Config{
			AccessKey: getEnv.SPACES_ACCESS_KEY,
			SecretKey: getEnv.SPACES_SECRET_KEY,
			Bucket:    getEnv.SPACES_BUCKET,
			Region:    getEnv.SPACES_REGION,
			Endpoint:  getEnv.SPACES_ENDPOINT,
		})
		if err != nil {
			log.Printf("Warning: Spaces client unavailable: %v. Snapshot export disabled.", err)
		} else {
			exportSvc = services.NewExportService(db, ledgerSvc, spacesClient)
		}
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" { // Default to enabled
		cronManager = cron.NewCronManager(db, ledgerSvc, exportSvc)
		if err := cronManager.Start(); err != nil {
			log.Printf("Warning: Failed to start cron jobs: %v", err)
			// Don't fail the app, just log the warning
		}
	}

	// Defer shutdown in reverse start order
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		if changeListener != nil {
			changeListener.Close()
		}
		stopSubscriber()
		notifier.Close()
		store.Close()
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT), store)

	// Setup Routes
	router.SetupRoutes(server.GetEngine(), store, ledgerSvc)

	// Get the PORT & Start the Server
	return server.Run()
}
