package database

import (
	"fmt"
	"log"
	"time"

	"github.com/okeyenglish/okey-learn-connect-sub016/config"
	"github.com/okeyenglish/okey-learn-connect-sub016/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage defines the interface the rest of the app depends on
type Storage interface {
	Init() error
	Close() error
	HealthCheck() error

	// GetDB returns the underlying *gorm.DB
	GetDB() interface{}
}

type GORMStore struct {
	db *gorm.DB
}

// StartGORM initializes a GORM connection to PostgreSQL
func StartGORM() (*GORMStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		getEnv.DB_HOST,
		getEnv.DB_USER_NAME,
		getEnv.DB_PASSWORD,
		getEnv.DB_NAME,
		getEnv.DB_PORT,
		getEnv.DB_SSL_MODE,
	)

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if getEnv.GO_ENV == "production" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: false,
		PrepareStmt:            true,
	})
	if err != nil {
		log.Println("Unable to connect to PostgreSQL with GORM:", err)
		return nil, err
	}

	// Get underlying *sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Successfully connected to PostgreSQL Database with GORM.")

	return &GORMStore{db: db}, nil
}

// Init runs AutoMigrate and installs the ledger change-notification triggers
func (s *GORMStore) Init() error {
	log.Println("Running GORM AutoMigrate for all models...")

	err := s.db.AutoMigrate(
		// Portal accounts
		&model.User{},

		// Lesson ledger models
		&model.Lesson{},
		&model.LessonSession{},
		&model.LessonPayment{},
		&model.CoursePrice{},

		// Audit & logging models
		&model.CronJobLog{},
	)
	if err != nil {
		log.Println("Error running AutoMigrate:", err)
		return err
	}

	if err := s.installChangeTriggers(); err != nil {
		log.Println("Error installing change triggers:", err)
		return err
	}

	log.Println("GORM AutoMigrate completed successfully!")
	return nil
}

// installChangeTriggers makes Postgres announce every session/payment write
// on the ledger_changed channel, so ledgers recompute even for rows written
// by other tools (admin SQL, imports). Idempotent.
func (s *GORMStore) installChangeTriggers() error {
	statements := []string{
		`CREATE OR REPLACE FUNCTION notify_ledger_changed() RETURNS trigger AS $$
		DECLARE
			lesson uuid;
		BEGIN
			IF TG_OP = 'DELETE' THEN
				lesson := OLD.lesson_id;
			ELSE
				lesson := NEW.lesson_id;
			END IF;
			PERFORM pg_notify('ledger_changed', lesson::text);
			RETURN NULL;
		END;
		$$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS lesson_sessions_ledger_changed ON lesson_sessions`,
		`CREATE TRIGGER lesson_sessions_ledger_changed
			AFTER INSERT OR UPDATE OR DELETE ON lesson_sessions
			FOR EACH ROW EXECUTE FUNCTION notify_ledger_changed()`,
		`DROP TRIGGER IF EXISTS lesson_payments_ledger_changed ON lesson_payments`,
		`CREATE TRIGGER lesson_payments_ledger_changed
			AFTER INSERT OR UPDATE OR DELETE ON lesson_payments
			FOR EACH ROW EXECUTE FUNCTION notify_ledger_changed()`,
	}

	for _, stmt := range statements {
		if err := s.db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	log.Println("Closing GORM PostgreSQL connection...")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance for use in services/handlers
func (s *GORMStore) GetDB() interface{} {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
