package app

import (
	"io"
	"log"
	"time"

	"github.com/moalmobayed/barq-dashboard-sub001/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DBTimeout = 10 * time.Second

// StoreConfig owns the local sqlite store. It is a best-effort cache for
// state that has to survive process restarts: the push token issued by the
// provider and the delivery tags used to coalesce repeated push payloads.
type StoreConfig struct {
	*gorm.DB
	Path  string `env:"STORE_PATH"`
	Debug bool
}

// Setup opens the local store and migrates the cached models.
func (conf *StoreConfig) Setup() {

	// Keep the GORM logger silent so SQL never reaches stdout. Flip
	// STORE_DEBUG and rework this section if query logs are needed.
	newLogger := logger.New(
		log.New(io.Discard, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(conf.Path), &gorm.Config{
		PrepareStmt: true,
		Logger:      newLogger,
	})
	if err != nil {
		logrus.Fatal("Failed to open local store:", err)
	}

	conf.DB = db

	models := []interface{}{
		&model.PushToken{},
		&model.DeliveredPush{},
	}

	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			logrus.Warn("AutoMigrate error:", err)
		}
	}

	logrus.Info("Local store opened & migration completed")
}
