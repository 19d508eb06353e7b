package dao

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
	"k8s.io/klog/v2"

	"github.com/grad-lab/capstone-backend/pkg/config"
)

var (
	once     sync.Once
	instance *gorm.DB
)

// GetDB returns the singleton instance of the database connection.
func GetDB() *gorm.DB {
	once.Do(func() {
		dbConfig := config.GetConfig()

		dsn := postgresDSN(dbConfig.Postgres)
		var err error
		instance, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
		if err != nil {
			panic(err)
		}

		// Route reads to the replica when one is configured.
		if dbConfig.Postgres.ReplicaHost != "" {
			replica := dbConfig.Postgres
			replica.Host = dbConfig.Postgres.ReplicaHost
			if err = instance.Use(dbresolver.Register(dbresolver.Config{
				Replicas:          []gorm.Dialector{postgres.Open(postgresDSN(replica))},
				TraceResolverMode: true,
			})); err != nil {
				panic(err)
			}
		}

		maxIdleConns := 5
		maxOpenConns := 10
		sqlDB, err := instance.DB()
		if err != nil {
			panic(err)
		}
		sqlDB.SetMaxIdleConns(maxIdleConns)
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetConnMaxLifetime(time.Hour)

		klog.Info("Postgres init success!")
	})
	return instance
}

func postgresDSN(pg config.PostgresConfig) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		pg.Host, pg.User, pg.Password, pg.DBName, pg.Port, pg.SSLMode, pg.TimeZone)
}
