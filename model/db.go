package model

import (
	"fmt"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the main entry point of the model layer.
type Store struct {
	db     *gorm.DB
	Config *Config
}

type Config struct {
	Mode    string
	Port    int
	Servers map[string]server
}

type server struct {
	Database   string
	DBName     string
	DBUser     string
	DBPassword string
	DBHost     string
	DBLogger   string
}

// shared helper for GORM logger
func gormLoggerFor(cfg *Config, svr server) *gorm.Config {
	gormConfig := &gorm.Config{}
	switch svr.DBLogger {
	case "info":
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	case "silent":
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	default:
		if cfg.Mode == "development" {
			gormConfig.Logger = logger.Default.LogMode(logger.Info)
		} else {
			gormConfig.Logger = logger.Default.LogMode(logger.Silent)
		}
	}
	return gormConfig
}

func (s *Store) autoMigrate() error {
	return s.db.AutoMigrate(&User{})
}

// InitDatabase starts the database
func InitDatabase(cfg *Config) (*Store, error) {
	var err error

	s := &Store{Config: cfg}
	svr := cfg.Servers[cfg.Mode]

	switch svr.Database {
	case "sqlite", "sqlite3":
		filename := filepath.Join("db", svr.DBName)
		s.db, err = gorm.Open(sqlite.Open(filename), gormLoggerFor(cfg, svr))
		if err != nil {
			return nil, err
		}
	case "postgresql":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=5432 sslmode=disable TimeZone=UTC",
			svr.DBHost, svr.DBUser, svr.DBPassword, svr.DBName)
		s.db, err = gorm.Open(postgres.Open(dsn), gormLoggerFor(cfg, svr))
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown database %q", svr.Database)
	}
	if err = s.autoMigrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenTestStore opens a throwaway database for tests.
func OpenTestStore(filename string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(filename), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, Config: &Config{Mode: "test"}}
	if err := s.autoMigrate(); err != nil {
		return nil, err
	}
	return s, nil
}
