package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/userdeskapp/userdesk/controller"
	"github.com/userdeskapp/userdesk/model"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pelletier/go-toml/v2"
)

func loadConfig(filename string) (*model.Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	cfg := &model.Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runMigrations applies all pending SQL migrations. The migrations
// directory and the DSN depend on the build tag (sqlite or postgres).
func runMigrations(cfg *model.Config) error {
	m, err := migrate.New("file://"+migrationsDir(), migrateDSN(cfg))
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}

func dothings() error {
	configFile := flag.String("config", "config.toml", "path to the configuration file")
	doMigrate := flag.Bool("migrate", false, "run database migrations and exit")
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return err
	}
	if *doMigrate {
		if err := runMigrations(cfg); err != nil {
			return fmt.Errorf("cannot run migrations: %w", err)
		}
		return nil
	}
	db, err := model.InitDatabase(cfg)
	if err != nil {
		return err
	}
	return controller.NewController(db)
}

func main() {
	if err := dothings(); err != nil {
		log.Fatal(err)
	}
}
