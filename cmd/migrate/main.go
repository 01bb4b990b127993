package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/amrouehab/AirBnB-clone-v3/internal/config"
	"github.com/amrouehab/AirBnB-clone-v3/internal/database"
	"github.com/amrouehab/AirBnB-clone-v3/internal/logging"
)

const usage = "usage: migrate up|down|version|force <version>"

func main() {
	_ = godotenv.Load()
	log := logging.New(logging.Config{Level: "info", Format: "text"})

	if len(os.Args) < 2 {
		log.Fatal().Msg(usage)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	db, driver, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect")
	}
	defer db.Close()

	mg, err := database.NewMigrator(db, driver)
	if err != nil {
		log.Fatal().Err(err).Msg("prepare migrations")
	}
	if err := run(mg, os.Args[1:], log); err != nil {
		log.Fatal().Err(err).Str("cmd", os.Args[1]).Msg("migrate")
	}
}

func run(mg *database.Migrator, args []string, log zerolog.Logger) error {
	switch args[0] {
	case "up":
		if err := mg.Up(); err != nil {
			return err
		}
		log.Info().Msg("migrations applied")
	case "down":
		if err := mg.Down(); err != nil {
			return err
		}
		log.Info().Msg("migrations rolled back")
	case "version":
		v, dirty, err := mg.Version()
		if err != nil {
			return err
		}
		log.Info().Uint("version", v).Bool("dirty", dirty).Msg("schema version")
	case "force":
		if len(args) != 2 {
			log.Fatal().Msg(usage)
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		if err := mg.Force(v); err != nil {
			return err
		}
		log.Info().Int("version", v).Msg("version forced")
	default:
		log.Fatal().Msg(usage)
	}
	return nil
}
