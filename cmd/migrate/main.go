package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"ms-gallery/internal/config"
	"ms-gallery/internal/database/migrations"
	"ms-gallery/internal/logger"

	"github.com/joho/godotenv"
)

const usage = `usage: migrate [-dir ./migrations] <command>

commands:
  up          apply all pending migrations
  down        roll back every migration
  to <n>      migrate up or down to version n
  version     print the current schema version
`

func main() {
	_ = godotenv.Load()

	dir := flag.String("dir", "", "migrations directory (default MIGRATIONS_DIR)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.DSN == "" {
		fmt.Fprintln(os.Stderr, "POSTGRES_DSN not set")
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.Logging.Level)

	opts := migrations.MigrateOptions{MigrationsDir: cfg.Database.MigrationsDir}
	if *dir != "" {
		opts.MigrationsDir = *dir
	}
	runner := migrations.NewRunner(cfg.Database.DSN, opts, log)
	defer runner.Close()

	if err := run(runner, flag.Args()); err != nil {
		log.Error("MIGRATION", err.Error())
		runner.Close()
		os.Exit(1)
	}
}

func run(runner *migrations.Runner, args []string) error {
	switch args[0] {
	case "up":
		return runner.RunMigrations()
	case "down":
		return runner.MigrateDown()
	case "to":
		if len(args) < 2 {
			return fmt.Errorf("to: missing version")
		}
		version, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("to: invalid version %q", args[1])
		}
		return runner.MigrateTo(uint(version))
	case "version":
		version, dirty, err := runner.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
