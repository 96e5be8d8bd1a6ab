package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/JaimeStill/factotum/internal/config"
	"github.com/JaimeStill/factotum/internal/migrations"
)

const envDSN = "FACTOTUM_DB_DSN"

func main() {
	var (
		dsn     = flag.String("dsn", "", "Database URL (defaults to $FACTOTUM_DB_DSN, then the database section of config.toml)")
		up      = flag.Bool("up", false, "Run all up migrations")
		down    = flag.Bool("down", false, "Run all down migrations")
		steps   = flag.Int("steps", 0, "Number of migrations (positive=up, negative=down)")
		version = flag.Bool("version", false, "Print current migration version")
		force   = flag.Int("force", -1, "Force set version (use with caution)")
		list    = flag.Bool("list", false, "List embedded migration files and exit")
	)
	flag.Parse()

	if *list {
		names, err := migrations.Files()
		if err != nil {
			log.Fatal(err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	forceSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			forceSet = true
		}
	})

	url, err := resolveDSN(*dsn)
	if err != nil {
		log.Fatal(err)
	}

	m, err := migrations.New(url)
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	switch {
	case *version:
		v, dirty, err := m.Version()
		if err != nil {
			log.Fatalf("failed to get version: %v", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", v, dirty)
	case forceSet:
		if err := m.Force(*force); err != nil {
			log.Fatalf("failed to force version: %v", err)
		}
		fmt.Printf("forced to version %d\n", *force)
	case *up:
		if err := m.Up(); err != nil {
			log.Fatalf("failed to run up migrations: %v", err)
		}
		fmt.Println("schema is up to date")
	case *down:
		if err := m.Down(); err != nil {
			log.Fatalf("failed to run down migrations: %v", err)
		}
		fmt.Println("migrations reverted")
	case *steps != 0:
		if err := m.Steps(*steps); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		fmt.Printf("applied %d migration steps\n", *steps)
	default:
		fmt.Println("usage: migrate [-dsn URL] [-up|-down|-steps N|-version|-force N|-list]")
		flag.PrintDefaults()
	}
}

// resolveDSN prefers the flag, then the environment, then the same database
// settings the server reads.
func resolveDSN(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return cfg.Database.URL(), nil
}
