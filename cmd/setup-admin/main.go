package main

import (
	"context"
	"log"
	"os"

	"github.com/dominiquedave/Time-Financial/internal/server/repositories/repomanager"
	"github.com/dominiquedave/Time-Financial/internal/setupadmin"
	"github.com/joho/godotenv"
)

// openDB is a seam for tests.
var openDB = repomanager.Open

func main() {
	_ = godotenv.Load()

	opts, err := setupadmin.ParseArgs(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatal(err)
	}

	if !opts.Yes {
		if err := setupadmin.Confirm(os.Stdin, os.Stdout, opts.UserID); err != nil {
			log.Fatal(err)
		}
	}

	if err := run(context.Background(), opts); err != nil {
		log.Fatalf("promote %s: %v", opts.UserID, err)
	}
	log.Printf("user %s is now an admin", opts.UserID)
}

func run(ctx context.Context, opts *setupadmin.Options) error {
	db, err := openDB(ctx, opts.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	return setupadmin.Promote(ctx, db, repomanager.NewPostgresRepositoryManager(), opts.UserID)
}
