// Command cochin is a terminal front for the Cochin Project Manager client
// core: it logs in, lists and creates tables, lists records and drives a
// backup restore against a running backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/cochinpm/client/internal/backup"
	"github.com/cochinpm/client/internal/httpclient"
	"github.com/cochinpm/client/internal/records"
	"github.com/cochinpm/client/internal/session"
	"github.com/cochinpm/client/internal/tablestore"
	"github.com/cochinpm/client/pkg/models"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: cochin <command> [args]

Commands:
  tables                      list tables
  tables-create <name>        create a table
  records <table-id>          list records of a table
  restore <file> <strategy>   upload and restore a backup

Environment: COCHIN_BASE_URL, COCHIN_USERNAME, COCHIN_PASSWORD (or .env)`)
	os.Exit(2)
}

func main() {
	_ = godotenv.Load()
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	baseURL := os.Getenv("COCHIN_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	client := httpclient.New(baseURL, nil)
	mgr := session.NewManager(client, session.Config{}, redirectNotifier{})
	defer mgr.Close()
	tables := tablestore.NewStore(client)
	rc := records.NewCoordinator(client, tables)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := mgr.Initialize(ctx); err != nil {
		log.Fatalf("Failed to reach backend: %v", err)
	}
	if !mgr.Snapshot().IsAuthenticated {
		creds := models.Credentials{
			Username: os.Getenv("COCHIN_USERNAME"),
			Password: os.Getenv("COCHIN_PASSWORD"),
		}
		if err := mgr.Login(ctx, creds); err != nil {
			log.Fatalf("Login failed: %v", err)
		}
	}

	switch args[0] {
	case "tables":
		list, err := tables.FetchTables(ctx)
		if err != nil {
			log.Fatalf("Failed to list tables: %v", err)
		}
		for _, t := range list {
			active := " "
			if t.IsActive {
				active = "*"
			}
			fmt.Printf("%s %-36s %-24s %s\n", active, t.ID, t.Slug, t.Name)
		}

	case "tables-create":
		if len(args) < 2 {
			usage()
		}
		created, err := tables.CreateTable(ctx, models.Table{Name: args[1], IsActive: true})
		if err != nil {
			log.Fatalf("Failed to create table: %v", err)
		}
		fmt.Printf("Created table %s (slug %s)\n", created.ID, created.Slug)

	case "records":
		if len(args) < 2 {
			usage()
		}
		recs, err := rc.FetchRecords(ctx, args[1], nil)
		if err != nil {
			log.Fatalf("Failed to list records: %v", err)
		}
		for _, r := range recs {
			fmt.Println(r.ID())
		}

	case "restore":
		if len(args) < 3 {
			usage()
		}
		runRestore(ctx, client, tables, args[1], args[2])

	default:
		usage()
	}
}

func runRestore(ctx context.Context, client *httpclient.Client, tables *tablestore.Store, path, strategy string) {
	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open backup file: %v", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		log.Fatalf("Failed to stat backup file: %v", err)
	}

	orch := backup.New(client, tables, func(s backup.State) {
		log.Printf("restore: %s (%d%%)", s.Phase, s.Progress)
	})
	outcome, err := orch.Run(ctx, file, path, info.Size(), "", strategy)
	if err != nil {
		log.Fatalf("Restore failed: %v", err)
	}
	if outcome.Restoration != nil {
		fmt.Printf("Restored %d tables / %d records / %d files\n",
			outcome.Restoration.TablesRestored,
			outcome.Restoration.RecordsRestored,
			outcome.Restoration.FilesRestored)
	}
}

// redirectNotifier is the CLI's session notifier: there is no UI to warn,
// so it only reports.
type redirectNotifier struct{}

func (redirectNotifier) OnStateChange(state session.State) {}
func (redirectNotifier) OnWarning(remaining time.Duration) {
	log.Printf("session expires in %s", remaining)
}
func (redirectNotifier) OnRedirect(target string) {
	log.Printf("session ended; log in again (%s)", target)
}
