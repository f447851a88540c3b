package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/huddlehq/huddle/go/internal/models"
	"github.com/huddlehq/huddle/go/internal/standup/storage"
)

// Dumps the persisted activity log for a team from the local state store.
// Useful when diagnosing what the console recorded after the fact.
func main() {
	path := flag.String("store", "standup.db", "path to the state store")
	teamID := flag.Int64("team", 0, "team id")
	clear := flag.Bool("clear", false, "delete the log after printing")
	flag.Parse()

	if *teamID == 0 {
		fmt.Fprintln(os.Stderr, "usage: logdump -team <id> [-store path] [-clear]")
		os.Exit(1)
	}

	store, err := storage.OpenSQLite(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	key := fmt.Sprintf("standup-log-%d", *teamID)
	raw, ok, err := store.Get(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read log: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Printf("no log recorded for team %d\n", *teamID)
		return
	}

	var entries []models.LogEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		fmt.Fprintf(os.Stderr, "corrupt log payload: %v\n", err)
		os.Exit(1)
	}

	for _, e := range entries {
		fmt.Printf("%s  %s\n", e.Timestamp, e.Message)
	}
	fmt.Printf("%d entries\n", len(entries))

	if *clear {
		if err := store.Delete(key); err != nil {
			fmt.Fprintf(os.Stderr, "clear log: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("log cleared")
	}
}
