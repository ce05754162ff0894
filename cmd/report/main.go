// Command report renders the switching report for a recorded session as a
// standalone HTML file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/abdullah-azi/football-highlights/internal/events"
	"github.com/abdullah-azi/football-highlights/internal/report"
)

var (
	dbPath    = flag.String("db", "switching.db", "Events database path")
	sessionID = flag.String("session", "", "Session to report on (defaults to the most recent)")
	outPath   = flag.String("out", "report.html", "Output HTML file")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatalf("report: %v", err)
	}
}

func run() error {
	store, err := events.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	sess := *sessionID
	if sess == "" {
		sessions, err := store.Sessions(1)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			return fmt.Errorf("no sessions recorded in %s", *dbPath)
		}
		sess = sessions[0].SessionID
	}

	evs, err := store.ListSwitchEvents(sess, 0)
	if err != nil {
		return err
	}
	usage, err := store.CameraUsage(sess)
	if err != nil {
		return err
	}
	gaps, err := store.SwitchGaps(sess)
	if err != nil {
		return err
	}

	f, err := os.Create(*outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", *outPath, err)
	}
	defer f.Close()

	if err := report.WriteHTML(f, sess, evs, usage, gaps); err != nil {
		return err
	}
	log.Printf("wrote %s: session %s, %d switches", *outPath, sess, len(evs))
	return nil
}
