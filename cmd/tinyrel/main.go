// Command tinyrel is an interactive SQL shell over one database file,
// grounded on the teacher's cmd/repl main.go: a bufio.Scanner reads
// statements terminated by ';', each is dispatched and the result
// printed as a simple column-aligned table. Stripped of the teacher
// REPL's HTML/web-export modes, which have no equivalent operator in
// this engine.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/SimonWaldherr/tinyrel"
	"github.com/SimonWaldherr/tinyrel/internal/config"
	"github.com/SimonWaldherr/tinyrel/internal/logging"
	"github.com/SimonWaldherr/tinyrel/internal/maintenance"
)

func main() {
	cfgPath := flag.String("config", "", "optional YAML config file")
	checkpointSchedule := flag.String("checkpoint-schedule", "", "optional cron spec for a background checkpoint (e.g. \"@every 30s\"); overrides checkpoint_schedule in -config")
	flag.Parse()

	dbPath := flag.Arg(0)
	if dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: tinyrel [-config settings.yaml] [-checkpoint-schedule spec] <database-file>")
		os.Exit(1)
	}

	settings := config.Defaults()
	if *cfgPath != "" {
		var err error
		settings, err = config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "config:", err)
			os.Exit(1)
		}
	}
	if *checkpointSchedule != "" {
		settings.CheckpointSchedule = *checkpointSchedule
	}
	logging.Configure(settings.LogLevel)

	eng, err := tinyrel.Open(dbPath, tinyrel.Config{PageSize: settings.PageSize, BufferCapacity: settings.BufferCapacity})
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer eng.Close()

	if settings.CheckpointSchedule != "" {
		sched, err := maintenance.New(eng, settings.CheckpointSchedule)
		if err != nil {
			fmt.Fprintln(os.Stderr, "checkpoint-schedule:", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
	}

	fmt.Printf("tinyrel — %s (Ctrl-D to exit)\n", dbPath)
	repl(eng, os.Stdin, os.Stdout)
}

func repl(eng *tinyrel.Engine, in *os.File, out *os.File) {
	scanner := bufio.NewScanner(in)
	var buf strings.Builder
	txnID := tinyrel.NoTransaction

	prompt := func() {
		if txnID == tinyrel.NoTransaction {
			fmt.Fprint(out, "tinyrel> ")
		} else {
			fmt.Fprintf(out, "tinyrel[%d]> ", txnID)
		}
	}
	prompt()
	for scanner.Scan() {
		buf.WriteString(scanner.Text())
		buf.WriteString("\n")
		if !strings.Contains(scanner.Text(), ";") {
			continue
		}
		sql := strings.TrimSpace(buf.String())
		buf.Reset()
		if sql == "" {
			prompt()
			continue
		}

		res := eng.Execute(tinyrel.Request{SQL: sql, TransactionID: txnID, AutoCommit: txnID == tinyrel.NoTransaction})
		printResult(out, res)
		if res.TransactionStatus == tinyrel.StatusOpen {
			txnID = res.TransactionID
		} else {
			txnID = tinyrel.NoTransaction
		}
		prompt()
	}
	fmt.Fprintln(out)
}

func printResult(out *os.File, res tinyrel.Result) {
	if res.Error != "" {
		fmt.Fprintln(out, "error:", res.Error)
		return
	}
	w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(res.Columns, "\t"))
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprintf("%v", v)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
	fmt.Fprintf(out, "(%d row(s))\n", len(res.Rows))
}
