package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"fracledger/config"
	"fracledger/core"
	"fracledger/crypto"
	"fracledger/integrations/exports"
	"fracledger/storage"
)

// runStatement prints a grant statement for one recipient from the local
// data directory. The node must be stopped; LevelDB holds an exclusive lock.
func runStatement(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("statement", flag.ContinueOnError)
	fs.SetOutput(out)
	configFile := fs.String("config", "./config.toml", "Path to the configuration file")
	recipientFlag := fs.String("recipient", "", "Bech32 address of the grant recipient")
	format := fs.String("format", "csv", "Output format: csv or jsonl")
	if err := fs.Parse(args); err != nil {
		return err
	}
	recipient, err := crypto.ParseAccount(strings.TrimSpace(*recipientFlag))
	if err != nil {
		return fmt.Errorf("recipient: %w", err)
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()
	ledger, err := core.NewLedger(db)
	if err != nil {
		return err
	}
	return writeStatement(ledger, recipient, *format, out)
}

func writeStatement(ledger *core.Ledger, recipient [20]byte, format string, out io.Writer) error {
	grants, err := ledger.Grants(recipient)
	if err != nil {
		return err
	}
	now := uint64(ledger.Now())
	var (
		data     []byte
		checksum string
	)
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		data, checksum, err = exports.GrantsCSV(grants, now)
	case "jsonl":
		data, checksum, err = exports.GrantsJSONL(grants, now)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "# sha256 %s\n", checksum)
	return err
}
