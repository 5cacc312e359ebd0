package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/mcclellann/backoffice/pkg/config"
	"github.com/mcclellann/backoffice/pkg/ledger"
	"github.com/mcclellann/backoffice/pkg/models"
	"github.com/mcclellann/backoffice/pkg/store"
	"github.com/shopspring/decimal"
)

var commands = []subcommands.Command{
	&rebalanceCmd{},
	&verifyCmd{},
	&reconcileCmd{},
	&pendingCmd{},
}

// dbFlags is embedded by every command that opens the database.
type dbFlags struct {
	config string
	db     string
}

func (d *dbFlags) setFlags(f *flag.FlagSet) {
	f.StringVar(&d.config, "config", "", "Path to a config file. Defaults to ./config.yaml when present.")
	f.StringVar(&d.db, "db", "", "SQLite database file. Overrides database.path from the config.")
}

// open returns a ledger over the configured database and a func that closes it.
func (d *dbFlags) open() (*ledger.Ledger, func(), error) {
	cfg, err := config.Load(d.config)
	if err != nil {
		return nil, nil, err
	}
	if d.db != "" {
		cfg.Database.Path = d.db
	}
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	l, err := ledger.NewLedger(s, ledger.WithNodeID(cfg.Ledger.NodeID), ledger.WithControlDueOffset(cfg.Controls.DueOffsetDays))
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return l, func() { s.Close() }, nil
}

type rebalanceCmd struct {
	dbFlags
	account string
}

func (*rebalanceCmd) Name() string     { return "rebalance" }
func (*rebalanceCmd) Synopsis() string { return "recompute every resultant balance of an account" }
func (*rebalanceCmd) Usage() string {
	return `ledgerctl rebalance [-db <file>] -account <id>

  Walks the account's movements in chronological order and rewrites every
  resultant balance that does not match the running sum.
`
}

func (c *rebalanceCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.account, "account", "", "Account ID.")
}

func (c *rebalanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, err := uuid.Parse(c.account)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid account id %q\n", c.account)
		return subcommands.ExitUsageError
	}
	l, closeFn, err := c.open()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	fixed, err := l.Rebalance(ctx, id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%d movements corrected\n", fixed)
	return subcommands.ExitSuccess
}

type verifyCmd struct {
	dbFlags
	account string
}

func (*verifyCmd) Name() string     { return "verify" }
func (*verifyCmd) Synopsis() string { return "check the balance chain of one or every account" }
func (*verifyCmd) Usage() string {
	return `ledgerctl verify [-db <file>] [-account <id>]

  Checks that every resultant balance equals the previous one plus the
  movement amount. Without -account, all accounts are checked. Exits 1 when
  a chain is broken.
`
}

func (c *verifyCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.account, "account", "", "Account ID. Empty checks every account.")
}

func (c *verifyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	l, closeFn, err := c.open()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	var ids []uuid.UUID
	if c.account != "" {
		id, err := uuid.Parse(c.account)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid account id %q\n", c.account)
			return subcommands.ExitUsageError
		}
		ids = append(ids, id)
	} else {
		accounts, err := l.ListAccounts(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		for _, a := range accounts {
			ids = append(ids, a.ID)
		}
	}

	status := subcommands.ExitSuccess
	for _, id := range ids {
		if err := l.VerifyAccount(ctx, id); err != nil {
			fmt.Printf("%s: %v\n", id, err)
			status = subcommands.ExitFailure
			continue
		}
		fmt.Printf("%s: ok\n", id)
	}
	return status
}

type reconcileCmd struct {
	ref   string
	store string
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "diff two lists of amounts" }
func (*reconcileCmd) Usage() string {
	return `ledgerctl reconcile -ref <file> -store <file>

  Each file holds one amount per line (e.g. 1234.50). Blank lines are
  skipped. Prints the amounts found on only one side and the net
  difference (store minus reference).
`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ref, "ref", "", "Reference list, e.g. a bank statement export.")
	f.StringVar(&c.store, "store", "", "The back-office's own list.")
}

func (c *reconcileCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ref == "" || c.store == "" {
		fmt.Fprintln(os.Stderr, "both -ref and -store are required")
		return subcommands.ExitUsageError
	}
	reference, err := readAmountsFile(c.ref)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	stored, err := readAmountsFile(c.store)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printComparison(os.Stdout, ledger.Compare(reference, stored))
	return subcommands.ExitSuccess
}

type pendingCmd struct {
	dbFlags
	cadence string
}

func (*pendingCmd) Name() string     { return "pending" }
func (*pendingCmd) Synopsis() string { return "list unpaid periodic controls" }
func (*pendingCmd) Usage() string {
	return `ledgerctl pending [-db <file>] -cadence SEMANAL|QUINCENAL
`
}

func (c *pendingCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.cadence, "cadence", string(models.Weekly), "Control cadence (SEMANAL, QUINCENAL).")
}

func (c *pendingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	l, closeFn, err := c.open()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	controls, err := l.ListPendingControls(ctx, models.Cadence(strings.ToUpper(c.cadence)))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	for _, pc := range controls {
		fmt.Printf("%s\t%s\t%s\tdue %s\n", pc.Concepto, pc.Window(), ledger.FormatAmount(pc.TotalRecaudado), pc.FechaPago)
	}
	return subcommands.ExitSuccess
}

func readAmountsFile(path string) ([]decimal.Decimal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readAmounts(f)
}

// readAmounts parses one decimal per line.
func readAmounts(r io.Reader) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		d, err := decimal.NewFromString(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid amount %q", line, text)
		}
		amounts = append(amounts, d)
	}
	return amounts, scanner.Err()
}

func printComparison(w io.Writer, c ledger.Comparison) {
	for _, a := range c.OnlyInReference {
		fmt.Fprintf(w, "only in reference\t%s\n", ledger.FormatAmount(a))
	}
	for _, a := range c.OnlyInStore {
		fmt.Fprintf(w, "only in store\t%s\n", ledger.FormatAmount(a))
	}
	fmt.Fprintf(w, "net difference\t%s\n", ledger.FormatAmount(c.NetDifference))
}
