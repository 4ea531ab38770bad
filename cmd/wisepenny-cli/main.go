// Command wisepenny-cli manages a local expense database from the
// terminal, without the HTTP server or authentication.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"wisepenny/internal/cli"
	"wisepenny/internal/core"
	applog "wisepenny/internal/log"
	"wisepenny/internal/services"
	"wisepenny/internal/store/sqlite"
)

// localUser is the single implicit user of the local database.
const localUser = "local"

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	dbPath := os.Getenv("SQLITE_DB_PATH")
	if dbPath == "" {
		dbPath = "./expenses.db"
	}

	st, err := sqlite.New(dbPath)
	if err != nil {
		logger.Error("Failed to open database", applog.FieldError, err, "db_path", dbPath)
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	tracker := services.New(st, nil, services.DefaultOptions())

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	var cmdErr error
	switch os.Args[1] {
	case "add":
		cmdErr = runAdd(ctx, tracker, os.Args[2:])
	case "add_funds":
		cmdErr = runAddFunds(ctx, tracker, os.Args[2:])
	case "view":
		cmdErr = runView(ctx, tracker)
	case "view_bal":
		cmdErr = runViewBalance(ctx, tracker)
	case "remove":
		cmdErr = runRemove(ctx, tracker, os.Args[2:])
	case "edit":
		cmdErr = runEdit(ctx, tracker, os.Args[2:])
	case "clear_bal":
		cmdErr = runClearBalance(ctx, tracker)
	default:
		usage()
		os.Exit(2)
	}
	if cmdErr != nil {
		fmt.Fprintln(os.Stderr, "Error:", cmdErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: wisepenny-cli <command> [arguments]

Commands:
  add <date> <descr> <amount> <method> <category> <type>
        Add a new expense (date in YYYY-MM-DD format)
  add_funds <amount> <method>
        Add funds to the cash or checking balance
  view
        View all expenses
  view_bal
        View the available balance
  remove <id>
        Remove an expense by ID
  edit <id> [--descr D] [--amount A] [--method M] [--category C] [--type T]
        Edit an expense by ID
  clear_bal
        Reset both balances to zero`)
}

func runAdd(ctx context.Context, tracker *services.Tracker, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 6 {
		return errors.New("add requires: date descr amount method category type")
	}

	amount, err := core.ParseAmount(fs.Arg(2))
	if err != nil {
		return fmt.Errorf("invalid amount %q", fs.Arg(2))
	}
	method, err := core.ParseMethod(fs.Arg(3))
	if err != nil {
		return fmt.Errorf("invalid method %q, expected cash or checking", fs.Arg(3))
	}

	expense := core.Expense{
		Date:     fs.Arg(0),
		Descr:    fs.Arg(1),
		Amount:   amount,
		Method:   method,
		Category: fs.Arg(4),
		Type:     fs.Arg(5),
	}

	if _, err := tracker.AddExpense(ctx, localUser, expense); err != nil {
		if errors.Is(err, core.ErrInsufficientFunds) {
			fmt.Printf("Insufficient %s funds. Expense not added.\n", method)
			return nil
		}
		return err
	}
	fmt.Println("Expense logged successfully!")
	return nil
}

func runAddFunds(ctx context.Context, tracker *services.Tracker, args []string) error {
	fs := flag.NewFlagSet("add_funds", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 2 {
		return errors.New("add_funds requires: amount method")
	}

	amount, err := core.ParseAmount(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid amount %q", fs.Arg(0))
	}
	method, err := core.ParseMethod(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("invalid method %q, expected cash or checking", fs.Arg(1))
	}

	if err := tracker.AddFunds(ctx, localUser, method, amount); err != nil {
		return err
	}
	fmt.Printf("Added $%s to %s balance.\n", core.FormatAmount(amount), method)
	return nil
}

func runView(ctx context.Context, tracker *services.Tracker) error {
	expenses, err := tracker.ListExpenses(ctx, localUser)
	if err != nil {
		return err
	}

	fmt.Printf("%-36s %-12s %-30s %-10s %-10s %-15s %-10s\n",
		"ID", "Date", "Description", "Amount", "Method", "Category", "Type")
	fmt.Println(strings.Repeat("=", 127))
	for _, e := range expenses {
		fmt.Printf("%-36s %-12s %-30s %-10s %-10s %-15s %-10s\n",
			e.ID, e.Date, e.Descr, core.FormatAmount(e.Amount), e.Method, e.Category, e.Type)
	}
	return nil
}

func runViewBalance(ctx context.Context, tracker *services.Tracker) error {
	bal, err := tracker.GetBalances(ctx, localUser)
	if err != nil {
		return err
	}
	fmt.Printf("Current available balance is: $%s\n", core.FormatAmount(bal.Total))
	fmt.Printf("Breakdown: Cash = $%s, Checking = $%s\n",
		core.FormatAmount(bal.Cash), core.FormatAmount(bal.Checking))
	return nil
}

func runRemove(ctx context.Context, tracker *services.Tracker, args []string) error {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("remove requires: id")
	}
	id := fs.Arg(0)

	if err := tracker.RemoveExpense(ctx, localUser, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			fmt.Println("Expense not found.")
			return nil
		}
		return err
	}
	fmt.Printf("Expense with ID %s removed successfully.\n", id)
	return nil
}

func runEdit(ctx context.Context, tracker *services.Tracker, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	descr := fs.String("descr", "", "New description of the expense")
	amountStr := fs.String("amount", "", "New amount of the expense")
	methodStr := fs.String("method", "", "New method of payment")
	category := fs.String("category", "", "New category of the expense")
	typ := fs.String("type", "", "New type of the expense")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("edit requires: id")
	}
	id := fs.Arg(0)

	var patch core.ExpensePatch
	if *descr != "" {
		patch.Descr = descr
	}
	if *amountStr != "" {
		amount, err := core.ParseAmount(*amountStr)
		if err != nil {
			return fmt.Errorf("invalid amount %q", *amountStr)
		}
		patch.Amount = &amount
	}
	if *methodStr != "" {
		method, err := core.ParseMethod(*methodStr)
		if err != nil {
			return fmt.Errorf("invalid method %q, expected cash or checking", *methodStr)
		}
		patch.Method = &method
	}
	if *category != "" {
		patch.Category = category
	}
	if *typ != "" {
		patch.Type = typ
	}

	if err := tracker.EditExpense(ctx, localUser, id, patch); err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			fmt.Println("Expense not found.")
			return nil
		case errors.Is(err, core.ErrNoFieldsProvided):
			return errors.New("no fields provided, nothing to edit")
		case errors.Is(err, core.ErrInsufficientFunds):
			fmt.Println("Insufficient funds. Expense not edited.")
			return nil
		}
		return err
	}
	fmt.Printf("Expense with ID %s edited successfully.\n", id)
	return nil
}

func runClearBalance(ctx context.Context, tracker *services.Tracker) error {
	if err := tracker.ClearBalances(ctx, localUser); err != nil {
		return err
	}
	fmt.Println("Balance cleared successfully!")
	return nil
}
