package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"dompet/internal/core"
	"dompet/internal/services"
)

// app is bound into every command's Run method.
type app struct {
	svc *services.LedgerService
	out io.Writer
	in  io.Reader
}

// CLI is the dompetctl command tree.
type CLI struct {
	DB     string `name:"db" env:"LEDGER_DB_PATH" default:"./data/expenses.db" help:"Path to the ledger database."`
	Events bool   `default:"true" negatable:"" help:"Publish ledger events when AMQP_URL is set."`

	Add        addCmd        `cmd:"" help:"Record a transaction."`
	Get        getCmd        `cmd:"" help:"Show one transaction."`
	List       listCmd       `cmd:"" help:"List transactions, newest first."`
	Update     updateCmd     `cmd:"" help:"Change fields of a transaction."`
	Delete     deleteCmd     `cmd:"" help:"Delete a transaction."`
	Categories categoriesCmd `cmd:"" help:"List known categories."`
	Summary    summaryCmd    `cmd:"" help:"Totals, monthly breakdown and per-category amounts."`
	Export     exportCmd     `cmd:"" help:"Write transactions as CSV."`
	Import     importCmd     `cmd:"" help:"Insert every row of an exported CSV as a new transaction."`
}

type filterFlags struct {
	Limit    int    `short:"n" default:"200" help:"Maximum rows (10-5000)."`
	From     string `help:"First date to include (YYYY-MM-DD)."`
	To       string `help:"Last date to include (YYYY-MM-DD)."`
	Category string `short:"c" help:"Exact category, or 'all'."`
}

func (f filterFlags) filter() (core.ListFilter, error) {
	out := core.ListFilter{Limit: core.ClampLimit(f.Limit), Category: f.Category}
	var err error
	if f.From != "" {
		if out.StartDate, err = core.ParseDate(f.From); err != nil {
			return out, err
		}
	}
	if f.To != "" {
		if out.EndDate, err = core.ParseDate(f.To); err != nil {
			return out, err
		}
	}
	return out, nil
}

type addCmd struct {
	Amount      string `arg:"" help:"Amount, e.g. 50000 or 'Rp 1.500.000'."`
	Category    string `arg:"" help:"Category label."`
	Type        string `short:"t" enum:"income,expense" default:"expense" help:"income or expense."`
	Date        string `short:"d" help:"Date (YYYY-MM-DD), today in WIB when empty."`
	Description string `short:"m" help:"Free text note."`
}

func (c *addCmd) Run(a *app) error {
	date := core.DateOf(core.WIBClock())
	if c.Date != "" {
		d, err := core.ParseDate(c.Date)
		if err != nil {
			return err
		}
		date = d
	}
	amount, err := core.ParseAmount(c.Amount)
	if err != nil {
		return err
	}
	id, err := a.svc.Create(context.Background(), core.TransactionInput{
		Date:        date,
		Amount:      amount,
		Category:    core.Category(c.Category),
		Type:        core.Type(c.Type),
		Description: c.Description,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created %d\n", id)
	return nil
}

type getCmd struct {
	ID int64 `arg:"" help:"Transaction id."`
}

func (c *getCmd) Run(a *app) error {
	tx, err := a.svc.Get(context.Background(), c.ID)
	if err != nil {
		return err
	}
	return printTransactions(a.out, []core.Transaction{tx})
}

type listCmd struct {
	filterFlags
}

func (c *listCmd) Run(a *app) error {
	f, err := c.filter()
	if err != nil {
		return err
	}
	txs, err := a.svc.List(context.Background(), f)
	if err != nil {
		return err
	}
	return printTransactions(a.out, txs)
}

type updateCmd struct {
	ID          int64  `arg:"" help:"Transaction id."`
	Amount      string `help:"New amount."`
	Category    string `help:"New category."`
	Type        string `short:"t" enum:",income,expense" default:"" help:"New type."`
	Date        string `short:"d" help:"New date (YYYY-MM-DD)."`
	Description string `short:"m" help:"New description."`
	ClearNote   bool   `help:"Remove the description."`
}

// Run changes only the fields given on the command line.
func (c *updateCmd) Run(a *app) error {
	ctx := context.Background()
	tx, err := a.svc.Get(ctx, c.ID)
	if err != nil {
		return err
	}
	in := tx.Input()
	if c.Amount != "" {
		if in.Amount, err = core.ParseAmount(c.Amount); err != nil {
			return err
		}
	}
	if c.Category != "" {
		in.Category = core.Category(c.Category)
	}
	if c.Type != "" {
		in.Type = core.Type(c.Type)
	}
	if c.Date != "" {
		if in.Date, err = core.ParseDate(c.Date); err != nil {
			return err
		}
	}
	if c.Description != "" || c.ClearNote {
		in.Description = c.Description
	}
	if err := a.svc.Update(ctx, c.ID, in); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "updated %d\n", c.ID)
	return nil
}

type deleteCmd struct {
	ID int64 `arg:"" help:"Transaction id."`
}

func (c *deleteCmd) Run(a *app) error {
	if err := a.svc.Delete(context.Background(), c.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %d\n", c.ID)
	return nil
}

type categoriesCmd struct {
	Limit int `short:"n" default:"50" help:"Maximum categories."`
}

func (c *categoriesCmd) Run(a *app) error {
	cats, err := a.svc.Categories(context.Background(), c.Limit)
	if err != nil {
		return err
	}
	if len(cats) == 0 {
		fmt.Fprintf(a.out, "no categories yet, default is %s\n", services.FallbackCategory)
		return nil
	}
	for _, cat := range cats {
		fmt.Fprintln(a.out, cat)
	}
	return nil
}

type summaryCmd struct {
	filterFlags
}

func (c *summaryCmd) Run(a *app) error {
	f, err := c.filter()
	if err != nil {
		return err
	}
	s, err := a.svc.Summary(context.Background(), f)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Transactions\t%d\t\n", s.Count)
	fmt.Fprintf(tw, "Income\t%s\t\n", core.FormatRupiah(s.Totals.Income))
	fmt.Fprintf(tw, "Expense\t%s\t\n", core.FormatRupiah(s.Totals.Expense))
	fmt.Fprintf(tw, "Balance\t%s\t\n", core.FormatRupiah(s.Totals.Balance))
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.Monthly) > 0 {
		fmt.Fprintln(a.out)
		tw = tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "MONTH\tINCOME\tEXPENSE")
		for _, m := range s.Monthly {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Month, core.FormatRupiah(m.Income), core.FormatRupiah(m.Expense))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(s.ByCategory) > 0 {
		fmt.Fprintln(a.out)
		tw = tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CATEGORY\tTYPE\tAMOUNT")
		for _, ca := range s.ByCategory {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", ca.Category, ca.Type, core.FormatRupiah(ca.Amount))
		}
		return tw.Flush()
	}
	return nil
}

type exportCmd struct {
	filterFlags
	Output string `short:"o" default:"-" help:"File to write, '-' for stdout."`
}

func (c *exportCmd) Run(a *app) error {
	f, err := c.filter()
	if err != nil {
		return err
	}
	if c.Output == "-" {
		return a.svc.Export(context.Background(), a.out, f)
	}

	file, err := os.Create(c.Output)
	if err != nil {
		return err
	}
	if err := a.svc.Export(context.Background(), file, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

type importCmd struct {
	File string `arg:"" help:"CSV produced by export, '-' for stdin."`
}

func (c *importCmd) Run(a *app) error {
	r := a.in
	if c.File != "-" {
		file, err := os.Open(c.File)
		if err != nil {
			return err
		}
		defer file.Close()
		r = file
	}
	res, err := a.svc.Import(context.Background(), r)
	if err != nil {
		if len(res.IDs) > 0 {
			err = errors.Join(err, fmt.Errorf("%d rows were inserted before the failure", len(res.IDs)))
		}
		return err
	}
	fmt.Fprintf(a.out, "imported %d transactions\n", len(res.IDs))
	return nil
}

func printTransactions(w io.Writer, txs []core.Transaction) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Date, tx.Type, tx.Category, core.FormatRupiah(tx.Amount), tx.Description)
	}
	return tw.Flush()
}
