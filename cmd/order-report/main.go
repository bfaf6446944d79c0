// Команда order-report печатает страницу сводок по заказам из in-memory хранилища.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdal/internal/domain"
	"github.com/vladislavdragonenkov/orderdal/internal/storage/memory"
)

type options struct {
	fixtures string
	start    int
	pageSize int
	format   string
	timeout  time.Duration
}

func parseOptions(args []string) (options, error) {
	fs := flag.NewFlagSet("order-report", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var opts options
	fs.StringVar(&opts.fixtures, "fixtures", "", "YAML fixtures file (default: embedded data)")
	fs.IntVar(&opts.start, "start", 0, "number of orders to skip")
	fs.IntVar(&opts.pageSize, "page-size", 20, "number of orders to print")
	fs.StringVar(&opts.format, "format", "table", "output format: table or json")
	fs.DurationVar(&opts.timeout, "timeout", 5*time.Second, "query timeout")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if opts.format != "table" && opts.format != "json" {
		return options{}, fmt.Errorf("unsupported format %q", opts.format)
	}
	if opts.timeout <= 0 {
		return options{}, errors.New("timeout must be > 0")
	}
	return opts, nil
}

func run(ctx context.Context, opts options, out io.Writer) error {
	store := memory.Shared()
	if opts.fixtures != "" {
		fixtures, err := memory.LoadFixturesFile(opts.fixtures, time.Now())
		if err != nil {
			return err
		}
		store = memory.NewStore(fixtures)
	}

	logger := log.WithField("component", "order-report")
	repo := memory.NewOrderRepository(store, memory.WithLogger(logger))

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	infos, err := repo.GetAllInfoAsync(ctx, opts.start, opts.pageSize).Await(ctx)
	if err != nil {
		return fmt.Errorf("load order info: %w", err)
	}

	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}
	return printTable(out, infos)
}

func printTable(out io.Writer, infos []domain.OrderInfo) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ORDER\tDATE\tCUSTOMER\tTOTAL\tSTATUS\tSHIPPED")
	for _, info := range infos {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%t\n",
			info.OrderID,
			info.OrderDate.Format(time.DateOnly),
			info.CustomerName,
			formatMinor(info.TotalMinor),
			info.Status,
			info.HasShippedItems,
		)
	}
	return tw.Flush()
}

// formatMinor печатает сумму в минорных единицах как десятичную с двумя знаками.
func formatMinor(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	cents := v % 100
	pad := ""
	if cents < 10 {
		pad = "0"
	}
	return sign + strconv.FormatInt(v/100, 10) + "." + pad + strconv.FormatInt(cents, 10)
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.WarnLevel)

	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(context.Background(), opts, os.Stdout); err != nil {
		log.WithError(err).Fatal("order report failed")
	}
}
