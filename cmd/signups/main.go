// Package main выводит список заявок на бета-тест через административное API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/araddon/dateparse"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mmeshcher/seller-tracker/internal/adminclient"
	"github.com/mmeshcher/seller-tracker/internal/logger"
	"github.com/mmeshcher/seller-tracker/internal/model"
)

type options struct {
	ServerURL string        `env:"SELLER_TRACKER_URL"`
	User      string        `env:"ADMIN_USER"`
	Password  string        `env:"ADMIN_PASSWORD"`
	Timeout   time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
}

func parseOptions() (*options, error) {
	opts := &options{}
	if err := env.Parse(opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envURL, envUser, envPassword := opts.ServerURL, opts.User, opts.Password

	flag.StringVar(&opts.ServerURL, "url", "http://127.0.0.1:8080", "seller tracker server address")
	flag.StringVar(&opts.User, "user", "admin", "admin user")
	flag.StringVar(&opts.Password, "password", "", "admin password")
	flag.Parse()

	if envURL != "" {
		opts.ServerURL = envURL
	}
	if envUser != "" {
		opts.User = envUser
	}
	if envPassword != "" {
		opts.Password = envPassword
	}

	if opts.User == "" || opts.Password == "" {
		return nil, errors.New("please enter username and password")
	}
	return opts, nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	opts, err := parseOptions()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logger.New("warn", "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	client := adminclient.NewClient(opts.ServerURL, opts.User, opts.Password, log)
	signups, err := client.ListSignups(ctx)
	switch {
	case errors.Is(err, adminclient.ErrUnauthorized), errors.Is(err, adminclient.ErrForbidden):
		fmt.Fprintln(os.Stderr, "Invalid credentials.")
		os.Exit(1)
	case err != nil:
		log.Sugar().Errorw("list signups", "url", opts.ServerURL, "error", err)
		fmt.Fprintln(os.Stderr, "Could not reach server. Ensure backend is running and reachable.")
		os.Exit(1)
	}

	if err := render(os.Stdout, adminclient.SortNewestFirst(signups), time.Local); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		os.Exit(1)
	}
}

func render(out io.Writer, signups []model.Signup, loc *time.Location) error {
	latest := "-"
	if len(signups) > 0 && signups[0].Email != "" {
		latest = signups[0].Email
	}
	fmt.Fprintf(out, "Total signups: %d\nLatest: %s\n\n", len(signups), latest)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tSOURCE\tCREATED")
	if len(signups) == 0 {
		fmt.Fprintln(tw, "No signups yet.")
	}
	for _, s := range signups {
		created := s.CreatedAt
		if at, err := dateparse.ParseIn(s.CreatedAt, time.UTC); err == nil {
			created = at.In(loc).Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Email, s.Source, created)
	}
	return tw.Flush()
}
