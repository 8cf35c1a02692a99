package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sowri347/bot-interview/internal/auth"
	"github.com/sowri347/bot-interview/internal/bus"
	"github.com/sowri347/bot-interview/internal/config"
	"github.com/sowri347/bot-interview/internal/interview"
	"github.com/sowri347/bot-interview/internal/report"
	"github.com/sowri347/bot-interview/internal/store"
)

var version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "expected 'check-config', 'export', 'hash-password' or 'version'")
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "check-config":
		err = runCheckConfig(os.Args[2:])
	case "export":
		err = runExport(os.Args[2:])
	case "hash-password":
		err = runHashPassword(os.Args[2:], os.Stdin, os.Stdout)
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCheckConfig(args []string) error {
	fs := flag.NewFlagSet("check-config", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	_ = fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	fmt.Printf("config valid: database=%s stt=%s llm=%s bus=%t\n",
		cfg.Database.Driver, cfg.STT.Mode, cfg.LLM.Mode, cfg.Bus.Enabled)
	return nil
}

// runExport writes the ranked workbook for one interview straight from the
// database.
func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	interviewID := fs.String("interview", "", "Interview id to export")
	out := fs.String("out", "", "Output file (defaults to interview_report_<id>.xlsx)")
	_ = fs.Parse(args)

	if *interviewID == "" {
		return errors.New("-interview is required")
	}
	if *out == "" {
		*out = fmt.Sprintf("interview_report_%s.xlsx", *interviewID)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	svc := interview.NewService(st, auth.NewHasher(cfg.Auth.BcryptCost),
		auth.NewIssuer(cfg.Auth.JWTSecret, time.Minute), bus.Discard{}, interview.Options{}, logger)
	rows, err := svc.Export(ctx, *interviewID)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	if err := report.Write(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %d candidates to %s\n", len(rows), *out)
	return nil
}

// runHashPassword reads a password from stdin and prints its bcrypt hash.
func runHashPassword(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("hash-password", flag.ExitOnError)
	cost := fs.Int("cost", 10, "bcrypt cost")
	_ = fs.Parse(args)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("empty password")
	}
	hash, err := auth.NewHasher(*cost).Hash(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}
