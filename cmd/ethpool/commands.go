package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"

	"ethpool/internal/infra/config"
	"ethpool/internal/infra/logger"
	"ethpool/internal/infra/tracer"
	"ethpool/pkg/ethpool"
)

// env bundles what every network command needs.
type env struct {
	cfg     *config.Config
	log     *slog.Logger
	cleanup func()
}

// loadEnv reads config, applies --wallet, and starts logging and tracing.
func loadEnv(ctx context.Context, flags cliFlags) (*env, error) {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if flags.Wallet != "" {
		cfg.Client.Wallet = flags.Wallet
	}

	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer, os.Stderr)
	if err != nil {
		logCloser()
		return nil, fmt.Errorf("tracer: %w", err)
	}

	return &env{
		cfg: cfg,
		log: log,
		cleanup: func() {
			if err := tracerShutdown(ctx); err != nil {
				log.Warn("tracer shutdown failed", "error", err)
			}
			logCloser()
		},
	}, nil
}

// clientOptions maps file config onto client options.
func clientOptions(cfg *config.Config, log *slog.Logger) []ethpool.Option {
	opts := []ethpool.Option{
		ethpool.WithURL(cfg.Client.URL),
		ethpool.WithVersion(cfg.Client.Version),
		ethpool.WithTimeout(cfg.Client.Timeout),
		ethpool.WithLogger(log),
	}
	if cfg.Client.OTP != "" {
		opts = append(opts, ethpool.WithOTP(cfg.Client.OTP))
	}
	if cfg.Client.UserAgent != "" {
		opts = append(opts, ethpool.WithUserAgent(cfg.Client.UserAgent))
	}
	if cfg.Breaker.Enabled {
		opts = append(opts, ethpool.WithCircuitBreaker(ethpool.BreakerConfig{
			MaxFailures: cfg.Breaker.MaxFailures,
			Timeout:     cfg.Breaker.Timeout,
			Interval:    cfg.Breaker.Interval,
		}))
	}
	return opts
}

func runCall(flags cliFlags, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: ethpool call METHOD [key=value ...]")
	}
	params, err := parseParams(args[1:])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := loadEnv(ctx, flags)
	if err != nil {
		return err
	}
	defer e.cleanup()

	client, err := ethpool.New(e.cfg.Client.Wallet, clientOptions(e.cfg, e.log)...)
	if err != nil {
		return err
	}

	payload, err := client.Call(ctx, args[0], params)
	if err != nil {
		var apiErr *ethpool.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("[%s] %s", ethpool.CodeAPI, strings.Join(apiErr.Codes, "; "))
		}
		return fmt.Errorf("[%s] %w", ethpool.ErrorCodeOf(err), err)
	}
	return writeJSON(os.Stdout, payload)
}

func runMethods() error {
	fmt.Println(headingStyle.Render("Pool API methods"))
	printMethods(os.Stdout, ethpool.DefaultMethods().Names)
	return nil
}

func printMethods(w io.Writer, names func(ethpool.Category) []string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Category", "Method", "Signed"})
	for _, cat := range ethpool.Categories() {
		for _, name := range names(cat) {
			t.AppendRow(table.Row{cat.String(), name, cat.Signed()})
		}
	}
	t.Render()
}

func runSign(flags cliFlags, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: ethpool sign PATH NONCE [key=value ...]")
	}
	params, err := parseParams(args[2:])
	if err != nil {
		return err
	}
	params[ethpool.ParamNonce] = args[1]

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	secret := cfg.Client.Wallet
	if flags.Wallet != "" {
		secret = flags.Wallet
	}
	if secret == "" {
		return fmt.Errorf("a secret is required (--wallet or client.wallet)")
	}

	req, err := ethpool.NewSignedRequest(secret, args[0], params)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", labelStyle.Render("path:"), req.Path)
	fmt.Printf("%s %s\n", labelStyle.Render("body:"), req.EncodedBody)
	fmt.Printf("%s %s\n", labelStyle.Render(ethpool.HeaderAPISign+":"), req.Signature)
	return nil
}

func runEncrypt(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: ethpool encrypt VALUE")
	}
	passphrase := os.Getenv("ETHPOOL_CONFIG_KEY")
	if passphrase == "" {
		return fmt.Errorf("ETHPOOL_CONFIG_KEY is not set")
	}
	enc, err := config.EncryptValue(args[0], passphrase)
	if err != nil {
		return err
	}
	fmt.Println("enc:" + enc)
	return nil
}

// parseParams turns key=value arguments into call parameters. Values stay
// strings; the pool accepts them form-encoded either way.
func parseParams(args []string) (ethpool.Params, error) {
	params := make(ethpool.Params, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: want key=value", arg)
		}
		params[key] = value
	}
	return params, nil
}

// writeJSON pretty-prints payload, falling back to the raw bytes.
func writeJSON(w io.Writer, payload json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		buf.Reset()
		buf.Write(payload)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}
