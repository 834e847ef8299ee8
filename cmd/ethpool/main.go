package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

func main() {
	// Handle help flag first
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			showUsage()
			return
		}
	}

	flags, args := parseFlags(os.Args[1:])
	if len(args) == 0 {
		showUsage()
		os.Exit(1)
	}

	if err := loadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("env: "+err.Error()))
		os.Exit(1)
	}

	var err error
	switch args[0] {
	case "call":
		err = runCall(flags, args[1:])
	case "methods":
		err = runMethods()
	case "sign":
		err = runSign(flags, args[1:])
	case "encrypt":
		err = runEncrypt(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'ethpool --help' for usage information.\n", args[0])
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(args[0]+": "+err.Error()))
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`ethpool - Mining pool API client

USAGE:
    ethpool [FLAGS] COMMAND [ARGS]

COMMANDS:
    call METHOD [key=value ...]     Call an API method and print the JSON reply
    methods                         List the known methods by category
    sign PATH NONCE [key=value ...] Print the signed body and API-Sign header
    encrypt VALUE                   Encrypt a secret for the config file
                                    (passphrase from ETHPOOL_CONFIG_KEY)

FLAGS:
    -h, --help         Show this help message
    --config PATH      Specify config file path (default: ./ethpool.yaml)
    --wallet WALLET    Wallet address or base64 API secret

CONFIGURATION:
    Config file: ./ethpool.yaml
    Environment: ETHPOOL_* variables override config (also read from ./.env)

EXAMPLES:
    ethpool call poolStats
    ethpool --wallet 0x52bc... call miner/:miner/currentStats
    ethpool call miner/:miner/worker/:worker/history worker=rig-1
    ethpool methods`)
}

// cliFlags holds the global flags accepted before or after the command.
type cliFlags struct {
	ConfigPath string
	Wallet     string
}

// parseFlags extracts --config and --wallet from args and returns the
// remaining positional arguments.
func parseFlags(args []string) (cliFlags, []string) {
	var flags cliFlags
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--config" && i+1 < len(args):
			flags.ConfigPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--config="):
			flags.ConfigPath = strings.TrimPrefix(args[i], "--config=")
		case args[i] == "--wallet" && i+1 < len(args):
			flags.Wallet = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--wallet="):
			flags.Wallet = strings.TrimPrefix(args[i], "--wallet=")
		default:
			rest = append(rest, args[i])
		}
	}
	if flags.ConfigPath == "" {
		flags.ConfigPath = configPath()
	}
	return flags, rest
}

// loadDotEnv loads ETHPOOL_* variables from path when the file exists.
// Variables already set in the environment win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

func configPath() string {
	if p := os.Getenv("ETHPOOL_CONFIG"); p != "" {
		return p
	}
	return "ethpool.yaml"
}
