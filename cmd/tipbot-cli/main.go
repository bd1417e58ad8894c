// tipbot-cli is the operator tooling for the tip bot: master mnemonic
// generation, encryption at rest, and wallet inspection.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/Klingon-tech/klingnet-tipbot/internal/wallet"
	"github.com/Klingon-tech/klingnet-tipbot/pkg/types"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Global flags before the subcommand.
	secretDir := ""
	network := "mainnet"
	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--secret-dir" && len(args) > 1:
			secretDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--secret-dir="):
			secretDir = args[0][len("--secret-dir="):]
			args = args[1:]
		case args[0] == "--network" && len(args) > 1:
			network = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--network="):
			network = args[0][len("--network="):]
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	if network == "mainnet" {
		types.SetAddressHRP(types.MainnetHRP)
	} else {
		types.SetAddressHRP(types.TestnetHRP)
	}

	switch args[0] {
	case "mnemonic-new":
		cmdMnemonicNew()
	case "mnemonic-encrypt":
		cmdMnemonicEncrypt(args[1:])
	case "mnemonic-decrypt":
		cmdMnemonicDecrypt(args[1:])
	case "address":
		cmdAddress(secretDir, args[1:])
	case "check-address":
		cmdCheckAddress(args[1:])
	case "help", "--help", "-h":
		usage()
	default:
		fatal("unknown command %q", args[0])
	}
}

func cmdMnemonicNew() {
	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}
	fmt.Println(mnemonic)
	fmt.Fprintln(os.Stderr, "\nWrite this down. Anyone holding it controls every user wallet.")
}

func cmdMnemonicEncrypt(args []string) {
	if len(args) != 2 {
		fatal("usage: tipbot-cli mnemonic-encrypt <plaintext-file> <output-file>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fatal("read mnemonic file: %v", err)
	}
	mnemonic := strings.TrimSpace(string(data))
	if !wallet.ValidateMnemonic(mnemonic) {
		fatal("%s does not contain a valid mnemonic", args[0])
	}

	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	encrypted, err := wallet.Encrypt([]byte(mnemonic), password, wallet.DefaultParams())
	if err != nil {
		fatal("encrypt: %v", err)
	}
	if err := os.WriteFile(args[1], encrypted, 0600); err != nil {
		fatal("write %s: %v", args[1], err)
	}
	fmt.Printf("Encrypted mnemonic written to %s\n", args[1])
}

func cmdMnemonicDecrypt(args []string) {
	if len(args) != 1 {
		fatal("usage: tipbot-cli mnemonic-decrypt <encrypted-file>")
	}
	encrypted, err := os.ReadFile(args[0])
	if err != nil {
		fatal("read %s: %v", args[0], err)
	}

	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}

	mnemonic, err := wallet.Decrypt(encrypted, password)
	if err != nil {
		fatal("decrypt (wrong password?): %v", err)
	}
	fmt.Println(string(mnemonic))
}

func cmdAddress(secretDir string, args []string) {
	if len(args) != 1 {
		fatal("usage: tipbot-cli address <user-index>")
	}
	index, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || index < 0 {
		fatal("user index must be a non-negative integer")
	}

	var reader wallet.MnemonicReader
	if secretDir != "" {
		reader = wallet.FileMnemonicReader(secretDir)
	} else {
		reader = wallet.FileMnemonicReader()
	}

	key, err := wallet.NewDirectory(reader).KeyFor(index)
	if err != nil {
		fatal("derive: %v", err)
	}
	fmt.Printf("index:   %d\n", index)
	fmt.Printf("address: %s\n", key.Address())
	fmt.Printf("group:   %d\n", key.Group())
}

func cmdCheckAddress(args []string) {
	if len(args) != 1 {
		fatal("usage: tipbot-cli check-address <address>")
	}
	addr, err := types.ParseAddress(args[0])
	if err != nil {
		fatal("invalid address: %v", err)
	}
	fmt.Printf("address: %s\n", addr)
	fmt.Printf("group:   %d\n", addr.Group())
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: tipbot-cli [global flags] <command> [args]

Global flags:
  --secret-dir <path>   Directory holding %s
  --network <net>       mainnet (default) or testnet

Commands:
  mnemonic-new                          Generate a new master mnemonic
  mnemonic-encrypt <in> <out>           Encrypt a mnemonic file at rest
  mnemonic-decrypt <in>                 Decrypt an encrypted mnemonic file
  address <user-index>                  Derive a user's wallet address
  check-address <address>               Validate an address and show its group
`, wallet.MnemonicFileName)
}
