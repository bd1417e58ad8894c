package wallet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MnemonicFileName is the file the master mnemonic is read from.
const MnemonicFileName = "tipbot_mnemonic.txt"

// DefaultSecretDirs are searched in order for the mnemonic file.
// /run/secrets covers docker secrets, ./secrets covers bare-metal runs.
var DefaultSecretDirs = []string{"/run/secrets", "./secrets"}

// FileMnemonicReader returns a MnemonicReader that reads the mnemonic file
// from the first directory that contains it. The file is re-read on every
// call so the secret can rotate without a restart.
func FileMnemonicReader(dirs ...string) MnemonicReader {
	if len(dirs) == 0 {
		dirs = DefaultSecretDirs
	}
	return func() (string, error) {
		for _, dir := range dirs {
			path := filepath.Join(dir, MnemonicFileName)
			data, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return "", fmt.Errorf("read %s: %w", path, err)
			}
			mnemonic := strings.TrimSpace(string(data))
			if !ValidateMnemonic(mnemonic) {
				return "", fmt.Errorf("%s does not contain a valid mnemonic", path)
			}
			return mnemonic, nil
		}
		return "", fmt.Errorf("mnemonic not found in %v", dirs)
	}
}

// StaticMnemonicReader returns a MnemonicReader for a fixed mnemonic.
// Used in tests and by the CLI tooling.
func StaticMnemonicReader(mnemonic string) MnemonicReader {
	return func() (string, error) {
		if !ValidateMnemonic(mnemonic) {
			return "", fmt.Errorf("invalid mnemonic")
		}
		return mnemonic, nil
	}
}
