// Command sealkey seals a secret with MASTER_KEY so it can be stored in the
// environment as an "enc:" value.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"voice-journal/backend/internal/config"
)

var masterKeyEnv string

var rootCmd = &cobra.Command{
	Use:   "sealkey [secret]",
	Short: "Seal a secret for use as an enc: environment value",
	Long: `Seal a provider API key or other secret with the master key.

The secret is read from the first argument, or from stdin when omitted:
  sealkey sk-live-...
  echo -n "$OPENAI_API_KEY" | sealkey`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSeal,
}

func init() {
	rootCmd.Flags().StringVar(&masterKeyEnv, "master-key-env", "MASTER_KEY", "Environment variable holding the master key")
}

func runSeal(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()
	masterKey := os.Getenv(masterKeyEnv)
	if masterKey == "" {
		return fmt.Errorf("%s is required", masterKeyEnv)
	}

	value, err := secretFrom(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	sealed, err := config.Seal(masterKey, value)
	if err != nil {
		return fmt.Errorf("seal: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), sealed)
	return nil
}

// secretFrom prefers the argument and falls back to the first line of in.
func secretFrom(args []string, in io.Reader) (string, error) {
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read secret: %w", err)
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return "", errors.New("no secret given on the command line or stdin")
	}
	return value, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
