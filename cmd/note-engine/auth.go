package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/note-engine/internal/msauth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Interactively obtain a drive refresh token",
	Long: `Auth prints the authorization URL for the drive account, waits for the
code from the redirected URL, and exchanges it for a refresh token.
Store the token in .secrets/drive-refresh-token; the sweep uses it for
all subsequent access.`,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	clientID := secretDefault("drive-client-id", viper.GetString("drive.client_id"))
	clientSecret := secretDefault("drive-client-secret", viper.GetString("drive.client_secret"))
	if clientID == "" {
		return fmt.Errorf("drive-client-id is required (put it in .secrets/ or the config file)")
	}

	fmt.Println("Open this URL in a browser and sign in:")
	fmt.Println()
	fmt.Println("  " + msauth.AuthCodeURL(clientID))
	fmt.Println()
	fmt.Printf("After consenting you are redirected to %s?code=...\n", msauth.BootstrapRedirectURI)
	fmt.Print("Paste the value of the code parameter: ")

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return fmt.Errorf("reading authorization code: %w", scanner.Err())
	}
	code := strings.TrimSpace(scanner.Text())
	if code == "" {
		return fmt.Errorf("no authorization code provided")
	}

	refreshToken, err := msauth.ExchangeCode(cmd.Context(), clientID, clientSecret, code)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Refresh token (save as .secrets/drive-refresh-token):")
	fmt.Println()
	fmt.Println(refreshToken)
	return nil
}
