package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"otomata/pkg/auth"
)

// authCmd groups the credential management operations
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage service API credentials",
	Long: `Manage API credentials for the services the automation tools call.

Credentials are stored in the system keychain when available, falling back
to an encrypted file. Environment variables of the form <SERVICE>_API_KEY
(including values from a .env.local) are honored read-only.`,
}

var authSetCmd = &cobra.Command{
	Use:   "set <service>",
	Short: "Store an API credential for a service",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthSet,
}

var authGetCmd = &cobra.Command{
	Use:   "get <service>",
	Short: "Show whether a credential is stored for a service",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthGet,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credentials",
	RunE:  runAuthList,
}

var authRemoveCmd = &cobra.Command{
	Use:   "remove <service>",
	Short: "Remove the stored credential for a service",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthRemove,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authGetCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authRemoveCmd)
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	service := args[0]

	fmt.Printf("API key for %s: ", service)
	secret, err := readSecret()
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == "" {
		return fmt.Errorf("secret must not be empty")
	}

	manager, err := auth.NewManager()
	if err != nil {
		return err
	}
	if err := manager.Set(&auth.Credential{Service: service, Secret: secret}); err != nil {
		return err
	}
	fmt.Printf("Credential stored for %s\n", service)
	return nil
}

func runAuthGet(cmd *cobra.Command, args []string) error {
	service := args[0]

	manager, err := auth.NewManager()
	if err != nil {
		return err
	}
	cred, err := manager.Get(service)
	if err != nil {
		return err
	}
	fmt.Printf("Credential for %s: %s (modified %s)\n",
		cred.Service, maskSecret(cred.Secret), cred.LastModified.Format("2006-01-02 15:04"))
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return err
	}
	creds, err := manager.List()
	if err != nil {
		return err
	}
	if len(creds) == 0 {
		fmt.Println("No stored credentials")
		return nil
	}
	for _, cred := range creds {
		fmt.Printf("  %-20s %s\n", cred.Service, maskSecret(cred.Secret))
	}
	return nil
}

func runAuthRemove(cmd *cobra.Command, args []string) error {
	service := args[0]

	manager, err := auth.NewManager()
	if err != nil {
		return err
	}
	if err := manager.Delete(service); err != nil {
		return err
	}
	fmt.Printf("Credential removed for %s\n", service)
	return nil
}

// readSecret reads a secret without echoing when attached to a terminal
func readSecret() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// maskSecret hides all but the edges of a secret
func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
