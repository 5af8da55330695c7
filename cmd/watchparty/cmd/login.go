package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Gets a credential from the server.",
	Long: `Requests a connect token for the given username and stores it in the
config file. Every other command uses the stored credential.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		grant, err := registryClient.IssueToken(ctx, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error logging in: %v\n", err)
			return
		}

		viper.Set(tokenKey, grant.Token)
		viper.Set(userIdKey, grant.UserId)
		viper.Set(usernameKey, grant.Username)
		if err := saveConfig(); err != nil {
			fmt.Fprintln(os.Stderr, "Error writing config file:", err)
			return
		}

		fmt.Printf("Logged in as %s\n", grant.Username)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
