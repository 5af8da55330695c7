package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Shows the stored configuration.",
	Long: `Shows the configuration the client currently runs with: server URLs
and, if logged in, the identity bound to the stored credential.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("server:       %s\n", viper.GetString(serverURLKey))
		fmt.Printf("posts server: %s\n", viper.GetString(postsURLKey))
		if viper.GetString(tokenKey) == "" {
			fmt.Println("not logged in")
			return
		}
		fmt.Printf("username:     %s\n", viper.GetString(usernameKey))
		fmt.Printf("user id:      %s\n", viper.GetString(userIdKey))
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
