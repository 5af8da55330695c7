package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/streamnest/watchparty/internal/client/posts"
	"github.com/streamnest/watchparty/internal/client/registry"
	wpsync "github.com/streamnest/watchparty/internal/client/sync"
)

var (
	cfgFile        string
	logger         *slog.Logger
	registryClient *registry.Client
	postsClient    *posts.Client
)

const (
	serverURLKey = "server_url"
	postsURLKey  = "posts_url"
	tokenKey     = "token"
	userIdKey    = "user_id"
	usernameKey  = "username"
)

// viperTokens exposes the persisted credential to the API clients.
type viperTokens struct{}

func (viperTokens) GetToken() string {
	return wpsync.UnwrapCredential(viper.GetString(tokenKey))
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "watchparty",
	Short: "Watch videos together, in sync.",
	Long: `watchparty is a terminal client for synchronized video rooms.

Create a room, share its code, and every member follows the creator's
video selection in real time. Log in once to get a credential, then
create or watch a party.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := slog.LevelWarn
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			logLevel = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

		registryClient = registry.NewClient(viper.GetString(serverURLKey), viperTokens{}, logger)
		postsClient = posts.NewClient(viper.GetString(postsURLKey))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.watchparty.yaml)")
	rootCmd.PersistentFlags().String("server", "http://localhost:8080/api", "Base URL of the watchparty server API")
	rootCmd.PersistentFlags().String("posts-server", "http://localhost:3000/api", "Base URL of the post service API")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	viper.BindPFlag(serverURLKey, rootCmd.PersistentFlags().Lookup("server"))
	viper.BindPFlag(postsURLKey, rootCmd.PersistentFlags().Lookup("posts-server"))
	viper.SetDefault(serverURLKey, "http://localhost:8080/api")
	viper.SetDefault(postsURLKey, "http://localhost:3000/api")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".watchparty")
	}

	viper.SetEnvPrefix("WATCHPARTY")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		}
	}
}

// saveConfig persists the current viper state, creating the config
// file on first use.
func saveConfig() error {
	if err := viper.WriteConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			return viper.WriteConfigAs(home + "/.watchparty.yaml")
		}
		return err
	}
	return nil
}
