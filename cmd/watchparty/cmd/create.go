package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/streamnest/watchparty/internal/client/session"
	"github.com/streamnest/watchparty/internal/domain"
)

var createPublic bool

// createCmd represents the create command
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Creates a party and hosts it.",
	Long: `Creates a new party with you as its creator and enters the interactive
loop. Share the printed room code so others can join with 'watch'.
The party is deleted when you leave.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runParty(func(ctx context.Context, sess *session.Controller) (domain.Room, error) {
			return sess.CreateParty(ctx, createPublic)
		})
	},
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().BoolVar(&createPublic, "public", false, "List the party in the public directory")
}
