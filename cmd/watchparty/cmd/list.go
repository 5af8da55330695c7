package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists public parties.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		rooms, err := registryClient.ListPublic(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing parties: %v\n", err)
			return
		}

		if len(rooms) == 0 {
			fmt.Println("No public parties right now.")
			return
		}

		for _, room := range rooms {
			video := "-"
			if room.CurrentVideoPath != nil {
				video = *room.CurrentVideoPath
			}
			fmt.Printf("%-8s %-16s %2d watching  %s\n", room.RoomCode, room.CreatorUsername, room.MemberCount, video)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
