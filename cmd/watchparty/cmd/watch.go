package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/streamnest/watchparty/internal/client/playback"
	"github.com/streamnest/watchparty/internal/client/session"
	wpsync "github.com/streamnest/watchparty/internal/client/sync"
	"github.com/streamnest/watchparty/internal/domain"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:     "watch <room-code>",
	Aliases: []string{"join"},
	Short:   "Joins a party and follows it.",
	Long: `Joins an existing party by its room code and follows the creator's
video selection until you leave. Room codes are case-insensitive.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runParty(func(ctx context.Context, sess *session.Controller) (domain.Room, error) {
			return sess.JoinParty(ctx, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// announcingSink prints each video change before handing it to the
// playback controller.
type announcingSink struct {
	pb *playback.Controller
}

func (s announcingSink) VideoChanged(videoPath string) {
	fmt.Printf("video changed: %s\n", videoPath)
	s.pb.VideoChanged(videoPath)
}

// runParty builds the client stack, activates the party through the
// given entry call, and drives the interactive loop until the user
// leaves.
func runParty(enter func(ctx context.Context, sess *session.Controller) (domain.Room, error)) {
	if viper.GetString(tokenKey) == "" {
		fmt.Fprintln(os.Stderr, "Not logged in. Run 'watchparty login <username>' first.")
		return
	}

	identity := session.Identity{
		UserId:   viper.GetString(userIdKey),
		Username: viper.GetString(usernameKey),
	}

	channel := wpsync.NewChannel(viper.GetString(serverURLKey), logger)
	player := playback.NewController(func(playback.EngineConfig) playback.Engine {
		return playback.NopEngine{}
	}, postsClient, postsClient, logger)
	sess := session.NewController(registryClient, channel, viperTokens{}, announcingSink{pb: player}, identity, logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	room, err := enter(ctx, sess)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error entering party: %v\n", err)
		return
	}

	fmt.Printf("In party %s", room.RoomCode)
	if sess.IsCreator() {
		fmt.Print(" (creator)")
	}
	fmt.Println(". Type 'help' for commands.")

	if room.CurrentVideoPath != nil {
		player.VideoChanged(*room.CurrentVideoPath)
	}

	defer func() {
		player.Reset()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		if err := sess.LeaveParty(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error leaving party: %v\n", err)
		}
	}()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args, err := shellwords.Parse(line)
		if err != nil || len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Could not parse command.")
			continue
		}

		switch args[0] {
		case "video":
			if len(args) != 2 {
				fmt.Fprintln(os.Stderr, "Usage: video <path>")
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
			err := sess.RequestVideoChange(ctx, args[1])
			cancel()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error changing video: %v\n", err)
			}
		case "status":
			printStatus(sess, player)
		case "help":
			fmt.Println("video <path>  change the party's video (creator only)")
			fmt.Println("status        show party and playback state")
			fmt.Println("leave         leave the party and exit")
		case "leave", "exit", "quit":
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown command %q, type 'help'.\n", args[0])
		}
	}
}

func printStatus(sess *session.Controller, player *playback.Controller) {
	room := sess.ActiveRoom()
	if room == nil {
		fmt.Println("Not in a party.")
		return
	}

	fmt.Printf("party:    %s (%s)\n", room.RoomCode, sess.State())
	if room.CurrentVideoPath != nil {
		fmt.Printf("video:    %s\n", *room.CurrentVideoPath)
	} else {
		fmt.Println("video:    none selected")
	}
	fmt.Printf("playback: %s\n", player.State())
	if player.State() == playback.CountingDown {
		fmt.Printf("starts:   %s\n", player.Remaining())
	}
}
