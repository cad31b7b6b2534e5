package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	pocketbot "github.com/jojo-swe/pocketbot-go"
)

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("no-history", false, "do not persist chat history")
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant over a persistent connection",
	Long:  "Interactive chat session. The connection survives server restarts and\nnetwork drops; history is kept in ~/.pocketbot-go/state.json.\nCommands: /history, /clear, /quit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		server := getServer()

		noHistory, _ := cmd.Flags().GetBool("no-history")
		store, err := openStore(noHistory)
		if err != nil {
			return err
		}

		chat := pocketbot.NewChatClient(nil)
		defer chat.Close()

		chat.Connect(server, pocketbot.Callbacks{
			OnStateChange: func(s pocketbot.ConnState) {
				fmt.Printf("\r[%s]\n> ", s)
			},
			OnSessionID: func(id string) {
				fmt.Printf("\r[session %s]\n> ", id)
			},
			OnMessage: func(m pocketbot.ChatMessage) {
				fmt.Printf("\rassistant: %s\n> ", m.Content)
				if err := store.AppendHistory(m); err != nil {
					fmt.Fprintf(os.Stderr, "history: %v\n", err)
				}
			},
			OnTyping: func(active bool) {
				if active {
					fmt.Print("\rassistant is typing...\n> ")
				}
			},
			OnError: func(msg string) {
				fmt.Fprintf(os.Stderr, "\rserver error: %s\n> ", msg)
			},
		})

		in := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !in.Scan() {
				break
			}
			line := strings.TrimSpace(in.Text())
			if line == "" {
				continue
			}
			switch {
			case line == "/quit" || line == "/exit":
				chat.Disconnect()
				return nil
			case line == "/clear":
				if err := store.ClearHistory(); err != nil {
					fmt.Fprintf(os.Stderr, "history: %v\n", err)
				}
				fmt.Println("[history cleared]")
				continue
			case line == "/history":
				for _, m := range store.History() {
					fmt.Printf("%s %s: %s\n", m.Timestamp, m.Role, m.Content)
				}
				continue
			}

			msg := chat.SendMessage(line)
			if !chat.IsConnected() {
				fmt.Println("[not connected, message not sent]")
			}
			if err := store.AppendHistory(msg); err != nil {
				fmt.Fprintf(os.Stderr, "history: %v\n", err)
			}
		}
		chat.Disconnect()
		return nil
	},
}

// openStore returns the persistent settings store, or an in-memory one when
// history is disabled.
func openStore(noHistory bool) (*pocketbot.SettingsStore, error) {
	if noHistory {
		return pocketbot.NewSettingsStore(pocketbot.NewMemoryStorage()), nil
	}
	dir, err := configDir()
	if err != nil {
		return nil, err
	}
	fs, err := pocketbot.NewFileStorage(filepath.Join(dir, "state.json"))
	if err != nil {
		return nil, err
	}
	return pocketbot.NewSettingsStore(fs), nil
}
