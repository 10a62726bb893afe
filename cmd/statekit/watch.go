package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/statekit-dev/statekit/pkg/devtools"
)

func watchCmd() *cobra.Command {
	var (
		addr    string
		rawJSON bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the store's live event stream",
		Long: `Connect to the devtools inspector's /events websocket and print
store events as they happen, until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			wsURL, err := eventsURL(addr)
			if err != nil {
				return err
			}

			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", wsURL, err)
			}
			defer conn.Close()

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			go func() {
				<-interrupt
				conn.Close()
			}()

			fmt.Fprintf(os.Stderr, "watching %s (ctrl-c to stop)\n", wsURL)
			for {
				var msg devtools.EventMessage
				if err := conn.ReadJSON(&msg); err != nil {
					return nil // closed by interrupt or server
				}
				if rawJSON {
					data, _ := json.Marshal(msg)
					fmt.Println(string(data))
					continue
				}
				printEvent(msg)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "http://localhost:6360", "Inspector base URL")
	cmd.Flags().BoolVar(&rawJSON, "json", false, "Print events as JSON lines")

	return cmd
}

// eventsURL rewrites the inspector base URL into the websocket endpoint.
func eventsURL(addr string) (string, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("parse addr: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/events"
	return u.String(), nil
}

func printEvent(msg devtools.EventMessage) {
	subject := msg.AtomKey
	if subject == "" && msg.AtomID != 0 {
		subject = fmt.Sprintf("%s#%d", msg.Kind, msg.AtomID)
	}

	line := fmt.Sprintf("%s  %-14s %s", msg.Time.Format("15:04:05.000"), msg.Type, subject)
	if msg.Generation > 0 {
		line += fmt.Sprintf(" gen=%d", msg.Generation)
	}
	if len(msg.Tags) > 0 {
		line += " tags=" + strings.Join(msg.Tags, ",")
	}
	if msg.Error != "" {
		line += " error=" + msg.Error
	}
	fmt.Println(line)
}
