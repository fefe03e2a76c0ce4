// Command chat-client is a development tool for poking at a running
// server: it logs in, joins the world with a character and bridges
// stdin to the chat channels.
//
// Usage:
//
//	chat-client -server http://127.0.0.1:2137 -username wanderer -password test -character <id>
//
// Lines typed on stdin go to the say channel. A line starting with a
// slash selects the channel, e.g. "/ooc hello" or "/whisper Corvin hi".
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ViewsFromSaturn/Project-Tactics/internal/wire"
	"github.com/cenkalti/backoff/v4"
	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		serverAddr  = flag.String("server", "http://127.0.0.1:2137", "Server base URL")
		username    = flag.String("username", "", "Account username")
		password    = flag.String("password", "", "Account password")
		characterID = flag.String("character", "", "Character ID to join the world with")
		x           = flag.Float64("x", 0, "Spawn X in pixels")
		y           = flag.Float64("y", 0, "Spawn Y in pixels")
	)
	flag.Parse()

	if *username == "" || *password == "" || *characterID == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()

	token, err := login(ctx, *serverAddr, *username, *password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "login failed:", err)
		os.Exit(1)
	}

	ws, err := dial(ctx, *serverAddr, token)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect failed:", err)
		os.Exit(1)
	}
	defer ws.CloseNow()

	join := wire.ComposeTyped(wire.JoinWorld, wire.MessageContent[wire.JoinWorldRequest]{
		Content: wire.JoinWorldRequest{CharacterID: *characterID, X: *x, Y: *y},
	})
	if err := wire.Write(ctx, ws, join); err != nil {
		fmt.Fprintln(os.Stderr, "join failed:", err)
		os.Exit(1)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return readLoop(ctx, ws) })
	group.Go(func() error { return inputLoop(ctx, ws) })

	if err := group.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// dial retries the websocket handshake with exponential backoff, so
// the tool can be started before the server is up.
func dial(ctx context.Context, serverAddr, token string) (*websocket.Conn, error) {
	wsURL, err := websocketURL(serverAddr)
	if err != nil {
		return nil, err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	return backoff.RetryWithData(func() (*websocket.Conn, error) {
		return wire.Connect(ctx, wsURL, token)
	}, policy)
}

func websocketURL(serverAddr string) (string, error) {
	u, err := url.Parse(serverAddr)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u.String(), nil
}

func login(ctx context.Context, serverAddr, username, password string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverAddr+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func readLoop(ctx context.Context, ws *websocket.Conn) error {
	for {
		_, payload, err := ws.Read(ctx)
		if err != nil {
			return err
		}
		printEvent(payload)
	}
}

func printEvent(payload []byte) {
	switch wire.ParseEventType(payload) {
	case wire.Chat:
		_, msg, err := wire.DecodeTyped[wire.ChatPayload](payload)
		if err != nil {
			return
		}
		fmt.Printf("[%s] %s: %s\n", msg.Content.Channel, msg.Content.Sender, msg.Content.Text)
	case wire.ChatError:
		_, msg, err := wire.DecodeTyped[wire.ChatErrorPayload](payload)
		if err != nil {
			return
		}
		fmt.Println("! " + msg.Content.Error)
	case wire.PlayerJoined:
		_, msg, err := wire.DecodeTyped[wire.PlayerState](payload)
		if err != nil {
			return
		}
		fmt.Printf("* %s entered the world at (%.0f, %.0f)\n", msg.Content.Name, msg.Content.X, msg.Content.Y)
	case wire.PlayerLeft:
		_, msg, err := wire.DecodeTyped[wire.PlayerRef](payload)
		if err != nil {
			return
		}
		fmt.Printf("* %s left the world\n", msg.Content.ID)
	case wire.PlayerMoved:
		// Movement spam is not useful on a terminal.
	default:
		fmt.Printf("? %s\n", wire.ParseEventType(payload))
	}
}

func inputLoop(ctx context.Context, ws *websocket.Conn) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		req, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}

		payload := wire.ComposeTyped(wire.Chat, wire.MessageContent[wire.ChatRequest]{Content: req})

		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := wire.Write(writeCtx, ws, payload)
		cancel()
		if err != nil {
			return err
		}
	}
	return scanner.Err()
}

func parseLine(line string) (wire.ChatRequest, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return wire.ChatRequest{}, false
	}
	if !strings.HasPrefix(line, "/") {
		return wire.ChatRequest{Channel: "say", Text: line}, true
	}

	command, rest, _ := strings.Cut(line[1:], " ")
	switch command {
	case "whisper", "w":
		target, text, ok := strings.Cut(rest, " ")
		if !ok {
			fmt.Println("usage: /whisper <name> <text>")
			return wire.ChatRequest{}, false
		}
		return wire.ChatRequest{Channel: "admin_whisper", Target: target, Text: text}, true
	case "say", "yell", "emote", "story", "ooc", "faction", "announce":
		if rest == "" {
			return wire.ChatRequest{}, false
		}
		return wire.ChatRequest{Channel: command, Text: rest}, true
	default:
		fmt.Println("unknown command:", command)
		return wire.ChatRequest{}, false
	}
}
