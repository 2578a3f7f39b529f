package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"portfolio-chat-be/pkg/streamclient"

	"github.com/fatih/color"
)

// Terminal chat against a running backend. Reuses the same consumer
// library the site frontend behavior is modeled on, so this doubles as a
// manual end-to-end check of the streaming protocol.
func main() {
	baseURL := envOr("CHAT_BASE_URL", "http://localhost:3000")
	apiKey := os.Getenv("CHAT_API_KEY")

	var store streamclient.SessionStore
	fileStore, err := streamclient.NewFileSessionStore("portfolio-chat")
	if err != nil {
		color.Yellow("session persistence unavailable (%v), using in-memory session", err)
		store = &streamclient.MemorySessionStore{}
	} else {
		store = fileStore
	}
	client := streamclient.New(baseURL, apiKey, store)

	header := color.New(color.FgCyan, color.Bold)
	header.Println("Portfolio assistant - type a message, /history, /new or /quit")
	fmt.Printf("session: %s\n\n", client.SessionID())

	var conversation []streamclient.Message
	scanner := bufio.NewScanner(os.Stdin)

	for {
		color.New(color.FgGreen, color.Bold).Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch input {
		case "/quit", "/exit":
			return
		case "/new":
			conversation = nil
			_ = client.Store.Clear()
			fmt.Printf("new session: %s\n\n", client.SessionID())
			continue
		case "/history":
			printHistory(client)
			continue
		}

		conversation = append(conversation, streamclient.Message{Role: "user", Content: input})
		reply, ok := send(client, conversation)
		if ok {
			conversation = append(conversation, streamclient.Message{Role: "assistant", Content: reply})
		}
		fmt.Println()
	}
}

// send runs one exchange. Ctrl+C aborts the stream but keeps whatever
// arrived; the conversation stays usable.
func send(client *streamclient.Client, conversation []streamclient.Message) (string, bool) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	thinking := true
	bot := color.New(color.FgMagenta, color.Bold)
	bot.Print("bot> ")
	fmt.Print("thinking...")

	var printed int
	res, err := client.Send(ctx, conversation, streamclient.Events{
		OnTypingDone: func() {
			if thinking {
				thinking = false
				fmt.Print("\r" + strings.Repeat(" ", 16) + "\r")
				bot.Print("bot> ")
			}
		},
		OnAppend: func(text string) {
			if len(text) >= printed {
				fmt.Print(text[printed:])
				printed = len(text)
			}
		},
		OnNavigate: func(section string) {
			color.New(color.FgYellow).Printf("\n[would navigate to: %s]\n", section)
		},
	})

	if thinking {
		fmt.Print("\r" + strings.Repeat(" ", 16) + "\r")
	}
	fmt.Println()

	if err != nil {
		if ctx.Err() != nil && res != nil {
			color.Yellow("(stopped, partial reply kept)")
			return res.Text, res.Text != ""
		}
		color.Red("error: %v", err)
		if res != nil && res.Text != "" {
			return res.Text, true
		}
		return "", false
	}
	return res.Text, true
}

func printHistory(client *streamclient.Client) {
	hist, err := client.History(context.Background())
	if err != nil {
		color.Red("error: %v", err)
		return
	}
	if hist.Title != "" {
		color.New(color.Bold).Printf("%s\n", hist.Title)
	}
	if len(hist.Messages) == 0 {
		fmt.Println("(no stored history)")
		return
	}
	for _, m := range hist.Messages {
		fmt.Printf("%s: %s\n", m.Role, m.Content)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
