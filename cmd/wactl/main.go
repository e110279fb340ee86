package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/waconsole/waconsole/internal/config"
	"github.com/waconsole/waconsole/internal/platform"
	"github.com/waconsole/waconsole/internal/profile"
	"github.com/waconsole/waconsole/internal/store"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(profile.ConfigPath(profileName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot load profile %q: %v\n", profileName, err)
		os.Exit(1)
	}

	api := platform.NewClient(platform.Config{
		APIURL:      cfg.Server.APIURL,
		SessionsURL: cfg.Server.SessionsURL,
		Token:       cfg.Server.Token,
	}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch args[0] {
	case "sessions":
		cmdSessions(ctx, api, *jsonFlag)
	case "stats":
		cmdStats(ctx, api, *jsonFlag)
	case "chats":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: wactl chats <session>")
			os.Exit(1)
		}
		cmdChats(ctx, api, args[1], *jsonFlag)
	case "messages":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: wactl messages <session> <chat-id> [page]")
			os.Exit(1)
		}
		page := 1
		if len(args) >= 4 {
			page, err = strconv.Atoi(args[3])
			if err != nil || page < 1 {
				fmt.Fprintln(os.Stderr, "error: page must be a positive number")
				os.Exit(1)
			}
		}
		cmdMessages(ctx, api, args[1], args[2], page, *jsonFlag)
	case "send":
		if len(args) < 4 {
			fmt.Fprintln(os.Stderr, "usage: wactl send <session> <phone> <text>")
			os.Exit(1)
		}
		cmdSend(ctx, api, args[1], args[2], args[3])
	case "add-session":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: wactl add-session <agent> <user-id>")
			os.Exit(1)
		}
		userID, err := strconv.Atoi(args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, "error: user-id must be a number")
			os.Exit(1)
		}
		cmdAddSession(ctx, api, args[1], userID)
	case "qr":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: wactl qr <session>")
			os.Exit(1)
		}
		cmdQR(ctx, api, args[1], *jsonFlag)
	case "search":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: wactl search <query> [session]")
			os.Exit(1)
		}
		session := ""
		if len(args) >= 3 {
			session = args[2]
		}
		cmdSearch(profileName, args[1], session, *jsonFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: wactl [--profile <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  sessions                          List sessions")
	fmt.Fprintln(os.Stderr, "  stats                             Show realtime counters")
	fmt.Fprintln(os.Stderr, "  chats <session>                   List a session's chats")
	fmt.Fprintln(os.Stderr, "  messages <session> <chat> [page]  Show chat history, newest first")
	fmt.Fprintln(os.Stderr, "  send <session> <phone> <text>     Send a text message")
	fmt.Fprintln(os.Stderr, "  add-session <agent> <user-id>     Provision a new session")
	fmt.Fprintln(os.Stderr, "  qr <session>                      Show the pairing QR payload")
	fmt.Fprintln(os.Stderr, "  search <query> [session]          Full-text search the local cache")
}

func cmdSessions(ctx context.Context, api *platform.Client, jsonOut bool) {
	sessions, err := api.ListSessions(ctx)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(sessions)
		return
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return
	}
	for _, s := range sessions {
		fmt.Printf("%-20s %-15s %-15s msgs=%d chats=%d\n",
			s.SessionName, s.AgentName, s.Status, s.TotalMessages, s.TotalChats)
	}
}

func cmdStats(ctx context.Context, api *platform.Client, jsonOut bool) {
	stats, err := api.RealtimeStats(ctx)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(stats)
		return
	}
	fmt.Printf("Active sessions:   %d\n", stats.ActiveSessions)
	fmt.Printf("Messages today:    %d\n", stats.MessagesToday)
	fmt.Printf("Connected clients: %d\n", stats.ConnectedClients)
}

func cmdChats(ctx context.Context, api *platform.Client, session string, jsonOut bool) {
	chats, err := api.ListChats(ctx, session)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(chats)
		return
	}
	for _, c := range chats {
		name := c.Name
		if name == "" {
			name = c.ChatID
		}
		fmt.Printf("%-30s unread=%-3d %s\n", name, c.UnreadCount, c.LastMessageText)
	}
}

func cmdMessages(ctx context.Context, api *platform.Client, session, chatID string, page int, jsonOut bool) {
	result, err := api.ChatMessages(ctx, session, chatID, page, 50)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(result)
		return
	}
	for _, m := range result.Messages {
		sender := m.SenderName
		if m.FromMe {
			sender = "me"
		}
		fmt.Printf("[%s] %s: %s\n", m.Timestamp.Time().Format("2006-01-02 15:04"), sender, m.Body)
	}
	fmt.Printf("page %d/%d (%d messages)\n",
		result.Pagination.CurrentPage, result.Pagination.TotalPages, result.Pagination.TotalItems)
}

func cmdSend(ctx context.Context, api *platform.Client, session, phone, text string) {
	id, err := api.SendMessage(ctx, session, phone, text)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("sent: %s\n", id)
}

func cmdAddSession(ctx context.Context, api *platform.Client, agent string, userID int) {
	name, err := api.AddSession(ctx, agent, userID)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("session created: %s\n", name)
}

func cmdQR(ctx context.Context, api *platform.Client, session string, jsonOut bool) {
	code, err := api.SessionQR(ctx, session)
	if err != nil {
		fatal(err)
	}
	if code == nil || (code.QR == "" && code.QRString == "") {
		fmt.Println("No QR code pending; session is likely paired.")
		return
	}
	if jsonOut {
		outputJSON(code)
		return
	}
	fmt.Printf("Session:  %s\n", code.SessionName)
	fmt.Printf("Attempts: %d\n", code.Attempts)
	fmt.Println(code.QRString)
}

// cmdSearch reads the profile's local cache directly; no network involved.
func cmdSearch(profileName, query, session string, jsonOut bool) {
	db, err := store.Open(profile.CachePath(profileName))
	if err != nil {
		fatal(err)
	}
	defer func() { _ = db.Close() }()
	if _, err := db.Migrate(); err != nil {
		fatal(err)
	}

	results, err := db.SearchMessages(query, session, "", 50)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(results)
		return
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
		return
	}
	for _, r := range results {
		fmt.Printf("%-25s %-20s %s\n", r.ChatID, r.SenderName, r.Snippet)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
