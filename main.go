package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"notesync/config"
	"notesync/internal/api"
	"notesync/internal/notes"
	"notesync/internal/notes/model"
	"notesync/internal/session"
	"notesync/pkg/apperr"
	"notesync/pkg/logger"
)

// Terminal front for the notes client. All state lives in the session
// store, the synchronizer and the editor; this loop only renders it and
// forwards commands.
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables from OS")
	}
	logger.Init()
	defer logger.Log.Sync()

	cfg := config.Load()

	client := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)
	creds := session.NewCredentialStore(cfg.CredentialsFile)
	store := session.NewStore(client, creds)
	sync := notes.NewSynchronizer(client, store, cfg.NoticeTTL)
	editor := notes.NewEditor(sync)
	defer sync.Close()

	gate := session.NewGate(store)
	gate.Subscribe(func(route session.Route) {
		fmt.Printf("\n-- %s --\n", route)
	})

	if store.Restore() {
		fmt.Printf("Welcome back, %s\n", store.Current().User.Email)
	}
	gate.Navigate(session.RouteNotes)

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("notesync - type 'help' for commands")
	for {
		fmt.Printf("%s> ", gate.Current())
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help":
			fmt.Println("login <email> <password> | register <email> <password> | logout")
			fmt.Println("list | refresh | new <title> [content] | edit <id> <title> [content] | rm <id> | quit")
		case "login":
			if len(fields) < 3 {
				fmt.Println("usage: login <email> <password>")
				continue
			}
			doAuth(ctx, gate, sync, func() error {
				_, err := store.Login(ctx, fields[1], fields[2])
				return err
			})
		case "register":
			if len(fields) < 3 {
				fmt.Println("usage: register <email> <password>")
				continue
			}
			doAuth(ctx, gate, sync, func() error {
				_, err := store.Register(ctx, fields[1], fields[2])
				return err
			})
		case "logout":
			store.Logout()
		case "list":
			printNotes(sync.Snapshot())
		case "refresh":
			if err := sync.Refresh(ctx); err == nil {
				printNotes(sync.Snapshot())
			} else {
				printError(sync)
			}
		case "new":
			if len(fields) < 2 {
				fmt.Println("usage: new <title> [content]")
				continue
			}
			editor.OpenCreate()
			draft := model.Draft{Title: fields[1], Content: strings.Join(fields[2:], " ")}
			if note, err := sync.Create(ctx, draft); err == nil {
				editor.CloseCreate()
				fmt.Printf("created %s\n", note.ID)
			} else {
				printError(sync)
			}
		case "edit":
			if len(fields) < 3 {
				fmt.Println("usage: edit <id> <title> [content]")
				continue
			}
			if err := editor.BeginEdit(fields[1]); err != nil {
				fmt.Println("unknown note id")
				continue
			}
			draft := model.Draft{Title: fields[2], Content: strings.Join(fields[3:], " ")}
			if _, err := editor.CommitEdit(ctx, draft); err != nil {
				printError(sync)
				editor.CancelEdit()
			}
		case "rm":
			if len(fields) < 2 {
				fmt.Println("usage: rm <id>")
				continue
			}
			if err := sync.Delete(ctx, fields[1]); err != nil {
				printError(sync)
			}
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command, type 'help'")
		}
	}
}

func doAuth(ctx context.Context, gate *session.Gate, sync *notes.Synchronizer, op func() error) {
	if err := op(); err != nil {
		fmt.Println(apperr.UserMessage(err))
		return
	}
	gate.Navigate(session.RouteNotes)
	if err := sync.Refresh(ctx); err == nil {
		printNotes(sync.Snapshot())
	}
}

func printNotes(snapshot model.Snapshot) {
	if len(snapshot.Notes) == 0 {
		fmt.Println("no notes yet")
		return
	}
	for _, note := range snapshot.Notes {
		fmt.Printf("%s  %s  (%s)\n", note.ID, note.Title, note.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
}

func printError(sync *notes.Synchronizer) {
	if msg := sync.Snapshot().LastError; msg != "" {
		fmt.Println(msg)
	}
}

