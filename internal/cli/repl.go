package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// Test seams for user-facing output.
var (
	printlnFn = fmt.Println
	printFn   = fmt.Print
)

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	List(ctx context.Context) error
	ListStatus(ctx context.Context, status string) error
	Search(ctx context.Context, query string) error
	Add(ctx context.Context) error
	Profile(ctx context.Context) error
	SetProfile(ctx context.Context) error
	Avatar(ctx context.Context, path string) error
}

const (
	helpAnonymous = "Available commands: register, login, list, lost, found, search <text>, help, exit"
	helpSignedIn  = "Available commands: list, lost, found, search <text>, add, profile, setprofile, avatar <path>, whoami, logout, help, exit"
)

// runREPL reads commands from reader until EOF or "exit"/"quit". The first
// token selects the command; the rest of the line is its argument. Errors
// from handlers are printed and the loop continues. Handlers prompting for
// more input share the same reader.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printFn(fmt.Sprintf("carfinder %s> ", statusFn()))
		raw, err := reader.ReadString('\n')
		if err != nil && raw == "" {
			return
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		err = nil
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpAnonymous)
			}

		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "whoami":
			err = a.WhoAmI(ctx)

		case "l", "list":
			err = a.List(ctx)
		case "lost", "found":
			err = a.ListStatus(ctx, cmd)
		case "search":
			err = a.Search(ctx, rest)
		case "add":
			err = a.Add(ctx)

		case "profile":
			err = a.Profile(ctx)
		case "setprofile":
			err = a.SetProfile(ctx)
		case "avatar":
			if rest == "" {
				printlnFn("Usage: avatar <path>")
				continue
			}
			err = a.Avatar(ctx, rest)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
