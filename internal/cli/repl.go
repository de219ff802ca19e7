package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	Profile(ctx context.Context) error
	SubmitReport(ctx context.Context) error
	ListReports(ctx context.Context, args []string) error
	ShowReport(ctx context.Context, args []string) error
	SetStatus(ctx context.Context, args []string) error
	DeleteReport(ctx context.Context, args []string) error
	Stats(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop.
//
// It reads a line from reader, parses the first token as the command and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF or when the user types "exit" or "quit".
//
//	Not logged in:
//	  - help           — show available commands
//	  - register       — create an account
//	  - login          — authenticate
//	  - exit | quit    — leave the program
//
//	Logged in:
//	  - whoami         — show the profile
//	  - passwd         — change password
//	  - profile        — edit name, mobile number, email
//	  - report         — file a water quality report
//	  - (l)ist [status]— list reports
//	  - show <id>      — show a report
//	  - status <id> <s>— change a report's status
//	  - delete <id>    — delete a report
//	  - stats          — report counts
//	  - logout         — log out
//
// Errors returned by handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("waterwatch%s> ", prefixSpace(statusFn())))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn(ctx) {
				printlnFn("Available commands: whoami, passwd, profile, report, (l)ist [status], show <id>, status <id> <status>, delete <id>, stats, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			cmdErr = a.Register(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "whoami":
			cmdErr = a.WhoAmI(ctx)

		case "passwd":
			cmdErr = a.ChangePassword(ctx)

		case "profile":
			cmdErr = a.Profile(ctx)

		case "report":
			cmdErr = a.SubmitReport(ctx)

		case "l", "list":
			cmdErr = a.ListReports(ctx, args)

		case "show":
			cmdErr = a.ShowReport(ctx, args)

		case "status":
			cmdErr = a.SetStatus(ctx, args)

		case "delete":
			cmdErr = a.DeleteReport(ctx, args)

		case "stats":
			cmdErr = a.Stats(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}

func prefixSpace(s string) string {
	if s == "" {
		return ""
	}
	return " " + s
}
