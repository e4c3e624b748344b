package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/nav"
	"github.com/darasahq/darasa/core/session"
	"github.com/darasahq/darasa/core/user"
	"github.com/darasahq/darasa/services/apiclient"
	logsvc "github.com/darasahq/darasa/services/logger"
	"github.com/darasahq/darasa/storage/credentials"
)

// The portal shell: a terminal stand-in for the web front-end. It boots the
// session from persisted credentials, then walks the screen graph behind the
// route guard.
func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "PORTAL : ", log.LstdFlags),
		conf,
	)
	logger.Enable(!conf.Debug)

	startPath := "/dashboard"
	if len(os.Args) > 1 {
		startPath = os.Args[1]
	}

	store := session.NewStore()
	creds := credentials.NewFileStore(conf.Client.CredentialsDir)
	api := apiclient.NewClient(conf.Client.APIBaseURL)
	router := nav.NewHistory(startPath)

	fmt.Println("Loading...")
	seq := session.NewSequencer(store, creds, api, router, conf, logger)
	seq.Run(context.Background())

	svc := session.NewService(store, creds, api, router, logger)
	guard := nav.NewGuard(store)

	in := bufio.NewScanner(os.Stdin)
	for {
		loc := router.Current()
		res := guard.Resolve(loc)
		switch res.Action {
		case nav.Wait:
			fmt.Println("Loading...")
			continue
		case nav.Redirect:
			router.Replace(res.RedirectTo.Path, res.RedirectTo.State)
			continue
		}

		render(store, loc)
		if loc.Path == session.LoginPath {
			if !loginScreen(svc, in) {
				return
			}
			continue
		}

		fmt.Print("> ")
		if !in.Scan() {
			return
		}
		args := strings.Fields(in.Text())
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "go":
			if len(args) > 1 {
				router.Push(args[1])
			}
		case "logout":
			svc.Logout()
		case "quit":
			return
		default:
			fmt.Println("commands: go <path> | logout | quit")
		}
	}
}

func render(store *session.Store, loc nav.Location) {
	if usr, ok := store.User(); ok {
		fmt.Printf("\n[%s] %s (%s)\n", loc.Path, usr.Name, usr.Role)
	} else {
		fmt.Printf("\n[%s]\n", loc.Path)
	}
}

// loginScreen prompts for credentials; returns false when stdin is closed.
func loginScreen(svc *session.Service, in *bufio.Scanner) bool {
	fmt.Print("email: ")
	if !in.Scan() {
		return false
	}
	email := in.Text()

	fmt.Print("password: ")
	pwd, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("could not read password:", err)
		return true
	}

	usr, err := svc.Login(context.Background(), user.Login{Email: email, Password: string(pwd)})
	if err != nil {
		fmt.Println("login failed:", loginErrMessage(err))
		return true
	}
	fmt.Printf("Welcome back, %s!\n", usr.Name)
	return true
}

func loginErrMessage(err error) string {
	if apiErr, ok := err.(*apiclient.Error); ok {
		return apiErr.Message
	}
	return err.Error()
}
