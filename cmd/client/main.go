package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"satlas-api/client"
)

const usage = `usage: satlas-client [flags] <command> [args]

commands:
  signup   -name NAME -email EMAIL -password PASSWORD [-grade G] [-country C] [-phone P]
  login    -email EMAIL -password PASSWORD
  logout
  whoami
  banners
  blog

flags:
  -server URL   API base URL (default http://localhost:8000)
  -store PATH   credential file path (default ~/.satlas/credentials.json)
`

func main() {
	server := flag.String("server", "http://localhost:8000", "API base URL")
	storePath := flag.String("store", client.DefaultCredentialPath(), "credential file path")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	store := client.NewFileCredentialStore(*storePath)
	svc := client.NewService(*server, store)
	session := client.NewSession(svc)
	session.Init()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch args[0] {
	case "signup":
		err = runSignup(ctx, session, args[1:])
	case "login":
		err = runLogin(ctx, session, args[1:])
	case "logout":
		session.SignOut()
		fmt.Println("signed out")
	case "whoami":
		err = runWhoami(ctx, session, svc)
	case "banners":
		err = runBanners(ctx, svc)
	case "blog":
		err = runBlog(ctx, svc)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runSignup(ctx context.Context, session *client.Session, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (6+ characters)")
	grade := fs.String("grade", "", "current grade")
	country := fs.String("country", "", "country")
	phone := fs.String("phone", "", "phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := session.SignUp(ctx, client.SignUpInput{
		Name:         *name,
		Email:        *email,
		Password:     *password,
		CurrentGrade: *grade,
		Country:      *country,
		PhoneNumber:  *phone,
	}); err != nil {
		return err
	}
	user, _ := session.CurrentUser()
	fmt.Printf("signed up as %s <%s>\n", user.Name, user.Email)
	return nil
}

func runLogin(ctx context.Context, session *client.Session, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := session.SignIn(ctx, *email, *password); err != nil {
		return err
	}
	user, _ := session.CurrentUser()
	fmt.Printf("signed in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func runWhoami(ctx context.Context, session *client.Session, svc *client.Service) error {
	if !session.IsAuthenticated() {
		fmt.Println("not signed in")
		return nil
	}
	// Prefer the live profile; fall back to the persisted one when offline.
	user, err := svc.Me(ctx)
	if err != nil {
		var ok bool
		if user, ok = session.CurrentUser(); !ok {
			return err
		}
	}
	fmt.Printf("%s <%s> role=%s\n", user.Name, user.Email, user.Role)
	return nil
}

func runBanners(ctx context.Context, svc *client.Service) error {
	items, err := svc.Banners(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no banners")
		return nil
	}
	for _, b := range items {
		fmt.Printf("%s  %s  status=%s active=%t\n", b.ID, b.URL, b.Status, b.Active)
	}
	return nil
}

func runBlog(ctx context.Context, svc *client.Service) error {
	b, err := svc.Blog(ctx)
	if err != nil {
		return err
	}
	if b == nil {
		fmt.Println("no blog published")
		return nil
	}
	fmt.Printf("%s\n\n%s\n", b.BlogTitle, b.BlogPostContent)
	for _, f := range b.FAQ {
		fmt.Printf("\nQ: %s\nA: %s\n", f.Question, f.Answer)
	}
	return nil
}
