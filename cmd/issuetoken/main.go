// Command issuetoken mints a bearer token for the credits API.
//
//	INVOICE2ERPNEXT_JWT_SECRET=... issuetoken -user alice@example.com -role "System Manager" -ttl 24h
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ericfisherdev/invoice2erpnext/internal/auth"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "issuetoken:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("issuetoken", flag.ContinueOnError)
	user := fs.String("user", "", "user the token identifies (required)")
	roles := fs.String("role", "", "comma-separated roles, e.g. \"System Manager\"")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *user == "" {
		return fmt.Errorf("-user is required")
	}
	secret := os.Getenv("INVOICE2ERPNEXT_JWT_SECRET")
	if secret == "" {
		return fmt.Errorf("INVOICE2ERPNEXT_JWT_SECRET is required")
	}

	var roleList []string
	for _, r := range strings.Split(*roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roleList = append(roleList, r)
		}
	}

	token, err := auth.NewJWTManager(secret, *ttl).Generate(*user, roleList...)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
