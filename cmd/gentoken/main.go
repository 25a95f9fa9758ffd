// Test program to generate JWT tokens for local API calls.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/inscrevo/server/internal/auth"
	"github.com/inscrevo/server/internal/domain/ids"
)

func main() {
	userID := flag.String("user", "", "user id (default: a fresh ULID)")
	role := flag.String("role", "user", "token role")
	expiry := flag.Duration("expiry", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "Error: JWT_SECRET not set")
		os.Exit(1)
	}

	subject := *userID
	if subject == "" {
		subject = ids.MustNewULID()
	}

	manager := auth.NewJWTManager(secret, *expiry, os.Getenv("JWT_ISSUER"))
	token, err := manager.Generate(subject, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("JWT Token:")
	fmt.Println(token)
	fmt.Println("\nTest with:")
	fmt.Printf("curl -H 'Authorization: Bearer %s' http://localhost:8080/api/v1/payments/me\n", token)
}
