package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/goatnetwork/solver-vault/internal/http"
	"github.com/goatnetwork/solver-vault/internal/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func main() {
	var (
		secret  = flag.String("secret", os.Getenv("API_JWT_SECRET"), "HS256 secret, defaults to API_JWT_SECRET")
		caller  = flag.String("caller", "", "Caller address the token speaks for")
		ttl     = flag.Duration("ttl", 24*time.Hour, "Token lifetime, 0 for no expiry")
		help    = flag.Bool("help", false, "Show help message")
		issuer  = flag.String("issuer", "solver-vault", "Token issuer")
		verbose = flag.Bool("v", false, "Print the claims next to the token")
	)
	flag.Parse()

	if *help {
		fmt.Println("Usage: apitoken [options]")
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *secret == "" {
		log.Fatal("Secret is required. Use -secret flag or API_JWT_SECRET.")
	}
	if *caller == "" {
		log.Fatal("Caller address is required. Use -caller flag.")
	}
	address, err := types.ParseAddress(*caller)
	if err != nil {
		log.Fatalf("Invalid caller: %v", err)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:       uuid.New().String(),
		Issuer:   *issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if *ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(*ttl))
	}

	token, err := http.NewAPIToken(*secret, address, claims)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	if *verbose {
		fmt.Printf("Caller: %s\n", address.Hex())
		fmt.Printf("Token ID: %s\n", claims.ID)
		if claims.ExpiresAt != nil {
			fmt.Printf("Expires: %s\n", claims.ExpiresAt.Time.Format(time.RFC3339))
		}
	}
	fmt.Println(token)
}
