// Command devtoken prints a bearer token signed with JWT_SECRET for local testing.
//
//	go run ./cmd/devtoken -customer C1
//	go run ./cmd/devtoken -admin A1 -role "Security Officer"
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"go-claims/internal/config"
	"go-claims/pkg/utils"
)

func main() {
	customerID := flag.String("customer", "", "customer id to put in the token")
	adminID := flag.String("admin", "", "admin id to put in the token")
	role := flag.String("role", "Claims Adjuster", "admin role")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *customerID == "" && *adminID == "" {
		log.Fatal("one of -customer or -admin is required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	utils.SetSecret(cfg.JWTSecret)

	claims := utils.UserClaims{CustomerID: *customerID}
	if *adminID != "" {
		claims.AdminID = *adminID
		claims.Role = *role
		claims.IsAdmin = true
	}

	token, err := utils.GenerateToken(claims, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
