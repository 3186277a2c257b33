package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	authrepo "github.com/dcamposl/inventario/internal/auth/repository"
	authservice "github.com/dcamposl/inventario/internal/auth/service"
	"github.com/dcamposl/inventario/internal/common/clock"
	"github.com/dcamposl/inventario/internal/common/constants"
	commoncrypto "github.com/dcamposl/inventario/internal/common/crypto"
	"github.com/dcamposl/inventario/internal/common/db"
	"github.com/dcamposl/inventario/internal/common/logger"
)

func main() {
	username := flag.String("username", "", "username for the new account")
	password := flag.String("password", "", "password for the new account")
	flag.Parse()

	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: createuser -username <name> -password <password>")
		os.Exit(2)
	}

	log, err := logger.New(os.Getenv("LOG_DIR"), "createuser", os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	bcryptCost := constants.DefaultBcryptCost
	if raw := os.Getenv("BCRYPT_COST"); raw != "" {
		cost, err := strconv.Atoi(raw)
		if err != nil {
			log.Fatalf("invalid BCRYPT_COST %q: %v", raw, err)
		}
		bcryptCost = cost
	}

	pool := db.NewPool(log, databaseURL)
	defer pool.Close()

	repo := authrepo.NewPgUserRepository(pool)
	hasher := commoncrypto.NewBcryptHasher(bcryptCost)
	idGenerator := commoncrypto.NewUUIDGenerator()
	auth := authservice.NewAuthService(repo, hasher, idGenerator, nil, clock.NewRealClock(), log)

	user, err := auth.CreateUser(context.Background(), *username, *password)
	if err != nil {
		if errors.Is(err, authservice.ErrUsernameTaken) {
			log.Fatalf("user %q already exists", *username)
		}
		log.Fatalf("failed to create user: %v", err)
	}

	fmt.Printf("created user %s (%s)\n", user.Username, user.ID)
}
