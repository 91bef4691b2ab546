package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/arkforge/arkwatch/internal/auth"
	"github.com/arkforge/arkwatch/internal/model"
	"github.com/arkforge/arkwatch/internal/repository"
)

type output struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Key       string `json:"key"`
	KeyPrefix string `json:"key_prefix"`
	Tier      string `json:"tier"`
}

// Creates a pre-verified account directly in the database. Useful for local
// development and for provisioning operator accounts that never go through
// the email verification flow.
func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "ops@arkwatch.local", "Account email")
		name        = flag.String("name", "bootstrap", "Account name")
		tier        = flag.String("tier", model.TierBusiness, "Account tier (free,starter,pro,business)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	if _, ok := model.TierLimitsTable[*tier]; !ok {
		fmt.Fprintf(os.Stderr, "unknown tier %q\n", *tier)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	generated, err := auth.GenerateAPIKey()
	if err != nil {
		fmt.Fprintln(os.Stderr, "generate api key:", err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	acc := &model.Account{
		ID:                ulid.Make().String(),
		Email:             strings.ToLower(strings.TrimSpace(*email)),
		Name:              *name,
		KeyHash:           generated.Hash,
		KeyPrefix:         generated.Prefix,
		Tier:              *tier,
		Verified:          true,
		PrivacyAccepted:   true,
		PrivacyAcceptedAt: &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := repo.CreateAccount(ctx, acc); err != nil {
		fmt.Fprintln(os.Stderr, "create account:", err)
		os.Exit(1)
	}

	out := output{
		AccountID: acc.ID,
		Email:     acc.Email,
		Key:       generated.Plaintext,
		KeyPrefix: acc.KeyPrefix,
		Tier:      acc.Tier,
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.Key)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}
