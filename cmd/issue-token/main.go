// Command issue-token signs a bearer token for a workflow actor, for use
// against the HTTP API in development and operations.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/garyjia/supplier-workflow/internal/config"
	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
	httpapi "github.com/garyjia/supplier-workflow/internal/interfaces/http"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	id := flag.Int64("id", 0, "actor user id")
	role := flag.String("role", "", "actor role: purchasing, legal, operations or supplier")
	company := flag.Int64("company", 0, "supplier company id (supplier role only)")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	lifetime := cfg.Auth.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	token, err := httpapi.SignActorToken(cfg.Auth.Secret, domainwf.Actor{
		ID:        *id,
		Role:      domainwf.Role(*role),
		CompanyID: *company,
	}, lifetime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
