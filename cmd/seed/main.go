// seed populates a local dev database with a test user, a GitHub
// credential token, and a handful of analyze_* intentions so a
// schedworker has something to pick up immediately.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/cauldronio/poolsched/internal/domain"
	"github.com/cauldronio/poolsched/internal/infrastructure/postgres"
	"github.com/jackc/pgx/v5"
)

const seedEmail = "dev@example.com"

var seedGitRepos = []string{
	"https://github.com/cauldronio/cauldron.git",
	"https://github.com/chaoss/grimoirelab-perceval.git",
}

var seedGitHubRepos = [][2]string{
	{"cauldronio", "cauldron"},
	{"chaoss", "grimoirelab"},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	users := postgres.NewUserRepository(pool)
	repos := postgres.NewRepoRepository(pool)
	intentions := postgres.NewIntentionRepository(pool)

	user, err := users.FindOrCreate(ctx, seedEmail)
	if err != nil {
		log.Fatalf("find or create seed user: %v", err)
	}
	fmt.Printf("seed user: %s (%s)\n", user.ID, user.Email)

	var tokenID string
	err = pool.QueryRow(ctx, `
		INSERT INTO tokens (kind, user_id, secret, reset_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT DO NOTHING
		RETURNING id`,
		domain.TokenGitHub, user.ID, "seed-github-pat-placeholder",
	).Scan(&tokenID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		fmt.Println("github token already seeded, skipping insert")
	case err != nil:
		log.Fatalf("insert seed github token: %v", err)
	default:
		fmt.Printf("seed github token: %s\n", tokenID)
	}

	for _, url := range seedGitRepos {
		repo, err := repos.GetOrCreateGit(ctx, url)
		if err != nil {
			log.Fatalf("get or create git repo %s: %v", url, err)
		}
		enrich, err := intentions.GetOrCreate(ctx, domain.KindGitEnrich, user.ID, repo.ID)
		if err != nil {
			log.Fatalf("get or create git_enrich intention for %s: %v", url, err)
		}
		fmt.Printf("queued git_enrich intention %s for %s\n", enrich.ID, url)
	}

	instance, err := repos.GetOrCreateInstance(ctx, domain.RepoGitHub, "GitHub")
	if err != nil {
		log.Fatalf("get or create github instance: %v", err)
	}
	for _, or := range seedGitHubRepos {
		owner, name := or[0], or[1]
		repo, err := repos.GetOrCreateGitHub(ctx, owner, name, instance.ID)
		if err != nil {
			log.Fatalf("get or create github repo %s/%s: %v", owner, name, err)
		}
		enrich, err := intentions.GetOrCreate(ctx, domain.KindGitHubEnrich, user.ID, repo.ID)
		if err != nil {
			log.Fatalf("get or create github_enrich intention for %s/%s: %v", owner, name, err)
		}
		fmt.Printf("queued github_enrich intention %s for %s/%s\n", enrich.ID, owner, name)
	}

	fmt.Println()
	fmt.Println("seed complete — start a schedworker to watch it admit and run these intentions")
}
