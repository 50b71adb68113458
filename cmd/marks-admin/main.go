package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-marks-api/internal/models"
	"github.com/noah-isme/sma-marks-api/internal/repository"
	"github.com/noah-isme/sma-marks-api/internal/service"
	"github.com/noah-isme/sma-marks-api/pkg/config"
	"github.com/noah-isme/sma-marks-api/pkg/database"
	"github.com/noah-isme/sma-marks-api/pkg/logger"
)

const usage = `usage: marks-admin <command> [flags]

commands:
  migrate                               create tables if missing
  user  -id N -email E [-name N] [-roles R]  mirror a directory user
  link  -parent N -children 23,45,56    overwrite a parent's children
  token -id N [-roles R] [-ttl 1h]      sign a development access token
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "migrate":
		err = runMigrate(ctx, cfg)
	case "user":
		err = runUser(ctx, cfg, args)
	case "link":
		err = runLink(ctx, cfg, args)
	case "token":
		err = runToken(cfg, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logr.Fatal("command failed", zap.String("command", cmd), zap.Error(err))
	}
}

func runMigrate(ctx context.Context, cfg *config.Config) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		return err
	}
	fmt.Println("schema up to date")
	return nil
}

func runUser(ctx context.Context, cfg *config.Config, args []string) error {
	identity, err := parseUser(args)
	if err != nil {
		return err
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.NewUserRepository(db).Upsert(ctx, identity); err != nil {
		return err
	}
	fmt.Printf("user %d saved\n", identity.ID)
	return nil
}

// parseUser reads the user flags. Email is mandatory because users.email is unique and not null.
func parseUser(args []string) (*models.Identity, error) {
	fs := flag.NewFlagSet("user", flag.ContinueOnError)
	id := fs.Int64("id", 0, "user id from the identity system")
	email := fs.String("email", "", "email address")
	name := fs.String("name", "", "display name")
	roles := fs.String("roles", "", "comma separated roles")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *id <= 0 {
		return nil, fmt.Errorf("-id is required")
	}
	identity := &models.Identity{ID: *id, Email: strings.TrimSpace(*email), DisplayName: strings.TrimSpace(*name), Roles: splitRoles(*roles)}
	if identity.Email == "" {
		return nil, fmt.Errorf("-email is required")
	}
	return identity, nil
}

func runLink(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("link", flag.ExitOnError)
	parent := fs.Int64("parent", 0, "parent user id")
	children := fs.String("children", "", "comma separated child ids")
	_ = fs.Parse(args)

	childIDs := service.ParseChildIDs(*children)
	if *parent <= 0 || len(childIDs) == 0 {
		return fmt.Errorf("-parent and at least one child id are required")
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	link := &models.ParentChildLink{ParentID: *parent, ChildIDs: childIDs}
	if err := repository.NewParentLinkRepository(db).Replace(ctx, link); err != nil {
		return err
	}
	fmt.Printf("parent %d linked to %s\n", link.ParentID, joinIDs(link.ChildIDs))
	return nil
}

func runToken(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	id := fs.Int64("id", 0, "user id")
	email := fs.String("email", "", "email address")
	name := fs.String("name", "", "display name")
	roles := fs.String("roles", "", "comma separated roles")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	_ = fs.Parse(args)
	if *id <= 0 {
		return fmt.Errorf("-id is required")
	}

	auth := service.NewAuthService(nil, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: *ttl,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	})
	token, expiresAt, err := auth.IssueToken(models.Identity{ID: *id, Email: *email, DisplayName: *name, Roles: splitRoles(*roles)})
	if err != nil {
		return err
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
	return nil
}

func splitRoles(raw string) []string {
	roles := []string{}
	for _, role := range strings.Split(raw, ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
