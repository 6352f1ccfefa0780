// Command admin provides operational helpers: schema migration, user and
// workspace creation and feature flag toggles.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/mail"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	"github.com/workden/workden/business/domain/auditbus"
	"github.com/workden/workden/business/domain/auditbus/stores/auditdb"
	"github.com/workden/workden/business/domain/flagbus"
	"github.com/workden/workden/business/domain/flagbus/stores/flagdb"
	"github.com/workden/workden/business/domain/userbus"
	"github.com/workden/workden/business/domain/userbus/stores/usercache"
	"github.com/workden/workden/business/domain/userbus/stores/userdb"
	"github.com/workden/workden/business/domain/workspacebus"
	"github.com/workden/workden/business/domain/workspacebus/stores/workspacedb"
	"github.com/workden/workden/business/sdk/sqldb"
	"github.com/workden/workden/business/types/name"
	"github.com/workden/workden/business/types/password"
	"github.com/workden/workden/business/types/usertype"
	"github.com/workden/workden/foundation/logger"
)

type Config struct {
	DB struct {
		User         string `envconfig:"DB_USER" default:"postgres"`
		Password     string `envconfig:"DB_PASSWORD" default:"postgres"`
		Host         string `envconfig:"DB_HOST" default:"localhost"`
		Name         string `envconfig:"DB_NAME" default:"workden"`
		MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"0"`
		MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"0"`
		DisableTLS   bool   `envconfig:"DB_DISABLE_TLS" default:"true"`
	}
}

func main() {
	log := logger.New(os.Stdout, logger.LevelInfo, "ADMIN-TOOL", nil)
	ctx := context.Background()

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "startup", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger) error {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("processing config: %w", err)
	}

	db, err := sqldb.Open(sqldb.Config{
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		DisableTLS:   cfg.DB.DisableTLS,
	})
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer db.Close()

	userBus := userbus.NewCore(usercache.NewStore(log, userdb.NewStore(log, db), time.Minute))
	flagBus := flagbus.NewCore(flagdb.NewStore(log, db))
	workspaceBus := workspacebus.NewCore(log, workspacedb.NewStore(log, db))
	auditBus := auditbus.NewCore(log, auditdb.NewStore(log, db))

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		fmt.Println("Commands: migrate, create-user, create-workspace, set-flag, audit")
		return nil
	}

	switch os.Args[1] {
	case "migrate":
		return runMigrate(ctx, db)
	case "create-user":
		return runCreateUser(ctx, userBus, os.Args[2:])
	case "create-workspace":
		return runCreateWorkspace(ctx, workspaceBus, os.Args[2:])
	case "set-flag":
		return runSetFlag(ctx, flagBus, os.Args[2:])
	case "audit":
		return runAudit(ctx, auditBus, os.Args[2:])
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

func runMigrate(ctx context.Context, db *sqlx.DB) error {
	schema, err := os.ReadFile("zarf/migrations.sql")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	fmt.Println("\nSUCCESS: Schema migrated")
	return nil
}

func runCreateUser(ctx context.Context, ub *userbus.Core, args []string) error {
	cmd := flag.NewFlagSet("create-user", flag.ExitOnError)
	emailStr := cmd.String("email", "", "User email (Required)")
	passStr := cmd.String("password", "", "User password (Required)")
	nameStr := cmd.String("name", "", "User full name (Required)")
	tenantStr := cmd.String("tenant-id", "", "Home tenant UUID (Required)")
	typeStr := cmd.String("type", "TEAM_MEMBER", "User type")
	isAdmin := cmd.Bool("admin", false, "Grant the tenant admin bit")
	cmd.Parse(args)

	if *emailStr == "" || *passStr == "" || *nameStr == "" || *tenantStr == "" {
		cmd.PrintDefaults()
		return fmt.Errorf("missing required fields")
	}

	tenantID, err := uuid.Parse(*tenantStr)
	if err != nil {
		return fmt.Errorf("invalid tenant uuid: %w", err)
	}

	n, err := name.Parse(*nameStr)
	if err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}

	addr, err := mail.ParseAddress(*emailStr)
	if err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	typ, err := usertype.Parse(*typeStr)
	if err != nil {
		return fmt.Errorf("invalid user type: %w", err)
	}

	p, err := password.Parse(*passStr)
	if err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	newUser := userbus.NewUser{
		TenantID: tenantID,
		Name:     n,
		Email:    *addr,
		Type:     typ,
		IsAdmin:  *isAdmin,
		Password: p,
	}

	usr, err := ub.Create(ctx, newUser)
	if err != nil {
		return fmt.Errorf("create user failed: %w", err)
	}

	fmt.Printf("\nSUCCESS: User created!\nID: %s\nEmail: %s\nType: %s\n", usr.ID, usr.Email.Address, usr.Type)
	return nil
}

func runCreateWorkspace(ctx context.Context, wb *workspacebus.Core, args []string) error {
	cmd := flag.NewFlagSet("create-workspace", flag.ExitOnError)
	nameStr := cmd.String("name", "", "Workspace name (Required)")
	planStr := cmd.String("plan-id", "", "Subscription plan UUID")
	cmd.Parse(args)

	if *nameStr == "" {
		cmd.PrintDefaults()
		return fmt.Errorf("missing required fields")
	}

	n, err := name.Parse(*nameStr)
	if err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}

	nw := workspacebus.NewWorkspace{
		Name: n,
	}

	if *planStr != "" {
		id, err := uuid.Parse(*planStr)
		if err != nil {
			return fmt.Errorf("invalid plan uuid: %w", err)
		}
		nw.PlanID = &id
	}

	ws, err := wb.Create(ctx, nw)
	if err != nil {
		return fmt.Errorf("create workspace failed: %w", err)
	}

	fmt.Printf("\nSUCCESS: Workspace created!\nID: %s\nName: %s\n", ws.ID, ws.Name)
	return nil
}

func runAudit(ctx context.Context, ab *auditbus.Core, args []string) error {
	cmd := flag.NewFlagSet("audit", flag.ExitOnError)
	tenantStr := cmd.String("tenant-id", "", "Tenant UUID (Required)")
	limit := cmd.Int("limit", 50, "Max entries to show")
	cmd.Parse(args)

	if *tenantStr == "" {
		cmd.PrintDefaults()
		return fmt.Errorf("missing required fields")
	}

	tenantID, err := uuid.Parse(*tenantStr)
	if err != nil {
		return fmt.Errorf("invalid tenant uuid: %w", err)
	}

	entries, err := ab.QueryByTenant(ctx, tenantID, *limit)
	if err != nil {
		return fmt.Errorf("query audit failed: %w", err)
	}

	for _, ent := range entries {
		actor := "-"
		if ent.ActorID != nil {
			actor = ent.ActorID.String()
		}
		fmt.Printf("%s  %-24s  actor=%s  severity=%s  success=%v\n",
			ent.CreatedAt.Format(time.RFC3339), ent.Action, actor, ent.Severity, ent.Success)
	}

	fmt.Printf("\n%d entries\n", len(entries))
	return nil
}

func runSetFlag(ctx context.Context, fb *flagbus.Core, args []string) error {
	cmd := flag.NewFlagSet("set-flag", flag.ExitOnError)
	keyStr := cmd.String("key", flagbus.MultiWorkspace, "Flag key")
	tenantStr := cmd.String("tenant-id", "", "Tenant UUID (empty sets the global default)")
	enabledStr := cmd.String("enabled", "true", "true or false")
	cmd.Parse(args)

	enabled, err := strconv.ParseBool(*enabledStr)
	if err != nil {
		return fmt.Errorf("invalid enabled value: %w", err)
	}

	var tenantID *uuid.UUID
	if *tenantStr != "" {
		id, err := uuid.Parse(*tenantStr)
		if err != nil {
			return fmt.Errorf("invalid tenant uuid: %w", err)
		}
		tenantID = &id
	}

	if err := fb.Set(ctx, *keyStr, tenantID, enabled); err != nil {
		return fmt.Errorf("set flag failed: %w", err)
	}

	fmt.Printf("\nSUCCESS: Flag %q set to %v\n", *keyStr, enabled)
	return nil
}
