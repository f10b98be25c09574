// Command attendance-admin runs maintenance tasks against the attendance database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/internal/repository"
	"github.com/noah-isme/qr-attendance-api/internal/service"
	"github.com/noah-isme/qr-attendance-api/pkg/config"
	"github.com/noah-isme/qr-attendance-api/pkg/database"
	"github.com/noah-isme/qr-attendance-api/pkg/logger"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type accountService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error)
	ResetPassword(ctx context.Context, username, password string) error
}

type commandLine struct {
	accounts accountService
	migrate  func(context.Context) error
	out      io.Writer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database, logr)
	if err != nil {
		logr.Fatal("connect database", zap.Error(err))
	}
	defer db.Close()

	cli := newCommandLine(db, logr)
	if err := cli.run(context.Background(), os.Args); err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(2)
		}
		logr.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func newCommandLine(db *sqlx.DB, logr *zap.Logger) *commandLine {
	return &commandLine{
		accounts: service.NewAuthService(repository.NewUserRepository(db), validator.New(), logr),
		migrate: func(ctx context.Context) error {
			return database.EnsureSchema(ctx, db)
		},
		out: os.Stdout,
	}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate                                  - create missing tables and indexes")
	fmt.Fprintln(cli.out, "  add-admin -username USERNAME [-name NAME] - create an administrator")
	fmt.Fprintln(cli.out, "  reset-password -username USERNAME         - reset a user's password")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addAdminCmd := flag.NewFlagSet("add-admin", flag.ContinueOnError)
	addAdminCmd.SetOutput(cli.out)
	addAdminUname := addAdminCmd.String("username", "", "The administrator's login name. The password will be prompted next.")
	addAdminName := addAdminCmd.String("name", "", "Display name, defaults to the username.")

	resetPasswordCmd := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's login name. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if err := cli.migrate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "schema is up to date")
		return nil
	case "add-admin":
		if err := addAdminCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addAdminUname == "" {
			addAdminCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addAdminCmd.Usage()
			return errHelp
		}
		resp, err := cli.accounts.Register(ctx, dto.RegisterRequest{
			Name:     *addAdminName,
			Username: *addAdminUname,
			Password: pwd,
			Role:     string(models.RoleAdmin),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cli.out, resp.Message)
		return nil
	case "reset-password":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		if err := cli.accounts.ResetPassword(ctx, *resetPasswordUname, pwd); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "password updated for %s\n", *resetPasswordUname)
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pwd), nil
}
