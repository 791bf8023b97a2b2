package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/bookcatalog/internal/auth"
	"github.com/mrlokans/bookcatalog/internal/config"
	"github.com/mrlokans/bookcatalog/internal/database"
	"github.com/mrlokans/bookcatalog/internal/database/users"
)

// CreateUserCommand registers an account from the command line, useful
// for bootstrapping without going through the signup form.
type CreateUserCommand struct {
	Username     string
	Email        string
	Password     string
	DatabasePath string
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username for the new account (required, 5-50 characters)")
	fs.StringVar(&cmd.Email, "email", "", "Email address for the new account (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password for the new account (required, at least 8 characters)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the application database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -username <name> -email <address> -password <secret> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a catalog account directly in the database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" || cmd.Email == "" || cmd.Password == "" {
		return fmt.Errorf("flags -username, -email and -password are all required")
	}

	return nil
}

func (cmd *CreateUserCommand) Run() error {
	cfg := config.NewConfig()

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	service := auth.NewService(users.NewRepository(db.DB), cfg.Auth)

	user, err := service.Register(cmd.Username, cmd.Email, cmd.Password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Created user %s (id=%d, email=%s)\n", user.Username, user.ID, user.Email)
	return nil
}
