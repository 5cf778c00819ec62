package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"leadintake/internal/domain/lifecycle"
	"leadintake/internal/errors"
	"leadintake/internal/usecase"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"golang.org/x/term"
)

// readTerminalPassword is a test seam for term.ReadPassword.
var readTerminalPassword = term.ReadPassword

// NewAttorneyCmd creates the attorney command group.
func NewAttorneyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attorney",
		Short: "Manage attorney accounts",
	}
	cmd.AddCommand(newAttorneyCreateCmd())

	return cmd
}

func newAttorneyCreateCmd() *cobra.Command {
	var (
		name          string
		email         string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register an attorney",
		Long: `Register an attorney the same way POST /register does. The password is read
from the terminal, or from the first line of stdin with --password-stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd, passwordStdin)
			if err != nil {
				return err
			}

			return runAttorneyCreate(cmd, &usecase.RegisterInput{
				Name:     name,
				Email:    email,
				Password: password,
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runAttorneyCreate(cmd *cobra.Command, input *usecase.RegisterInput) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var authUsecase usecase.AuthUsecase
	app := fx.New(
		injectInfra(cfg),
		injectRepo(),
		injectService(),
		injectUsecase(),
		fx.Populate(&authUsecase),
	)
	if err := app.Err(); err != nil {
		return errors.WithStack(err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	output, err := authUsecase.Register(context.Background(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	cmd.Printf("Created attorney %s <%s>\n", output.ID, output.Email)

	return nil
}

// readPassword reads from stdin when asked to, otherwise prompts on the terminal without echo.
func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", errors.WithStack(err)
		}
		password := strings.TrimRight(line, "\r\n")
		if password == "" {
			return "", errors.New("empty password on stdin")
		}

		return password, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal, use --password-stdin")
	}

	cmd.Print("Password: ")
	raw, err := readTerminalPassword(fd)
	cmd.Println()
	if err != nil {
		return "", errors.WithStack(err)
	}
	if len(raw) == 0 {
		return "", errors.New("empty password")
	}

	return string(raw), nil
}
