package main

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/tollgate/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "TOLLGATE_DB_DSN"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		dsn     string
		envFile string
	)

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the Tollgate database schema",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("env file %s: %w", envFile, err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&dsn, "dsn", "", "Database URL (env "+envDSN+", else TOLLGATE_DB_*)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file")

	open := func() (*migrate.Migrate, error) {
		url, err := resolveDSN(dsn)
		if err != nil {
			return nil, err
		}
		source, err := iofs.New(migrations, "migrations")
		if err != nil {
			return nil, fmt.Errorf("migration source: %w", err)
		}
		m, err := migrate.NewWithSourceInstance("iofs", source, url)
		if err != nil {
			return nil, fmt.Errorf("migrator: %w", err)
		}
		return m, nil
	}

	run := func(fn func(m *migrate.Migrate) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			return fn(m)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: run(func(m *migrate.Migrate) error {
				if err := ignoreNoChange(m.Up()); err != nil {
					return fmt.Errorf("up: %w", err)
				}
				fmt.Println("migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert all migrations",
			Args:  cobra.NoArgs,
			RunE: run(func(m *migrate.Migrate) error {
				if err := ignoreNoChange(m.Down()); err != nil {
					return fmt.Errorf("down: %w", err)
				}
				fmt.Println("migrations reverted")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "steps N",
			Short: "Apply N migrations, or revert them when N is negative",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil || n == 0 {
					return fmt.Errorf("steps: %q is not a non-zero integer", args[0])
				}
				return run(func(m *migrate.Migrate) error {
					if err := ignoreNoChange(m.Steps(n)); err != nil {
						return fmt.Errorf("steps %d: %w", n, err)
					}
					fmt.Printf("migrated %d steps\n", n)
					return nil
				})(cmd, args)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: run(func(m *migrate.Migrate) error {
				v, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					fmt.Println("version: none")
					return nil
				}
				if err != nil {
					return fmt.Errorf("version: %w", err)
				}
				fmt.Printf("version: %d, dirty: %v\n", v, dirty)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Set the schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("force: %q is not an integer", args[0])
				}
				return run(func(m *migrate.Migrate) error {
					if err := m.Force(v); err != nil {
						return fmt.Errorf("force %d: %w", v, err)
					}
					fmt.Printf("forced to version %d\n", v)
					return nil
				})(cmd, args)
			},
		},
	)

	return root
}

// resolveDSN prefers the flag, then TOLLGATE_DB_DSN, then the TOLLGATE_DB_*
// settings the server uses.
func resolveDSN(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}
	db, err := config.DatabaseFromEnv()
	if err != nil {
		return "", fmt.Errorf("database config: %w", err)
	}
	return db.URL(), nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
