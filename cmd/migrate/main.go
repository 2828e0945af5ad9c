// Command migrate applies, inspects or resets the database schema.
//
//	migrate up       apply pending migrations
//	migrate version  print the applied version
//	migrate reset    revert everything and re-apply (asks for confirmation)
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	corecmd "github.com/unimeeting/unimeetbot/core/cmd"
	"github.com/unimeeting/unimeetbot/core/database"
	"github.com/unimeeting/unimeetbot/core/logger"
	"github.com/unimeeting/unimeetbot/internal/config"
)

const usage = "usage: migrate up|version|reset"

// schema is the slice of *database.Migrator the commands use.
type schema interface {
	Up() error
	Down() error
	Version() uint
	Dirty() bool
	Files() []string
}

var errAborted = errors.New("reset aborted")

func main() {
	cfg, err := config.LoadTools(corecmd.ConfigPath("", "config.yaml"))
	if err != nil {
		log.Fatal(err)
	}
	_ = logger.InitLogger(cfg.CoreConfig())
	defer func() { _ = logger.Shutdown() }()

	mg, err := database.NewMigrator(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = mg.Close() }()

	if err := run(os.Args[1:], mg, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		_ = logger.Shutdown()
		os.Exit(1)
	}
}

func run(args []string, mg schema, in io.Reader, out io.Writer) error {
	if len(args) != 1 {
		return errors.New(usage)
	}
	switch args[0] {
	case "up":
		if err := mg.Up(); err != nil {
			return err
		}
		fmt.Fprintf(out, "schema at version %d\n", mg.Version())
	case "version":
		fmt.Fprintf(out, "version %d (dirty=%t, %d migration files)\n", mg.Version(), mg.Dirty(), len(mg.Files()))
	case "reset":
		fmt.Fprint(out, "This drops every table. Type 'yes' to continue: ")
		answer, _ := bufio.NewReader(in).ReadString('\n')
		if strings.TrimSpace(answer) != "yes" {
			return errAborted
		}
		if err := mg.Down(); err != nil {
			return err
		}
		if err := mg.Up(); err != nil {
			return err
		}
		fmt.Fprintf(out, "schema reset to version %d\n", mg.Version())
	default:
		return fmt.Errorf("unknown command %q; %s", args[0], usage)
	}
	return nil
}
