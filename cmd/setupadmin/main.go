// Command setupadmin registers bot administrators by numeric Telegram id.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/unimeeting/unimeetbot/core/bootstrap"
	corecmd "github.com/unimeeting/unimeetbot/core/cmd"
	"github.com/unimeeting/unimeetbot/core/logger"
	"github.com/unimeeting/unimeetbot/internal/config"
	"github.com/unimeeting/unimeetbot/internal/domain"
	"github.com/unimeeting/unimeetbot/internal/storage"
)

type adminStore interface {
	AddAdmin(ctx context.Context, telegramID int64, username *string, superAdmin bool) error
	ListAdmins(ctx context.Context) ([]domain.Admin, error)
}

func main() {
	cfg, err := config.LoadTools(corecmd.ConfigPath("", "config.yaml"))
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	res, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg.CoreConfig(), Database: cfg.Database})
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		_ = res.DB.Close()
		_ = logger.Shutdown()
	}()

	if err := loop(ctx, storage.New(res.DB), os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func loop(ctx context.Context, store adminStore, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n1) add admin  2) list admins  3) quit\n> ")
		if !sc.Scan() {
			return sc.Err()
		}
		switch strings.TrimSpace(sc.Text()) {
		case "1":
			fmt.Fprint(out, "Telegram user id: ")
			if !sc.Scan() {
				return sc.Err()
			}
			add(ctx, store, sc.Text(), out)
		case "2":
			if err := list(ctx, store, out); err != nil {
				return err
			}
		case "3", "q", "quit":
			return nil
		default:
			fmt.Fprintln(out, "Unknown choice.")
		}
	}
}

func add(ctx context.Context, store adminStore, raw string, out io.Writer) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "@") {
		fmt.Fprintln(out, "Handles cannot be stored. Ask the user for their numeric id (for example via @userinfobot).")
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintf(out, "%q is not a numeric Telegram id.\n", raw)
		return
	}
	if err := store.AddAdmin(ctx, id, nil, true); err != nil {
		fmt.Fprintf(out, "Failed: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Admin %d added.\n", id)
}

func list(ctx context.Context, store adminStore, out io.Writer) error {
	admins, err := store.ListAdmins(ctx)
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		fmt.Fprintln(out, "No admins yet.")
		return nil
	}
	for _, a := range admins {
		name := "-"
		if a.Username != nil {
			name = "@" + *a.Username
		}
		fmt.Fprintf(out, "%d  %s  super=%t  since %s\n", a.TelegramID, name, a.IsSuperAdmin, a.CreatedAt.Format("2006-01-02"))
	}
	return nil
}
