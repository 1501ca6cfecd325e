// Package setupadmin promotes an existing user to the admin role. It runs
// with the service DSN, which carries credentials the web server never holds,
// and writes both the user's metadata role and the profile role in one
// transaction.
package setupadmin

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dominiquedave/Time-Financial/internal/dbx"
	"github.com/dominiquedave/Time-Financial/internal/server/models"
	"github.com/dominiquedave/Time-Financial/internal/server/repositories/repomanager"
	"golang.org/x/term"
)

// ServiceDSNEnv names the environment variable holding the service DSN.
const ServiceDSNEnv = "TF_SERVICE_DATABASE_DSN"

var (
	ErrUsage    = errors.New("usage: setup-admin [-d service-dsn] [-yes] <user-id>")
	ErrAborted  = errors.New("aborted")
	ErrNotATerm = errors.New("stdin is not a terminal; pass -yes to confirm")
)

// isTerminal is a seam for term.IsTerminal.
var isTerminal = term.IsTerminal

type Options struct {
	DSN    string
	UserID string
	Yes    bool
}

// ParseArgs reads flags and the positional user id. The DSN falls back to
// ServiceDSNEnv.
func ParseArgs(args []string, getenv func(string) string) (*Options, error) {
	fs := flag.NewFlagSet("setup-admin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	o := &Options{}
	fs.StringVar(&o.DSN, "d", getenv(ServiceDSNEnv), "service database DSN")
	fs.BoolVar(&o.Yes, "yes", false, "skip the confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if fs.NArg() != 1 || strings.TrimSpace(fs.Arg(0)) == "" {
		return nil, ErrUsage
	}
	o.UserID = strings.TrimSpace(fs.Arg(0))

	if o.DSN == "" {
		return nil, fmt.Errorf("service DSN is required: set %s or pass -d", ServiceDSNEnv)
	}
	return o, nil
}

// Confirm asks the operator to type "yes". A non-interactive stdin is
// refused.
func Confirm(in *os.File, out io.Writer, userID string) error {
	if !isTerminal(int(in.Fd())) {
		return ErrNotATerm
	}
	return confirm(bufio.NewReader(in), out, userID)
}

func confirm(r *bufio.Reader, out io.Writer, userID string) error {
	fmt.Fprintf(out, "Grant admin role to user %s? Type \"yes\" to continue\n> ", userID)
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if strings.TrimSpace(strings.ToLower(line)) != "yes" {
		return ErrAborted
	}
	return nil
}

// Promote sets the admin role on the user metadata and the profile together.
// A missing user or profile rolls back both writes.
func Promote(ctx context.Context, db dbx.TxStarter, rm repomanager.RepositoryManager, userID string) error {
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := rm.Users(tx).SetMetadataRole(ctx, userID, models.RoleAdmin); err != nil {
			return fmt.Errorf("update user metadata: %w", err)
		}
		if err := rm.Profiles(tx).UpdateRole(ctx, userID, models.RoleAdmin); err != nil {
			return fmt.Errorf("update profile role: %w", err)
		}
		return nil
	})
}
