package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/waterwatch/internal/auth"
	"github.com/dmitrijs2005/waterwatch/internal/common"
	"github.com/dmitrijs2005/waterwatch/internal/config"
	"github.com/dmitrijs2005/waterwatch/internal/cryptox"
	"github.com/dmitrijs2005/waterwatch/internal/dbx"
	"github.com/dmitrijs2005/waterwatch/internal/filex"
	"github.com/dmitrijs2005/waterwatch/internal/logging"
	"github.com/dmitrijs2005/waterwatch/internal/reports"
	"github.com/dmitrijs2005/waterwatch/internal/securestore"
)

// reportsNamespace keys the sealer for report payloads, separate from the
// credential namespace.
const reportsNamespace = "water_quality_reports"

var errNotLoggedIn = errors.New("please log in first")

// accounts is the part of auth.Manager the commands use.
type accounts interface {
	Register(ctx context.Context, fullName, mobileNumber, password, email string) auth.Result
	Login(ctx context.Context, mobileNumber, password string) auth.Result
	Logout(ctx context.Context)
	CurrentUser(ctx context.Context) (auth.User, bool)
	IsLoggedIn(ctx context.Context) bool
	ChangePassword(ctx context.Context, oldPassword, newPassword string) auth.Result
	UpdateProfile(ctx context.Context, newName, newMobileNumber, newEmail string) auth.Result
}

type App struct {
	config   *config.Config
	accounts accounts
	reports  reports.Service
	log      logging.Logger
	db       *sql.DB
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp prepares the data directory, loads or creates the master key, opens
// the database and builds the services on top of it.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	dir, err := filex.EnsureDir(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("error preparing data dir: %w", err)
	}
	cfg.DataDir = dir

	masterKey, err := cryptox.LoadOrCreateMasterKey(cfg.KeyPath())
	if err != nil {
		return nil, fmt.Errorf("error loading master key: %w", err)
	}
	defer common.WipeByteArray(masterKey)

	kvSealer, err := cryptox.NewSealer(masterKey, cfg.Namespace)
	if err != nil {
		return nil, err
	}
	reportSealer, err := cryptox.NewSealer(masterKey, reportsNamespace)
	if err != nil {
		return nil, err
	}

	db, err := dbx.Open(ctx, cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	mgr, err := auth.NewManager(ctx, securestore.NewSQLiteStore(db, kvSealer), log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	rs := reports.NewService(reports.NewSQLiteRepository(db), reportSealer, log)

	log.Debug(ctx, "client ready", "data_dir", dir, "namespace", cfg.Namespace)

	return &App{
		config:   cfg,
		accounts: mgr,
		reports:  rs,
		log:      log,
		db:       db,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

// Run starts the REPL on stdin and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to waterwatch (type 'help' for commands)")
	runREPL(ctx, a, func() string { return a.getStatus(ctx) }, a.reader)
}

// Close releases the database.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	return a.accounts.IsLoggedIn(ctx)
}

func (a *App) getStatus(ctx context.Context) string {
	u, ok := a.accounts.CurrentUser(ctx)
	if !ok {
		return ""
	}
	return fmt.Sprintf("(%s)", u.FullName)
}

// printResult shows a Result and turns a failure into an error for the REPL.
func (a *App) printResult(r auth.Result) error {
	if r.OK() {
		fmt.Fprintln(a.out, r.Message)
		return nil
	}
	return errors.New(r.Message)
}

func (a *App) requireLogin(ctx context.Context) (auth.User, error) {
	u, ok := a.accounts.CurrentUser(ctx)
	if !ok {
		return auth.User{}, errNotLoggedIn
	}
	return u, nil
}
