package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lab-inventory/internal/config"
	"lab-inventory/internal/database"
	"lab-inventory/internal/logger"
)

var (
	loadConfig      = config.Load
	openDB          = database.NewSQLite
	runMigrationsFn = database.RunMigrations
	newLogger       = logger.New
	exitFunc        = os.Exit
)

// env 各子命令共用的設定、資料庫與 logger
type env struct {
	cfg *config.Config
	db  *sql.DB
	log *zap.Logger
	out io.Writer

	logLevel string
}

// open 載入設定並開啟資料庫；migrate 為 true 時先套用 schema
func (e *env) open(ctx context.Context, cmd *cobra.Command, migrate bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(e.logLevel, "console")
	if err != nil {
		return err
	}
	db, err := openDB(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.DatabasePath, err)
	}
	if migrate {
		if err := runMigrationsFn(db); err != nil {
			db.Close()
			return fmt.Errorf("migrate: %w", err)
		}
	}
	e.cfg, e.db, e.log, e.out = cfg, db, log, cmd.OutOrStdout()
	return nil
}

func (e *env) close() {
	if e.db != nil {
		e.db.Close()
		e.db = nil
	}
	if e.log != nil {
		_ = e.log.Sync()
	}
}

func (e *env) printf(format string, args ...any) {
	fmt.Fprintf(e.out, format, args...)
}

// withDB 包裝需要資料庫的 RunE
func (e *env) withDB(migrate bool, run func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := e.open(ctx, cmd, migrate); err != nil {
			return err
		}
		defer e.close()
		return run(ctx, args)
	}
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:   "labctl",
		Short: "Maintenance tool for the lab equipment inventory",
		Long: `labctl runs maintenance tasks against the inventory database.

It reads the same configuration as the service (.env, environment variables,
CONFIG_FILE), so DATABASE_PATH, UPLOADS_DIR and BACKUP_DIR apply here too.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newImportCmd(e),
		newBackupCmd(e),
		newRestoreCmd(e),
		newClearCmd(e),
		newReportCmd(e),
		newCreateUserCmd(e),
		newMigrateCmd(e),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		exitFunc(1)
	}
}
