package main

import (
	"os"

	"github.com/rtemka/ya/notes/domain"
	"github.com/rtemka/ya/notes/pkg/api"
	"github.com/rtemka/ya/notes/pkg/sqlite"
	"github.com/rtemka/ya/pkg/web"
	"github.com/spf13/cobra"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Запустить сервис заметок",
	Long: `Запуск REST API сервиса заметок.

Настройки читаются из переменных окружения с префиксом NOTES_
(ADDR, DB_URL, SESSION_SECRET, SESSION_TTL, USERS_FILE).`,
	RunE: runNotes,
}

func init() {
	notesCmd.Flags().String("addr", "", "адрес сервера, заменяет NOTES_ADDR")
}

func runNotes(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(notesPrefix, nil)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}

	zl := zapLogger(os.Stdout)
	defer func() {
		_ = zl.Sync()
	}()

	db, err := connect(func() (*sqlite.SQLite, error) { return sqlite.New(cfg.DBURL) }, retries, retryInterval, zl)
	if err != nil {
		return err
	}
	defer db.Close()
	tune(db.DB)

	base := web.NewBase(zl)
	udb, err := mountUsers(cmd.Context(), base, cfg, zl)
	if err != nil {
		return err
	}
	defer udb.Close()

	api.Mount(base, domain.NewService(db))
	return serve(cmd.Context(), cfg.Addr, base, zl)
}
