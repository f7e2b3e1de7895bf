package main

import (
	"fmt"

	"github.com/rtemka/ya/users/domain"
	"github.com/rtemka/ya/users/pkg/sqlite"
	"github.com/spf13/cobra"
)

var useraddCmd = &cobra.Command{
	Use:   "useradd <username> <password>",
	Short: "Создать пользователя",
	Long: `Создание пользователя в БД сервиса.

БД выбирается флагом --service: notes (NOTES_DB_URL)
или news (NEWS_DB_URL).`,
	Args: cobra.ExactArgs(2),
	RunE: runUseradd,
}

func init() {
	useraddCmd.Flags().String("service", "notes", "сервис: notes или news")
}

func runUseradd(cmd *cobra.Command, args []string) error {
	service, _ := cmd.Flags().GetString("service")
	var prefix string
	switch service {
	case "notes":
		prefix = notesPrefix
	case "news":
		prefix = newsPrefix
	default:
		return fmt.Errorf("unknown service %q", service)
	}

	dbURL, err := loadDBURL(prefix, nil)
	if err != nil {
		return err
	}

	db, err := sqlite.New(dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	u, err := domain.NewService(db).SignUp(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "user %q created with id %d\n", u.Username, u.ID)
	return nil
}
