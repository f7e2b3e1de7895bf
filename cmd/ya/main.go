package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd - корневая команда, сами сервисы запускаются подкомандами.
var rootCmd = &cobra.Command{
	Use:   "ya",
	Short: "Сервисы заметок и новостей",
	Long: `Запуск сервисов заметок и новостей с комментариями.

Подкоманды:
  notes   - сервис заметок
  news    - сервис новостей и комментариев
  useradd - создание пользователя`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// переменные можно найти не только в файле
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.AddCommand(notesCmd, newsCmd, useraddCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
