// Command f1ctl runs maintenance tasks against the application database:
// schema migrations, season data imports, admin accounts and backups.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"f1fantasy/internal/config"
	"f1fantasy/internal/database"
	"f1fantasy/internal/f1data"
	"f1fantasy/internal/logging"
	"f1fantasy/internal/service"
	"f1fantasy/migrations"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "f1ctl",
	Short:        "Administration tool for the F1 fantasy server",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logging.Setup(cfg.LogLevel, cfg.LogFormat)
	},
}

// openDB connects and brings the schema up to date
func openDB(ctx context.Context) (*database.DB, error) {
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		log.Info().Str("type", cfg.DatabaseType).Msg("Migrations completed successfully")
		return nil
	},
}

var importFlags struct {
	start   int
	end     int
	baseURL string
}

var importDataCmd = &cobra.Command{
	Use:   "import-data",
	Short: "Import race calendars and driver line-ups from the statistics API",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		baseURL := importFlags.baseURL
		if baseURL == "" {
			baseURL = cfg.F1APIBaseURL
		}
		importer := f1data.NewImporter(db, f1data.NewClient(baseURL))
		results, err := importer.Import(cmd.Context(), importFlags.start, importFlags.end)
		if err != nil {
			return err
		}

		var failed int
		for _, res := range results {
			if res.Err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "%d: failed: %v\n", res.Season, res.Err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %d races, %d drivers\n", res.Season, res.Races, res.Drivers)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d seasons failed to import", failed, len(results))
		}
		return nil
	},
}

var adminFlags struct {
	username string
	email    string
	name     string
	password string
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		password := adminFlags.password
		if password == "" {
			password = os.Getenv("ADMIN_PASSWORD")
		}
		if password == "" {
			return errors.New("a password is required: pass --password or set ADMIN_PASSWORD")
		}

		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		user, err := service.NewAdminService(db).CreateUser(cmd.Context(), service.UserInput{
			Username: adminFlags.username,
			Email:    adminFlags.email,
			Name:     adminFlags.name,
			Password: password,
			IsAdmin:  true,
			IsActive: true,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created administrator %s (id %d)\n", user.Username, user.ID)
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or restore a JSON backup of the database",
}

var exportOutput string

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the database to a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		outputPath := exportOutput
		if outputPath == "" {
			outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
		}
		if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		if err := service.NewBackupService(db).ExportToWriter(cmd.Context(), f); err != nil {
			f.Close()
			return fmt.Errorf("export failed: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}

		info, err := os.Stat(outputPath)
		if err != nil {
			return err
		}
		log.Info().Str("file", outputPath).Float64("size_mb", float64(info.Size())/1024/1024).Msg("Export complete")
		return nil
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the league data with a JSON backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := service.NewBackupService(db).ImportFromReader(cmd.Context(), f); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		log.Info().Str("file", args[0]).Msg("Import complete")
		return nil
	},
}

func init() {
	importDataCmd.Flags().IntVar(&importFlags.start, "start-season", 2020, "first season to import")
	importDataCmd.Flags().IntVar(&importFlags.end, "end-season", 2025, "last season to import")
	importDataCmd.Flags().StringVar(&importFlags.baseURL, "base-url", "", "statistics API base URL (default F1_API_BASE_URL)")

	createAdminCmd.Flags().StringVar(&adminFlags.username, "username", "admin", "account username")
	createAdminCmd.Flags().StringVar(&adminFlags.email, "email", "", "account email")
	createAdminCmd.Flags().StringVar(&adminFlags.name, "name", "", "display name")
	createAdminCmd.Flags().StringVar(&adminFlags.password, "password", "", "account password (default ADMIN_PASSWORD)")

	backupExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default backup_YYYYMMDD_HHMMSS.json)")

	backupCmd.AddCommand(backupExportCmd, backupImportCmd)
	rootCmd.AddCommand(migrateCmd, importDataCmd, createAdminCmd, backupCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
