package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/anoixa/photo-share/config"
	"github.com/anoixa/photo-share/database/models"
	"github.com/anoixa/photo-share/internal/app"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// migrateCmd 数据库迁移命令，不带子命令时只同步表结构
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tools",
	Long: `Create or update the schema of the configured database.
Use "migrate run" to copy data from one database to another (e.g., SQLite to PostgreSQL).`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSchemaMigration(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	},
}

// migrateRunCmd 跨数据库复制数据
var migrateRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Copy data between databases",
	Long: `Copy all users, photos, comments, likes and favorites from source to target database.

Examples:
  # Migrate from SQLite to PostgreSQL
  photo-share migrate run --from-sqlite ./data/photos.db --to-postgres "host=localhost user=postgres password=secret dbname=photoshare port=5432"

  # Replace rows that already exist in the target
  photo-share migrate run --from-sqlite ./data/photos.db --to-postgres "..." --on-conflict=overwrite`,
	Run: func(cmd *cobra.Command, args []string) {
		fromType, _ := cmd.Flags().GetString("from-type")
		toType, _ := cmd.Flags().GetString("to-type")
		fromDSN, _ := cmd.Flags().GetString("from-dsn")
		toDSN, _ := cmd.Flags().GetString("to-dsn")
		fromSQLite, _ := cmd.Flags().GetString("from-sqlite")
		toPostgres, _ := cmd.Flags().GetString("to-postgres")
		skipConfirm, _ := cmd.Flags().GetBool("yes")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		onConflict, _ := cmd.Flags().GetString("on-conflict")

		if fromSQLite != "" {
			fromType, fromDSN = "sqlite", fromSQLite
		}
		if toPostgres != "" {
			toType, toDSN = "postgres", toPostgres
		}

		opts := copyOptions{batchSize: batchSize, onConflict: onConflict}
		if err := runDataMigration(fromType, fromDSN, toType, toDSN, skipConfirm, opts); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateRunCmd)

	migrateRunCmd.Flags().String("from-type", "", "Source database type (sqlite, postgres)")
	migrateRunCmd.Flags().String("to-type", "", "Target database type (sqlite, postgres)")
	migrateRunCmd.Flags().String("from-dsn", "", "Source database DSN/connection string")
	migrateRunCmd.Flags().String("to-dsn", "", "Target database DSN/connection string")
	migrateRunCmd.Flags().String("from-sqlite", "", "Source SQLite file path (shortcut)")
	migrateRunCmd.Flags().String("to-postgres", "", "Target PostgreSQL connection string (shortcut)")
	migrateRunCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
	migrateRunCmd.Flags().Int("batch-size", 100, "Batch size for data migration")
	migrateRunCmd.Flags().String("on-conflict", "skip", "Conflict resolution strategy: skip (default), overwrite")
}

func runSchemaMigration() error {
	config.InitConfig()

	container := app.NewContainer(config.Get())
	if err := container.InitDatabase(); err != nil {
		return err
	}
	defer container.Close()

	return container.Migrate()
}

type copyOptions struct {
	batchSize  int
	onConflict string
}

// migrateStats 各表复制的行数
type migrateStats struct {
	users     int64
	photos    int64
	comments  int64
	likes     int64
	favorites int64
}

func runDataMigration(fromType, fromDSN, toType, toDSN string, skipConfirm bool, opts copyOptions) error {
	if opts.onConflict != "skip" && opts.onConflict != "overwrite" {
		return fmt.Errorf("invalid on-conflict strategy: %s (must be skip or overwrite)", opts.onConflict)
	}
	if opts.batchSize <= 0 {
		opts.batchSize = 100
	}
	if fromType == "" || toType == "" {
		return fmt.Errorf("both --from-type and --to-type are required")
	}
	if fromDSN == "" || toDSN == "" {
		return fmt.Errorf("both --from-dsn and --to-dsn (or shortcuts) are required")
	}
	if fromType == toType && fromDSN == toDSN {
		return fmt.Errorf("source and target databases are the same")
	}

	log.Printf("Migrating from %s to %s", fromType, toType)
	log.Printf("Source: %s", maskDSN(fromDSN))
	log.Printf("Target: %s", maskDSN(toDSN))
	log.Printf("Conflict strategy: %s", opts.onConflict)

	sourceDB, err := openDatabase(fromType, fromDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	if sqlDB, err := sourceDB.DB(); err == nil {
		defer sqlDB.Close()
	}

	targetDB, err := openDatabase(toType, toDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to target database: %w", err)
	}
	if sqlDB, err := targetDB.DB(); err == nil {
		defer sqlDB.Close()
	}

	if !skipConfirm {
		fmt.Println("\nWarning: This will copy all data from source to target database.")
		fmt.Printf("Conflict resolution strategy: %s\n", opts.onConflict)
		fmt.Print("Do you want to continue? [y/N]: ")
		var response string
		_, _ = fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Migration cancelled.")
			return nil
		}
	}

	log.Println("Migrating database schema...")
	if err := targetDB.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	stats, err := copyAll(context.Background(), sourceDB, targetDB, opts)
	printMigrateStats(stats)
	if err != nil {
		return err
	}

	log.Println("Migration completed successfully!")
	return nil
}

// copyAll 按依赖顺序复制全部表
func copyAll(ctx context.Context, sourceDB, targetDB *gorm.DB, opts copyOptions) (*migrateStats, error) {
	stats := &migrateStats{}
	var err error

	if stats.users, err = copyTable[models.User](ctx, sourceDB, targetDB, "id", opts); err != nil {
		return stats, fmt.Errorf("users migration failed: %w", err)
	}
	if stats.photos, err = copyTable[models.Photo](ctx, sourceDB, targetDB, "id", opts); err != nil {
		return stats, fmt.Errorf("photos migration failed: %w", err)
	}
	if stats.comments, err = copyTable[models.Comment](ctx, sourceDB, targetDB, "id", opts); err != nil {
		return stats, fmt.Errorf("comments migration failed: %w", err)
	}
	if stats.likes, err = copyTable[models.PhotoLike](ctx, sourceDB, targetDB, "photo_id, user_id", opts); err != nil {
		return stats, fmt.Errorf("likes migration failed: %w", err)
	}
	if stats.favorites, err = copyTable[models.Favorite](ctx, sourceDB, targetDB, "user_id, photo_id", opts); err != nil {
		return stats, fmt.Errorf("favorites migration failed: %w", err)
	}
	return stats, nil
}

// copyTable 按 orderBy 分页读取源表并写入目标表，主键冲突按策略跳过或覆盖
func copyTable[T any](ctx context.Context, sourceDB, targetDB *gorm.DB, orderBy string, opts copyOptions) (int64, error) {
	onConflict := clause.OnConflict{DoNothing: true}
	if opts.onConflict == "overwrite" {
		onConflict = clause.OnConflict{UpdateAll: true}
	}

	var copied int64
	for offset := 0; ; offset += opts.batchSize {
		var batch []T
		if err := sourceDB.WithContext(ctx).Order(orderBy).Limit(opts.batchSize).Offset(offset).Find(&batch).Error; err != nil {
			return copied, err
		}
		if len(batch) == 0 {
			return copied, nil
		}

		insert := targetDB.WithContext(ctx).
			Session(&gorm.Session{SkipHooks: true}).
			Omit(clause.Associations).
			Clauses(onConflict).
			Create(&batch)
		if insert.Error != nil {
			return copied, insert.Error
		}
		copied += insert.RowsAffected
	}
}

// openDatabase 打开数据库连接
func openDatabase(dbType, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch dbType {
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// maskDSN 隐藏敏感信息
func maskDSN(dsn string) string {
	if len(dsn) > 50 {
		return dsn[:50] + "..."
	}
	return dsn
}

// printMigrateStats 打印迁移统计
func printMigrateStats(stats *migrateStats) {
	fmt.Println()
	fmt.Println("========================================")
	fmt.Println("       Migration Statistics")
	fmt.Println("========================================")
	fmt.Printf("Users migrated:     %d\n", stats.users)
	fmt.Printf("Photos migrated:    %d\n", stats.photos)
	fmt.Printf("Comments migrated:  %d\n", stats.comments)
	fmt.Printf("Likes migrated:     %d\n", stats.likes)
	fmt.Printf("Favorites migrated: %d\n", stats.favorites)
	fmt.Println("========================================")
}
