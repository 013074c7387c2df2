package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/anoixa/photo-share/config"
	"github.com/anoixa/photo-share/internal/app"
	"github.com/anoixa/photo-share/internal/services/consistency"
	"github.com/spf13/cobra"
)

// sweepCmd 修复被中断的级联删除留下的孤儿记录
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove orphan records left by interrupted deletions",
	Long: `Remove orphan records left by an interrupted account or photo deletion.
This includes:
  - Photos whose owner no longer exists (stored file removed best-effort)
  - Comments whose author or photo no longer exists
  - Likes whose user or photo no longer exists
  - Favorites whose user or photo no longer exists

Running it repeatedly is safe.`,
	Run: func(cmd *cobra.Command, args []string) {
		timeout, _ := cmd.Flags().GetDuration("timeout")

		if err := runSweep(timeout); err != nil {
			log.Fatalf("Sweep failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().Duration("timeout", 10*time.Minute, "Abort the sweep after this duration")
}

func runSweep(timeout time.Duration) error {
	config.InitConfig()

	container := app.NewContainer(config.Get())
	if err := container.InitDatabase(); err != nil {
		return err
	}
	defer container.Close()

	if err := container.Migrate(); err != nil {
		return err
	}
	if err := container.InitSweeper(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	report, err := container.Sweeper.Run(ctx)
	if err != nil {
		return err
	}
	printSweepReport(report)
	return nil
}

// printSweepReport 打印清理统计
func printSweepReport(report *consistency.Report) {
	fmt.Println()
	fmt.Println("========================================")
	fmt.Println("       Sweep Statistics")
	fmt.Println("========================================")
	fmt.Printf("Orphan photos:    %d\n", report.OrphanPhotos)
	fmt.Printf("Orphan comments:  %d\n", report.OrphanComments)
	fmt.Printf("Orphan likes:     %d\n", report.OrphanLikes)
	fmt.Printf("Orphan favorites: %d\n", report.OrphanFavorites)
	fmt.Println("========================================")
	fmt.Printf("Total removed:    %d\n", report.Total())
}
