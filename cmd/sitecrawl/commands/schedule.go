package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/sitecrawl/internal/logger"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Crawl sites repeatedly on a cron schedule",
	Long: `Run the crawl command on a cron schedule until interrupted.

The schedule uses the standard five-field cron format. A crawl that is
still running when the next one is due causes that run to be skipped.

Examples:
  sitecrawl schedule --cron "0 */6 * * *" --until 2024-01-01
  sitecrawl schedule --cron "@hourly" --site faz --until 2024-01-01 --run-now`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindCrawlFlags(cmd, args); err != nil {
			return err
		}
		return bindFlags(cmd, map[string]string{"cron": "crawl.schedule"})
	},
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	addCrawlFlags(scheduleCmd)
	scheduleCmd.Flags().String("cron", "", "cron schedule (default crawl.schedule)")
	scheduleCmd.Flags().Bool("run-now", false, "also crawl once immediately")
}

// cronParser accepts five-field specs and descriptors such as @daily.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func runSchedule(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	plan, err := newCrawlPlan(cmd)
	if err != nil {
		return err
	}
	defer plan.Close()

	expr := viper.GetString("crawl.schedule")
	if expr == "" {
		return errors.New("a schedule is required (--cron or crawl.schedule)")
	}
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		logger.Error("invalid cron schedule", "schedule", expr, "error", err)
		return err
	}

	c, job := newScheduler(schedule, plan.crawlJob(ctx))
	if runNow, _ := cmd.Flags().GetBool("run-now"); runNow {
		job.Run()
	}

	c.Start()
	logger.Info("scheduler started", "schedule", expr, "next", schedule.Next(time.Now()).Format(time.RFC3339))

	<-ctx.Done()
	logger.Info("stopping scheduler")
	<-c.Stop().Done()
	return nil
}

// crawlJob crawls every site of the plan once and writes the run report.
func (p *crawlPlan) crawlJob(ctx context.Context) cron.Job {
	return cron.FuncJob(func() {
		started := time.Now()
		results := p.run(ctx)
		if err := failures(results); err != nil {
			logger.Error("scheduled crawl finished with failures", "error", err, "duration", time.Since(started))
		} else {
			logger.Info("scheduled crawl finished", "sites", len(results), "duration", time.Since(started))
		}
		if err := writeReport(p.out, p.format, results); err != nil {
			logger.Warn("writing crawl report", "error", err)
		}
	})
}

// newScheduler registers job on schedule. It returns the scheduler and the
// job as the scheduler runs it: a run due while the previous one is still
// going is skipped, and a panicking run is logged.
func newScheduler(schedule cron.Schedule, job cron.Job) (*cron.Cron, cron.Job) {
	cronLog := cron.VerbosePrintfLogger(slogPrintf{})
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	id := c.Schedule(schedule, job)
	return c, c.Entry(id).WrappedJob
}

// slogPrintf adapts the package logger to cron's Printf logger.
type slogPrintf struct{}

func (slogPrintf) Printf(format string, args ...any) {
	logger.Debug("cron", "message", fmt.Sprintf(format, args...))
}
