package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Gabri/internxt-sync/internal/config"
	"github.com/Gabri/internxt-sync/pkg/planner"
	"github.com/Gabri/internxt-sync/pkg/syncer"
)

var (
	syncDryRun        bool
	syncYes           bool
	syncQuiet         bool
	syncIncludeHidden bool
	syncExcludes      []string
	planJSONFile      string
	resultJSONFile    string
)

var (
	green  = color.New(color.FgHiGreen).SprintFunc()
	red    = color.New(color.FgHiRed, color.Bold).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
)

var syncCmd = &cobra.Command{
	Use:   "sync <LocalPath> <RemotePath>",
	Short: "Make the remote folder converge on the local directory",
	Long: `sync scans both trees, computes the minimal operation plan, and applies
it: directories are created first, changed or new files uploaded, and
remote-only items deleted last. Deletions require confirmation unless
--yes is given.`,
	Args: cobra.ExactArgs(2),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "show the plan without executing it")
	syncCmd.Flags().BoolVarP(&syncYes, "yes", "y", false, "approve deletions without prompting")
	syncCmd.Flags().BoolVarP(&syncQuiet, "quiet", "q", false, "suppress per-operation output")
	syncCmd.Flags().BoolVar(&syncIncludeHidden, "include-hidden", false, "include dotfiles and dot-directories")
	syncCmd.Flags().StringSliceVar(&syncExcludes, "exclude", nil, "exclude glob patterns (multiple allowed)")
	syncCmd.Flags().StringVar(&planJSONFile, "plan-json-file", "", "write the plan as JSON to this file")
	syncCmd.Flags().StringVar(&resultJSONFile, "result-json-file", "", "write the result as JSON to this file")
}

func runSync(cmd *cobra.Command, args []string) error {
	localRoot, remoteRoot := args[0], args[1]
	cmd.SilenceUsage = true

	progress := func(line string) {
		if !syncQuiet {
			fmt.Println(line)
		}
	}

	excludeHidden, excludes := scanSettings(cmd.Flags(), cfg)

	s := syncer.New(newStore())
	result, err := s.Run(cmd.Context(), syncer.Options{
		LocalRoot:     localRoot,
		RemoteRoot:    remoteRoot,
		ExcludeHidden: excludeHidden,
		Excludes:      excludes,
		Approver:      deletionApprover(),
		Progress:      progress,
		DryRun:        syncDryRun,
	})
	if err != nil {
		return err
	}

	if planJSONFile != "" {
		if err := writePlanJSON(planJSONFile, result.Plan); err != nil {
			return fmt.Errorf("write plan JSON: %w", err)
		}
	}

	if result.Aborted {
		fmt.Println(yellow("sync cancelled"))
		return nil
	}

	if syncDryRun {
		printPlan(result.Plan)
		return nil
	}

	if resultJSONFile != "" {
		if err := writeResultJSON(resultJSONFile, result); err != nil {
			return fmt.Errorf("write result JSON: %w", err)
		}
	}

	printSummary(result)
	if !result.Report.Ok() {
		return fmt.Errorf("%d operations failed", result.Report.Failed())
	}
	return nil
}

// scanSettings merges the config's exclusion settings with the command
// line: a flag given explicitly wins over file and environment values.
func scanSettings(flags *pflag.FlagSet, cfg *config.Config) (excludeHidden bool, excludes []string) {
	excludeHidden = cfg.ExcludeHidden
	if flags.Changed("include-hidden") {
		include, _ := flags.GetBool("include-hidden")
		excludeHidden = !include
	}
	excludes = cfg.Excludes
	if flags.Changed("exclude") {
		excludes, _ = flags.GetStringSlice("exclude")
	}
	return excludeHidden, excludes
}

// deletionApprover prompts on the terminal for the plan's deletion list.
// With --yes every deletion is approved; without a terminal the batch is
// aborted instead of deleting silently.
func deletionApprover() syncer.Approver {
	if syncYes {
		return syncer.ApproveAll
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return nil
	}
	return func(deletes []string) ([]string, bool) {
		fmt.Println(yellow("The following items exist remotely but not locally:"))
		for _, p := range deletes {
			fmt.Printf("  %s\n", red(p))
		}
		fmt.Printf("Delete %d remote item(s)? [y/N]: ", len(deletes))

		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return nil, false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return deletes, true
		default:
			return nil, false
		}
	}
}

func printPlan(plan planner.Plan) {
	for _, p := range plan.CreateDirs {
		fmt.Printf("%s %s\n", green("mkdir"), p)
	}
	for _, up := range plan.Uploads {
		fmt.Printf("%s %s (%s, %s)\n", green("upload"), up.RelPath, humanize.Bytes(uint64(up.Size)), up.Reason)
	}
	for _, p := range plan.Deletes {
		fmt.Printf("%s %s\n", red("delete"), p)
	}
	if plan.Empty() {
		fmt.Println("nothing to do, trees are in sync")
	}
}

func printSummary(result *syncer.Result) {
	report := result.Report

	var uploadedBytes int64
	for _, up := range result.Plan.Uploads {
		uploadedBytes += up.Size
	}

	fmt.Println()
	fmt.Printf("created:  %d/%d directories\n", report.CreateDirs.Attempted-report.CreateDirs.Failed, report.CreateDirs.Attempted)
	fmt.Printf("uploaded: %d/%d files (%s)\n", report.Uploads.Attempted-report.Uploads.Failed, report.Uploads.Attempted, humanize.Bytes(uint64(uploadedBytes)))
	fmt.Printf("deleted:  %d/%d items\n", report.Deletes.Attempted-report.Deletes.Failed, report.Deletes.Attempted)
	fmt.Printf("duration: %s\n", result.Duration.Round(time.Millisecond))
	if result.Remote != nil {
		fmt.Printf("remote:   %d items\n", len(result.Remote))
	}
	for _, opErr := range report.Errors {
		fmt.Printf("%s %s\n", red("error:"), opErr.Error())
	}
}
