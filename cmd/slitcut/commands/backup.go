package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SlitCut/internal/model"
	"github.com/piwi3910/SlitCut/internal/project"
)

var restoreDir string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or import the config and job files as one backup",
}

var backupExportCmd = &cobra.Command{
	Use:   "export <backup.json> [job files...]",
	Short: "Bundle the config and the given jobs into a backup file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs := make([]model.Job, 0, len(args)-1)
		for _, path := range args[1:] {
			job, err := project.LoadJob(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			jobs = append(jobs, job)
		}
		if err := project.ExportAllData(args[0], appConfig, jobs); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Backed up config and %d job(s) to %s\n", len(jobs), args[0])
		return nil
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import <backup.json>",
	Short: "Restore the config and jobs from a backup file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backup, err := project.ImportAllData(args[0])
		if err != nil {
			return err
		}
		cfgPath := cfgFile
		if cfgPath == "" {
			cfgPath = project.DefaultConfigPath()
		}
		if err := project.SaveAppConfig(cfgPath, backup.Config); err != nil {
			return err
		}
		paths, err := project.RestoreJobs(restoreDir, backup)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored config to %s and %d job(s) to %s\n", cfgPath, len(paths), restoreDir)
		return nil
	},
}

func init() {
	backupImportCmd.Flags().StringVar(&restoreDir, "dir", ".", "directory for restored job files")
	backupCmd.AddCommand(backupExportCmd, backupImportCmd)
}
