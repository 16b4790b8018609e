package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hoybrett99/StudyBuddy/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize StudyBuddy configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure StudyBuddy and generates a .studybuddy.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
