package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kweidner/metasynth/internal/config"
)

var profileShowPath string

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect segmentation profiles",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active profile as YAML",
	Long: `Show prints the profile that segmentation would run with: the
built-in defaults, overlaid with the given profile file if any.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := config.LoadProfile(profileShowPath)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(profile)
		if err != nil {
			return err
		}
		os.Stdout.Write(out)
		return nil
	},
}

var profileValidateCmd = &cobra.Command{
	Use:   "validate <profile.yaml>",
	Short: "Check a profile file without running anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := config.LoadProfile(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("profile ok: %d color mappings, tolerance %g, chunks %d-%d tokens\n",
			len(profile.Colors), profile.Tolerance,
			profile.Chunking.MinTokens, profile.Chunking.MaxTokens)
		return nil
	},
}

func init() {
	profileShowCmd.Flags().StringVarP(&profileShowPath, "profile", "p", "", "Path to a YAML segmentation profile")
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileValidateCmd)
}
