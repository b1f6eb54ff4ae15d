package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/sciencegpt/internal/platform/config"
)

func newCatalogCmd(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate and print the curriculum catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				// No Validate: printing the catalog needs no credentials.
				if err := config.LoadEnvFile(*envFile); err != nil {
					return err
				}
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				path = cfg.CurriculumPath
			}
			catalog, err := loadCatalog(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GRADE\tSUBJECTS\tCHALLENGE")
			for _, g := range catalog.Grades() {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", g, strings.Join(catalog.SubjectsForGrade(g), ", "), catalog.Challenge(g))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			langs := make([]string, 0, len(catalog.Languages()))
			for _, l := range catalog.Languages() {
				langs = append(langs, fmt.Sprintf("%s (%s)", l.Name, l.Code))
			}
			fmt.Fprintf(out, "\nLanguages: %s\n", strings.Join(langs, ", "))
			fmt.Fprintf(out, "Tips: %d\n", len(catalog.Tips()))
			return nil
		},
	}
	cmd.Flags().String("file", "", "catalog YAML file (defaults to LEARN_CURRICULUM_PATH, then the embedded catalog)")
	return cmd
}
