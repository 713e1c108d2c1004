package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newProjectsCmd(flags *rootFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List indexed projects",
		Long:  `List every indexed project with its collection, embedding provider, and chunk count.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProjects(cmd.Context(), cmd, flags, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// projectListing is the JSON shape of one indexed project.
type projectListing struct {
	Project    string `json:"project"`
	Collection string `json:"collection"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
	Chunks     int    `json:"chunks"`
}

func runProjects(ctx context.Context, cmd *cobra.Command, flags *rootFlags, jsonOutput bool) error {
	e, err := openEnv(ctx, cmd, flags)
	if err != nil {
		return err
	}
	defer e.Close()

	infos, err := e.store.List()
	if err != nil {
		return err
	}

	listings := make([]projectListing, 0, len(infos))
	for _, info := range infos {
		listings = append(listings, projectListing{
			Project:    info.Meta.ProjectPath,
			Collection: info.Name,
			Provider:   info.Meta.Provider,
			Model:      info.Meta.Model,
			Dimensions: info.Meta.Dimensions,
			Chunks:     info.Chunks,
		})
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(listings)
	}

	if len(listings) == 0 {
		e.printer.Infof("No indexed projects. Run 'semindex index <path>' first.")
		return nil
	}

	e.printer.Header(fmt.Sprintf("Indexed projects (%d)", len(listings)))
	for _, l := range listings {
		e.printer.Infof("")
		e.printer.Infof("  %s", l.Project)
		e.printer.KV("Collection", l.Collection)
		e.printer.KV("Provider", fmt.Sprintf("%s / %s (%d dims)", l.Provider, l.Model, l.Dimensions))
		e.printer.KV("Chunks", l.Chunks)
	}
	return nil
}
