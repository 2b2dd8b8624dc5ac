package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/photocore/internal/composite"
	"github.com/MeKo-Tech/photocore/internal/filter"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List filter presets, adjustment presets and stickers",
	RunE:  runFilters,
}

func init() {
	rootCmd.AddCommand(filtersCmd)

	filtersCmd.Flags().String("category", "", "Only list presets of this category")
	filtersCmd.Flags().Bool("json", false, "Print the catalog as JSON")
}

type catalog struct {
	Filters       []filter.Preset     `json:"filters"`
	AdjustPresets []string            `json:"adjustPresets"`
	Stickers      []composite.Sticker `json:"stickers"`
	Categories    []filter.Category   `json:"categories"`
}

func runFilters(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")
	asJSON, _ := cmd.Flags().GetBool("json")

	presets := filter.Presets()
	if category != "" {
		var ok bool
		presets, ok = filter.ByCategory()[filter.Category(category)]
		if !ok {
			return fmt.Errorf("unknown category %q (have %v)", category, filter.Categories())
		}
	}

	c := catalog{
		Filters:       presets,
		AdjustPresets: filter.AdjustPresetNames,
		Stickers:      composite.Stickers(),
		Categories:    filter.Categories(),
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	}
	return printCatalog(os.Stdout, c)
}

func printCatalog(out io.Writer, c catalog) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILTER\tNAME\tCATEGORY\tOPS")
	for _, p := range c.Filters {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, filter.FormatOps(p.Ops))
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "ADJUST PRESET\tBRIGHTNESS\tCONTRAST\tSATURATION\tWARMTH")
	for _, name := range c.AdjustPresets {
		a, _ := filter.AdjustPreset(name)
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", name, a.Brightness, a.Contrast, a.Saturation, a.Warmth)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "STICKER\tNAME\tCATEGORY")
	for _, s := range c.Stickers {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Name, s.Category)
	}
	return tw.Flush()
}
