package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/archsync/archsync/pkg/document"
)

// renderCmd represents the render command.
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the configured documents and show their sections",
	Long: `Render runs the element synchronization pass, then expands every
configured document template and prints the resulting section
sequence. Useful to inspect what a document reconciliation would
produce without looking at the remote store.`,
	Example: `  archsync render -c config.yaml -m model.yaml -d documents.yaml`,
	RunE:    runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	if flagDocuments == "" {
		return fmt.Errorf("render needs a document configuration, use --documents")
	}

	engine, elements, err := buildEngine()
	if err != nil {
		return err
	}
	state, err := engine.SyncElements(cmd.Context(), elements)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	docConfigs, err := document.LoadConfigs(flagDocuments)
	if err != nil {
		return err
	}

	renderer := document.NewRenderer(state.Session, state.Inventory)
	root := rootElement(elements)
	failures := 0
	for _, cfg := range docConfigs {
		instances, err := cfg.Instances(root)
		if err != nil {
			fmt.Printf("document %s/%s: %v\n", cfg.Space, cfg.Name, err)
			failures++
			continue
		}
		for _, instance := range instances {
			tpl, err := document.LoadTemplate(instance.Template)
			if err != nil {
				fmt.Printf("document %s/%s: %v\n", instance.Space, instance.Name, err)
				failures++
				continue
			}
			sections, err := renderer.Render(instance, tpl)
			if err != nil {
				fmt.Printf("document %s/%s: %v\n", instance.Space, instance.Name, err)
				failures++
				continue
			}
			fmt.Printf("%s/%s (%s authority)\n", instance.Space, instance.Name, instance.Mode)
			printSections(sections)
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d document(s) failed", failures)
	}
	return nil
}

func printSections(sections []document.Section) {
	for _, section := range sections {
		switch section.Kind {
		case document.KindHeading:
			fmt.Printf("  h%d %s\n", section.Level, section.Text)
		case document.KindText:
			fmt.Printf("  text (%d chars)\n", len(section.Text))
		case document.KindWorkItemRef:
			fmt.Printf("  workitem %s -> %s\n", section.ExternalKey, section.RemoteID)
		case document.KindAreaStart:
			fmt.Println("  -- area start --")
		case document.KindAreaEnd:
			fmt.Println("  -- area end --")
		}
	}
}
