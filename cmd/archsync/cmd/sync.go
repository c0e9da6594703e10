package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/archsync/archsync"
	"github.com/archsync/archsync/internal/memory"
	"github.com/archsync/archsync/pkg/config"
	"github.com/archsync/archsync/pkg/document"
	"github.com/archsync/archsync/pkg/model"
	"github.com/archsync/archsync/pkg/sync"
)

var (
	syncForceUpdate  bool
	syncDelete       bool
	syncStatuses     []string
	syncBatchSize    int
	syncGroupedLinks bool
	syncTypePrefix   string
	syncRolePrefix   string
)

// syncCmd represents the sync command.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a synchronization pass over the model graph",
	Long: `Sync runs one full pass: every element matching the configuration is
serialized into a work-item draft, missing items are created, changed
items are patched, and items whose element disappeared from the model
are marked deleted. When a document configuration is given, the
configured Live-Documents are rendered and reconciled afterwards.

The pass runs against an in-memory store and reports the plan it would
apply; the remote transport is wired in behind the same store
interface.`,
	Example: `  archsync sync -c config.yaml -m model.yaml
  archsync sync --force-update
  archsync sync --delete  # hard-delete removed items instead of marking
  archsync sync --statuses open,draft`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVar(&syncForceUpdate, "force-update", false, "patch items even when checksums match")
	syncCmd.Flags().BoolVar(&syncDelete, "delete", false, "hard-delete removed items instead of marking them deleted")
	syncCmd.Flags().StringSliceVar(&syncStatuses, "statuses", nil, "statuses that may be overwritten (empty allows all)")
	syncCmd.Flags().IntVar(&syncBatchSize, "batch-size", 0, "maximum items per remote call (0 means one batch per phase)")
	syncCmd.Flags().BoolVar(&syncGroupedLinks, "grouped-links", false, "generate grouped backlink fields for every link role")
	syncCmd.Flags().StringVar(&syncTypePrefix, "type-prefix", "", "prefix applied to derived work-item types")
	syncCmd.Flags().StringVar(&syncRolePrefix, "role-prefix", "", "prefix applied to link roles")

	_ = viper.BindPFlag("grouped-links", syncCmd.Flags().Lookup("grouped-links"))
	_ = viper.BindPFlag("type-prefix", syncCmd.Flags().Lookup("type-prefix"))
	_ = viper.BindPFlag("role-prefix", syncCmd.Flags().Lookup("role-prefix"))
}

func runSync(cmd *cobra.Command, args []string) error {
	engine, elements, err := buildEngine()
	if err != nil {
		return err
	}

	state, err := engine.SyncElements(cmd.Context(), elements)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if flagDocuments != "" {
		docConfigs, err := document.LoadConfigs(flagDocuments)
		if err != nil {
			return err
		}
		root := rootElement(elements)
		for _, result := range engine.RenderDocuments(cmd.Context(), state, docConfigs, root) {
			if result.Err != nil {
				fmt.Printf("document %s/%s: %v\n", result.Space, result.Name, result.Err)
				continue
			}
			action := "updated"
			if result.Created {
				action = "created"
			}
			fmt.Printf("document %s/%s: %s, %d sections\n",
				result.Space, result.Name, action, result.Sections)
		}
	}

	fmt.Println(state.Result.Summary())
	for _, itemErr := range state.Result.Errors {
		fmt.Printf("  %s: %v\n", itemErr.ExternalKey, itemErr.Err)
	}
	if state.Result.HasErrors() {
		return fmt.Errorf("%d item(s) failed", len(state.Result.Errors))
	}
	return nil
}

// buildEngine loads the model graph and matching configuration and
// assembles the engine over in-memory stores.
func buildEngine() (*archsync.Engine, []model.Element, error) {
	elements, err := model.LoadGraph(flagModel)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(flagConfig, config.LoadOptions{
		TypePrefix:   viper.GetString("type-prefix"),
		RolePrefix:   viper.GetString("role-prefix"),
		GroupedLinks: viper.GetBool("grouped-links"),
	})
	if err != nil {
		return nil, nil, err
	}

	engine := archsync.New(cfg, memory.NewStore(),
		archsync.WithDocumentStore(memory.NewDocumentStore()),
		archsync.WithSyncOptions(
			sync.WithForceUpdate(syncForceUpdate),
			sync.WithDeleteItems(syncDelete),
			sync.WithStatusAllowList(syncStatuses...),
			sync.WithBatchSize(syncBatchSize),
		))
	return engine, elements, nil
}

// rootElement picks the generator root for for_each document configs.
// The first element of the graph snapshot serves as the model root.
func rootElement(elements []model.Element) model.Element {
	if len(elements) == 0 {
		return nil
	}
	return elements[0]
}
