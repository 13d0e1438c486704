package cli

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"delta-inspect/config"
	"delta-inspect/storage"
)

var (
	cfgFile       string
	jsonOutput    bool
	verbose       bool
	targetVersion int64

	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "delta-inspect",
		Short: "Inspect and analyze Delta Lake tables",
		Long: `delta-inspect reconstructs the state of a Delta Lake table from its
commit log and derives structural-health metrics from the active file set.

Examples:
  delta-inspect summary ./events            # Table overview at latest version
  delta-inspect sizes ./events              # File size distribution
  delta-inspect clustering ./events -c ts   # Min/max overlap analysis
  delta-inspect history s3://bucket/events  # Commit history`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
			var err error
			cfg, err = config.LoadConfig(cfgFile)
			return err
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "output JSON instead of tables")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug output")
	rootCmd.PersistentFlags().Int64Var(&targetVersion, "version", -1, "table version to inspect (default: latest)")
}

// ExecuteContext runs the root command under the given context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openStorage picks the storage backend from the table root: s3:// URLs go
// to S3, everything else is a local directory.
func openStorage(ctx context.Context, root string) (storage.Storage, error) {
	if strings.HasPrefix(root, "s3://") {
		return storage.NewS3StorageFromURL(ctx, root, cfg.S3.Region)
	}
	return storage.NewLocalStorage(root), nil
}

// requestedVersion converts the --version flag into the optional target.
func requestedVersion() *int64 {
	if targetVersion < 0 {
		return nil
	}
	v := targetVersion
	return &v
}
