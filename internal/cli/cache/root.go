package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sargunv/curateur/internal/providercache"
)

var catalogRoot string

var Cmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the per-platform Provider response caches",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List platforms with a response cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		dirEntries, err := os.ReadDir(catalogRoot)
		if err != nil {
			return fmt.Errorf("read catalog root: %w", err)
		}
		for _, de := range dirEntries {
			if !de.IsDir() {
				continue
			}
			cacheDir := responseCacheDir(de.Name())
			entries, err := os.ReadDir(cacheDir)
			if err != nil {
				continue
			}
			fmt.Printf("%s: %d cached responses\n", de.Name(), len(entries))
		}
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean [platform...]",
	Short: "Invalidate response caches wholesale",
	Long: `Clear the cached Provider responses for the named platforms, or for
every platform under the catalog root when none are named.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		platforms := args
		if len(platforms) == 0 {
			dirEntries, err := os.ReadDir(catalogRoot)
			if err != nil {
				return fmt.Errorf("read catalog root: %w", err)
			}
			for _, de := range dirEntries {
				if de.IsDir() {
					platforms = append(platforms, de.Name())
				}
			}
		}

		for _, id := range platforms {
			dir := responseCacheDir(id)
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				continue
			}
			cache, err := providercache.New(dir, time.Hour)
			if err != nil {
				return err
			}
			if err := cache.Clear(); err != nil {
				return fmt.Errorf("clear cache for %s: %w", id, err)
			}
			fmt.Printf("%s: cache cleared\n", id)
		}
		return nil
	},
}

func responseCacheDir(platformID string) string {
	return filepath.Join(catalogRoot, platformID, ".cache", "response_cache")
}

func init() {
	Cmd.PersistentFlags().StringVar(&catalogRoot, "catalog-root", "", "Directory holding per-platform catalogs")
	Cmd.MarkPersistentFlagRequired("catalog-root")
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(cleanCmd)
}
