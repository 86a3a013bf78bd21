// Package cli wires the engine into a cobra command tree. It stays a thin
// driver: flags and environment assemble an orchestrator.Config, and the
// engine packages never import anything from here.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	cachecmd "github.com/sargunv/curateur/internal/cli/cache"
	platformscmd "github.com/sargunv/curateur/internal/cli/platforms"
	scrapecmd "github.com/sargunv/curateur/internal/cli/scrape"
)

// ErrCancelled marks an operator-cancelled run; main maps it to exit
// code 2.
var ErrCancelled = errors.New("cancelled by operator")

var rootCmd = &cobra.Command{
	Use:   "curateur",
	Short: "ROM library metadata and media curator",
	Long: `Curateur scans a ROM library, looks each game up on ScreenScraper by
content hash (with a name-search fallback), downloads media, and writes
per-platform gamelist catalogs for an ES-DE style frontend.

Provider credentials are loaded from environment variables:
  SCREENSCRAPER_DEV_USER     - Developer username
  SCREENSCRAPER_DEV_PASSWORD - Developer password
  SCREENSCRAPER_ID           - User ID (optional)
  SCREENSCRAPER_PASSWORD     - User password (optional)`,
}

func init() {
	rootCmd.AddCommand(scrapecmd.Cmd)
	rootCmd.AddCommand(cachecmd.Cmd)
	rootCmd.AddCommand(platformscmd.Cmd)
}

func Execute() error {
	err := rootCmd.Execute()
	if errors.Is(err, scrapecmd.ErrCancelled) {
		return ErrCancelled
	}
	return err
}
