package platforms

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sargunv/curateur/internal/platform"
	"github.com/sargunv/curateur/lib/screenscraper"
)

var (
	indexPath     string
	romRoot       string
	checkProvider bool
)

var Cmd = &cobra.Command{
	Use:   "platforms",
	Short: "List platforms from the frontend's platform index",
	Long: `Print every platform the index declares, with its resolved ROM path and
the Provider platform code curateur will scrape it under. With
--check-provider, the Provider's own system list is fetched and each
mapped code is verified to still exist upstream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(indexPath)
		if err != nil {
			return fmt.Errorf("read platform index: %w", err)
		}
		platforms, err := platform.ParseIndex(data, romRoot, platform.DefaultProviderCodes)
		if err != nil {
			return err
		}

		known := map[string]bool{}
		if checkProvider {
			known, err = fetchProviderSystems(cmd)
			if err != nil {
				return err
			}
		}

		for _, p := range platforms {
			code := p.ProviderCode
			switch {
			case code == "":
				code = "unmapped"
			case checkProvider && !known[code]:
				code += " (not on provider)"
			}
			fmt.Printf("%-16s %-40s provider=%s extensions=%s\n",
				p.ID, p.Name, code, strings.Join(p.Extensions, ","))
		}
		return nil
	},
}

func fetchProviderSystems(cmd *cobra.Command) (map[string]bool, error) {
	devID := os.Getenv("SCREENSCRAPER_DEV_USER")
	devPassword := os.Getenv("SCREENSCRAPER_DEV_PASSWORD")
	if devID == "" || devPassword == "" {
		return nil, fmt.Errorf("--check-provider requires SCREENSCRAPER_DEV_USER and SCREENSCRAPER_DEV_PASSWORD")
	}

	client := screenscraper.NewClient(devID, devPassword, "curateur",
		os.Getenv("SCREENSCRAPER_ID"), os.Getenv("SCREENSCRAPER_PASSWORD"))
	resp, err := client.GetSystemsList(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("fetch provider system list: %w", err)
	}

	known := make(map[string]bool, len(resp.Response.Systems))
	for _, sys := range resp.Response.Systems {
		known[strconv.Itoa(sys.ID)] = true
	}
	return known, nil
}

func init() {
	Cmd.Flags().StringVar(&indexPath, "platform-index", "", "Path to the frontend's platform index XML")
	Cmd.Flags().StringVar(&romRoot, "rom-root", "", "Base ROM directory used to resolve path macros")
	Cmd.Flags().BoolVar(&checkProvider, "check-provider", false, "Verify mapped codes against the Provider's system list")
	Cmd.MarkFlagRequired("platform-index")
}
