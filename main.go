package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"library-ledger/access"
	"library-ledger/internal/app"
	"library-ledger/internal/config"
	"library-ledger/library"
)

// cli carries the configuration bound to the persistent flags and the
// application assembled from it once flags are parsed.
type cli struct {
	cfg *config.Config
	app *app.App
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	c := &cli{cfg: cfg}
	err = c.rootCmd().Execute()
	if cerr := c.close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "Error closing store: %v\n", cerr)
		if err == nil {
			err = cerr
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "library-ledger",
		Short:        "Library inventory and circulation ledger",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.cfg.Validate(); err != nil {
				return err
			}
			c.app = app.New(c.cfg)
			c.app.Logger().Debug("starting",
				"command", cmd.Name(),
				"store", c.cfg.Store,
				"data_dir", c.cfg.DataDir)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runShell(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfg.DataDir, "data-dir", c.cfg.DataDir, "directory holding the library records")
	flags.StringVar(&c.cfg.Store, "store", c.cfg.Store, "record store backend: file or sqlite")
	flags.StringVar(&c.cfg.EBooksDir, "ebooks-dir", c.cfg.EBooksDir, "e-book directory, relative to --data-dir unless absolute")
	flags.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level: debug, info, warn or error")
	flags.StringVar(&c.cfg.LogFormat, "log-format", c.cfg.LogFormat, "log format: text or json")
	flags.IntVar(&c.cfg.LoanDays, "loan-days", c.cfg.LoanDays, "loan period in days")
	flags.IntVar(&c.cfg.FineRate, "fine-rate", c.cfg.FineRate, "fine charged per day late")
	flags.BoolVar(&c.cfg.AllowDuplicateLoans, "allow-duplicate-loans", c.cfg.AllowDuplicateLoans,
		"let a member hold more than one outstanding loan of the same book")

	root.AddCommand(c.shellCmd(), c.reportCmd(), c.ebooksCmd(), c.searchCmd())
	return root
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}

func (c *cli) services() (*library.LibraryManager, *access.Service, error) {
	lib, err := c.app.Library()
	if err != nil {
		return nil, nil, err
	}
	acc, err := c.app.Access()
	if err != nil {
		return nil, nil, err
	}
	return lib, acc, nil
}

func (c *cli) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive menu (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runShell(cmd)
		},
	}
}

func (c *cli) runShell(cmd *cobra.Command) error {
	lib, acc, err := c.services()
	if err != nil {
		return err
	}
	newShell(cmd.InOrStdin(), cmd.OutOrStdout(), lib, acc, c.cfg.EBooksPath()).run()
	return nil
}
