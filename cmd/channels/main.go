package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"channels-go/internal/app"
	"channels-go/internal/catalog"
	"channels-go/internal/config"
	"channels-go/internal/encryption"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// readConfig loads the config file from the default location.
func readConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults.ConfigPath, nil
}

// newApp reads the config and creates a ChannelsApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "CreateChannel", "Import").
func newApp(ctx context.Context, operation string) (*app.ChannelsApp, error) {
	cfg, _, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewChannelsApp(ctx, cfg, operation, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// readPassphrase prompts on stderr and reads a line without echo. When stdin
// is not a terminal the line is read as is.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printCategoryDetail(d *catalog.CategoryDetail) {
	fmt.Printf("#%d  %s\n", d.Category.ID(), d.Category.Name())
	fmt.Printf("Channel:  %s\n", d.Channel.Name())
	fmt.Printf("Path:     %s\n", d.Category.Path())

	ancestors := make([]string, len(d.Ancestors))
	for i, a := range d.Ancestors {
		ancestors[i] = a.Name()
	}
	fmt.Printf("Parents:  %s\n", strings.Join(ancestors, " > "))

	for _, c := range d.Children {
		fmt.Printf("  #%d  %s\n", c.ID(), c.Name())
	}
}

var rootCmd = &cobra.Command{
	Use:          "channels",
	Short:        "Sales channel category catalog",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		encrypt, _ := cmd.Flags().GetBool("encrypt")

		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		instanceID := uuid.New().String()
		cfg := config.NewConfig(instanceID, defaults.BaseDir)

		if encrypt {
			cfg.Encryption.Type = "age"
			passphrase, err := readPassphrase("Passphrase for the snapshot key: ")
			if err != nil {
				return err
			}
			confirm, err := readPassphrase("Repeat passphrase: ")
			if err != nil {
				return err
			}
			if passphrase != confirm {
				return fmt.Errorf("passphrases do not match")
			}
			if err := encryption.NewAgeEncryptor(cfg.Encryption).Setup(passphrase); err != nil {
				return fmt.Errorf("setting up encryption: %w", err)
			}
		}

		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Instance ID: %s\n", instanceID)
		fmt.Printf("Base Dir: %s\n", defaults.BaseDir)
		if encrypt {
			fmt.Printf("Public key: %s\n", cfg.Encryption.PublicKeyPath)
		}
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := readConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Instance ID: %s\n", cfg.InstanceID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Database:    %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Encryption:  %s\n", cfg.Encryption.Type)
		fmt.Printf("Cache:       %s\n", cfg.Cache.Type)
		fmt.Printf("Server:      %s\n", cfg.Server.Addr)
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:       %s (%s)\n", v.Name, v.Type)
		}
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the database schema up to date",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := readConfig()
		if err != nil {
			return err
		}
		if err := app.MigrateDatabase(cfg); err != nil {
			return err
		}
		fmt.Println("Database is up to date.")
		return nil
	},
}

var dbRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the local database with the latest vault snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := readConfig()
		if err != nil {
			return err
		}

		var passphrase string
		if cfg.Encryption.Type != "none" {
			if passphrase, err = readPassphrase("Passphrase: "); err != nil {
				return err
			}
		}

		version, err := app.RestoreDatabase(cmd.Context(), cfg, passphrase)
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		fmt.Printf("Restored snapshot version %d\n", version)
		return nil
	},
}

// channel command
var channelCmd = &cobra.Command{
	Use:   "channel",
	Short: "Manage channels",
}

var channelCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create an empty channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "CreateChannel")
		if err != nil {
			return err
		}
		defer a.Close()

		ch, err := a.CreateChannel(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Created channel %s\n", ch.Name())
		return nil
	},
}

var channelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "ListChannels")
		if err != nil {
			return err
		}
		defer a.Close()

		channels, err := a.ListChannels(cmd.Context())
		if err != nil {
			return err
		}
		if len(channels) == 0 {
			fmt.Println("No channels.")
			return nil
		}
		for _, ch := range channels {
			fmt.Println(ch.Name())
		}
		return nil
	},
}

var channelShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "List the categories of a channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "ShowChannel")
		if err != nil {
			return err
		}
		defer a.Close()

		ch, err := a.FindChannel(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		paths, err := a.ListCategoryPaths(cmd.Context(), ch)
		if err != nil {
			return err
		}

		fmt.Printf("%s (%d categories)\n", ch.Name(), len(paths))
		for _, p := range paths {
			fmt.Printf("  %s\n", p)
		}
		return nil
	},
}

var channelResetCmd = &cobra.Command{
	Use:   "reset NAME",
	Short: "Remove every category of a channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "ResetChannel")
		if err != nil {
			return err
		}
		defer a.Close()

		ch, err := a.ResetChannel(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Channel %s reset\n", ch.Name())
		return nil
	},
}

var channelAddCmd = &cobra.Command{
	Use:   "add NAME SEGMENT...",
	Short: "Add a category path to a channel",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "AddCategory")
		if err != nil {
			return err
		}
		defer a.Close()

		category, err := a.AddCategory(cmd.Context(), args[0], args[1:])
		if err != nil {
			return err
		}
		fmt.Printf("#%d  %s\n", category.ID(), category.Path())
		return nil
	},
}

// category command
var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Inspect categories",
}

var categoryShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a category by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid category id %q", args[0])
		}

		a, err := newApp(cmd.Context(), "ShowCategory")
		if err != nil {
			return err
		}
		defer a.Close()

		detail, err := a.GetCategoryDetail(cmd.Context(), id)
		if err != nil {
			return err
		}
		printCategoryDetail(detail)
		return nil
	},
}

var categoryFindCmd = &cobra.Command{
	Use:   "find CHANNEL NAME",
	Short: "Find a category by name within a channel",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "FindCategory")
		if err != nil {
			return err
		}
		defer a.Close()

		detail, err := a.FindCategoryDetail(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		printCategoryDetail(detail)
		return nil
	},
}

// search command
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search by keyword",
}

var searchChannelsCmd = &cobra.Command{
	Use:   "channels KEYWORD",
	Short: "Search channel names",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "SearchChannels")
		if err != nil {
			return err
		}
		defer a.Close()

		channels, err := a.SearchChannels(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(channels) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, ch := range channels {
			fmt.Println(ch.Name())
		}
		return nil
	},
}

var searchCategoriesCmd = &cobra.Command{
	Use:   "categories KEYWORD",
	Short: "Search category names across channels",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "SearchCategories")
		if err != nil {
			return err
		}
		defer a.Close()

		categories, err := a.SearchCategories(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(categories) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, c := range categories {
			ch, err := a.ChannelOf(cmd.Context(), c)
			if err != nil {
				return err
			}
			fmt.Printf("#%-6d %-15s  %s\n", c.ID(), ch.Name(), c.Path())
		}
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import CHANNEL FILE",
	Short: "Replace the categories of a channel from a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sep, _ := cmd.Flags().GetString("sep")

		a, err := newApp(cmd.Context(), "Import")
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Import(cmd.Context(), args[0], args[1], sep)
		if err != nil {
			return err
		}
		for _, f := range result.Failed {
			fmt.Fprintf(os.Stderr, "skipped %s\n", f)
		}
		fmt.Println(result.Message())
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context(), "GetHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.GetHistory(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				d := op.FinishedAt.Time.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-15s  %s  %-10s  %-8s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
		}
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, "Serve")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Serve(ctx, addr)
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().Bool("encrypt", false, "Generate an age key pair and encrypt snapshots")
	configCmd.AddCommand(configListCmd)

	// db subcommands
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbRestoreCmd)

	// channel subcommands
	channelCmd.AddCommand(channelCreateCmd)
	channelCmd.AddCommand(channelListCmd)
	channelCmd.AddCommand(channelShowCmd)
	channelCmd.AddCommand(channelResetCmd)
	channelCmd.AddCommand(channelAddCmd)

	// category subcommands
	categoryCmd.AddCommand(categoryShowCmd)
	categoryCmd.AddCommand(categoryFindCmd)

	// search subcommands
	searchCmd.AddCommand(searchChannelsCmd)
	searchCmd.AddCommand(searchCategoriesCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(channelCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().String("sep", "", "Segment separator (default from config)")
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")
}
