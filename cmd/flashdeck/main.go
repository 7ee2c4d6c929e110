// Command flashdeck serves spaced-repetition review sessions over MCP and
// inspects stored decks from the command line.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/danieldreier/flashdeck/internal/config"
	"github.com/danieldreier/flashdeck/internal/deck"
	"github.com/danieldreier/flashdeck/internal/storage"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "flashdeck",
		Short:         "Spaced-repetition flashcard decks",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	load := func() (*config.Config, error) {
		return config.Load(configPath)
	}
	root.AddCommand(
		newServeCmd(load),
		newDecksCmd(load),
		newStatsCmd(load),
		newExportCmd(load),
	)
	return root
}

type configLoader func() (*config.Config, error)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			svc, err := NewStudyService(cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			svc.Logger.Info("Serving MCP on stdio",
				zap.String("deck", cfg.Study.Deck),
				zap.String("storage", cfg.Storage.Driver),
				zap.String("path", cfg.Storage.Path))
			if err := server.ServeStdio(newServer(svc, version)); err != nil {
				return fmt.Errorf("error serving MCP server: %w", err)
			}
			return nil
		},
	}
}

// openStore opens storage with a quiet logger for one-shot commands.
func openStore(load configLoader) (storage.Storage, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	return storage.Open(cfg.Storage.Driver, cfg.Storage.Path, zap.NewNop())
}

func newDecksCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "decks",
		Short: "List stored decks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(load)
			if err != nil {
				return err
			}
			defer store.Close()
			names, err := store.List()
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newStatsCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <deck>",
		Short: "Print statistics of a deck as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(load)
			if err != nil {
				return err
			}
			defer store.Close()
			d, err := store.Load(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(d.Stats(time.Now()))
		},
	}
}

func newExportCmd(load configLoader) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <deck>",
		Short: "Write the cards of a deck as front<TAB>back lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(load)
			if err != nil {
				return err
			}
			defer store.Close()
			d, err := store.Load(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			return exportDeck(w, d)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to a file instead of stdout")
	return cmd
}

// exportDeck writes one line per card. Tabs and newlines inside a side are
// replaced by spaces so every card stays on its line.
func exportDeck(w io.Writer, d *deck.Deck) error {
	clean := strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ")
	bw := bufio.NewWriter(w)
	for _, c := range d.Cards() {
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", clean.Replace(c.Front()), clean.Replace(c.Back())); err != nil {
			return err
		}
	}
	return bw.Flush()
}
