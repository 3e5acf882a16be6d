package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"draftstore/internal/retention"
	"draftstore/pkg/logger"
	"draftstore/pkg/media"
	"draftstore/pkg/store"
	"draftstore/pkg/transfer"
)

var (
	version = "dev"
	commit  = "unknown"
)

var (
	flagDB    string
	flagMedia string
)

var rootCmd = &cobra.Command{
	Use:     "draftctl",
	Short:   "Operator CLI for draftstore databases",
	Long:    `draftctl operates directly on a draftstore database and media root: listing drafts, exporting and importing transfer bundles, taking full backups and sweeping orphaned media files.`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "path to the draft database")
	rootCmd.PersistentFlags().StringVar(&flagMedia, "media", "", "path to the media root")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(sweepCmd)
}

// openStore opens the database and media root named by the persistent
// flags and binds them together. Callers must store.Close when done.
func openStore() (*media.Store, error) {
	if flagDB == "" || flagMedia == "" {
		return nil, fmt.Errorf("both --db and --media are required")
	}
	m, err := media.NewStore(flagMedia)
	if err != nil {
		return nil, fmt.Errorf("open media root: %w", err)
	}
	if err := store.Open(flagDB); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	store.Bind(m.Resolver(), m)
	return m, nil
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List drafts in the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := openStore(); err != nil {
			return err
		}
		defer store.Close()
		drafts, err := store.ListDrafts()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tMODE\tNAME\tSEGMENTS\tUPDATED")
		for _, d := range drafts {
			updated := ""
			if d.UpdatedTS > 0 {
				updated = time.Unix(0, d.UpdatedTS).Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", d.ID, d.Mode, d.Name, len(d.Segments), updated)
		}
		return w.Flush()
	},
}

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export [draft-id...]",
	Short: "Export drafts to a transfer bundle",
	Long:  `Export writes the named drafts, with their media files inlined, to a single bundle file. With no arguments every draft in the database is exported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		ids := args
		if len(ids) == 0 {
			drafts, err := store.ListDrafts()
			if err != nil {
				return err
			}
			for _, d := range drafts {
				ids = append(ids, d.ID)
			}
		}
		out, err := transfer.New(m).ExportDrafts(ids, exportOut)
		if err != nil {
			return err
		}
		fmt.Printf("exported %d draft(s) to %s\n", len(ids), out)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [bundle-file]",
	Short: "Import drafts from a transfer bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		ids, err := transfer.New(m).ImportBundle(args[0])
		if err != nil {
			return err
		}
		out, _ := json.Marshal(ids)
		fmt.Printf("imported %d draft(s): %s\n", len(ids), out)
		return nil
	},
}

var backupOut string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a zip archive of the full media root",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		out, err := transfer.New(m).ExportFullBackup(backupOut)
		if err != nil {
			return err
		}
		fmt.Printf("backup written to %s\n", out)
		return nil
	},
}

var sweepGrace time.Duration

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete orphaned media files not referenced by any draft",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		removed, err := retention.SweepOnce(m, sweepGrace)
		if err != nil {
			return err
		}
		fmt.Printf("removed %d orphaned file(s)\n", removed)
		return nil
	},
}

func main() {
	logger.Init()
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "drafts.bundle.json", "output bundle path")
	backupCmd.Flags().StringVarP(&backupOut, "out", "o", "drafts.backup.zip", "output archive path")
	sweepCmd.Flags().DurationVar(&sweepGrace, "grace", time.Hour, "minimum age before an orphan is removed")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
