package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lab-inventory/internal/inventory"
	"lab-inventory/internal/store"
	"lab-inventory/internal/uploads"
)

func printImport(e *env, res *inventory.ImportResult) {
	if res.Cleared > 0 {
		e.printf("Cleared %d existing items\n", res.Cleared)
	}
	for _, r := range res.Renamed {
		e.printf("  duplicate serial %s -> %s\n", r.From, r.To)
	}
	for _, msg := range res.Errors {
		e.printf("  failed: %s\n", msg)
	}
	e.printf("Imported %d of %d items (%d failed, %d renamed)\n", res.Imported, res.Total, res.Failed, len(res.Renamed))
}

func printValidation(e *env, err error) error {
	var verr *inventory.ValidationError
	if errors.As(err, &verr) {
		e.printf("Validation failed, nothing was imported:\n")
		for _, p := range verr.Problems {
			e.printf("  %s\n", p)
		}
		return fmt.Errorf("%d invalid items", len(verr.Problems))
	}
	return err
}

func newImportCmd(e *env) *cobra.Command {
	var (
		clearFirst bool
		suffix     string
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import equipment from a JSON array or backup file",
		Long: `Import equipment records from a JSON file.

Duplicate serial numbers are renamed instead of rejected:
  --suffix dup      SN-DUP1, SN-DUP2 (default)
  --suffix numeric  SN-1, SN-2`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "delete all equipment before importing")
	cmd.Flags().StringVar(&suffix, "suffix", string(inventory.SuffixDup), "duplicate serial suffix style (dup|numeric)")
	cmd.RunE = e.withDB(true, func(ctx context.Context, args []string) error {
		style, err := inventory.ParseSuffixStyle(suffix)
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		items, _, err := inventory.DecodeItems(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		e.printf("Importing %d items from %s\n", len(items), args[0])
		res, err := inventory.Import(ctx, e.db, items, inventory.ImportOptions{Clear: clearFirst, Style: style}, e.log)
		if err != nil {
			return printValidation(e, err)
		}
		printImport(e, res)
		return nil
	})
	return cmd
}

func newBackupCmd(e *env) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a zip backup of all equipment and images",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&out, "out", "", "backup directory (default BACKUP_DIR)")
	cmd.RunE = e.withDB(true, func(ctx context.Context, _ []string) error {
		dir := out
		if dir == "" {
			dir = e.cfg.BackupDir
		}
		images, err := uploads.New(e.cfg.UploadsDir)
		if err != nil {
			return err
		}
		res, err := inventory.CreateBackup(ctx, e.db, images, dir, e.log)
		if err != nil {
			return err
		}
		e.printf("Backup written to %s (%d bytes)\n", res.Path, res.Size)
		e.printf("  records: %d, images: %d/%d\n", res.Metadata.TotalRecords, res.Metadata.ImagesCopied, res.Metadata.ImageCount)
		for _, msg := range res.Errors {
			e.printf("  image error: %s\n", msg)
		}
		return nil
	})
	return cmd
}

func newRestoreCmd(e *env) *cobra.Command {
	var clearFirst bool
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore equipment from a zip or JSON backup",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "delete all equipment before restoring")
	cmd.RunE = e.withDB(true, func(ctx context.Context, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		images, err := uploads.New(e.cfg.UploadsDir)
		if err != nil {
			return err
		}
		res, err := inventory.Restore(ctx, e.db, data, images, inventory.RestoreOptions{Clear: clearFirst}, e.log)
		if err != nil {
			return printValidation(e, err)
		}
		e.printf("Restoring %s backup %s\n", res.Format, args[0])
		if res.Format == "zip" {
			e.printf("  images restored: %d\n", res.ImagesRestored)
		}
		for _, msg := range res.ImageErrors {
			e.printf("  image error: %s\n", msg)
		}
		printImport(e, res.Import)
		return nil
	})
	return cmd
}

var deleteAllEquipment = store.DeleteAllEquipment

func newClearCmd(e *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all equipment and reset the id sequence",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	cmd.RunE = func(c *cobra.Command, args []string) error {
		if !yes {
			fmt.Fprint(c.OutOrStdout(), "This deletes ALL equipment. Type 'yes' to continue: ")
			line, _ := bufio.NewReader(c.InOrStdin()).ReadString('\n')
			if strings.TrimSpace(strings.ToLower(line)) != "yes" {
				fmt.Fprintln(c.OutOrStdout(), "Aborted")
				return nil
			}
		}
		return e.withDB(true, func(ctx context.Context, _ []string) error {
			n, err := deleteAllEquipment(ctx, e.db)
			if err != nil {
				return err
			}
			e.printf("Deleted %d items\n", n)
			return nil
		})(c, args)
	}
	return cmd
}

func newReportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print equipment counts by status and lab",
		Args:  cobra.NoArgs,
		RunE: e.withDB(true, func(ctx context.Context, _ []string) error {
			r, err := inventory.BuildReport(ctx, e.db)
			if err != nil {
				return err
			}
			e.printf("Total equipment: %d\n", r.Total)
			e.printf("\nBy status:\n")
			for _, s := range r.ByStatus {
				e.printf("  %-28s %d\n", s.Key, s.Count)
			}
			e.printf("\nBy lab:\n")
			for _, l := range r.ByLab {
				e.printf("  %-28s %d\n", l.Key, l.Count)
			}
			return nil
		}),
	}
}
