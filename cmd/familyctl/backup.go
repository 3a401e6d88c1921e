package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"familyplanner/internal/service"
)

const backupPrefix = "backups/"

// backupFormat picks the encoding from a file or key extension
func backupFormat(name, explicit string) string {
	if explicit != "" {
		return explicit
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return service.FormatYAML
	}
	return service.FormatJSON
}

func contentType(format string) string {
	if format == service.FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

func (c *cli) exportCmd() *cobra.Command {
	var file, key, format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup of every member and activity",
		Long: `Write a backup of every member and activity to stdout, a file (--file),
or the S3 bucket named by BACKUP_S3_BUCKET (--s3).`,
		Args: cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			if file != "" && key != "" {
				return fmt.Errorf("use either --file or --s3, not both")
			}
			name := file
			if key == "auto" {
				name = backupPrefix + "family-" + a.now().UTC().Format("20060102-150405") + ".json"
			} else if key != "" {
				name = key
			}
			f := backupFormat(name, format)
			backup := service.Export(a.store, a.now())

			var buf bytes.Buffer
			if err := service.EncodeBackup(&buf, backup, f); err != nil {
				return err
			}

			switch {
			case key != "":
				store, err := a.openArchive(ctx)
				if err != nil {
					return err
				}
				if err := store.Upload(ctx, name, contentType(f), buf.Bytes()); err != nil {
					return err
				}
				log.Printf("Exported %d members and %d activities to s3://%s/%s", len(backup.Members), len(backup.Activities), a.cfg.BackupBucket, name)
			case file != "":
				if dir := filepath.Dir(file); dir != "." && dir != "" {
					if err := os.MkdirAll(dir, 0755); err != nil {
						return fmt.Errorf("failed to create output directory: %w", err)
					}
				}
				if err := os.WriteFile(file, buf.Bytes(), 0644); err != nil {
					return fmt.Errorf("failed to write backup: %w", err)
				}
				log.Printf("Exported %d members and %d activities to %s", len(backup.Members), len(backup.Activities), file)
			default:
				_, err := c.out.Write(buf.Bytes())
				return err
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Write the backup to this file")
	cmd.Flags().StringVar(&key, "s3", "", `Upload to this object key; "auto" names it by time`)
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default from the file extension)")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	var file, key, format string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Restore a backup into an empty family",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			var (
				r    io.Reader
				name string
			)
			switch {
			case key != "":
				store, err := a.openArchive(ctx)
				if err != nil {
					return err
				}
				data, err := store.Download(ctx, key)
				if err != nil {
					return err
				}
				r, name = bytes.NewReader(data), key
			case file != "":
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open backup: %w", err)
				}
				defer f.Close()
				r, name = f, file
			default:
				return fmt.Errorf("--file or --s3 is required")
			}

			backup, err := service.DecodeBackup(r, backupFormat(name, format))
			if err != nil {
				return err
			}
			result, err := a.coordinator.Import(ctx, backup)
			if err != nil {
				return requestError(err)
			}
			fmt.Fprintf(c.out, "Imported %d members and %d activities\n", result.Members, result.Activities)
			if result.Dropped > 0 {
				fmt.Fprintf(c.out, "Dropped %d assignments to members missing from the backup\n", result.Dropped)
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the backup from this file")
	cmd.Flags().StringVar(&key, "s3", "", "Download this object key from BACKUP_S3_BUCKET")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default from the file extension)")
	return cmd
}

func (c *cli) backupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List backups stored in BACKUP_S3_BUCKET",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, _ []string) error {
			store, err := a.openArchive(ctx)
			if err != nil {
				return err
			}
			objects, err := store.List(ctx, backupPrefix)
			if err != nil {
				return err
			}
			return c.printer().print(objects, func(w io.Writer) {
				fmt.Fprintln(w, "KEY\tSIZE\tMODIFIED")
				for _, o := range objects {
					fmt.Fprintf(w, "%s\t%d\t%s\n", o.Key, o.Size, o.LastModified.In(a.loc).Format(listTimeLayout))
				}
			})
		}),
	}
}
