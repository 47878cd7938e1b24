package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"notewise/internal/config"
	"notewise/internal/export"
	"notewise/internal/fileutil"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var what string
	var formatFlag string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the notes or summary as txt, md, html, or docx",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(outputPath)
			if target != "" {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve output path: %w", err)
				}
				target = expanded
			}
			format, err := resolveExportFormat(formatFlag, target)
			if err != nil {
				return err
			}

			return ctx.withSession(cmd, func(a *app) error {
				doc, err := a.session.ExportDocument(what)
				if err != nil {
					return err
				}
				var buf bytes.Buffer
				if err := export.Write(&buf, format, doc, export.Options{LicenseKey: a.cfg.Ingest.UniofficeLicenseKey}); err != nil {
					return err
				}
				if target == "" {
					_, err := buf.WriteTo(cmd.OutOrStdout())
					return err
				}
				if info, err := os.Stat(target); err == nil && info.IsDir() {
					target = filepath.Join(target, export.FileName(a.session.Status().Source, what, format))
				}
				if err := fileutil.WriteFileAtomic(target, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s to %s\n", strings.ToLower(doc.Title), target)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&what, "what", "notes", "What to export: notes or summary")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Export format: txt, md, html, or docx (default from the output extension, else md)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination file or directory (default stdout)")
	return cmd
}

func resolveExportFormat(flag, target string) (export.Format, error) {
	if strings.TrimSpace(flag) != "" {
		return export.ParseFormat(flag)
	}
	if target != "" {
		if format, err := export.FormatForPath(target); err == nil {
			return format, nil
		}
	}
	return export.FormatMarkdown, nil
}
