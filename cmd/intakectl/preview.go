package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

var previewCmd = &cobra.Command{
	Use:   "preview <invoice-id>",
	Short: "Show an invoice with its preview and tracker status",
	Example: `  # Summary of invoice 42
  intakectl preview 42

  # Also save the supporting workbook into ./out
  intakectl preview 42 --download supporting --out ./out

  # Save the ERP import workbook
  intakectl preview 42 --download erp`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringSlice("download", nil, "files to save: invoice, supporting, erp")
	previewCmd.Flags().String("out", ".", "directory for downloaded files")
}

func runPreview(cmd *cobra.Command, args []string) error {
	id, err := parseInvoiceID(args[0])
	if err != nil {
		return err
	}
	kinds, _ := cmd.Flags().GetStringSlice("download")
	outDir, _ := cmd.Flags().GetString("out")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ws := a.workspace()
	defer ws.Close()

	ctx := cmd.Context()
	if err := ws.Load(ctx, id); err != nil {
		return err
	}

	session, err := ws.Session()
	if err != nil {
		return err
	}
	record := session.Clean()
	preview, _ := ws.Preview()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Invoice\t%s\n", record.InvoiceNumber)
	fmt.Fprintf(w, "Date\t%s\n", record.InvoiceDate)
	fmt.Fprintf(w, "Currency\t%s\n", record.Currency)
	if record.TotalAmount != nil {
		fmt.Fprintf(w, "Total\t%s\n", record.TotalAmount.StringFixed(2))
	}
	fmt.Fprintf(w, "Status\t%s\n", record.Status)
	fmt.Fprintf(w, "Supplier\t%s\n", referenceLabel(record.Supplier))
	fmt.Fprintf(w, "Brand\t%s\n", referenceLabel(record.Brand))
	fmt.Fprintf(w, "Business unit\t%s\n", referenceLabel(record.BusinessUnit))
	fmt.Fprintf(w, "Items\t%d\n", len(record.Items))
	fmt.Fprintf(w, "In tracker\t%s\n", yesNo(ws.Tracked()))
	switch {
	case preview.Ready():
		fmt.Fprintf(w, "Preview\t%s, %d page(s)\n", preview.Handle.MediaType, preview.Pages)
	case preview.Err != nil:
		fmt.Fprintf(w, "Preview\tunavailable: %v\n", preview.Err)
	default:
		fmt.Fprintf(w, "Preview\tnone\n")
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, k := range kinds {
		var (
			fileName  string
			mediaType string
			data      []byte
		)

		switch k {
		case "erp":
			artifact, err := a.client.ExportWorkbook(ctx, id)
			if err != nil {
				return err
			}
			fileName, mediaType, data = artifact.FileName, artifact.MediaType, artifact.Data
			if fileName == "" {
				fileName = fmt.Sprintf("invoice-%d-erp.xlsx", id)
			}
		default:
			kind := entity.ArtifactKind(k)
			if !kind.IsValid() {
				return fmt.Errorf("unknown file kind %q (use invoice, supporting or erp)", k)
			}
			dl, err := ws.Download(ctx, kind)
			if err != nil {
				return err
			}
			fileName, mediaType, data = dl.FileName, dl.MediaType, dl.Data
		}

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
		target := filepath.Join(outDir, filepath.Base(fileName))
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s, %d bytes)\n", target, mediaType, len(data))
	}

	return nil
}

func parseInvoiceID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid invoice id %q", arg)
	}
	return id, nil
}

func referenceLabel(ref *entity.Reference) string {
	if ref == nil {
		return "-"
	}
	if ref.Name == "" {
		return ref.Code
	}
	return fmt.Sprintf("%s (%s)", ref.Name, ref.Code)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
