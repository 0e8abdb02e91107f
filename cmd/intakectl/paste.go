package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/invoice-intake/internal/domain/clipboard"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

var pasteCmd = &cobra.Command{
	Use:   "paste <invoice-id>",
	Short: "Paste a copied spreadsheet range into an invoice's line items",
	Long: `Paste applies clipboard text to the line items of one section the same
way a paste into the product table does. A single column fills rows downward
from --row; a two-column range also fills the paired column (barcode with
mancode and the reverse). Rows are added as needed.

The section is saved unless --dry-run is given, in which case the resulting
draft is printed and discarded.`,
	Example: `  # Paste barcodes copied from Excel, starting at the first row
  pbpaste | intakectl paste 42 --column barcode

  # Paste a range from a file into the IM products section at row 3
  intakectl paste 42 --section im_products --column mancode --row 3 --file range.tsv`,
	Args: cobra.ExactArgs(1),
	RunE: runPaste,
}

func init() {
	rootCmd.AddCommand(pasteCmd)

	pasteCmd.Flags().String("section", string(entity.SectionProducts), "section to edit: products or im_products")
	pasteCmd.Flags().String("column", string(entity.FieldBarcode), "column the paste starts in")
	pasteCmd.Flags().Int("row", 0, "row the paste starts at (0-based)")
	pasteCmd.Flags().String("file", "", "read the pasted text from this file instead of stdin")
	pasteCmd.Flags().Bool("dry-run", false, "print the edited items without saving")
}

func runPaste(cmd *cobra.Command, args []string) error {
	id, err := parseInvoiceID(args[0])
	if err != nil {
		return err
	}
	sectionName, _ := cmd.Flags().GetString("section")
	column, _ := cmd.Flags().GetString("column")
	row, _ := cmd.Flags().GetInt("row")
	file, _ := cmd.Flags().GetString("file")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	section := entity.Section(sectionName)
	if !section.IsValid() {
		return fmt.Errorf("unknown section %q", sectionName)
	}

	raw, err := readInput(cmd, file)
	if err != nil {
		return err
	}

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

	if err := session.ToggleOn(ctx, section); err != nil {
		return err
	}

	kind, err := session.PasteItems(section, entity.Field(column), row, raw)
	if err != nil {
		_ = session.Cancel(ctx, section)
		return err
	}
	if kind == clipboard.KindNone {
		_ = session.Cancel(ctx, section)
		fmt.Fprintln(cmd.ErrOrStderr(), "Nothing to paste")
		return nil
	}

	if dryRun {
		items := session.Draft().Items
		if err := session.Cancel(ctx, section); err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	saved, err := session.Save(ctx, section)
	if err != nil {
		_ = session.Cancel(ctx, section)
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Applied %s paste to %s; invoice %s now has %d item(s)\n",
		kind, section, saved.InvoiceNumber, len(saved.Items))
	return nil
}
