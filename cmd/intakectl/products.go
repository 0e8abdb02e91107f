package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-intake/internal/application/upload"
	"github.com/garyjia/invoice-intake/internal/domain/entity"
	"github.com/garyjia/invoice-intake/internal/infrastructure/spreadsheet"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Build the barcode/model product list sent with an invoice upload",
	Long: `Products fills the upload product table from a supporting workbook, a
pasted range, or both, and prints the rows that would be sent with the
upload. Blank rows are dropped and values are trimmed.

Workbook rows are appended after any existing rows. A paste starts at --row
in --column; a two-column paste fills barcode and model together.`,
	Example: `  # Rows from the first sheet of a supplier workbook
  intakectl products --workbook supplier.xlsx

  # Barcode and model columns copied together from Excel
  intakectl products --paste barcodes.txt --column barcode`,
	Args: cobra.NoArgs,
	RunE: runProducts,
}

func init() {
	rootCmd.AddCommand(productsCmd)

	productsCmd.Flags().String("workbook", "", "xlsx workbook to import")
	productsCmd.Flags().String("paste", "", "file holding pasted text; - reads stdin")
	productsCmd.Flags().String("column", string(entity.FieldBarcode), "column the paste starts in: barcode or model")
	productsCmd.Flags().Int("row", 0, "row the paste starts at (0-based)")
}

func runProducts(cmd *cobra.Command, args []string) error {
	workbook, _ := cmd.Flags().GetString("workbook")
	pasteFile, _ := cmd.Flags().GetString("paste")
	column, _ := cmd.Flags().GetString("column")
	row, _ := cmd.Flags().GetInt("row")

	if workbook == "" && pasteFile == "" {
		return fmt.Errorf("nothing to import: give --workbook or --paste")
	}

	table := upload.NewProductTable()

	if workbook != "" {
		f, err := os.Open(workbook)
		if err != nil {
			return fmt.Errorf("failed to open workbook: %w", err)
		}
		defer f.Close()

		n, err := table.ImportWorkbook(spreadsheet.NewWorkbookReader(zap.NewNop()), f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Imported %d row(s) from %s\n", n, workbook)
	}

	if pasteFile != "" {
		raw, err := readInput(cmd, pasteFile)
		if err != nil {
			return err
		}
		kind, err := table.Paste(entity.Field(column), row, raw)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Applied %s paste at row %d\n", kind, row)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(table.Normalized())
}
