package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

var attachCmd = &cobra.Command{
	Use:   "attach <invoice-id>",
	Short: "Upload the invoice or supporting file of an invoice",
	Example: `  intakectl attach 42 --kind invoice --file scan.pdf
  intakectl attach 42 --kind supporting --file products.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runAttach,
}

func init() {
	rootCmd.AddCommand(attachCmd)

	attachCmd.Flags().String("kind", string(entity.ArtifactInvoice), "file kind: invoice or supporting")
	attachCmd.Flags().String("file", "", "file to upload")
	_ = attachCmd.MarkFlagRequired("file")
}

func runAttach(cmd *cobra.Command, args []string) error {
	id, err := parseInvoiceID(args[0])
	if err != nil {
		return err
	}
	kindName, _ := cmd.Flags().GetString("kind")
	path, _ := cmd.Flags().GetString("file")

	kind := entity.ArtifactKind(kindName)
	if !kind.IsValid() {
		return fmt.Errorf("unknown file kind %q (use invoice or supporting)", kindName)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	invoice, err := a.client.UploadArtifact(cmd.Context(), id, kind, filepath.Base(path), content)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s file for invoice %s (%d bytes)\n", kind, invoice.InvoiceNumber, len(content))
	return nil
}
