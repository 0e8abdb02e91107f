package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

var trackCmd = &cobra.Command{
	Use:   "track <invoice-id>",
	Short: "Add an invoice to the LPO tracker",
	Long: `Track submits the tracker intake form for an invoice. The server assigns
the serial number from the invoice's business unit and year.

An invoice can be added once; adding it again fails.`,
	Example: `  intakectl track 42 --ticket T-100 --shipment SH-7

  # Special shipment with its own ticket
  intakectl track 42 --ticket T-100 --shipment SH-7 --sp --sp-ticket SP-3 --status Delivered`,
	Args: cobra.ExactArgs(1),
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)

	trackCmd.Flags().String("date", "", "date of request as YYYY-MM-DD (default today)")
	trackCmd.Flags().String("ticket", "", "ticket number")
	trackCmd.Flags().String("shipment", "", "shipment number")
	trackCmd.Flags().String("status", string(entity.ShipmentPending), "shipment status")
	trackCmd.Flags().Bool("costing", false, "communicated with costing")
	trackCmd.Flags().Bool("sp", false, "special shipment")
	trackCmd.Flags().String("sp-ticket", "", "special shipment ticket number")
}

func runTrack(cmd *cobra.Command, args []string) error {
	id, err := parseInvoiceID(args[0])
	if err != nil {
		return err
	}

	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	ticket, _ := cmd.Flags().GetString("ticket")
	shipment, _ := cmd.Flags().GetString("shipment")
	status, _ := cmd.Flags().GetString("status")
	costing, _ := cmd.Flags().GetBool("costing")
	sp, _ := cmd.Flags().GetBool("sp")
	spTicket, _ := cmd.Flags().GetString("sp-ticket")

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
	if ws.Tracked() {
		return fmt.Errorf("invoice %d is already in the tracker", id)
	}

	entry, err := ws.AddToTracker(ctx, entity.TrackerIntake{
		InvoiceID:               id,
		DateOfRequest:           date,
		TicketNo:                ticket,
		ShipmentNo:              shipment,
		ShipmentStatus:          entity.ShipmentStatus(status),
		CommunicatedWithCosting: costing,
		SPShipment:              sp,
		SPTicketNo:              spTicket,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Invoice %d added to tracker as %s\n", id, entry.SerialNumber)
	return nil
}
