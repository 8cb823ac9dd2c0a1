package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/booking"
)

const dateLayout = "2006-01-02"

func newAvailabilityCmd(rt *runtime) *cobra.Command {
	var (
		date, slot, category string
		smartBoard           bool
	)

	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Show room occupancy for a date and time slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := availabilityParams(date, slot, category)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("smart-board") {
				params.HasSmartBoard = &smartBoard
			}

			return rt.withServices(cmd.Context(), func(ctx context.Context, svc services) error {
				report, err := svc.Bookings.Availability(ctx, params)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", params.Date.Format(dateLayout), params.Slot)
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ROOM\tCATEGORY\tBOOKED\tSTATUS")
				for _, entry := range report {
					fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\n",
						entry.Room.Name, entry.Room.Category, entry.Count, entry.MaxBookings, entry.Status)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD")
	cmd.Flags().StringVar(&slot, "slot", "", "slot number 0-3 or label such as \"08:00 - 10:00\"")
	cmd.Flags().StringVar(&category, "category", "", "only rooms of this category")
	cmd.Flags().BoolVar(&smartBoard, "smart-board", false, "only rooms with (or, when false, without) a smart board")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("slot")
	return cmd
}

func availabilityParams(date, slot, category string) (application.AvailabilityParams, error) {
	var params application.AvailabilityParams

	day, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return params, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", date)
	}
	params.Date = day

	if params.Slot, err = booking.ParseTimeSlot(slot); err != nil {
		return params, err
	}

	if category != "" {
		c, err := booking.ParseCategory(category)
		if err != nil {
			return params, err
		}
		params.Category = &c
	}
	return params, nil
}
