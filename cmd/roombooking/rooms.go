package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/booking"
)

func newRoomsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Manage rooms",
	}
	cmd.AddCommand(newRoomsListCmd(rt))
	cmd.AddCommand(newRoomsAddCmd(rt))
	return cmd
}

func newRoomsListCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every room",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withServices(cmd.Context(), func(ctx context.Context, svc services) error {
				rooms, err := svc.Rooms.ListRooms(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tLOCATION\tCATEGORY\tSMART BOARD\tCAPACITY")
				for _, room := range rooms {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%d\n",
						room.ID, room.Name, room.Location, room.Category, room.HasSmartBoard, booking.Capacity(room.Category))
				}
				return w.Flush()
			})
		},
	}
}

func newRoomsAddCmd(rt *runtime) *cobra.Command {
	var (
		input    application.RoomInput
		category string
	)

	c := &cobra.Command{
		Use:   "add",
		Short: "Add a room",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := booking.ParseCategory(category)
			if err != nil {
				return err
			}
			input.Category = parsed

			return rt.withServices(cmd.Context(), func(ctx context.Context, svc services) error {
				room, err := svc.Rooms.CreateRoom(ctx, application.CreateRoomParams{Principal: operator, Input: input})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created room %q (%s)\n", room.Name, room.ID)
				return nil
			})
		},
	}

	c.Flags().StringVar(&input.Name, "name", "", "room name")
	c.Flags().StringVar(&input.Location, "location", "", "building and floor")
	c.Flags().StringVar(&input.Description, "description", "", "free text description")
	c.Flags().StringVar(&category, "category", "1", "1 (classroom) or 2 (meeting room)")
	c.Flags().BoolVar(&input.HasSmartBoard, "smart-board", false, "room has a smart board")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("location")
	return c
}
