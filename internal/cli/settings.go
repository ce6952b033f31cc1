package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/transit-complaints/backend/internal/models"
	"github.com/transit-complaints/backend/internal/settings"
)

func newSettingsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read or change a runtime setting",
	}

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a setting as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()

			key := args[0]
			s, found, err := rt.gate.Lookup(cmd.Context(), key)
			if err != nil {
				return err
			}
			if !found {
				def, known := settings.Defaults[key]
				if !known {
					return fmt.Errorf("setting %s not found", key)
				}
				raw, _ := json.Marshal(def)
				s = models.Setting{Key: key, Value: raw}
			}
			return printJSON(cmd, s)
		},
	}

	var actor string
	set := &cobra.Command{
		Use:   "set <key> <true|false>",
		Short: "Change a boolean setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("value must be true or false: %w", err)
			}
			rt, err := openRuntime(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()

			if err := rt.gate.SetFlag(cmd.Context(), args[0], value, actor); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %t\n", args[0], value)
			return nil
		},
	}
	set.Flags().StringVar(&actor, "actor", "complaintctl", "recorded as updatedBy")

	cmd.AddCommand(get, set)
	return cmd
}

func newSeedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write default settings that are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()

			if err := rt.gate.Seed(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "settings seeded")
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
