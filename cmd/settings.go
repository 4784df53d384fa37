package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"replicate/config"
	"replicate/core"
	"replicate/models"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Shows and edits the redirect base URLs",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Prints the stored settings as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := core.NewDBSettingsStore()
		s, err := store.Load(cmd.Context())
		if err != nil {
			return err
		}
		return printSettings(s)
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <base-url>",
	Short: "Sets the sync base URL (and the publish base URL in shared field mode)",
	Long: `Sets the base URL that replaces https://api.obsidian.md. In the default
shared field mode the same value also replaces https://publish.obsidian.md.
Pass "" to disable rewriting.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store := core.NewDBSettingsStore()
		if _, err := store.Install(ctx); err != nil {
			return err
		}
		s, err := core.SaveSyncBaseURL(ctx, store, args[0], config.FieldMode())
		if err != nil {
			return err
		}
		return printSettings(s)
	},
}

var settingsSetPublishCmd = &cobra.Command{
	Use:   "set-publish <base-url>",
	Short: "Sets the publish base URL (split field mode only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store := core.NewDBSettingsStore()
		if _, err := store.Install(ctx); err != nil {
			return err
		}
		s, err := core.SavePublishBaseURL(ctx, store, args[0], config.FieldMode())
		if errors.Is(err, core.ErrSharedFieldMode) {
			return fmt.Errorf("%w; set sync.field_mode to %q to edit it separately", err, models.FieldModeSplit)
		}
		if err != nil {
			return err
		}
		return printSettings(s)
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restores the default base URLs",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := core.ResetSettings(cmd.Context(), core.NewDBSettingsStore())
		if err != nil {
			return err
		}
		return printSettings(s)
	},
}

func printSettings(s models.ReplicateSettings) error {
	out, err := json.MarshalIndent(struct {
		models.ReplicateSettings
		FieldMode models.FieldMode `json:"fieldMode"`
	}{s, config.FieldMode()}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd, settingsSetPublishCmd, settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}

