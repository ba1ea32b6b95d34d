package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/gosuri/uitable"
	"github.com/oneconcern/registrysync/pkg/model"
	"github.com/oneconcern/registrysync/pkg/state"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

const (
	outputJSON  = "json"
	outputYAML  = "yaml"
	outputTable = "table"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Commands to inspect and repair sync checkpoints",
	Long: `Commands to inspect and repair the checkpoints of the sync.

Checkpoints record, for every bucket and flow, the last version mirrored to git.
Removing a checkpoint makes the next sync cycle mirror the latest version of the flow again.
`,
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the checkpoints",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := openState(context.Background())
		if err != nil {
			wrapFatalln("could not open checkpoints", err)
			return
		}
		checkpoints := store.Load(context.Background())
		if err = printCheckpoints(cmd.OutOrStdout(), checkpoints, flags.state.output); err != nil {
			wrapFatalln("could not print checkpoints", err)
			return
		}
	},
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove checkpoints",
	Example: `registrysync state reset --bucket 6d6ae5cb-2d4f-4bb6-a8ff-4ab4f5d6b1a0 --flow 0c9e2ba6-34de-4c43-a1cc-8a45b7c95c2d
registrysync state reset --bucket 6d6ae5cb-2d4f-4bb6-a8ff-4ab4f5d6b1a0
registrysync state reset --all`,
	Run: func(cmd *cobra.Command, args []string) {
		switch {
		case flags.state.all && (flags.state.bucket != "" || flags.state.flow != ""):
			wrapFatalln("--all cannot be combined with --bucket or --flow", nil)
			return
		case !flags.state.all && flags.state.bucket == "":
			wrapFatalln("either --bucket or --all is required", nil)
			return
		case flags.state.flow != "" && flags.state.bucket == "":
			wrapFatalln("--flow requires --bucket", nil)
			return
		}

		ctx := context.Background()
		store, err := openState(ctx)
		if err != nil {
			wrapFatalln("could not open checkpoints", err)
			return
		}
		removed, err := store.Reset(ctx, flags.state.bucket, flags.state.flow)
		if err != nil {
			wrapFatalln("could not reset checkpoints", err)
			return
		}
		if !removed {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no matching checkpoint")
			return
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "checkpoints removed from %s\n", store)
	},
}

func openState(ctx context.Context) (*state.State, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	return state.Open(ctx, config.StateFile, newStateOptions(logger)...)
}

func printCheckpoints(w io.Writer, checkpoints model.Checkpoints, output string) error {
	switch output {
	case outputJSON:
		data, err := model.MarshalCheckpoints(checkpoints)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err

	case outputYAML:
		data, err := yaml.Marshal(checkpoints)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err

	case outputTable:
		table := uitable.New()
		table.MaxColWidth = 60
		table.AddRow("BUCKET", "FLOW", "VERSION")
		for _, bucketID := range checkpoints.Buckets() {
			for _, flowID := range checkpoints.Flows(bucketID) {
				version, _ := checkpoints.Get(bucketID, flowID)
				table.AddRow(bucketID, flowID, strconv.FormatInt(version, 10))
			}
		}
		_, err := fmt.Fprintln(w, table)
		return err

	default:
		return fmt.Errorf("unknown output format %q, expected %s, %s or %s", output, outputJSON, outputYAML, outputTable)
	}
}

func init() {
	addStateOutputFlag(stateShowCmd)
	addStateSelectionFlags(stateResetCmd)
	stateCmd.AddCommand(stateShowCmd, stateResetCmd)
	rootCmd.AddCommand(stateCmd)
}
