package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/airalert/airalert/internal/featureflags"
	"github.com/airalert/airalert/internal/pollution"
	"github.com/airalert/airalert/internal/validation"
)

func (rt *root) flagsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "flags",
		Aliases: []string{"flag"},
		Short:   "Inspect and change feature flags in the configured store",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List feature flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			services, backend, _, err := rt.services(cmd.Context())
			if err != nil {
				return err
			}
			defer backend.Close()
			return rt.printFlags(services.Flags.GetAllFlags(cmd.Context()))
		},
	})

	var reason string
	set := &cobra.Command{
		Use:   "set <key>=<value>...",
		Short: "Set one or more feature flags",
		Long: `Set feature flags. Values are parsed as JSON when possible, so
true, 5 and "text" become a boolean, a number and a string. Anything else
is stored as a plain string.

Examples:
  airctl flags set disable_chatbot=true
  airctl flags set chat_daily_limit=10 --reason "launch week"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := featureflags.FlagUpdateRequest{Reason: reason}
			for _, arg := range args {
				key, raw, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("expected key=value, got %q", arg)
				}
				req.Updates = append(req.Updates, featureflags.FlagUpdate{Key: key, Value: parseFlagValue(raw)})
			}
			if err := validation.Struct(&req); err != nil {
				return err
			}

			services, backend, _, err := rt.services(cmd.Context())
			if err != nil {
				return err
			}
			defer backend.Close()

			flags := make([]*featureflags.Flag, 0, len(req.Updates))
			for _, u := range req.Updates {
				flags = append(flags, &featureflags.Flag{Key: u.Key, Value: u.Value})
			}
			if err := services.Flags.SetFlags(cmd.Context(), flags); err != nil {
				return fmt.Errorf("saving flags: %w", err)
			}
			log := rt.logger()
			log.Info().Int("count", len(flags)).Str("reason", reason).Msg("feature flags updated")

			services.Flags.InvalidateCache()
			return rt.printFlags(services.Flags.GetAllFlags(cmd.Context()))
		},
	}
	set.Flags().StringVar(&reason, "reason", "", "Why the flags are changing (logged)")
	cmd.AddCommand(set)

	return cmd
}

func parseFlagValue(raw string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

func (rt *root) printFlags(flags map[string]*featureflags.Flag) error {
	keys := make([]string, 0, len(flags))
	for k := range flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(rt.opts.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE")
	for _, k := range keys {
		value, err := json.Marshal(flags[k].Value)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\n", k, value)
	}
	return tw.Flush()
}

func (rt *root) refreshCommand() *cobra.Command {
	var region string
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run one pollution refresh and alert sweep against the store",
		Long: `Run the worker's refresh job once, for every configured region or
just one, and print the result.

Examples:
  airctl refresh
  airctl refresh --region Europe`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if region != "" && !pollution.IsKnownRegion(region) {
				log := rt.logger()
				log.Warn().Str("region", region).Msg("unknown region, using the default multiplier")
			}

			services, backend, cfg, err := rt.services(cmd.Context())
			if err != nil {
				return err
			}
			defer backend.Close()

			job := services.RefreshJob(cfg.Worker, rt.logger())
			if region != "" {
				return rt.printJSON(job.RunRegion(cmd.Context(), region))
			}
			return rt.printJSON(job.Run(cmd.Context()))
		},
	}
	cmd.Flags().StringVarP(&region, "region", "r", "", "Refresh only this region")
	return cmd
}
