package cmd

import (
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var (
	hammerDown bool
	battery    float64

	telemetryCmd = &cobra.Command{
		Use:   "telemetry <trap-id>",
		Short: "Inject a telemetry report for one trap.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return call(http.MethodPost, "/api/traps/status", map[string]any{
				"traps": map[string]any{
					args[0]: map[string]any{
						"hammerDown":   hammerDown,
						"batteryLevel": battery,
					},
				},
			})
		},
	}

	trapName  string
	residents []string

	trapCmd = &cobra.Command{
		Use:   "trap <trap-id>",
		Short: "Set a trap's display name and resident numbers.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return call(http.MethodPut, "/api/traps/"+args[0], map[string]any{
				"name":             trapName,
				"resident_numbers": residents,
			})
		},
	}

	trapsCmd = &cobra.Command{
		Use:   "traps",
		Short: "List all known traps and their last state.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return call(http.MethodGet, "/api/traps", nil)
		},
	}

	registerCmd = &cobra.Command{
		Use:   "register <number>",
		Short: "Opt a phone number in to notifications.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return call(http.MethodPost, "/api/registrations", map[string]string{
				"phone_number": args[0],
			})
		},
	}

	unregisterCmd = &cobra.Command{
		Use:   "unregister <number>",
		Short: "Opt a phone number out of notifications.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return call(http.MethodDelete, "/api/registrations/"+url.PathEscape(args[0]), nil)
		},
	}

	sendCmd = &cobra.Command{
		Use:   "send <to> <body>",
		Short: "Send a raw message through the gateway (destination must be registered).",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return call(http.MethodPost, "/api/messages", map[string]string{
				"to":   args[0],
				"body": args[1],
			})
		},
	}
)

func init() {
	telemetryCmd.Flags().BoolVar(&hammerDown, "hammer-down", false, "hammer is down")
	telemetryCmd.Flags().Float64Var(&battery, "battery", 100, "battery level in percent (0-100)")
	_ = telemetryCmd.MarkFlagRequired("battery")

	trapCmd.Flags().StringVar(&trapName, "name", "", "display name")
	trapCmd.Flags().StringSliceVar(&residents, "resident", nil, "resident phone number (repeatable, E.164)")
}
