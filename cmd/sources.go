package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/comiknet/comiknet/capability"
	"github.com/comiknet/comiknet/color"
	"github.com/comiknet/comiknet/dispatch"
	"github.com/comiknet/comiknet/host"
	"github.com/comiknet/comiknet/icon"
	"github.com/comiknet/comiknet/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sourcesCmd)

	sourcesCmd.Flags().BoolP("fields", "f", false, "Show the login fields each source expects")
	sourcesCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	sourcesCmd.Flags().StringP("capability", "c", "", "Only list sources with this capability")
	lo.Must0(sourcesCmd.RegisterFlagCompletionFunc("capability", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return lo.Map(capability.All, func(n capability.Name, _ int) string { return string(n) }), cobra.ShellCompDirectiveNoFileComp
	}))
	sourcesCmd.SetOut(os.Stdout)
}

type sourceInfo struct {
	ID           string            `json:"id"`
	Plugin       string            `json:"plugin"`
	Capabilities []capability.Name `json:"capabilities"`
	LoginFields  []string          `json:"login_fields,omitempty"`
}

// sourcesCmd lists every registered source with what it can do.
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List registered sources and their capabilities",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			showFields = lo.Must(cmd.Flags().GetBool("fields"))
			asJson     = lo.Must(cmd.Flags().GetBool("json"))
			only       = capability.Name(lo.Must(cmd.Flags().GetString("capability")))
		)

		if only != "" && !capability.Known(only) {
			handleErr(errors.New("unknown capability " + string(only)))
		}

		withHost(func(_ context.Context, h *host.Host) error {
			ids := h.Dispatcher.Sources()
			if only != "" {
				ids = h.Dispatcher.SourcesWith(only)
			}

			infos := make([]sourceInfo, 0, len(ids))
			for _, id := range ids {
				rec, ok := h.Registry.Resolve(id)
				if !ok {
					continue
				}

				set, err := h.Dispatcher.Capabilities(id)
				if err != nil {
					return err
				}

				info := sourceInfo{ID: id, Plugin: rec.Name(), Capabilities: set.Names()}
				if fields, err := h.Dispatcher.LoginFields(id); err == nil {
					info.LoginFields = fields
				} else if !errors.Is(err, dispatch.ErrCapabilityUnsupported) {
					return err
				}
				infos = append(infos, info)
			}

			if asJson {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(infos)
			}

			for _, info := range infos {
				names := lo.Map(info.Capabilities, func(n capability.Name, _ int) string { return string(n) })
				cmd.Printf("%s %s %s\n",
					style.Bold(info.ID),
					style.Faint("("+info.Plugin+")"),
					style.Fg(color.Cyan)(strings.Join(names, ", ")),
				)

				if showFields && len(info.LoginFields) > 0 {
					cmd.Printf("  %s %s\n", icon.Get(icon.Lock), strings.Join(info.LoginFields, ", "))
				}
			}
			return nil
		})
	},
}
