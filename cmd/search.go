package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/comiknet/comiknet/color"
	"github.com/comiknet/comiknet/dispatch"
	"github.com/comiknet/comiknet/host"
	"github.com/comiknet/comiknet/icon"
	"github.com/comiknet/comiknet/key"
	"github.com/comiknet/comiknet/query"
	"github.com/comiknet/comiknet/source"
	"github.com/comiknet/comiknet/style"
	"github.com/comiknet/comiknet/util"
	"github.com/AlecAivazis/survey/v2"
	"github.com/muesli/reflow/wordwrap"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringSliceP("source", "s", nil, "Sources to search. Defaults to every source")
	searchCmd.Flags().StringSliceP("extra", "e", nil, "Source specific search options")
	searchCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	searchCmd.SetOut(os.Stdout)
}

// searchCmd searches one, several or all sources.
var searchCmd = &cobra.Command{
	Use:     "search [query]",
	Short:   "Search comics across sources",
	Long:    "Search comics across sources.\nWithout a query, prompts for one and suggests previously searched queries.",
	Example: "  comiknet search one piece -s mangadex",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			q       = strings.Join(args, " ")
			sources = lo.Must(cmd.Flags().GetStringSlice("source"))
			extras  = lo.Must(cmd.Flags().GetStringSlice("extra"))
			asJson  = lo.Must(cmd.Flags().GetBool("json"))
		)

		if q == "" {
			handleErr(askQuery(&q))
		}
		logErr(query.Remember(q))

		withHost(func(ctx context.Context, h *host.Host) error {
			var results []dispatch.SearchResult
			if len(sources) == 0 {
				results = h.Dispatcher.SearchAll(ctx, q, extras...)
			} else {
				for _, src := range sources {
					comics, err := h.Dispatcher.Search(ctx, src, q, extras...)
					results = append(results, dispatch.SearchResult{
						Source: src,
						Comics: comics,
						Err:    explainSourceErr(err, src, h.Dispatcher.Sources()),
					})
				}
			}

			if asJson {
				out := lo.SliceToMap(results, func(r dispatch.SearchResult) (string, []*source.Comic) {
					return r.Source, lo.Ternary(r.Comics == nil, []*source.Comic{}, r.Comics)
				})
				return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
			}

			width := util.TerminalWidth(80)
			for _, r := range results {
				if r.Err != nil {
					cmd.Printf("%s %s %s\n", icon.Get(icon.Fail), style.Bold(r.Source), style.Fg(color.Red)(r.Err.Error()))
					continue
				}

				cmd.Printf("%s %s %s\n", icon.Get(icon.Success), style.Bold(r.Source), style.Faint(util.Quantify(len(r.Comics), "result", "results")))
				for _, comic := range r.Comics {
					line := fmt.Sprintf("%s %s", style.Fg(color.Yellow)(comic.ID), comic.Name)
					if len(comic.Authors) > 0 {
						line += " " + style.Faint(strings.Join(comic.Authors, ", "))
					}
					cmd.Println(wordwrap.String("  "+line, width))
				}
			}
			return nil
		})
	},
}

func askQuery(answer *string) error {
	prompt := &survey.Input{
		Message: "Search for",
		Suggest: func(toComplete string) []string {
			return query.Suggest(toComplete, viper.GetInt(key.SearchSuggestions))
		},
	}

	if recent := query.Suggest("", 1); len(recent) > 0 {
		prompt.Default = recent[0]
	}

	return survey.AskOne(prompt, answer, survey.WithValidator(survey.Required))
}
