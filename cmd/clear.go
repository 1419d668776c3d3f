package cmd

import (
	"fmt"

	"github.com/comiknet/comiknet/filesystem"
	"github.com/comiknet/comiknet/icon"
	"github.com/comiknet/comiknet/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type clearTarget struct {
	name     string
	argLong  string
	argShort string
	location func() string
}

var clearTargets = []clearTarget{
	{"response cache", "cache", "c", where.Cache},
	{"search history", "queries", "q", where.Queries},
	{"logs", "logs", "l", where.Logs},
	{"temporary files", "temp", "t", where.Temp},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		clearCmd.Flags().BoolP(target.argLong, target.argShort, false, "clear "+target.name)
	}
}

// clearCmd removes cached and temporary artifacts.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached and temporary application artifacts",
	Run: func(cmd *cobra.Command, args []string) {
		selected := lo.Filter(clearTargets, func(t clearTarget, _ int) bool {
			return lo.Must(cmd.Flags().GetBool(t.argLong))
		})

		if len(selected) == 0 {
			handleErr(cmd.Help())
			return
		}

		for _, target := range selected {
			handleErr(filesystem.API().RemoveAll(target.location()))
			fmt.Printf("%s cleared %s\n", icon.Get(icon.Success), target.name)
		}
	},
}
