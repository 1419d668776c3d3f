package cmd

import (
	"os"

	"github.com/comiknet/comiknet/color"
	"github.com/comiknet/comiknet/key"
	"github.com/comiknet/comiknet/style"
	"github.com/comiknet/comiknet/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// location is a filesystem resource the application reads or writes.
type location struct {
	name string
	flag string
	path func() string
	// origin names the setting that moved the path away from its default, if any.
	origin func() (string, bool)
	// secondary locations are listed only when asked for by flag.
	secondary bool
}

func fromEnv(name string) func() (string, bool) {
	return func() (string, bool) {
		_, ok := os.LookupEnv(name)
		return "$" + name, ok
	}
}

func fromKey(k string) func() (string, bool) {
	return func() (string, bool) {
		return k, viper.GetString(k) != ""
	}
}

var locations = []location{
	{name: "Config", flag: "config", path: where.Config, origin: fromEnv(where.EnvConfigPath)},
	{name: "Plugins", flag: "plugins", path: where.Plugins, origin: fromKey(key.PluginsPath)},
	{name: "Logs", flag: "logs", path: where.Logs},
	{name: "Credentials", flag: "credentials", path: where.Credentials, secondary: true},
	{name: "Cache", flag: "cache", path: where.Cache, secondary: true},
	{name: "Queries", flag: "queries", path: where.Queries, secondary: true},
	{name: "Temp", flag: "temp", path: where.Temp, secondary: true},
}

// overriddenBy reports the setting that relocated l.
func (l location) overriddenBy() (string, bool) {
	if l.origin == nil {
		return "", false
	}
	return l.origin()
}

func init() {
	rootCmd.AddCommand(whereCmd)

	for _, l := range locations {
		whereCmd.Flags().Bool(l.flag, false, "Print only the "+l.name+" path")
	}
	whereCmd.MarkFlagsMutuallyExclusive(lo.Map(locations, func(l location, _ int) string { return l.flag })...)
	whereCmd.SetOut(os.Stdout)
}

// whereCmd shows where plugins, configuration and application data live.
var whereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where plugins, configuration and application data are stored",
	Run: func(cmd *cobra.Command, args []string) {
		if l, ok := lo.Find(locations, func(l location) bool {
			return lo.Must(cmd.Flags().GetBool(l.flag))
		}); ok {
			cmd.Println(l.path())
			return
		}

		header := style.New().Bold(true).Foreground(color.HiPurple).Render
		primary := lo.Reject(locations, func(l location, _ int) bool { return l.secondary })

		for i, l := range primary {
			if i > 0 {
				cmd.Println()
			}

			cmd.Printf("%s %s\n", header(l.name), style.Fg(color.Yellow)("--"+l.flag))
			cmd.Println(l.path())
			if origin, ok := l.overriddenBy(); ok {
				cmd.Println(style.Faint("set by " + origin))
			}
		}
	},
}
