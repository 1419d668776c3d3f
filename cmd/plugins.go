package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/comiknet/comiknet/capability"
	"github.com/comiknet/comiknet/color"
	"github.com/comiknet/comiknet/constant"
	"github.com/comiknet/comiknet/filesystem"
	"github.com/comiknet/comiknet/host"
	"github.com/comiknet/comiknet/icon"
	"github.com/comiknet/comiknet/lifecycle"
	"github.com/comiknet/comiknet/manifest"
	"github.com/comiknet/comiknet/style"
	"github.com/comiknet/comiknet/util"
	"github.com/comiknet/comiknet/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(pluginsCmd)
}

// pluginsCmd is the parent command for plugin management.
var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Inspect, validate and scaffold plugins",
}

func init() {
	pluginsCmd.AddCommand(pluginsListCmd)
	pluginsListCmd.Flags().BoolP("raw", "r", false, "Print only the names of loaded plugins")
	pluginsListCmd.SetOut(os.Stdout)
}

// pluginsListCmd loads the plugin directory and reports what happened to every plugin.
var pluginsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Load all plugins and display the outcome for each",
	Run: func(cmd *cobra.Command, args []string) {
		raw := lo.Must(cmd.Flags().GetBool("raw"))

		withHost(func(_ context.Context, h *host.Host) error {
			for _, outcome := range h.Lifecycle.Outcomes() {
				if raw {
					if outcome.Ok() {
						cmd.Println(outcome.Name)
					}
					continue
				}

				printOutcome(cmd, h, outcome)
			}
			return nil
		})
	},
}

func printOutcome(cmd *cobra.Command, h *host.Host, outcome lifecycle.Outcome) {
	name := lo.Ternary(outcome.Name == "", outcome.Dir, outcome.Name)

	if !outcome.Ok() {
		mark := lo.Ternary(errors.Is(outcome.Err, lifecycle.ErrAlreadyLoaded), icon.Skip, icon.Fail)
		cmd.Printf("%s %s %s\n", icon.Get(mark), style.Fg(color.Red)(name), style.Faint(outcome.Dir))
		cmd.Printf("  %s\n", outcome.Err)
		return
	}

	rec, ok := h.Registry.Lookup(outcome.Name)
	if !ok {
		return
	}

	runtimeIcon := lo.Ternary(rec.Manifest.Runtime == constant.RuntimeLua, icon.Lua, icon.Go)
	cmd.Printf(
		"%s %s %s %s\n",
		icon.Get(icon.Success),
		style.Bold(name),
		style.Fg(color.Yellow)(rec.Manifest.Version),
		icon.Get(runtimeIcon),
	)
	cmd.Printf("  %s %s\n", style.Fg(color.Blue)("sources:"), strings.Join(rec.Manifest.Sources, ", "))

	names := lo.Map(capability.Of(rec.Instance).Names(), func(n capability.Name, _ int) string {
		return string(n)
	})
	cmd.Printf("  %s %s\n", style.Fg(color.Blue)("capabilities:"), strings.Join(names, ", "))
}

func init() {
	pluginsCmd.AddCommand(pluginsCheckCmd)
	pluginsCheckCmd.SetOut(os.Stdout)
}

// pluginsCheckCmd validates every plugin and fails if any would be rejected.
var pluginsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate every plugin and exit with an error if any is rejected",
	Run: func(cmd *cobra.Command, args []string) {
		withHost(func(_ context.Context, h *host.Host) error {
			outcomes := h.Lifecycle.Outcomes()
			rejected := lo.Filter(outcomes, func(o lifecycle.Outcome, _ int) bool {
				return !o.Ok()
			})

			for _, outcome := range rejected {
				printOutcome(cmd, h, outcome)
			}

			if len(rejected) > 0 {
				return fmt.Errorf("%s rejected", util.Quantify(len(rejected), "plugin", "plugins"))
			}

			cmd.Printf("%s %s ok\n", icon.Get(icon.Success), util.Quantify(len(outcomes), "plugin", "plugins"))
			return nil
		})
	},
}

func init() {
	pluginsCmd.AddCommand(pluginsSchemaCmd)
	pluginsSchemaCmd.SetOut(os.Stdout)
}

// pluginsSchemaCmd prints the JSON schema of plugin manifests.
var pluginsSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the plugin manifest",
	Run: func(cmd *cobra.Command, args []string) {
		schema, err := manifest.Schema()
		handleErr(err)
		cmd.Println(string(schema))
	},
}

func init() {
	pluginsCmd.AddCommand(pluginsGenCmd)

	pluginsGenCmd.Flags().StringP("name", "n", "", "The display name of the new plugin")
	pluginsGenCmd.Flags().StringP("url", "u", "", "The base URL of the site the plugin reads from")
	pluginsGenCmd.Flags().StringSliceP("source", "s", nil, "Source ids the plugin serves. Defaults to a slug of the name")
	pluginsGenCmd.Flags().BoolP("auth", "a", false, "Include a login function")

	lo.Must0(pluginsGenCmd.MarkFlagRequired("name"))
	lo.Must0(pluginsGenCmd.MarkFlagRequired("url"))
	pluginsGenCmd.SetOut(os.Stdout)
}

// pluginsGenCmd scaffolds a Lua plugin.
var pluginsGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Scaffold a new Lua plugin from a template",
	Long:  `Generate a plugin directory with a manifest and a Lua script defining the mandatory functions.`,
	Run: func(cmd *cobra.Command, args []string) {
		author := "Anonymous"
		if usr, err := user.Current(); err == nil {
			author = usr.Username
		}

		name := lo.Must(cmd.Flags().GetString("name"))
		sources := lo.Must(cmd.Flags().GetStringSlice("source"))
		if len(sources) == 0 {
			slug := strings.ToLower(strings.ReplaceAll(util.SanitizeFilename(name), " ", ""))
			sources = []string{slug[:util.Min(len(slug), constant.SourceIDMaxLen)]}
		}

		for _, id := range sources {
			handleErr(manifest.ValidateSourceID(id))
		}

		s := struct {
			Name           string
			URL            string
			Author         string
			Protocol       string
			Sources        []string
			Auth           bool
			SearchComicsFn string
			ComicAlbumFn   string
			LoginFn        string
		}{
			Name:           name,
			URL:            lo.Must(cmd.Flags().GetString("url")),
			Author:         author,
			Protocol:       constant.Protocol,
			Sources:        sources,
			Auth:           lo.Must(cmd.Flags().GetBool("auth")),
			SearchComicsFn: constant.SearchComicsFn,
			ComicAlbumFn:   constant.ComicAlbumFn,
			LoginFn:        constant.LoginFn,
		}

		dir := filepath.Join(where.Plugins(), util.SanitizeFilename(name))
		if exists, _ := filesystem.API().Exists(dir); exists {
			handleErr(errors.New("plugin directory already exists: " + dir))
		}
		handleErr(filesystem.API().MkdirAll(dir, os.ModePerm))

		funcMap := template.FuncMap{
			"repeat": strings.Repeat,
			"plus":   func(a, b int) int { return a + b },
			"max":    util.Max[int],
		}

		for file, text := range map[string]string{
			constant.ManifestFile:  constant.ManifestTemplate,
			constant.DefaultScript: constant.ScriptTemplate,
		} {
			tmpl, err := template.New(file).Funcs(funcMap).Parse(text)
			handleErr(err)

			f, err := filesystem.API().Create(filepath.Join(dir, file))
			handleErr(err)
			handleErr(tmpl.Execute(f, s))
			util.Ignore(f.Close)
		}

		cmd.Println(dir)
	},
}
