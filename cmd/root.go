// Package cmd implements the command-line interface for comiknet.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/comiknet/comiknet/color"
	"github.com/comiknet/comiknet/constant"
	"github.com/comiknet/comiknet/host"
	"github.com/comiknet/comiknet/icon"
	"github.com/comiknet/comiknet/key"
	"github.com/comiknet/comiknet/log"
	"github.com/comiknet/comiknet/style"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().StringP("plugins", "P", "", "Directory to load plugins from")
	lo.Must0(viper.BindPFlag(key.PluginsPath, rootCmd.PersistentFlags().Lookup("plugins")))

	rootCmd.PersistentFlags().Bool("strict", false, "Abort when any plugin fails to load")
	lo.Must0(viper.BindPFlag(key.PluginsStrict, rootCmd.PersistentFlags().Lookup("strict")))
}

// rootCmd defines the entry point for the comiknet application.
var rootCmd = &cobra.Command{
	Use:   constant.Comiknet,
	Short: "Search and read comics from many sources through plugins",
	Long: style.New().Bold(true).Foreground(color.HiPurple).Render(constant.Comiknet) + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Search and read comics from many sources through plugins"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// withHost starts the plugin runtime, runs fn and shuts the runtime down.
func withHost(fn func(ctx context.Context, h *host.Host) error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	h, err := host.New(ctx, host.FromConfig())
	handleErr(err)

	if err := h.Start(ctx); err != nil {
		_ = h.Close(ctx)
		handleErr(err)
	}

	err = fn(ctx, h)
	logErr(h.Close(ctx))
	handleErr(err)
}

// logErr records a non fatal error.
func logErr(err error) {
	if err != nil {
		log.Warn(err)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
