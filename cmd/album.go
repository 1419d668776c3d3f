package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/comiknet/comiknet/color"
	"github.com/comiknet/comiknet/host"
	"github.com/comiknet/comiknet/icon"
	"github.com/comiknet/comiknet/open"
	"github.com/comiknet/comiknet/style"
	"github.com/comiknet/comiknet/util"
	"github.com/muesli/reflow/wordwrap"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(albumCmd)
	albumCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	albumCmd.Flags().BoolP("open-cover", "o", false, "Open the cover image with the default handler")
	albumCmd.Flags().String("with", "", "Application used by --open-cover")
	albumCmd.SetOut(os.Stdout)
}

// albumCmd shows the album of one comic.
var albumCmd = &cobra.Command{
	Use:   "album <source> <id>",
	Short: "Show the details and chapters of a comic",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		src, id := args[0], args[1]
		var (
			asJson    = lo.Must(cmd.Flags().GetBool("json"))
			openCover = lo.Must(cmd.Flags().GetBool("open-cover"))
			app       = lo.Must(cmd.Flags().GetString("with"))
		)

		withHost(func(ctx context.Context, h *host.Host) error {
			album, err := h.Dispatcher.Album(ctx, src, id)
			if err != nil {
				return explainSourceErr(err, src, h.Dispatcher.Sources())
			}

			if openCover {
				if album.Cover == "" {
					return fmt.Errorf("%s has no cover", album.Name)
				}
				if err := open.Start(album.Cover, app); err != nil {
					return err
				}
				cmd.Printf("%s opened %s\n", icon.Get(icon.Success), album.Cover)
				return nil
			}

			if asJson {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(album)
			}

			width := util.TerminalWidth(80)
			cmd.Println(style.New().Bold(true).Foreground(color.HiPurple).Render(album.Name))
			if len(album.Authors) > 0 {
				cmd.Println(style.Faint(strings.Join(album.Authors, ", ")))
			}
			if album.Description != "" {
				cmd.Println()
				cmd.Println(wordwrap.String(album.Description, width))
			}
			if len(album.Tags) > 0 {
				cmd.Println()
				cmd.Println(strings.Join(lo.Map(album.Tags, func(t string, _ int) string {
					return style.Tag(color.White, color.Blue)(t)
				}), " "))
			}

			cmd.Println()
			cmd.Println(style.Fg(color.Cyan)(fmt.Sprintf("%s, %s", util.Quantify(len(album.Chapters), "chapter", "chapters"), lo.Ternary(album.IsFinished, "finished", "ongoing"))))
			for _, chapter := range album.Chapters {
				cmd.Printf("  %s %s\n", style.Faint(fmt.Sprintf("%4d", chapter.Index)), chapter.Title)
			}
			return nil
		})
	},
}
