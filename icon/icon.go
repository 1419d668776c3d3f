// Package icon renders the status symbols used in CLI output.
//
// Icons can be displayed as emoji, nerd-font glyphs, plain ASCII or Unicode squares
// depending on user preference.
package icon

import (
	"github.com/comiknet/comiknet/key"
	"github.com/spf13/viper"
)

// Visual Variant Constants - these define the supported aesthetic styles for icon rendering.
const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	squares = "squares"
)

// AvailableVariants returns a slice of all registered icon style identifiers.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, squares}
}

// Icon identifies a symbol.
type Icon int

const (
	Success Icon = iota
	Fail
	Warn
	Skip
	Lua
	Go
	Lock
	Cookie
)

// iconDef holds the representations of a single symbol across all variants.
type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	squares string
}

var icons = map[Icon]*iconDef{
	Success: {emoji: "✅", nerd: "", plain: "[ok]", squares: "🟩"},
	Fail:    {emoji: "❌", nerd: "", plain: "[x]", squares: "🟥"},
	Warn:    {emoji: "⚠️", nerd: "", plain: "[!]", squares: "🟨"},
	Skip:    {emoji: "⏭️", nerd: "", plain: "[-]", squares: "⬜"},
	Lua:     {emoji: "🌙", nerd: "", plain: "lua", squares: "🟦"},
	Go:      {emoji: "🐹", nerd: "", plain: "go", squares: "🟦"},
	Lock:    {emoji: "🔒", nerd: "", plain: "[key]", squares: "⬛"},
	Cookie:  {emoji: "🍪", nerd: "", plain: "[c]", squares: "🟫"},
}

// Get returns the representation for the configured variant.
func (d *iconDef) Get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	case squares:
		return d.squares
	default:
		return ""
	}
}

// Get returns the rendered string for i.
func Get(i Icon) string {
	return icons[i].Get()
}
