package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/comiknet/comiknet/color"
	"github.com/comiknet/comiknet/constant"
	"github.com/comiknet/comiknet/key"
	"github.com/comiknet/comiknet/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string

	// Choices lists the accepted values of a string field. Empty means any value.
	Choices []string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Comiknet + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON includes the current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Choices     []string `json:"choices,omitempty"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Choices:     f.Choices,
	})
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

// Sorted returns every registered field ordered by key.
func Sorted() []Field {
	fields := lo.Values(Default)
	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Key < fields[j].Key
	})
	return fields
}

func init() {
	register := func(k string, v any, desc string, choices ...string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc, Choices: choices}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.PluginsPath, "", "Directory scanned for plugins.\nEmpty means the plugins directory inside the config directory")
	register(key.PluginsStrict, false, "Abort startup when any plugin fails to load")
	register(key.PluginsReservedPrefix, constant.ReservedPrefix, "Plugin directories starting with this prefix are skipped")
	register(key.PluginsSearchConcurrency, 4, "Maximum number of sources queried at once when searching all sources")
	register(key.CredentialsBackend, "file", "Where encrypted source credentials are stored.\nAvailable options are: file, redis, keyring", "file", "redis", "keyring")
	register(key.CredentialsRedisURL, "redis://localhost:6379/0", "Redis connection URL used by the redis credential backend")
	register(key.SessionCookieName, "plugin_cookies", "Name of the cookie carrying per-source session state")
	register(key.SearchRememberQueries, true, "Remember search queries to offer them as suggestions later")
	register(key.SearchSuggestions, 5, "Maximum number of remembered queries offered when no query is given")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace", "panic", "fatal", "error", "warn", "info", "debug", "trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.IconsVariant, "plain", "Icon style used in CLI output.\nAvailable options are: emoji, nerd, plain, squares", "emoji", "nerd", "plain", "squares")
	register(key.CliColored, true, "Enable colored CLI output")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"blue":     style.Fg(color.Blue),
	"purple":   style.Fg(color.Purple),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
