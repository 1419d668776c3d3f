package constant

// Plugin directory layout.
const (
	// ManifestFile is the declaration file expected at the root of every plugin directory.
	ManifestFile = "plugin.toml"

	// ReservedPrefix marks plugin directories that discovery must skip.
	ReservedPrefix = "_"

	// SourceIDMaxLen bounds the length of a source identifier.
	SourceIDMaxLen = 10

	// DefaultScript is the entry script used by Lua plugins that do not name one.
	DefaultScript = "main.lua"
)

// Plugin runtimes a manifest may select.
const (
	RuntimeGo  = "go"
	RuntimeLua = "lua"
)

// Script Function Identifiers - these constants define the global functions a Lua plugin may define.
const (
	SearchComicsFn = "SearchComics"
	ComicAlbumFn   = "ComicAlbum"
	LoginFn        = "Login"
	FavoritesFn    = "Favorites"
	ShapeImageFn   = "ShapeImage"
	OnLoadFn       = "OnLoad"
	OnUnloadFn     = "OnUnload"
)
