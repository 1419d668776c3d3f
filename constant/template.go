package constant

// ManifestTemplate is a Go text/template for scaffolding a plugin declaration file.
const ManifestTemplate = `name = "{{ .Name }}"
version = "0.1.0"
protocol = "{{ .Protocol }}"
runtime = "lua"
entry = "main.lua"
description = "{{ .Name }} by {{ .Author }}"
sources = [{{ range $i, $s := .Sources }}{{ if $i }}, {{ end }}"{{ $s }}"{{ end }}]

[capabilities]
listing = []
{{- if .Auth }}
auth = ["username", "password"]
{{- end }}
`

// ScriptTemplate is a Go text/template for scaffolding a new Lua plugin script.
const ScriptTemplate = `{{ $divider := repeat "-" (plus (max (len .URL) (len .Name) (len .Author) 3) 12) }}{{ $divider }}
-- @name    {{ .Name }}
-- @url     {{ .URL }}
-- @author  {{ .Author }}
-- @license MIT
{{ $divider }}


---@alias comic { id: string, name: string, cover: string|nil, authors: string[]|nil }
---@alias album { id: string, name: string, description: string|nil, chapters: table|nil, tags: string[]|nil }


----- IMPORTS -----
--- END IMPORTS ---



----- VARIABLES -----
local base = "{{ .URL }}"
--- END VARIABLES ---



----- MAIN -----

--- Searches for comics with given query.
-- @param query string Query to search for
-- @param extras string[] Source specific search options
-- @param src string Source id the call is for
-- @return comic[] Table of comics
function {{ .SearchComicsFn }}(query, extras, src)
	return {}
end


--- Gets the full album of a comic.
-- @param id string Identifier of the comic on the source
-- @param src string Source id the call is for
-- @return album Album table
function {{ .ComicAlbumFn }}(id, src)
	return { id = id, name = id }
end
{{ if .Auth }}

--- Logs into the source.
-- @param form table Submitted login fields
-- @param src string Source id the call is for
-- @return table Cookies to keep for the session
function {{ .LoginFn }}(form, src)
	return {}
end
{{ end }}

--- END MAIN ---




----- HELPERS -----
--- END HELPERS ---

-- ex: ts=4 sw=4 et filetype=lua
`
