package constant

// ResolveEpisodeFn is the global every Lua provider script must define.
const ResolveEpisodeFn = "ResolveEpisode"

// ProviderTemplate scaffolds a new Lua provider for `yato provider new`.
const ProviderTemplate = `{{ $divider := repeat "-" (plus (max (len .Language) (len .Author) 3) 14) }}{{ $divider }}
-- @language {{ .Language }}
-- @author   {{ .Author }}
-- @license  MIT
{{ $divider }}


---@alias request { anilist_id: number, mal_id: number, episode: number, quality: string, track: string, title: string }
---@alias video { url: string, quality: string|nil }


----- IMPORTS -----
--- END IMPORTS ---



----- MAIN -----

--- Resolves playable links for one episode.
-- http_tls.get(url [, headers]) and http_tls.request{ url, method, headers, body, cache } are available.
-- @param req request Episode to resolve
-- @return video[] Candidate links, any order
function {{ .ResolveEpisodeFn }}(req)
	return {}
end

--- END MAIN ---

-- ex: ts=4 sw=4 et filetype=lua
`
