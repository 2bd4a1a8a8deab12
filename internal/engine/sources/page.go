package sources

// PageSnapshot is the page-captured state a browser client sends alongside a
// tool call. Every field except URL is optional; missing fields push the
// resolver down its fallback tiers.
type PageSnapshot struct {
	// URL is the tab's current location. Extraction refuses anything that is
	// not a YouTube watch page.
	URL string `json:"url"`

	// PlayerResponseJSON is the raw ytInitialPlayerResponse JSON captured
	// from the page's global scope.
	PlayerResponseJSON string `json:"playerResponse,omitempty"`

	// RawPlayerResponseJSON is the legacy ytplayer.config.args.raw_player_response
	// blob, consulted when PlayerResponseJSON is absent or stale.
	RawPlayerResponseJSON string `json:"rawPlayerResponse,omitempty"`

	// InitialDataJSON is the raw ytInitialData JSON, the source of structured
	// chapter markers.
	InitialDataJSON string `json:"initialData,omitempty"`

	// WatchHTML is the full watch page HTML, when the client already has it.
	// Saves the server-side refetch in tier 2.
	WatchHTML string `json:"watchHtml,omitempty"`

	// DescriptionHTML is the expanded description panel, used for timestamp
	// chapter parsing when the player bar carries no markers.
	DescriptionHTML string `json:"descriptionHtml,omitempty"`
}
