package sources

// YouTube implementation is split across five files by responsibility:
//   youtube_innertube.go — Innertube API types, constants, rate limiting, and
//                          low-level HTTP primitives
//   youtube_player.go    — three-tier player data resolution (in-page state,
//                          watch page scrape, Innertube /player)
//   youtube_captions.go  — caption track selection, timedtext fetching, and
//                          the json3/srv1/srv3 decoders
//   youtube_chapters.go  — chapter markers (structured + description
//                          timestamps) and transcript segmentation
//   youtube_extract.go   — the extraction coordinator tying it all together
