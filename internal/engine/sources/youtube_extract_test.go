package sources

import "testing"

func TestVideoIDFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"standard watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"no www", "https://youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"mobile", "https://m.youtube.com/watch?v=dQw4w9WgXcQ&t=30s", "dQw4w9WgXcQ"},
		{"extra params", "https://www.youtube.com/watch?list=PL123&v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"shorts", "https://www.youtube.com/shorts/dQw4w9WgXcQ", ""},
		{"channel page", "https://www.youtube.com/@somechannel", ""},
		{"wrong host", "https://vimeo.com/watch?v=dQw4w9WgXcQ", ""},
		{"malformed id", "https://www.youtube.com/watch?v=short", ""},
		{"missing v", "https://www.youtube.com/watch", ""},
		{"not a url", "::::", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VideoIDFromURL(tt.url); got != tt.want {
				t.Errorf("VideoIDFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestTitleFromHTML(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"with suffix", "<html><head><title>My Video - YouTube</title></head></html>", "My Video"},
		{"no suffix", "<head><title>Raw Title</title></head>", "Raw Title"},
		{"no title", "<html><body>nothing</body></html>", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := titleFromHTML([]byte(tt.html)); got != tt.want {
				t.Errorf("titleFromHTML() = %q, want %q", got, tt.want)
			}
		})
	}
}
