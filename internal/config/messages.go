package config

// Messages are the bot replies. Values are mustache templates; variables
// are HTML-escaped when rendered.
type Messages struct {
	Start          string `yaml:"start" toml:"start"`
	Downloading    string `yaml:"downloading" toml:"downloading"`
	Downloaded     string `yaml:"downloaded" toml:"downloaded"`
	DownloadFailed string `yaml:"download_failed" toml:"download_failed"`
	InvalidURL     string `yaml:"invalid_url" toml:"invalid_url"`
	InvalidRequest string `yaml:"invalid_request" toml:"invalid_request"`
	NoClips        string `yaml:"no_clips" toml:"no_clips"`
	Uploading      string `yaml:"uploading" toml:"uploading"`
	Finished       string `yaml:"finished" toml:"finished"`
	Removed        string `yaml:"removed" toml:"removed"`
	Listing        string `yaml:"listing" toml:"listing"`
	Cleaned        string `yaml:"cleaned" toml:"cleaned"`
	Unknown        string `yaml:"unknown" toml:"unknown"`
	NotStarted     string `yaml:"not_started" toml:"not_started"`
	Failure        string `yaml:"failure" toml:"failure"`
}

// DefaultMessages returns the stock replies
func DefaultMessages() Messages {
	return Messages{
		Start:          "👀 Send me the URL for the video.",
		Downloading:    "📥 Downloading...",
		Downloaded:     "📟 Got it! Now, send me a request.\nVideo Duration: {{duration}}",
		DownloadFailed: "💀 Download failed. Try another URL.",
		InvalidURL:     "❌ Invalid URL!",
		InvalidRequest: "❌ Invalid request: {{error}}",
		NoClips:        "🤷 The video is too short for that request.",
		Uploading:      "📤 Uploading...",
		Finished:       "✅ That's about it.",
		Removed:        "👀 Removed. Send a new link.",
		Listing:        "☑ Folder's Contents:{{#files}}\n- <code>{{name}}</code> ({{size}}){{/files}}",
		Cleaned:        "☑ All gone!",
		Unknown:        "❌ Unknown command!",
		NotStarted:     "❌ Start the bot first!",
		Failure:        "❌ Something went wrong.",
	}
}

// WithDefaults fills empty templates from DefaultMessages
func (m Messages) WithDefaults() Messages {
	d := DefaultMessages()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&m.Start, d.Start)
	fill(&m.Downloading, d.Downloading)
	fill(&m.Downloaded, d.Downloaded)
	fill(&m.DownloadFailed, d.DownloadFailed)
	fill(&m.InvalidURL, d.InvalidURL)
	fill(&m.InvalidRequest, d.InvalidRequest)
	fill(&m.NoClips, d.NoClips)
	fill(&m.Uploading, d.Uploading)
	fill(&m.Finished, d.Finished)
	fill(&m.Removed, d.Removed)
	fill(&m.Listing, d.Listing)
	fill(&m.Cleaned, d.Cleaned)
	fill(&m.Unknown, d.Unknown)
	fill(&m.NotStarted, d.NotStarted)
	fill(&m.Failure, d.Failure)
	return m
}
