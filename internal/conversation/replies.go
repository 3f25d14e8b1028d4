package conversation

import (
	"fmt"

	"github.com/cbroglie/mustache"
	"github.com/keagan/clipbot/internal/config"
)

type replies struct {
	start          *mustache.Template
	downloading    *mustache.Template
	downloaded     *mustache.Template
	downloadFailed *mustache.Template
	invalidURL     *mustache.Template
	invalidRequest *mustache.Template
	noClips        *mustache.Template
	uploading      *mustache.Template
	finished       *mustache.Template
	removed        *mustache.Template
	listing        *mustache.Template
	cleaned        *mustache.Template
	unknown        *mustache.Template
	notStarted     *mustache.Template
	failure        *mustache.Template
}

func compileReplies(msgs config.Messages) (*replies, error) {
	msgs = msgs.WithDefaults()

	var firstErr error
	compile := func(name, tpl string) *mustache.Template {
		t, err := mustache.ParseString(tpl)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("message %q: %w", name, err)
		}
		return t
	}

	r := &replies{
		start:          compile("start", msgs.Start),
		downloading:    compile("downloading", msgs.Downloading),
		downloaded:     compile("downloaded", msgs.Downloaded),
		downloadFailed: compile("download_failed", msgs.DownloadFailed),
		invalidURL:     compile("invalid_url", msgs.InvalidURL),
		invalidRequest: compile("invalid_request", msgs.InvalidRequest),
		noClips:        compile("no_clips", msgs.NoClips),
		uploading:      compile("uploading", msgs.Uploading),
		finished:       compile("finished", msgs.Finished),
		removed:        compile("removed", msgs.Removed),
		listing:        compile("listing", msgs.Listing),
		cleaned:        compile("cleaned", msgs.Cleaned),
		unknown:        compile("unknown", msgs.Unknown),
		notStarted:     compile("not_started", msgs.NotStarted),
		failure:        compile("failure", msgs.Failure),
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return r, nil
}

func render(t *mustache.Template, data map[string]any) (string, error) {
	if data == nil {
		return t.Render()
	}
	return t.Render(data)
}
