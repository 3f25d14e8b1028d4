package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/keagan/clipbot/internal/clipper"
	"github.com/keagan/clipbot/internal/timerange"
	"github.com/keagan/clipbot/pkg/util"
)

func (m *Machine) start(ctx context.Context, c *call) (State, error) {
	// re-entry drops the active video so only WaitingForRequests holds a session
	m.clips.Forget(c.msg.ChatID)

	if err := m.reply(ctx, c.msg.ChatID, m.replies.start, nil); err != nil {
		return c.state, err
	}
	return WaitingForURL, nil
}

func (m *Machine) download(ctx context.Context, c *call) (State, error) {
	chatID := c.msg.ChatID
	url := c.msg.URLs[0]

	if err := m.reply(ctx, chatID, m.replies.downloading, nil); err != nil {
		return c.state, err
	}

	result, err := m.clips.RequestDownload(ctx, chatID, url)
	if errors.Is(err, clipper.ErrFetchFailed) {
		c.logger.Warn().Err(err).Str("url", url).Msg("download failed")
		return c.state, m.reply(ctx, chatID, m.replies.downloadFailed, nil)
	}
	if err != nil {
		return c.state, err
	}

	caption, err := render(m.replies.downloaded, map[string]any{
		"duration": util.FormatClock(result.Duration),
		"title":    result.Title,
	})
	if err != nil {
		return c.state, fmt.Errorf("render reply: %w", err)
	}

	// the session exists now, so delivery problems must not keep us in
	// WaitingForURL
	if err := m.announce(ctx, chatID, result.Thumbnail, caption); err != nil {
		c.logger.Warn().Err(err).Msg("failed to announce download")
	}

	return WaitingForRequests, nil
}

func (m *Machine) announce(ctx context.Context, chatID int64, thumb clipper.Thumbnail, caption string) error {
	if thumb.IsZero() {
		return m.sender.SendText(ctx, chatID, caption)
	}
	if err := m.sender.SendPhoto(ctx, chatID, thumb, caption); err != nil {
		m.logger.Debug().Err(err).Msg("photo rejected, falling back to text")
		return m.sender.SendText(ctx, chatID, caption)
	}
	return nil
}

func (m *Machine) invalidURL(ctx context.Context, c *call) (State, error) {
	return c.state, m.reply(ctx, c.msg.ChatID, m.replies.invalidURL, nil)
}

func (m *Machine) trim(ctx context.Context, c *call) (State, error) {
	chatID := c.msg.ChatID

	video, err := m.clips.Session(chatID)
	if err != nil {
		return c.state, err
	}

	ranges, err := m.parser.Parse(c.msg.Text, video.Duration)
	var perr *timerange.ParseError
	if errors.As(err, &perr) {
		c.logger.Debug().Err(err).Str("text", c.msg.Text).Msg("invalid request")
		return c.state, m.reply(ctx, chatID, m.replies.invalidRequest, map[string]any{"error": perr.Error()})
	}
	if err != nil {
		return c.state, err
	}

	if m.parser.Truncated(ranges) {
		c.logger.Warn().Int("segments", len(ranges)).Msg("repeating request truncated")
	}
	if len(ranges) == 0 {
		return c.state, m.reply(ctx, chatID, m.replies.noClips, nil)
	}

	n, err := m.clips.RequestTrim(ctx, chatID, ranges, &uploadSink{m: m, chatID: chatID})
	if err != nil {
		return c.state, err
	}
	if n == 0 {
		return c.state, m.reply(ctx, chatID, m.replies.noClips, nil)
	}

	return c.state, nil
}

func (m *Machine) done(ctx context.Context, c *call) (State, error) {
	if _, ok := m.clips.Release(c.msg.ChatID); !ok {
		c.logger.Warn().Msg("no video to release")
	}
	if err := m.reply(ctx, c.msg.ChatID, m.replies.removed, nil); err != nil {
		c.logger.Warn().Err(err).Msg("failed to confirm removal")
	}
	return WaitingForURL, nil
}

func (m *Machine) list(ctx context.Context, c *call) (State, error) {
	entries, err := m.library.List()
	if err != nil {
		return c.state, fmt.Errorf("list videos: %w", err)
	}

	files := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		files = append(files, map[string]any{
			"name": e.Name,
			"size": e.HumanSize(),
		})
	}

	return c.state, m.reply(ctx, c.msg.ChatID, m.replies.listing, map[string]any{"files": files})
}

func (m *Machine) clean(ctx context.Context, c *call) (State, error) {
	n, err := m.library.Clean()
	if err != nil {
		return c.state, fmt.Errorf("clean videos: %w", err)
	}
	c.logger.Info().Int("removed", n).Msg("videos cleaned")

	return c.state, m.reply(ctx, c.msg.ChatID, m.replies.cleaned, map[string]any{"count": n})
}

func (m *Machine) unknown(ctx context.Context, c *call) (State, error) {
	return c.state, m.reply(ctx, c.msg.ChatID, m.replies.unknown, nil)
}

func (m *Machine) notStarted(ctx context.Context, c *call) (State, error) {
	return c.state, m.reply(ctx, c.msg.ChatID, m.replies.notStarted, nil)
}

// uploadSink sends each finished clip to the chat
type uploadSink struct {
	m      *Machine
	chatID int64
}

func (s *uploadSink) Clip(ctx context.Context, index int, r timerange.Range, path string) error {
	if err := s.m.reply(ctx, s.chatID, s.m.replies.uploading, map[string]any{
		"index": index + 1,
		"start": util.FormatClock(r.Start),
		"end":   util.FormatClock(r.End),
	}); err != nil {
		return err
	}
	return s.m.sender.SendAnimation(ctx, s.chatID, path)
}

func (s *uploadSink) Finished(ctx context.Context, count int) error {
	return s.m.reply(ctx, s.chatID, s.m.replies.finished, map[string]any{"count": count})
}
