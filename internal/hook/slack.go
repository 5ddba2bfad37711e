package hook

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/slack-go/slack"

	"github.com/arturoroa/YelpYarnNew-sub001/internal/model"
)

// SlackHook posts a message to a channel when a session run fails.
type SlackHook struct {
	api             *slack.Client
	notifyChannelID string

	log *slog.Logger
}

func NewSlackHook(channelID, token string, log *slog.Logger) *SlackHook {
	return &SlackHook{
		api:             slack.New(token),
		notifyChannelID: channelID,
		log:             log,
	}
}

func (h *SlackHook) Name() string {
	return "slack"
}

func (h *SlackHook) Init() error {
	_, err := h.api.AuthTest()
	if err != nil {
		return fmt.Errorf("invalid auth token: %w", err)
	}

	return nil
}

func (h *SlackHook) SessionFinishedAsync(session model.TestSession, callback func(context map[string]any)) {
	if session.Status != model.StatusFailed {
		return
	}

	body := strings.Builder{}

	body.WriteString(fmt.Sprintf("Session %s against %q failed: %s", session.ID, session.Business, session.Error))
	body.WriteString("\n\n")
	body.WriteString("Scenarios:\n")

	for _, name := range session.Scenarios {
		results := session.ResultsByScenario(name)
		body.WriteString(fmt.Sprintf("- %s (%d results)\n", name, len(results)))
	}

	section := slack.NewSectionBlock(
		slack.NewTextBlockObject(
			"mrkdwn",
			body.String(),
			false, false,
		),
		nil, nil)

	msg := []slack.MsgOption{
		slack.MsgOptionBlocks(section),
	}

	_, _, err := h.api.PostMessage(h.notifyChannelID, msg...)
	if err != nil {
		h.log.Error("unable to send slack message", "error", err)
	}
}
