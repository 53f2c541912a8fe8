package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"cerium.app/cerium/common/logger"
	"cerium.app/cerium/core/config"
)

// The bot listens in Socket Mode for app mentions and echoes how many thread
// messages it saw. Ingestion of those messages goes through the extraction
// service, not through this process.

const threadReplyLimit = 200

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeBot)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Setup(cfg)

	api := slack.New(
		cfg.Slack.BotToken,
		slack.OptionAppLevelToken(cfg.Slack.AppToken),
	)
	client := socketmode.New(api)

	go func() {
		for envelope := range client.Events {
			switch envelope.Type {
			case socketmode.EventTypeConnected:
				slog.InfoContext(ctx, "bot connected to slack")
			case socketmode.EventTypeEventsAPI:
				event, ok := envelope.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				client.Ack(*envelope.Request)
				handleEvent(ctx, api, event)
			}
		}
	}()

	slog.InfoContext(ctx, "cerium bot starting", "env", cfg.Env)
	if err := client.RunContext(ctx); err != nil {
		slog.ErrorContext(ctx, "bot stopped", "error", err)
		os.Exit(1)
	}
}

func handleEvent(ctx context.Context, api *slack.Client, event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}

	mention, ok := event.InnerEvent.Data.(*slackevents.AppMentionEvent)
	if !ok {
		return
	}

	rootTS := mention.ThreadTimeStamp
	if rootTS == "" {
		rootTS = mention.TimeStamp
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Channel:   logger.Ptr(mention.Channel),
		Component: "cerium.bot",
	})

	messages, _, _, err := api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: mention.Channel,
		Timestamp: rootTS,
		Limit:     threadReplyLimit,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch thread replies", "error", err)
		return
	}

	reply := fmt.Sprintf("✅ Saved %d messages from this thread!", len(messages))
	_, _, err = api.PostMessageContext(ctx, mention.Channel,
		slack.MsgOptionText(reply, false),
		slack.MsgOptionTS(rootTS),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to post reply", "error", err)
	}
}
