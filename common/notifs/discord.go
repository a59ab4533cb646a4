package notifs

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/webhook"
	"github.com/disgoorg/snowflake/v2"

	"github.com/livepeer/video-nft-sdk/common"
	"github.com/livepeer/video-nft-sdk/models"
)

type DiscordColor int

const (
	DiscordColor_None  = iota
	DiscordColor_Info  = 3447003
	DiscordColor_Alert = 16711712
)

const DiscordPacing = 2 * time.Second

// DiscordHandler posts gate alerts (e.g. the fatal access-network connect
// failure) to Discord webhooks. Webhooks are optional; an unconfigured
// handler drops alerts silently.
type DiscordHandler struct {
	alertWebhook webhook.Client
	testWebhook  webhook.Client
	logger       models.Logger
}

func NewDiscordHandler(logger models.Logger) (models.Notifier, error) {
	if a, err := parseDiscordWebhookUrl("DISCORD_ALERT_WEBHOOK"); err != nil {
		return nil, err
	} else if t, err := parseDiscordWebhookUrl("DISCORD_TEST_WEBHOOK"); err != nil {
		return nil, err
	} else {
		return &DiscordHandler{a, t, logger}, nil
	}
}

func parseDiscordWebhookUrl(urlEnv string) (webhook.Client, error) {
	webhookUrl := os.Getenv(urlEnv)
	if len(webhookUrl) > 0 {
		if parsedUrl, err := url.Parse(webhookUrl); err != nil {
			return nil, err
		} else {
			urlParts := strings.Split(parsedUrl.Path, "/")
			if id, err := snowflake.Parse(urlParts[len(urlParts)-2]); err != nil {
				return nil, err
			} else {
				return webhook.New(id, urlParts[len(urlParts)-1]), nil
			}
		}
	}
	return nil, nil
}

func (d DiscordHandler) SendAlert(title, desc, content string) error {
	if d.alertWebhook != nil {
		return d.sendNotif(d.alertWebhook, title, desc, content, DiscordColor_Alert)
	}
	// Duplicate notifications to the test channel, if configured.
	if d.testWebhook != nil {
		return d.sendNotif(d.testWebhook, title, desc, content, DiscordColor_Alert)
	}
	return nil
}

func (d DiscordHandler) sendNotif(wh webhook.Client, title, desc, content string, color DiscordColor) error {
	messageEmbed := discord.Embed{
		Title:       title,
		Description: desc,
		Type:        discord.EmbedTypeRich,
		Color:       int(color),
		Fields: []discord.EmbedField{
			{Name: "Detail", Value: content},
		},
	}
	_, err := wh.CreateMessage(discord.NewWebhookMessageCreateBuilder().
		SetEmbeds(messageEmbed).
		SetUsername(common.ServiceName).
		Build(),
		rest.WithDelay(DiscordPacing),
	)
	if err != nil {
		d.logger.Errorf("sendNotif: error sending discord notification: %v, %s, %s", err, title, desc)
		return err
	}
	return nil
}
