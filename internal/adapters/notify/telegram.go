package notify

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/alejandrodnm/p2pbot/internal/domain"
	"github.com/alejandrodnm/p2pbot/internal/ports"
	tb "gopkg.in/tucnak/telebot.v2"
)

// Datos de callback de los botones inline.
const (
	dataMainMenu       = "main_menu"
	dataSettings       = "settings"
	dataStatsPrefix    = "stats_"
	dataAllTrades      = "all_trades"
	dataCheck          = "check"
	dataToggle         = "toggle"
	dataChangeInterval = "change_interval"
	dataChangeYield    = "change_yield"
	dataBoughtPrefix   = "bought_"
	dataDeclinePrefix  = "not_bought_"
)

// Handler es la superficie de comandos que expone el servicio del operador.
type Handler interface {
	Start(ctx context.Context, op int64) domain.Reply
	MainMenu(ctx context.Context) domain.Reply
	Settings(ctx context.Context) domain.Reply
	Toggle(ctx context.Context) domain.Reply
	CheckNow(ctx context.Context) domain.Reply
	Stats(ctx context.Context, period domain.Period) domain.Reply
	AllTrades(ctx context.Context) domain.Reply
	BeginChangeInterval(ctx context.Context) domain.Reply
	BeginChangeYield(ctx context.Context) domain.Reply
	Confirm(ctx context.Context, op int64, id string) domain.Reply
	Decline(ctx context.Context, op int64, id string) domain.Reply
	Text(ctx context.Context, op int64, text string) domain.Reply
}

// TelegramOptions configura el bot.
type TelegramOptions struct {
	Token        string
	AllowedUsers []int64 // vacío = cualquiera puede usar el bot
	PollTimeout  time.Duration
}

// Telegram implementa ports.Channel sobre la Bot API.
type Telegram struct {
	client *tb.Bot
}

var _ ports.Channel = (*Telegram)(nil)

// NewTelegram crea el cliente. No empieza a recibir updates hasta Run.
func NewTelegram(opts TelegramOptions) (*Telegram, error) {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 10 * time.Second
	}
	poller := &tb.LongPoller{Timeout: opts.PollTimeout}

	client, err := tb.NewBot(tb.Settings{
		Token:  opts.Token,
		Poller: authMiddleware(poller, opts.AllowedUsers),
	})
	if err != nil {
		return nil, fmt.Errorf("notify.NewTelegram: %w", err)
	}
	return &Telegram{client: client}, nil
}

// authMiddleware descarta updates de usuarios fuera de la lista.
func authMiddleware(poller tb.Poller, allowed []int64) tb.Poller {
	if len(allowed) == 0 {
		return poller
	}
	return tb.NewMiddlewarePoller(poller, func(u *tb.Update) bool {
		id, ok := updateSender(u)
		if !ok {
			return false
		}
		if slices.Contains(allowed, id) {
			return true
		}
		slog.Warn("telegram: unauthorized user", "user", id)
		return false
	})
}

func updateSender(u *tb.Update) (int64, bool) {
	switch {
	case u.Message != nil && u.Message.Sender != nil:
		return u.Message.Sender.ID, true
	case u.Callback != nil && u.Callback.Sender != nil:
		return u.Callback.Sender.ID, true
	}
	return 0, false
}

// Run registra los handlers y atiende updates hasta que ctx se cancele.
func (t *Telegram) Run(ctx context.Context, h Handler) {
	t.client.Handle("/start", func(m *tb.Message) {
		t.reply(m, h.Start(ctx, m.Chat.ID))
	})
	t.client.Handle(tb.OnText, func(m *tb.Message) {
		if strings.HasPrefix(m.Text, "/") {
			return
		}
		t.reply(m, h.Text(ctx, m.Chat.ID, m.Text))
	})
	t.client.Handle(tb.OnCallback, func(c *tb.Callback) {
		if err := t.client.Respond(c); err != nil {
			slog.Warn("telegram: callback answer failed", "err", err)
		}
		reply, ok := Route(ctx, h, callbackChat(c), c.Data)
		if !ok {
			slog.Warn("telegram: unknown callback", "data", c.Data)
			return
		}
		t.edit(c, reply)
	})

	slog.Info("telegram bot started", "user", t.client.Me.Username)
	go t.client.Start()
	<-ctx.Done()
	t.client.Stop()
	slog.Info("telegram bot stopped")
}

// Deliver envía una respuesta o alerta a un chat.
func (t *Telegram) Deliver(_ context.Context, operatorID int64, reply domain.Reply) error {
	if reply.Text == "" {
		return nil
	}
	if _, err := t.client.Send(&tb.Chat{ID: operatorID}, reply.Text, sendOptions(reply)...); err != nil {
		return fmt.Errorf("notify.Telegram.Deliver: %w", err)
	}
	return nil
}

func (t *Telegram) reply(m *tb.Message, reply domain.Reply) {
	if reply.Text == "" {
		return
	}
	if _, err := t.client.Send(m.Chat, reply.Text, sendOptions(reply)...); err != nil {
		slog.Warn("telegram: send failed", "chat", m.Chat.ID, "err", err)
	}
}

// edit reemplaza el mensaje del botón presionado.
func (t *Telegram) edit(c *tb.Callback, reply domain.Reply) {
	if reply.Text == "" || c.Message == nil {
		return
	}
	if _, err := t.client.Edit(c.Message, reply.Text, sendOptions(reply)...); err != nil {
		slog.Warn("telegram: edit failed", "err", err)
	}
}

func sendOptions(reply domain.Reply) []interface{} {
	if m := Markup(reply); m != nil {
		return []interface{}{m}
	}
	return nil
}

// callbackChat devuelve el chat del mensaje con el botón, o el usuario si no hay mensaje.
func callbackChat(c *tb.Callback) int64 {
	if c.Message != nil && c.Message.Chat != nil {
		return c.Message.Chat.ID
	}
	if c.Sender != nil {
		return c.Sender.ID
	}
	return 0
}

// Route despacha los datos de un botón inline al handler. op es el chat que presionó el botón.
func Route(ctx context.Context, h Handler, op int64, data string) (domain.Reply, bool) {
	switch {
	case data == dataMainMenu:
		return h.MainMenu(ctx), true
	case data == dataSettings:
		return h.Settings(ctx), true
	case data == dataAllTrades:
		return h.AllTrades(ctx), true
	case data == dataCheck:
		return h.CheckNow(ctx), true
	case data == dataToggle:
		return h.Toggle(ctx), true
	case data == dataChangeInterval:
		return h.BeginChangeInterval(ctx), true
	case data == dataChangeYield:
		return h.BeginChangeYield(ctx), true
	case strings.HasPrefix(data, dataStatsPrefix):
		period, ok := domain.ParsePeriod(strings.TrimPrefix(data, dataStatsPrefix))
		if !ok {
			period = domain.PeriodDaily
		}
		return h.Stats(ctx, period), true
	case strings.HasPrefix(data, dataDeclinePrefix):
		return h.Decline(ctx, op, strings.TrimPrefix(data, dataDeclinePrefix)), true
	case strings.HasPrefix(data, dataBoughtPrefix):
		return h.Confirm(ctx, op, strings.TrimPrefix(data, dataBoughtPrefix)), true
	}
	return domain.Reply{}, false
}

// Markup arma el teclado inline de la respuesta. nil si no lleva botones.
func Markup(reply domain.Reply) *tb.ReplyMarkup {
	var rows [][]tb.InlineButton
	switch reply.Menu {
	case domain.MenuMain:
		rows = [][]tb.InlineButton{
			{button("📊 Daily Stats", dataStatsPrefix+"daily"), button("📈 Weekly Stats", dataStatsPrefix+"weekly")},
			{button("📅 Monthly Stats", dataStatsPrefix+"monthly"), button("📋 All Trades", dataAllTrades)},
			{button("✅ Check Now", dataCheck), button("⚙️ Settings", dataSettings)},
			{button("🔁 Toggle Scanning", dataToggle)},
		}
	case domain.MenuSettings:
		rows = [][]tb.InlineButton{
			{button("⏱ Change Interval", dataChangeInterval), button("🎯 Change Yield", dataChangeYield)},
			{button("🔙 Back to Main", dataMainMenu)},
		}
	case domain.MenuDecision:
		if reply.Opportunity == nil {
			return nil
		}
		id := reply.Opportunity.ID
		rows = [][]tb.InlineButton{
			{button("✅ Bought", dataBoughtPrefix+id), button("❌ Didn't Buy", dataDeclinePrefix+id)},
			{button("🔙 Back to Main", dataMainMenu)},
		}
	default:
		return nil
	}
	return &tb.ReplyMarkup{InlineKeyboard: rows}
}

func button(text, data string) tb.InlineButton {
	return tb.InlineButton{Text: text, Data: data}
}
