package p2p

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/p2pbot/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	defaultBase = "https://p2p.binance.com"
	searchPath  = "/bapi/c2c/v2/friendly/c2c/adv/search"

	// El endpoint público no documenta límites; 2 req/s con ráfaga 4 cubre
	// un tick (BUY + SELL) más un par de checks manuales.
	searchRatePerSec = 2
	searchBurst      = 4

	defaultTimeout = 10 * time.Second
	defaultRows    = 5
)

// Options configura el par consultado.
type Options struct {
	BaseURL string
	Asset   string // USDT
	Fiat    string // AZN
	Rows    int    // tamaño de página pedido al endpoint
	Timeout time.Duration
}

// Client consulta el top-of-book de anuncios P2P de Binance. Implementa ports.PriceSource.
type Client struct {
	http    *http.Client
	base    string
	asset   string
	fiat    string
	rows    int
	limiter *rate.Limiter
}

// NewClient crea un Client. Los campos vacíos de opts toman los valores por defecto.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBase
	}
	if opts.Asset == "" {
		opts.Asset = "USDT"
	}
	if opts.Fiat == "" {
		opts.Fiat = "AZN"
	}
	if opts.Rows <= 0 {
		opts.Rows = defaultRows
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		base:    opts.BaseURL,
		asset:   opts.Asset,
		fiat:    opts.Fiat,
		rows:    opts.Rows,
		limiter: rate.NewLimiter(searchRatePerSec, searchBurst),
	}
}

// Quote devuelve el precio del primer anuncio para side.
// No reintenta: el siguiente tick del scanner es el reintento.
func (c *Client) Quote(ctx context.Context, side domain.Side) (domain.Quote, error) {
	req := searchRequest{
		Page:      1,
		Rows:      c.rows,
		PayTypes:  []string{},
		Asset:     c.asset,
		Fiat:      c.fiat,
		TradeType: side.String(),
	}

	var resp searchResponse
	if err := c.post(ctx, c.base+searchPath, req, &resp); err != nil {
		return domain.Quote{}, fmt.Errorf("p2p.Quote %s: %w: %w", side, domain.ErrSourceUnavailable, err)
	}

	if len(resp.Data) == 0 {
		return domain.Quote{}, fmt.Errorf("p2p.Quote %s: %w: no listings", side, domain.ErrSourceUnavailable)
	}

	price, err := decimal.NewFromString(resp.Data[0].Adv.Price)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("p2p.Quote %s: %w: price %q: %w", side, domain.ErrSourceUnavailable, resp.Data[0].Adv.Price, err)
	}

	slog.Debug("p2p quote",
		"side", side,
		"price", price,
		"listings", len(resp.Data),
		"asset", c.asset,
		"fiat", c.fiat,
	)
	return domain.Quote{Side: side, Price: price}, nil
}

// post hace un POST JSON respetando el rate limiter.
func (c *Client) post(ctx context.Context, url string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
