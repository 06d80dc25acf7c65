package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"liqcalc/internal/models"
)

// prices.go - REST источник котировок
//
// Endpoint: GET {base}/prices?symbols=BTCUSDT,ETHUSDT
// Ответ:    {"prices": {"BTCUSDT": 51000.5, "ETHUSDT": 3100.25}}
//
// Отсутствие символа в ответе или неположительная цена означает
// "нет текущей цены": такой символ просто не попадает в результат,
// решение что с этим делать принимает вызывающая сторона.

// ErrNoPrice - у источника нет текущей цены по символу
var ErrNoPrice = errors.New("no current price for symbol")

// PriceSource получает котировки через REST
type PriceSource struct {
	client *Client
}

// NewPriceSource создаёт источник котировок поверх общего клиента
func NewPriceSource(client *Client) *PriceSource {
	return &PriceSource{client: client}
}

type pricesResponse struct {
	Prices map[string]float64 `json:"prices"`
}

// FetchPrices возвращает котировки по списку символов.
//
// Символы с отсутствующей или неположительной ценой в ответ не входят.
// Пустой список символов - пустой результат без запроса.
func (ps *PriceSource) FetchPrices(ctx context.Context, symbols []string) (map[string]models.Quote, error) {
	if len(symbols) == 0 {
		return map[string]models.Quote{}, nil
	}

	query := url.Values{}
	query.Set("symbols", strings.Join(symbols, ","))

	var resp pricesResponse
	if err := ps.client.getJSON(ctx, "/prices", query, &resp); err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}

	now := time.Now().UTC()
	quotes := make(map[string]models.Quote, len(resp.Prices))
	for symbol, price := range resp.Prices {
		if price <= 0 {
			continue
		}
		quotes[symbol] = models.Quote{
			Symbol:    symbol,
			Price:     price,
			Timestamp: now,
		}
	}

	return quotes, nil
}

// FetchPrice возвращает котировку одного символа.
// ErrNoPrice если источник не знает цену.
func (ps *PriceSource) FetchPrice(ctx context.Context, symbol string) (models.Quote, error) {
	quotes, err := ps.FetchPrices(ctx, []string{symbol})
	if err != nil {
		return models.Quote{}, err
	}

	quote, ok := quotes[symbol]
	if !ok {
		return models.Quote{}, fmt.Errorf("%w: %s", ErrNoPrice, symbol)
	}

	return quote, nil
}
