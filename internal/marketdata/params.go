package marketdata

import (
	"context"
	"fmt"

	"liqcalc/internal/models"
)

// params.go - REST источник параметров ликвидности
//
// Endpoint: GET {base}/pairs/params
// Ответ:    {"params": [{...}, {...}]} - по записи на pair index
//
// Опциональные множители и капы в ответе могут отсутствовать:
// модель спреда подставит дефолты сама, здесь поля остаются nil.

// ParamsSource получает параметры ликвидности через REST
type ParamsSource struct {
	client *Client
}

// NewParamsSource создаёт источник параметров поверх общего клиента
func NewParamsSource(client *Client) *ParamsSource {
	return &ParamsSource{client: client}
}

type paramsResponse struct {
	Params []models.MarketLiquidityParams `json:"params"`
}

// FetchParams возвращает снимок параметров ликвидности по pair index.
//
// Записи с отрицательным pair index отбрасываются; дубликат pair index
// перетирает предыдущую запись (последняя выигрывает).
func (ps *ParamsSource) FetchParams(ctx context.Context) (map[int]models.MarketLiquidityParams, error) {
	var resp paramsResponse
	if err := ps.client.getJSON(ctx, "/pairs/params", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch liquidity params: %w", err)
	}

	snapshot := make(map[int]models.MarketLiquidityParams, len(resp.Params))
	for _, p := range resp.Params {
		if p.PairIndex < 0 {
			continue
		}
		snapshot[p.PairIndex] = p
	}

	return snapshot, nil
}
