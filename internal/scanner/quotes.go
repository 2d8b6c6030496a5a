package scanner

import (
	"context"
	"fmt"
	"sync"

	"github.com/alejandrodnm/p2pbot/internal/domain"
	"github.com/alejandrodnm/p2pbot/internal/ports"
)

// quotePair consulta los dos lados del par en paralelo.
// Si cualquiera falla el tick completo se descarta.
func quotePair(ctx context.Context, source ports.PriceSource) (buy, sell domain.Quote, err error) {
	var (
		wg      sync.WaitGroup
		buyErr  error
		sellErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		buy, buyErr = source.Quote(ctx, domain.SideBuy)
	}()
	go func() {
		defer wg.Done()
		sell, sellErr = source.Quote(ctx, domain.SideSell)
	}()
	wg.Wait()

	if buyErr != nil {
		return domain.Quote{}, domain.Quote{}, fmt.Errorf("buy quote: %w", buyErr)
	}
	if sellErr != nil {
		return domain.Quote{}, domain.Quote{}, fmt.Errorf("sell quote: %w", sellErr)
	}
	return buy, sell, nil
}
