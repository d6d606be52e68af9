package utils

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// RenderInvoicePDF charge la page facture du front et l'imprime en PDF.
// frontendURL ressemble à: https://shop.example/factuur
func RenderInvoicePDF(frontendURL, orderNumber string) ([]byte, error) {
	q := url.Values{}
	q.Set("order", orderNumber)
	fullURL := fmt.Sprintf("%s/factuur?%s", frontendURL, q.Encode())

	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	// timeout pour éviter de bloquer le goroutine d'envoi
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pdfBuf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate(fullURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuf, nil
}
