package utils

import (
	"bytes"
	"fmt"
	"log"

	"github.com/wneessen/go-mail"

	"wasgeurtje_backend/internal/config"
	"wasgeurtje_backend/internal/models"
	"wasgeurtje_backend/internal/woocommerce"
)

// newConfirmationMsg assemble le message de confirmation, facture PDF en
// pièce jointe si fournie
func newConfirmationMsg(from, to, subject, htmlBody string, pdfAttachment []byte) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if err := msg.From(from); err != nil {
		return nil, err
	}
	if err := msg.To(to); err != nil {
		return nil, err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if pdfAttachment != nil {
		if err := msg.AttachReader("factuur.pdf", bytes.NewReader(pdfAttachment)); err != nil {
			return nil, fmt.Errorf("pièce jointe factuur.pdf: %w", err)
		}
	}
	return msg, nil
}

// SendOrderConfirmation envoie l'e-mail de confirmation
func SendOrderConfirmation(cfg *config.Config, to, subject, htmlBody string, pdfAttachment []byte) error {
	msg, err := newConfirmationMsg(cfg.MailFrom, to, subject, htmlBody, pdfAttachment)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(cfg.SMTPUsername),
		mail.WithPassword(cfg.SMTPPassword),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail de confirmation à", to)
	return client.DialAndSend(msg)
}

// BuildOrderConfirmationHTML génère le corps HTML (en néerlandais) de la
// confirmation de commande
func BuildOrderConfirmationHTML(order *woocommerce.Order, customer models.Customer, totals models.OrderTotals) string {
	rows := ""
	addRow := func(label string, amount float64, negative bool) {
		sign := ""
		if negative {
			sign = "-"
		}
		rows += fmt.Sprintf(`
			<tr>
				<td style="padding:4px 0;">%s</td>
				<td style="padding:4px 0;text-align:right;">%s&euro;%.2f</td>
			</tr>`, label, sign, amount)
	}

	addRow("Subtotaal", totals.Subtotal, false)
	if totals.DiscountAmount > 0 {
		addRow("Korting", totals.DiscountAmount, true)
	}
	if totals.VolumeDiscount > 0 {
		addRow("Volumekorting", totals.VolumeDiscount, true)
	}
	if totals.BundleDiscount > 0 {
		addRow("Bundelkorting", totals.BundleDiscount, true)
	}
	if totals.ShippingCost > 0 {
		addRow("Verzendkosten", totals.ShippingCost, false)
	} else {
		rows += `
			<tr>
				<td style="padding:4px 0;">Verzending</td>
				<td style="padding:4px 0;text-align:right;">Gratis</td>
			</tr>`
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="nl">
<head><meta charset="UTF-8"><title>Orderbevestiging</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Bedankt voor je bestelling, %s!</h2>
		<p>Je bestelling <strong>#%s</strong> is ontvangen en wordt verwerkt.</p>
		<table style="width:100%%;border-top:1px solid #eee;margin-top:12px;">%s
			<tr>
				<td style="padding:8px 0;border-top:1px solid #eee;"><strong>Totaal</strong></td>
				<td style="padding:8px 0;border-top:1px solid #eee;text-align:right;"><strong>&euro;%.2f</strong></td>
			</tr>
		</table>
		<p style="color:#888;font-size:12px;margin-top:16px;">
			Je ontvangt een verzendbevestiging zodra je pakket onderweg is.
		</p>
	</div>
</body>
</html>`, customer.FirstName, order.Number, rows, totals.FinalTotal)
}
