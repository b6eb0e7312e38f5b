package chat

import (
	"fmt"
	"strings"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
)

// ReplyText renders the one user-facing reply for an outcome. Item-level
// diagnostics stay in the logs; the user only learns how many lines were
// skipped.
func ReplyText(report domain.OutcomeReport) string {
	switch report.Status {
	case domain.OutcomeSuccess:
		text := fmt.Sprintf("Order %d registered for %s, delivery %s, %d line(s).",
			report.HeaderID, report.ClientName, report.DeliveryDate, report.Lines)
		if n := len(report.Unmatched); n > 0 {
			text += fmt.Sprintf(" %d item(s) were not recognised and were left out.", n)
		}
		return text
	case domain.OutcomeClientNotFound:
		return fmt.Sprintf("Client %q was not found. Please check the name on the first line and resend the order.", report.ClientName)
	case domain.OutcomeNoValidArticles:
		return "None of the items could be matched to the catalog. The order was not registered."
	case domain.OutcomeMalformedMessage:
		return "Could not read the order. Send the client name on the first line, optionally the delivery day on the second, then one \"quantity, product\" per line."
	case domain.OutcomePersistenceError:
		if report.Retryable {
			return "The order could not be saved right now. Please resend it in a few minutes."
		}
		return "The order could not be saved. Please contact the office."
	default:
		return "The order could not be processed."
	}
}

func SummaryText(totals []domain.PendingArticleTotal) string {
	if len(totals) == 0 {
		return "No pending orders found."
	}
	var b strings.Builder
	b.WriteString("Pending orders summary:\n")
	for _, total := range totals {
		fmt.Fprintf(&b, "\nProduct: %s\nTotal quantity: %s\n", total.Product, total.TotalQuantity.String())
	}
	return b.String()
}

const summaryErrorText = "Could not read the pending orders summary."
