package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
)

var (
	itemLinePattern = regexp.MustCompile(`^(\d+)(\s*[a-zA-Z]{1,3})?,\s*(.+)$`)
	dayTokenPattern = regexp.MustCompile(`^\d{1,2}$`)
)

// ParseOrderMessage turns raw chat text into a draft order.
//
// Layout: client name on the first line, an optional 1-2 digit delivery day
// on the second, then one "<qty><unit>, <description>[. annotation]" per line.
// Item parsing follows a stop-on-first-mismatch policy: the first line that
// does not match the item grammar ends the item list, and it and every
// following line are returned in Discarded instead of failing the message.
func ParseOrderMessage(text string) (domain.DraftOrder, error) {
	lines := splitLines(text)
	if len(lines) < 2 {
		return domain.DraftOrder{}, domain.WrapError(
			domain.ErrMalformedMessage,
			"parse order message",
			fmt.Errorf("expected at least 2 lines, got %d", len(lines)),
		)
	}

	draft := domain.DraftOrder{
		ClientNameRaw: strings.ToLower(lines[0]),
		Items:         []domain.DraftItem{},
	}

	next := 1
	if dayTokenPattern.MatchString(lines[1]) {
		draft.DayToken = lines[1]
		next = 2
	}

	for i := next; i < len(lines); i++ {
		item, ok := parseItemLine(lines[i])
		if !ok {
			draft.Discarded = append(draft.Discarded, lines[i:]...)
			break
		}
		item.Line = i + 1
		draft.Items = append(draft.Items, item)
	}

	return draft, nil
}

func splitLines(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	raw := strings.Split(text, "\n")
	out := make([]string, len(raw))
	for i, line := range raw {
		out[i] = strings.TrimSpace(line)
	}
	return out
}

func parseItemLine(line string) (domain.DraftItem, bool) {
	match := itemLinePattern.FindStringSubmatch(line)
	if match == nil {
		return domain.DraftItem{}, false
	}

	quantity, err := strconv.Atoi(match[1])
	if err != nil || quantity <= 0 {
		return domain.DraftItem{}, false
	}

	description, annotation := splitAnnotation(match[3])
	return domain.DraftItem{
		Quantity:    quantity,
		Unit:        strings.TrimSpace(match[2]),
		Description: description,
		Annotation:  annotation,
	}, true
}

// splitAnnotation cuts free text at the first period. Later periods stay in
// the annotation.
func splitAnnotation(text string) (string, string) {
	description, annotation, found := strings.Cut(text, ".")
	if !found {
		return strings.TrimSpace(text), ""
	}
	return strings.TrimSpace(description), strings.TrimSpace(annotation)
}
