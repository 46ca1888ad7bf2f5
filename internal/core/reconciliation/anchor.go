package reconciliation

import (
	"fmt"
	"strings"
	"time"

	"reconciliation-service/internal/domain"
)

// AgeAnchor names the order timestamp the age in days is counted from.
type AgeAnchor string

const (
	AnchorCollectedAt          AgeAnchor = "collected_at"
	AnchorCollectionRequiredAt AgeAnchor = "collection_required_at"
	AnchorOrderDate            AgeAnchor = "order_date"
)

// ParseAgeAnchor valida o valor vindo da configuração. Vazio vira collected_at.
func ParseAgeAnchor(s string) (AgeAnchor, error) {
	switch a := AgeAnchor(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return AnchorCollectedAt, nil
	case AnchorCollectedAt, AnchorCollectionRequiredAt, AnchorOrderDate:
		return a, nil
	default:
		return "", fmt.Errorf("âncora de idade desconhecida: %q", s)
	}
}

// Of devolve o instante de referência do item, ou nil.
func (a AgeAnchor) Of(o domain.OrderLineItem) *time.Time {
	switch a {
	case AnchorCollectionRequiredAt:
		return o.CollectionRequiredAt
	case AnchorOrderDate:
		return o.OrderDate
	default:
		return o.CollectedAt
	}
}
