// Package notice turns failures into the messages shown to the user
package notice

import (
	"time"

	"github.com/ppiankov/enquete/internal/llm"
)

// Kind classifies a failure for display
type Kind int

const (
	KindTechnical Kind = iota
	KindQuota
)

func (k Kind) String() string {
	if k == KindQuota {
		return "quota"
	}
	return "technical"
}

const (
	QuotaMessage     = "Quota API dépassé. L'intelligence artificielle est temporairement indisponible (limite de requêtes gratuites atteinte). Veuillez patienter quelques minutes."
	TechnicalMessage = "Une erreur technique est survenue lors de la communication avec l'IA."
)

// DismissAfter is how long a notice stays visible
const DismissAfter = 8 * time.Second

// Notice is a transient user-facing error
type Notice struct {
	Kind      Kind
	Message   string
	ExpiresAt time.Time
}

// Classify reports whether err is a quota failure
func Classify(err error) Kind {
	if llm.IsQuotaError(err) {
		return KindQuota
	}
	return KindTechnical
}

// Message returns the user-facing text for kind
func Message(kind Kind) string {
	if kind == KindQuota {
		return QuotaMessage
	}
	return TechnicalMessage
}

// New builds the notice for err, shown from now
func New(err error, now time.Time) Notice {
	kind := Classify(err)
	return Notice{
		Kind:      kind,
		Message:   Message(kind),
		ExpiresAt: now.Add(DismissAfter),
	}
}

// Expired reports whether the notice should be hidden at now
func (n Notice) Expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}
