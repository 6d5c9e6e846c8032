package ai

import (
	"github.com/fairyhunter13/ai-ethics-evaluator/pkg/textx"
)

// refusalIndicators are the reply fragments that trigger a single re-ask
// with the alternate ethics-assessment prompt.
var refusalIndicators = []string{"i'm sorry", "can't assist"}

// IsRefusal reports whether a provider reply declines to answer.
func IsRefusal(reply string) bool {
	return textx.ContainsAnyFold(reply, refusalIndicators...)
}
