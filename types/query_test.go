package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntentParamsValidate(t *testing.T) {
	zero := 0
	assert.Empty(t, Validate(&IntentParams{Action: "activate", SourceIndex: &zero}))
	assert.Empty(t, Validate(&IntentParams{Action: "footnote", MessageID: 2, Number: 1}))

	errs := Validate(&IntentParams{Action: "open"})
	assert.Contains(t, errs, "SourceIndex")

	errs = Validate(&IntentParams{Action: "dance"})
	assert.Contains(t, errs, "Action")
}

func TestParamsValidate(t *testing.T) {
	assert.Empty(t, Validate(&TransitionParams{Phase: "width"}))
	assert.Contains(t, Validate(&TransitionParams{Phase: "height"}), "Phase")

	assert.Empty(t, Validate(&LanguageParams{Language: "pt-BR"}))
	assert.Contains(t, Validate(&LanguageParams{}), "Language")

	assert.Empty(t, Validate(&SessionParams{}))
}
