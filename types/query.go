package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

type SessionParams struct {
	ClientID string `json:"client_id" validate:"omitempty,max=128"`
}

type MessageParams struct {
	Message string `json:"message" validate:"max=8000"`
}

type LanguageParams struct {
	Language string `json:"language" validate:"required,bcp47_language_tag"`
}

type TransitionParams struct {
	Phase string `json:"phase" validate:"required,oneof=width border"`
}

// IntentParams is a UI element's request to the session controller.
type IntentParams struct {
	Action      string `json:"action" validate:"required,oneof=activate highlight open footnote"`
	SourceIndex *int   `json:"source_index" validate:"omitempty,min=0"`
	MessageID   int    `json:"message_id" validate:"omitempty,min=1"`
	Number      int    `json:"number" validate:"omitempty,min=1"`
	URI         string `json:"uri"`
}

var validate = validator.New()

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func validateStruct(v any) map[string]string {
	if err := validate.Struct(v); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return map[string]string{"_": err.Error()}
		}
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

func (params *SessionParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *MessageParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *LanguageParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *TransitionParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *IntentParams) Validate() map[string]string {
	errs := validateStruct(params)
	if params.Action == "activate" || params.Action == "highlight" || params.Action == "open" {
		if params.SourceIndex == nil {
			if errs == nil {
				errs = make(map[string]string)
			}
			errs["SourceIndex"] = "failed on 'required' tag"
		}
	}
	return errs
}
