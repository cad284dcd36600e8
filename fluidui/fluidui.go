package fluidui

// TemplateType identifies a semantic UI template an agent may request.
// Agents describe WHAT they need from a user in these terms; the interpreter
// decides HOW it renders. Unknown types are rejected, never guessed at.
type TemplateType string

const (
	TemplateSmartTextInput     TemplateType = "smart_text_input"
	TemplateDocumentUpload     TemplateType = "document_upload"
	TemplateEntitySelector     TemplateType = "entity_selector"
	TemplateDatePicker         TemplateType = "date_picker"
	TemplateAddressInput       TemplateType = "address_input"
	TemplateCurrencyInput      TemplateType = "currency_input"
	TemplateMultiSelect        TemplateType = "multi_select"
	TemplateConfirmationPrompt TemplateType = "confirmation_prompt"
	TemplateInfoBanner         TemplateType = "info_banner"
	TemplateProgressIndicator  TemplateType = "progress_indicator"
	TemplateSignatureCapture   TemplateType = "signature_capture"
	TemplateReviewSummary      TemplateType = "review_summary"
)

// Action is one user action offered alongside a UI element.
type Action struct {
	// ID identifies the action in the response payload.
	ID string `json:"id"`

	// Label is the user-facing text.
	Label string `json:"label"`

	// Variant is the visual treatment: primary, secondary, or danger.
	// Unrecognized variants normalize to secondary.
	Variant string `json:"variant,omitempty"`
}

// Action variants understood by the interpreter.
const (
	VariantPrimary   = "primary"
	VariantSecondary = "secondary"
	VariantDanger    = "danger"
)

// UIRequest is an agent's semantic description of needed user interaction.
// It carries meaning, not presentation.
type UIRequest struct {
	// RequestID uniquely identifies the request so the user's response can
	// be correlated back to it.
	RequestID string `json:"requestId"`

	// TemplateType names the semantic template being requested.
	TemplateType TemplateType `json:"templateType"`

	// SemanticData carries the template's data fields (labels, options,
	// field identifiers, amounts). Required fields vary per template.
	SemanticData map[string]interface{} `json:"semanticData,omitempty"`

	// Context explains to the user why the input is needed.
	Context map[string]interface{} `json:"context,omitempty"`

	// Actions are the user actions offered with the element.
	Actions []Action `json:"actions,omitempty"`

	// LayoutHints are optional presentation hints (priority, grouping).
	// They override the template's defaults key by key.
	LayoutHints map[string]interface{} `json:"layoutHints,omitempty"`
}

// InterpretedUIElement is a concrete renderable element produced from a
// UIRequest. It is deterministic: the same request always yields the same
// element.
type InterpretedUIElement struct {
	// ID is the originating request ID.
	ID string `json:"id"`

	// Component is the concrete component name to render.
	Component string `json:"component"`

	// Props are the merged component properties.
	Props map[string]interface{} `json:"props,omitempty"`

	// Validation carries input validation rules, when the template has any.
	Validation map[string]interface{} `json:"validation,omitempty"`

	// Layout is the merged layout: template defaults overridden by the
	// request's hints.
	Layout map[string]interface{} `json:"layout,omitempty"`

	// Metadata carries interpreter bookkeeping (template type, ordering).
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
