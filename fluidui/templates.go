package fluidui

import "strings"

// templateSpec is the interpreter's knowledge about one template type.
type templateSpec struct {
	component     string
	requiredData  []string
	defaultProps  map[string]interface{}
	validation    map[string]interface{}
	defaultLayout map[string]interface{}

	// normalize is a pure adjustment applied to the merged props.
	normalize func(props map[string]interface{})
}

// builtinTemplates maps each known template type to its spec. This registry
// is the whole of the interpreter's vocabulary: a request naming anything
// else fails closed.
var builtinTemplates = map[TemplateType]templateSpec{
	TemplateSmartTextInput: {
		component:    "SmartTextInput",
		requiredData: []string{"fieldId", "label"},
		defaultProps: map[string]interface{}{
			"multiline": false,
			"required":  true,
		},
		validation:    map[string]interface{}{"maxLength": 500},
		defaultLayout: map[string]interface{}{"width": "full", "priority": "normal"},
		normalize:     normalizeFieldID,
	},
	TemplateDocumentUpload: {
		component:    "DocumentUpload",
		requiredData: []string{"fieldId", "label", "acceptedTypes"},
		defaultProps: map[string]interface{}{
			"maxSizeMB": 25,
			"multiple":  false,
			"required":  true,
		},
		defaultLayout: map[string]interface{}{"width": "full", "priority": "high"},
		normalize:     normalizeFieldID,
	},
	TemplateEntitySelector: {
		component:    "EntitySelector",
		requiredData: []string{"fieldId", "label", "options"},
		defaultProps: map[string]interface{}{
			"searchable": true,
			"required":   true,
		},
		defaultLayout: map[string]interface{}{"width": "full", "priority": "high"},
		normalize:     normalizeFieldID,
	},
	TemplateDatePicker: {
		component:    "DatePicker",
		requiredData: []string{"fieldId", "label"},
		defaultProps: map[string]interface{}{
			"required": true,
		},
		validation:    map[string]interface{}{"format": "YYYY-MM-DD"},
		defaultLayout: map[string]interface{}{"width": "half", "priority": "normal"},
		normalize:     normalizeFieldID,
	},
	TemplateAddressInput: {
		component:    "AddressInput",
		requiredData: []string{"fieldId", "label"},
		defaultProps: map[string]interface{}{
			"country":  "US",
			"required": true,
		},
		defaultLayout: map[string]interface{}{"width": "full", "priority": "normal"},
		normalize:     normalizeFieldID,
	},
	TemplateCurrencyInput: {
		component:    "CurrencyInput",
		requiredData: []string{"fieldId", "label"},
		defaultProps: map[string]interface{}{
			"currency": "USD",
			"required": true,
		},
		validation:    map[string]interface{}{"min": 0},
		defaultLayout: map[string]interface{}{"width": "half", "priority": "normal"},
		normalize:     normalizeFieldID,
	},
	TemplateMultiSelect: {
		component:    "MultiSelect",
		requiredData: []string{"fieldId", "label", "options"},
		defaultProps: map[string]interface{}{
			"required": false,
		},
		defaultLayout: map[string]interface{}{"width": "full", "priority": "normal"},
		normalize:     normalizeFieldID,
	},
	TemplateConfirmationPrompt: {
		component:    "ConfirmationPrompt",
		requiredData: []string{"title", "message"},
		defaultProps: map[string]interface{}{
			"required": true,
		},
		defaultLayout: map[string]interface{}{"width": "full", "priority": "high"},
	},
	TemplateInfoBanner: {
		component:    "InfoBanner",
		requiredData: []string{"message"},
		defaultProps: map[string]interface{}{
			"severity": "info",
			"required": false,
		},
		defaultLayout: map[string]interface{}{"width": "full", "priority": "low"},
	},
	TemplateProgressIndicator: {
		component:    "ProgressIndicator",
		requiredData: []string{"label", "percent"},
		defaultProps: map[string]interface{}{
			"required": false,
		},
		defaultLayout: map[string]interface{}{"width": "full", "priority": "low"},
	},
	TemplateSignatureCapture: {
		component:    "SignatureCapture",
		requiredData: []string{"fieldId", "label", "agreementText"},
		defaultProps: map[string]interface{}{
			"required": true,
		},
		defaultLayout: map[string]interface{}{"width": "full", "priority": "high"},
		normalize:     normalizeFieldID,
	},
	TemplateReviewSummary: {
		component:    "ReviewSummary",
		requiredData: []string{"title", "sections"},
		defaultProps: map[string]interface{}{
			"editable": true,
			"required": true,
		},
		defaultLayout: map[string]interface{}{"width": "full", "priority": "high"},
	},
}

// KnownTemplates returns the template types the interpreter understands.
func KnownTemplates() []TemplateType {
	out := make([]TemplateType, 0, len(builtinTemplates))
	for t := range builtinTemplates {
		out = append(out, t)
	}
	return out
}

// normalizeFieldID canonicalizes the fieldId prop: trimmed, lowercased,
// spaces and dashes become underscores. Pure; same input, same output.
func normalizeFieldID(props map[string]interface{}) {
	raw, ok := props["fieldId"].(string)
	if !ok {
		return
	}
	id := strings.TrimSpace(strings.ToLower(raw))
	id = strings.ReplaceAll(id, " ", "_")
	id = strings.ReplaceAll(id, "-", "_")
	props["fieldId"] = id
}

// normalizeActions canonicalizes action variants. Unrecognized variants
// become secondary rather than leaking through to a renderer.
func normalizeActions(actions []Action) []map[string]interface{} {
	if len(actions) == 0 {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(actions))
	for _, a := range actions {
		variant := a.Variant
		switch variant {
		case VariantPrimary, VariantSecondary, VariantDanger:
		default:
			variant = VariantSecondary
		}
		out = append(out, map[string]interface{}{
			"id":      a.ID,
			"label":   a.Label,
			"variant": variant,
		})
	}
	return out
}
