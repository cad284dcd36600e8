package fluidui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gianmatteo-arcana/engine-lever-sub006/errors"
)

// Interpreter converts semantic UIRequests into concrete renderable
// elements. Interpretation is deterministic and fails closed: an unknown
// template or missing data yields an error, never a guessed element.
type Interpreter struct {
	templates map[TemplateType]templateSpec
}

// NewInterpreter creates an interpreter with the built-in template registry.
func NewInterpreter() *Interpreter {
	return &Interpreter{templates: builtinTemplates}
}

// Validate checks a request without building an element. An unknown
// template type or missing required data fields produce an error that
// names every problem at once.
func (i *Interpreter) Validate(req UIRequest) error {
	if req.RequestID == "" {
		return errors.Interpretation("ui request missing requestId")
	}

	spec, ok := i.templates[req.TemplateType]
	if !ok {
		return errors.New(errors.ErrCodeUnknownTemplate,
			fmt.Sprintf("unknown template type %q", req.TemplateType),
			errors.WithMetadata("requestId", req.RequestID))
	}

	var missing []string
	for _, field := range spec.requiredData {
		if _, ok := req.SemanticData[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return errors.Interpretation(
			fmt.Sprintf("template %q missing required data: %s",
				req.TemplateType, strings.Join(missing, ", ")),
			errors.WithMetadata("requestId", req.RequestID),
			errors.WithMetadata("missingFields", strings.Join(missing, ",")))
	}
	return nil
}

// Interpret converts one request into a renderable element.
func (i *Interpreter) Interpret(req UIRequest) (*InterpretedUIElement, error) {
	if err := i.Validate(req); err != nil {
		return nil, err
	}
	spec := i.templates[req.TemplateType]

	props := mergeMaps(spec.defaultProps, req.SemanticData)
	props["requestId"] = req.RequestID
	if len(req.Context) > 0 {
		props["context"] = mergeMaps(nil, req.Context)
	}
	if actions := normalizeActions(req.Actions); actions != nil {
		props["actions"] = actions
	}
	if spec.normalize != nil {
		spec.normalize(props)
	}

	return &InterpretedUIElement{
		ID:         req.RequestID,
		Component:  spec.component,
		Props:      props,
		Validation: mergeMaps(spec.validation, nil),
		Layout:     mergeMaps(spec.defaultLayout, req.LayoutHints),
		Metadata: map[string]interface{}{
			"templateType": string(req.TemplateType),
			"requestId":    req.RequestID,
		},
	}, nil
}

// InterpretBatch interprets a set of requests. Any failure fails the whole
// batch; the returned error reports every failing request.
func (i *Interpreter) InterpretBatch(reqs []UIRequest) ([]InterpretedUIElement, error) {
	elements := make([]InterpretedUIElement, 0, len(reqs))
	var errs []error
	for _, req := range reqs {
		element, err := i.Interpret(req)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		elements = append(elements, *element)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return elements, nil
}

// OrderElements sorts elements for progressive disclosure: required
// elements before optional ones, higher layout priority first. The sort is
// stable so elements of equal weight keep their request order.
func OrderElements(elements []InterpretedUIElement) []InterpretedUIElement {
	out := make([]InterpretedUIElement, len(elements))
	copy(out, elements)
	sort.SliceStable(out, func(a, b int) bool {
		return elementWeight(out[a]) < elementWeight(out[b])
	})
	return out
}

// elementWeight ranks an element: lower sorts earlier.
func elementWeight(e InterpretedUIElement) int {
	weight := 10
	switch e.Layout["priority"] {
	case "high":
		weight = 0
	case "normal":
		weight = 10
	case "low":
		weight = 20
	}
	if required, _ := e.Props["required"].(bool); !required {
		weight += 5
	}
	return weight
}

// mergeMaps builds a new map with base keys overridden by overlay keys.
// Neither input is mutated.
func mergeMaps(base, overlay map[string]interface{}) map[string]interface{} {
	if len(base) == 0 && len(overlay) == 0 {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
