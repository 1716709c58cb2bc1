// internal/picker/script.go
package picker

import (
	_ "embed"
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
)

// BindingPlaceholder is replaced in the page script with the quoted binding name.
const BindingPlaceholder = "/*{{BINDING}}*/"

// BindingName is the window function the page calls to report events.
const BindingName = "__browserctlPickEvent"

// globalName is the page marker that makes installation idempotent.
const globalName = "__browserctlPick"

//go:embed picker.js
var pickerTemplate string

// BuildScript injects the binding name into template.
func BuildScript(template, binding string) (string, error) {
	if template == "" {
		return "", fmt.Errorf("template is empty")
	}
	if !strings.Contains(template, BindingPlaceholder) {
		return "", fmt.Errorf("template does not contain the required placeholder: %s", BindingPlaceholder)
	}
	if binding == "" {
		return "", fmt.Errorf("binding name is empty")
	}
	quoted, err := json.Marshal(binding)
	if err != nil {
		return "", fmt.Errorf("encoding binding name: %w", err)
	}
	return strings.Replace(template, BindingPlaceholder, string(quoted), 1), nil
}

// startExpression calls the installed picker's start with banner text.
func startExpression(banner string) (string, error) {
	b, err := json.Marshal(banner)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("window.%s.start(%s)", globalName, b), nil
}

// applyExpression hands an effect to the installed picker.
func applyExpression(e Effect) (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("window.%[1]s ? window.%[1]s.apply(%[2]s) : false", globalName, b), nil
}

// teardownExpression removes any picker UI left in the page.
func teardownExpression() string {
	return fmt.Sprintf("window.%[1]s && window.%[1]s.teardown()", globalName)
}

// pagePayload is the JSON the page sends through the binding.
type pagePayload struct {
	Type     string     `json:"type"`
	Token    int64      `json:"token"`
	Modifier bool       `json:"modifier"`
	Key      string     `json:"key"`
	Element  RawElement `json:"element"`
}

// parsePayload decodes a binding payload into an Event.
func parsePayload(payload string) (Event, error) {
	var p pagePayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return Event{}, fmt.Errorf("decoding picker event: %w", err)
	}
	switch p.Type {
	case "click":
		if p.Token <= 0 {
			return Event{}, fmt.Errorf("click event without element token")
		}
		return Event{Kind: EventClick, Token: ElementToken(p.Token), Modifier: p.Modifier, Element: p.Element}, nil
	case "key":
		return Event{Kind: EventKey, Key: p.Key}, nil
	default:
		return Event{}, fmt.Errorf("unknown picker event type %q", p.Type)
	}
}
