package automation

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// SelectDropdown chooses value in the first select whose name is in names or
// whose id is in ids. A value the control does not offer yields
// *OptionNotFoundError before anything is selected; a committed value that
// differs from value yields *VerificationError.
func (d *Driver) SelectDropdown(names, ids []string, value string) error {
	token, selector := newMarker()
	var found struct {
		Found   bool   `json:"found"`
		Name    string `json:"name"`
		ID      string `json:"id"`
		Value   string `json:"value"`
		Options []struct {
			Value string `json:"value"`
			Text  string `json:"text"`
		} `json:"options"`
	}
	arg := map[string]interface{}{
		"names": names,
		"ids":   ids,
		"attr":  MarkerAttribute,
		"token": token,
	}
	if err := d.eval(scriptInspectSelect, arg, &found); err != nil {
		return err
	}
	if !found.Found {
		return fmt.Errorf("%w: no dropdown with name %v or id %v", ErrElementNotFound, names, ids)
	}

	values := make([]string, 0, len(found.Options))
	offered := false
	for _, opt := range found.Options {
		values = append(values, opt.Value)
		if opt.Value == value {
			offered = true
		}
	}
	d.logger.Debugf("dropdown name=%q id=%q options=%v", found.Name, found.ID, values)
	if !offered {
		return &OptionNotFoundError{Value: value, Options: values}
	}

	if _, err := d.page.SelectOption(selector, playwright.SelectOptionValues{Values: &[]string{value}}); err != nil {
		return fmt.Errorf("failed to select %q: %w", value, err)
	}

	got, err := d.readValue(selector)
	if err != nil {
		return err
	}
	if got != value {
		return &VerificationError{Field: "dropdown selection", Expected: value, Got: got}
	}
	return nil
}

// TextFieldQuery describes which text input FillTextField should pick.
type TextFieldQuery struct {
	// Inputs is the candidate selector; defaults to text-like inputs
	Inputs string
	// Include keywords match against name, id or placeholder
	Include []string
	// PlaceholderInclude keywords match against the placeholder only
	PlaceholderInclude []string
	// Exclude keywords disqualify a field when found in name, id or placeholder
	Exclude []string
}

// TextInputs selects text-like inputs.
const TextInputs = `input[type="text"], input:not([type])`

// FillTextField finds the first input matching q, clears it, types value and
// reads it back. A read-back that differs from value yields *VerificationError.
func (d *Driver) FillTextField(q TextFieldQuery, value string) error {
	inputs := q.Inputs
	if inputs == "" {
		inputs = TextInputs
	}
	token, selector := newMarker()
	var found struct {
		Found       bool   `json:"found"`
		Name        string `json:"name"`
		ID          string `json:"id"`
		Placeholder string `json:"placeholder"`
	}
	arg := map[string]interface{}{
		"inputs":             inputs,
		"include":            nonNil(q.Include),
		"placeholderInclude": nonNil(q.PlaceholderInclude),
		"exclude":            nonNil(q.Exclude),
		"attr":               MarkerAttribute,
		"token":              token,
	}
	if err := d.eval(scriptFindTextField, arg, &found); err != nil {
		return err
	}
	if !found.Found {
		return fmt.Errorf("%w: no text field matching %v", ErrElementNotFound, q.Include)
	}
	d.logger.Debugf("text field name=%q id=%q placeholder=%q", found.Name, found.ID, found.Placeholder)

	if err := d.page.Click(selector); err != nil {
		return fmt.Errorf("failed to focus text field: %w", err)
	}
	if err := d.eval(scriptClearValue, map[string]interface{}{"selector": selector}, nil); err != nil {
		return err
	}
	if err := d.page.Type(selector, value); err != nil {
		return fmt.Errorf("failed to type into text field: %w", err)
	}

	got, err := d.readValue(selector)
	if err != nil {
		return err
	}
	if got != value {
		return &VerificationError{Field: "text field", Expected: value, Got: got}
	}
	return nil
}

func (d *Driver) readValue(selector string) (string, error) {
	var result struct {
		Found bool   `json:"found"`
		Value string `json:"value"`
	}
	if err := d.eval(scriptReadValue, map[string]interface{}{"selector": selector}, &result); err != nil {
		return "", err
	}
	if !result.Found {
		return "", fmt.Errorf("%w: %s disappeared before it could be read back", ErrElementNotFound, selector)
	}
	return result.Value, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
