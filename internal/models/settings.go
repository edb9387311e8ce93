package models

import (
	"encoding/json"
	"fmt"

	"dario.cat/mergo"
)

// DefaultExportName is the file name used for exported configuration.
const DefaultExportName = "tcb_actual_config.json"

// Settings is the sync configuration in its wire shape: credential and URL
// fields plus the serialized account mapping blob.
type Settings struct {
	TCBUsername          string `json:"tcb_username"`
	TCBPassword          string `json:"tcb_password"`
	ActualURL            string `json:"actual_url"`
	ActualPassword       string `json:"actual_password"`
	ActualBudgetID       string `json:"actual_budget_id"`
	ActualBudgetPassword string `json:"actual_budget_password"`
	AccountsMapping      string `json:"accounts_mapping"`
}

// Mappings decodes the mapping blob, migrating the legacy encoding.
func (s Settings) Mappings() MappingList {
	return ParseMappings(s.AccountsMapping)
}

// SetMappings re-encodes the mapping list into the blob, always in the
// modern form.
func (s *Settings) SetMappings(mappings []AccountMapping) {
	s.AccountsMapping = SerializeMappings(mappings)
}

// ConfigDocument is the import/export representation of Settings. Mappings
// appear as a structured list, never as the legacy dictionary or the raw
// blob. Every field is optional on import: a partial document only touches
// the fields it carries.
type ConfigDocument struct {
	ExportID             string           `json:"export_id,omitempty"`
	TCBUsername          string           `json:"tcb_username,omitempty"`
	TCBPassword          string           `json:"tcb_password,omitempty"`
	ActualURL            string           `json:"actual_url,omitempty"`
	ActualPassword       string           `json:"actual_password,omitempty"`
	ActualBudgetID       string           `json:"actual_budget_id,omitempty"`
	ActualBudgetPassword string           `json:"actual_budget_password,omitempty"`
	Mappings             []AccountMapping `json:"mappings,omitempty"`
}

// ExportDocument builds a ConfigDocument from the full settings, tagged with
// a fresh export id for traceability.
func ExportDocument(s Settings, exportID string) ConfigDocument {
	return ConfigDocument{
		ExportID:             exportID,
		TCBUsername:          s.TCBUsername,
		TCBPassword:          s.TCBPassword,
		ActualURL:            s.ActualURL,
		ActualPassword:       s.ActualPassword,
		ActualBudgetID:       s.ActualBudgetID,
		ActualBudgetPassword: s.ActualBudgetPassword,
		Mappings:             ParseMappings(s.AccountsMapping),
	}
}

// Encode renders the document as indented JSON.
func (d ConfigDocument) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode config document: %w", err)
	}
	return data, nil
}

// DecodeDocument parses an imported configuration document. The caller keeps
// its current settings when this fails; a bad file must not clear anything.
func DecodeDocument(data []byte) (ConfigDocument, error) {
	var doc ConfigDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return ConfigDocument{}, fmt.Errorf("failed to parse config document: %w", err)
	}
	return doc, nil
}

// Merge applies the document over base and returns the result. Only fields
// present in the document override; absent fields keep their prior values.
func (d ConfigDocument) Merge(base Settings) (Settings, error) {
	patch := Settings{
		TCBUsername:          d.TCBUsername,
		TCBPassword:          d.TCBPassword,
		ActualURL:            d.ActualURL,
		ActualPassword:       d.ActualPassword,
		ActualBudgetID:       d.ActualBudgetID,
		ActualBudgetPassword: d.ActualBudgetPassword,
	}
	if d.Mappings != nil {
		patch.AccountsMapping = SerializeMappings(d.Mappings)
	}

	merged := base
	if err := mergo.Merge(&merged, patch, mergo.WithOverride); err != nil {
		return base, fmt.Errorf("failed to merge config document: %w", err)
	}
	return merged, nil
}
