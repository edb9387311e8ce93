package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/minhvu/tcbsync/internal/models"
	"github.com/minhvu/tcbsync/internal/shared"
)

const secretMask = "••••••••"

// settingsFields maps CLI field names to setters on the wire shape.
var settingsFields = map[string]func(*models.Settings, string){
	"tcb_username":           func(s *models.Settings, v string) { s.TCBUsername = v },
	"tcb_password":           func(s *models.Settings, v string) { s.TCBPassword = v },
	"actual_url":             func(s *models.Settings, v string) { s.ActualURL = v },
	"actual_password":        func(s *models.Settings, v string) { s.ActualPassword = v },
	"actual_budget_id":       func(s *models.Settings, v string) { s.ActualBudgetID = v },
	"actual_budget_password": func(s *models.Settings, v string) { s.ActualBudgetPassword = v },
}

// SettingsShow fetches and prints the configuration, masking secrets unless
// asked not to.
func (r *Runner) SettingsShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	settings, err := r.settings.Fetch(ctx)
	if err != nil {
		return err
	}

	display := *settings
	if !cmd.Bool("reveal") {
		mask := func(v string) string {
			if v == "" {
				return ""
			}
			return secretMask
		}
		display.TCBPassword = mask(display.TCBPassword)
		display.ActualPassword = mask(display.ActualPassword)
		display.ActualBudgetPassword = mask(display.ActualBudgetPassword)
	}

	if cmd.Bool("json") {
		return r.writeJSON(models.ExportDocument(display, ""), true)
	}

	valueOr := func(v string) string {
		if v == "" {
			return "(unset)"
		}
		return v
	}
	r.writePlain("tcb_username:           %s\n", valueOr(display.TCBUsername))
	r.writePlain("tcb_password:           %s\n", valueOr(display.TCBPassword))
	r.writePlain("actual_url:             %s\n", valueOr(display.ActualURL))
	r.writePlain("actual_password:        %s\n", valueOr(display.ActualPassword))
	r.writePlain("actual_budget_id:       %s\n", valueOr(display.ActualBudgetID))
	r.writePlain("actual_budget_password: %s\n", valueOr(display.ActualBudgetPassword))

	mappings := display.Mappings()
	r.writePlainln("Mappings (%d):", len(mappings))
	for i, m := range mappings {
		r.writePlain("  [%d] %s → %s  (%s)\n", i, m.Name, m.ActualID, strings.Join(m.ArrangementIDs, ", "))
	}
	return nil
}

// SettingsSet updates one field and saves the whole configuration back.
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	field := cmd.StringArg("field")
	value := cmd.StringArg("value")

	setter, ok := settingsFields[field]
	if !ok {
		names := make([]string, 0, len(settingsFields))
		for name := range settingsFields {
			names = append(names, name)
		}
		return fmt.Errorf("%w: unknown field %q, expected one of %s", shared.ErrInvalidInput, field, strings.Join(names, ", "))
	}

	if err := r.requireSession(ctx); err != nil {
		return err
	}

	settings, err := r.settings.Fetch(ctx)
	if err != nil {
		return err
	}

	setter(settings, value)
	if err := r.settings.Save(ctx, *settings); err != nil {
		return err
	}

	r.logger.Info("settings updated", "field", field)
	return r.writePlain("✓ %s updated\n", field)
}

// SettingsExport writes the configuration to a JSON file, mappings in the
// structured form.
func (r *Runner) SettingsExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	settings, err := r.settings.Fetch(ctx)
	if err != nil {
		return err
	}

	doc := models.ExportDocument(*settings, shared.GenerateID())
	data, err := doc.Encode()
	if err != nil {
		return err
	}

	outputPath := cmd.String("output")
	if outputPath == "" {
		outputPath = models.DefaultExportName
	}

	if err := os.WriteFile(outputPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	r.logger.Info("settings exported", "path", outputPath, "export_id", doc.ExportID)
	return r.writePlain("✓ Configuration exported to %s\n", outputPath)
}

// SettingsImport merges a JSON document over the current configuration.
// Fields absent from the document keep their current values.
func (r *Runner) SettingsImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path to an export file is required", shared.ErrInvalidInput)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	doc, err := models.DecodeDocument(data)
	if err != nil {
		return err
	}

	if err := r.requireSession(ctx); err != nil {
		return err
	}

	current, err := r.settings.Fetch(ctx)
	if err != nil {
		return err
	}

	merged, err := doc.Merge(*current)
	if err != nil {
		return err
	}

	if err := r.settings.Save(ctx, merged); err != nil {
		return err
	}

	r.logger.Info("settings imported", "path", path)
	return r.writePlain("✓ Configuration imported from %s\n", path)
}

// MapList prints the account mappings, migrating legacy blobs on the fly.
func (r *Runner) MapList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	settings, err := r.settings.Fetch(ctx)
	if err != nil {
		return err
	}

	mappings := settings.Mappings()
	if len(mappings) == 0 {
		return r.writePlain("No account mappings configured\n")
	}

	for i, m := range mappings {
		r.writePlain("[%d] %s → %s  (%s)\n", i, m.Name, m.ActualID, strings.Join(m.ArrangementIDs, ", "))
	}
	return nil
}

// MapAdd appends a mapping and saves the configuration.
func (r *Runner) MapAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	settings, err := r.settings.Fetch(ctx)
	if err != nil {
		return err
	}

	mappings := settings.Mappings()
	idx := mappings.Add()
	mappings.SetName(idx, cmd.String("name"))
	mappings.SetActualID(idx, cmd.String("actual-id"))
	if raw := cmd.String("arrangements"); raw != "" {
		ids := []string{}
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				ids = append(ids, trimmed)
			}
		}
		mappings.SetArrangementIDs(idx, ids)
	}

	settings.SetMappings(mappings)
	if err := r.settings.Save(ctx, *settings); err != nil {
		return err
	}
	return r.writePlain("✓ Mapping added at index %d\n", idx)
}

// MapRemove deletes a mapping by index and saves the configuration.
func (r *Runner) MapRemove(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("index")
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: index must be a number, got %q", shared.ErrInvalidInput, raw)
	}

	if err := r.requireSession(ctx); err != nil {
		return err
	}

	settings, err := r.settings.Fetch(ctx)
	if err != nil {
		return err
	}

	mappings := settings.Mappings()
	if idx < 0 || idx >= len(mappings) {
		return fmt.Errorf("%w: index %d out of range, have %d mappings", shared.ErrInvalidInput, idx, len(mappings))
	}
	mappings.Remove(idx)

	settings.SetMappings(mappings)
	if err := r.settings.Save(ctx, *settings); err != nil {
		return err
	}
	return r.writePlain("✓ Mapping %d removed\n", idx)
}
