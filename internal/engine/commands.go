package engine

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dotsian/dexscript/internal/model"
	"github.com/dotsian/dexscript/internal/script"
	"github.com/dotsian/dexscript/internal/store"
	"github.com/dotsian/dexscript/internal/yield"
)

// StaticPrefix marks field values that point at uploaded files.
const StaticPrefix = "/static"

// ClearFlag and YieldsFlag are the sentinel arguments of PUSH and LIST.
const (
	ClearFlag  = "-clear"
	YieldsFlag = "-yields"
)

// call is one dispatched line: the command name and the full line as
// positional arguments, position 0 being the method itself.
type call struct {
	name string
	args []script.Value
	inv  Invocation
}

func (c *call) arg(i int) (script.Value, error) {
	if i >= len(c.args) {
		return script.Value{}, missingArgument(c.name)
	}
	return c.args[i], nil
}

func (c *call) optional(i int) (script.Value, bool) {
	if i >= len(c.args) {
		return script.Value{}, false
	}
	return c.args[i], true
}

func (c *call) model(i int) (*model.Entry, error) {
	v, err := c.arg(i)
	if err != nil {
		return nil, err
	}
	if v.Kind != script.KindModel || v.Model == nil {
		return nil, unknownModel(c.name, v.String())
	}
	return v.Model, nil
}

func (c *call) reply(ctx context.Context, text string, files ...string) error {
	if c.inv.Replier == nil {
		return nil
	}
	return c.inv.Replier.Send(ctx, Reply{Text: text, Files: files})
}

func (e *Engine) push(ctx context.Context, c *call) error {
	arg, hasArg := c.optional(1)
	if hasArg && strings.EqualFold(arg.Raw, ClearFlag) {
		e.yields.Clear()
		return c.reply(ctx, "Cleared yield cache.")
	}

	limit := 0
	if hasArg {
		if arg.Kind != script.KindNumber {
			return fmt.Errorf("invalid literal for yield count: '%s'", arg.Raw)
		}
		limit = int(arg.Number)
	}

	items := e.yields.Items()

	// With a count, the loop stops at the first position reaching it, the
	// whole cache is cleared anyway and the count itself is reported.
	for i, y := range items {
		if hasArg && i+1 >= limit {
			break
		}
		switch y.Op {
		case yield.OpCreate:
			if _, err := e.store.Create(ctx, y.Entry.Schema, y.Fields); err != nil {
				return err
			}
		}
	}

	plural := "s"
	if len(items) == 1 {
		plural = ""
	}
	number := strconv.Itoa(len(items))
	if hasArg {
		number = arg.Raw
	}

	e.yields.Clear()
	return c.reply(ctx, fmt.Sprintf("Pushed `%s` yield%s.", number, plural))
}

func (e *Engine) create(ctx context.Context, c *call) error {
	entry, err := c.model(1)
	if err != nil {
		return err
	}
	identifier, err := c.arg(2)
	if err != nil {
		return err
	}
	flag, _ := c.optional(3)
	staged := flag.Kind == script.KindBoolean && flag.Bool

	fields, err := e.defaultFields(ctx, entry, identifier.Raw)
	if err != nil {
		return err
	}

	if staged {
		e.yields.Append(&yield.Yield{
			Entry:      entry,
			Identifier: identifier.Raw,
			Fields:     fields,
			Op:         yield.OpCreate,
		})
		return c.reply(ctx, fmt.Sprintf("Created `%s` and yielded it until `push`", identifier))
	}

	if _, err := e.store.Create(ctx, entry.Schema, fields); err != nil {
		return err
	}
	return c.reply(ctx, fmt.Sprintf("Created `%s`", identifier))
}

// defaultFields builds the record written when an entity is created from
// its identifier alone. Every field without a value of its own gets 1;
// a datetime cannot hold 1, so it gets the current time, or stays NULL
// when nullable.
func (e *Engine) defaultFields(ctx context.Context, entry *model.Entry, identifier string) (store.Record, error) {
	fields := store.Record{}

	for _, f := range entry.Schema.Fields {
		if f.Auto || f.Default != nil || f.Role == store.RoleSkip {
			continue
		}

		switch f.Role {
		case store.RoleIdentifier:
			fields[f.Name] = identifier
		case store.RoleSentinel:
			fields[f.Name] = store.SentinelValue
		case store.RoleReference:
			ref, ok := e.registry.Lookup(f.Ref)
			if !ok {
				return nil, fmt.Errorf("%s.%s references unknown model %q", entry.Kind(), f.Name, f.Ref)
			}
			first, err := e.store.First(ctx, ref.Schema)
			if err != nil {
				return nil, fmt.Errorf("no %s to reference from %s.%s: %w", ref.Kind(), entry.Kind(), f.Name, err)
			}
			fields[f.Name] = first[ref.Schema.PrimaryKeyField()]
		default:
			switch {
			case f.Type != store.FieldTypeDatetime:
				fields[f.Name] = 1
			case !f.Optional:
				fields[f.Name] = time.Now().UTC()
			}
		}
	}

	return fields, nil
}

func (e *Engine) delete(ctx context.Context, c *call) error {
	entry, err := c.model(1)
	if err != nil {
		return err
	}
	identifier, err := c.arg(2)
	if err != nil {
		return err
	}

	record, err := e.resolve(ctx, entry, identifier.Raw)
	if err != nil {
		return err
	}
	if err := e.store.Delete(ctx, entry.Schema, record); err != nil {
		return err
	}

	return c.reply(ctx, fmt.Sprintf("Deleted `%s`", identifier))
}

func (e *Engine) update(ctx context.Context, c *call) error {
	entry, err := c.model(1)
	if err != nil {
		return err
	}
	identifier, err := c.arg(2)
	if err != nil {
		return err
	}
	field, err := c.arg(3)
	if err != nil {
		return err
	}

	var value any
	var shown string
	if len(c.inv.Attachments) > 0 {
		att := c.inv.Attachments[0]
		path, err := e.uploads.Save(ctx, att.Filename, att.Content)
		if err != nil {
			return err
		}
		value = "/" + path
		shown = "/" + path
	} else {
		v, err := c.arg(4)
		if err != nil {
			return err
		}
		value = v.Payload()
		shown = v.String()
	}

	name := strings.ToLower(field.Raw)
	message := fmt.Sprintf("`%s's` %s to `%s`", identifier, field, shown)

	if e.yields.Update(entry, identifier.Raw, name, value) {
		return c.reply(ctx, "Updated yielded "+message)
	}

	record, err := e.resolve(ctx, entry, identifier.Raw)
	if err != nil {
		return err
	}
	f, ok := entry.Schema.Field(name)
	if !ok {
		return fmt.Errorf("%s has no field '%s'", entry.Kind(), field.Raw)
	}
	record[f.Name] = value

	if err := e.store.Save(ctx, entry.Schema, record); err != nil {
		return err
	}
	return c.reply(ctx, "Updated "+message)
}

func (e *Engine) view(ctx context.Context, c *call) error {
	entry, err := c.model(1)
	if err != nil {
		return err
	}
	identifier, err := c.arg(2)
	if err != nil {
		return err
	}

	record, err := e.resolve(ctx, entry, identifier.Raw)
	if err != nil {
		return err
	}

	field, ok := c.optional(3)
	if !ok {
		var b strings.Builder
		var files []string
		b.WriteString("```")
		for _, f := range entry.Schema.Fields {
			if f.Internal {
				continue
			}
			value := record[f.Name]
			fmt.Fprintf(&b, "%s: %s\n", f.Name, formatValue(value))
			if s, ok := value.(string); ok && strings.HasPrefix(s, StaticPrefix) {
				files = append(files, e.attachment(s))
			}
		}
		b.WriteString("```")
		return c.reply(ctx, b.String(), files...)
	}

	f, ok := entry.Schema.Field(field.Raw)
	if !ok {
		return fmt.Errorf("%s has no field '%s'", entry.Kind(), field.Raw)
	}
	value := record[f.Name]
	text := fmt.Sprintf("```%s```", formatValue(value))

	if s, ok := value.(string); ok && len(s) > 1 {
		if path := e.attachment(s); isFile(path) {
			return c.reply(ctx, text, path)
		}
	}
	return c.reply(ctx, text)
}

// attachment returns the file a stored value points at: the upload it
// references, or the value without its leading slash.
func (e *Engine) attachment(value string) string {
	if path, ok := e.uploads.Resolve(value); ok {
		return path
	}
	return value[1:]
}

func (e *Engine) list(ctx context.Context, c *call) error {
	target, err := c.arg(1)
	if err != nil {
		return err
	}

	var b strings.Builder
	switch {
	case target.Kind == script.KindModel && target.Model != nil:
		fmt.Fprintf(&b, "%s FIELDS:\n\n", strings.ToUpper(target.Model.Kind()))
		for _, name := range target.Model.Schema.FieldNames() {
			fmt.Fprintf(&b, "- %s\n", strings.ToUpper(strings.ReplaceAll(name, " ", "_")))
		}
	case strings.EqualFold(target.Raw, YieldsFlag):
		b.WriteString("GLOBAL YIELDS:\n\n")
		for i, y := range e.yields.Items() {
			fmt.Fprintf(&b, "%d. %s\n", i+1, strings.ToUpper(y.Identifier))
		}
	default:
		return unknownModel(c.name, target.String())
	}

	return c.reply(ctx, fmt.Sprintf("```\n%s\n```", b.String()))
}

func (e *Engine) file(ctx context.Context, c *call) error {
	op, err := c.arg(1)
	if err != nil {
		return err
	}

	switch strings.ToLower(op.Raw) {
	case "write":
		path, err := c.arg(2)
		if err != nil {
			return err
		}
		if len(c.inv.Attachments) == 0 {
			return missingArgument(c.name)
		}
		content := c.inv.Attachments[0].Content
		if !utf8.Valid(content) {
			return fmt.Errorf("%s is not valid UTF-8 text", c.inv.Attachments[0].Filename)
		}
		if err := os.WriteFile(path.Raw, content, 0644); err != nil {
			return err
		}
		return c.reply(ctx, fmt.Sprintf("Wrote to `%s`", path))

	case "clear":
		path, err := c.arg(2)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path.Raw, nil, 0644); err != nil {
			return err
		}
		return c.reply(ctx, fmt.Sprintf("Cleared `%s`", path))

	case "read":
		path, err := c.arg(2)
		if err != nil {
			return err
		}
		if !isFile(path.Raw) {
			return fmt.Errorf("%s: %w", path.Raw, os.ErrNotExist)
		}
		return c.reply(ctx, "", path.Raw)

	case "delete":
		// Removes the file named by the operation argument itself.
		if err := os.Remove(op.Raw); err != nil {
			return err
		}
		return c.reply(ctx, fmt.Sprintf("Deleted `%s`", op))
	}

	return invalidOperation(c.name, op.Raw)
}

func (e *Engine) show(ctx context.Context, c *call) error {
	text, err := c.arg(1)
	if err != nil {
		return err
	}
	return c.reply(ctx, fmt.Sprintf("```\n%s\n```", text))
}

// resolve finds the record of entry whose identifier equals identifier
// exactly, suggesting the closest one otherwise.
func (e *Engine) resolve(ctx context.Context, entry *model.Entry, identifier string) (store.Record, error) {
	field := entry.Identifier()

	records, err := e.store.All(ctx, entry.Schema)
	if err != nil {
		return nil, err
	}

	candidates := make([]string, 0, len(records))
	for _, r := range records {
		candidates = append(candidates, formatValue(r[field.Name]))
	}

	match, err := model.Resolve(identifier, candidates)
	if err != nil {
		return nil, err
	}

	matched, err := e.store.Filter(ctx, entry.Schema, field.Name, match)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, &model.LookupError{Identifier: identifier}
	}
	return matched[0], nil
}

// formatValue renders a stored field value for display.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(script.DatetimeLayout)
	}
	return fmt.Sprint(v)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
