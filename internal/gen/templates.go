package gen

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"hiveform-gen/internal/naming"
	"hiveform-gen/internal/resolve"
)

// ErrUnnameableContext is returned when a context identifier yields no
// usable TypeScript identifier.
var ErrUnnameableContext = errors.New("context name produces no identifier")

// moduleHeader starts every generated module.
const moduleHeader = "import { z } from 'zod';\n\n"

// blockSeparator separates blocks of different forms and of different kinds.
const blockSeparator = "\n\n"

var funcs = template.FuncMap{"join": strings.Join}

var typeTemplate = template.Must(template.New("type").Funcs(funcs).Parse(
	`export type {{.TypeName}} = {
{{join .TypeLines "\n"}}
};`))

var schemaTemplate = template.Must(template.New("schema").Funcs(funcs).Parse(
	`export const {{.SchemaName}} = z.object({
{{join .SchemaLines ",\n"}}
});`))

var defaultsTemplate = template.Must(template.New("defaults").Funcs(funcs).Parse(
	`export const {{.DefaultsName}} = {
{{join .DefaultLines ",\n"}}
};`))

var configTemplate = template.Must(template.New("config").Parse(
	`export const {{.ConfigName}} = {
  type: {} as {{.TypeName}},
  schema: {{.SchemaName}},
  defaultValues: {{.DefaultsName}},
  fields: {{.FieldsJSON}}
};`))

// formView holds the template data for one form.
type formView struct {
	TypeName     string
	SchemaName   string
	DefaultsName string
	ConfigName   string
	TypeLines    []string
	SchemaLines  []string
	DefaultLines []string
	FieldsJSON   string
}

func newFormView(form resolve.Form) (*formView, error) {
	pascal := naming.PascalCase(form.Context.ID)
	camel := naming.CamelCase(form.Context.ID)

	if pascal == "" || camel == "" {
		return nil, fmt.Errorf("context %q: %w", form.Context.ID, ErrUnnameableContext)
	}

	fieldsJSON, err := marshalFields(form.Fields)
	if err != nil {
		return nil, fmt.Errorf("context %q: %w", form.Context.ID, err)
	}

	v := &formView{
		TypeName:     pascal + "Form",
		SchemaName:   camel + "Schema",
		DefaultsName: camel + "DefaultValues",
		ConfigName:   camel + "Config",
		FieldsJSON:   fieldsJSON,
	}

	for _, f := range form.Fields {
		key := naming.QuoteKey(f.Name)

		optionalMark, optionalCall := "", ""
		if f.Optional {
			optionalMark, optionalCall = "?", ".optional()"
		}

		v.TypeLines = append(v.TypeLines, "  "+key+optionalMark+": string;")
		v.SchemaLines = append(v.SchemaLines, "  "+key+": z.string()"+optionalCall)
		v.DefaultLines = append(v.DefaultLines, "  "+key+": ''")
	}

	return v, nil
}

// marshalFields renders the raw field list as 2-space indented JSON.
func marshalFields(fields []resolve.FieldDescriptor) (string, error) {
	if fields == nil {
		fields = []resolve.FieldDescriptor{}
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(fields); err != nil {
		return "", fmt.Errorf("encoding fields: %w", err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// render executes tmpl once per form and joins the blocks.
func render(tmpl *template.Template, forms []resolve.Form) (string, error) {
	blocks := make([]string, 0, len(forms))

	for _, form := range forms {
		view, err := newFormView(form)
		if err != nil {
			return "", err
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, view); err != nil {
			return "", fmt.Errorf("executing %s template for %q: %w", tmpl.Name(), form.Context.ID, err)
		}

		blocks = append(blocks, buf.String())
	}

	return strings.Join(blocks, blockSeparator), nil
}

// TypeDefinitions renders one TypeScript type per form.
func TypeDefinitions(forms []resolve.Form) (string, error) {
	return render(typeTemplate, forms)
}

// FormSchemas renders one zod object schema per form.
func FormSchemas(forms []resolve.Form) (string, error) {
	return render(schemaTemplate, forms)
}

// DefaultValues renders one empty-string default record per form.
func DefaultValues(forms []resolve.Form) (string, error) {
	return render(defaultsTemplate, forms)
}

// FormConfigs renders one config object per form tying the other blocks together.
func FormConfigs(forms []resolve.Form) (string, error) {
	return render(configTemplate, forms)
}

// CompleteModule renders the zod import followed by all four block kinds.
func CompleteModule(forms []resolve.Form) (string, error) {
	renderers := []func([]resolve.Form) (string, error){
		TypeDefinitions,
		FormSchemas,
		DefaultValues,
		FormConfigs,
	}

	parts := make([]string, 0, len(renderers))
	for _, fn := range renderers {
		part, err := fn(forms)
		if err != nil {
			return "", err
		}

		parts = append(parts, part)
	}

	return moduleHeader + strings.Join(parts, blockSeparator), nil
}
