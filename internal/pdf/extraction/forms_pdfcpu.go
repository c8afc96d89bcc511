// Package extraction walks a pdfcpu document context to recover
// AcroForm field values.
package extraction

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// FormFieldType is the PDF AcroForm field type (the FT dictionary
// entry), refined for buttons into checkbox/radio/push variants.
type FormFieldType string

const (
	FormFieldTypeText      FormFieldType = "text"
	FormFieldTypeCheckbox  FormFieldType = "checkbox"
	FormFieldTypeRadio     FormFieldType = "radio"
	FormFieldTypeSelect    FormFieldType = "select"
	FormFieldTypeButton    FormFieldType = "button"
	FormFieldTypeSignature FormFieldType = "signature"
	FormFieldTypeUnknown   FormFieldType = "unknown"
)

// FormField is one AcroForm field and its current value.
type FormField struct {
	Name  string
	Type  FormFieldType
	Value any
	Page  int
}

// ExtractForms walks ctx's AcroForm field tree, falling back to a
// page-by-page widget annotation scan for documents whose fields
// aren't reachable through the catalog's AcroForm entry.
func ExtractForms(ctx *model.Context) ([]FormField, error) {
	catalog, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("get catalog: %w", err)
	}

	fields := extractAcroFormFields(ctx, catalog)
	if len(fields) == 0 {
		fields = scanWidgetAnnotations(ctx)
	}
	return fields, nil
}

func extractAcroFormFields(ctx *model.Context, catalog types.Dict) []FormField {
	acroFormObj, found := catalog.Find("AcroForm")
	if !found {
		return nil
	}
	acroForm, err := ctx.DereferenceDict(acroFormObj)
	if err != nil || acroForm == nil {
		return nil
	}

	fieldsObj, found := acroForm.Find("Fields")
	if !found {
		return nil
	}
	fieldRefs, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil
	}

	fields := make([]FormField, 0, len(fieldRefs))
	for i, ref := range fieldRefs {
		if field := decodeField(ctx, ref, i); field != nil {
			fields = append(fields, *field)
		}
	}
	return fields
}

func decodeField(ctx *model.Context, fieldObj types.Object, index int) *FormField {
	fieldDict, err := ctx.DereferenceDict(fieldObj)
	if err != nil || fieldDict == nil {
		return nil
	}

	field := &FormField{Page: 1}
	if nameObj, found := fieldDict.Find("T"); found {
		if name, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil {
			field.Name = name
		}
	}
	if field.Name == "" {
		field.Name = fmt.Sprintf("field_%d", index)
	}

	field.Type = fieldType(ctx, fieldDict)
	if valueObj, found := fieldDict.Find("V"); found {
		field.Value = fieldValue(ctx, valueObj, field.Type)
	}
	return field
}

// fieldType resolves FT, following a single Parent hop for the
// inherited-attribute case PDF forms commonly use for radio groups.
func fieldType(ctx *model.Context, fieldDict types.Dict) FormFieldType {
	ftObj, found := fieldDict.Find("FT")
	if !found {
		if parentObj, found := fieldDict.Find("Parent"); found {
			if parentDict, err := ctx.DereferenceDict(parentObj); err == nil && parentDict != nil {
				if ftObj, found = parentDict.Find("FT"); !found {
					return FormFieldTypeUnknown
				}
			}
		}
		if ftObj == nil {
			return FormFieldTypeUnknown
		}
	}

	ftName, err := ctx.DereferenceName(ftObj, model.V10, nil)
	if err != nil {
		return FormFieldTypeUnknown
	}

	switch ftName {
	case "Btn":
		return buttonSubtype(ctx, fieldDict)
	case "Tx":
		return FormFieldTypeText
	case "Ch":
		return FormFieldTypeSelect
	case "Sig":
		return FormFieldTypeSignature
	default:
		return FormFieldTypeUnknown
	}
}

func buttonSubtype(ctx *model.Context, fieldDict types.Dict) FormFieldType {
	flagsObj, found := fieldDict.Find("Ff")
	if !found {
		return FormFieldTypeCheckbox
	}
	flags, err := ctx.DereferenceInteger(flagsObj)
	if err != nil || flags == nil {
		return FormFieldTypeCheckbox
	}
	switch {
	case *flags&(1<<15) != 0: // bit 16: radio
		return FormFieldTypeRadio
	case *flags&(1<<16) != 0: // bit 17: pushbutton
		return FormFieldTypeButton
	default:
		return FormFieldTypeCheckbox
	}
}

func fieldValue(ctx *model.Context, valueObj types.Object, ft FormFieldType) any {
	switch ft {
	case FormFieldTypeText:
		if val, err := ctx.DereferenceStringOrHexLiteral(valueObj, model.V10, nil); err == nil {
			return val
		}
	case FormFieldTypeCheckbox:
		if name, err := ctx.DereferenceName(valueObj, model.V10, nil); err == nil {
			return name == "Yes" || name == "On"
		}
	case FormFieldTypeRadio, FormFieldTypeSelect:
		if name, err := ctx.DereferenceName(valueObj, model.V10, nil); err == nil {
			return name
		}
		if val, err := ctx.DereferenceStringOrHexLiteral(valueObj, model.V10, nil); err == nil {
			return val
		}
	}
	return nil
}

// scanWidgetAnnotations recovers field name/value pairs from page
// annotations directly, for the rarer documents whose widgets aren't
// linked from the catalog's AcroForm/Fields array.
func scanWidgetAnnotations(ctx *model.Context) []FormField {
	var fields []FormField
	for pageNum := 1; pageNum <= ctx.PageCount; pageNum++ {
		pageDict, _, _, err := ctx.PageDict(pageNum, false)
		if err != nil {
			continue
		}
		annotsObj, found := pageDict.Find("Annots")
		if !found {
			continue
		}
		annots, err := ctx.DereferenceArray(annotsObj)
		if err != nil {
			continue
		}
		for i, annotObj := range annots {
			if field := decodeWidget(ctx, annotObj, pageNum, i); field != nil {
				fields = append(fields, *field)
			}
		}
	}
	return fields
}

func decodeWidget(ctx *model.Context, annotObj types.Object, pageNum, index int) *FormField {
	annotDict, err := ctx.DereferenceDict(annotObj)
	if err != nil || annotDict == nil {
		return nil
	}
	subtypeObj, found := annotDict.Find("Subtype")
	if !found {
		return nil
	}
	subtype, err := ctx.DereferenceName(subtypeObj, model.V10, nil)
	if err != nil || subtype != "Widget" {
		return nil
	}

	field := &FormField{Page: pageNum}
	if nameObj, found := annotDict.Find("T"); found {
		if name, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil {
			field.Name = name
		}
	}
	if field.Name == "" {
		field.Name = fmt.Sprintf("widget_%d_%d", pageNum, index)
	}
	field.Type = fieldType(ctx, annotDict)
	if valueObj, found := annotDict.Find("V"); found {
		field.Value = fieldValue(ctx, valueObj, field.Type)
	}
	return field
}
