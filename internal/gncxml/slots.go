package gncxml

import (
	"encoding/xml"
	"strings"
)

// A slot is a generic key/typed-value pair whose meaning depends
// entirely on the element it hangs off. parseSlots walks one slots
// container and reports every leaf to the visitor together with the
// stack of keys leading to it, so nested frame slots (budget periods,
// template-split metadata) arrive as a key path instead of ambiguous
// context booleans.
type slotVisitor func(path []string, typ, value string) error

// parseSlots consumes tokens up to the closing tag of the slots
// container whose start tag the caller just read. container is the
// qualified name of that tag ("act:slots", "trn:slots", ...).
func parseSlots(d *xml.Decoder, container string, visit slotVisitor) error {
	var keys []string
	for {
		tok, err := d.Token()
		if err != nil {
			return &FormatError{Element: container, Reason: "unterminated slot list", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch qname(t.Name) {
			case "slot":
				keys = append(keys, "")
			case "slot:key":
				text, err := textOf(d)
				if err != nil {
					return &FormatError{Element: "slot:key", Reason: "unreadable key", Err: err}
				}
				if len(keys) > 0 {
					keys[len(keys)-1] = text
				}
			case "slot:value":
				typ := attrValue(t, "type")
				if typ == "frame" {
					// Children are nested slots; keep walking.
					continue
				}
				text, err := textOf(d)
				if err != nil {
					return &FormatError{Element: "slot:value", Reason: "unreadable value", Err: err}
				}
				if err := visit(append([]string(nil), keys...), typ, text); err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return &FormatError{Element: qname(t.Name), Reason: "skipping unknown slot element", Err: err}
				}
			}
		case xml.EndElement:
			switch qname(t.Name) {
			case "slot":
				if len(keys) > 0 {
					keys = keys[:len(keys)-1]
				}
			case container:
				return nil
			}
		}
	}
}

// textOf reads the character data of the element whose start tag was
// just consumed, tolerating nested wrapper elements (<gdate> inside a
// typed slot value). It stops at the matching end tag.
func textOf(d *xml.Decoder) (string, error) {
	var sb strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return strings.TrimSpace(sb.String()), nil
			}
			depth--
		}
	}
}
