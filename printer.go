// printer.go — value rendering for echo, string concatenation, and HTML
// output of template VNodes.
package deka

import (
	"strconv"
	"strings"
)

// display renders h the way echo and '.' concatenation see it.
func (ip *Interp) display(h Handle) string {
	switch ip.A.Tag(h) {
	case TagNone:
		return ""
	case TagBool:
		if ip.A.AsBool(h) {
			return "true"
		}
		return "false"
	case TagInt:
		return strconv.FormatInt(ip.A.AsInt(h), 10)
	case TagFloat:
		return strconv.FormatFloat(ip.A.AsFloat(h), 'g', -1, 64)
	case TagStr:
		return ip.A.AsStr(h)
	case TagArray:
		var b strings.Builder
		b.WriteByte('[')
		for i, e := range ip.A.AsArray(h) {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(ip.displayQuoted(e))
		}
		b.WriteByte(']')
		return b.String()
	case TagObject:
		return ip.displayRecord("", h)
	case TagStruct:
		if ip.A.StructName(h) == "VNode" {
			return ip.renderHTML(h)
		}
		return ip.displayRecord(ip.A.StructName(h)+" ", h)
	case TagEnum:
		name := ip.A.StructName(h) + "::" + ip.A.EnumCase(h)
		_, payload := ip.A.EnumPayload(h)
		if len(payload) == 0 {
			return name
		}
		var b strings.Builder
		b.WriteString(name)
		b.WriteByte('(')
		for i, e := range payload {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(ip.displayQuoted(e))
		}
		b.WriteByte(')')
		return b.String()
	case TagFun:
		return "<callable " + callableName(ip.A.AsFun(h)) + ">"
	case TagResource:
		return "<resource " + ip.A.AsResource(h).Kind + ">"
	}
	return ""
}

// displayQuoted is display with strings quoted, for container elements.
func (ip *Interp) displayQuoted(h Handle) string {
	if ip.A.Tag(h) == TagStr {
		return strconv.Quote(ip.A.AsStr(h))
	}
	return ip.display(h)
}

func (ip *Interp) displayRecord(prefix string, h Handle) string {
	rec := ip.A.AsRecord(h)
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('{')
	for i, k := range rec.Keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(ip.displayQuoted(rec.Entries[k]))
	}
	b.WriteByte('}')
	return b.String()
}

// voidTags are HTML elements that never take a closing tag.
var voidTags = map[string]bool{
	"br": true, "hr": true, "img": true, "input": true,
	"meta": true, "link": true,
}

// renderHTML serializes a VNode tree. Text children are escaped; nested
// VNodes recurse; arrays of children flatten.
func (ip *Interp) renderHTML(h Handle) string {
	rec := ip.A.AsRecord(h)
	tagH, _ := rec.Get("tag")
	attrsH, _ := rec.Get("attrs")
	childrenH, _ := rec.Get("children")
	tag := ip.A.AsStr(tagH)

	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(tag)
	if ip.A.Tag(attrsH) == TagObject {
		attrs := ip.A.AsRecord(attrsH)
		for _, k := range attrs.Keys {
			v := attrs.Entries[k]
			if ip.A.Tag(v) == TagBool {
				if ip.A.AsBool(v) {
					b.WriteByte(' ')
					b.WriteString(k)
				}
				continue
			}
			b.WriteByte(' ')
			b.WriteString(k)
			b.WriteString(`="`)
			b.WriteString(escapeHTML(ip.display(v)))
			b.WriteByte('"')
		}
	}
	if voidTags[tag] {
		b.WriteString("/>")
		return b.String()
	}
	b.WriteByte('>')
	ip.renderChildren(&b, childrenH)
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteByte('>')
	return b.String()
}

func (ip *Interp) renderChildren(b *strings.Builder, h Handle) {
	switch ip.A.Tag(h) {
	case TagArray:
		for _, c := range ip.A.AsArray(h) {
			ip.renderChildren(b, c)
		}
	case TagStruct:
		if ip.A.StructName(h) == "VNode" {
			b.WriteString(ip.renderHTML(h))
			return
		}
		b.WriteString(escapeHTML(ip.display(h)))
	case TagNone:
	default:
		b.WriteString(escapeHTML(ip.display(h)))
	}
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
)

func escapeHTML(s string) string { return htmlEscaper.Replace(s) }
