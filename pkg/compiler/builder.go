package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Raw is emitted as is: variable references and script expressions
type Raw string

// Param is one "key := value" keyword argument
type Param struct {
	Key   string
	Value any
}

// Params is an ordered keyword argument list. Setting an existing key
// overwrites it in place, so the first assignment fixes the position.
type Params []Param

// Set adds or overwrites key
func (p *Params) Set(key string, value any) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Param{Key: key, Value: value})
}

// ScriptBuilder writes the define/call statement dialect line by line
type ScriptBuilder struct {
	lines  []string
	indent int
}

// NewScriptBuilder creates a builder. A non-empty header is written as a
// block comment followed by a blank line.
func NewScriptBuilder(header string) *ScriptBuilder {
	b := &ScriptBuilder{}
	if header != "" {
		b.BlockComment(header)
		b.NewLine()
	}
	return b
}

// Indent increases the indentation of subsequent lines by one tab
func (b *ScriptBuilder) Indent() *ScriptBuilder {
	b.indent++
	return b
}

// Outdent decreases the indentation, never below zero
func (b *ScriptBuilder) Outdent() *ScriptBuilder {
	if b.indent > 0 {
		b.indent--
	}
	return b
}

// Line adds a line at the current indentation
func (b *ScriptBuilder) Line(line string) *ScriptBuilder {
	b.lines = append(b.lines, strings.Repeat("\t", b.indent)+line)
	return b
}

// NewLine adds an empty line
func (b *ScriptBuilder) NewLine() *ScriptBuilder {
	b.lines = append(b.lines, "")
	return b
}

// Comment adds a "// text" line. Line breaks in text become spaces.
func (b *ScriptBuilder) Comment(text string) *ScriptBuilder {
	return b.Line("// " + commentLineBreaks.Replace(text))
}

// BlockComment adds a /* */ comment with one " * " line per input line.
// A "*/" inside text is written as "* /".
func (b *ScriptBuilder) BlockComment(text string) *ScriptBuilder {
	b.Line("/*")
	text = strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\r", "\n")
	for _, line := range strings.Split(text, "\n") {
		b.Line(" * " + strings.ReplaceAll(line, "*/", "* /"))
	}
	return b.Line(" */")
}

var commentLineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

var literalEscapes = strings.NewReplacer(`\`, `\\`, "'", `\'`)

// Define writes "varName := context.method(Type, key := value, ...)"
func (b *ScriptBuilder) Define(varName, context, method, typ string, params Params) *ScriptBuilder {
	return b.Line(varName + " := " + context + "." + method + "(" + joinArgs(typ, params) + ")")
}

// Call writes "context.method(Type, key := value, ...)". An empty type is omitted.
func (b *ScriptBuilder) Call(context, method, typ string, params Params) *ScriptBuilder {
	return b.Line(context + "." + method + "(" + joinArgs(typ, params) + ")")
}

// Expression writes "context.method(arg, ...)" with positional arguments
func (b *ScriptBuilder) Expression(context, method string, args ...any) *ScriptBuilder {
	formatted := make([]string, len(args))
	for i, a := range args {
		formatted[i] = FormatValue(a)
	}
	return b.Line(context + "." + method + "(" + strings.Join(formatted, ", ") + ")")
}

// String returns the script with lines joined by "\n"
func (b *ScriptBuilder) String() string {
	return strings.Join(b.lines, "\n")
}

func joinArgs(typ string, params Params) string {
	var args []string
	if typ != "" {
		args = append(args, typ)
	}
	if kw := formatParams(params); kw != "" {
		args = append(args, kw)
	}
	return strings.Join(args, ", ")
}

func formatParams(params Params) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		if p.Value == nil {
			continue
		}
		parts = append(parts, p.Key+" := "+FormatValue(p.Value))
	}
	return strings.Join(parts, ", ")
}

// FormatValue renders a literal: strings single-quoted with \ and ' escaped,
// Raw values verbatim, everything else in its plain textual form.
func FormatValue(v any) string {
	switch val := v.(type) {
	case Raw:
		return string(val)
	case string:
		return "'" + literalEscapes.Replace(val) + "'"
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return "null"
	}
	return fmt.Sprint(v)
}
