package fetchtree

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/antflydb/xmlsource/internal/expand"
)

func (f *Fetcher) evalReplace(ctx context.Context, ectx *expand.Context, node *Node) (string, bool, error) {
	input, ok, err := f.Eval(ctx, ectx, node.ReplaceInput)
	if err != nil {
		return "", false, err
	}
	if !ok {
		input = ""
	}

	exprText := node.ReplaceExpression.Expand(ectx)
	re, err := regexp.Compile(exprText)
	if err != nil {
		// Compilation failure completes with null, not an error.
		return "", false, nil
	}

	replacement := node.ReplaceReplacement.Expand(ectx)
	return re.ReplaceAllString(input, backrefsToGoSyntax(replacement)), true, nil
}

func (f *Fetcher) evalRegexp(ctx context.Context, ectx *expand.Context, node *Node) (string, bool, error) {
	var input string
	switch {
	case node.RegexpBufferRef != "":
		input = ectx.Buffers[node.RegexpBufferRef]
	case node.RegexpInput != nil:
		value, ok, err := f.Eval(ctx, ectx, node.RegexpInput)
		if err != nil {
			return "", false, err
		}
		if ok {
			input = value
		}
	}

	result, ok, err := f.runRegexp(node, ectx, input)
	if err != nil || !ok {
		return "", ok, err
	}

	// Sequential sub-regexps chain off this node's result, each stashing
	// its own output into a named buffer. A sub-regexp with no output id
	// is evaluated for side effects only and its result discarded -
	// matches the original plugin's documented behavior for that case.
	for _, sub := range node.RegexpSub {
		subResult, subOK, subErr := f.runRegexp(sub, ectx, result)
		if subErr != nil {
			return "", false, subErr
		}
		if subOK && sub.RegexpOutputID != "" {
			ectx.SetBuffer(sub.RegexpOutputID, subResult)
		}
	}

	return result, true, nil
}

// runRegexp applies a single REGEXP node's expression/output template to
// input, ignoring its own buffer/nested-input fields (used by evalRegexp
// both for the root node and for chained sub-nodes, which always take
// their input from the parent node's result).
func (f *Fetcher) runRegexp(node *Node, ectx *expand.Context, input string) (string, bool, error) {
	exprText := node.RegexpExpression.Expand(ectx)
	if exprText == "" {
		exprText = "(?ms)(.*)"
	}
	re, err := regexp.Compile(exprText)
	if err != nil {
		return "", false, nil
	}

	outputTmpl := `\1`
	if node.RegexpOutput != nil && !node.RegexpOutput.IsEmpty() {
		outputTmpl = node.RegexpOutput.Expand(ectx)
	}

	var matches [][]string
	if node.RegexpRepeat {
		matches = re.FindAllStringSubmatch(input, -1)
	} else if m := re.FindStringSubmatch(input); m != nil {
		matches = [][]string{m}
	}
	if len(matches) == 0 {
		return "", false, nil
	}

	var sb strings.Builder
	for _, m := range matches {
		sb.WriteString(substituteBackrefs(outputTmpl, m))
	}
	return sb.String(), true, nil
}

// substituteBackrefs expands `\N` backreferences in tmpl against m (as
// produced by regexp.FindStringSubmatch: m[0] is the whole match, m[1:]
// the captured groups). `\\` emits a literal backslash.
func substituteBackrefs(tmpl string, m []string) string {
	var sb strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '\\' || i+1 >= len(tmpl) {
			sb.WriteByte(c)
			continue
		}
		next := tmpl[i+1]
		if next == '\\' {
			sb.WriteByte('\\')
			i++
			continue
		}
		if next < '0' || next > '9' {
			sb.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(tmpl) && tmpl[j] >= '0' && tmpl[j] <= '9' {
			j++
		}
		n, _ := strconv.Atoi(tmpl[i+1 : j])
		if n < len(m) {
			sb.WriteString(m[n])
		}
		i = j - 1
	}
	return sb.String()
}

// backrefsToGoSyntax rewrites `\N` group references into Go's `regexp`
// ReplaceAllString `$N` form, escaping any literal `$` so it isn't
// mistaken for one.
func backrefsToGoSyntax(tmpl string) string {
	tmpl = strings.ReplaceAll(tmpl, "$", "$$")
	var sb strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '\\' || i+1 >= len(tmpl) {
			sb.WriteByte(c)
			continue
		}
		next := tmpl[i+1]
		if next == '\\' {
			sb.WriteByte('\\')
			i++
			continue
		}
		if next < '0' || next > '9' {
			sb.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(tmpl) && tmpl[j] >= '0' && tmpl[j] <= '9' {
			j++
		}
		sb.WriteString("${" + tmpl[i+1:j] + "}")
		i = j - 1
	}
	return sb.String()
}
