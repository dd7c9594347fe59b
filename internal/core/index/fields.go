package index

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lore-tools/lore/internal/core/models"
)

// FieldText is one indexable field of a context, addressed by a stable
// path such as "problems[2].question"
type FieldText struct {
	Field string
	Text  string
}

// Fields enumerates the searchable text of a context in archive order.
// The same enumeration is used at index time and at snippet-resolution
// time, so field paths stay stable across both.
func Fields(ctx *models.ExtractedContext) []FieldText {
	var fields []FieldText
	for i, p := range ctx.Problems {
		fields = append(fields, FieldText{fmt.Sprintf("problems[%d].question", i), p.Question})
		if p.Solution != nil {
			fields = append(fields, FieldText{fmt.Sprintf("problems[%d].solution.approach", i), p.Solution.Approach})
		}
	}
	for i, impl := range ctx.Implementations {
		fields = append(fields, FieldText{fmt.Sprintf("implementations[%d].description", i), impl.Description})
	}
	for i, d := range ctx.Decisions {
		fields = append(fields, FieldText{fmt.Sprintf("decisions[%d].decision", i), d.Decision})
	}
	return fields
}

// FieldValue resolves a field path produced by Fields back to its text.
// Unknown paths return the empty string.
func FieldValue(ctx *models.ExtractedContext, field string) string {
	kind, idx, rest, ok := splitField(field)
	if !ok {
		return ""
	}
	switch kind {
	case "problems":
		if idx >= len(ctx.Problems) {
			return ""
		}
		p := ctx.Problems[idx]
		if rest == "question" {
			return p.Question
		}
		if rest == "solution.approach" && p.Solution != nil {
			return p.Solution.Approach
		}
	case "implementations":
		if idx < len(ctx.Implementations) && rest == "description" {
			return ctx.Implementations[idx].Description
		}
	case "decisions":
		if idx < len(ctx.Decisions) && rest == "decision" {
			return ctx.Decisions[idx].Decision
		}
	}
	return ""
}

func splitField(field string) (kind string, idx int, rest string, ok bool) {
	open := strings.IndexByte(field, '[')
	close := strings.IndexByte(field, ']')
	if open < 0 || close < open || close+1 >= len(field) || field[close+1] != '.' {
		return "", 0, "", false
	}
	n, err := strconv.Atoi(field[open+1 : close])
	if err != nil || n < 0 {
		return "", 0, "", false
	}
	return field[:open], n, field[close+2:], true
}
