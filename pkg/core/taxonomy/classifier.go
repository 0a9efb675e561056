package taxonomy

import (
	"strings"

	"statement_engine/pkg/models"
)

// Result is a classification outcome.
type Result struct {
	Category    models.Category
	Subcategory string
}

// Classifier matches line-item labels against ordered pattern tables.
// First matching pattern wins. Safe for concurrent use once built.
type Classifier struct {
	rules []rule
}

// NewClassifier builds a classifier over the built-in bilingual tables.
func NewClassifier() *Classifier {
	rules, err := compileTables(defaultTables)
	if err != nil {
		// Built-in patterns are compile-checked by tests; a failure here
		// is a programming error.
		panic(err)
	}
	return &Classifier{rules: rules}
}

// NewClassifierFromYAML builds a classifier from an external YAML pattern
// document, replacing the built-in tables.
func NewClassifierFromYAML(data []byte) (*Classifier, error) {
	cfgs, err := ParseTables(data)
	if err != nil {
		return nil, err
	}
	rules, err := compileTables(cfgs)
	if err != nil {
		return nil, err
	}
	return &Classifier{rules: rules}, nil
}

// Classify assigns a category to a label. isCalculated gates the generic
// total/subtotal marker tables so that plain section headers are not
// mistaken for computed display rows. Unmatched labels return unknown —
// most worksheets carry plenty of non-financial rows and that is not an
// error.
func (c *Classifier) Classify(label string, isCalculated bool) Result {
	label = normalizeLabel(label)
	if label == "" {
		return Result{Category: models.CategoryUnknown}
	}
	for _, r := range c.rules {
		if r.calculatedOnly && !isCalculated {
			continue
		}
		for _, re := range r.patterns {
			if re.MatchString(label) {
				return Result{Category: r.category, Subcategory: r.subcategory}
			}
		}
	}
	return Result{Category: models.CategoryUnknown}
}

// normalizeLabel collapses whitespace and strips the trailing colons and
// leading bullets that template authors decorate section labels with.
func normalizeLabel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, ":-•* ")
	return strings.Join(strings.Fields(s), " ")
}
