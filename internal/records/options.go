package records

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/cochinpm/client/pkg/models"
	"github.com/cochinpm/client/pkg/slug"
)

// subTypePattern marks fields that discriminate on a parent type: their
// display value lives in a sous_type_<base> column of the shared choices
// table rather than a column named after the field.
var subTypePattern = regexp.MustCompile(`(?i)sous[ _]?type`)

// fallbackSlugs are tried, in order, when the target column holds nothing
var fallbackSlugs = []string{"nom_projet", "nom", "name", "label", "title", "value"}

// DefaultTargetSlug is the standard target-column resolver. A field whose
// display column is explicitly configured wins; otherwise sub-type fields
// map to "sous_type_" + the owning table's base name (its name with a
// leading or trailing "Details" stripped, lowercased); otherwise the column
// is the field name folded to lowercase ASCII.
func DefaultTargetSlug(owner *models.Table, field *models.Field) string {
	if field.ForeignDisplayField != "" {
		return field.ForeignDisplayField
	}
	if subTypePattern.MatchString(field.Name) {
		return "sous_type_" + baseTypeName(owner.Name)
	}
	return slug.Fold(field.Name)
}

func baseTypeName(tableName string) string {
	base := strings.TrimSuffix(tableName, "Details")
	base = strings.TrimPrefix(base, "Details")
	return strings.ToLower(base)
}

// ForeignKeyOptions materialises the choices for a foreign_key field: every
// record of the related table contributes its target-column value, values
// are deduplicated after trimming, and the result is sorted by display with
// locale-aware comparison. Only string values are considered so numeric ids
// never leak as labels. An empty related table yields an empty, well-formed
// option set.
func (c *Coordinator) ForeignKeyOptions(ctx context.Context, owner *models.Table, field *models.Field) ([]models.FKOption, error) {
	related, err := c.FetchRecords(ctx, field.RelatedTable, nil)
	if err != nil {
		return nil, err
	}

	targetSlug := c.ResolveTargetSlug(owner, field)

	seen := make(map[string]bool)
	options := make([]models.FKOption, 0, len(related))
	for _, record := range related {
		display := record.RawString(targetSlug)
		if display == "" {
			display = record.RawString(fallbackSlugs...)
		}
		if display == "" {
			display = record.RawString(field.Name, strings.ToLower(field.Name))
		}
		display = strings.TrimSpace(display)
		if display == "" || seen[display] {
			continue
		}
		seen[display] = true
		options = append(options, models.FKOption{Value: display, Display: display})
	}

	sort.SliceStable(options, func(i, j int) bool {
		return c.collator.CompareString(options[i].Display, options[j].Display) < 0
	})
	return options, nil
}
