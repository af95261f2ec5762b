package records

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cochinpm/client/pkg/constants"
	"github.com/cochinpm/client/pkg/models"
)

func TestDefaultTargetSlug(t *testing.T) {
	cases := []struct {
		name  string
		owner models.Table
		field models.Field
		want  string
	}{
		{
			name:  "explicit display field wins",
			owner: models.Table{Name: "DetailsCollaboration"},
			field: models.Field{Name: "Sous type", ForeignDisplayField: "libelle"},
			want:  "libelle",
		},
		{
			name:  "sub type with leading Details",
			owner: models.Table{Name: "DetailsCollaboration"},
			field: models.Field{Name: "Sous type"},
			want:  "sous_type_collaboration",
		},
		{
			name:  "sub type with trailing Details",
			owner: models.Table{Name: "ProjetDetails"},
			field: models.Field{Name: "Sous_type"},
			want:  "sous_type_projet",
		},
		{
			name:  "sub type marker is case insensitive",
			owner: models.Table{Name: "DetailsFormation"},
			field: models.Field{Name: "SOUS TYPE"},
			want:  "sous_type_formation",
		},
		{
			name:  "plain field folds its name",
			owner: models.Table{Name: "Projets"},
			field: models.Field{Name: "Catégorie"},
			want:  "categorie",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DefaultTargetSlug(&tc.owner, &tc.field))
		})
	}
}

func TestForeignKeyOptionsSubType(t *testing.T) {
	backend := &fakeRecordsBackend{
		byTable: map[string][]models.Record{
			"choices": {
				{"id": "c1", "sous_type_collaboration": "Spatial"},
				{"id": "c2", "sous_type_collaboration": "Bonne"},
				{"id": "c3", "sous_type_collaboration": "  Bonne  "},
				{"id": "c4", "sous_type_collaboration": ""},
				{"id": "c5"},
			},
		},
	}
	server := startRecordsBackend(t, backend)
	coord, _ := newTestCoordinator(t, server)

	owner := &models.Table{Name: "DetailsCollaboration"}
	field := &models.Field{
		Name:         "Sous type",
		FieldType:    constants.FieldTypeForeignKey,
		RelatedTable: "choices",
	}

	options, err := coord.ForeignKeyOptions(context.Background(), owner, field)
	require.NoError(t, err)

	displays := make([]string, len(options))
	for i, o := range options {
		displays[i] = o.Display
	}
	assert.Equal(t, []string{"Bonne", "Spatial"}, displays, "trimmed, deduplicated, sorted")
}

func TestForeignKeyOptionsFallbackColumns(t *testing.T) {
	backend := &fakeRecordsBackend{
		byTable: map[string][]models.Record{
			"projets": {
				{"id": "p1", "nom_projet": "Zone"},
				{"id": "p2", "nom": "Éclair"},
				{"id": "p3", "categorie": "Ignoré"},
			},
		},
	}
	server := startRecordsBackend(t, backend)
	coord, _ := newTestCoordinator(t, server)

	owner := &models.Table{Name: "Taches"}
	field := &models.Field{
		Name:         "Projet",
		FieldType:    constants.FieldTypeForeignKey,
		RelatedTable: "projets",
	}

	options, err := coord.ForeignKeyOptions(context.Background(), owner, field)
	require.NoError(t, err)

	displays := make([]string, len(options))
	for i, o := range options {
		displays[i] = o.Display
	}
	// locale-aware sort places accented É with E, before Z
	assert.Equal(t, []string{"Éclair", "Zone"}, displays)
}

func TestForeignKeyOptionsSkipNonStringValues(t *testing.T) {
	backend := &fakeRecordsBackend{
		byTable: map[string][]models.Record{
			"refs": {
				{"id": "r1", "valeur": "Texte"},
			},
		},
	}
	// a numeric id in the target column must never become a label
	backend.byTable["refs"] = append(backend.byTable["refs"], models.Record{"id": "r2", "valeur": 42.0})
	server := startRecordsBackend(t, backend)
	coord, _ := newTestCoordinator(t, server)

	owner := &models.Table{Name: "Docs"}
	field := &models.Field{
		Name:         "Valeur",
		FieldType:    constants.FieldTypeForeignKey,
		RelatedTable: "refs",
	}

	options, err := coord.ForeignKeyOptions(context.Background(), owner, field)
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "Texte", options[0].Display)
}

func TestForeignKeyOptionsEmptyRelatedTable(t *testing.T) {
	backend := &fakeRecordsBackend{}
	server := startRecordsBackend(t, backend)
	coord, _ := newTestCoordinator(t, server)

	owner := &models.Table{Name: "Projets"}
	field := &models.Field{
		Name:         "Contact",
		FieldType:    constants.FieldTypeForeignKey,
		RelatedTable: "vide",
	}

	options, err := coord.ForeignKeyOptions(context.Background(), owner, field)
	require.NoError(t, err)
	assert.Empty(t, options)
}

func TestForeignKeyOptionsCustomResolver(t *testing.T) {
	backend := &fakeRecordsBackend{
		byTable: map[string][]models.Record{
			"refs": {{"id": "r1", "special": "Choisi"}},
		},
	}
	server := startRecordsBackend(t, backend)
	coord, _ := newTestCoordinator(t, server)
	coord.ResolveTargetSlug = func(owner *models.Table, field *models.Field) string {
		return "special"
	}

	owner := &models.Table{Name: "Docs"}
	field := &models.Field{Name: "Ref", FieldType: constants.FieldTypeForeignKey, RelatedTable: "refs"}

	options, err := coord.ForeignKeyOptions(context.Background(), owner, field)
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "Choisi", options[0].Value)
}
