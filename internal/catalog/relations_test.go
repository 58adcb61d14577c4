package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paysight/pkg/models"
)

func TestRelationNames(t *testing.T) {
	assert.Equal(t, []string{
		"agg_ins", "agg_trans", "agg_user",
		"map_ins", "map_trans", "map_user",
		"top_ins", "top_trans",
	}, RelationNames())
}

func TestLookupRelation(t *testing.T) {
	rel, err := LookupRelation(" Map_User ")
	require.NoError(t, err)
	assert.Equal(t, "map_user", rel.Name)
	assert.True(t, rel.Periodic)

	col, err := rel.Column("number_of_app_opens")
	require.NoError(t, err)
	assert.Equal(t, models.Integer("Number_of_app_opens"), col)

	_, err = LookupRelation("users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agg_trans")
}

func TestRelationKeysAreColumns(t *testing.T) {
	for _, name := range RelationNames() {
		rel, err := LookupRelation(name)
		require.NoError(t, err)
		require.NotEmpty(t, rel.Keys, name)
		for _, key := range rel.Keys {
			_, err := rel.Column(key)
			assert.NoError(t, err, "%s.%s", name, key)
		}
		_, err = rel.Column("Year")
		assert.Equal(t, rel.Periodic, err == nil, name)
	}
}
