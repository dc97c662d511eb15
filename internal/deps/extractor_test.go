package deps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/denismitr/migraph/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const djangoMigration = `from django.conf import settings
from django.db import migrations, models


class Migration(migrations.Migration):

    dependencies = [
        migrations.swappable_dependency(settings.AUTH_USER_MODEL),
        ("billing", "0002_add_table"),
        # ("legacy", "0001_initial"),
        ('auth', '0012_alter_user_first_name_max_length'),
    ]

    operations = [
        migrations.CreateModel(name="Order", fields=[]),
    ]
`

func Test_DependenciesCanBeExtractedFromSource(t *testing.T) {
	tt := []struct {
		name    string
		source  string
		deps    []migration.Dependency
		skipped []string
	}{
		{
			name:   "django migration with swappable marker and comment",
			source: djangoMigration,
			deps: []migration.Dependency{
				{App: "billing", Name: "0002_add_table"},
				{App: "auth", Name: "0012_alter_user_first_name_max_length"},
			},
			skipped: []string{"migrations.swappable_dependency(settings.AUTH_USER_MODEL"},
		},
		{
			name:   "root migration with empty list",
			source: "class Migration(migrations.Migration):\n    initial = True\n    dependencies = []\n",
		},
		{
			name:   "no dependency list at all",
			source: "from django.db import migrations\n",
		},
		{
			name:   "single line list with several tuples",
			source: `    dependencies = [("billing", "0001_init"), ("orders", "0003_items")]`,
			deps: []migration.Dependency{
				{App: "billing", Name: "0001_init"},
				{App: "orders", Name: "0003_items"},
			},
		},
		{
			name:   "whitespace around the comma and equals sign",
			source: "dependencies   =\t[\n  ( \"billing\" ,\t\"0001_init\" ) ,\n]\n",
			deps:   []migration.Dependency{{App: "billing", Name: "0001_init"}},
		},
		{
			name:   "only the first list is recognized",
			source: "dependencies = [\n(\"a\", \"0001_x\"),\n]\ndependencies = [\n(\"b\", \"0001_y\"),\n]\n",
			deps:   []migration.Dependency{{App: "a", Name: "0001_x"}},
		},
		{
			name:   "tuples outside the list are ignored",
			source: "replaces = [(\"old\", \"0001_x\")]\ndependencies = [\n(\"a\", \"0001_x\"),\n]\n",
			deps:   []migration.Dependency{{App: "a", Name: "0001_x"}},
		},
		{
			name:    "malformed entries are skipped one by one",
			source:  "dependencies = [\n(\"billing\", \"0001-init\"),\n(\"billing\" \"0002_x\"),\n(\"orders\", \"0001_init\"),\n]\n",
			deps:    []migration.Dependency{{App: "orders", Name: "0001_init"}},
			skipped: []string{`"billing", "0001-init"`, `"billing" "0002_x"`},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			result, err := NewExtractor("").Extract(strings.NewReader(tc.source))
			require.NoError(t, err)

			assert.Equal(t, tc.deps, result.Dependencies)
			assert.Equal(t, tc.skipped, result.Skipped)
		})
	}
}

func Test_DependenciesCanBeExtractedFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0001_initial.py")
	require.NoError(t, os.WriteFile(path, []byte(djangoMigration), 0644))

	result, err := NewExtractor(DefaultAssignment).ExtractFile(path)
	require.NoError(t, err)
	assert.Len(t, result.Dependencies, 2)

	_, err = NewExtractor(DefaultAssignment).ExtractFile(filepath.Join(dir, "missing.py"))
	assert.Error(t, err)
}

func Test_BlockScanner(t *testing.T) {
	t.Run("captures from the opening line to the closing bracket", func(t *testing.T) {
		b, err := ScanBlock(strings.NewReader(djangoMigration), DefaultAssignment)
		require.NoError(t, err)

		assert.True(t, b.Found)
		require.Len(t, b.Lines, 6)
		assert.Equal(t, "    dependencies = [", b.Lines[0])
		assert.Equal(t, "    ]", b.Lines[5])
	})

	t.Run("longer identifiers ending in the assignment name do not open a list", func(t *testing.T) {
		b, err := ScanBlock(strings.NewReader("run_dependencies = [\n(\"a\", \"b\")\n]\n"), DefaultAssignment)
		require.NoError(t, err)
		assert.False(t, b.Found)
		assert.Empty(t, b.Lines)
	})

	t.Run("unterminated list runs to the end of the source", func(t *testing.T) {
		b, err := ScanBlock(strings.NewReader("dependencies = [\n(\"a\", \"b\"),\n"), DefaultAssignment)
		require.NoError(t, err)
		assert.True(t, b.Found)
		assert.Len(t, b.Lines, 2)
	})
}

func Test_TupleGrammar(t *testing.T) {
	tt := []struct {
		line string
		deps []migration.Dependency
	}{
		{line: `("billing", "0001_init"),`, deps: []migration.Dependency{{App: "billing", Name: "0001_init"}}},
		{line: `('billing','0001_init'),`, deps: []migration.Dependency{{App: "billing", Name: "0001_init"}}},
		{line: `("auth", "__first__"),`, deps: []migration.Dependency{{App: "auth", Name: "__first__"}}},
		{line: `("billing', "0001_init"),`},
		{line: `("", "0001_init"),`},
		{line: `("billing", 1),`},
		{line: `migrations.swappable_dependency(settings.AUTH_USER_MODEL),`},
		{line: `# ("billing", "0001_init"),`},
		{line: `("ünïcode", "0001_init"),`, deps: []migration.Dependency{{App: "ünïcode", Name: "0001_init"}}},
	}

	for _, tc := range tt {
		t.Run(tc.line, func(t *testing.T) {
			assert.Equal(t, tc.deps, ParseTuples(tc.line))
		})
	}
}
