package search

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/notes-mcp/internal/domain/note"
)

func folderAttrs(key string) map[string]any {
	return map[string]any{AttrFolder: note.Folder(key)}
}

func TestBuildUserFilterShape(t *testing.T) {
	f := BuildUserFilter("user@x.com")
	raw, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"and","filters":[
		{"type":"gte","key":"folder","value":"user@x.com/"},
		{"type":"lt","key":"folder","value":"user@x.com0"}]}`, string(raw))
}

func TestBuildAdvancedFilterAddsTimestampBounds(t *testing.T) {
	since := time.Unix(1718000000, 0)
	until := time.Unix(1718020800, 0)
	f := BuildAdvancedFilter("u@x.com", TimeRange{Since: &since, Until: &until})
	require.Len(t, f.Filters, 4)
	assert.Equal(t, Comparison{Type: OpGte, Key: AttrTimestamp, Value: int64(1718000000000)}, f.Filters[2])
	assert.Equal(t, Comparison{Type: OpLte, Key: AttrTimestamp, Value: int64(1718020800000)}, f.Filters[3])

	assert.Len(t, BuildAdvancedFilter("u@x.com", TimeRange{}).Filters, 2)
}

func TestFilterIsolatesUsers(t *testing.T) {
	users := []string{"a@x.com", "a@x.co", "a@x.com.evil", "b@x.com", "ü@x.com", "a@x.com0"}
	for _, owner := range users {
		f := BuildUserFilter(owner)
		for _, other := range users {
			for _, key := range []string{
				note.PrimaryKey(other, "id1"),
				note.SidecarKey(other, "id1"),
				note.UserPrefix(other) + "ü/nested.md",
			} {
				assert.Equal(t, owner == other, f.Matches(folderAttrs(key)), "owner=%s key=%s", owner, key)
			}
		}
	}
}

func TestComparisonMatches(t *testing.T) {
	attrs := map[string]any{"timestamp": float64(1500), "folder": "a/"}
	assert.True(t, Comparison{Type: OpGte, Key: "timestamp", Value: int64(1500)}.Matches(attrs))
	assert.False(t, Comparison{Type: OpGt, Key: "timestamp", Value: int64(1500)}.Matches(attrs))
	assert.True(t, Comparison{Type: OpLte, Key: "timestamp", Value: 2000}.Matches(attrs))
	assert.True(t, Comparison{Type: OpEq, Key: "folder", Value: "a/"}.Matches(attrs))
	assert.True(t, Comparison{Type: OpNe, Key: "folder", Value: "b/"}.Matches(attrs))
	assert.False(t, Comparison{Type: OpEq, Key: "missing", Value: "a/"}.Matches(attrs))
	assert.False(t, Comparison{Type: OpEq, Key: "folder", Value: 1}.Matches(attrs))
}

func TestTimeRangeContains(t *testing.T) {
	since := time.Unix(100, 0)
	until := time.Unix(200, 0)
	tr := TimeRange{Since: &since, Until: &until}
	assert.True(t, tr.Contains(100))
	assert.True(t, tr.Contains(200))
	assert.False(t, tr.Contains(99))
	assert.False(t, tr.Contains(201))
	assert.True(t, TimeRange{}.Contains(0))
}

func TestPrefixUpperBound(t *testing.T) {
	assert.Equal(t, "user0", prefixUpperBound("user/"))
	assert.Equal(t, "b", prefixUpperBound("a\xff"))
	assert.Equal(t, "", prefixUpperBound("\xff\xff"))
}
