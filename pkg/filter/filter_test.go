package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	id     string
	status string
}

func statusOf(i item) string { return i.status }

func ids(items []item) []string {
	out := make([]string, len(items))
	for n, i := range items {
		out[n] = i.id
	}
	return out
}

var workflows = []item{
	{"a", "success"},
	{"b", "failed"},
	{"c", "running"},
	{"d", "success"},
	{"e", "canceled"},
}

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		latest  int
		want    []string
	}{
		{name: "no rules keeps everything", want: []string{"a", "b", "c", "d", "e"}},
		{name: "include", include: []string{"^success$"}, want: []string{"a", "d"}},
		{name: "exclude wins over include", include: []string{".*"}, exclude: []string{"failed|canceled"}, want: []string{"a", "c", "d"}},
		{name: "latest keeps order", latest: 2, want: []string{"a", "b"}},
		{name: "latest after filtering", exclude: []string{"success"}, latest: 2, want: []string{"b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(tt.include, tt.exclude, tt.latest)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(Apply(f, workflows, statusOf)))
		})
	}
}

func TestNilFilter(t *testing.T) {
	var f *Filter
	assert.True(t, f.Match("anything"))
	assert.Len(t, Apply(f, workflows, statusOf), len(workflows))
}

func TestNewFilterInvalid(t *testing.T) {
	_, err := NewFilter([]string{"("}, nil, 0)
	assert.Error(t, err)

	_, err = NewFilter(nil, []string{"[a-"}, 0)
	assert.Error(t, err)
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"success", "failed"}, ParseList(" success, ,failed "))
	assert.Nil(t, ParseList(""))
}
