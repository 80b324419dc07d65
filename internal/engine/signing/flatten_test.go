package signing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quotaRequest() *Mapping {
	return NewMapping().
		Set("params", Object(NewMapping().
			Set("cmdSet", Int(11)).
			Set("eps", Int(0)).
			Set("id", Int(24)))).
		Set("sn", String("123456789"))
}

func TestFlatten_Nested(t *testing.T) {
	flat, err := Flatten(quotaRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{"params.cmdSet", "params.eps", "params.id", "sn"}, flat.Keys())
	assert.Equal(t, map[string]string{
		"params.cmdSet": "11",
		"params.eps":    "0",
		"params.id":     "24",
		"sn":            "123456789",
	}, flat.Map())

	v, ok := flat.Get("params.cmdSet")
	require.True(t, ok)
	assert.Equal(t, KindInt, v.Kind())
}

func TestFlatten_SingletonSequenceCollapses(t *testing.T) {
	data := NewMapping().
		Set("params", Object(NewMapping().Set("quotas", Strings("20_1.supplyPriority")))).
		Set("sn", String("123456789"))

	flat, err := Flatten(data)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"params.quotas": "20_1.supplyPriority",
		"sn":            "123456789",
	}, flat.Map())
}

func TestFlatten_SequenceIndexes(t *testing.T) {
	tests := []struct {
		name string
		data *Mapping
		want []string
	}{
		{
			name: "strings",
			data: NewMapping().Set("list", Strings("a", "b", "c")),
			want: []string{"list", "list.1", "list.2"},
		},
		{
			name: "mappings",
			data: NewMapping().Set("items", List(
				Object(NewMapping().Set("id", Int(1))),
				Object(NewMapping().Set("id", Int(2))),
			)),
			want: []string{"items.id", "items.1.id"},
		},
		{
			name: "nested sequences",
			data: NewMapping().Set("grid", List(Strings("a", "b"), Strings("c"))),
			want: []string{"grid", "grid.1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flat, err := Flatten(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, flat.Keys())
		})
	}
}

func TestFlatten_MappingKeyZeroIsNamed(t *testing.T) {
	data := NewMapping().
		Set("params", Object(NewMapping().Set("0", String("x")))).
		Set("list", Strings("y"))

	flat, err := Flatten(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"params.0", "list"}, flat.Keys())
}

func TestFlatten_CollisionKeepsFirstPositionAndLastValue(t *testing.T) {
	data := NewMapping().
		Set("a", Object(NewMapping().Set("b", Int(1)))).
		Set("z", String("mid")).
		Set("a.b", Int(2))

	flat, err := Flatten(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.b", "z"}, flat.Keys())
	v, _ := flat.Get("a.b")
	assert.Equal(t, "2", v.Text())
}

func TestFlatten_LeafCount(t *testing.T) {
	data := NewMapping().
		Set("sn", String("HW51")).
		Set("enabled", Bool(true)).
		Set("params", Object(NewMapping().
			Set("quotas", Strings("a", "b", "c")).
			Set("inner", Object(NewMapping().Set("x", Int(-1)).Set("y", String("")))))).
		Set("empty", Object(NewMapping())).
		Set("none", List())

	flat, err := Flatten(data)
	require.NoError(t, err)
	assert.Equal(t, 7, flat.Len())
}

func TestFlatten_TrailingDotsStripped(t *testing.T) {
	data := NewMapping().Set("p", Object(NewMapping().Set("a..", String("v"))))

	flat, err := Flatten(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"p.a"}, flat.Keys())
}

func TestFlatten_Empty(t *testing.T) {
	flat, err := Flatten(NewMapping())
	require.NoError(t, err)
	assert.Equal(t, 0, flat.Len())

	flat, err = Flatten(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, flat.Len())
}

func TestFlatten_InvalidValue(t *testing.T) {
	data := NewMapping().Set("params", Object(NewMapping().Set("bad", Value{})))

	_, err := Flatten(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInputType))
	assert.Contains(t, err.Error(), "params.bad")
}

func TestFlatten_Cycle(t *testing.T) {
	m := NewMapping().Set("sn", String("x"))
	m.Set("self", Object(m))

	_, err := Flatten(m)
	assert.ErrorIs(t, err, ErrCyclicInput)
}
