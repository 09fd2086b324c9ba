package property

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestAdd(t *testing.T) {
	c := NewContainer()

	p, err := c.Add("Length", Float)
	require.NoError(t, err)
	assert.Equal(t, "Length", p.Name())
	assert.Equal(t, Float, p.Kind())
	assert.Equal(t, cty.NilVal, p.Value())
	assert.False(t, p.Touched())

	_, err = c.Add("Length", Integer)
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Length", dup.Property)

	_, err = c.Add("Width", Float)
	require.NoError(t, err)
	assert.Equal(t, []string{"Length", "Width"}, c.Names())
}

func TestSet(t *testing.T) {
	t.Run("accepts matching scalar", func(t *testing.T) {
		c := NewContainer()
		p, _ := c.Add("Length", Float)

		require.NoError(t, c.Set("Length", cty.NumberFloatVal(4.5)))
		assert.True(t, p.Value().RawEquals(cty.NumberFloatVal(4.5)))
		assert.True(t, p.Touched())
	})

	t.Run("rejects mismatched type with no state change", func(t *testing.T) {
		c := NewContainer()
		p, _ := c.Add("Length", Float)
		require.NoError(t, c.Set("Length", cty.NumberFloatVal(4.5)))

		err := c.Set("Length", cty.StringVal("four"))
		var mismatch *TypeMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "Length", mismatch.Property)
		assert.True(t, p.Value().RawEquals(cty.NumberFloatVal(4.5)))
	})

	t.Run("rejects null", func(t *testing.T) {
		c := NewContainer()
		c.Add("Name", String)

		err := c.Set("Name", cty.NullVal(cty.String))
		var mismatch *TypeMismatchError
		assert.ErrorAs(t, err, &mismatch)
	})

	t.Run("integer kind requires whole numbers", func(t *testing.T) {
		c := NewContainer()
		c.Add("Count", Integer)

		require.NoError(t, c.Set("Count", cty.NumberIntVal(3)))

		err := c.Set("Count", cty.NumberFloatVal(3.5))
		var mismatch *TypeMismatchError
		assert.ErrorAs(t, err, &mismatch)
	})

	t.Run("unknown property", func(t *testing.T) {
		c := NewContainer()
		err := c.Set("nope", cty.NumberFloatVal(1))
		var unknown *UnknownPropertyError
		assert.ErrorAs(t, err, &unknown)
	})
}

func TestReadOnly(t *testing.T) {
	c := NewContainer()
	p, _ := c.Add("Shape", Shape)
	p.SetReadOnly(true)

	err := c.SetShape("Shape", struct{}{})
	var perm *PermissionError
	require.ErrorAs(t, err, &perm)
	assert.Nil(t, p.ShapeValue())

	// The execute window is the one legal writer.
	c.BeginExecute()
	require.NoError(t, c.SetShape("Shape", "handle"))
	c.EndExecute()
	assert.Equal(t, "handle", p.ShapeValue())

	err = c.SetShape("Shape", "again")
	assert.ErrorAs(t, err, &perm)
}

func TestSetLinks(t *testing.T) {
	t.Run("link holds at most one reference", func(t *testing.T) {
		c := NewContainer()
		c.Add("Base", Link)

		require.NoError(t, c.SetLinks("Base", []LinkRef{{Target: "Box001"}}))

		err := c.SetLinks("Base", []LinkRef{{Target: "a"}, {Target: "b"}})
		var mismatch *TypeMismatchError
		assert.ErrorAs(t, err, &mismatch)
	})

	t.Run("link list holds many", func(t *testing.T) {
		c := NewContainer()
		p, _ := c.Add("Group", LinkList)

		refs := []LinkRef{{Target: "a"}, {Target: "b", SubElement: "Face3"}}
		require.NoError(t, c.SetLinks("Group", refs))
		assert.Equal(t, refs, p.Links())
		assert.True(t, p.Touched())
	})

	t.Run("scalar kinds reject links", func(t *testing.T) {
		c := NewContainer()
		c.Add("Length", Float)

		err := c.SetLinks("Length", []LinkRef{{Target: "a"}})
		var mismatch *TypeMismatchError
		assert.ErrorAs(t, err, &mismatch)
	})
}

func TestObservers(t *testing.T) {
	c := NewContainer()
	c.Add("Length", Float)

	var seen []string
	c.Observe(func(name string) { seen = append(seen, name) })

	require.NoError(t, c.Set("Length", cty.NumberFloatVal(1)))
	require.Error(t, c.Set("Length", cty.True)) // rejected sets do not notify
	assert.Equal(t, []string{"Length"}, seen)
}

func TestSnapshotRestore(t *testing.T) {
	c := NewContainer()
	p, _ := c.Add("Length", Float)
	require.NoError(t, c.Set("Length", cty.NumberFloatVal(2)))
	c.ClearTouched()

	v, ok := c.Snapshot("Length")
	require.True(t, ok)

	require.NoError(t, c.Set("Length", cty.NumberFloatVal(9)))
	require.NoError(t, c.Restore("Length", v))
	assert.True(t, p.Value().RawEquals(cty.NumberFloatVal(2)))
	assert.True(t, p.Touched())

	// Restore bypasses the read-only gate.
	p.SetReadOnly(true)
	require.NoError(t, c.Restore("Length", v))

	_, ok = c.Snapshot("nope")
	assert.False(t, ok)
}

func TestClearTouched(t *testing.T) {
	c := NewContainer()
	p, _ := c.Add("Length", Float)
	require.NoError(t, c.Set("Length", cty.NumberFloatVal(1)))
	require.True(t, p.Touched())

	c.ClearTouched()
	assert.False(t, p.Touched())
}

func TestKindRoundTrip(t *testing.T) {
	for _, k := range []Kind{Float, Integer, Bool, String, Link, LinkList, Shape} {
		got, ok := KindFromString(k.String())
		require.True(t, ok, k.String())
		assert.Equal(t, k, got)
	}
	_, ok := KindFromString("quaternion")
	assert.False(t, ok)
}

func TestScalar(t *testing.T) {
	assert.True(t, Float.Scalar())
	assert.True(t, String.Scalar())
	assert.False(t, Link.Scalar())
	assert.False(t, Shape.Scalar())
	assert.Equal(t, cty.NilType, Shape.CtyType())
	assert.Equal(t, cty.Number, Integer.CtyType())
}
