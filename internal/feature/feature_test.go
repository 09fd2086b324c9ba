package feature

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/paramdoc/internal/document"
	"github.com/vk/paramdoc/internal/kernel"
	"github.com/vk/paramdoc/internal/kernel/stub"
	"github.com/vk/paramdoc/internal/object"
	"github.com/vk/paramdoc/internal/property"
)

func newDoc(t *testing.T) (*document.Document, *stub.Kernel) {
	t.Helper()
	k := stub.New()
	reg := document.NewRegistry()
	require.NoError(t, Register(reg, k))
	return document.New("test", reg), k
}

func shapeOf(t *testing.T, d *document.Document, id string) kernel.Shape {
	t.Helper()
	o, ok := d.Object(id)
	require.True(t, ok)
	p, ok := o.Properties().Get(ShapeProperty)
	require.True(t, ok)
	require.NotNil(t, p.ShapeValue())
	return p.ShapeValue().(kernel.Shape)
}

func TestRegister(t *testing.T) {
	k := stub.New()
	reg := document.NewRegistry()
	require.NoError(t, Register(reg, k))

	for _, name := range []string{"Part::Box", "Part::Cylinder", "Part::Fusion", "Part::Translate"} {
		_, ok := reg.Lookup(name)
		assert.True(t, ok, name)
	}

	// Double registration is a programmer error.
	assert.Error(t, Register(reg, k))
}

func TestBox(t *testing.T) {
	ctx := context.Background()
	d, _ := newDoc(t)

	box, err := d.Create("Part::Box", "")
	require.NoError(t, err)
	assert.Equal(t, "Box001", box.ID())

	// Defaults make the object executable out of the box.
	outcomes, err := d.Recompute(ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, document.OutcomeOK, outcomes[0].Kind)

	_, max := shapeOf(t, d, "Box001").BoundingBox()
	assert.Equal(t, [3]float64{10, 10, 10}, max)

	// The output slot is not writable from outside.
	err = box.Properties().SetShape(ShapeProperty, nil)
	var perr *property.PermissionError
	assert.ErrorAs(t, err, &perr)

	require.NoError(t, d.SetProperty("Box001", "Length", cty.NumberFloatVal(2)))
	_, err = d.Recompute(ctx)
	require.NoError(t, err)
	_, max = shapeOf(t, d, "Box001").BoundingBox()
	assert.Equal(t, [3]float64{2, 10, 10}, max)
}

func TestBoxRejectsBadDimensions(t *testing.T) {
	ctx := context.Background()
	d, _ := newDoc(t)

	box, err := d.Create("Part::Box", "")
	require.NoError(t, err)
	require.NoError(t, d.SetProperty(box.ID(), "Height", cty.NumberFloatVal(-1)))

	outcomes, err := d.Recompute(ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, document.OutcomeFailed, outcomes[0].Kind)

	var gerr *kernel.GeometryError
	assert.ErrorAs(t, outcomes[0].Err, &gerr)
	assert.Equal(t, object.Error, box.Status())
}

func TestCylinder(t *testing.T) {
	ctx := context.Background()
	d, _ := newDoc(t)

	cyl, err := d.Create("Part::Cylinder", "")
	require.NoError(t, err)
	assert.Equal(t, "Cylinder001", cyl.ID())
	require.NoError(t, d.SetProperty(cyl.ID(), "Radius", cty.NumberFloatVal(3)))
	require.NoError(t, d.SetProperty(cyl.ID(), "Height", cty.NumberFloatVal(8)))

	_, err = d.Recompute(ctx)
	require.NoError(t, err)

	min, max := shapeOf(t, d, cyl.ID()).BoundingBox()
	assert.Equal(t, [3]float64{-3, -3, -4}, min)
	assert.Equal(t, [3]float64{3, 3, 4}, max)
}

func TestFusion(t *testing.T) {
	ctx := context.Background()
	d, _ := newDoc(t)

	_, err := d.Create("Part::Box", "")
	require.NoError(t, err)
	_, err = d.Create("Part::Cylinder", "")
	require.NoError(t, err)
	fusion, err := d.Create("Part::Fusion", "")
	require.NoError(t, err)
	require.NoError(t, d.SetProperty(fusion.ID(), "Base", property.LinkRef{Target: "Box001"}))
	require.NoError(t, d.SetProperty(fusion.ID(), "Tool", property.LinkRef{Target: "Cylinder001"}))

	outcomes, err := d.Recompute(ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	for _, oc := range outcomes {
		assert.Equal(t, document.OutcomeOK, oc.Kind, oc.ObjectID)
	}

	// Bounding box covers both operands: box (0..10)^3, cylinder r=2 h=10.
	min, max := shapeOf(t, d, fusion.ID()).BoundingBox()
	assert.Equal(t, [3]float64{-2, -2, -5}, min)
	assert.Equal(t, [3]float64{10, 10, 10}, max)
}

func TestFusionWithoutLinksFails(t *testing.T) {
	ctx := context.Background()
	d, _ := newDoc(t)

	_, err := d.Create("Part::Fusion", "")
	require.NoError(t, err)

	outcomes, err := d.Recompute(ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, document.OutcomeFailed, outcomes[0].Kind)
	assert.Contains(t, outcomes[0].Err.Error(), "Base")
}

func TestTranslate(t *testing.T) {
	ctx := context.Background()
	d, _ := newDoc(t)

	_, err := d.Create("Part::Box", "")
	require.NoError(t, err)
	tr, err := d.Create("Part::Translate", "")
	require.NoError(t, err)
	require.NoError(t, d.SetProperty(tr.ID(), "Source", property.LinkRef{Target: "Box001"}))
	require.NoError(t, d.SetProperty(tr.ID(), "X", cty.NumberFloatVal(5)))

	_, err = d.Recompute(ctx)
	require.NoError(t, err)

	min, max := shapeOf(t, d, tr.ID()).BoundingBox()
	assert.Equal(t, [3]float64{5, 0, 0}, min)
	assert.Equal(t, [3]float64{15, 10, 10}, max)
}

func TestParametricChain(t *testing.T) {
	// A formula drives one box from another; editing the driver reflows
	// through the fusion.
	ctx := context.Background()
	d, _ := newDoc(t)

	_, err := d.Create("Part::Box", "")
	require.NoError(t, err)
	_, err = d.Create("Part::Box", "")
	require.NoError(t, err)
	fusion, err := d.Create("Part::Fusion", "")
	require.NoError(t, err)

	require.NoError(t, d.SetProperty("Box001", "Length", cty.NumberFloatVal(4)))
	require.NoError(t, d.BindExpression("Box002", "Length", "Box001.Length * 2"))
	require.NoError(t, d.SetProperty(fusion.ID(), "Base", property.LinkRef{Target: "Box001"}))
	require.NoError(t, d.SetProperty(fusion.ID(), "Tool", property.LinkRef{Target: "Box002"}))

	_, err = d.Recompute(ctx)
	require.NoError(t, err)
	_, max := shapeOf(t, d, fusion.ID()).BoundingBox()
	assert.Equal(t, 8.0, max[0])

	require.NoError(t, d.SetProperty("Box001", "Length", cty.NumberFloatVal(10)))
	_, err = d.Recompute(ctx)
	require.NoError(t, err)
	_, max = shapeOf(t, d, fusion.ID()).BoundingBox()
	assert.Equal(t, 20.0, max[0])
}
