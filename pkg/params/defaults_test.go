package params

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsTable(t *testing.T) {
	d := newTestDefaults(t)

	assert.Equal(t, "test", d.Name())
	assert.Equal(t, 6, d.Len())
	assert.Equal(t, []Field{fLotSize, fOpenMethod, fOpenFilter, fOpenLevel, fMaxSpread, fIndiFile}, d.Fields())

	v, err := d.GetDefault(fMaxSpread)
	require.NoError(t, err)
	assert.Equal(t, int64(4), v.Int())

	v, err = d.GetDefault(fIndiFile)
	require.NoError(t, err)
	assert.Equal(t, testIndicator, v.Text())
}

func TestDefaultsTable_GetDefault_UnknownField(t *testing.T) {
	d := newTestDefaults(t)

	_, err := d.GetDefault("lot_sizee")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownField))
	assert.Contains(t, err.Error(), "lot_sizee")
}

func TestNewDefaultsTable_DuplicateField(t *testing.T) {
	_, err := NewDefaultsTable("dup",
		IntField("shift", 0),
		IntField("shift", 1),
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateOverride))
}

func TestNewDefaultsTable_InvalidDefault(t *testing.T) {
	_, err := NewDefaultsTable("bad", FloatField("lot_size", -1, NonNegative()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestDefaultsTable_CheckLayer(t *testing.T) {
	d := newTestDefaults(t)

	t.Run("converts integral floats", func(t *testing.T) {
		l, err := d.CheckLayer("test", Layer{fMaxSpread: Float(3), fOpenLevel: Int(2)})
		require.NoError(t, err)
		assert.Equal(t, KindInt, l[fMaxSpread].Kind())
		assert.Equal(t, KindFloat, l[fOpenLevel].Kind())
		assert.Equal(t, 2.0, l[fOpenLevel].Float())
	})

	t.Run("rejects fractional ints", func(t *testing.T) {
		_, err := d.CheckLayer("test", Layer{fMaxSpread: Float(3.5)})
		assert.True(t, errors.Is(err, ErrInvalidValue))
	})

	t.Run("reports every unknown field", func(t *testing.T) {
		_, err := d.CheckLayer("test", Layer{"foo": Int(1), "bar": Int(2)})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownField))
		assert.Contains(t, err.Error(), "foo")
		assert.Contains(t, err.Error(), "bar")
	})
}

func TestDefaultsTable_ParseAndDecodeLayer(t *testing.T) {
	d := newTestDefaults(t)

	l, err := d.ParseLayer("db", map[string]string{"signal_open_level": "1.5", "max_spread": "2"})
	require.NoError(t, err)
	assert.Equal(t, 1.5, l[fOpenLevel].Float())
	assert.Equal(t, int64(2), l[fMaxSpread].Int())

	l, err = d.DecodeLayer("yaml", map[string]interface{}{"signal_open_method": -3, "lot_size": 0.1})
	require.NoError(t, err)
	assert.Equal(t, int64(-3), l[fOpenMethod].Int())
	assert.Equal(t, 0.1, l[fLotSize].Float())

	_, err = d.DecodeLayer("yaml", map[string]interface{}{"max_spread": "wide"})
	assert.True(t, errors.Is(err, ErrInvalidValue))
}
