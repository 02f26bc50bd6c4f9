package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataMap_Clone(t *testing.T) {
	d := DataMap{"name": "Maria", "count": 2}
	c := d.Clone()
	c["name"] = "Hans"

	assert.Equal(t, "Maria", d["name"])
	assert.Equal(t, "Hans", c["name"])
}

func TestDataMap_PipelineID(t *testing.T) {
	d := DataMap{}
	_, ok := d.PipelineID()
	assert.False(t, ok)

	d.SetPipelineID(42)
	id, ok := d.PipelineID()
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestDataMap_PipelineID_JSONRoundTrip(t *testing.T) {
	d := DataMap{}
	d.SetPipelineID(7)

	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var back DataMap
	require.NoError(t, json.Unmarshal(raw, &back))

	// json.Unmarshal turns the number into float64; the accessor coerces it.
	id, ok := back.PipelineID()
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestDataMap_RetryAttempt(t *testing.T) {
	d := DataMap{}
	assert.Equal(t, 0, d.RetryAttempt())

	d.SetRetryAttempt(3)
	assert.Equal(t, 3, d.RetryAttempt())

	d[KeyRetryAttempt] = float64(5)
	assert.Equal(t, 5, d.RetryAttempt())

	d[KeyRetryAttempt] = "bogus"
	assert.Equal(t, 0, d.RetryAttempt())
}
