package main

import (
	"testing"

	"gotidy/domain/datareadiness/dates"
	"gotidy/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStem(t *testing.T) {
	assert.Equal(t, "employees", stem("data/employees.csv"))
	assert.Equal(t, "employees", stem("/tmp/employees.csv.gz"))
	assert.Equal(t, "noext", stem("noext"))
	assert.Equal(t, ".hidden", stem(".hidden"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"%Y/%m/%d", "%Y-%m-%d"}, splitList(" %Y/%m/%d , %Y-%m-%d ,"))
	assert.Nil(t, splitList(""))
}

func TestPipelineFlagsRequest(t *testing.T) {
	cfg := &config.Config{Pipeline: config.PipelineConfig{
		Seed:        42,
		DateFormats: []string{"%Y-%m-%d"},
		DateMode:    dates.ModeMixed,
		FillValue:   "Unknown",
		Policy:      "backfill_then_fill",
	}}

	t.Run("falls back to configuration", func(t *testing.T) {
		var f pipelineFlags
		req, err := f.request(cfg, "a.csv")
		require.NoError(t, err)
		assert.Equal(t, "a.csv", req.Source)
		assert.Equal(t, "backfill_then_fill", req.Policy)
		assert.Equal(t, "Unknown", req.FillValue)
		assert.Equal(t, []string{"%Y-%m-%d"}, req.DateFormats)
		assert.Equal(t, dates.ModeMixed, req.DateMode)
		assert.Equal(t, int64(42), req.Seed)
	})

	t.Run("flags win", func(t *testing.T) {
		f := pipelineFlags{policy: "drop_rows", fill: "0", formats: "%d/%m/%Y", mode: "inferred", seed: 7}
		req, err := f.request(cfg, "a.csv")
		require.NoError(t, err)
		assert.Equal(t, "drop_rows", req.Policy)
		assert.Equal(t, "0", req.FillValue)
		assert.Equal(t, []string{"%d/%m/%Y"}, req.DateFormats)
		assert.Equal(t, dates.ModeInferred, req.DateMode)
		assert.Equal(t, int64(7), req.Seed)
	})

	t.Run("bad mode", func(t *testing.T) {
		f := pipelineFlags{mode: "guess"}
		_, err := f.request(cfg, "a.csv")
		assert.Error(t, err)
	})
}
