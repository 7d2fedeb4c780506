// SPDX-License-Identifier: Apache-2.0

package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/classify"
	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/dictionary"
	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/pipeline"
)

const vavDocument = `dis:ROOM TEMP 4
bacnetCur:AI39
bacnetDesc:Room temperature
kind:Number
point
unit:°F
---
dis:DMPR CMD
bacnetCur:AO0
bacnetWrite:AO0
bacnetWriteLevel:8
kind:Number
point
writable
cmd
---
dis:Broken
kind:Number
point
---
navName:site info
`

type recordingStore struct {
	mu      sync.Mutex
	names   []string
	err     error
	onStore func()
}

func (s *recordingStore) StoreEquipment(_ context.Context, r pipeline.DocumentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, r.Name)
	if s.onStore != nil {
		s.onStore()
	}
	return s.err
}

func newPipeline(t *testing.T, opts ...pipeline.Option) *pipeline.Pipeline {
	t.Helper()
	tables, err := dictionary.Default()
	require.NoError(t, err)
	p, err := pipeline.NewPipeline(tables, opts...)
	require.NoError(t, err)
	return p
}

// ---------------------------------------------------------------------------
// Process
// ---------------------------------------------------------------------------

func TestPipeline_Process(t *testing.T) {
	tests := []struct {
		name           string
		doc            pipeline.Document
		opts           pipeline.Options
		validateOutput func(t *testing.T, r pipeline.DocumentResult)
	}{
		{
			name: "equipment with points",
			doc:  pipeline.Document{Name: "VVR_2.1.trio", Content: vavDocument},
			validateOutput: func(t *testing.T, r pipeline.DocumentResult) {
				assert.Equal(t, pipeline.StatusSucceeded, r.Status)
				assert.NotEmpty(t, r.DocumentID)
				assert.Equal(t, "VAV", r.Equipment.EquipmentType)
				assert.GreaterOrEqual(t, r.Equipment.Confidence, 0.9)
				assert.Equal(t, 4, r.TotalSections)
				require.Len(t, r.Points, 2)

				room := r.Points[0]
				assert.Equal(t, "AI", room.Source.ObjectKind)
				assert.Equal(t, 39, room.Source.ObjectInstance)
				assert.Equal(t, "°F", room.Source.Unit)
				assert.Equal(t, "VVR_2.1", room.Source.EquipmentName)
				assert.Equal(t, dictionary.FunctionSensor, room.PointFunction)
				assert.Equal(t, "VAV", room.Context.EquipmentType)
				assert.Equal(t, []string{"point", "sensor", "temp"}, room.HaystackTags)
				assert.True(t, room.Compliance.IsValid)

				damper := r.Points[1]
				assert.True(t, damper.Source.IsWritable)
				assert.True(t, damper.Source.IsCommand)
				assert.Equal(t, 8, damper.Source.WritePriority)
				assert.Equal(t, dictionary.FunctionCommand, damper.PointFunction)
				assert.Equal(t, "Damper Command", damper.NormalizedName)
				assert.Equal(t, "cmd", damper.HaystackTags[1])
				assert.Contains(t, damper.HaystackTags, "writable")
				assert.Len(t, damper.Markers, len(damper.HaystackTags))

				require.Len(t, r.Warnings, 1)
				assert.Contains(t, r.Warnings[0], "section 2")
			},
		},
		{
			name: "point limit",
			doc:  pipeline.Document{Name: "VAV-1", Content: vavDocument},
			opts: pipeline.Options{MaxPointsPerEquipment: 1},
			validateOutput: func(t *testing.T, r pipeline.DocumentResult) {
				assert.Equal(t, pipeline.StatusSucceeded, r.Status)
				assert.Len(t, r.Points, 1)
				assert.Contains(t, r.Warnings, "point limit 1 reached, remaining records ignored")
			},
		},
		{
			name: "malformed section tolerated",
			doc:  pipeline.Document{Name: "AHU-1", Content: ":oops\n---\n" + vavDocument},
			validateOutput: func(t *testing.T, r pipeline.DocumentResult) {
				assert.Equal(t, pipeline.StatusSucceeded, r.Status)
				assert.Len(t, r.Points, 2)
				assert.NotEmpty(t, r.Diagnostics)
			},
		},
		{
			name: "malformed section fails strict mode",
			doc:  pipeline.Document{Name: "AHU-1", Content: ":oops\n---\n" + vavDocument},
			opts: pipeline.Options{StrictMode: true},
			validateOutput: func(t *testing.T, r pipeline.DocumentResult) {
				assert.Equal(t, pipeline.StatusFailed, r.Status)
				assert.Contains(t, r.Error, "malformed tag")
				assert.Empty(t, r.Points)
				assert.Equal(t, "AHU", r.Equipment.EquipmentType)
			},
		},
		{
			name: "empty document fails",
			doc:  pipeline.Document{Name: "AHU-2", Content: "  \n"},
			validateOutput: func(t *testing.T, r pipeline.DocumentResult) {
				assert.Equal(t, pipeline.StatusFailed, r.Status)
				assert.Equal(t, "no valid sections found in document", r.Error)
			},
		},
		{
			name: "empty document skipped",
			doc:  pipeline.Document{Name: "AHU-2", Content: "  \n"},
			opts: pipeline.Options{SkipEmptyFiles: true},
			validateOutput: func(t *testing.T, r pipeline.DocumentResult) {
				assert.Equal(t, pipeline.StatusSkipped, r.Status)
				assert.Empty(t, r.Error)
				assert.Empty(t, r.Equipment.EquipmentType)
			},
		},
	}

	p := newPipeline(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validateOutput(t, p.Process(context.Background(), tt.doc, tt.opts))
		})
	}
}

func TestPipeline_ProcessUsesMetadata(t *testing.T) {
	p := newPipeline(t, pipeline.WithMetadata(classify.StaticMetadata{
		"Box-7": {Vendor: "Trane", Model: "UC400"},
	}))

	r := p.Process(context.Background(), pipeline.Document{Name: "Box-7.trio", Content: vavDocument}, pipeline.Options{})
	assert.Equal(t, "Trane", r.VendorName)
	assert.Equal(t, classify.TierVendorModel, r.Equipment.Tier)
	require.NotEmpty(t, r.Points)
	assert.Equal(t, "Trane", r.Points[0].Context.VendorName)
	assert.Contains(t, r.Points[0].AppliedRules, "context:vendor")
}

func TestPipeline_ProcessStoresEquipment(t *testing.T) {
	store := &recordingStore{}
	p := newPipeline(t, pipeline.WithStore(store))

	r := p.Process(context.Background(), pipeline.Document{Name: "AHU-1", Content: vavDocument}, pipeline.Options{})
	assert.True(t, r.Stored)
	assert.Equal(t, []string{"AHU-1"}, store.names)

	store.err = errors.New("disk full")
	r = p.Process(context.Background(), pipeline.Document{Name: "AHU-2", Content: vavDocument}, pipeline.Options{})
	assert.Equal(t, pipeline.StatusFailed, r.Status)
	assert.False(t, r.Stored)
	assert.Equal(t, "storing equipment: disk full", r.Error)
	assert.Len(t, r.Points, 2, "points are kept when storing fails")

	r = p.Process(context.Background(), pipeline.Document{Name: "AHU-3"}, pipeline.Options{})
	assert.Equal(t, pipeline.StatusFailed, r.Status)
	assert.Len(t, store.names, 2, "failed documents are not stored")
}

func TestPipeline_ProcessLogs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	p := newPipeline(t, pipeline.WithLogger(zap.New(core)))

	p.Process(context.Background(), pipeline.Document{Name: "AHU-1", Content: vavDocument}, pipeline.Options{})
	p.Process(context.Background(), pipeline.Document{Name: "AHU-2"}, pipeline.Options{})

	require.Equal(t, 1, logs.FilterMessage("Document processed").Len())
	failed := logs.FilterMessage("Document failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zap.WarnLevel, failed[0].Level)
	assert.Equal(t, "AHU-2", failed[0].ContextMap()["document"])
}

// ---------------------------------------------------------------------------
// ProcessBatch
// ---------------------------------------------------------------------------

func TestPipeline_ProcessBatch(t *testing.T) {
	var docs []pipeline.Document
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("VAV-%d.trio", i)
		content := vavDocument
		switch {
		case i%4 == 3:
			content = ""
		case i%5 == 4:
			name = fmt.Sprintf("AHU-%d.trio", i)
		}
		docs = append(docs, pipeline.Document{Name: name, Content: content})
	}

	p := newPipeline(t)
	batch, err := p.ProcessBatch(context.Background(), docs, pipeline.Options{})
	require.NoError(t, err)

	require.Len(t, batch.Results, len(docs))
	for i, r := range batch.Results {
		assert.Equal(t, docs[i].Name, r.Name, "results keep input order")
	}

	s := batch.Summary
	assert.Equal(t, 12, s.TotalDocuments)
	assert.Equal(t, 9, s.Succeeded)
	assert.Equal(t, 3, s.Failed)
	assert.Equal(t, 18, s.TotalPoints)
	assert.Equal(t, map[string]int{"VAV": 10, "AHU": 2}, s.EquipmentByType)
	require.Len(t, s.CommonErrors, 1)
	assert.Equal(t, pipeline.ErrorCount{Message: "no valid sections found in document", Count: 3}, s.CommonErrors[0])
}

func TestPipeline_ProcessBatchStopsBetweenGroups(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &recordingStore{onStore: cancel}
	p := newPipeline(t, pipeline.WithStore(store))

	docs := make([]pipeline.Document, 5)
	for i := range docs {
		docs[i] = pipeline.Document{Name: fmt.Sprintf("VAV-%d", i), Content: vavDocument}
	}

	batch, err := p.ProcessBatch(ctx, docs, pipeline.Options{Concurrency: 2})
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, batch.Results, 2, "the running group completes")
	assert.Equal(t, 2, batch.Summary.TotalDocuments)
}

func TestPipeline_ProcessBatchCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := newPipeline(t).ProcessBatch(ctx, []pipeline.Document{{Name: "AHU-1", Content: vavDocument}}, pipeline.Options{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, batch.Results)
}

func TestPipeline_ProcessBatchEmpty(t *testing.T) {
	batch, err := newPipeline(t).ProcessBatch(context.Background(), nil, pipeline.Options{})
	require.NoError(t, err)
	assert.Empty(t, batch.Results)
	assert.Zero(t, batch.Summary.TotalDocuments)
}

func TestSummarize_CommonErrorsRanked(t *testing.T) {
	var results []pipeline.DocumentResult
	add := func(msg string, n int) {
		for i := 0; i < n; i++ {
			results = append(results, pipeline.DocumentResult{Status: pipeline.StatusFailed, Error: msg})
		}
	}
	add("a", 1)
	add("b", 3)
	add("c", 2)
	add("d", 1)
	add("e", 1)
	add("f", 1)
	results = append(results, pipeline.DocumentResult{Status: pipeline.StatusSkipped, Error: "ignored"})

	s := pipeline.Summarize(results)
	assert.Equal(t, 9, s.Failed+s.Skipped)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, []pipeline.ErrorCount{
		{Message: "b", Count: 3},
		{Message: "c", Count: 2},
		{Message: "a", Count: 1},
		{Message: "d", Count: 1},
		{Message: "e", Count: 1},
	}, s.CommonErrors)
}
