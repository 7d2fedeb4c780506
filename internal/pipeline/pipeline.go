// SPDX-License-Identifier: Apache-2.0

// Package pipeline runs trio documents through parsing, equipment
// classification, point normalization and tagging, one document at a time
// or in batches.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/classify"
	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/dictionary"
	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/normalize"
	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/tagging"
	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/trio"
)

const DefaultConcurrency = 5

// Document is one named trio file.
type Document struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Options control how documents are processed.
type Options struct {
	StrictMode bool `yaml:"strictMode" json:"strictMode"`
	// MaxPointsPerEquipment caps the points kept per document; zero means no
	// limit.
	MaxPointsPerEquipment int  `yaml:"maxPointsPerEquipment" json:"maxPointsPerEquipment"`
	SkipEmptyFiles        bool `yaml:"skipEmptyFiles" json:"skipEmptyFiles"`
	// Concurrency is the number of documents processed together in a batch.
	Concurrency int `yaml:"concurrency" json:"concurrency"`
}

func (o Options) concurrency() int {
	if o.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return o.Concurrency
}

// Status is the outcome of one document.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// PointResult is a normalized point with its markers and compliance report.
type PointResult struct {
	normalize.Point
	Markers    []tagging.Marker `json:"markers"`
	Compliance tagging.Report   `json:"compliance"`
}

// DocumentResult carries everything learned about one document. Failures are
// recorded here rather than returned.
type DocumentResult struct {
	DocumentID     string            `json:"documentId"`
	Name           string            `json:"name"`
	Status         Status            `json:"status"`
	Equipment      classify.Result   `json:"equipment"`
	VendorName     string            `json:"vendorName,omitempty"`
	TotalSections  int               `json:"totalSections"`
	Points         []PointResult     `json:"points"`
	Diagnostics    []trio.Diagnostic `json:"diagnostics"`
	Warnings       []string          `json:"warnings"`
	Error          string            `json:"error,omitempty"`
	Stored         bool              `json:"stored"`
	ProcessingTime time.Duration     `json:"processingTime"`
}

// Store persists processed equipment. Implementations live outside this
// package.
type Store interface {
	StoreEquipment(ctx context.Context, result DocumentResult) error
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	classifier *classify.Classifier
	engine     *normalize.Engine
	tagger     *tagging.Tagger
	validator  *tagging.Validator

	metadata classify.MetadataLookup
	cache    *classify.Cache
	store    Store
	metrics  *Metrics
	logger   *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithStore(s Store) Option {
	return func(p *Pipeline) {
		p.store = s
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithMetadata supplies vendor metadata for classification and
// normalization context.
func WithMetadata(m classify.MetadataLookup) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.metadata = m
		}
	}
}

// WithClassifierCache shares a classifier cache between pipelines.
func WithClassifierCache(c *classify.Cache) Option {
	return func(p *Pipeline) {
		p.cache = c
	}
}

// NewPipeline creates a Pipeline over the given dictionary tables.
func NewPipeline(tables *dictionary.Tables, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		metadata: classify.StaticMetadata(nil),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	var err error
	classifyOpts := []classify.Option{
		classify.WithMetadata(p.metadata),
		classify.WithCache(p.cache),
	}
	if p.metrics != nil {
		classifyOpts = append(classifyOpts, classify.WithCacheObserver(p.metrics))
	}
	if p.classifier, err = classify.New(tables, classifyOpts...); err != nil {
		return nil, err
	}
	if p.engine, err = normalize.New(tables); err != nil {
		return nil, err
	}
	if p.tagger, err = tagging.NewTagger(tables); err != nil {
		return nil, err
	}
	if p.validator, err = tagging.NewValidator(tables); err != nil {
		return nil, err
	}
	return p, nil
}

// Classifier returns the equipment classifier used by the pipeline.
func (p *Pipeline) Classifier() *classify.Classifier {
	return p.classifier
}

// Process runs one document through every stage. Problems in one section or
// point never stop the others; in strict mode the first structural parse
// error fails the document.
func (p *Pipeline) Process(ctx context.Context, doc Document, opts Options) (result DocumentResult) {
	start := time.Now()
	result = DocumentResult{
		Name:        doc.Name,
		Points:      []PointResult{},
		Diagnostics: []trio.Diagnostic{},
		Warnings:    []string{},
	}
	defer func() {
		result.ProcessingTime = time.Since(start)
		p.metrics.observeDocument(result)
		p.logResult(result)
	}()

	if opts.SkipEmptyFiles && strings.TrimSpace(doc.Content) == "" {
		result.Status = StatusSkipped
		return result
	}

	result.Equipment = p.classifier.Classify(doc.Name)
	if md, ok := p.metadata.Lookup(result.Equipment.EquipmentName); ok {
		result.VendorName = md.Vendor
	}

	parsed, err := trio.Parse(ctx, "", doc.Content, trio.Options{StrictMode: opts.StrictMode})
	if parsed != nil {
		result.DocumentID = parsed.DocumentID
		result.TotalSections = parsed.TotalSections
		if parsed.Diagnostics != nil {
			result.Diagnostics = parsed.Diagnostics
		}
	}
	if err != nil {
		return fail(result, err)
	}
	if !parsed.IsValid {
		return fail(result, errors.New(firstError(parsed)))
	}

	p.processPoints(&result, parsed, opts)

	result.Status = StatusSucceeded
	if p.store != nil {
		if err := p.store.StoreEquipment(ctx, result); err != nil {
			return fail(result, fmt.Errorf("storing equipment: %w", err))
		}
		result.Stored = true
	}
	return result
}

func (p *Pipeline) processPoints(result *DocumentResult, parsed *trio.ParseResult, opts Options) {
	pctx := normalize.Context{
		EquipmentType: result.Equipment.EquipmentType,
		EquipmentName: result.Equipment.EquipmentName,
		VendorName:    result.VendorName,
	}

	for _, section := range parsed.Sections {
		if section.Record == nil {
			continue
		}
		point, ok := trio.Project(section.Record, result.Equipment.EquipmentName)
		if !ok {
			if section.Record.Has(trio.TagPoint) {
				result.Warnings = append(result.Warnings, fmt.Sprintf(
					"section %d (line %d): point record lacks a display name, kind or BACnet reference",
					section.Index, section.StartLine))
			}
			continue
		}
		if opts.MaxPointsPerEquipment > 0 && len(result.Points) >= opts.MaxPointsPerEquipment {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"point limit %d reached, remaining records ignored", opts.MaxPointsPerEquipment))
			return
		}

		c := pctx
		c.Units = point.Unit
		n := p.engine.Normalize(point, c)
		if !n.Success {
			result.Warnings = append(result.Warnings, fmt.Sprintf("point %q kept unnormalized: %s", n.OriginalName, n.Error))
		}

		set := p.tagger.Tag(n)
		n.HaystackTags = set.Names()
		report := p.validator.Validate(n.HaystackTags)
		p.metrics.observePoint(n, report)

		result.Points = append(result.Points, PointResult{
			Point:      n,
			Markers:    set.Markers(),
			Compliance: report,
		})
	}
}

func (p *Pipeline) logResult(r DocumentResult) {
	fields := []zap.Field{
		zap.String("document", r.Name),
		zap.String("status", string(r.Status)),
		zap.String("equipment_type", r.Equipment.EquipmentType),
		zap.Int("points", len(r.Points)),
		zap.Int("warnings", len(r.Warnings)),
		zap.Duration("duration", r.ProcessingTime),
	}
	switch r.Status {
	case StatusFailed:
		p.logger.Warn("Document failed", append(fields, zap.String("error", r.Error))...)
	case StatusSkipped:
		p.logger.Warn("Document skipped", fields...)
	default:
		p.logger.Debug("Document processed", fields...)
	}
}

func fail(r DocumentResult, err error) DocumentResult {
	r.Status = StatusFailed
	r.Error = err.Error()
	r.Stored = false
	return r
}

func firstError(parsed *trio.ParseResult) string {
	if errs := parsed.Errors(); len(errs) > 0 {
		return errs[0].Message
	}
	return "document is not valid"
}
