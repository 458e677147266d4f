package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/penwyp/go-colony-monitor/internal/core/model"
	"github.com/penwyp/go-colony-monitor/internal/core/timeline"
	"github.com/penwyp/go-colony-monitor/internal/data/scanner"
	"github.com/penwyp/go-colony-monitor/internal/util"
)

// Parser turns observation CSV files into typed records.
type Parser struct {
	mapper      *timeline.Mapper
	aliases     map[string]string
	delimiter   rune
	concurrency int
	mu          sync.Mutex
	cache       map[string]cachedFile
}

type cachedFile struct {
	modTime    time.Time
	size       int64
	activities []model.Interval
	predators  []model.PredatorInterval
}

// SourceResult holds the records of one source.
type SourceResult struct {
	Source     scanner.Source
	Activities []model.Interval
	Predators  []model.PredatorInterval
	Error      error
}

// NewParser creates a Parser resolving times with mapper.
func NewParser(mapper *timeline.Mapper, concurrency int) *Parser {
	if concurrency <= 0 {
		concurrency = 1
	}
	aliases := make(map[string]string, len(DefaultAliases))
	for k, v := range DefaultAliases {
		aliases[k] = v
	}
	return &Parser{
		mapper:      mapper,
		aliases:     aliases,
		delimiter:   ',',
		concurrency: concurrency,
		cache:       make(map[string]cachedFile),
	}
}

// WithAliases adds column aliases (alias -> canonical name).
func (p *Parser) WithAliases(aliases map[string]string) *Parser {
	for k, v := range aliases {
		p.aliases[strings.ToLower(k)] = strings.ToLower(v)
	}
	return p
}

// WithDelimiter sets the field delimiter.
func (p *Parser) WithDelimiter(delimiter rune) *Parser {
	if delimiter != 0 {
		p.delimiter = delimiter
	}
	return p
}

// ParseActivityFile reads an activity file of the given source.
func (p *Parser) ParseActivityFile(path, source string) ([]model.Interval, error) {
	if cached, ok := p.cached(path); ok && cached.activities != nil {
		return cached.activities, nil
	}

	util.LogDebug(fmt.Sprintf("Start parsing activity file: %s", path))

	var activities []model.Interval
	err := p.readFile(path, []string{ColumnDay, ColumnStart, ColumnEnd, ColumnActivity, ColumnCamera},
		func(h header, record []string, line int) error {
			iv, err := p.interval(h, record, line, source, ColumnActivity)
			if err != nil {
				return err
			}
			activities = append(activities, iv.Interval)
			return nil
		})
	if err != nil {
		return nil, err
	}
	if activities == nil {
		activities = []model.Interval{}
	}

	p.store(path, func(c *cachedFile) { c.activities = activities })
	return activities, nil
}

// ParsePredatorFile reads a predator file of the given source. Rows marking
// video boundaries are skipped.
func (p *Parser) ParsePredatorFile(path, source string) ([]model.PredatorInterval, error) {
	if cached, ok := p.cached(path); ok && cached.predators != nil {
		return cached.predators, nil
	}

	util.LogDebug(fmt.Sprintf("Start parsing predator file: %s", path))

	var predators []model.PredatorInterval
	skipped := 0
	err := p.readFile(path, []string{ColumnDay, ColumnStart, ColumnEnd, ColumnPredator, ColumnCamera},
		func(h header, record []string, line int) error {
			if name, _ := h.get(record, ColumnPredator); strings.EqualFold(name, model.PredatorVideoMarker) {
				skipped++
				return nil
			}
			pred, err := p.interval(h, record, line, source, ColumnPredator)
			if err != nil {
				return err
			}
			predators = append(predators, pred)
			return nil
		})
	if err != nil {
		return nil, err
	}
	if predators == nil {
		predators = []model.PredatorInterval{}
	}
	if skipped > 0 {
		util.LogDebug(fmt.Sprintf("Skipped %d video marker rows in %s", skipped, path))
	}

	p.store(path, func(c *cachedFile) { c.predators = predators })
	return predators, nil
}

// ParseSource reads both files of a source.
func (p *Parser) ParseSource(src scanner.Source) SourceResult {
	result := SourceResult{Source: src}
	if src.ActivityPath != "" {
		result.Activities, result.Error = p.ParseActivityFile(src.ActivityPath, src.Name)
		if result.Error != nil {
			return result
		}
	}
	if src.PredatorPath != "" {
		result.Predators, result.Error = p.ParsePredatorFile(src.PredatorPath, src.Name)
	}
	return result
}

// ParseSources parses sources concurrently and returns a channel of
// SourceResult. Results arrive in completion order.
func (p *Parser) ParseSources(sources []scanner.Source) <-chan SourceResult {
	start := time.Now()
	results := make(chan SourceResult, len(sources))
	var wg sync.WaitGroup

	util.LogDebug(fmt.Sprintf("Start concurrent parsing of %d sources, concurrency: %d", len(sources), p.concurrency))

	semaphore := make(chan struct{}, p.concurrency)

	for _, src := range sources {
		wg.Add(1)
		go func(s scanner.Source) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			sourceStart := time.Now()
			result := p.ParseSource(s)
			if result.Error != nil {
				util.LogDebug(fmt.Sprintf("Source parsing failed: %s, duration %v - %v", s.Name, time.Since(sourceStart), result.Error))
			}
			results <- result
		}(src)
	}

	go func() {
		wg.Wait()
		close(results)

		util.LogDebug(fmt.Sprintf("Concurrent parsing finished, total duration: %v", time.Since(start)))
	}()

	return results
}

// Invalidate drops the cached records of path.
func (p *Parser) Invalidate(path string) {
	p.mu.Lock()
	delete(p.cache, path)
	p.mu.Unlock()
}

func (p *Parser) readFile(path string, required []string, row func(h header, record []string, line int) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = p.delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	columns, err := reader.Read()
	if err == io.EOF {
		return fmt.Errorf("%s: empty file", path)
	}
	if err != nil {
		return fmt.Errorf("%s: failed to read header: %w", path, err)
	}

	h := newHeader(columns, p.aliases)
	if err := h.require(required...); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if blank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		if err := row(h, record, line); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
	}
}

// interval builds a record from one row. Attack instants start from the
// start day shift; each attack earlier in the day than the previous one
// (the record start for the first) moves to the next day.
func (p *Parser) interval(h header, record []string, line int, source, categoryColumn string) (model.PredatorInterval, error) {
	dayValue, _ := h.get(record, ColumnDay)
	shift, err := ParseDayShift(dayValue)
	if err != nil {
		return model.PredatorInterval{}, err
	}

	startValue, _ := h.get(record, ColumnStart)
	startClock, err := model.ParseClock(startValue)
	if err != nil {
		return model.PredatorInterval{}, fmt.Errorf("start: %w", err)
	}
	endValue, _ := h.get(record, ColumnEnd)
	endClock, err := model.ParseClock(endValue)
	if err != nil {
		return model.PredatorInterval{}, fmt.Errorf("end: %w", err)
	}

	category, _ := h.get(record, categoryColumn)
	camera, _ := h.get(record, ColumnCamera)

	out := model.PredatorInterval{
		Interval: model.Interval{
			Start:    p.mapper.Instant(shift.Start, startClock),
			End:      p.mapper.Instant(shift.End, endClock),
			Category: category,
			Camera:   model.Camera(camera),
			Source:   source,
			Line:     line,
		},
	}

	attackShift := shift.Start
	previous := startClock
	for i, value := range h.attacks(record) {
		attackClock, err := model.ParseClock(value)
		if err != nil {
			return model.PredatorInterval{}, fmt.Errorf("attack%d: %w", i+1, err)
		}
		if attackClock.Before(previous) {
			attackShift++
		}
		out.Attacks = append(out.Attacks, p.mapper.Instant(attackShift, attackClock))
		previous = attackClock
	}

	return out, nil
}

func (p *Parser) cached(path string) (cachedFile, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return cachedFile{}, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	cached, ok := p.cache[path]
	if !ok || !cached.modTime.Equal(info.ModTime()) || cached.size != info.Size() {
		return cachedFile{}, false
	}
	return cached, true
}

func (p *Parser) store(path string, update func(c *cachedFile)) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	entry := p.cache[path]
	if !entry.modTime.Equal(info.ModTime()) || entry.size != info.Size() {
		entry = cachedFile{modTime: info.ModTime(), size: info.Size()}
	}
	update(&entry)
	p.cache[path] = entry
}
