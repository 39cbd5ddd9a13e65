package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/datasets"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/files"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/jobs"
)

// Checkpoints the processor reports, in order. "done"/100 is recorded by
// the tracker itself once Process returns.
const (
	CheckpointFetch    = "fetch_file"
	CheckpointParse    = "parse"
	CheckpointProfile  = "profile"
	CheckpointRegister = "register_dataset"
)

// Processor ingests an uploaded file into the dataset catalog, advancing
// its job through fixed checkpoints. It implements jobs.Processor.
type Processor struct {
	Files    *files.Service
	Parser   TableParser
	Datasets *datasets.Service
}

// Process runs one ingestion. Job.TargetRef is the file id; Job.OwnerID is
// the uploader.
func (p *Processor) Process(ctx context.Context, job jobs.Job, advance jobs.AdvanceFunc) error {
	if err := advance(CheckpointFetch, 10); err != nil {
		return err
	}
	body, f, err := p.Files.Open(ctx, job.OwnerID, job.TargetRef)
	if err != nil {
		return fmt.Errorf("fetch file %s: %w", job.TargetRef, err)
	}
	defer body.Close()

	if err := advance(CheckpointParse, 40); err != nil {
		return err
	}
	table, err := p.Parser.Parse(ctx, body, f.Name)
	if err != nil {
		return fmt.Errorf("parse file %s (%s): %w", f.Name, f.MimeType, err)
	}

	if err := advance(CheckpointProfile, 70); err != nil {
		return err
	}
	descriptor := profile(f, table)

	if err := advance(CheckpointRegister, 90); err != nil {
		return err
	}
	if _, err := p.Datasets.Register(ctx, descriptor); err != nil {
		return fmt.Errorf("register dataset for file %s: %w", f.ID, err)
	}

	return nil
}

// profile derives a catalog descriptor from the parsed table.
func profile(f files.File, table Table) datasets.Dataset {
	name := f.Name
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}

	tags := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		col = strings.ToLower(strings.TrimSpace(col))
		if col != "" {
			tags = append(tags, col)
		}
	}

	return datasets.Dataset{
		Name:        name,
		Source:      "upload:" + f.ID,
		Description: fmt.Sprintf("Uploaded file %s (%d rows, %d columns)", f.Name, table.RowCount, len(table.Columns)),
		Columns:     table.Columns,
		RowCount:    table.RowCount,
		Tags:        tags,
	}
}
