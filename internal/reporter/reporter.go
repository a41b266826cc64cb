package reporter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fenilsonani/ignoreclean/internal/cleaner"
	"github.com/fenilsonani/ignoreclean/internal/config"
	"github.com/fenilsonani/ignoreclean/pkg/utils"
	"gopkg.in/yaml.v3"
)

// DryRunMessage is shown before a dry run starts
const DryRunMessage = "🚫 Running in dry-run mode. Pass --delete to actually delete."

// Options control what the reporter prints
type Options struct {
	Format   string // config.OutputText, OutputJSON or OutputYAML
	Quiet    bool
	ShowSize bool
}

// Reporter prints walk events and the final summary. It implements cleaner.Output.
type Reporter struct {
	out      io.Writer
	errOut   io.Writer
	opts     Options
	outTheme theme
	errTheme theme
}

// New creates a new Reporter
func New(out, errOut io.Writer, opts Options) (*Reporter, error) {
	switch opts.Format {
	case "":
		opts.Format = config.OutputText
	case config.OutputText, config.OutputJSON, config.OutputYAML:
	default:
		return nil, fmt.Errorf("unsupported format: %s", opts.Format)
	}

	return &Reporter{
		out:      out,
		errOut:   errOut,
		opts:     opts,
		outTheme: newTheme(out),
		errTheme: newTheme(errOut),
	}, nil
}

func (r *Reporter) structured() bool {
	return r.opts.Format != config.OutputText
}

// DryRunNotice announces a dry run. Structured formats keep stdout clean.
func (r *Reporter) DryRunNotice() {
	if r.structured() {
		fmt.Fprintln(r.errOut, r.errTheme.notice.Render(DryRunMessage))
		return
	}
	fmt.Fprintln(r.out, r.outTheme.notice.Render(DryRunMessage))
}

// Entry prints one ignored entry in text mode
func (r *Reporter) Entry(e cleaner.Entry) {
	if r.structured() || r.opts.Quiet {
		return
	}

	var line string
	if e.IsDir {
		line = "🗂️  " + r.outTheme.dirPath.Render(e.Path)
	} else {
		line = "📄 " + r.outTheme.filePath.Render(e.Path)
	}
	if r.opts.ShowSize {
		line += " " + r.outTheme.size.Render("("+utils.FormatBytes(e.Size)+")")
	}
	fmt.Fprintln(r.out, line)
}

// Error prints a reported, non-fatal error
func (r *Reporter) Error(err error) {
	fmt.Fprintln(r.errOut, r.errTheme.errLine.Render("❌ "+err.Error()))
}

// Fatal prints the error that ended the run
func (r *Reporter) Fatal(err error) {
	var delErr *cleaner.DeletionError
	if errors.As(err, &delErr) {
		fmt.Fprintln(r.errOut, r.errTheme.errLine.Render(delErr.UserMessage()))
		return
	}
	r.Error(err)
}

// Report prints the end-of-run output for result
func (r *Reporter) Report(result *cleaner.CleanResult) error {
	switch r.opts.Format {
	case config.OutputJSON:
		return r.reportJSON(result)
	case config.OutputYAML:
		return r.reportYAML(result)
	default:
		return r.reportText(result)
	}
}

// reportText prints the total line when sizes were measured
func (r *Reporter) reportText(result *cleaner.CleanResult) error {
	if !r.opts.ShowSize || result.Aborted {
		return nil
	}
	_, err := fmt.Fprintln(r.out, r.outTheme.total.Render("🧹 Total size: "+utils.FormatBytes(result.TotalSize)))
	return err
}

type summary struct {
	Timestamp          string          `json:"timestamp" yaml:"timestamp"`
	Root               string          `json:"root" yaml:"root"`
	DryRun             bool            `json:"dry_run" yaml:"dry_run"`
	Aborted            bool            `json:"aborted" yaml:"aborted"`
	Matched            int             `json:"matched" yaml:"matched"`
	Deleted            int             `json:"deleted" yaml:"deleted"`
	SkippedSymlinks    int             `json:"skipped_symlinks" yaml:"skipped_symlinks"`
	TotalSize          int64           `json:"total_size,omitempty" yaml:"total_size,omitempty"`
	TotalSizeFormatted string          `json:"total_size_formatted,omitempty" yaml:"total_size_formatted,omitempty"`
	Entries            []cleaner.Entry `json:"entries,omitempty" yaml:"entries,omitempty"`
	Errors             []string        `json:"errors" yaml:"errors"`
}

func (r *Reporter) summarize(result *cleaner.CleanResult) summary {
	s := summary{
		Timestamp:       time.Now().Format(time.RFC3339),
		Root:            result.Root,
		DryRun:          result.DryRun,
		Aborted:         result.Aborted,
		Matched:         result.Matched,
		Deleted:         result.Deleted,
		SkippedSymlinks: result.SkippedSymlinks,
		Errors:          []string{},
	}
	if r.opts.ShowSize {
		s.TotalSize = result.TotalSize
		s.TotalSizeFormatted = utils.FormatBytes(result.TotalSize)
	}
	if !r.opts.Quiet {
		s.Entries = result.Entries
	}
	for _, err := range result.Errors {
		s.Errors = append(s.Errors, err.Error())
	}
	return s
}

// reportJSON generates a JSON report
func (r *Reporter) reportJSON(result *cleaner.CleanResult) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r.summarize(result))
}

// reportYAML generates a YAML report
func (r *Reporter) reportYAML(result *cleaner.CleanResult) error {
	encoder := yaml.NewEncoder(r.out)
	defer encoder.Close()
	return encoder.Encode(r.summarize(result))
}
