// Command lyrebird converts MuseScore notation files to MusicXML.
// It provides single-file conversion, score inspection, a score catalog,
// and a live preview server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/notefall/lyrebird/core/convert"
	"github.com/notefall/lyrebird/core/score"
	"github.com/notefall/lyrebird/internal/library"
	"github.com/notefall/lyrebird/internal/logging"
	"github.com/notefall/lyrebird/internal/server"
)

const version = "0.1.0"

// CLI defines the command-line interface for lyrebird.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"info" enum:"debug,info,warn,error"`
	LogFormat string `name:"log-format" help:"Log output format (text, json)" default:"text" enum:"text,json"`

	Convert ConvertCmd   `cmd:"" help:"Convert a score file to MusicXML"`
	Inspect InspectCmd   `cmd:"" help:"Summarize a score file's parsed structure"`
	Serve   ServeCmd     `cmd:"" help:"Start the preview server"`
	Library LibraryGroup `cmd:"" help:"Score catalog operations"`
	Version VersionCmd   `cmd:"" help:"Print version information"`
}

// ConvertCmd converts one score file to MusicXML.
type ConvertCmd struct {
	Path   string `arg:"" help:"Path to input score file (.mscz, .mscx, or plain XML)" type:"existingfile"`
	Out    string `short:"o" help:"Output path (default: input name with .musicxml)" type:"path"`
	Stdout bool   `help:"Write the document to standard output"`
}

func (c *ConvertCmd) Run() error {
	raw, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	xml, err := convert.Convert(raw)
	if err != nil {
		return err
	}

	if c.Stdout {
		fmt.Print(xml)
		return nil
	}

	out := c.Out
	if out == "" {
		out = replaceExt(c.Path, ".musicxml")
	}
	if err := os.WriteFile(out, []byte(xml), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}

// InspectCmd summarizes a score file's parsed structure.
type InspectCmd struct {
	Path string `arg:"" help:"Path to input score file" type:"existingfile"`
	JSON bool   `help:"Output as JSON"`
}

// scoreSummary is the inspect command's view of a parsed score.
type scoreSummary struct {
	Title    string        `json:"title,omitempty"`
	Composer string        `json:"composer,omitempty"`
	Dialect  string        `json:"dialect"`
	Version  string        `json:"version"`
	Division int           `json:"division"`
	Measures int           `json:"measures"`
	Parts    []partSummary `json:"parts"`
}

type partSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Staves      int    `json:"staves"`
	Measures    int    `json:"measures"`
	Voices      int    `json:"voices"`
	Transposing bool   `json:"transposing,omitempty"`
}

func (c *InspectCmd) Run() error {
	raw, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	s, err := convert.ParseScore(raw)
	if err != nil {
		return err
	}

	info := summarize(s)

	if c.JSON {
		output, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	printSummary(info)
	return nil
}

func summarize(s *score.Score) scoreSummary {
	info := scoreSummary{
		Title:    s.Title,
		Composer: s.Composer,
		Dialect:  string(s.Dialect),
		Version:  s.Version,
		Division: s.Division,
		Measures: s.MeasureCount(),
	}
	for _, p := range s.Parts {
		ps := partSummary{
			ID:          p.ID,
			Name:        p.Name,
			Staves:      len(p.Staves),
			Measures:    p.MeasureCount(),
			Voices:      maxVoices(p),
			Transposing: p.Instrument.Transposes(),
		}
		info.Parts = append(info.Parts, ps)
	}
	return info
}

// maxVoices returns the widest voice count of any measure in the part,
// counting all staves of the measure together.
func maxVoices(p *score.Part) int {
	max := 0
	for mi := 0; mi < p.MeasureCount(); mi++ {
		total := 0
		for _, st := range p.Staves {
			if mi < len(st.Measures) {
				total += len(st.Measures[mi].Voices)
			}
		}
		if total > max {
			max = total
		}
	}
	return max
}

func printSummary(info scoreSummary) {
	if info.Title != "" {
		fmt.Printf("Title:    %s\n", info.Title)
	}
	if info.Composer != "" {
		fmt.Printf("Composer: %s\n", info.Composer)
	}
	fmt.Printf("Dialect:  %s (schema version %s)\n", info.Dialect, info.Version)
	fmt.Printf("Division: %d ticks per quarter\n", info.Division)
	fmt.Printf("Measures: %d\n", info.Measures)
	fmt.Printf("Parts:    %d\n", len(info.Parts))
	for _, p := range info.Parts {
		transposing := ""
		if p.Transposing {
			transposing = ", transposing"
		}
		fmt.Printf("  %-4s %-24s %d staves, %d measures, %d voices%s\n",
			p.ID, p.Name, p.Staves, p.Measures, p.Voices, transposing)
	}
}

// ServeCmd starts the preview server.
type ServeCmd struct {
	Addr         string        `help:"Listen address" default:":8735"`
	Root         string        `help:"Directory scanned for score files" default:"." type:"path"`
	DB           string        `help:"Catalog database path" default:"lyrebird.db" type:"path"`
	ScanInterval time.Duration `help:"How often the root is rescanned" default:"5s"`
}

func (c *ServeCmd) Run() error {
	srv, err := server.New(server.Config{
		Addr:         c.Addr,
		Root:         c.Root,
		DBPath:       c.DB,
		ScanInterval: c.ScanInterval,
	})
	if err != nil {
		return err
	}
	defer srv.Close()
	return srv.Start(context.Background())
}

// LibraryGroup contains score catalog operations.
type LibraryGroup struct {
	Scan LibraryScanCmd `cmd:"" help:"Scan a directory into the catalog"`
	List LibraryListCmd `cmd:"" help:"List cataloged scores"`
}

// LibraryScanCmd scans a directory tree into the catalog.
type LibraryScanCmd struct {
	Root string `help:"Directory scanned for score files" default:"." type:"path"`
	DB   string `help:"Catalog database path" default:"lyrebird.db" type:"path"`
}

func (c *LibraryScanCmd) Run() error {
	cat, err := library.Open(c.DB)
	if err != nil {
		return err
	}
	defer cat.Close()

	stats, err := cat.Scan(context.Background(), c.Root)
	if err != nil {
		return err
	}
	fmt.Printf("Scan complete: %d added, %d updated, %d unchanged, %d removed, %d failed\n",
		stats.Added, stats.Updated, stats.Unchanged, stats.Removed, stats.Failed)
	return nil
}

// LibraryListCmd lists cataloged scores.
type LibraryListCmd struct {
	DB   string `help:"Catalog database path" default:"lyrebird.db" type:"path"`
	JSON bool   `help:"Output as JSON"`
}

func (c *LibraryListCmd) Run() error {
	cat, err := library.Open(c.DB)
	if err != nil {
		return err
	}
	defer cat.Close()

	entries, err := cat.List(context.Background())
	if err != nil {
		return err
	}

	if c.JSON {
		output, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("No scores cataloged. Run 'lyrebird library scan' first.")
		return nil
	}
	for _, e := range entries {
		title := e.Title
		if title == "" {
			title = filepath.Base(e.Path)
		}
		fmt.Printf("%s  %-32s %-24s %s\n", e.ID, title, e.Composer, e.Path)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("lyrebird version %s\n", version)
	return nil
}

// replaceExt swaps the extension of path for ext.
func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func parseLogLevel(s string) logging.Level {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func parseLogFormat(s string) logging.Format {
	if s == "json" {
		return logging.FormatJSON
	}
	return logging.FormatText
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("lyrebird"),
		kong.Description("Lyrebird - MuseScore to MusicXML converter"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(parseLogLevel(CLI.LogLevel), parseLogFormat(CLI.LogFormat))
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
