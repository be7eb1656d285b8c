// internal/export/export.go
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"starcorn/internal/category"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatMarkdown, FormatJSON, FormatCSV}

// ParseFormat validates s as a Format. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatMarkdown, FormatJSON, FormatCSV:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	default:
		return "txt"
	}
}

// Filename is the default file name for a user's export.
func Filename(username string, f Format) string {
	return username + "-stars." + f.Extension()
}

// Options describes one export.
type Options struct {
	Username   string
	Categories []category.Category
	// TotalRepos is reported as totalStars in JSON.
	TotalRepos int
	// ExportedAt defaults to the current time.
	ExportedAt time.Time
}

// Write renders opts to w in format f.
func Write(w io.Writer, f Format, opts Options) error {
	switch f {
	case FormatText:
		return Text(w, opts)
	case FormatMarkdown:
		return Markdown(w, opts)
	case FormatJSON:
		return JSON(w, opts)
	case FormatCSV:
		return CSV(w, opts)
	}
	return fmt.Errorf("unknown format %q", f)
}

// Markdown writes one section per non-empty category.
func Markdown(w io.Writer, opts Options) error {
	p := message.NewPrinter(language.English)

	var b strings.Builder
	fmt.Fprintf(&b, "# GitHub Stars - @%s\n\n", opts.Username)
	for _, cat := range opts.Categories {
		if len(cat.Repos) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s (%d)\n\n", cat.Name, len(cat.Repos))
		for _, r := range cat.Repos {
			description := ""
			if d := r.DescriptionOrEmpty(); d != "" {
				description = " - " + d
			}
			b.WriteString(p.Sprintf("- [%s](%s)%s - ⭐ %d\n", r.FullName, r.URL, description, r.StarsCount))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

type jsonRepo struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	URL         string   `json:"url"`
	Stars       int      `json:"stars"`
	Language    *string  `json:"language"`
	Topics      []string `json:"topics"`
}

type jsonGroup struct {
	name  string
	repos []jsonRepo
}

// jsonGroups marshals as an object whose keys keep category order.
type jsonGroups []jsonGroup

func (g jsonGroups) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, group := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, group.name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, group.repos); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeJSON appends v to buf without HTML escaping, so names like
// "AI & Machine Learning" stay readable.
func writeJSON(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

type jsonExport struct {
	Username   string     `json:"username"`
	ExportedAt string     `json:"exportedAt"`
	TotalStars int        `json:"totalStars"`
	Categories jsonGroups `json:"categories"`
}

// JSON writes an indented document. Empty categories are left out.
func JSON(w io.Writer, opts Options) error {
	exportedAt := opts.ExportedAt
	if exportedAt.IsZero() {
		exportedAt = time.Now()
	}

	doc := jsonExport{
		Username:   opts.Username,
		ExportedAt: exportedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		TotalStars: opts.TotalRepos,
		Categories: jsonGroups{},
	}
	for _, cat := range opts.Categories {
		if len(cat.Repos) == 0 {
			continue
		}
		group := jsonGroup{name: cat.Name, repos: make([]jsonRepo, 0, len(cat.Repos))}
		for _, r := range cat.Repos {
			topics := r.Topics
			if topics == nil {
				topics = []string{}
			}
			group.repos = append(group.repos, jsonRepo{
				Name:        r.FullName,
				Description: r.Description,
				URL:         r.URL,
				Stars:       r.StarsCount,
				Language:    r.Language,
				Topics:      topics,
			})
		}
		doc.Categories = append(doc.Categories, group)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	return nil
}

// CSV writes one row per repository with a header row first.
func CSV(w io.Writer, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Category", "Name", "Description", "URL", "Stars", "Language", "Topics"}); err != nil {
		return err
	}
	for _, cat := range opts.Categories {
		for _, r := range cat.Repos {
			row := []string{
				cat.Name,
				r.FullName,
				r.DescriptionOrEmpty(),
				r.URL,
				strconv.Itoa(r.StarsCount),
				r.LanguageOrEmpty(),
				strings.Join(r.Topics, "; "),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Text writes an aligned listing for a terminal. Unlike the file formats it
// keeps empty categories.
func Text(w io.Writer, opts Options) error {
	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	for _, cat := range opts.Categories {
		fmt.Fprintf(tw, "%s (%d)\n", cat.Name, len(cat.Repos))
		for _, r := range cat.Repos {
			lang := r.LanguageOrEmpty()
			if lang == "" {
				lang = "-"
			}
			p.Fprintf(tw, "  %s\t%d\t%s\t%s\n", r.FullName, r.StarsCount, lang, truncate(r.DescriptionOrEmpty(), 72))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
