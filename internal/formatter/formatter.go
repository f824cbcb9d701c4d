// package formatter provides functions to export a watchlist to various formats (plain text, CSV, Markdown, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/watchlist/internal/models"
	"github.com/desertthunder/watchlist/internal/shared"
)

// Resolver looks up catalog details for a list reference. The catalog cache satisfies it.
type Resolver interface {
	Lookup(id models.ID) (models.CatalogItem, bool)
}

// Format selects an export rendition.
type Format string

const (
	Text     Format = "txt"
	CSV      Format = "csv"
	Markdown Format = "md"
	JSON     Format = "json"
)

// ParseFormat accepts the file extensions above plus a few long names.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return Text, nil
	case "csv":
		return CSV, nil
	case "md", "markdown":
		return Markdown, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// Entry is one list position resolved against the catalog. Item is nil for stale references.
type Entry struct {
	Position int
	ID       models.ID
	Item     *models.CatalogItem
}

// Resolve pairs each list reference with its catalog record in list order.
func Resolve(list models.WatchList, resolver Resolver) []Entry {
	entries := make([]Entry, len(list.Items))
	for i, id := range list.Items {
		entries[i] = Entry{Position: i + 1, ID: id}
		if resolver == nil {
			continue
		}
		if item, ok := resolver.Lookup(id); ok {
			entries[i].Item = &item
		}
	}
	return entries
}

func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// ExportToText renders the list name, a blank line, then one numbered block per item followed by a blank line.
func ExportToText(list models.WatchList, resolver Resolver) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(list.Name + "\n\n")
	if len(list.Items) == 0 {
		buf.WriteString("No items in this list.\n")
		return buf.Bytes(), nil
	}

	for _, e := range Resolve(list, resolver) {
		if e.Item == nil {
			fmt.Fprintf(&buf, "%d. Movie ID: %d (Details not found)\n\n", e.Position, e.ID)
			continue
		}

		fmt.Fprintf(&buf, "%d. %s\n", e.Position, e.Item.Name)
		fmt.Fprintf(&buf, "   Platform: %s\n", e.Item.Platform)
		fmt.Fprintf(&buf, "   Release Year: %d\n", e.Item.ReleaseYear)
		if e.Item.Genre != "" {
			fmt.Fprintf(&buf, "   Genre: %s\n", e.Item.Genre)
		}
		if e.Item.Rating != nil {
			fmt.Fprintf(&buf, "   Rating: %s\n", formatRating(*e.Item.Rating))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToCSV converts a list to CSV with columns: Position, ID, Name, Platform, Release Year, Genre, Rating
//
// Stale references keep their position and id with the remaining columns empty.
func ExportToCSV(list models.WatchList, resolver Resolver) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Name", "Platform", "Release Year", "Genre", "Rating"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range Resolve(list, resolver) {
		record := []string{strconv.Itoa(e.Position), e.ID.String(), "", "", "", "", ""}
		if e.Item != nil {
			record[2] = e.Item.Name
			record[3] = e.Item.Platform
			record[4] = strconv.Itoa(e.Item.ReleaseYear)
			record[5] = e.Item.Genre
			if e.Item.Rating != nil {
				record[6] = formatRating(*e.Item.Rating)
			}
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a heading, an item count and a numbered list.
func ExportToMarkdown(list models.WatchList, resolver Resolver) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", list.Name)
	fmt.Fprintf(&buf, "**Items**: %d\n\n", len(list.Items))

	for _, e := range Resolve(list, resolver) {
		if e.Item == nil {
			fmt.Fprintf(&buf, "%d. _Movie ID %d (details not found)_\n", e.Position, e.ID)
			continue
		}

		details := []string{e.Item.Platform, strconv.Itoa(e.Item.ReleaseYear)}
		if e.Item.Genre != "" {
			details = append(details, e.Item.Genre)
		}
		if e.Item.Rating != nil {
			details = append(details, "★ "+formatRating(*e.Item.Rating))
		}
		fmt.Fprintf(&buf, "%d. **%s** (%s)\n", e.Position, e.Item.Name, strings.Join(details, ", "))
	}

	return buf.Bytes(), nil
}

type jsonExport struct {
	ID    models.ID         `json:"id"`
	Name  string            `json:"name"`
	Items []jsonExportEntry `json:"items"`
}

type jsonExportEntry struct {
	ID    models.ID           `json:"id"`
	Found bool                `json:"found"`
	Item  *models.CatalogItem `json:"item,omitempty"`
}

// ExportToJSON renders the list with each reference resolved inline.
func ExportToJSON(list models.WatchList, resolver Resolver) ([]byte, error) {
	out := jsonExport{ID: list.ID, Name: list.Name, Items: []jsonExportEntry{}}
	for _, e := range Resolve(list, resolver) {
		out.Items = append(out.Items, jsonExportEntry{ID: e.ID, Found: e.Item != nil, Item: e.Item})
	}
	return shared.MarshalJSON(out, true)
}

// Render dispatches to the exporter for format.
func Render(list models.WatchList, resolver Resolver, format Format) ([]byte, error) {
	switch format {
	case Text:
		return ExportToText(list, resolver)
	case CSV:
		return ExportToCSV(list, resolver)
	case Markdown:
		return ExportToMarkdown(list, resolver)
	case JSON:
		return ExportToJSON(list, resolver)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

// DefaultFilename is {list id}_watchlist.{ext}.
func DefaultFilename(list models.WatchList, format Format) string {
	return fmt.Sprintf("%d_watchlist.%s", list.ID, format)
}

// WriteExport renders list in format and writes it to path, defaulting to [DefaultFilename].
func WriteExport(list models.WatchList, resolver Resolver, format Format, path string) (string, error) {
	if path == "" {
		path = DefaultFilename(list, format)
	}

	data, err := Render(list, resolver, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s export: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
