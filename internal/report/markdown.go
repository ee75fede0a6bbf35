package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// WriteMarkdown writes s as a Markdown report titled title.
func WriteMarkdown(w io.Writer, title string, s Summary) error {
	md := markdown.NewMarkdown(w)

	md.H1(title)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Description", s.Description},
			{"Images", strconv.Itoa(s.Images)},
			{"Annotations", strconv.Itoa(s.Annotations)},
			{"Images without annotations", strconv.Itoa(s.EmptyImages)},
			{"Annotations per image", fmt.Sprintf("%.2f (max %d)", s.PerImage, s.MaxPerImage)},
		},
	})
	md.PlainText("")

	md.H2("Categories")
	md.PlainText("")
	rows := make([][]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		rows = append(rows, []string{
			strconv.Itoa(c.ID), c.Name, strconv.Itoa(c.Images), strconv.Itoa(c.Annotations),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Name", "Images", "Annotations"},
		Rows:   rows,
	})
	md.PlainText("")

	if s.Annotations > 0 {
		writePieChart(md, s)
	}

	md.H2("Annotation area")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Mean", "Std dev", "Min", "Max"},
		Rows: [][]string{{
			formatArea(s.Area.Mean), formatArea(s.Area.StdDev),
			formatArea(s.Area.Min), formatArea(s.Area.Max),
		}},
	})
	md.PlainText("")

	if s.EmptyImages > 0 {
		md.Warningf("%d of %d images have no annotations.", s.EmptyImages, s.Images)
		md.PlainText("")
	}
	return md.Build()
}

func writePieChart(md *markdown.Markdown, s Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Annotations per category"),
		piechart.WithShowData(true),
	)
	for _, c := range s.Categories {
		if c.Annotations > 0 {
			chart.LabelAndIntValue(c.Name, uint64(c.Annotations))
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func formatArea(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
