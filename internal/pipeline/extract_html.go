package pipeline

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"placement/internal/util"
)

const maxSpan = 256

// parseHTMLGrid lays out the first <table> of an HTML export as a cell grid.
// A cell spanning several rows or columns keeps its text in the top-left
// position only, the way merged spreadsheet cells read.
func parseHTMLGrid(content []byte) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, errors.New("no table found in html document")
	}

	grid := [][]string{}
	occupied := map[[2]int]bool{}
	set := func(r, c int, value string) {
		for len(grid) <= r {
			grid = append(grid, []string{})
		}
		for len(grid[r]) <= c {
			grid[r] = append(grid[r], "")
		}
		grid[r][c] = value
	}

	r := 0
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		c := 0
		tr.ChildrenFiltered("th,td").Each(func(_ int, cell *goquery.Selection) {
			for occupied[[2]int{r, c}] {
				c++
			}
			colspan := spanAttr(cell, "colspan")
			rowspan := spanAttr(cell, "rowspan")

			set(r, c, util.NormalizeSpaces(cellText(cell)))
			for dr := 0; dr < rowspan; dr++ {
				for dc := 0; dc < colspan; dc++ {
					occupied[[2]int{r + dr, c + dc}] = true
				}
			}
			c += colspan
		})
		for len(grid) <= r {
			grid = append(grid, []string{})
		}
		r++
	})

	return grid, nil
}

// cellText joins the text nodes of a cell with spaces, so a header written
// as "Total<br>800" reads "Total 800" rather than "Total800".
func cellText(cell *goquery.Selection) string {
	var parts []string
	var walk func(s *goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, n *goquery.Selection) {
			if goquery.NodeName(n) == "#text" {
				parts = append(parts, n.Text())
				return
			}
			walk(n)
		})
	}
	walk(cell)
	return strings.Join(parts, " ")
}

func spanAttr(cell *goquery.Selection, name string) int {
	raw, ok := cell.Attr(name)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	if n > maxSpan {
		return maxSpan
	}
	return n
}
