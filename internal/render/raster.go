package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/efebarandurmaz/ompcfg/internal/cfg"
)

// RasterName is the built-in PNG plotter.
const RasterName = "raster"

const (
	boxPadding = 6
	lineHeight = 15
	rankGap    = 40
	columnGap  = 30
	margin     = 30
	loopWidth  = 16
)

var palette = map[string]color.RGBA{
	"lightgray":  {211, 211, 211, 255},
	"lightblue":  {173, 216, 230, 255},
	"red":        {255, 99, 71, 255},
	"lightgreen": {144, 238, 144, 255},
	"yellow":     {255, 255, 0, 255},
	"white":      {255, 255, 255, 255},
}

var (
	ink      = color.RGBA{0, 0, 0, 255}
	edgeInk  = color.RGBA{60, 60, 60, 255}
	repeatFg = color.RGBA{200, 0, 0, 255}
)

// Raster draws the graph as layered boxes without external tools. Nodes are
// ranked by breadth-first distance from the entry.
type Raster struct {
	face font.Face
}

// NewRaster creates a raster renderer using the 7x13 bitmap font.
func NewRaster() *Raster {
	return &Raster{face: basicfont.Face7x13}
}

func (r *Raster) Name() string { return RasterName }

func (r *Raster) Render(_ context.Context, g *cfg.Graph, _ string, base string) (string, error) {
	if g == nil || len(g.Nodes) == 0 {
		return "", errors.New("raster renderer needs a graph")
	}
	img := r.Draw(g)

	path := base + ".png"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return "", err
	}
	return path, f.Close()
}

type box struct {
	rect  image.Rectangle
	lines []string
	fill  color.RGBA
}

// Draw lays out and paints g.
func (r *Raster) Draw(g *cfg.Graph) *image.RGBA {
	ranks := rank(g)

	boxes := make(map[string]*box, len(g.Nodes))
	var rows [][]string
	for _, n := range g.Nodes {
		lvl := ranks[n.ID]
		for len(rows) <= lvl {
			rows = append(rows, nil)
		}
		rows[lvl] = append(rows[lvl], n.ID)

		lines := strings.Split(n.Label, "\n")
		w := 0
		for _, l := range lines {
			if lw := font.MeasureString(r.face, l).Ceil(); lw > w {
				w = lw
			}
		}
		fill, ok := palette[cfg.FillColor(n.Kind)]
		if !ok {
			fill = palette["white"]
		}
		boxes[n.ID] = &box{
			rect:  image.Rect(0, 0, w+2*boxPadding, len(lines)*lineHeight+2*boxPadding),
			lines: lines,
			fill:  fill,
		}
	}

	width, y := 0, margin
	for _, row := range rows {
		x, rowHeight := margin, 0
		for _, id := range row {
			b := boxes[id]
			b.rect = b.rect.Add(image.Pt(x, y))
			x = b.rect.Max.X + columnGap + loopWidth
			if h := b.rect.Dy(); h > rowHeight {
				rowHeight = h
			}
		}
		if x > width {
			width = x
		}
		y += rowHeight + rankGap
	}

	img := image.NewRGBA(image.Rect(0, 0, width+margin, y+margin))
	draw.Draw(img, img.Bounds(), &image.Uniform{palette["white"]}, image.Point{}, draw.Src)

	for _, e := range g.Edges {
		from, to := boxes[e.From], boxes[e.To]
		if from == nil || to == nil {
			continue
		}
		c := edgeInk
		if e.Repeat {
			c = repeatFg
		}
		if e.From == e.To {
			selfLoop(img, from.rect, c, e.Repeat)
			continue
		}
		start := image.Pt((from.rect.Min.X+from.rect.Max.X)/2, from.rect.Max.Y)
		end := image.Pt((to.rect.Min.X+to.rect.Max.X)/2, to.rect.Min.Y)
		if ranks[e.To] <= ranks[e.From] {
			start = image.Pt(from.rect.Max.X, (from.rect.Min.Y+from.rect.Max.Y)/2)
			end = image.Pt(to.rect.Max.X, (to.rect.Min.Y+to.rect.Max.Y)/2)
		}
		line(img, start, end, c, e.Repeat)
		arrowHead(img, end, c)
	}

	for _, n := range g.Nodes {
		b := boxes[n.ID]
		draw.Draw(img, b.rect, &image.Uniform{b.fill}, image.Point{}, draw.Src)
		outline(img, b.rect, ink)
		d := &font.Drawer{Dst: img, Src: image.NewUniform(ink), Face: r.face}
		for i, l := range b.lines {
			d.Dot = fixed.P(b.rect.Min.X+boxPadding, b.rect.Min.Y+boxPadding+(i+1)*lineHeight-3)
			d.DrawString(l)
		}
	}
	return img
}

// rank assigns breadth-first levels from the entry. Nodes the entry cannot
// reach go one level below the deepest reached node.
func rank(g *cfg.Graph) map[string]int {
	ranks := make(map[string]int, len(g.Nodes))
	start, ok := g.Entry()
	if !ok {
		start = g.Nodes[0]
	}
	ranks[start.ID] = 0
	queue := []string{start.ID}
	deepest := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range g.Successors(id) {
			if _, seen := ranks[next]; seen {
				continue
			}
			ranks[next] = ranks[id] + 1
			if ranks[next] > deepest {
				deepest = ranks[next]
			}
			queue = append(queue, next)
		}
	}
	for _, n := range g.Nodes {
		if _, seen := ranks[n.ID]; !seen {
			ranks[n.ID] = deepest + 1
		}
	}
	return ranks
}

func outline(img *image.RGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

// line draws a Bresenham segment, skipping every other 4px run when dashed.
func line(img *image.RGBA, a, b image.Point, c color.Color, dashed bool) {
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := sign(b.X-a.X), sign(b.Y-a.Y)
	err := dx + dy
	x, y := a.X, a.Y
	for step := 0; ; step++ {
		if !dashed || (step/4)%2 == 0 {
			img.Set(x, y, c)
		}
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func selfLoop(img *image.RGBA, r image.Rectangle, c color.Color, dashed bool) {
	top := r.Min.Y + r.Dy()/4
	bottom := r.Max.Y - r.Dy()/4
	right := r.Max.X + loopWidth
	line(img, image.Pt(r.Max.X, top), image.Pt(right, top), c, dashed)
	line(img, image.Pt(right, top), image.Pt(right, bottom), c, dashed)
	line(img, image.Pt(right, bottom), image.Pt(r.Max.X, bottom), c, dashed)
}

func arrowHead(img *image.RGBA, tip image.Point, c color.Color) {
	for i := 1; i <= 4; i++ {
		img.Set(tip.X-i, tip.Y-i, c)
		img.Set(tip.X+i, tip.Y-i, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
